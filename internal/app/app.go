package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/catalog"
	"github.com/temcen/reelrank/internal/config"
	"github.com/temcen/reelrank/internal/database"
	"github.com/temcen/reelrank/internal/handlers"
	"github.com/temcen/reelrank/internal/history"
	"github.com/temcen/reelrank/internal/middleware"
	"github.com/temcen/reelrank/internal/services"
	"github.com/temcen/reelrank/internal/similarity"
	"github.com/temcen/reelrank/internal/validation"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
	stop     context.CancelFunc
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	// Initialize database connections
	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout+30*time.Second)
	defer cancel()

	if err := history.Migrate(ctx, db.PG); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	validator, err := validation.NewSchemaValidator()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema validator: %w", err)
	}

	// Offline data; a missing or broken snapshot leaves the lists empty
	var snapshotValidator *validation.SchemaValidator
	if cfg.Snapshot.Validate {
		snapshotValidator = validator
	}
	store := catalog.LoadOrEmpty(cfg.Snapshot.CatalogPath, snapshotValidator, app.logger)
	tables := similarity.LoadOrEmpty(ctx, app.similaritySource(snapshotValidator), app.logger)

	// Initialize services
	services, err := services.New(cfg, app.logger, db, validator, store, tables)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = services

	// Initialize handlers
	app.handlers = handlers.New(app.logger, services)

	// Setup router
	app.setupRouter()

	background, stop := context.WithCancel(context.Background())
	app.stop = stop
	go services.Health.CollectSystemMetrics(background)

	return app, nil
}

func (a *App) similaritySource(validator *validation.SchemaValidator) similarity.Source {
	if a.config.Snapshot.SimilaritySource == "neo4j" && a.db.Neo4j != nil {
		return similarity.NewGraphSource(a.db.Neo4j)
	}
	return &similarity.FileSource{
		FeaturesPath: a.config.Snapshot.FeaturesPath,
		ScoresPath:   a.config.Snapshot.ScoresPath,
		Validator:    validator,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.stop != nil {
		a.stop()
	}

	if err := a.services.EventBus.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing event bus")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.router = newRouter(a.config, a.logger, a.handlers, a.services.Auth)
}

// newRouter mounts the routes on a fresh engine.
func newRouter(cfg *config.Config, logger *logrus.Logger, h *handlers.Handlers, auth services.AuthServiceInterface) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Security.CORS))

	// Health and Prometheus endpoints (no identity required)
	router.GET("/health", h.Health.Check)
	router.GET("/metrics", h.Metrics.Serve)

	api := router.Group("/api/v1")
	{
		api.Use(middleware.RateLimit(cfg.Security.RateLimit, logger))
		api.Use(middleware.Identity(auth, cfg.Auth, logger))

		api.GET("/home", h.Recommendation.Home)
		api.GET("/genres/:genre", h.Recommendation.Genre)
		api.GET("/categories/:genre", h.Recommendation.Category)
		api.GET("/search", h.Recommendation.Search)
		api.GET("/history", h.Recommendation.History)

		movies := api.Group("/movies")
		{
			movies.GET("/:movie", h.Recommendation.Movie)
			movies.POST("/:movie/watched", h.Recommendation.MarkWatched)
			movies.PUT("/:movie/rating", h.Recommendation.Rate)
		}

		api.POST("/auth/logout", h.Auth.Logout)
	}

	return router
}
