package services

import (
	"github.com/temcen/reelrank/internal/catalog"
	"github.com/temcen/reelrank/internal/config"
	"github.com/temcen/reelrank/internal/database"
	"github.com/temcen/reelrank/internal/history"
	"github.com/temcen/reelrank/internal/messaging"
	"github.com/temcen/reelrank/internal/ranking"
	"github.com/temcen/reelrank/internal/similarity"
	"github.com/temcen/reelrank/internal/trailer"
	"github.com/temcen/reelrank/internal/validation"

	"github.com/sirupsen/logrus"
)

type Services struct {
	Auth           *AuthService
	Health         *HealthService
	EventBus       *messaging.EventBus
	Validator      *validation.SchemaValidator
	Recommendation *RecommendationService
	Metrics        *RankingMetrics
}

func New(
	cfg *config.Config,
	logger *logrus.Logger,
	db *database.Database,
	validator *validation.SchemaValidator,
	store *catalog.Store,
	tables *similarity.Tables,
) (*Services, error) {
	authService := NewAuthService(cfg, logger, db.Redis.Sessions)
	healthService := NewHealthService(logger, db, store, tables)
	eventBus := messaging.NewEventBus(cfg, logger)
	healthService.ReportEvents(eventBus)

	metrics := NewRankingMetrics(logger)
	featureSeeds, scoreSeeds := tables.Sizes()
	metrics.SetDataSizes(store.Len(), featureSeeds, scoreSeeds)

	// Trailer lookup: API first when a key is configured, then the search page.
	var strategies []trailer.Strategy
	if cfg.Trailer.APIKey != "" {
		strategies = append(strategies, trailer.NewYouTubeAPI(cfg.Trailer, logger))
	}
	strategies = append(strategies, trailer.NewPageScrape(cfg.Trailer.SearchBaseURL, cfg.Trailer.Timeout))
	resolver := trailer.NewResolver(cfg.Trailer.DefaultURL, logger, strategies...)

	recommendation := NewRecommendationService(RecommendationDeps{
		Catalog:      store,
		Engine:       ranking.NewEngine(store, tables, ranking.LimitsFromConfig(cfg.Ranking)),
		Affinity:     ranking.NewAffinity(store, cfg.Ranking.HistoryWindow, cfg.Ranking.TopGenreMinCount),
		UserHistory:  history.NewPostgresStore(db.PG),
		SessionStore: history.NewSessionStore(db.Redis.Sessions, cfg.Auth.SessionTTL),
		Ratings:      history.NewRatingStore(db.PG),
		Trailers:     resolver,
		TrailerCache: trailer.NewCache(db.Redis.Cache, cfg.Trailer.CacheTTL),
		Events:       eventBus,
		Metrics:      metrics,
	}, cfg.Ranking, logger)

	return &Services{
		Auth:           authService,
		Health:         healthService,
		EventBus:       eventBus,
		Validator:      validator,
		Recommendation: recommendation,
		Metrics:        metrics,
	}, nil
}
