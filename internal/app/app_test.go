package app

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelrank/internal/catalog"
	"github.com/temcen/reelrank/internal/config"
	"github.com/temcen/reelrank/internal/handlers"
	"github.com/temcen/reelrank/internal/ranking"
	"github.com/temcen/reelrank/internal/services"
	"github.com/temcen/reelrank/internal/similarity"
	"github.com/temcen/reelrank/pkg/models"
)

// testRouter wires the real router over in-memory data and no stores.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.SessionCookie = "reelrank_session"
	cfg.Auth.SessionTTL = time.Hour
	cfg.Ranking.DefaultGenres = []string{"Action", "Comedy"}

	store := catalog.NewStore([]models.Item{
		{ID: 1, Title: "Heat", VoteCount: 12000, VoteAverage: 8.3, Genres: []string{"Action"}},
	})
	tables := similarity.Empty()

	auth := services.NewAuthService(cfg, logger, nil)
	recommendation := services.NewRecommendationService(services.RecommendationDeps{
		Catalog:  store,
		Engine:   ranking.NewEngine(store, tables, ranking.DefaultLimits()),
		Affinity: ranking.NewAffinity(store, 15, 2),
	}, cfg.Ranking, logger)

	h := &handlers.Handlers{
		Health:         handlers.NewHealthHandler(logger, services.NewHealthService(logger, nil, store, tables)),
		Recommendation: handlers.NewRecommendationHandler(recommendation, nil, logger),
		Auth:           handlers.NewAuthHandler(auth, logger),
		Metrics:        handlers.NewMetricsHandler(),
	}

	return newRouter(cfg, logger, h, auth)
}

func TestRouter_Home(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/home", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Heat"`)
	assert.Contains(t, w.Body.String(), `"top_genres":["Action","Comedy"]`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestRouter_UnknownMovie(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/movies/no-such-movie", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_RatingRequiresSignIn(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/movies/1/rating", nil)
	req.Header.Set("Authorization", "Bearer forged.token.value")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_LogoutWithoutToken(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/auth/logout", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_Health(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	// Similarity tables are empty, so the service is degraded but serving.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestSetupLogger(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	logger := setupLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg.Logging.Level = "bogus"
	cfg.Logging.Format = "text"
	logger = setupLogger(cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
