package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/reelrank/internal/services"
	"github.com/temcen/reelrank/internal/validation"
	"github.com/temcen/reelrank/pkg/models"
)

type MockRecommendationService struct {
	mock.Mock
}

func (m *MockRecommendationService) Home(ctx context.Context, viewer models.Viewer) (*models.HomeResponse, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HomeResponse), args.Error(1)
}

func (m *MockRecommendationService) Movie(ctx context.Context, viewer models.Viewer, slug string) (*models.MovieResponse, error) {
	args := m.Called(ctx, viewer, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MovieResponse), args.Error(1)
}

func (m *MockRecommendationService) Genre(ctx context.Context, viewer models.Viewer, genreSlug string) (*models.ListResponse, error) {
	args := m.Called(ctx, viewer, genreSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListResponse), args.Error(1)
}

func (m *MockRecommendationService) Category(ctx context.Context, genreSlug string) (*models.ListResponse, error) {
	args := m.Called(ctx, genreSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListResponse), args.Error(1)
}

func (m *MockRecommendationService) Search(ctx context.Context, query string) (*models.ListResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListResponse), args.Error(1)
}

func (m *MockRecommendationService) MarkWatched(ctx context.Context, viewer models.Viewer, itemID int) error {
	args := m.Called(ctx, viewer, itemID)
	return args.Error(0)
}

func (m *MockRecommendationService) Rate(ctx context.Context, viewer models.Viewer, itemID, stars int) (*models.Rating, error) {
	args := m.Called(ctx, viewer, itemID, stars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Rating), args.Error(1)
}

func (m *MockRecommendationService) History(ctx context.Context, viewer models.Viewer) (*models.HistoryResponse, error) {
	args := m.Called(ctx, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryResponse), args.Error(1)
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newTestRouter mounts the handler behind a stub identity step that installs
// viewer the same way the identity middleware does.
func newTestRouter(t *testing.T, svc *MockRecommendationService, viewer models.Viewer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	validator, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	handler := NewRecommendationHandler(svc, validator, logger)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("viewer", viewer)
		c.Next()
	})

	v1 := router.Group("/api/v1")
	v1.GET("/home", handler.Home)
	v1.GET("/movies/:movie", handler.Movie)
	v1.GET("/genres/:genre", handler.Genre)
	v1.GET("/categories/:genre", handler.Category)
	v1.GET("/search", handler.Search)
	v1.GET("/history", handler.History)
	v1.POST("/movies/:movie/watched", handler.MarkWatched)
	v1.PUT("/movies/:movie/rating", handler.Rate)
	return router
}

func TestRecommendationHandler_Home(t *testing.T) {
	svc := new(MockRecommendationService)
	viewer := models.Viewer{ID: uuid.New(), Anonymous: true}
	router := newTestRouter(t, svc, viewer)

	svc.On("Home", mock.Anything, viewer).Return(&models.HomeResponse{
		Popular:   []models.Item{{ID: 2, Title: "Heat"}, {ID: 1, Title: "Alien"}},
		TopGenres: []string{"Action", "Comedy"},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/home", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.HomeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Popular, 2)
	assert.Equal(t, 2, resp.Popular[0].ID)
	assert.Equal(t, []string{"Action", "Comedy"}, resp.TopGenres)
	svc.AssertExpectations(t)
}

func TestRecommendationHandler_Movie(t *testing.T) {
	viewer := models.Viewer{ID: uuid.New()}

	tests := []struct {
		name           string
		slug           string
		result         *models.MovieResponse
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "found",
			slug:           "the-matrix",
			result:         &models.MovieResponse{Item: models.Item{ID: 603, Title: "The Matrix"}, TrailerURL: "https://www.youtube.com/watch?v=vKQi3bBA1y8"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown slug",
			slug:           "no-such-movie",
			err:            fmt.Errorf("movie %q: %w", "no-such-movie", services.ErrNotFound),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:           "storage failure",
			slug:           "heat",
			err:            errors.New("connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockRecommendationService)
			router := newTestRouter(t, svc, viewer)

			if tt.result != nil {
				svc.On("Movie", mock.Anything, viewer, tt.slug).Return(tt.result, nil)
			} else {
				svc.On("Movie", mock.Anything, viewer, tt.slug).Return(nil, tt.err)
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/api/v1/movies/"+tt.slug, nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedCode, body.Error.Code)
			} else {
				var resp models.MovieResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, 603, resp.Item.ID)
				assert.Equal(t, tt.result.TrailerURL, resp.TrailerURL)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestRecommendationHandler_Lists(t *testing.T) {
	svc := new(MockRecommendationService)
	viewer := models.Viewer{ID: uuid.New()}
	router := newTestRouter(t, svc, viewer)

	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	svc.On("Genre", mock.Anything, viewer, "science-fiction").
		Return(&models.ListResponse{Title: "Science Fiction", Items: []models.Item{{ID: 4}}, GeneratedAt: now}, nil)
	svc.On("Category", mock.Anything, "comedy").
		Return(&models.ListResponse{Title: "Comedy", Items: []models.Item{{ID: 3}}, GeneratedAt: now}, nil)
	svc.On("Search", mock.Anything, "matrix").
		Return(&models.ListResponse{Title: "matrix", Items: []models.Item{{ID: 603}}, GeneratedAt: now}, nil)

	paths := map[string]string{
		"/api/v1/genres/science-fiction": "Science Fiction",
		"/api/v1/categories/comedy":      "Comedy",
		"/api/v1/search?q=matrix":        "matrix",
	}
	for path, title := range paths {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, path)
		var resp models.ListResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, title, resp.Title)
		assert.Len(t, resp.Items, 1)
	}
	svc.AssertExpectations(t)
}

func TestRecommendationHandler_History(t *testing.T) {
	svc := new(MockRecommendationService)
	viewer := models.Viewer{ID: uuid.New()}
	router := newTestRouter(t, svc, viewer)

	svc.On("History", mock.Anything, viewer).Return(&models.HistoryResponse{
		Viewer: viewer,
		Events: []models.WatchEvent{},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events":[]`)
}

func TestRecommendationHandler_MarkWatched(t *testing.T) {
	viewer := models.Viewer{ID: uuid.New(), Anonymous: true}

	t.Run("recorded", func(t *testing.T) {
		svc := new(MockRecommendationService)
		router := newTestRouter(t, svc, viewer)
		svc.On("MarkWatched", mock.Anything, viewer, 603).Return(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/movies/603/watched", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		svc := new(MockRecommendationService)
		router := newTestRouter(t, svc, viewer)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/movies/the-matrix/watched", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_ITEM_ID")
		svc.AssertNotCalled(t, "MarkWatched", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown item", func(t *testing.T) {
		svc := new(MockRecommendationService)
		router := newTestRouter(t, svc, viewer)
		svc.On("MarkWatched", mock.Anything, viewer, 999).Return(fmt.Errorf("movie 999: %w", services.ErrNotFound))

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/movies/999/watched", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecommendationHandler_Rate(t *testing.T) {
	user := models.Viewer{ID: uuid.New()}

	tests := []struct {
		name           string
		viewer         models.Viewer
		body           string
		serviceErr     error
		callsService   bool
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "valid rating",
			viewer:         user,
			body:           `{"stars": 4}`,
			callsService:   true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "out of range",
			viewer:         user,
			body:           `{"stars": 7}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "missing stars",
			viewer:         user,
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:           "malformed body",
			viewer:         user,
			body:           `{"stars":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST_BODY",
		},
		{
			name:           "anonymous viewer",
			viewer:         models.Viewer{ID: uuid.New(), Anonymous: true},
			body:           `{"stars": 4}`,
			serviceErr:     services.ErrAuthRequired,
			callsService:   true,
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "AUTHENTICATION_REQUIRED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockRecommendationService)
			router := newTestRouter(t, svc, tt.viewer)

			if tt.callsService {
				if tt.serviceErr != nil {
					svc.On("Rate", mock.Anything, tt.viewer, 603, 4).Return(nil, tt.serviceErr)
				} else {
					svc.On("Rate", mock.Anything, tt.viewer, 603, 4).
						Return(&models.Rating{UserID: tt.viewer.ID, ItemID: 603, Stars: 4}, nil)
				}
			}

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("PUT", "/api/v1/movies/603/rating", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedCode, body.Error.Code)
			}
			if tt.callsService {
				svc.AssertExpectations(t)
			} else {
				svc.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}
