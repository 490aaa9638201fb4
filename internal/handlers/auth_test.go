package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/temcen/reelrank/internal/services"
	"github.com/temcen/reelrank/pkg/models"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JWTClaims), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, claims *models.JWTClaims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

func newLogoutRouter(auth *MockAuthService, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	handler := NewAuthHandler(auth, logger)
	router := gin.New()
	router.POST("/api/v1/auth/logout", func(c *gin.Context) {
		if claims != nil {
			c.Set("claims", claims)
		}
		handler.Logout(c)
	})
	return router
}

func TestAuthHandler_Logout(t *testing.T) {
	claims := &models.JWTClaims{UserID: uuid.New()}

	tests := []struct {
		name           string
		claims         *models.JWTClaims
		revokeErr      error
		expectedStatus int
	}{
		{name: "revoked", claims: claims, expectedStatus: http.StatusNoContent},
		{name: "anonymous", claims: nil, expectedStatus: http.StatusUnauthorized},
		{name: "redis failure", claims: claims, revokeErr: errors.New("redis down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockAuthService)
			if tt.claims != nil {
				auth.On("RevokeToken", mock.Anything, tt.claims).Return(tt.revokeErr)
			}
			router := newLogoutRouter(auth, tt.claims)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/v1/auth/logout", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			auth.AssertExpectations(t)
		})
	}
}

type stubHealth struct {
	status string
}

func (s stubHealth) CheckHealth(context.Context) *services.HealthStatus {
	return &services.HealthStatus{Status: s.status, Services: map[string]string{}}
}

func TestHealthHandler_Check(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := map[string]int{
		"healthy":   http.StatusOK,
		"degraded":  http.StatusOK,
		"unhealthy": http.StatusServiceUnavailable,
		"unknown":   http.StatusInternalServerError,
	}

	for status, expected := range tests {
		t.Run(status, func(t *testing.T) {
			handler := NewHealthHandler(logrus.New(), stubHealth{status: status})
			router := gin.New()
			router.GET("/health", handler.Check)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/health", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, expected, w.Code)
			assert.Contains(t, w.Body.String(), status)
		})
	}
}

func TestMetricsHandler_Serve(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/metrics", NewMetricsHandler().Serve)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
