package middleware

import (
	"context"
	"errors"
	"io"
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

	"github.com/temcen/reelrank/internal/config"
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

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var authConfig = config.AuthConfig{SessionCookie: "reelrank_session", SessionTTL: time.Hour}

// identityRouter echoes the resolved viewer.
func identityRouter(auth *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Identity(auth, authConfig, quietLogger()))
	router.GET("/whoami", func(c *gin.Context) {
		viewer, ok := ViewerFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		_, signedIn := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{
			"id":        viewer.ID.String(),
			"anonymous": viewer.Anonymous,
			"signed_in": signedIn,
		})
	})
	return router
}

func TestIdentity_IssuesSessionCookie(t *testing.T) {
	router := identityRouter(new(MockAuthService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "reelrank_session", cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	_, err := uuid.Parse(cookies[0].Value)
	assert.NoError(t, err)
	assert.Contains(t, w.Body.String(), cookies[0].Value)
	assert.Contains(t, w.Body.String(), `"anonymous":true`)
}

func TestIdentity_ReusesSessionCookie(t *testing.T) {
	router := identityRouter(new(MockAuthService))
	sessionID := uuid.New()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "reelrank_session", Value: sessionID.String()})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Contains(t, w.Body.String(), sessionID.String())
}

func TestIdentity_ReplacesMalformedCookie(t *testing.T) {
	router := identityRouter(new(MockAuthService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "reelrank_session", Value: "not-a-uuid"})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
}

func TestIdentity_BearerToken(t *testing.T) {
	auth := new(MockAuthService)
	router := identityRouter(auth)
	userID := uuid.New()

	auth.On("ValidateToken", mock.Anything, "good.token.value").
		Return(&models.JWTClaims{UserID: userID}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good.token.value")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), `"anonymous":false`)
	assert.Contains(t, w.Body.String(), `"signed_in":true`)
	assert.Empty(t, w.Result().Cookies())
	auth.AssertExpectations(t)
}

func TestIdentity_RejectsBadTokens(t *testing.T) {
	auth := new(MockAuthService)
	router := identityRouter(auth)

	auth.On("ValidateToken", mock.Anything, "expired.token.value").
		Return(nil, errors.New("token is expired"))

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"wrong scheme", "Basic dXNlcjpwYXNz", "INVALID_AUTHORIZATION_FORMAT"},
		{"missing token", "Bearer", "INVALID_AUTHORIZATION_FORMAT"},
		{"invalid token", "Bearer expired.token.value", "INVALID_TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/whoami", nil)
			req.Header.Set("Authorization", tt.header)
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(config.RateLimitConfig{RequestsPerSec: 0.001, Burst: 2}, quietLogger()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "198.51.100.2:4000"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimit(config.RateLimitConfig{}, quietLogger()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), Logger(quietLogger()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery(quietLogger()))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/boom", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}
