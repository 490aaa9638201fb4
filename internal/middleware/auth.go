package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/config"
	"github.com/temcen/reelrank/internal/services"
	"github.com/temcen/reelrank/pkg/models"
)

const (
	viewerKey = "viewer"
	claimsKey = "claims"
)

// Identity resolves who the request is for. A Bearer token identifies a
// signed-in user and must be valid. Without one the viewer is anonymous and
// identified by the session cookie, which is issued on first visit.
func Identity(authService services.AuthServiceInterface, cfg config.AuthConfig, logger *logrus.Logger) gin.HandlerFunc {
	cookieName := cfg.SessionCookie
	if cookieName == "" {
		cookieName = "reelrank_session"
	}
	maxAge := int(cfg.SessionTTL.Seconds())

	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "INVALID_AUTHORIZATION_FORMAT",
						"message": "Authorization header must be in format 'Bearer <token>'",
					},
				})
				c.Abort()
				return
			}

			claims, err := authService.ValidateToken(c.Request.Context(), tokenParts[1])
			if err != nil {
				logger.WithError(err).Warn("Invalid JWT token")
				c.JSON(http.StatusUnauthorized, gin.H{
					"error": gin.H{
						"code":    "INVALID_TOKEN",
						"message": "Invalid or expired token",
					},
				})
				c.Abort()
				return
			}

			c.Set(viewerKey, models.Viewer{ID: claims.UserID})
			c.Set(claimsKey, claims)
			c.Next()
			return
		}

		sessionID := uuid.Nil
		if raw, err := c.Cookie(cookieName); err == nil {
			if parsed, err := uuid.Parse(raw); err == nil {
				sessionID = parsed
			}
		}
		if sessionID == uuid.Nil {
			sessionID = uuid.New()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, sessionID.String(), maxAge, "/", "", false, true)
		}

		c.Set(viewerKey, models.Viewer{ID: sessionID, Anonymous: true})
		c.Next()
	}
}

// ViewerFromContext returns the viewer set by Identity.
func ViewerFromContext(c *gin.Context) (models.Viewer, bool) {
	value, exists := c.Get(viewerKey)
	if !exists {
		return models.Viewer{}, false
	}
	viewer, ok := value.(models.Viewer)
	return viewer, ok
}

// ClaimsFromContext returns the token claims of a signed-in viewer.
func ClaimsFromContext(c *gin.Context) (*models.JWTClaims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.JWTClaims)
	return claims, ok
}
