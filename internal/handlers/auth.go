package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/middleware"
	"github.com/temcen/reelrank/internal/services"
)

type AuthHandler struct {
	authService services.AuthServiceInterface
	logger      *logrus.Logger
}

func NewAuthHandler(authService services.AuthServiceInterface, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Logout revokes the bearer token the request was made with.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "AUTHENTICATION_REQUIRED",
				"message": "Logout requires a bearer token",
			},
		})
		return
	}

	if err := h.authService.RevokeToken(c.Request.Context(), claims); err != nil {
		h.logger.WithError(err).WithField("user_id", claims.UserID).Error("Failed to revoke token")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "LOGOUT_FAILED",
				"message": "Failed to revoke token",
			},
		})
		return
	}

	c.Status(http.StatusNoContent)
}
