package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/middleware"
	"github.com/temcen/reelrank/internal/services"
	"github.com/temcen/reelrank/internal/validation"
	"github.com/temcen/reelrank/pkg/models"
)

type RecommendationHandler struct {
	service   services.RecommendationServiceInterface
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewRecommendationHandler(
	service services.RecommendationServiceInterface,
	validator *validation.SchemaValidator,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// viewer returns the viewer resolved by the identity middleware, writing an
// error response when it is missing.
func (h *RecommendationHandler) viewer(c *gin.Context) (models.Viewer, bool) {
	viewer, ok := middleware.ViewerFromContext(c)
	if !ok {
		h.logger.WithField("path", c.Request.URL.Path).Error("Request reached handler without a viewer")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "MISSING_VIEWER",
				"message": "Viewer could not be identified",
			},
		})
	}
	return viewer, ok
}

// movieParam is shared by every /movies/:movie route; it is a slug on the
// detail page and a numeric item id on the write endpoints.
const movieParam = "movie"

func itemIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param(movieParam))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_ITEM_ID",
				"message": "Item id must be an integer",
			},
		})
		return 0, false
	}
	return id, true
}

// respondError maps service errors onto the API error envelope.
func (h *RecommendationHandler) respondError(c *gin.Context, err error, fields logrus.Fields) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": err.Error(),
			},
		})
	case errors.Is(err, services.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    "AUTHENTICATION_REQUIRED",
				"message": "Sign in to rate movies",
			},
		})
	case errors.Is(err, services.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_RATING",
				"message": "Rating must be between 1 and 5 stars",
			},
		})
	default:
		h.logger.WithError(err).WithFields(fields).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Request could not be completed",
			},
		})
	}
}

func (h *RecommendationHandler) Home(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	resp, err := h.service.Home(c.Request.Context(), viewer)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"viewer_id": viewer.ID})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) Movie(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	slug := c.Param(movieParam)
	resp, err := h.service.Movie(c.Request.Context(), viewer, slug)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"viewer_id": viewer.ID, "slug": slug})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) Genre(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	genre := c.Param("genre")
	resp, err := h.service.Genre(c.Request.Context(), viewer, genre)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"viewer_id": viewer.ID, "genre": genre})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) Category(c *gin.Context) {
	genre := c.Param("genre")
	resp, err := h.service.Category(c.Request.Context(), genre)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"genre": genre})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) Search(c *gin.Context) {
	query := c.Query("q")
	resp, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"query": query})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) History(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}

	resp, err := h.service.History(c.Request.Context(), viewer)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"viewer_id": viewer.ID})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) MarkWatched(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	if err := h.service.MarkWatched(c.Request.Context(), viewer, itemID); err != nil {
		h.respondError(c, err, logrus.Fields{"viewer_id": viewer.ID, "item_id": itemID})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "recorded",
		"item_id": itemID,
	})
}

func (h *RecommendationHandler) Rate(c *gin.Context) {
	viewer, ok := h.viewer(c)
	if !ok {
		return
	}
	itemID, ok := itemIDParam(c)
	if !ok {
		return
	}

	var req models.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{
				"code":    "INVALID_REQUEST_BODY",
				"message": "Invalid request body format",
				"details": err.Error(),
			},
		})
		return
	}

	if h.validator != nil {
		if result := h.validator.ValidateStruct(req); !result.Valid {
			c.JSON(http.StatusBadRequest, result.ToAPIError())
			return
		}
	}

	rating, err := h.service.Rate(c.Request.Context(), viewer, itemID, req.Stars)
	if err != nil {
		h.respondError(c, err, logrus.Fields{"viewer_id": viewer.ID, "item_id": itemID})
		return
	}
	c.JSON(http.StatusOK, rating)
}
