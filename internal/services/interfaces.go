package services

import (
	"context"

	"github.com/temcen/reelrank/pkg/models"
)

// RecommendationServiceInterface defines the browsing and history operations
// exposed over HTTP
type RecommendationServiceInterface interface {
	Home(ctx context.Context, viewer models.Viewer) (*models.HomeResponse, error)
	Movie(ctx context.Context, viewer models.Viewer, slug string) (*models.MovieResponse, error)
	Genre(ctx context.Context, viewer models.Viewer, genreSlug string) (*models.ListResponse, error)
	Category(ctx context.Context, genreSlug string) (*models.ListResponse, error)
	Search(ctx context.Context, query string) (*models.ListResponse, error)
	MarkWatched(ctx context.Context, viewer models.Viewer, itemID int) error
	Rate(ctx context.Context, viewer models.Viewer, itemID, stars int) (*models.Rating, error)
	History(ctx context.Context, viewer models.Viewer) (*models.HistoryResponse, error)
}

// AuthServiceInterface defines the token operations used by the middleware
// and the logout handler
type AuthServiceInterface interface {
	ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error)
	RevokeToken(ctx context.Context, claims *models.JWTClaims) error
}

var (
	_ RecommendationServiceInterface = (*RecommendationService)(nil)
	_ AuthServiceInterface           = (*AuthService)(nil)
)
