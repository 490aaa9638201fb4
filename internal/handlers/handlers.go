package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/temcen/reelrank/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Auth           *AuthHandler
	Metrics        *MetricsHandler
}

func New(logger *logrus.Logger, services *services.Services) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, services.Health),
		Recommendation: NewRecommendationHandler(services.Recommendation, services.Validator, logger),
		Auth:           NewAuthHandler(services.Auth, logger),
		Metrics:        NewMetricsHandler(),
	}
}
