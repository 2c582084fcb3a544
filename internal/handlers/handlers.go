package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/velora/recommend/internal/config"
	"github.com/velora/recommend/internal/services"
	"github.com/velora/recommend/pkg/models"
)

// Recommender is the handlers' view of the recommendation engine.
type Recommender interface {
	Load(ctx context.Context) error
	RecommendForUser(ctx context.Context, userID string, topN int) ([]models.Recommendation, error)
	RecommendSimilarProducts(ctx context.Context, productID string, topN int) ([]models.Recommendation, error)
}

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Admin          *AdminHandler
}

func New(logger *logrus.Logger, cfg *config.Config, engine Recommender, health *services.HealthService, onRefresh func(context.Context)) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, health),
		Recommendation: NewRecommendationHandler(engine, &cfg.Engine, logger),
		Admin:          NewAdminHandler(engine, logger, onRefresh),
	}
}
