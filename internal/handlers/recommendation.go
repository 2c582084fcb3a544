package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/velora/recommend/internal/config"
	"github.com/velora/recommend/pkg/models"
)

type RecommendationHandler struct {
	engine Recommender
	cfg    *config.EngineConfig
	logger *logrus.Logger
}

func NewRecommendationHandler(engine Recommender, cfg *config.EngineConfig, logger *logrus.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// Home serves the personalized storefront list for a user. Engine failures
// (store down before the first snapshot) are logged and answered with an
// empty list: the storefront renders its own defaults rather than erroring.
func (h *RecommendationHandler) Home(c *gin.Context) {
	userID := c.Param("userId")
	limit := h.parseLimit(c)

	recs, err := h.engine.RecommendForUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to generate user recommendations")
	}

	c.JSON(http.StatusOK, models.RecommendationResponse{
		Recommendations: nonNil(recs),
	})
}

// Product serves "similar products" for a product detail page. Unknown
// products are an empty list by contract, not an error.
func (h *RecommendationHandler) Product(c *gin.Context) {
	productID := c.Param("productId")
	limit := h.parseLimit(c)

	recs, err := h.engine.RecommendSimilarProducts(c.Request.Context(), productID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("product_id", productID).Error("Failed to generate similar products")
	}

	c.JSON(http.StatusOK, models.RecommendationResponse{
		Recommendations: nonNil(recs),
	})
}

func (h *RecommendationHandler) parseLimit(c *gin.Context) int {
	limit := h.cfg.DefaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed >= 0 {
			limit = parsed
		}
	}
	if limit > h.cfg.MaxLimit {
		limit = h.cfg.MaxLimit
	}
	return limit
}

// nonNil keeps the JSON envelope's list a [] instead of null.
func nonNil(recs []models.Recommendation) []models.Recommendation {
	if recs == nil {
		return []models.Recommendation{}
	}
	return recs
}
