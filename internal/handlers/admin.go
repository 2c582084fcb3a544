package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	engine    Recommender
	logger    *logrus.Logger
	onRefresh func(context.Context)
}

func NewAdminHandler(engine Recommender, logger *logrus.Logger, onRefresh func(context.Context)) *AdminHandler {
	return &AdminHandler{
		engine:    engine,
		logger:    logger,
		onRefresh: onRefresh,
	}
}

// Refresh rebuilds the snapshot from the store. The old snapshot keeps
// serving queries until the new one is published, so a refresh is safe to
// trigger at any time. Store failures surface here (and only here) as 503.
func (h *AdminHandler) Refresh(c *gin.Context) {
	jobID := uuid.New()
	log := h.logger.WithField("job_id", jobID)

	log.Info("Snapshot refresh requested")

	if err := h.engine.Load(c.Request.Context()); err != nil {
		log.WithError(err).Error("Snapshot refresh failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": gin.H{
				"code":    "REFRESH_FAILED",
				"message": "Failed to reload data from the catalog store",
			},
			"job_id": jobID,
		})
		return
	}

	if h.onRefresh != nil {
		h.onRefresh(c.Request.Context())
	}

	log.Info("Snapshot refresh completed")
	c.JSON(http.StatusOK, gin.H{
		"status": "refreshed",
		"job_id": jobID,
	})
}
