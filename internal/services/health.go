package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/velora/recommend/internal/database"
)

type HealthService struct {
	logger *logrus.Logger
	db     *database.Database
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
}

func NewHealthService(logger *logrus.Logger, db *database.Database) *HealthService {
	return &HealthService{logger: logger, db: db}
}

// CheckHealth probes the service's dependencies. MongoDB is critical: the
// snapshot cannot be rebuilt without it. Redis only backs response caching
// and rate limiting, so its failure degrades rather than breaks the service.
func (s *HealthService) CheckHealth() *HealthStatus {
	status := &HealthStatus{
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.db.Mongo.Client().Ping(ctx, readpref.Primary()); err != nil {
		s.logger.WithError(err).Error("MongoDB health check failed")
		status.Services["mongodb"] = "unhealthy"
		status.Critical = append(status.Critical, "mongodb")
	} else {
		status.Services["mongodb"] = "healthy"
	}

	if err := s.db.Redis.Ping(ctx).Err(); err != nil {
		s.logger.WithError(err).Warn("Redis health check failed")
		status.Services["redis"] = "unhealthy"
		status.NonCritical = append(status.NonCritical, "redis")
	} else {
		status.Services["redis"] = "healthy"
	}

	switch {
	case len(status.Critical) > 0:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}

	return status
}
