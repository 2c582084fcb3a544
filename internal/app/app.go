package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/velora/recommend/internal/config"
	"github.com/velora/recommend/internal/database"
	"github.com/velora/recommend/internal/engine"
	"github.com/velora/recommend/internal/handlers"
	"github.com/velora/recommend/internal/middleware"
	"github.com/velora/recommend/internal/services"
	"github.com/velora/recommend/internal/store"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	engine   *engine.Engine
	handlers *handlers.Handlers
	router   *gin.Engine

	stopRefresh chan struct{}
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config:      cfg,
		logger:      setupLogger(cfg),
		stopRefresh: make(chan struct{}),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	catalog := store.NewMongo(db.Mongo, app.logger)
	app.engine = engine.New(catalog, app.logger)

	healthService := services.NewHealthService(app.logger, db)
	rateLimitService := services.NewRateLimitService(&cfg.RateLimit, app.logger, db.Redis)

	// A refresh invalidates cached recommendation responses so clients never
	// read lists from a retired snapshot past the cache TTL.
	onRefresh := func(ctx context.Context) {
		middleware.InvalidateResponseCache(ctx, db.Redis, app.logger)
	}

	app.handlers = handlers.New(app.logger, cfg, app.engine, healthService, onRefresh)
	app.setupRouter(rateLimitService)

	// Load the first snapshot in the background so the server binds
	// immediately; early queries take the on-demand build path instead.
	go app.initialLoad()

	if cfg.Engine.RefreshInterval > 0 {
		go app.refreshLoop(cfg.Engine.RefreshInterval)
	}

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	close(a.stopRefresh)

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func (a *App) initialLoad() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Mongo.QueryTimeout)
	defer cancel()

	if err := a.engine.Load(ctx); err != nil {
		a.logger.WithError(err).Error("Initial data load failed; queries will retry on demand")
	}
}

func (a *App) refreshLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), a.config.Mongo.QueryTimeout)
			if err := a.engine.Load(ctx); err != nil {
				a.logger.WithError(err).Error("Scheduled snapshot refresh failed")
			} else {
				middleware.InvalidateResponseCache(ctx, a.db.Redis, a.logger)
			}
			cancel()
		case <-a.stopRefresh:
			return
		}
	}
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter(rateLimitService *services.RateLimitService) {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	router.GET("/", handlers.Status)
	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Recommendation routes: rate-limited and response-cached.
	recommend := router.Group("/recommend")
	{
		recommend.Use(middleware.RateLimit(rateLimitService, a.logger))
		recommend.Use(middleware.ResponseCache(a.db.Redis, a.config.Engine.ResponseCacheTTL, a.logger))

		recommend.GET("/home/:userId", a.handlers.Recommendation.Home)
		recommend.GET("/product/:productId", a.handlers.Recommendation.Product)
	}

	router.POST("/refresh", a.handlers.Admin.Refresh)

	a.router = router
}
