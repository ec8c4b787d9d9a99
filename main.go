package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/analyzer"
	"github.com/seo-optimizer/content-engine/api"
	"github.com/seo-optimizer/content-engine/cluster"
	"github.com/seo-optimizer/content-engine/config"
	"github.com/seo-optimizer/content-engine/logging"
	"github.com/seo-optimizer/content-engine/middleware"
	"github.com/seo-optimizer/content-engine/monitoring"
	"github.com/seo-optimizer/content-engine/store"
	"github.com/seo-optimizer/content-engine/store/filestore"
	"github.com/seo-optimizer/content-engine/store/sqlite"
)

const serviceName = "content-engine"

var version = "dev"

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (store.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.DatabasePath, time.Now)
	default:
		return filestore.New(cfg.DataDir, filestore.Options{Logger: logger})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger = logging.NewLogger(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.WithError(err).Error("Failed to close store")
		}
	}()

	stats, err := logging.NewStatistics(cfg.DataDir, cfg.DevMode, time.Now)
	if err != nil {
		logger.WithError(err).Warn("Starting with empty statistics")
	}
	defer func() {
		if err := stats.Save(); err != nil {
			logger.WithError(err).Error("Failed to save statistics")
		}
	}()

	detector, err := alerts.NewDetector(
		alerts.WithThresholds(cfg.Engine.AlertThresholds),
		alerts.WithOpportunityOptions(cfg.Engine.Opportunities),
		alerts.WithConcurrency(cfg.Engine.ReportConcurrency),
		alerts.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	planner, err := cluster.NewPlanner(
		cluster.ExpansionResearcher{Now: time.Now},
		cluster.GreedyAssigner{Clusters: cfg.Engine.Cluster.MaxClusterSize},
		cfg.Engine.Cluster,
		cluster.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	metrics := monitoring.NewMetricsCollector(serviceName, version)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	r := gin.New()
	r.Use(middleware.ErrorHandler(logger))
	r.Use(metrics.MetricsMiddleware())
	r.Use(rateLimiter.RateLimit())
	r.Use(corsMiddleware())
	r.Use(middleware.StatsMiddleware(stats, logger))

	api.NewServer(api.Deps{
		Repo: repo,
		Extractor: analyzer.New(analyzer.Options{
			CacheTTL:     cfg.Engine.Analyzer.CacheTTL,
			MaxCacheSize: cfg.Engine.Analyzer.MaxCacheSize,
			Logger:       logger,
		}),
		Detector: detector,
		Planner:  planner,
		Engine:   cfg.Engine,
		Metrics:  metrics,
		Stats:    stats,
		Logger:   logger,
	}).Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"port":   cfg.Port,
			"store":  cfg.StoreDriver,
			"engine": cfg.EngineConfig,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

func main() {
	logger := logging.NewLogger(config.GetEnv("LOG_LEVEL", "info"))
	config.LoadEnv(logger)

	if err := run(logger); err != nil {
		logger.WithError(err).Fatal("Content engine stopped")
	}
}
