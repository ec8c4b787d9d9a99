// Package api exposes the engine over HTTP with gin.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/analyzer"
	"github.com/seo-optimizer/content-engine/cluster"
	"github.com/seo-optimizer/content-engine/config"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/logging"
	"github.com/seo-optimizer/content-engine/monitoring"
	"github.com/seo-optimizer/content-engine/store"
)

// Deps are the components the handlers call into.
type Deps struct {
	Repo      store.Repository
	Extractor *analyzer.Extractor
	Detector  *alerts.Detector
	Planner   *cluster.Planner
	Engine    config.Engine
	Metrics   *monitoring.MetricsCollector
	Stats     *logging.Statistics
	Logger    *logrus.Logger
	Now       func() time.Time
}

// Server holds the handlers.
type Server struct {
	repo      store.Repository
	extractor *analyzer.Extractor
	detector  *alerts.Detector
	planner   *cluster.Planner
	engine    config.Engine
	metrics   *monitoring.MetricsCollector
	stats     *logging.Statistics
	logger    *logrus.Logger
	now       func() time.Time
}

// NewServer builds a Server. Repo, Extractor, Detector and Planner are
// required; the rest fall back to usable defaults.
func NewServer(d Deps) *Server {
	s := &Server{
		repo:      d.Repo,
		extractor: d.Extractor,
		detector:  d.Detector,
		planner:   d.Planner,
		engine:    d.Engine,
		metrics:   d.Metrics,
		stats:     d.Stats,
		logger:    d.Logger,
		now:       d.Now,
	}
	if s.logger == nil {
		s.logger = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/statistics", s.statistics)

		api.POST("/features", s.extractFeatures)
		api.DELETE("/features/cache", s.clearFeatureCache)
		api.POST("/readability", s.scoreReadability)

		api.POST("/rankings", s.appendRanking)
		api.GET("/rankings/report", s.rankingReport)
		api.GET("/rankings/opportunities", s.rankingOpportunities)
		api.GET("/rankings/:keyword/changes", s.positionChanges)
		api.GET("/rankings/:keyword/trend", s.rankingTrend)

		api.POST("/alerts/detect", s.detectAlerts)
		api.GET("/alerts", s.listAlerts)
		api.POST("/alerts/:id/acknowledge", s.acknowledgeAlert)
		api.POST("/alerts/:id/dismiss", s.dismissAlert)

		api.GET("/abtests/sample-size", s.sampleSize)
		api.POST("/abtests/:id/variants", s.saveVariant)
		api.GET("/abtests/:id/analysis", s.analyzeTest)

		api.POST("/clusters", s.planCluster)
	}
	if s.metrics != nil {
		r.GET("/metrics", s.metrics.Handler())
	}
}

func (s *Server) health(c *gin.Context) {
	s.logger.WithField("client", c.ClientIP()).Debug("Health check request received")
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"cache":  s.extractor.CacheStats(),
	})
}

func (s *Server) statistics(c *gin.Context) {
	if s.stats == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.stats.Summary())
}

// statusOf maps an engine error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, engineerr.ErrInvalidInput), errors.Is(err, engineerr.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, engineerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engineerr.ErrInsufficientKeywords):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, err error) {
	status := statusOf(err)
	entry := s.logger.WithFields(logrus.Fields{
		"path":   c.FullPath(),
		"status": status,
	}).WithError(err)
	if status == http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
