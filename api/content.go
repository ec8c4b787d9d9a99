package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/analyzer"
	"github.com/seo-optimizer/content-engine/cluster"
	"github.com/seo-optimizer/content-engine/readability"
	"github.com/seo-optimizer/content-engine/textmetrics"
)

func (s *Server) extractFeatures(c *gin.Context) {
	var in analyzer.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request: content and keyword are required")
		return
	}

	analysis, err := s.extractor.Analyze(in)
	if err != nil {
		s.countExtraction("error")
		s.respondError(c, err)
		return
	}
	s.countExtraction("ok")
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) countExtraction(outcome string) {
	if s.metrics != nil {
		s.metrics.FeaturesExtracted.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) clearFeatureCache(c *gin.Context) {
	s.extractor.ClearCache()
	c.Status(http.StatusNoContent)
}

type readabilityRequest struct {
	Content string `json:"content" binding:"required"`
}

type readabilityResponse struct {
	Counts textmetrics.Counts `json:"counts"`
	Scores readability.Scores `json:"scores"`
}

func (s *Server) scoreReadability(c *gin.Context) {
	var req readabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: content is required")
		return
	}
	counts := textmetrics.Analyze(textmetrics.StripHTML(req.Content))
	c.JSON(http.StatusOK, readabilityResponse{
		Counts: counts,
		Scores: readability.Score(counts),
	})
}

type clusterRequest struct {
	MainKeyword string `json:"mainKeyword" binding:"required"`
}

type clusterResponse struct {
	Cluster *cluster.ContentCluster `json:"cluster"`
	Summary cluster.Summary         `json:"summary"`
	Order   []cluster.Article       `json:"publishingOrder"`
}

func (s *Server) planCluster(c *gin.Context) {
	var req clusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: mainKeyword is required")
		return
	}

	cc, err := s.planner.GenerateContentCluster(c.Request.Context(), req.MainKeyword)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ClustersPlanned.Inc()
	}
	s.logger.WithFields(logrus.Fields{
		"cluster":  cc.ID,
		"articles": cc.TotalArticles,
	}).Debug("cluster planned")

	c.JSON(http.StatusCreated, clusterResponse{
		Cluster: cc,
		Summary: cluster.Summarize(cc),
		Order:   cluster.PublishingOrder(cc),
	})
}
