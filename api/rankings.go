package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/ranking"
	"github.com/seo-optimizer/content-engine/store"
)

func (s *Server) appendRanking(c *gin.Context) {
	var rec store.RankingRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "Invalid ranking record")
		return
	}
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = s.now()
	}
	if err := s.repo.AppendRanking(c.Request.Context(), rec); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// history loads the keyword's history; absence is reported as ErrNotFound.
func (s *Server) history(c *gin.Context, keyword string) (ranking.History, error) {
	h, ok, err := s.repo.RankingHistory(c.Request.Context(), keyword)
	if err != nil {
		return ranking.History{}, err
	}
	if !ok {
		return ranking.History{}, fmt.Errorf("no ranking history for %q: %w", keyword, engineerr.ErrNotFound)
	}
	return h, nil
}

func (s *Server) positionChanges(c *gin.Context) {
	h, err := s.history(c, c.Param("keyword"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"keyword": h.Keyword,
		"changes": ranking.CalculatePositionChanges(h, s.now()),
	})
}

func (s *Server) rankingTrend(c *gin.Context) {
	period, err := ranking.ParsePeriod(c.DefaultQuery("period", string(ranking.PeriodMonth)))
	if err != nil {
		s.respondError(c, err)
		return
	}
	h, err := s.history(c, c.Param("keyword"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	trend, err := ranking.AnalyzeTrend(h, period, s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	// trend is null when the period holds fewer than two checks.
	c.JSON(http.StatusOK, gin.H{
		"keyword": h.Keyword,
		"period":  period,
		"trend":   trend,
	})
}

func (s *Server) rankingReport(c *gin.Context) {
	histories, err := s.repo.RankingHistories(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	report, err := s.detector.GenerateRankingReport(c.Request.Context(), histories)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ReportKeywords.Observe(float64(report.TotalKeywords))
	}
	c.JSON(http.StatusOK, report)
}

// snapshots returns the latest check of every stored keyword.
func (s *Server) snapshots(c *gin.Context) ([]ranking.Snapshot, error) {
	histories, err := s.repo.RankingHistories(c.Request.Context())
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ranking.Snapshot, 0, len(histories))
	for _, h := range histories {
		changes := ranking.CalculatePositionChanges(h, now)
		if snap, ok := ranking.Latest(h, changes.Daily); ok {
			out = append(out, snap)
		}
	}
	return out, nil
}

func (s *Server) rankingOpportunities(c *gin.Context) {
	snaps, err := s.snapshots(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	opps, err := alerts.IdentifyRankingOpportunities(snaps, s.engine.Opportunities)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": opps})
}
