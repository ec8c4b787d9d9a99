package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/ranking"
	"github.com/seo-optimizer/content-engine/store"
)

type detectRequest struct {
	// Keywords limits detection; empty means every tracked keyword.
	Keywords   []string           `json:"keywords"`
	Thresholds *alerts.Thresholds `json:"thresholds"`
}

// alertKey identifies one ranking drop. A drop already on record, dismissed
// or not, is not raised again.
type alertKey struct {
	keyword, period   string
	typ               alerts.Type
	current, previous int
}

func keyOf(a alerts.Alert) alertKey {
	return alertKey{
		keyword:  a.Keyword,
		period:   a.Period,
		typ:      a.Type,
		current:  a.CurrentPosition,
		previous: a.PreviousPosition,
	}
}

func (s *Server) detectAlerts(c *gin.Context) {
	var req detectRequest
	// An empty body checks every keyword with the detector's thresholds.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "Invalid detection request")
		return
	}
	ctx := c.Request.Context()

	var histories []ranking.History
	if len(req.Keywords) == 0 {
		all, err := s.repo.RankingHistories(ctx)
		if err != nil {
			s.respondError(c, err)
			return
		}
		histories = all
	} else {
		for _, kw := range req.Keywords {
			h, err := s.history(c, strings.TrimSpace(kw))
			if err != nil {
				s.respondError(c, err)
				return
			}
			histories = append(histories, h)
		}
	}

	stored, err := s.repo.Alerts(ctx, store.AlertFilter{IncludeDismissed: true})
	if err != nil {
		s.respondError(c, err)
		return
	}
	seen := make(map[alertKey]struct{}, len(stored))
	for _, a := range stored {
		seen[keyOf(a)] = struct{}{}
	}

	now := s.now()
	raised := []alerts.Alert{}
	for _, h := range histories {
		as, err := s.detector.DetectRankingDrops(ranking.CalculatePositionChanges(h, now), req.Thresholds)
		if err != nil {
			s.respondError(c, err)
			return
		}
		for _, a := range as {
			k := keyOf(a)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			raised = append(raised, a)
		}
	}

	if err := s.repo.SaveAlerts(ctx, raised); err != nil {
		s.respondError(c, err)
		return
	}
	if s.metrics != nil {
		for _, a := range raised {
			s.metrics.AlertsRaised.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
		}
	}
	c.JSON(http.StatusCreated, gin.H{"alerts": raised})
}

func (s *Server) listAlerts(c *gin.Context) {
	f := store.AlertFilter{Keyword: c.Query("keyword")}
	if v := c.Query("includeDismissed"); v != "" {
		include, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "includeDismissed must be a boolean")
			return
		}
		f.IncludeDismissed = include
	}
	as, err := s.repo.Alerts(c.Request.Context(), f)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if as == nil {
		as = []alerts.Alert{}
	}
	c.JSON(http.StatusOK, gin.H{"alerts": as})
}

func (s *Server) acknowledgeAlert(c *gin.Context) {
	if err := s.repo.AcknowledgeAlert(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) dismissAlert(c *gin.Context) {
	if err := s.repo.DismissAlert(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
