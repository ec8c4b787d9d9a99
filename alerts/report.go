package alerts

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/content-engine/ranking"
)

// ChangeTally counts daily movements across keywords.
type ChangeTally struct {
	Improvements int `json:"improvements"`
	Declines     int `json:"declines"`
	Stable       int `json:"stable"`
}

// Report is the ranking overview of many keywords.
type Report struct {
	TotalKeywords   int             `json:"totalKeywords"`
	AveragePosition float64         `json:"averagePosition"`
	TopTenCount     int             `json:"topTenCount"`
	PageOneCount    int             `json:"pageOneCount"`
	Changes         ChangeTally     `json:"changes"`
	Alerts          []Alert         `json:"alerts"`
	Opportunities   []Opportunity   `json:"opportunities"`
	Trends          []ranking.Trend `json:"trends"`
	GeneratedAt     time.Time       `json:"generatedAt"`
}

type keywordResult struct {
	daily    *ranking.PositionChange
	alerts   []Alert
	snapshot *ranking.Snapshot
	trend    *ranking.Trend
}

// GenerateRankingReport analyzes every history, a bounded number at a time,
// and merges the results in input order. It stops early when ctx is done.
func (d *Detector) GenerateRankingReport(ctx context.Context, histories []ranking.History) (*Report, error) {
	now := d.now()
	results := make([]keywordResult, len(histories))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, h := range histories {
		i, h := i, h
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := d.analyzeKeyword(h, now)
			if err != nil {
				return fmt.Errorf("keyword %q: %w", h.Keyword, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Alerts:      []Alert{},
		Trends:      []ranking.Trend{},
		GeneratedAt: now,
	}
	var snapshots []ranking.Snapshot
	positionSum := 0

	for _, r := range results {
		report.Alerts = append(report.Alerts, r.alerts...)
		if r.trend != nil {
			report.Trends = append(report.Trends, *r.trend)
		}
		if r.daily != nil {
			switch r.daily.Trend {
			case ranking.Up:
				report.Changes.Improvements++
			case ranking.Down:
				report.Changes.Declines++
			default:
				report.Changes.Stable++
			}
		}
		if r.snapshot == nil {
			continue
		}
		snapshots = append(snapshots, *r.snapshot)
		positionSum += r.snapshot.Position
		if r.snapshot.Position <= 10 {
			report.TopTenCount++
		}
		if r.snapshot.Position <= TopPositionThreshold {
			report.PageOneCount++
		}
	}

	report.TotalKeywords = len(snapshots)
	if len(snapshots) > 0 {
		report.AveragePosition = float64(positionSum) / float64(len(snapshots))
	}

	opportunities, err := IdentifyRankingOpportunities(snapshots, d.opportunities)
	if err != nil {
		return nil, err
	}
	report.Opportunities = opportunities

	d.logger.WithField("keywords", report.TotalKeywords).
		WithField("alerts", len(report.Alerts)).
		Info("ranking report generated")
	return report, nil
}

func (d *Detector) analyzeKeyword(h ranking.History, now time.Time) (keywordResult, error) {
	changes := ranking.CalculatePositionChanges(h, now)

	alerts, err := d.DetectRankingDrops(changes, nil)
	if err != nil {
		return keywordResult{}, err
	}
	trend, err := ranking.AnalyzeTrend(h, ranking.PeriodMonth, now)
	if err != nil {
		return keywordResult{}, err
	}

	r := keywordResult{daily: changes.Daily, alerts: alerts, trend: trend}
	if s, ok := ranking.Latest(h, changes.Daily); ok {
		r.snapshot = &s
	}
	return r, nil
}
