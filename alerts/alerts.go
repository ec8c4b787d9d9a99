// Package alerts raises severity-tiered alerts from ranking changes and ranks
// keywords that sit just off page one.
package alerts

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/idgen"
	"github.com/seo-optimizer/content-engine/ranking"
)

const (
	// AlertPositionDrop is the default medium-severity drop threshold.
	AlertPositionDrop = 3
	// TopPositionThreshold is the last position on page one.
	TopPositionThreshold = 10
)

// Type of an alert.
type Type string

const (
	TypeDrop        Type = "drop"
	TypeOpportunity Type = "opportunity"
	TypeAchievement Type = "achievement"
	TypeLost        Type = "lost"
)

// Severity of an alert.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

// Alert is a ranking event that needs attention. Acknowledged and Dismissed
// are lifecycle flags owned by whoever persists the alert.
type Alert struct {
	ID                   string    `json:"id"`
	Keyword              string    `json:"keyword"`
	Type                 Type      `json:"alertType"`
	Severity             Severity  `json:"severity"`
	Period               string    `json:"period"`
	Message              string    `json:"message"`
	CurrentPosition      int       `json:"currentPosition"`
	PreviousPosition     int       `json:"previousPosition"`
	Change               int       `json:"change"`
	SearchVolume         int       `json:"searchVolume"`
	EstimatedTrafficLoss int       `json:"estimatedTrafficLoss"`
	ActionItems          []string  `json:"actionItems"`
	TriggeredAt          time.Time `json:"triggeredAt"`
	Acknowledged         bool      `json:"acknowledged"`
	Dismissed            bool      `json:"dismissed"`
}

// Acknowledge marks the alert as seen.
func (a *Alert) Acknowledge() { a.Acknowledged = true }

// Dismiss marks the alert as handled. A dismissed alert is also acknowledged.
func (a *Alert) Dismiss() {
	a.Acknowledged = true
	a.Dismissed = true
}

// Thresholds are the minimum drops, in positions, for each severity tier.
type Thresholds struct {
	Critical int `json:"critical" yaml:"critical"`
	High     int `json:"high" yaml:"high"`
	Medium   int `json:"medium" yaml:"medium"`
}

// DefaultThresholds returns critical=10, high=5, medium=AlertPositionDrop.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 10, High: 5, Medium: AlertPositionDrop}
}

// withDefaults fills zero tiers from DefaultThresholds.
func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t.Critical == 0 {
		t.Critical = d.Critical
	}
	if t.High == 0 {
		t.High = d.High
	}
	if t.Medium == 0 {
		t.Medium = d.Medium
	}
	return t
}

// Validate requires positive tiers ordered critical >= high >= medium.
func (t Thresholds) Validate() error {
	if t.Critical <= 0 || t.High <= 0 || t.Medium <= 0 {
		return fmt.Errorf("thresholds must be positive, got %+v: %w", t, engineerr.ErrInvalidInput)
	}
	if t.Critical < t.High || t.High < t.Medium {
		return fmt.Errorf("thresholds must satisfy critical >= high >= medium, got %+v: %w", t, engineerr.ErrInvalidInput)
	}
	return nil
}

// tier returns the most severe tier drop qualifies for.
func (t Thresholds) tier(drop int) (Severity, bool) {
	switch {
	case drop >= t.Critical:
		return Critical, true
	case drop >= t.High:
		return High, true
	case drop >= t.Medium:
		return Medium, true
	}
	return "", false
}

// Detector raises alerts and finds opportunities. It holds no state beyond its
// configuration and is safe for concurrent use.
type Detector struct {
	thresholds    Thresholds
	opportunities OpportunityOptions
	concurrency   int
	now           func() time.Time
	newID         idgen.Generator
	logger        *logrus.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithThresholds overrides the drop thresholds. Zero tiers keep their defaults.
func WithThresholds(t Thresholds) Option {
	return func(d *Detector) { d.thresholds = t.withDefaults() }
}

// WithOpportunityOptions overrides the opportunity filter used by reports.
func WithOpportunityOptions(o OpportunityOptions) Option {
	return func(d *Detector) { d.opportunities = o }
}

// WithConcurrency bounds the number of keywords a report analyzes at once.
func WithConcurrency(n int) Option {
	return func(d *Detector) { d.concurrency = n }
}

// WithClock sets the source of "now".
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithIDGenerator sets the alert ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(d *Detector) { d.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// NewDetector builds a Detector and validates its configuration.
func NewDetector(opts ...Option) (*Detector, error) {
	d := &Detector{
		thresholds:  DefaultThresholds(),
		concurrency: 8,
		now:         time.Now,
		newID:       idgen.Prefixed("alert-", idgen.ULID()),
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.thresholds.Validate(); err != nil {
		return nil, err
	}
	if _, err := d.opportunities.resolve(); err != nil {
		return nil, err
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	return d, nil
}

// Thresholds returns the detector's drop thresholds.
func (d *Detector) Thresholds() Thresholds { return d.thresholds }

var actionItems = map[Severity][]string{
	Critical: {
		"Urgently review content - major ranking loss detected",
		"Check Google Search Console for manual actions or penalties",
		"Analyze SERP to identify new competitors",
		"Review recent site changes or updates",
		"Consider emergency content optimization",
	},
	High: {
		"Review content freshness and relevance",
		"Analyze top-ranking competitors for content gaps",
		"Check for technical issues (speed, mobile-friendliness)",
		"Update content with latest information",
		"Consider adding more depth or multimedia",
	},
	Medium: {
		"Monitor trend over next few days",
		"Compare with competitor movements",
		"Review user engagement metrics",
		"Consider minor content updates",
	},
}

var lostActionItems = []string{
	"Immediately review article content quality",
	"Check for technical SEO issues (indexing, crawlability)",
	"Analyze competitor content that may have overtaken you",
	"Consider content refresh or complete rewrite",
	"Review backlink profile for lost links",
}

// ActionItems returns a copy of the fixed action list for severity.
func ActionItems(severity Severity) []string {
	items, ok := actionItems[severity]
	if !ok {
		items = actionItems[Medium]
	}
	return append([]string(nil), items...)
}

// DetectRankingDrops raises at most one drop alert per keyword, checking the
// daily, weekly and monthly changes in that order and using the most severe
// tier each drop qualifies for. A separate critical "lost" alert fires when
// the keyword fell out of the top 100 from the top 50 within a day. A nil
// thresholds uses the detector's own.
func (d *Detector) DetectRankingDrops(changes ranking.Changes, thresholds *Thresholds) ([]Alert, error) {
	t := d.thresholds
	if thresholds != nil {
		t = thresholds.withDefaults()
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}

	now := d.now()
	var alerts []Alert
	alerted := make(map[string]bool)

	periods := []struct {
		name   string
		window string
		change *ranking.PositionChange
	}{
		{"daily", "day", changes.Daily},
		{"weekly", "week", changes.Weekly},
		{"monthly", "month", changes.Monthly},
	}
	for _, p := range periods {
		c := p.change
		if c == nil || c.Trend != ranking.Down || alerted[c.Keyword] {
			continue
		}
		drop := -c.Change
		severity, ok := t.tier(drop)
		if !ok {
			continue
		}
		alerts = append(alerts, Alert{
			ID:                   d.newID(),
			Keyword:              c.Keyword,
			Type:                 TypeDrop,
			Severity:             severity,
			Period:               p.name,
			Message:              fmt.Sprintf("Keyword %q dropped %d positions in the last %s (#%d → #%d)", c.Keyword, drop, p.window, c.PreviousPosition, c.CurrentPosition),
			CurrentPosition:      c.CurrentPosition,
			PreviousPosition:     c.PreviousPosition,
			Change:               c.Change,
			SearchVolume:         c.SearchVolume,
			EstimatedTrafficLoss: abs(c.TrafficImpact),
			ActionItems:          ActionItems(severity),
			TriggeredAt:          now,
		})
		alerted[c.Keyword] = true
	}

	if c := changes.Daily; c != nil && c.CurrentPosition > 100 && c.PreviousPosition <= 50 {
		alerts = append(alerts, Alert{
			ID:                   d.newID(),
			Keyword:              c.Keyword,
			Type:                 TypeLost,
			Severity:             Critical,
			Period:               "daily",
			Message:              fmt.Sprintf("Keyword %q has fallen out of top 100 results (was #%d)", c.Keyword, c.PreviousPosition),
			CurrentPosition:      c.CurrentPosition,
			PreviousPosition:     c.PreviousPosition,
			Change:               c.Change,
			SearchVolume:         c.SearchVolume,
			EstimatedTrafficLoss: abs(c.TrafficImpact),
			ActionItems:          append([]string(nil), lostActionItems...),
			TriggeredAt:          now,
		})
	}

	for _, a := range alerts {
		d.logger.WithFields(logrus.Fields{
			"keyword":  a.Keyword,
			"severity": a.Severity,
			"type":     a.Type,
			"period":   a.Period,
		}).Info("ranking alert raised")
	}
	return alerts, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
