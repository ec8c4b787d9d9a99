// Package store defines the persistence port the engine reads ranking
// history and A/B test data from and writes alerts to.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seo-optimizer/content-engine/abtest"
	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/ranking"
)

// Repository is implemented by the file and sqlite adapters.
// Lookups of absent keys return (zero, false, nil).
type Repository interface {
	Close() error

	// Rankings
	AppendRanking(ctx context.Context, r RankingRecord) error
	RankingHistory(ctx context.Context, keyword string) (ranking.History, bool, error)
	RankingHistories(ctx context.Context) ([]ranking.History, error)

	// A/B tests
	SaveVariant(ctx context.Context, testID string, r VariantRecord) error
	Variants(ctx context.Context, testID string) (ABTest, bool, error)

	// Alerts. Lifecycle updates of unknown ids return engineerr.ErrNotFound.
	SaveAlerts(ctx context.Context, as []alerts.Alert) error
	Alerts(ctx context.Context, f AlertFilter) ([]alerts.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error
	DismissAlert(ctx context.Context, id string) error
}

// RankingRecord is one position check as it arrives from a rank tracker.
type RankingRecord struct {
	Keyword          string    `json:"keyword" db:"keyword"`
	URL              string    `json:"url" db:"url"`
	Position         int       `json:"position" db:"position"`
	SearchVolume     int       `json:"search_volume" db:"search_volume"`
	EstimatedTraffic int       `json:"estimated_traffic" db:"estimated_traffic"`
	CheckedAt        time.Time `json:"checked_at" db:"checked_at"`
}

// Validate checks the record and trims the keyword in place.
func (r *RankingRecord) Validate() error {
	r.Keyword = strings.TrimSpace(r.Keyword)
	h := ranking.History{Keyword: r.Keyword, Entries: []ranking.Entry{r.Entry()}}
	return h.Validate()
}

// Entry converts the record to a history entry.
func (r RankingRecord) Entry() ranking.Entry {
	return ranking.Entry{
		Position:         r.Position,
		CheckedAt:        r.CheckedAt.UTC(),
		SearchVolume:     r.SearchVolume,
		EstimatedTraffic: r.EstimatedTraffic,
	}
}

// VariantRecord is a variant's traffic counters. StartDate is only used when
// the record creates its test.
type VariantRecord struct {
	ID            string     `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Impressions   int        `json:"impressions" db:"impressions"`
	Clicks        int        `json:"clicks" db:"clicks"`
	AvgTimeOnPage *float64   `json:"avg_time_on_page,omitempty" db:"avg_time_on_page"`
	BounceRate    *float64   `json:"bounce_rate,omitempty" db:"bounce_rate"`
	StartDate     *time.Time `json:"start_date,omitempty" db:"-"`
}

// Variant converts and validates the record.
func (r VariantRecord) Variant() (abtest.Variant, error) {
	v := abtest.Variant{
		ID:            strings.TrimSpace(r.ID),
		Name:          r.Name,
		Impressions:   r.Impressions,
		Clicks:        r.Clicks,
		AvgTimeOnPage: r.AvgTimeOnPage,
		BounceRate:    r.BounceRate,
	}
	if v.Name == "" {
		v.Name = v.ID
	}
	return v, v.Validate()
}

// ABTest is a stored test with its variants in insertion order.
type ABTest struct {
	ID        string           `json:"id"`
	StartDate time.Time        `json:"startDate"`
	Variants  []abtest.Variant `json:"variants"`
}

// AlertFilter narrows an alert listing.
type AlertFilter struct {
	Keyword          string
	IncludeDismissed bool
}

// Match reports whether a passes the filter.
func (f AlertFilter) Match(a alerts.Alert) bool {
	if f.Keyword != "" && a.Keyword != f.Keyword {
		return false
	}
	return f.IncludeDismissed || !a.Dismissed
}

// ValidateTestID rejects blank test ids.
func ValidateTestID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("test id is empty: %w", engineerr.ErrInvalidInput)
	}
	return nil
}
