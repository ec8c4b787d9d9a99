// Package ranking tracks how a keyword's search position moves over time.
//
// Every function takes "now" as a parameter; nothing here reads the clock.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
)

// Entry is one position check.
type Entry struct {
	Position         int       `json:"position"`
	CheckedAt        time.Time `json:"checkedAt"`
	SearchVolume     int       `json:"searchVolume"`
	EstimatedTraffic int       `json:"estimatedTraffic"`
}

// History is the append-only series of checks for one keyword and URL.
type History struct {
	Keyword string  `json:"keyword"`
	URL     string  `json:"url"`
	Entries []Entry `json:"history"`
}

// Validate rejects entries that cannot come from a real check.
func (h History) Validate() error {
	if h.Keyword == "" {
		return fmt.Errorf("history has no keyword: %w", engineerr.ErrInvalidInput)
	}
	for i, e := range h.Entries {
		switch {
		case e.Position < 1:
			return fmt.Errorf("entry %d: position %d below 1: %w", i, e.Position, engineerr.ErrInvalidInput)
		case e.SearchVolume < 0:
			return fmt.Errorf("entry %d: negative search volume: %w", i, engineerr.ErrInvalidInput)
		case e.EstimatedTraffic < 0:
			return fmt.Errorf("entry %d: negative estimated traffic: %w", i, engineerr.ErrInvalidInput)
		case e.CheckedAt.IsZero():
			return fmt.Errorf("entry %d: missing checkedAt: %w", i, engineerr.ErrInvalidInput)
		}
	}
	return nil
}

// newestFirst returns a sorted copy; the caller's slice is left alone.
func (h History) newestFirst() []Entry {
	sorted := append([]Entry(nil), h.Entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CheckedAt.After(sorted[j].CheckedAt)
	})
	return sorted
}

// Direction of a position change. Up means a numerically lower position.
type Direction string

const (
	Up     Direction = "up"
	Down   Direction = "down"
	Stable Direction = "stable"
)

// Severity of a position change.
type Severity string

const (
	Major    Severity = "major"
	Moderate Severity = "moderate"
	Minor    Severity = "minor"
	None     Severity = "none"
)

// PositionChange compares the current check with an earlier one.
// Change is previous minus current, so a positive change is an improvement.
type PositionChange struct {
	Keyword          string    `json:"keyword"`
	CurrentPosition  int       `json:"currentPosition"`
	PreviousPosition int       `json:"previousPosition"`
	Change           int       `json:"change"`
	ChangePercentage float64   `json:"changePercentage"`
	Trend            Direction `json:"trend"`
	Severity         Severity  `json:"severity"`
	SearchVolume     int       `json:"searchVolume"`
	TrafficImpact    int       `json:"trafficImpact"`
}

// Changes holds one comparison per window. A nil window had no check old enough.
type Changes struct {
	Daily   *PositionChange `json:"daily"`
	Weekly  *PositionChange `json:"weekly"`
	Monthly *PositionChange `json:"monthly"`
}

// Comparison windows.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
)

// CalculatePositionChanges compares the newest check against the check
// closest to now-1d, now-7d and now-30d among the older checks made at or
// before that boundary.
func CalculatePositionChanges(h History, now time.Time) Changes {
	sorted := h.newestFirst()
	if len(sorted) == 0 {
		return Changes{}
	}
	current := sorted[0]

	compare := func(window time.Duration) *PositionChange {
		previous, ok := closestBefore(sorted[1:], now.Add(-window))
		if !ok {
			return nil
		}
		c := newPositionChange(h.Keyword, current, previous)
		return &c
	}

	return Changes{
		Daily:   compare(Day),
		Weekly:  compare(Week),
		Monthly: compare(Month),
	}
}

// closestBefore scans linearly; the first entry found wins a tie.
func closestBefore(entries []Entry, boundary time.Time) (Entry, bool) {
	var (
		best    Entry
		bestGap time.Duration
		found   bool
	)
	for _, e := range entries {
		if e.CheckedAt.After(boundary) {
			continue
		}
		gap := boundary.Sub(e.CheckedAt)
		if !found || gap < bestGap {
			best, bestGap, found = e, gap, true
		}
	}
	return best, found
}

func newPositionChange(keyword string, current, previous Entry) PositionChange {
	change := previous.Position - current.Position

	pc := PositionChange{
		Keyword:          keyword,
		CurrentPosition:  current.Position,
		PreviousPosition: previous.Position,
		Change:           change,
		Trend:            Stable,
		Severity:         SeverityOf(change),
		SearchVolume:     current.SearchVolume,
		TrafficImpact:    current.EstimatedTraffic - previous.EstimatedTraffic,
	}
	if previous.Position > 0 {
		pc.ChangePercentage = float64(change) / float64(previous.Position) * 100
	}
	switch {
	case change > 0:
		pc.Trend = Up
	case change < 0:
		pc.Trend = Down
	}
	return pc
}

// SeverityOf classifies the magnitude of a position change.
func SeverityOf(change int) Severity {
	abs := change
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 10:
		return Major
	case abs >= 5:
		return Moderate
	case abs >= 2:
		return Minor
	default:
		return None
	}
}

// Period is a trend analysis window.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

var periodLengths = map[Period]time.Duration{
	PeriodDay:     Day,
	PeriodWeek:    Week,
	PeriodMonth:   Month,
	PeriodQuarter: 90 * Day,
	PeriodYear:    365 * Day,
}

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodLengths[p]; !ok {
		return "", fmt.Errorf("unknown period %q: %w", s, engineerr.ErrInvalidInput)
	}
	return p, nil
}

// TrendKind classifies a series of positions.
type TrendKind string

const (
	Improving TrendKind = "improving"
	Declining TrendKind = "declining"
	Steady    TrendKind = "stable"
	Volatile  TrendKind = "volatile"
)

// VolatilityThreshold is the position stddev above which a series is volatile.
const VolatilityThreshold = 5.0

// Trend summarizes the checks inside one period.
type Trend struct {
	Keyword         string    `json:"keyword"`
	Period          Period    `json:"period"`
	StartPosition   int       `json:"startPosition"`
	EndPosition     int       `json:"endPosition"`
	Change          int       `json:"change"`
	Trend           TrendKind `json:"trend"`
	Volatility      float64   `json:"volatility"`
	AveragePosition float64   `json:"averagePosition"`
	BestPosition    int       `json:"bestPosition"`
	WorstPosition   int       `json:"worstPosition"`
	DataPoints      int       `json:"dataPoints"`
}

// AnalyzeTrend summarizes the checks made at or after now-period. It returns
// nil when fewer than two checks fall inside the period. A volatile series is
// reported as volatile even when its net change is large.
func AnalyzeTrend(h History, period Period, now time.Time) (*Trend, error) {
	length, ok := periodLengths[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q: %w", period, engineerr.ErrInvalidInput)
	}
	start := now.Add(-length)

	sorted := h.newestFirst()
	var positions []int
	for i := len(sorted) - 1; i >= 0; i-- {
		if !sorted[i].CheckedAt.Before(start) {
			positions = append(positions, sorted[i].Position)
		}
	}
	if len(positions) < 2 {
		return nil, nil
	}

	t := &Trend{
		Keyword:       h.Keyword,
		Period:        period,
		StartPosition: positions[0],
		EndPosition:   positions[len(positions)-1],
		BestPosition:  positions[0],
		WorstPosition: positions[0],
		DataPoints:    len(positions),
	}
	t.Change = t.StartPosition - t.EndPosition

	sum := 0
	for _, p := range positions {
		sum += p
		if p < t.BestPosition {
			t.BestPosition = p
		}
		if p > t.WorstPosition {
			t.WorstPosition = p
		}
	}
	t.AveragePosition = float64(sum) / float64(len(positions))

	variance := 0.0
	for _, p := range positions {
		d := float64(p) - t.AveragePosition
		variance += d * d
	}
	t.Volatility = math.Sqrt(variance / float64(len(positions)))

	switch {
	case t.Volatility > VolatilityThreshold:
		t.Trend = Volatile
	case t.Change > 2:
		t.Trend = Improving
	case t.Change < -2:
		t.Trend = Declining
	default:
		t.Trend = Steady
	}
	return t, nil
}

// Snapshot is the current ranking of one keyword.
type Snapshot struct {
	Keyword          string    `json:"keyword"`
	URL              string    `json:"url"`
	Position         int       `json:"position"`
	PreviousPosition *int      `json:"previousPosition,omitempty"`
	Change           int       `json:"change"`
	SearchVolume     int       `json:"searchVolume"`
	EstimatedTraffic int       `json:"estimatedTraffic"`
	CheckedAt        time.Time `json:"checkedAt"`
}

// Latest returns the newest check of h, annotated with the daily change when
// one is known. ok is false for an empty history.
func Latest(h History, daily *PositionChange) (Snapshot, bool) {
	sorted := h.newestFirst()
	if len(sorted) == 0 {
		return Snapshot{}, false
	}
	newest := sorted[0]
	s := Snapshot{
		Keyword:          h.Keyword,
		URL:              h.URL,
		Position:         newest.Position,
		SearchVolume:     newest.SearchVolume,
		EstimatedTraffic: newest.EstimatedTraffic,
		CheckedAt:        newest.CheckedAt,
	}
	if daily != nil {
		prev := daily.PreviousPosition
		s.PreviousPosition = &prev
		s.Change = daily.Change
	}
	return s, true
}
