package ranking

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func entry(pos int, ago time.Duration) Entry {
	return Entry{Position: pos, CheckedAt: now.Add(-ago), SearchVolume: 1000, EstimatedTraffic: 100 - pos}
}

func TestCalculatePositionChangesRecentHistory(t *testing.T) {
	h := History{Keyword: "seo tools", Entries: []Entry{
		entry(5, 2*Day),
		entry(3, time.Hour),
	}}

	changes := CalculatePositionChanges(h, now)

	if changes.Daily == nil {
		t.Fatal("Expected a daily change")
	}
	if changes.Daily.Change != 2 {
		t.Errorf("Expected daily change +2, got %d", changes.Daily.Change)
	}
	if changes.Daily.Trend != Up {
		t.Errorf("Expected trend up, got %s", changes.Daily.Trend)
	}
	if changes.Daily.Severity != Minor {
		t.Errorf("Expected severity minor, got %s", changes.Daily.Severity)
	}
	if changes.Weekly != nil {
		t.Errorf("Expected no weekly change, got %+v", changes.Weekly)
	}
	if changes.Monthly != nil {
		t.Errorf("Expected no monthly change, got %+v", changes.Monthly)
	}
}

func TestCalculatePositionChangesPicksClosestOlderEntry(t *testing.T) {
	// Deliberately out of order.
	h := History{Keyword: "kw", Entries: []Entry{
		entry(9, 8*Day),
		entry(4, 0),
		entry(20, 40*Day),
		entry(6, 2*Day),
		entry(15, 31*Day),
	}}

	changes := CalculatePositionChanges(h, now)

	tests := []struct {
		name     string
		got      *PositionChange
		previous int
		change   int
		severity Severity
	}{
		{"daily", changes.Daily, 6, 2, Minor},
		{"weekly", changes.Weekly, 9, 5, Moderate},
		{"monthly", changes.Monthly, 15, 11, Major},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got == nil {
				t.Fatal("Expected a change")
			}
			if tt.got.CurrentPosition != 4 {
				t.Errorf("Expected current 4, got %d", tt.got.CurrentPosition)
			}
			if tt.got.PreviousPosition != tt.previous {
				t.Errorf("Expected previous %d, got %d", tt.previous, tt.got.PreviousPosition)
			}
			if tt.got.Change != tt.change {
				t.Errorf("Expected change %d, got %d", tt.change, tt.got.Change)
			}
			if tt.got.Severity != tt.severity {
				t.Errorf("Expected severity %s, got %s", tt.severity, tt.got.Severity)
			}
			if tt.got.TrafficImpact != tt.previous-4 {
				t.Errorf("Expected traffic impact %d, got %d", tt.previous-4, tt.got.TrafficImpact)
			}
		})
	}

	if math.Abs(changes.Weekly.ChangePercentage-500.0/9) > 1e-9 {
		t.Errorf("Expected weekly change percentage %f, got %f", 500.0/9, changes.Weekly.ChangePercentage)
	}
}

func TestCalculatePositionChangesDrop(t *testing.T) {
	h := History{Keyword: "kw", Entries: []Entry{entry(3, 26*time.Hour), entry(15, 0)}}
	changes := CalculatePositionChanges(h, now)
	if changes.Daily == nil || changes.Daily.Change != -12 || changes.Daily.Trend != Down {
		t.Errorf("Expected a 12 position drop, got %+v", changes.Daily)
	}
}

func TestCalculatePositionChangesEmpty(t *testing.T) {
	changes := CalculatePositionChanges(History{Keyword: "kw"}, now)
	if changes.Daily != nil || changes.Weekly != nil || changes.Monthly != nil {
		t.Errorf("Expected no changes, got %+v", changes)
	}

	single := CalculatePositionChanges(History{Keyword: "kw", Entries: []Entry{entry(3, 10*Day)}}, now)
	if single.Daily != nil {
		t.Errorf("Expected the only entry to be current, got %+v", single.Daily)
	}
}

func TestAnalyzeTrend(t *testing.T) {
	series := func(positions ...int) History {
		h := History{Keyword: "kw"}
		for i, p := range positions {
			h.Entries = append(h.Entries, entry(p, time.Duration(len(positions)-i)*Day))
		}
		return h
	}

	tests := []struct {
		name   string
		h      History
		want   TrendKind
		change int
	}{
		{"improving", series(20, 18, 16), Improving, 4},
		{"declining", series(10, 12, 14), Declining, -4},
		{"stable", series(10, 11, 10), Steady, 0},
		{"volatile wins over a large improvement", series(30, 10, 25, 5, 3), Volatile, 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend, err := AnalyzeTrend(tt.h, PeriodMonth, now)
			if err != nil {
				t.Fatalf("AnalyzeTrend failed: %v", err)
			}
			if trend == nil {
				t.Fatal("Expected a trend")
			}
			if trend.Trend != tt.want {
				t.Errorf("Expected %s, got %s (volatility %f)", tt.want, trend.Trend, trend.Volatility)
			}
			if trend.Change != tt.change {
				t.Errorf("Expected change %d, got %d", tt.change, trend.Change)
			}
		})
	}
}

func TestAnalyzeTrendStatistics(t *testing.T) {
	h := History{Keyword: "kw", Entries: []Entry{
		entry(50, 60*Day), // outside the month
		entry(4, 3*Day),
		entry(8, 2*Day),
		entry(6, Day),
	}}

	trend, err := AnalyzeTrend(h, PeriodMonth, now)
	if err != nil {
		t.Fatalf("AnalyzeTrend failed: %v", err)
	}
	if trend.DataPoints != 3 {
		t.Errorf("Expected 3 data points, got %d", trend.DataPoints)
	}
	if trend.AveragePosition != 6 {
		t.Errorf("Expected average 6, got %f", trend.AveragePosition)
	}
	if trend.BestPosition != 4 || trend.WorstPosition != 8 {
		t.Errorf("Expected best 4 worst 8, got %d/%d", trend.BestPosition, trend.WorstPosition)
	}
	wantVolatility := math.Sqrt(8.0 / 3)
	if math.Abs(trend.Volatility-wantVolatility) > 1e-9 {
		t.Errorf("Expected volatility %f, got %f", wantVolatility, trend.Volatility)
	}

	quarter, _ := AnalyzeTrend(h, PeriodQuarter, now)
	if quarter.DataPoints != 4 {
		t.Errorf("Expected 4 data points in a quarter, got %d", quarter.DataPoints)
	}
}

func TestAnalyzeTrendDegenerate(t *testing.T) {
	h := History{Keyword: "kw", Entries: []Entry{entry(4, 40*Day), entry(5, Day)}}

	trend, err := AnalyzeTrend(h, PeriodMonth, now)
	if err != nil || trend != nil {
		t.Errorf("Expected nil trend with one point in period, got %+v, %v", trend, err)
	}

	_, err = AnalyzeTrend(h, Period("fortnight"), now)
	if !errors.Is(err, engineerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	if _, err := ParsePeriod("week"); err != nil {
		t.Errorf("Expected week to parse, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		h       History
		wantErr bool
	}{
		{"valid", History{Keyword: "kw", Entries: []Entry{entry(1, 0)}}, false},
		{"no keyword", History{Entries: []Entry{entry(1, 0)}}, true},
		{"position zero", History{Keyword: "kw", Entries: []Entry{{Position: 0, CheckedAt: now}}}, true},
		{"negative volume", History{Keyword: "kw", Entries: []Entry{{Position: 1, CheckedAt: now, SearchVolume: -1}}}, true},
		{"negative traffic", History{Keyword: "kw", Entries: []Entry{{Position: 1, CheckedAt: now, EstimatedTraffic: -1}}}, true},
		{"missing time", History{Keyword: "kw", Entries: []Entry{{Position: 1}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.h.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if err != nil && !errors.Is(err, engineerr.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLatest(t *testing.T) {
	h := History{Keyword: "kw", URL: "https://example.com", Entries: []Entry{entry(7, 2*Day), entry(5, 0)}}
	changes := CalculatePositionChanges(h, now)

	s, ok := Latest(h, changes.Daily)
	if !ok {
		t.Fatal("Expected a snapshot")
	}
	if s.Position != 5 || s.Change != 2 || s.PreviousPosition == nil || *s.PreviousPosition != 7 {
		t.Errorf("Unexpected snapshot %+v", s)
	}

	if _, ok := Latest(History{Keyword: "kw"}, nil); ok {
		t.Error("Expected no snapshot for an empty history")
	}
}
