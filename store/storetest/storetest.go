// Package storetest holds the behaviour every store.Repository must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/store"
)

// Base is the reference time used by the suite.
var Base = time.Date(2024, 5, 20, 8, 30, 0, 0, time.UTC)

// Run exercises a fresh repository from open in every subtest.
func Run(t *testing.T, open func(t *testing.T) store.Repository) {
	t.Run("rankings", func(t *testing.T) { testRankings(t, open(t)) })
	t.Run("variants", func(t *testing.T) { testVariants(t, open(t)) })
	t.Run("alerts", func(t *testing.T) { testAlerts(t, open(t)) })
}

func testRankings(t *testing.T, r store.Repository) {
	ctx := context.Background()
	records := []store.RankingRecord{
		{Keyword: "seo tools", URL: "https://example.com/a", Position: 8, SearchVolume: 1000, EstimatedTraffic: 20, CheckedAt: Base},
		{Keyword: "alpha", URL: "https://example.com/alpha", Position: 3, SearchVolume: 50, CheckedAt: Base},
		{Keyword: " seo tools ", URL: "https://example.com/b", Position: 5, SearchVolume: 1000, EstimatedTraffic: 40, CheckedAt: Base.Add(24 * time.Hour)},
		{Keyword: "seo tools", Position: 4, SearchVolume: 1100, EstimatedTraffic: 45, CheckedAt: Base.Add(48 * time.Hour)},
	}
	for _, rec := range records {
		if err := r.AppendRanking(ctx, rec); err != nil {
			t.Fatalf("AppendRanking failed: %v", err)
		}
	}

	h, ok, err := r.RankingHistory(ctx, "seo tools")
	if err != nil || !ok {
		t.Fatalf("Expected history, got ok=%v err=%v", ok, err)
	}
	if len(h.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(h.Entries))
	}
	if h.URL != "https://example.com/b" {
		t.Errorf("Expected latest non-empty URL, got %s", h.URL)
	}
	if h.Entries[2].Position != 4 || !h.Entries[2].CheckedAt.Equal(Base.Add(48*time.Hour)) {
		t.Errorf("Unexpected last entry %+v", h.Entries[2])
	}

	all, err := r.RankingHistories(ctx)
	if err != nil {
		t.Fatalf("RankingHistories failed: %v", err)
	}
	if len(all) != 2 || all[0].Keyword != "alpha" || all[1].Keyword != "seo tools" {
		t.Errorf("Expected alpha and seo tools, got %+v", all)
	}

	if _, ok, err := r.RankingHistory(ctx, "missing"); ok || err != nil {
		t.Errorf("Expected absent history, got ok=%v err=%v", ok, err)
	}
	if err := r.AppendRanking(ctx, store.RankingRecord{Keyword: "k", Position: 0, CheckedAt: Base}); !errors.Is(err, engineerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func testVariants(t *testing.T, r store.Repository) {
	ctx := context.Background()
	start := Base.Add(-72 * time.Hour)
	bounce := 0.4

	steps := []store.VariantRecord{
		{ID: "a", Name: "Control", Impressions: 100, Clicks: 3, StartDate: &start},
		{ID: "b", Name: "Question", Impressions: 100, Clicks: 8, BounceRate: &bounce},
		{ID: "a", Name: "Control", Impressions: 250, Clicks: 9},
	}
	for _, v := range steps {
		if err := r.SaveVariant(ctx, "title-test", v); err != nil {
			t.Fatalf("SaveVariant failed: %v", err)
		}
	}

	test, ok, err := r.Variants(ctx, "title-test")
	if err != nil || !ok {
		t.Fatalf("Expected test, got ok=%v err=%v", ok, err)
	}
	if !test.StartDate.Equal(start) {
		t.Errorf("Expected start %v, got %v", start, test.StartDate)
	}
	if len(test.Variants) != 2 || test.Variants[0].ID != "a" || test.Variants[1].ID != "b" {
		t.Fatalf("Expected variants a, b, got %+v", test.Variants)
	}
	if test.Variants[0].Impressions != 250 || test.Variants[0].Clicks != 9 {
		t.Errorf("Expected updated counters, got %+v", test.Variants[0])
	}
	if b := test.Variants[1].BounceRate; b == nil || *b != 0.4 {
		t.Errorf("Expected bounce rate 0.4, got %v", b)
	}
	if test.Variants[1].AvgTimeOnPage != nil {
		t.Errorf("Expected no time on page, got %v", *test.Variants[1].AvgTimeOnPage)
	}

	if _, ok, err := r.Variants(ctx, "missing"); ok || err != nil {
		t.Errorf("Expected absent test, got ok=%v err=%v", ok, err)
	}
	if err := r.SaveVariant(ctx, "title-test", store.VariantRecord{ID: "c", Impressions: 1, Clicks: 2}); !errors.Is(err, engineerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for clicks over impressions, got %v", err)
	}
	if err := r.SaveVariant(ctx, " ", store.VariantRecord{ID: "c"}); !errors.Is(err, engineerr.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for blank test id, got %v", err)
	}
}

func testAlerts(t *testing.T, r store.Repository) {
	ctx := context.Background()
	later := alerts.Alert{
		ID: "alert-2", Keyword: "seo tools", Type: alerts.TypeDrop, Severity: alerts.High,
		Period: "daily", Message: "dropped", CurrentPosition: 9, PreviousPosition: 3, Change: -6,
		ActionItems: []string{"Check for technical issues"}, TriggeredAt: Base.Add(time.Hour),
	}
	earlier := alerts.Alert{
		ID: "alert-1", Keyword: "alpha", Type: alerts.TypeLost, Severity: alerts.Critical,
		Period: "daily", Message: "lost", CurrentPosition: 120, PreviousPosition: 30, Change: -90,
		ActionItems: []string{"Check for manual penalties"}, TriggeredAt: Base,
	}
	if err := r.SaveAlerts(ctx, []alerts.Alert{later, earlier}); err != nil {
		t.Fatalf("SaveAlerts failed: %v", err)
	}
	later.Message = "dropped again"
	if err := r.SaveAlerts(ctx, []alerts.Alert{later}); err != nil {
		t.Fatalf("SaveAlerts failed: %v", err)
	}

	list, err := r.Alerts(ctx, store.AlertFilter{})
	if err != nil {
		t.Fatalf("Alerts failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "alert-1" || list[1].ID != "alert-2" {
		t.Fatalf("Expected alert-1 then alert-2, got %+v", list)
	}
	if list[1].Message != "dropped again" || list[1].Type != alerts.TypeDrop || list[1].ActionItems[0] != "Check for technical issues" {
		t.Errorf("Unexpected stored alert %+v", list[1])
	}

	if err := r.AcknowledgeAlert(ctx, "alert-2"); err != nil {
		t.Fatalf("AcknowledgeAlert failed: %v", err)
	}
	if err := r.DismissAlert(ctx, "alert-1"); err != nil {
		t.Fatalf("DismissAlert failed: %v", err)
	}

	list, _ = r.Alerts(ctx, store.AlertFilter{})
	if len(list) != 1 || list[0].ID != "alert-2" || !list[0].Acknowledged {
		t.Errorf("Expected only acknowledged alert-2, got %+v", list)
	}
	list, _ = r.Alerts(ctx, store.AlertFilter{Keyword: "alpha", IncludeDismissed: true})
	if len(list) != 1 || !list[0].Dismissed || !list[0].Acknowledged {
		t.Errorf("Expected dismissed alpha alert, got %+v", list)
	}

	if err := r.AcknowledgeAlert(ctx, "nope"); !errors.Is(err, engineerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := r.DismissAlert(ctx, "nope"); !errors.Is(err, engineerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
