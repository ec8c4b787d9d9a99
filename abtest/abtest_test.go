package abtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
)

var now = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func stats(id string, clicks, impressions int) VariantStats {
	return CalculateVariantStats(Variant{ID: id, Name: "Variant " + id, Clicks: clicks, Impressions: impressions})
}

func TestNormalCDF(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{0, 0.5},
		{1.96, 0.9750021048517795},
		{-1.96, 0.024997895148220435},
		{3, 0.9986501019683699},
	}
	for _, tt := range tests {
		if got := NormalCDF(tt.z); math.Abs(got-tt.want) > 7.5e-8 {
			t.Errorf("NormalCDF(%v): Expected %v, got %v", tt.z, tt.want, got)
		}
	}
}

func TestCalculateVariantStats(t *testing.T) {
	s := stats("a", 30, 1000)
	if s.CTR != 0.03 || s.CTRPercent != "3.00%" {
		t.Errorf("Expected 0.03 / 3.00%%, got %v / %s", s.CTR, s.CTRPercent)
	}
	if z := stats("b", 0, 0); z.CTR != 0 {
		t.Errorf("Expected CTR 0 without impressions, got %v", z.CTR)
	}
}

func TestCompareVariants(t *testing.T) {
	t.Run("identical variants", func(t *testing.T) {
		c, err := CompareVariants(stats("a", 30, 1000), stats("b", 30, 1000), 0.95)
		if err != nil {
			t.Fatalf("CompareVariants failed: %v", err)
		}
		if c.PValue < 0.999 {
			t.Errorf("Expected p-value near 1, got %v", c.PValue)
		}
		if c.IsSignificant {
			t.Error("Expected no significance")
		}
	})

	t.Run("clear difference", func(t *testing.T) {
		c, err := CompareVariants(stats("a", 30, 1000), stats("b", 80, 1000), 0.95)
		if err != nil {
			t.Fatalf("CompareVariants failed: %v", err)
		}
		if !c.IsSignificant {
			t.Errorf("Expected significance, p=%v", c.PValue)
		}
		if c.PValue < 0 || c.PValue > 1e-4 {
			t.Errorf("Expected a tiny p-value, got %v", c.PValue)
		}
		if math.Abs(c.Improvement-0.05) > 1e-12 {
			t.Errorf("Expected improvement 0.05, got %v", c.Improvement)
		}
		if c.ImprovementPercent == nil || math.Abs(*c.ImprovementPercent-500.0/3) > 1e-9 {
			t.Errorf("Expected improvement percent 166.67, got %v", c.ImprovementPercent)
		}
	})

	t.Run("zero impressions", func(t *testing.T) {
		c, err := CompareVariants(stats("a", 0, 0), stats("b", 10, 100), 0.95)
		if err != nil {
			t.Fatalf("CompareVariants failed: %v", err)
		}
		if c.ZScore != 0 || math.IsNaN(c.PValue) || c.IsSignificant {
			t.Errorf("Expected z 0 and no significance, got %+v", c)
		}
		if c.ImprovementPercent != nil {
			t.Errorf("Expected nil improvement percent, got %v", *c.ImprovementPercent)
		}
	})

	t.Run("invalid confidence", func(t *testing.T) {
		for _, conf := range []float64{0, 1, 1.5, -0.1} {
			if _, err := CompareVariants(stats("a", 1, 10), stats("b", 1, 10), conf); !errors.Is(err, engineerr.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput for %v, got %v", conf, err)
			}
		}
	})
}

func TestDetermineWinner(t *testing.T) {
	all := []VariantStats{stats("a", 30, 1000), stats("b", 80, 1000), stats("c", 32, 1000)}
	comparisons, err := PerformPairwiseComparisons(all, 0.95)
	if err != nil {
		t.Fatalf("PerformPairwiseComparisons failed: %v", err)
	}
	if len(comparisons) != 3 {
		t.Fatalf("Expected 3 comparisons, got %d", len(comparisons))
	}

	w := DetermineWinner(all, comparisons, 0.95)
	if w == nil || w.VariantID != "b" {
		t.Fatalf("Expected winner b, got %+v", w)
	}
	if math.Abs(w.Improvement-0.05) > 1e-12 {
		t.Errorf("Expected improvement over baseline 0.05, got %v", w.Improvement)
	}

	// b is not significantly better than a close runner-up
	close := []VariantStats{stats("a", 30, 1000), stats("b", 80, 1000), stats("c", 78, 1000)}
	comparisons, _ = PerformPairwiseComparisons(close, 0.95)
	if w := DetermineWinner(close, comparisons, 0.95); w != nil {
		t.Errorf("Expected no winner, got %+v", w)
	}

	if w := DetermineWinner(all[:1], nil, 0.95); w != nil {
		t.Errorf("Expected no winner with a single variant, got %+v", w)
	}
}

func TestAnalyzeTest(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		r, err := AnalyzeTest(Options{
			TestID:    "t1",
			StartDate: now.Add(-10 * 24 * time.Hour),
			Variants: []Variant{
				{ID: "a", Name: "Control", Impressions: 1000, Clicks: 30},
				{ID: "b", Name: "Question title", Impressions: 1000, Clicks: 80},
			},
		}, now)
		if err != nil {
			t.Fatalf("AnalyzeTest failed: %v", err)
		}
		if r.Status != StatusCompleted {
			t.Errorf("Expected completed, got %s", r.Status)
		}
		if r.EndDate == nil || !r.EndDate.Equal(now) {
			t.Errorf("Expected end date %v, got %v", now, r.EndDate)
		}
		if r.SampleSize != 2000 || !r.MinSampleSizeReached || r.TestDuration != 10 {
			t.Errorf("Unexpected totals: sample %d reached %v duration %d", r.SampleSize, r.MinSampleSizeReached, r.TestDuration)
		}
		if len(r.Recommendations) == 0 {
			t.Error("Expected recommendations")
		}
	})

	t.Run("inconclusive after thirty days", func(t *testing.T) {
		r, err := AnalyzeTest(Options{
			TestID:    "t2",
			StartDate: now.Add(-31 * 24 * time.Hour),
			Variants: []Variant{
				{ID: "a", Impressions: 1000, Clicks: 30},
				{ID: "b", Impressions: 1000, Clicks: 30},
			},
		}, now)
		if err != nil {
			t.Fatalf("AnalyzeTest failed: %v", err)
		}
		if r.Status != StatusInconclusive || r.Winner != nil || r.EndDate != nil {
			t.Errorf("Expected inconclusive without winner, got %s %+v", r.Status, r.Winner)
		}
	})

	t.Run("running below sample size", func(t *testing.T) {
		r, err := AnalyzeTest(Options{
			TestID:    "t3",
			StartDate: now.Add(-40 * 24 * time.Hour),
			Variants: []Variant{
				{ID: "a", Impressions: 50, Clicks: 0},
				{ID: "b", Impressions: 50, Clicks: 0},
			},
		}, now)
		if err != nil {
			t.Fatalf("AnalyzeTest failed: %v", err)
		}
		if r.Status != StatusRunning {
			t.Errorf("Expected running, got %s", r.Status)
		}
		if r.Recommendations[0] != "Continue running the test to reach minimum sample size for statistical significance." {
			t.Errorf("Expected sample size guidance first, got %v", r.Recommendations)
		}
	})

	t.Run("invalid variants", func(t *testing.T) {
		cases := [][]Variant{
			{{ID: "a", Impressions: 10, Clicks: 20}, {ID: "b", Impressions: 10}},
			{{ID: "a", Impressions: 10}, {ID: "a", Impressions: 10}},
			{{ID: "a", Impressions: 10}},
		}
		for _, variants := range cases {
			if _, err := AnalyzeTest(Options{TestID: "x", Variants: variants}, now); !errors.Is(err, engineerr.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		}
	})
}

func TestCalculateRequiredSampleSize(t *testing.T) {
	n, err := CalculateRequiredSampleSize(0.03, 0.1, 0.05, 0.8)
	if err != nil {
		t.Fatalf("CalculateRequiredSampleSize failed: %v", err)
	}
	if n != 53148 {
		t.Errorf("Expected 53148, got %d", n)
	}

	if _, err := CalculateRequiredSampleSize(0.03, 0.1, 0.01, 0.8); !errors.Is(err, engineerr.ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}
	for _, tc := range []struct{ baseline, mde float64 }{{0, 0.1}, {1, 0.1}, {0.03, 0}, {0.9, 0.5}} {
		if _, err := CalculateRequiredSampleSize(tc.baseline, tc.mde, 0.05, 0.8); !errors.Is(err, engineerr.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %+v, got %v", tc, err)
		}
	}
}
