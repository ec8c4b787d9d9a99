// Package abtest decides whether content variants differ in click-through
// rate with a pooled two-proportion z-test.
package abtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
)

// Defaults used by AnalyzeTest.
const (
	DefaultConfidenceLevel = 0.95
	DefaultMinSampleSize   = 100
	MaxTestDurationDays    = 30
)

// Variant is the raw performance record of one variant.
type Variant struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Impressions   int      `json:"impressions"`
	Clicks        int      `json:"clicks"`
	AvgTimeOnPage *float64 `json:"avgTimeOnPage,omitempty"`
	BounceRate    *float64 `json:"bounceRate,omitempty"`
}

// Validate rejects counts that cannot come from real traffic.
func (v Variant) Validate() error {
	switch {
	case v.ID == "":
		return fmt.Errorf("variant has no id: %w", engineerr.ErrInvalidInput)
	case v.Impressions < 0 || v.Clicks < 0:
		return fmt.Errorf("variant %s: negative counts: %w", v.ID, engineerr.ErrInvalidInput)
	case v.Clicks > v.Impressions:
		return fmt.Errorf("variant %s: %d clicks exceed %d impressions: %w", v.ID, v.Clicks, v.Impressions, engineerr.ErrInvalidInput)
	case v.BounceRate != nil && (*v.BounceRate < 0 || *v.BounceRate > 1):
		return fmt.Errorf("variant %s: bounce rate outside [0,1]: %w", v.ID, engineerr.ErrInvalidInput)
	}
	return nil
}

// VariantStats is a variant with its click-through rate.
type VariantStats struct {
	VariantID     string   `json:"variantId"`
	VariantName   string   `json:"variantName"`
	Impressions   int      `json:"impressions"`
	Clicks        int      `json:"clicks"`
	CTR           float64  `json:"ctr"`
	CTRPercent    string   `json:"ctrPercent"`
	AvgTimeOnPage *float64 `json:"avgTimeOnPage,omitempty"`
	BounceRate    *float64 `json:"bounceRate,omitempty"`
}

// CalculateVariantStats derives the CTR; 0 when there were no impressions.
func CalculateVariantStats(v Variant) VariantStats {
	ctr := 0.0
	if v.Impressions > 0 {
		ctr = float64(v.Clicks) / float64(v.Impressions)
	}
	return VariantStats{
		VariantID:     v.ID,
		VariantName:   v.Name,
		Impressions:   v.Impressions,
		Clicks:        v.Clicks,
		CTR:           ctr,
		CTRPercent:    fmt.Sprintf("%.2f%%", ctr*100),
		AvgTimeOnPage: v.AvgTimeOnPage,
		BounceRate:    v.BounceRate,
	}
}

// Comparison is the z-test of B against A. Improvement is ctrB - ctrA;
// ImprovementPercent is nil when A's CTR is 0.
type Comparison struct {
	VariantA           string   `json:"variantA"`
	VariantB           string   `json:"variantB"`
	ZScore             float64  `json:"zScore"`
	PValue             float64  `json:"pValue"`
	IsSignificant      bool     `json:"isSignificant"`
	ConfidenceLevel    float64  `json:"confidenceLevel"`
	Improvement        float64  `json:"improvement"`
	ImprovementPercent *float64 `json:"improvementPercent"`
}

func validateConfidence(confidence float64) error {
	if !(confidence > 0 && confidence < 1) {
		return fmt.Errorf("confidence level %v outside (0,1): %w", confidence, engineerr.ErrInvalidInput)
	}
	return nil
}

// CompareVariants runs a two-tailed pooled two-proportion z-test. A side
// without impressions contributes no evidence, so z is 0 and p is 1.
func CompareVariants(a, b VariantStats, confidence float64) (Comparison, error) {
	if err := validateConfidence(confidence); err != nil {
		return Comparison{}, err
	}

	z := 0.0
	if a.Impressions > 0 && b.Impressions > 0 {
		pooled := float64(a.Clicks+b.Clicks) / float64(a.Impressions+b.Impressions)
		se := math.Sqrt(pooled * (1 - pooled) * (1/float64(a.Impressions) + 1/float64(b.Impressions)))
		if se > 0 {
			z = (b.CTR - a.CTR) / se
		}
	}
	p := math.Max(0, math.Min(1, 2*(1-NormalCDF(math.Abs(z)))))

	c := Comparison{
		VariantA:        a.VariantID,
		VariantB:        b.VariantID,
		ZScore:          z,
		PValue:          p,
		IsSignificant:   p < 1-confidence,
		ConfidenceLevel: confidence,
		Improvement:     b.CTR - a.CTR,
	}
	c.ImprovementPercent = relativeChange(c.Improvement, a.CTR)
	return c, nil
}

func relativeChange(delta, base float64) *float64 {
	if base <= 0 {
		return nil
	}
	pct := delta / base * 100
	return &pct
}

// NormalCDF approximates the standard normal CDF with Abramowitz and Stegun
// formula 26.2.17. The absolute error is below 7.5e-8.
func NormalCDF(z float64) float64 {
	const (
		p  = 0.2316419
		b1 = 0.319381530
		b2 = -0.356563782
		b3 = 1.781477937
		b4 = -1.821255978
		b5 = 1.330274429
	)
	x := math.Abs(z)
	t := 1 / (1 + p*x)
	pdf := math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
	tail := pdf * t * (b1 + t*(b2+t*(b3+t*(b4+t*b5))))
	if z >= 0 {
		return 1 - tail
	}
	return tail
}

// PerformPairwiseComparisons compares every pair (i, j) with i < j.
func PerformPairwiseComparisons(stats []VariantStats, confidence float64) ([]Comparison, error) {
	if err := validateConfidence(confidence); err != nil {
		return nil, err
	}
	comparisons := []Comparison{}
	for i := 0; i < len(stats); i++ {
		for j := i + 1; j < len(stats); j++ {
			c, err := CompareVariants(stats[i], stats[j], confidence)
			if err != nil {
				return nil, err
			}
			comparisons = append(comparisons, c)
		}
	}
	return comparisons, nil
}

// Winner is a variant that beat every other variant significantly.
// Improvement is measured against the first variant, the baseline.
type Winner struct {
	VariantID          string   `json:"variantId"`
	VariantName        string   `json:"variantName"`
	Confidence         float64  `json:"confidence"`
	Improvement        float64  `json:"improvement"`
	ImprovementPercent *float64 `json:"improvementPercent"`
}

// DetermineWinner picks the highest-CTR variant (first one on ties) and
// returns it only if each comparison against it is significant and in its
// favour. nil means no winner yet.
func DetermineWinner(stats []VariantStats, comparisons []Comparison, confidence float64) *Winner {
	if len(stats) < 2 {
		return nil
	}

	best := stats[0]
	for _, s := range stats[1:] {
		if s.CTR > best.CTR {
			best = s
		}
	}

	for _, s := range stats {
		if s.VariantID == best.VariantID {
			continue
		}
		c, ok := findComparison(comparisons, best.VariantID, s.VariantID)
		if !ok || !c.IsSignificant {
			return nil
		}
		favoursBest := (c.VariantB == best.VariantID && c.Improvement > 0) ||
			(c.VariantA == best.VariantID && c.Improvement < 0)
		if !favoursBest {
			return nil
		}
	}

	baseline := stats[0]
	improvement := best.CTR - baseline.CTR
	return &Winner{
		VariantID:          best.VariantID,
		VariantName:        best.VariantName,
		Confidence:         confidence,
		Improvement:        improvement,
		ImprovementPercent: relativeChange(improvement, baseline.CTR),
	}
}

func findComparison(comparisons []Comparison, x, y string) (Comparison, bool) {
	for _, c := range comparisons {
		if (c.VariantA == x && c.VariantB == y) || (c.VariantA == y && c.VariantB == x) {
			return c, true
		}
	}
	return Comparison{}, false
}

// Status of a test.
type Status string

const (
	StatusRunning      Status = "running"
	StatusCompleted    Status = "completed"
	StatusInconclusive Status = "inconclusive"
)

// Options describes one test to analyze. Zero ConfidenceLevel and
// MinSampleSize select the defaults.
type Options struct {
	TestID          string    `json:"testId"`
	Variants        []Variant `json:"variants"`
	StartDate       time.Time `json:"startDate"`
	ConfidenceLevel float64   `json:"confidenceLevel"`
	MinSampleSize   int       `json:"minSampleSize"`
}

// TestResults is the full analysis of a test.
type TestResults struct {
	TestID               string         `json:"testId"`
	Status               Status         `json:"status"`
	Variants             []VariantStats `json:"variants"`
	Winner               *Winner        `json:"winner,omitempty"`
	Comparisons          []Comparison   `json:"comparisons"`
	Recommendations      []string       `json:"recommendations"`
	SampleSize           int            `json:"sampleSize"`
	MinSampleSizeReached bool           `json:"minSampleSizeReached"`
	TestDuration         int            `json:"testDuration"`
	StartDate            time.Time      `json:"startDate"`
	EndDate              *time.Time     `json:"endDate,omitempty"`
}

// AnalyzeTest computes stats, comparisons, the winner, the status and
// recommendations for a test as of now.
func AnalyzeTest(opts Options, now time.Time) (*TestResults, error) {
	if opts.ConfidenceLevel == 0 {
		opts.ConfidenceLevel = DefaultConfidenceLevel
	}
	if opts.MinSampleSize == 0 {
		opts.MinSampleSize = DefaultMinSampleSize
	}
	if err := validateConfidence(opts.ConfidenceLevel); err != nil {
		return nil, err
	}
	if opts.MinSampleSize < 0 {
		return nil, fmt.Errorf("negative minimum sample size: %w", engineerr.ErrInvalidInput)
	}
	if len(opts.Variants) < 2 {
		return nil, fmt.Errorf("test %s needs at least two variants, got %d: %w", opts.TestID, len(opts.Variants), engineerr.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(opts.Variants))
	stats := make([]VariantStats, 0, len(opts.Variants))
	total := 0
	reached := true
	for _, v := range opts.Variants {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if seen[v.ID] {
			return nil, fmt.Errorf("duplicate variant id %s: %w", v.ID, engineerr.ErrInvalidInput)
		}
		seen[v.ID] = true

		s := CalculateVariantStats(v)
		stats = append(stats, s)
		total += s.Impressions
		if s.Impressions < opts.MinSampleSize {
			reached = false
		}
	}

	comparisons, err := PerformPairwiseComparisons(stats, opts.ConfidenceLevel)
	if err != nil {
		return nil, err
	}
	winner := DetermineWinner(stats, comparisons, opts.ConfidenceLevel)

	duration := 0
	if elapsed := now.Sub(opts.StartDate); elapsed > 0 {
		duration = int(elapsed / (24 * time.Hour))
	}

	results := &TestResults{
		TestID:               opts.TestID,
		Status:               testStatus(winner, reached, duration),
		Variants:             stats,
		Winner:               winner,
		Comparisons:          comparisons,
		Recommendations:      recommendations(stats, comparisons, reached, duration),
		SampleSize:           total,
		MinSampleSizeReached: reached,
		TestDuration:         duration,
		StartDate:            opts.StartDate,
	}
	if results.Status == StatusCompleted {
		end := now
		results.EndDate = &end
	}
	return results, nil
}

func testStatus(winner *Winner, reached bool, duration int) Status {
	switch {
	case winner != nil:
		return StatusCompleted
	case duration >= MaxTestDurationDays && reached:
		return StatusInconclusive
	default:
		return StatusRunning
	}
}

func recommendations(stats []VariantStats, comparisons []Comparison, reached bool, duration int) []string {
	recs := []string{}

	if !reached {
		recs = append(recs,
			"Continue running the test to reach minimum sample size for statistical significance.",
			"Consider increasing traffic to the test to gather data faster.")
	}

	sorted := append([]VariantStats(nil), stats...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CTR > sorted[j].CTR })
	if len(sorted) >= 2 && sorted[1].CTR > 0 {
		leader, runnerUp := sorted[0], sorted[1]
		gap := (leader.CTR - runnerUp.CTR) / runnerUp.CTR * 100
		switch {
		case gap > 20:
			recs = append(recs, fmt.Sprintf("Variant %q shows %.1f%% higher CTR. Consider allocating more traffic to confirm this trend.", leader.VariantName, gap))
		case gap < 5:
			recs = append(recs, "Variants are performing similarly. Consider testing more distinct variations.")
		}
	}

	significant := 0
	for _, c := range comparisons {
		if c.IsSignificant {
			significant++
		}
	}
	if significant == 0 && reached {
		recs = append(recs, "No statistically significant differences found. Consider creating more distinct variants or testing different elements.")
	}

	if duration < 7 {
		recs = append(recs, "Test has run for less than a week. Continue for at least 7-14 days to account for weekly traffic patterns.")
	}
	if duration > MaxTestDurationDays {
		recs = append(recs, "Test has been running for over 30 days. Consider concluding the test or starting a new experiment.")
	}

	avg := 0.0
	for _, s := range stats {
		avg += s.CTR
	}
	avg /= float64(len(stats))
	switch {
	case avg < 0.02:
		recs = append(recs, "Overall CTR is below 2%. Consider testing more compelling titles or meta descriptions.")
	case avg > 0.05:
		recs = append(recs, "Strong overall CTR above 5%. Focus on scaling the winning variant.")
	}

	return recs
}

// CalculateRequiredSampleSize returns the impressions each variant needs to
// detect a relative lift of mde over baseline. The fixed z-scores (1.96 and
// 0.84) only hold for alpha 0.05 and power 0.8; other values are rejected.
func CalculateRequiredSampleSize(baseline, mde, alpha, power float64) (int, error) {
	if alpha != 0.05 || power != 0.8 {
		return 0, fmt.Errorf("alpha %v / power %v: only 0.05 / 0.8 are supported: %w", alpha, power, engineerr.ErrUnsupported)
	}
	if !(baseline > 0 && baseline < 1) {
		return 0, fmt.Errorf("baseline CTR %v outside (0,1): %w", baseline, engineerr.ErrInvalidInput)
	}
	if mde <= 0 {
		return 0, fmt.Errorf("minimum detectable effect %v must be positive: %w", mde, engineerr.ErrInvalidInput)
	}
	p1 := baseline
	p2 := baseline * (1 + mde)
	if p2 > 1 {
		return 0, fmt.Errorf("baseline %v lifted by %v exceeds 1: %w", baseline, mde, engineerr.ErrInvalidInput)
	}

	const zAlpha, zBeta = 1.96, 0.84
	numerator := (zAlpha + zBeta) * (zAlpha + zBeta) * (p1*(1-p1) + p2*(1-p2))
	denominator := (p2 - p1) * (p2 - p1)
	return int(math.Ceil(numerator / denominator)), nil
}
