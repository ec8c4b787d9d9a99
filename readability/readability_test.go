package readability

import (
	"math"
	"testing"

	"github.com/seo-optimizer/content-engine/textmetrics"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestZeroDenominators(t *testing.T) {
	for _, words := range []int{0, 1, 50, 1000} {
		if got := FleschReadingEase(words, 0, 10); got != 0 {
			t.Errorf("FleschReadingEase(%d, 0): expected 0, got %v", words, got)
		}
		if got := FleschKincaidGrade(words, 0, 10); got != 0 {
			t.Errorf("FleschKincaidGrade(%d, 0): expected 0, got %v", words, got)
		}
		if got := AutomatedReadabilityIndex(words, 0, 40); got != 0 {
			t.Errorf("AutomatedReadabilityIndex(%d, 0): expected 0, got %v", words, got)
		}
	}
	for _, sentences := range []int{0, 1, 5} {
		if got := FleschReadingEase(0, sentences, 0); got != 0 {
			t.Errorf("FleschReadingEase(0, %d): expected 0, got %v", sentences, got)
		}
		if got := ColemanLiau(0, sentences, 0); got != 0 {
			t.Errorf("ColemanLiau(0, %d): expected 0, got %v", sentences, got)
		}
	}
	if got := SMOG(0, 12); got != 0 {
		t.Errorf("SMOG with no sentences: expected 0, got %v", got)
	}

	s := Score(textmetrics.Counts{})
	for name, v := range map[string]float64{
		"fre": s.FleschReadingEase, "fk": s.FleschKincaidGrade, "smog": s.SMOG,
		"cl": s.ColemanLiau, "ari": s.AutomatedReadabilityIndex,
	} {
		if v != 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s: expected 0 for empty counts, got %v", name, v)
		}
	}
	if s.Level != "" {
		t.Errorf("Expected empty level, got %q", s.Level)
	}
}

func TestGoldenSentence(t *testing.T) {
	s := ScoreText("The cat sat on the mat.")

	// 6 words, 1 sentence, 6 syllables, 18 characters, 0 polysyllables.
	wantFRE := 206.835 - 1.015*6 - 84.6*1
	if !almostEqual(s.FleschReadingEase, wantFRE) || !almostEqual(s.FleschReadingEase, 116.145) {
		t.Errorf("Expected FRE %v, got %v", wantFRE, s.FleschReadingEase)
	}
	wantFK := 0.39*6 + 11.8*1 - 15.59
	if !almostEqual(s.FleschKincaidGrade, wantFK) {
		t.Errorf("Expected FK %v, got %v", wantFK, s.FleschKincaidGrade)
	}
	if !almostEqual(s.SMOG, 3.1291) {
		t.Errorf("Expected SMOG 3.1291, got %v", s.SMOG)
	}
	wantCL := 0.0588*(18.0/6*100) - 0.296*(1.0/6*100) - 15.8
	if !almostEqual(s.ColemanLiau, wantCL) {
		t.Errorf("Expected CL %v, got %v", wantCL, s.ColemanLiau)
	}
	wantARI := 4.71*3 + 0.5*6 - 21.43
	if !almostEqual(s.AutomatedReadabilityIndex, wantARI) {
		t.Errorf("Expected ARI %v, got %v", wantARI, s.AutomatedReadabilityIndex)
	}
	if s.Level != "very easy" {
		t.Errorf("Expected level very easy, got %q", s.Level)
	}
}

func TestSMOG(t *testing.T) {
	// 30 sentences with 30 polysyllables: 1.043 * sqrt(30) + 3.1291
	want := 1.0430*math.Sqrt(30) + 3.1291
	if got := SMOG(30, 30); !almostEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		fre  float64
		want string
	}{
		{95, "very easy"},
		{85, "easy"},
		{72, "fairly easy"},
		{65, "standard"},
		{55, "fairly difficult"},
		{40, "difficult"},
		{10, "very difficult"},
		{-20, "very difficult"},
	}
	for _, tt := range tests {
		if got := Level(tt.fre, 100); got != tt.want {
			t.Errorf("Level(%v): expected %q, got %q", tt.fre, tt.want, got)
		}
	}
}
