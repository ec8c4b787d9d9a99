// Package readability implements the standardized readability formulas.
//
// Every formula returns 0 when one of its denominators is 0, so callers never
// see NaN or an infinity.
package readability

import (
	"math"

	"github.com/seo-optimizer/content-engine/textmetrics"
)

// Scores holds the five readability scores of one text.
type Scores struct {
	FleschReadingEase         float64 `json:"fleschReadingEase"`
	FleschKincaidGrade        float64 `json:"fleschKincaidGrade"`
	SMOG                      float64 `json:"smogIndex"`
	ColemanLiau               float64 `json:"colemanLiauIndex"`
	AutomatedReadabilityIndex float64 `json:"automatedReadabilityIndex"`
	Level                     string  `json:"level"`
}

// FleschReadingEase scores 0-100ish; higher is easier.
func FleschReadingEase(words, sentences, syllables int) float64 {
	if words == 0 || sentences == 0 {
		return 0
	}
	wps := float64(words) / float64(sentences)
	spw := float64(syllables) / float64(words)
	return 206.835 - 1.015*wps - 84.6*spw
}

// FleschKincaidGrade returns the US school grade needed to follow the text.
func FleschKincaidGrade(words, sentences, syllables int) float64 {
	if words == 0 || sentences == 0 {
		return 0
	}
	wps := float64(words) / float64(sentences)
	spw := float64(syllables) / float64(words)
	return 0.39*wps + 11.8*spw - 15.59
}

// SMOG estimates years of education from the polysyllable density.
func SMOG(sentences, polysyllables int) float64 {
	if sentences == 0 {
		return 0
	}
	return 1.0430*math.Sqrt(float64(polysyllables)*(30/float64(sentences))) + 3.1291
}

// ColemanLiau uses letters per 100 words (L) and sentences per 100 words (S).
func ColemanLiau(words, sentences, characters int) float64 {
	if words == 0 {
		return 0
	}
	l := float64(characters) / float64(words) * 100
	s := float64(sentences) / float64(words) * 100
	return 0.0588*l - 0.296*s - 15.8
}

// AutomatedReadabilityIndex uses characters per word and words per sentence.
func AutomatedReadabilityIndex(words, sentences, characters int) float64 {
	if words == 0 || sentences == 0 {
		return 0
	}
	return 4.71*(float64(characters)/float64(words)) + 0.5*(float64(words)/float64(sentences)) - 21.43
}

// Score computes all five formulas from precomputed totals.
func Score(c textmetrics.Counts) Scores {
	fre := FleschReadingEase(c.Words, c.Sentences, c.Syllables)
	return Scores{
		FleschReadingEase:         fre,
		FleschKincaidGrade:        FleschKincaidGrade(c.Words, c.Sentences, c.Syllables),
		SMOG:                      SMOG(c.Sentences, c.Polysyllables),
		ColemanLiau:               ColemanLiau(c.Words, c.Sentences, c.Characters),
		AutomatedReadabilityIndex: AutomatedReadabilityIndex(c.Words, c.Sentences, c.Characters),
		Level:                     Level(fre, c.Words),
	}
}

// ScoreText computes all five formulas for plain text. Strip HTML first.
func ScoreText(text string) Scores {
	return Score(textmetrics.Analyze(text))
}

// Level maps a Flesch Reading Ease score to its conventional band.
// Text without words has no level.
func Level(fre float64, words int) string {
	if words == 0 {
		return ""
	}
	switch {
	case fre >= 90:
		return "very easy"
	case fre >= 80:
		return "easy"
	case fre >= 70:
		return "fairly easy"
	case fre >= 60:
		return "standard"
	case fre >= 50:
		return "fairly difficult"
	case fre >= 30:
		return "difficult"
	default:
		return "very difficult"
	}
}
