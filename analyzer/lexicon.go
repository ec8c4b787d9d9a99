package analyzer

import "regexp"

// Small fixed word lists behind the sentiment and formality heuristics.
var (
	positiveWords = wordSet(
		"good", "great", "excellent", "amazing", "best", "wonderful", "fantastic",
		"outstanding", "superior", "beneficial", "advantage", "success", "effective",
		"efficient", "powerful", "innovative", "revolutionary", "perfect", "ideal",
	)
	negativeWords = wordSet(
		"bad", "poor", "terrible", "awful", "worst", "horrible", "disappointing",
		"inferior", "disadvantage", "failure", "ineffective", "inefficient", "weak",
		"problematic", "flawed", "broken", "buggy", "outdated",
	)
	informalWords = wordSet(
		"gonna", "wanna", "kinda", "yeah", "yep", "nope", "cool", "awesome",
		"stuff", "things", "lots", "pretty", "really", "very", "super",
	)
	formalWords = wordSet(
		"therefore", "furthermore", "consequently", "nevertheless", "moreover",
		"accordingly", "thus", "hence", "subsequently", "specifically", "particularly",
	)
)

var (
	statPattern = regexp.MustCompile(`\d+%|\d+,\d+|\d+\.\d+`)
	ctaPattern  = regexp.MustCompile(`(?i)download|subscribe|sign up|get started|learn more|buy now|try free`)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// sentimentScore is net positive hits per word scaled by 10, clamped to [-1,1].
func sentimentScore(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	net := 0
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			net++
		}
		if _, ok := negativeWords[w]; ok {
			net--
		}
	}
	return clamp(float64(net)/float64(len(words))*10, -1, 1)
}

// formalityScore is the formal share of all register markers; 0.5 when none appear.
func formalityScore(words []string) float64 {
	formal, informal := 0, 0
	for _, w := range words {
		if _, ok := formalWords[w]; ok {
			formal++
		}
		if _, ok := informalWords[w]; ok {
			informal++
		}
	}
	if formal+informal == 0 {
		return 0.5
	}
	return float64(formal) / float64(formal+informal)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
