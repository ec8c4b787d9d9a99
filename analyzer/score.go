package analyzer

import (
	"fmt"
	"math"
)

var featureImportance = map[string]float64{
	// High importance
	"wordCount":         0.95,
	"keywordDensity":    0.90,
	"fleschReadingEase": 0.88,
	"contentDepth":      0.92,
	"totalHeadingCount": 0.87,
	"externalLinkCount": 0.89,
	"keywordInTitle":    0.94,

	// Medium importance
	"avgSentenceLength":     0.72,
	"lexicalDiversity":      0.68,
	"internalLinkCount":     0.75,
	"imageCount":            0.65,
	"metaDescriptionLength": 0.70,
	"uniqueWordRatio":       0.66,
	"topicCoverage":         0.78,

	// Lower importance
	"paragraphCount":  0.45,
	"listCount":       0.42,
	"tableCount":      0.38,
	"questionCount":   0.44,
	"statCount":       0.46,
	"multimediaCount": 0.40,

	// Supporting
	"quoteCount":     0.25,
	"codeBlockCount": 0.22,
	"ctaCount":       0.28,
	"formalityScore": 0.24,
	"sentimentScore": 0.20,
}

// FeatureImportance returns the hand-tuned weight of each feature for
// ranking prediction. The map is a copy and safe to modify.
func FeatureImportance() map[string]float64 {
	out := make(map[string]float64, len(featureImportance))
	for k, w := range featureImportance {
		out[k] = w
	}
	return out
}

// Normalize rescales selected features to 0-100.
func Normalize(v *ContentFeatureVector) NormalizedScores {
	seoBasics := 0.0
	if v.KeywordInTitle {
		seoBasics += 25
	}
	if v.TitleLength >= 50 && v.TitleLength <= 60 {
		seoBasics += 25
	}
	if v.MetaDescriptionLength >= 140 && v.MetaDescriptionLength <= 160 {
		seoBasics += 25
	}
	if v.HasSchema {
		seoBasics += 25
	}

	return NormalizedScores{
		WordCount:           math.Min(100, float64(v.WordCount)/3000*100),
		Readability:         clamp(v.FleschReadingEase, 0, 100),
		KeywordOptimization: math.Min(100, v.KeywordDensity*50),
		Structure:           math.Min(100, float64(v.TotalHeadingCount)/15*100),
		Links:               math.Min(100, float64(v.InternalLinkCount+v.ExternalLinkCount)/10*100),
		Engagement:          math.Min(100, float64(v.MultimediaCount)/5*100),
		SEOBasics:           seoBasics,
	}
}

// OverallScore blends the normalized scores into a single 0-100 value.
func OverallScore(n NormalizedScores) float64 {
	weights := map[string]float64{
		"wordCount":           0.20,
		"readability":         0.15,
		"keywordOptimization": 0.20,
		"structure":           0.15,
		"links":               0.10,
		"engagement":          0.05,
		"seoBasics":           0.15,
	}

	score := 0.0
	score += n.WordCount * weights["wordCount"]
	score += n.Readability * weights["readability"]
	score += n.KeywordOptimization * weights["keywordOptimization"]
	score += n.Structure * weights["structure"]
	score += n.Links * weights["links"]
	score += n.Engagement * weights["engagement"]
	score += n.SEOBasics * weights["seoBasics"]

	return score
}

// Recommendations lists concrete fixes for the weak spots of v.
func Recommendations(v *ContentFeatureVector) []string {
	var recommendations []string

	// Title
	if v.TitleLength == 0 {
		recommendations = append(recommendations, "Add a title to your content")
	} else if v.TitleLength < 50 {
		recommendations = append(recommendations, "Title is too short (should be 50-60 characters)")
	} else if v.TitleLength > 60 {
		recommendations = append(recommendations, "Title is too long (should be 50-60 characters)")
	}
	if !v.KeywordInTitle {
		recommendations = append(recommendations, "Include the target keyword in the title")
	}

	// Meta
	if v.MetaDescriptionLength == 0 {
		recommendations = append(recommendations, "Add a meta description")
	} else if v.MetaDescriptionLength < 140 {
		recommendations = append(recommendations, "Meta description is too short (should be 140-160 characters)")
	} else if v.MetaDescriptionLength > 160 {
		recommendations = append(recommendations, "Meta description is too long (should be 140-160 characters)")
	}

	// Content
	if v.WordCount < v.CompetitorAvgWordCount {
		recommendations = append(recommendations,
			fmt.Sprintf("Add more content: %d words against a competitor average of %d", v.WordCount, v.CompetitorAvgWordCount))
	}
	if !v.KeywordInFirstParagraph {
		recommendations = append(recommendations, "Mention the target keyword in the first paragraph")
	}
	switch {
	case v.KeywordDensity < 0.5:
		recommendations = append(recommendations, "Keyword density is low (aim for 0.5-2.5%)")
	case v.KeywordDensity > 2.5:
		recommendations = append(recommendations, "Keyword density is high and may read as stuffing (aim for 0.5-2.5%)")
	}

	// Structure
	if v.H1Count == 0 {
		recommendations = append(recommendations, "Add an H1 heading")
	} else if v.H1Count > 1 {
		recommendations = append(recommendations, "Multiple H1 headings found - consider using only one")
	}
	if v.TotalHeadingCount < v.CompetitorAvgHeadings {
		recommendations = append(recommendations, "Break the content up with more subheadings")
	}

	// Readability
	if v.WordCount > 0 && v.FleschReadingEase < 50 {
		recommendations = append(recommendations, "Content is hard to read - shorten sentences and prefer simpler words")
	}

	// Links
	if v.InternalLinkCount < 3 {
		recommendations = append(recommendations, "Add more internal links (aim for at least 3-5)")
	}
	if v.ExternalLinkCount == 0 {
		recommendations = append(recommendations, "Add relevant external links to authoritative sources")
	}

	// Engagement
	if v.MultimediaCount == 0 {
		recommendations = append(recommendations, "Add images or video to support the text")
	}

	return recommendations
}

// Analyze extracts the features of in and scores them.
func (e *Extractor) Analyze(in Input) (*ContentAnalysis, error) {
	features, err := e.Extract(in)
	if err != nil {
		return nil, err
	}
	normalized := Normalize(features)
	return &ContentAnalysis{
		Features:        features,
		Normalized:      normalized,
		Score:           OverallScore(normalized),
		Recommendations: Recommendations(features),
	}, nil
}
