package analyzer

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
)

func newTestExtractor() *Extractor {
	return New(Options{CacheTTL: -1})
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestKeywordDensity(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name          string
		content       string
		keyword       string
		wantFrequency int
		wantDensity   float64
	}{
		{"phrase twice in ten words", "<p>Go testing is fun. I like go testing a lot.</p>", "Go Testing", 2, 20},
		{"no partial word matches", "<p>Gophers keep going.</p>", "go", 0, 0},
		{"single word", "<p>cache the cache</p>", "cache", 2, 200.0 / 3},
		{"empty content", "", "cache", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.Extract(Input{Content: tt.content, Keyword: tt.keyword})
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if v.KeywordFrequency != tt.wantFrequency {
				t.Errorf("Expected frequency %d, got %d", tt.wantFrequency, v.KeywordFrequency)
			}
			if !almostEqual(v.KeywordDensity, tt.wantDensity) {
				t.Errorf("Expected density %f, got %f", tt.wantDensity, v.KeywordDensity)
			}
		})
	}
}

func TestKeywordInTitle(t *testing.T) {
	e := newTestExtractor()

	tests := []struct {
		name    string
		content string
		title   string
		want    bool
	}{
		{"title element", "<title>Best Go Tools</title><h1>Unrelated</h1>", "", true},
		{"first h1 without title", "<h1>Guide to Go  Tools</h1><h1>Other</h1>", "", true},
		{"title element wins over h1", "<title>Other</title><h1>Go tools</h1>", "", false},
		{"supplied title", "<p>body</p>", "Go Tools Guide", true},
		{"nowhere", "<p>body</p>", "Something else", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := e.Extract(Input{Content: tt.content, Keyword: "go tools", Title: tt.title})
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if v.KeywordInTitle != tt.want {
				t.Errorf("Expected KeywordInTitle %v, got %v", tt.want, v.KeywordInTitle)
			}
		})
	}
}

func TestStructureAndPositions(t *testing.T) {
	content := `<h1>Go tools</h1>
<p>Go tools matter for every team.</p>
<h2>More go tools</h2>
<ul><li>one</li></ul><ol><li>two</li></ol>
<h3>Other</h3>
<table><tr><td>x</td></tr></table>
<img src="a.png"><video src="b.mp4"></video>
<h6>go TOOLS</h6>
<blockquote>quoted</blockquote><pre><code>x := 1</code></pre>
<button>Subscribe</button>
<p>End with go tools.</p>`

	v, err := newTestExtractor().Extract(Input{Content: content, Keyword: "go tools"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	checks := map[string][2]int{
		"H1Count":                 {1, v.H1Count},
		"H2Count":                 {1, v.H2Count},
		"H3Count":                 {1, v.H3Count},
		"H6Count":                 {1, v.H6Count},
		"TotalHeadingCount":       {4, v.TotalHeadingCount},
		"KeywordInHeadings":       {3, v.KeywordInHeadings},
		"ListCount":               {2, v.ListCount},
		"TableCount":              {1, v.TableCount},
		"ImageCount":              {1, v.ImageCount},
		"MultimediaCount":         {2, v.MultimediaCount},
		"QuoteCount":              {1, v.QuoteCount},
		"CodeBlockCount":          {2, v.CodeBlockCount},
		"InteractiveElementCount": {1, v.InteractiveElementCount},
		"CTACount":                {1, v.CTACount},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("Expected %s %d, got %d", name, c[0], c[1])
		}
	}

	if !v.KeywordInFirstParagraph {
		t.Error("Expected keyword in first paragraph")
	}
	if !v.KeywordInLastParagraph {
		t.Error("Expected keyword in last paragraph")
	}
}

func TestInvalidKeyword(t *testing.T) {
	e := newTestExtractor()
	for _, kw := range []string{"", "   ", "!!!"} {
		_, err := e.Extract(Input{Content: "<p>text</p>", Keyword: kw})
		if !errors.Is(err, engineerr.ErrInvalidInput) {
			t.Errorf("Expected ErrInvalidInput for %q, got %v", kw, err)
		}
	}
}

func TestUncomputedFieldsAreNil(t *testing.T) {
	v, err := newTestExtractor().Extract(Input{Content: "<p>plain text</p>", Keyword: "text"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if v.AvgLinkAuthority != nil {
		t.Errorf("Expected nil AvgLinkAuthority, got %v", *v.AvgLinkAuthority)
	}
	if v.TopicCoverage != nil {
		t.Errorf("Expected nil TopicCoverage, got %v", *v.TopicCoverage)
	}
	if v.CompetitorAvgWordCount != DefaultCompetitorWordCount || v.CompetitorAvgHeadings != DefaultCompetitorHeadings {
		t.Errorf("Expected default competitor baseline, got %d/%d", v.CompetitorAvgWordCount, v.CompetitorAvgHeadings)
	}
}

func TestLinkAuthorityAndTopics(t *testing.T) {
	in := Input{
		Content: `<p>We cover go tools and profiling.</p>
<a href="/about">about</a>
<a href="https://other.com/x" rel="nofollow">other</a>
<a href="https://unknown.org">unknown</a>`,
		Keyword: "go tools",
		URL:     "https://www.example.com/post",
		LinkAuthority: map[string]float64{
			"example.com": 40,
			"other.com":   80,
		},
		Competitor: &CompetitorBaseline{Topics: []string{"go tools", "benchmarks", "", "Profiling"}},
	}

	v, err := newTestExtractor().Extract(in)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if v.InternalLinkCount != 1 || v.ExternalLinkCount != 2 {
		t.Errorf("Expected 1 internal / 2 external, got %d/%d", v.InternalLinkCount, v.ExternalLinkCount)
	}
	if v.NofollowLinkCount != 1 || v.FollowLinkCount != 2 {
		t.Errorf("Expected 2 follow / 1 nofollow, got %d/%d", v.FollowLinkCount, v.NofollowLinkCount)
	}
	if v.AvgLinkAuthority == nil || !almostEqual(*v.AvgLinkAuthority, 60) {
		t.Errorf("Expected AvgLinkAuthority 60, got %v", v.AvgLinkAuthority)
	}
	if v.TopicCoverage == nil || !almostEqual(*v.TopicCoverage, 2.0/3) {
		t.Errorf("Expected TopicCoverage 2/3, got %v", v.TopicCoverage)
	}
}

func TestQualityAndLanguageHeuristics(t *testing.T) {
	e := newTestExtractor()

	t.Run("word ratios", func(t *testing.T) {
		v, _ := e.Extract(Input{Content: "a a b c", Keyword: "b"})
		if !almostEqual(v.UniqueWordRatio, 0.75) {
			t.Errorf("Expected UniqueWordRatio 0.75, got %f", v.UniqueWordRatio)
		}
		if !almostEqual(v.LexicalDiversity, 0.75) {
			t.Errorf("Expected LexicalDiversity 0.75, got %f", v.LexicalDiversity)
		}
		if !almostEqual(v.HapaxRatio, 0.5) {
			t.Errorf("Expected HapaxRatio 0.5, got %f", v.HapaxRatio)
		}
	})

	t.Run("repeated word keeps distinct ratio", func(t *testing.T) {
		v, _ := e.Extract(Input{Content: "cat cat dog", Keyword: "cat"})
		if !almostEqual(v.UniqueWordRatio, 2.0/3) {
			t.Errorf("Expected UniqueWordRatio 2/3, got %f", v.UniqueWordRatio)
		}
		if !almostEqual(v.HapaxRatio, 1.0/3) {
			t.Errorf("Expected HapaxRatio 1/3, got %f", v.HapaxRatio)
		}
		// no headings, so no bonus over the default competitor baseline
		if !almostEqual(v.DifferentiationScore, 200.0/3) {
			t.Errorf("Expected DifferentiationScore 66.67, got %f", v.DifferentiationScore)
		}
	})

	t.Run("entity density", func(t *testing.T) {
		v, _ := e.Extract(Input{Content: "We met Alice in Paris. Then Bob left.", Keyword: "alice"})
		if !almostEqual(v.EntityDensity, 3.0/8) {
			t.Errorf("Expected EntityDensity 0.375, got %f", v.EntityDensity)
		}
	})

	t.Run("formality", func(t *testing.T) {
		v, _ := e.Extract(Input{Content: "therefore we gonna thus", Keyword: "we"})
		if !almostEqual(v.FormalityScore, 2.0/3) {
			t.Errorf("Expected FormalityScore 2/3, got %f", v.FormalityScore)
		}
		neutral, _ := e.Extract(Input{Content: "plain words only", Keyword: "plain"})
		if neutral.FormalityScore != 0.5 {
			t.Errorf("Expected neutral FormalityScore 0.5, got %f", neutral.FormalityScore)
		}
	})

	t.Run("sentiment is clamped", func(t *testing.T) {
		v, _ := e.Extract(Input{Content: "great product, bad support, great price", Keyword: "product"})
		if v.SentimentScore != 1 {
			t.Errorf("Expected SentimentScore 1, got %f", v.SentimentScore)
		}
	})

	t.Run("questions and stats", func(t *testing.T) {
		v, _ := e.Extract(Input{Content: "Why? Sales grew 45% to 1,200 units at 3.5 each. Really?", Keyword: "sales"})
		if v.QuestionCount != 2 {
			t.Errorf("Expected QuestionCount 2, got %d", v.QuestionCount)
		}
		if v.StatCount != 3 {
			t.Errorf("Expected StatCount 3, got %d", v.StatCount)
		}
	})
}

func TestEmptyContentIsDegenerateNotNaN(t *testing.T) {
	v, err := newTestExtractor().Extract(Input{Content: "", Keyword: "anything"})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if v.WordCount != 0 || v.EstimatedReadTime != 0 || v.FleschReadingEase != 0 {
		t.Errorf("Expected zero metrics, got words=%d read=%d fre=%f", v.WordCount, v.EstimatedReadTime, v.FleschReadingEase)
	}
	if v.ContentGapScore != 70 {
		t.Errorf("Expected ContentGapScore 70, got %f", v.ContentGapScore)
	}
	if v.SemanticKeywordCoverage != 0 {
		t.Errorf("Expected SemanticKeywordCoverage 0, got %f", v.SemanticKeywordCoverage)
	}
}

func TestCompetitiveScores(t *testing.T) {
	in := Input{
		Content:    "<h1>one</h1><h2>two</h2><p>alpha beta gamma delta</p>",
		Keyword:    "alpha",
		Competitor: &CompetitorBaseline{AvgWordCount: 56, AvgHeadings: 1},
	}
	v, err := newTestExtractor().Extract(in)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	// 6 words, |6-56|/50 = 1
	if !almostEqual(v.ContentGapScore, 99) {
		t.Errorf("Expected ContentGapScore 99, got %f", v.ContentGapScore)
	}
	// every word unique plus the heading bonus
	if !almostEqual(v.DifferentiationScore, 100) {
		t.Errorf("Expected DifferentiationScore 100, got %f", v.DifferentiationScore)
	}
}

func TestExtractIsDeterministicAndCached(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := New(Options{CacheTTL: time.Minute, Now: func() time.Time { return now }})
	in := Input{
		Content:       `<p>Stable content about caching.</p><a href="https://a.com">a</a>`,
		Keyword:       "caching",
		LinkAuthority: map[string]float64{"a.com": 10},
	}

	first, err := e.Extract(in)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	*first.AvgLinkAuthority = 999
	first.WordCount = -1

	second, err := e.Extract(in)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	fresh, _ := newTestExtractor().Extract(in)
	if !reflect.DeepEqual(second, fresh) {
		t.Errorf("Expected cached result to equal a fresh extraction")
	}

	stats := e.CacheStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("Expected 1 hit, 1 miss, 1 entry, got %+v", stats)
	}

	now = now.Add(2 * time.Minute)
	if _, err := e.Extract(in); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := e.CacheStats().Misses; got != 2 {
		t.Errorf("Expected expired entry to miss, got %d misses", got)
	}
}
