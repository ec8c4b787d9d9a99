package analyzer

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/readability"
	"github.com/seo-optimizer/content-engine/textmetrics"
)

// Baselines used when the caller has no competitor data.
const (
	DefaultCompetitorWordCount = 1500
	DefaultCompetitorHeadings  = 8
)

// Options configures an Extractor. Zero values select the defaults.
type Options struct {
	// CacheTTL bounds how long an extraction is reused. Negative disables the cache.
	CacheTTL     time.Duration
	MaxCacheSize int
	Logger       *logrus.Logger
	Now          func() time.Time
}

// CacheStats provides statistics about the extractor's result cache
type CacheStats struct {
	Entries int           `json:"entries"`
	Hits    int           `json:"hits"`
	Misses  int           `json:"misses"`
	TTL     time.Duration `json:"ttl"`
}

type cacheEntry struct {
	features  ContentFeatureVector
	timestamp time.Time
}

// Extractor turns content into a ContentFeatureVector. Extraction itself is
// pure; identical inputs within the cache TTL share one computation.
type Extractor struct {
	logger *logrus.Logger
	now    func() time.Time

	cacheMutex   sync.Mutex
	cache        map[string]cacheEntry
	cacheTTL     time.Duration
	maxCacheSize int
	hits         int
	misses       int
}

// New creates a new Extractor
func New(opts Options) *Extractor {
	if opts.CacheTTL == 0 {
		opts.CacheTTL = 30 * time.Minute
	}
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = 1000
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Extractor{
		logger:       opts.Logger,
		now:          opts.Now,
		cache:        make(map[string]cacheEntry),
		cacheTTL:     opts.CacheTTL,
		maxCacheSize: opts.MaxCacheSize,
	}
}

// Extract computes the feature vector of in. The returned vector is owned by
// the caller.
func (e *Extractor) Extract(in Input) (*ContentFeatureVector, error) {
	if len(textmetrics.Words(in.Keyword)) == 0 {
		return nil, fmt.Errorf("keyword %q has no word tokens: %w", in.Keyword, engineerr.ErrInvalidInput)
	}

	if e.cacheTTL < 0 {
		return extract(in)
	}

	key, err := cacheKey(in)
	if err != nil {
		return nil, err
	}

	now := e.now()
	e.cacheMutex.Lock()
	if entry, found := e.cache[key]; found && now.Sub(entry.timestamp) < e.cacheTTL {
		e.hits++
		e.cacheMutex.Unlock()
		return entry.features.clone(), nil
	}
	e.misses++
	e.cacheMutex.Unlock()

	features, err := extract(in)
	if err != nil {
		return nil, err
	}

	e.cacheMutex.Lock()
	e.cache[key] = cacheEntry{features: *features.clone(), timestamp: now}
	e.cleanupLocked(now)
	e.cacheMutex.Unlock()

	e.logger.WithFields(logrus.Fields{
		"keyword":   in.Keyword,
		"wordCount": features.WordCount,
	}).Debug("content features extracted")

	return features, nil
}

// CacheStats returns statistics about the cache
func (e *Extractor) CacheStats() CacheStats {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()
	return CacheStats{
		Entries: len(e.cache),
		Hits:    e.hits,
		Misses:  e.misses,
		TTL:     e.cacheTTL,
	}
}

// ClearCache clears the result cache
func (e *Extractor) ClearCache() {
	e.cacheMutex.Lock()
	defer e.cacheMutex.Unlock()
	e.cache = make(map[string]cacheEntry)
}

// cleanupLocked removes expired entries, then the oldest ones until the cache
// fits its size limit. Callers hold cacheMutex.
func (e *Extractor) cleanupLocked(now time.Time) {
	for key, entry := range e.cache {
		if now.Sub(entry.timestamp) >= e.cacheTTL {
			delete(e.cache, key)
		}
	}
	if len(e.cache) <= e.maxCacheSize {
		return
	}

	type aged struct {
		key       string
		timestamp time.Time
	}
	entries := make([]aged, 0, len(e.cache))
	for key, entry := range e.cache {
		entries = append(entries, aged{key, entry.timestamp})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].timestamp.Before(entries[j].timestamp)
	})
	for i := 0; i < len(entries)-e.maxCacheSize; i++ {
		delete(e.cache, entries[i].key)
	}
}

// cacheKey hashes the whole input; encoding/json sorts map keys, so equal
// inputs always hash alike.
func cacheKey(in Input) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	hash := md5.Sum(raw)
	return hex.EncodeToString(hash[:]), nil
}

func (v ContentFeatureVector) clone() *ContentFeatureVector {
	if v.AvgLinkAuthority != nil {
		a := *v.AvgLinkAuthority
		v.AvgLinkAuthority = &a
	}
	if v.TopicCoverage != nil {
		t := *v.TopicCoverage
		v.TopicCoverage = &t
	}
	return &v
}

func extract(in Input) (*ContentFeatureVector, error) {
	doc, err := textmetrics.Parse(in.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}

	text := textmetrics.StripHTML(in.Content)
	words := textmetrics.Words(text)
	sentences := textmetrics.Sentences(text)
	paragraphs := textmetrics.Paragraphs(in.Content)
	counts := textmetrics.Analyze(text)
	scores := readability.Score(counts)
	keyword := normalizePhrase(in.Keyword)

	v := &ContentFeatureVector{
		WordCount:      len(words),
		ParagraphCount: len(paragraphs),
		SentenceCount:  len(sentences),

		FleschReadingEase:         scores.FleschReadingEase,
		FleschKincaidGrade:        scores.FleschKincaidGrade,
		SmogIndex:                 scores.SMOG,
		ColemanLiauIndex:          scores.ColemanLiau,
		AutomatedReadabilityIndex: scores.AutomatedReadabilityIndex,
		ReadabilityLevel:          scores.Level,
	}
	if len(sentences) > 0 {
		v.AvgSentenceLength = float64(len(words)) / float64(len(sentences))
	}
	if len(paragraphs) > 0 {
		v.AvgParagraphLength = float64(len(words)) / float64(len(paragraphs))
	}

	// Keyword
	v.KeywordFrequency = phraseOccurrences(words, textmetrics.Words(in.Keyword))
	if len(words) > 0 {
		v.KeywordDensity = float64(v.KeywordFrequency) / float64(len(words)) * 100
	}
	v.KeywordInTitle = keywordInPageTitle(doc, keyword) ||
		strings.Contains(normalizePhrase(in.Title), keyword)
	if len(paragraphs) > 0 {
		v.KeywordInFirstParagraph = strings.Contains(strings.ToLower(paragraphs[0]), keyword)
		v.KeywordInLastParagraph = strings.Contains(strings.ToLower(paragraphs[len(paragraphs)-1]), keyword)
	}
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(normalizePhrase(s.Text()), keyword) {
			v.KeywordInHeadings++
		}
	})
	v.SemanticKeywordCoverage = semanticCoverage(words, in.Keyword)

	// Structure
	v.H1Count = textmetrics.CountElements(doc, "h1")
	v.H2Count = textmetrics.CountElements(doc, "h2")
	v.H3Count = textmetrics.CountElements(doc, "h3")
	v.H4Count = textmetrics.CountElements(doc, "h4")
	v.H5Count = textmetrics.CountElements(doc, "h5")
	v.H6Count = textmetrics.CountElements(doc, "h6")
	v.TotalHeadingCount = v.H1Count + v.H2Count + v.H3Count + v.H4Count + v.H5Count + v.H6Count
	v.ListCount = textmetrics.CountElements(doc, "ul") + textmetrics.CountElements(doc, "ol")
	v.TableCount = textmetrics.CountElements(doc, "table")
	v.ImageCount = textmetrics.CountElements(doc, "img")

	// Links
	domain := textmetrics.Domain(in.URL)
	links := textmetrics.ExtractLinks(doc)
	linkCounts := textmetrics.CategorizeLinks(links, domain)
	v.InternalLinkCount = linkCounts.Internal
	v.ExternalLinkCount = linkCounts.External
	v.FollowLinkCount = linkCounts.Follow
	v.NofollowLinkCount = linkCounts.Nofollow
	v.AvgLinkAuthority = averageAuthority(links, domain, in.LinkAuthority)

	// Quality
	v.UniqueWordRatio, v.HapaxRatio = wordRatios(words)
	v.LexicalDiversity = v.UniqueWordRatio
	v.ContentDepth = math.Min(100, float64(len(words))/1000*50+float64(v.TotalHeadingCount)*5)
	v.QuestionCount = strings.Count(text, "?")
	v.StatCount = len(statPattern.FindAllStringIndex(text, -1))
	v.QuoteCount = textmetrics.CountElements(doc, "blockquote")
	v.CodeBlockCount = textmetrics.CountElements(doc, "code") + textmetrics.CountElements(doc, "pre")

	// SEO
	lowerContent := strings.ToLower(in.Content)
	v.TitleLength = utf8.RuneCountInString(in.Title)
	v.MetaDescriptionLength = utf8.RuneCountInString(in.MetaDescription)
	v.URLLength = utf8.RuneCountInString(in.URL)
	v.HasSchema = strings.Contains(in.Content, "application/ld+json") || strings.Contains(in.Content, "schema.org")
	v.HasFAQ = strings.Contains(lowerContent, "faq") || strings.Contains(lowerContent, "frequently asked")
	v.HasHowTo = strings.Contains(lowerContent, "how to") || strings.Contains(lowerContent, "step-by-step")

	// Engagement
	v.EstimatedReadTime = int(math.Ceil(float64(len(words)) / 200))
	v.MultimediaCount = v.ImageCount + textmetrics.CountElements(doc, "video") + textmetrics.CountElements(doc, "audio")
	v.InteractiveElementCount = textmetrics.CountElements(doc, "button") + textmetrics.CountElements(doc, "form")
	v.CTACount = len(ctaPattern.FindAllStringIndex(in.Content, -1))

	// NLP
	v.EntityDensity = entityDensity(sentences, len(words))
	v.SentimentScore = sentimentScore(words)
	v.FormalityScore = formalityScore(words)

	// Competitive
	v.CompetitorAvgWordCount = DefaultCompetitorWordCount
	v.CompetitorAvgHeadings = DefaultCompetitorHeadings
	if c := in.Competitor; c != nil {
		if c.AvgWordCount > 0 {
			v.CompetitorAvgWordCount = c.AvgWordCount
		}
		if c.AvgHeadings > 0 {
			v.CompetitorAvgHeadings = c.AvgHeadings
		}
		v.TopicCoverage = topicCoverage(words, c.Topics)
	}
	v.ContentGapScore = math.Max(0, 100-math.Abs(float64(v.WordCount-v.CompetitorAvgWordCount))/50)
	v.DifferentiationScore = v.UniqueWordRatio * 100
	if v.TotalHeadingCount > v.CompetitorAvgHeadings {
		v.DifferentiationScore += 20
	}
	v.DifferentiationScore = math.Min(100, v.DifferentiationScore)

	return v, nil
}

// normalizePhrase lower-cases s and collapses its whitespace.
func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// phraseOccurrences slides a len(phrase) window over words and counts exact matches.
func phraseOccurrences(words, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return 0
	}
	n := 0
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, p := range phrase {
			if words[i+j] != p {
				match = false
				break
			}
		}
		if match {
			n++
		}
	}
	return n
}

// keywordInPageTitle checks the <title> element, or the first <h1> when the
// page has no title.
func keywordInPageTitle(doc *goquery.Document, keyword string) bool {
	if title := doc.Find("title").First(); title.Length() > 0 {
		return strings.Contains(normalizePhrase(title.Text()), keyword)
	}
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		return strings.Contains(normalizePhrase(h1.Text()), keyword)
	}
	return false
}

// semanticCoverage is the share of the keyword's significant tokens that
// appear anywhere in the text.
func semanticCoverage(words []string, keyword string) float64 {
	terms := textmetrics.SignificantWords(keyword)
	if len(terms) == 0 {
		terms = textmetrics.Words(keyword)
	}
	present := make(map[string]struct{}, len(words))
	for _, w := range words {
		present[w] = struct{}{}
	}
	found := 0
	for _, t := range terms {
		if _, ok := present[t]; ok {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}

// wordRatios returns the distinct-word ratio (distinct words / total) and the
// hapax ratio (words used exactly once / total).
func wordRatios(words []string) (unique, hapax float64) {
	if len(words) == 0 {
		return 0, 0
	}
	freq := make(map[string]int, len(words))
	for _, w := range words {
		freq[w]++
	}
	once := 0
	for _, n := range freq {
		if n == 1 {
			once++
		}
	}
	total := float64(len(words))
	return float64(len(freq)) / total, float64(once) / total
}

// entityDensity counts capitalised tokens that do not open a sentence, per word.
func entityDensity(sentences []string, wordCount int) float64 {
	if wordCount == 0 {
		return 0
	}
	entities := 0
	for _, s := range sentences {
		tokens := strings.FieldsFunc(s, func(r rune) bool {
			return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for i, tok := range tokens {
			if i == 0 {
				continue
			}
			if r, _ := utf8.DecodeRuneInString(tok); unicode.IsUpper(r) {
				entities++
			}
		}
	}
	return math.Min(1, float64(entities)/float64(wordCount))
}

// topicCoverage is the share of topics found as whole-word phrases in the
// text; nil when no topic terms were supplied.
func topicCoverage(words, topics []string) *float64 {
	joined := " " + strings.Join(words, " ") + " "
	total, found := 0, 0
	for _, topic := range topics {
		terms := textmetrics.Words(topic)
		if len(terms) == 0 {
			continue
		}
		total++
		if strings.Contains(joined, " "+strings.Join(terms, " ")+" ") {
			found++
		}
	}
	if total == 0 {
		return nil
	}
	coverage := float64(found) / float64(total)
	return &coverage
}

// averageAuthority averages the known authority of each link's domain.
// Relative links resolve to the page's own domain. nil when no link domain
// has a known authority.
func averageAuthority(links []textmetrics.Link, pageDomain string, authority map[string]float64) *float64 {
	if len(authority) == 0 {
		return nil
	}
	sum, n := 0.0, 0
	for _, link := range links {
		d := pageDomain
		if u, err := url.Parse(link.URL); err == nil && u.Host != "" {
			d = textmetrics.Domain(link.URL)
		}
		if score, ok := authority[d]; ok {
			sum += score
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
