// Package cluster plans a pillar / cluster / supporting content hierarchy
// for a seed keyword, with an internal-link graph and a time-to-rank estimate.
package cluster

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/idgen"
	"github.com/seo-optimizer/content-engine/textmetrics"
)

// Intent of a search query.
type Intent string

const (
	Informational Intent = "informational"
	Commercial    Intent = "commercial"
	Transactional Intent = "transactional"
	Navigational  Intent = "navigational"
)

// Keyword is a research candidate.
type Keyword struct {
	Keyword      string `json:"keyword"`
	SearchVolume int    `json:"searchVolume"`
	Difficulty   int    `json:"difficulty"`
	Intent       Intent `json:"intent"`
	Parent       string `json:"parent,omitempty"`
}

// ArticleType is the tier of an article.
type ArticleType string

const (
	Pillar     ArticleType = "pillar"
	Cluster    ArticleType = "cluster"
	Supporting ArticleType = "supporting"
)

// Status of an article in the editorial pipeline.
type Status string

const (
	Planned   Status = "planned"
	Writing   Status = "writing"
	Complete  Status = "complete"
	Published Status = "published"
)

func (s Status) valid() bool {
	switch s {
	case Planned, Writing, Complete, Published:
		return true
	}
	return false
}

// Done reports whether the article counts as completed.
func (s Status) Done() bool { return s == Complete || s == Published }

// Article is one planned piece of content. LinksTo holds the ids of the
// articles it should link to.
type Article struct {
	ID        string      `json:"id"`
	Keyword   Keyword     `json:"keyword"`
	Type      ArticleType `json:"type"`
	WordCount int         `json:"wordCount"`
	Status    Status      `json:"status"`
	LinksTo   []string    `json:"linksTo"`
	Depth     int         `json:"depth"`
	Priority  int         `json:"priority"`
}

// ContentCluster is a full article plan for one main keyword.
type ContentCluster struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	MainKeyword         string    `json:"mainKeyword"`
	PillarArticle       Article   `json:"pillarArticle"`
	ClusterArticles     []Article `json:"clusterArticles"`
	SupportingArticles  []Article `json:"supportingArticles"`
	TotalArticles       int       `json:"totalArticles"`
	CompletedArticles   int       `json:"completedArticles"`
	EstimatedTimeToRank string    `json:"estimatedTimeToRank"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Hierarchy is a tiered split of research candidates.
type Hierarchy struct {
	Pillar     Keyword   `json:"pillar"`
	Clusters   []Keyword `json:"clusters"`
	Supporting []Keyword `json:"supporting"`
}

// KeywordResearcher finds keywords related to a seed.
type KeywordResearcher interface {
	RelatedKeywords(ctx context.Context, seed string, limit int) ([]Keyword, error)
}

// HierarchyAssigner splits candidates into pillar, cluster and supporting tiers.
type HierarchyAssigner interface {
	Assign(keywords []Keyword, mainKeyword string) Hierarchy
}

// Config sizes a cluster.
type Config struct {
	MinClusterSize        int `json:"minClusterSize" yaml:"min_cluster_size"`
	MaxClusterSize        int `json:"maxClusterSize" yaml:"max_cluster_size"`
	MinSupportingArticles int `json:"minSupportingArticles" yaml:"min_supporting_articles"`
	MaxSupportingArticles int `json:"maxSupportingArticles" yaml:"max_supporting_articles"`
	PillarWordCount       int `json:"pillarWordCount" yaml:"pillar_word_count"`
	ClusterWordCount      int `json:"clusterWordCount" yaml:"cluster_word_count"`
	SupportingWordCount   int `json:"supportingWordCount" yaml:"supporting_word_count"`
}

// DefaultConfig returns 5-7 clusters, 10-15 supporting articles and
// 3500/2000/1200 target words.
func DefaultConfig() Config {
	return Config{
		MinClusterSize:        5,
		MaxClusterSize:        7,
		MinSupportingArticles: 10,
		MaxSupportingArticles: 15,
		PillarWordCount:       3500,
		ClusterWordCount:      2000,
		SupportingWordCount:   1200,
	}
}

// Validate rejects sizes that cannot produce a plan.
func (c Config) Validate() error {
	switch {
	case c.MinClusterSize < 1 || c.MaxClusterSize < c.MinClusterSize:
		return fmt.Errorf("cluster size range %d-%d: %w", c.MinClusterSize, c.MaxClusterSize, engineerr.ErrInvalidInput)
	case c.MinSupportingArticles < 0 || c.MaxSupportingArticles < c.MinSupportingArticles:
		return fmt.Errorf("supporting range %d-%d: %w", c.MinSupportingArticles, c.MaxSupportingArticles, engineerr.ErrInvalidInput)
	case c.PillarWordCount <= 0 || c.ClusterWordCount <= 0 || c.SupportingWordCount <= 0:
		return fmt.Errorf("word counts must be positive: %w", engineerr.ErrInvalidInput)
	}
	return nil
}

// Planner builds content clusters.
type Planner struct {
	researcher KeywordResearcher
	assigner   HierarchyAssigner
	cfg        Config
	now        func() time.Time
	newID      idgen.Generator
	logger     *logrus.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock sets the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithIDGenerator sets the generator behind cluster and article ids.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(p *Planner) { p.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// NewPlanner validates cfg and wires the collaborators.
func NewPlanner(researcher KeywordResearcher, assigner HierarchyAssigner, cfg Config, opts ...Option) (*Planner, error) {
	if researcher == nil || assigner == nil {
		return nil, fmt.Errorf("planner needs a researcher and an assigner: %w", engineerr.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{
		researcher: researcher,
		assigner:   assigner,
		cfg:        cfg,
		now:        time.Now,
		newID:      idgen.UUIDv7(),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the planner's configuration.
func (p *Planner) Config() Config { return p.cfg }

// GenerateContentCluster researches mainKeyword and builds the article plan.
// Researcher errors are returned as is.
func (p *Planner) GenerateContentCluster(ctx context.Context, mainKeyword string) (*ContentCluster, error) {
	mainKeyword = strings.Join(strings.Fields(mainKeyword), " ")
	if len(textmetrics.Words(mainKeyword)) == 0 {
		return nil, fmt.Errorf("main keyword %q has no word tokens: %w", mainKeyword, engineerr.ErrInvalidInput)
	}

	related, err := p.researcher.RelatedKeywords(ctx, mainKeyword, p.cfg.MaxClusterSize+p.cfg.MaxSupportingArticles)
	if err != nil {
		return nil, err
	}
	h := p.assigner.Assign(related, mainKeyword)

	clusterKeywords := h.Clusters
	if len(clusterKeywords) > p.cfg.MaxClusterSize {
		clusterKeywords = clusterKeywords[:p.cfg.MaxClusterSize]
	}
	if len(clusterKeywords) < p.cfg.MinClusterSize {
		return nil, fmt.Errorf("%d cluster keywords for %q, need %d: %w",
			len(clusterKeywords), mainKeyword, p.cfg.MinClusterSize, engineerr.ErrInsufficientKeywords)
	}
	supportingKeywords := h.Supporting
	if len(supportingKeywords) > p.cfg.MaxSupportingArticles {
		supportingKeywords = supportingKeywords[:p.cfg.MaxSupportingArticles]
	}
	if len(supportingKeywords) < p.cfg.MinSupportingArticles {
		return nil, fmt.Errorf("%d supporting keywords for %q, need %d: %w",
			len(supportingKeywords), mainKeyword, p.cfg.MinSupportingArticles, engineerr.ErrInsufficientKeywords)
	}

	pillar := p.newArticle(h.Pillar, Pillar, p.cfg.PillarWordCount, 0, 100)
	clusters := make([]Article, len(clusterKeywords))
	for i, kw := range clusterKeywords {
		clusters[i] = p.newArticle(kw, Cluster, p.cfg.ClusterWordCount, 1, 90-5*i)
	}
	supporting := make([]Article, len(supportingKeywords))
	for i, kw := range supportingKeywords {
		supporting[i] = p.newArticle(kw, Supporting, p.cfg.SupportingWordCount, 2, 50-2*i)
	}
	assignInternalLinks(&pillar, clusters, supporting)

	// Difficulty is averaged over the whole hierarchy, including keywords
	// beyond the article caps.
	all := append([]Keyword{h.Pillar}, h.Clusters...)
	all = append(all, h.Supporting...)
	total := 1 + len(clusters) + len(supporting)

	now := p.now()
	c := &ContentCluster{
		ID:                  "cluster-" + slug(mainKeyword) + "-" + p.newID(),
		Name:                mainKeyword + " Content Cluster",
		MainKeyword:         mainKeyword,
		PillarArticle:       pillar,
		ClusterArticles:     clusters,
		SupportingArticles:  supporting,
		TotalArticles:       total,
		EstimatedTimeToRank: CalculateTimeToRank(KeywordMetrics(all).AvgDifficulty, total),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	p.logger.WithFields(logrus.Fields{
		"mainKeyword": mainKeyword,
		"articles":    total,
		"timeToRank":  c.EstimatedTimeToRank,
	}).Info("content cluster planned")
	return c, nil
}

func (p *Planner) newArticle(kw Keyword, t ArticleType, words, depth, priority int) Article {
	return Article{
		ID:        string(t) + "-" + slug(kw.Keyword) + "-" + p.newID(),
		Keyword:   kw,
		Type:      t,
		WordCount: words,
		Status:    Planned,
		LinksTo:   []string{},
		Depth:     depth,
		Priority:  priority,
	}
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// CalculateTimeToRank estimates months to rank from the average keyword
// difficulty, shortened by one month per five articles (never below one).
func CalculateTimeToRank(avgDifficulty, totalArticles int) string {
	var base int
	switch {
	case avgDifficulty < 30:
		base = 2
	case avgDifficulty < 50:
		base = 3
	case avgDifficulty < 70:
		base = 5
	default:
		base = 8
	}
	base = max(1, base-totalArticles/5)

	return fmt.Sprintf("%d-%d months", max(1, base-1), base+2)
}

// Metrics aggregates a keyword list.
type Metrics struct {
	TotalVolume        int `json:"totalVolume"`
	AvgVolume          int `json:"avgVolume"`
	AvgDifficulty      int `json:"avgDifficulty"`
	MinDifficulty      int `json:"minDifficulty"`
	MaxDifficulty      int `json:"maxDifficulty"`
	InformationalCount int `json:"informationalCount"`
	CommercialCount    int `json:"commercialCount"`
	TransactionalCount int `json:"transactionalCount"`
	NavigationalCount  int `json:"navigationalCount"`
}

// KeywordMetrics sums volumes, averages difficulty (rounded) and counts
// intents. An empty list yields zero metrics.
func KeywordMetrics(keywords []Keyword) Metrics {
	var m Metrics
	if len(keywords) == 0 {
		return m
	}
	difficulty := 0
	m.MinDifficulty, m.MaxDifficulty = keywords[0].Difficulty, keywords[0].Difficulty
	for _, kw := range keywords {
		m.TotalVolume += kw.SearchVolume
		difficulty += kw.Difficulty
		m.MinDifficulty = min(m.MinDifficulty, kw.Difficulty)
		m.MaxDifficulty = max(m.MaxDifficulty, kw.Difficulty)
		switch kw.Intent {
		case Informational:
			m.InformationalCount++
		case Commercial:
			m.CommercialCount++
		case Transactional:
			m.TransactionalCount++
		case Navigational:
			m.NavigationalCount++
		}
	}
	n := float64(len(keywords))
	m.AvgVolume = int(math.Round(float64(m.TotalVolume) / n))
	m.AvgDifficulty = int(math.Round(float64(difficulty) / n))
	return m
}
