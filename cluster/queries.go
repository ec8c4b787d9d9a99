package cluster

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
)

// Articles returns the pillar followed by cluster and supporting articles.
func (c *ContentCluster) Articles() []Article {
	all := make([]Article, 0, 1+len(c.ClusterArticles)+len(c.SupportingArticles))
	all = append(all, c.PillarArticle)
	all = append(all, c.ClusterArticles...)
	return append(all, c.SupportingArticles...)
}

func (c *ContentCluster) article(id string) *Article {
	if c.PillarArticle.ID == id {
		return &c.PillarArticle
	}
	for i := range c.ClusterArticles {
		if c.ClusterArticles[i].ID == id {
			return &c.ClusterArticles[i]
		}
	}
	for i := range c.SupportingArticles {
		if c.SupportingArticles[i].ID == id {
			return &c.SupportingArticles[i]
		}
	}
	return nil
}

// CompletionPercentage is the rounded share of completed articles.
func CompletionPercentage(c *ContentCluster) int {
	if c.TotalArticles == 0 {
		return 0
	}
	return int(math.Round(float64(c.CompletedArticles) / float64(c.TotalArticles) * 100))
}

// ArticlesByStatus filters the cluster's articles by status.
func ArticlesByStatus(c *ContentCluster, status Status) []Article {
	out := []Article{}
	for _, a := range c.Articles() {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out
}

// PublishingOrder sorts articles by priority, highest first, then by keyword
// difficulty, easiest first.
func PublishingOrder(c *ContentCluster) []Article {
	all := c.Articles()
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority > all[j].Priority
		}
		return all[i].Keyword.Difficulty < all[j].Keyword.Difficulty
	})
	return all
}

// SetArticleStatus moves one article through the pipeline and recounts the
// completed articles.
func SetArticleStatus(c *ContentCluster, articleID string, status Status, now time.Time) error {
	if !status.valid() {
		return fmt.Errorf("status %q: %w", status, engineerr.ErrInvalidInput)
	}
	a := c.article(articleID)
	if a == nil {
		return fmt.Errorf("article %s in cluster %s: %w", articleID, c.ID, engineerr.ErrNotFound)
	}
	a.Status = status

	completed := 0
	for _, art := range c.Articles() {
		if art.Status.Done() {
			completed++
		}
	}
	c.CompletedArticles = completed
	c.UpdatedAt = now
	return nil
}

// SummaryMetrics are the headline numbers of a cluster.
type SummaryMetrics struct {
	TotalArticles    int `json:"totalArticles"`
	TotalWords       int `json:"totalWords"`
	AvgDifficulty    int `json:"avgDifficulty"`
	EstimatedTraffic int `json:"estimatedTraffic"`
}

// Summary describes a cluster's strategy in prose.
type Summary struct {
	Description string         `json:"description"`
	KeyMetrics  SummaryMetrics `json:"keyMetrics"`
	Timeline    string         `json:"timeline"`
	Strategy    []string       `json:"strategy"`
}

// Summarize builds the strategy overview of a cluster.
func Summarize(c *ContentCluster) Summary {
	all := c.Articles()
	words, difficulty, traffic := 0, 0, 0
	for _, a := range all {
		words += a.WordCount
		difficulty += a.Keyword.Difficulty
		traffic += a.Keyword.SearchVolume
	}

	return Summary{
		Description: fmt.Sprintf("Complete content cluster for %q with %d articles (1 pillar, %d clusters, %d supporting). Expected to rank in %s.",
			c.MainKeyword, c.TotalArticles, len(c.ClusterArticles), len(c.SupportingArticles), c.EstimatedTimeToRank),
		KeyMetrics: SummaryMetrics{
			TotalArticles:    c.TotalArticles,
			TotalWords:       words,
			AvgDifficulty:    int(math.Round(float64(difficulty) / float64(len(all)))),
			EstimatedTraffic: traffic,
		},
		Timeline: c.EstimatedTimeToRank,
		Strategy: []string{
			fmt.Sprintf("Start with the pillar article: %q (%d words)", c.PillarArticle.Keyword.Keyword, c.PillarArticle.WordCount),
			fmt.Sprintf("Publish %d cluster articles covering major subtopics", len(c.ClusterArticles)),
			fmt.Sprintf("Build out %d supporting articles for long-tail keywords", len(c.SupportingArticles)),
			"Implement internal linking structure to create topic authority",
			"Monitor rankings and optimize based on performance",
		},
	}
}
