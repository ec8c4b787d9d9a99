package cluster

import (
	"github.com/seo-optimizer/content-engine/textmetrics"
)

const (
	clusterSupportingLinks    = 5
	supportingSupportingLinks = 2
	minSharedWords            = 2
	minSharedFraction         = 0.5
)

// assignInternalLinks wires the pillar to every cluster, each cluster back to
// the pillar and to related supporting articles, and each supporting article
// to its closest cluster, the pillar and a couple of related siblings.
func assignInternalLinks(pillar *Article, clusters, supporting []Article) {
	for _, c := range clusters {
		pillar.LinksTo = append(pillar.LinksTo, c.ID)
	}

	for i := range clusters {
		c := &clusters[i]
		c.LinksTo = append(c.LinksTo, pillar.ID)
		n := 0
		for _, s := range supporting {
			if n == clusterSupportingLinks {
				break
			}
			if isKeywordRelated(c.Keyword.Keyword, s.Keyword.Keyword) {
				c.LinksTo = append(c.LinksTo, s.ID)
				n++
			}
		}
	}

	for i := range supporting {
		s := &supporting[i]
		if c := mostRelatedCluster(s.Keyword.Keyword, clusters); c != nil {
			s.LinksTo = append(s.LinksTo, c.ID)
		}
		s.LinksTo = append(s.LinksTo, pillar.ID)
		n := 0
		for j, other := range supporting {
			if n == supportingSupportingLinks {
				break
			}
			if j != i && isKeywordRelated(s.Keyword.Keyword, other.Keyword.Keyword) {
				s.LinksTo = append(s.LinksTo, other.ID)
				n++
			}
		}
	}
}

// mostRelatedCluster returns the cluster with the highest word similarity to
// keyword; the first one wins ties. Nil when there are no clusters.
func mostRelatedCluster(keyword string, clusters []Article) *Article {
	var best *Article
	bestScore := -1.0
	for i := range clusters {
		if score := jaccard(keyword, clusters[i].Keyword.Keyword); score > bestScore {
			best, bestScore = &clusters[i], score
		}
	}
	return best
}

// isKeywordRelated reports whether two keywords share at least two
// significant words, or at least half of the shorter keyword's significant
// words. Keywords with no significant words are never related.
func isKeywordRelated(a, b string) bool {
	wa, wb := wordSet(textmetrics.SignificantWords(a)), wordSet(textmetrics.SignificantWords(b))
	shorter := min(len(wa), len(wb))
	if shorter == 0 {
		return false
	}
	shared := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			shared++
		}
	}
	return shared >= minSharedWords || float64(shared)/float64(shorter) >= minSharedFraction
}

// jaccard is the word-set similarity of two phrases.
func jaccard(a, b string) float64 {
	return jaccardSets(wordSet(textmetrics.Words(a)), wordSet(textmetrics.Words(b)))
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
