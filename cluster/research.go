package cluster

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/textmetrics"
)

type metricClass int

const (
	classGeneral metricClass = iota
	classQuestion
	classCommercial
	classHowTo
	classTooling
)

// Volume and difficulty ranges per modifier class: base and span.
var classRanges = map[metricClass]struct {
	volume, volumeSpan, difficulty, difficultySpan uint32
	intent                                         Intent
}{
	classGeneral:    {300, 1000, 20, 50, Informational},
	classQuestion:   {500, 2000, 20, 30, Informational},
	classCommercial: {1000, 3000, 40, 40, Commercial},
	classHowTo:      {800, 2500, 25, 35, Informational},
	classTooling:    {600, 1500, 35, 45, Commercial},
}

type expansion struct {
	format string
	class  metricClass
}

// %[1]s is the seed, %[2]s the current year.
var expansions = []expansion{
	{"what is %[1]s", classQuestion},
	{"how to %[1]s", classHowTo},
	{"why %[1]s", classGeneral},
	{"when to use %[1]s", classGeneral},
	{"%[1]s best practices", classCommercial},
	{"%[1]s guide", classQuestion},
	{"%[1]s tutorial", classQuestion},

	{"%[1]s vs", classCommercial},
	{"%[1]s alternatives", classCommercial},
	{"best %[1]s", classCommercial},
	{"%[1]s comparison", classGeneral},

	{"%[1]s tips", classGeneral},
	{"%[1]s examples", classGeneral},
	{"%[1]s mistakes", classGeneral},
	{"%[1]s issues", classGeneral},
	{"%[1]s solutions", classGeneral},

	{"advanced %[1]s", classGeneral},
	{"%[1]s optimization", classTooling},
	{"%[1]s performance", classGeneral},
	{"%[1]s tools", classTooling},

	{"%[1]s for beginners", classGeneral},
	{"%[1]s for developers", classGeneral},
	{"%[1]s %[2]s", classGeneral},
	{"%[1]s trends", classGeneral},

	{"how to implement %[1]s", classHowTo},
	{"%[1]s step by step", classHowTo},
	{"complete %[1]s guide", classQuestion},
	{"%[1]s checklist", classGeneral},
	{"%[1]s strategies", classGeneral},
}

// ExpansionResearcher expands a seed with common search modifiers. Metrics
// are derived from a hash of each keyword, so the same seed always yields the
// same candidates.
type ExpansionResearcher struct {
	Now func() time.Time
}

// RelatedKeywords returns up to limit expansions of seed, highest volume first.
func (r ExpansionResearcher) RelatedKeywords(ctx context.Context, seed string, limit int) ([]Keyword, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seed = strings.TrimSpace(seed)
	if seed == "" || limit < 0 {
		return nil, fmt.Errorf("seed %q limit %d: %w", seed, limit, engineerr.ErrInvalidInput)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	year := strconv.Itoa(now().Year())

	n := min(limit, len(expansions))
	keywords := make([]Keyword, 0, n)
	for _, e := range expansions[:n] {
		kw := fmt.Sprintf(e.format, seed, year)
		keywords = append(keywords, simulatedMetrics(kw, seed, e.class))
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].SearchVolume > keywords[j].SearchVolume
	})
	return keywords, nil
}

func simulatedMetrics(keyword, parent string, class metricClass) Keyword {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(keyword)))
	sum := h.Sum32()
	rng := classRanges[class]
	return Keyword{
		Keyword:      keyword,
		SearchVolume: int(rng.volume + sum%rng.volumeSpan),
		Difficulty:   int(rng.difficulty + (sum>>16)%rng.difficultySpan),
		Intent:       rng.intent,
		Parent:       parent,
	}
}

// DefaultClusterHeads is how many cluster keywords GreedyAssigner picks
// unless told otherwise.
const DefaultClusterHeads = 7

const headSimilarityLimit = 0.5

// GreedyAssigner picks cluster heads in volume order, skipping candidates
// whose words (minus the seed's own) overlap an existing head too much.
// Everything else becomes supporting content.
type GreedyAssigner struct {
	Clusters int
}

// Assign splits keywords into tiers. The pillar is the candidate equal to
// mainKeyword, or a synthesized keyword carrying the highest candidate volume
// and difficulty.
func (a GreedyAssigner) Assign(keywords []Keyword, mainKeyword string) Hierarchy {
	heads := a.Clusters
	if heads <= 0 {
		heads = DefaultClusterHeads
	}
	mainNorm := strings.Join(textmetrics.Words(mainKeyword), " ")
	seedWords := wordSet(textmetrics.Words(mainKeyword))

	pillar := Keyword{Keyword: mainKeyword, Intent: Informational}
	foundPillar := false
	seen := map[string]struct{}{}
	var candidates []Keyword
	for _, kw := range keywords {
		norm := strings.Join(textmetrics.Words(kw.Keyword), " ")
		if norm == mainNorm {
			if !foundPillar {
				pillar, foundPillar = kw, true
			}
			continue
		}
		if _, dup := seen[norm]; dup || norm == "" {
			continue
		}
		seen[norm] = struct{}{}
		candidates = append(candidates, kw)
	}
	if !foundPillar {
		for _, kw := range candidates {
			pillar.SearchVolume = max(pillar.SearchVolume, kw.SearchVolume)
			pillar.Difficulty = max(pillar.Difficulty, kw.Difficulty)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].SearchVolume != candidates[j].SearchVolume {
			return candidates[i].SearchVolume > candidates[j].SearchVolume
		}
		return candidates[i].Keyword < candidates[j].Keyword
	})

	residual := make([]map[string]struct{}, len(candidates))
	for i, kw := range candidates {
		set := wordSet(textmetrics.Words(kw.Keyword))
		for w := range seedWords {
			delete(set, w)
		}
		residual[i] = set
	}

	chosen := make([]bool, len(candidates))
	var picked []int
	for i := range candidates {
		if len(picked) == heads {
			break
		}
		distinct := true
		for _, p := range picked {
			if jaccardSets(residual[i], residual[p]) >= headSimilarityLimit {
				distinct = false
				break
			}
		}
		if distinct {
			chosen[i] = true
			picked = append(picked, i)
		}
	}
	for i := range candidates {
		if len(picked) == heads {
			break
		}
		if !chosen[i] {
			chosen[i] = true
			picked = append(picked, i)
		}
	}
	sort.Ints(picked)

	h := Hierarchy{Pillar: pillar, Clusters: []Keyword{}, Supporting: []Keyword{}}
	for _, i := range picked {
		h.Clusters = append(h.Clusters, candidates[i])
	}
	for i, kw := range candidates {
		if !chosen[i] {
			h.Supporting = append(h.Supporting, kw)
		}
	}
	return h
}
