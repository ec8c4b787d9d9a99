package alerts

import (
	"fmt"
	"math"
	"sort"

	"github.com/seo-optimizer/content-engine/engineerr"
	"github.com/seo-optimizer/content-engine/ranking"
)

// PositionTenCTR is the assumed click-through rate of position 10.
const PositionTenCTR = 0.0251

// Priority of an opportunity.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Opportunity is a keyword close enough to page one to be worth a push.
type Opportunity struct {
	Keyword             string   `json:"keyword"`
	CurrentPosition     int      `json:"currentPosition"`
	DistanceFromPageOne int      `json:"distanceFromPageOne"`
	SearchVolume        int      `json:"searchVolume"`
	PotentialTraffic    int      `json:"potentialTraffic"`
	Difficulty          int      `json:"difficulty"`
	Priority            Priority `json:"priority"`
	Reasoning           string   `json:"reasoning"`
	Suggestions         []string `json:"suggestions"`
}

// OpportunityOptions filters candidate keywords. Zero values select the
// defaults: volume >= 100, positions 11 to 20.
type OpportunityOptions struct {
	MinSearchVolume int `json:"minSearchVolume" yaml:"min_search_volume"`
	MinPosition     int `json:"minPosition" yaml:"min_position"`
	MaxPosition     int `json:"maxPosition" yaml:"max_position"`
}

func (o OpportunityOptions) resolve() (OpportunityOptions, error) {
	if o.MinSearchVolume == 0 {
		o.MinSearchVolume = 100
	}
	if o.MinPosition == 0 {
		o.MinPosition = TopPositionThreshold + 1
	}
	if o.MaxPosition == 0 {
		o.MaxPosition = 20
	}
	if o.MinSearchVolume < 0 || o.MinPosition < 1 || o.MaxPosition < o.MinPosition {
		return o, fmt.Errorf("invalid opportunity options %+v: %w", o, engineerr.ErrInvalidInput)
	}
	return o, nil
}

// Validate reports whether the options, with defaults applied, are usable.
func (o OpportunityOptions) Validate() error {
	_, err := o.resolve()
	return err
}

// IdentifyRankingOpportunities keeps the snapshots inside the position range
// with enough search volume and sorts them by potential traffic gain,
// highest first. Equal gains keep their input order.
func IdentifyRankingOpportunities(snapshots []ranking.Snapshot, opts OpportunityOptions) ([]Opportunity, error) {
	opts, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	opportunities := []Opportunity{}
	for _, s := range snapshots {
		if s.Position < opts.MinPosition || s.Position > opts.MaxPosition {
			continue
		}
		if s.SearchVolume < opts.MinSearchVolume {
			continue
		}

		gain := int(math.Round(float64(s.SearchVolume)*PositionTenCTR)) - s.EstimatedTraffic
		opportunities = append(opportunities, Opportunity{
			Keyword:             s.Keyword,
			CurrentPosition:     s.Position,
			DistanceFromPageOne: s.Position - TopPositionThreshold,
			SearchVolume:        s.SearchVolume,
			PotentialTraffic:    gain,
			Difficulty:          EstimateDifficulty(s.Position),
			Priority:            opportunityPriority(s.Position, s.SearchVolume),
			Reasoning: fmt.Sprintf("Currently ranking #%d with %d monthly searches. Moving to page 1 could add %d monthly visits.",
				s.Position, s.SearchVolume, gain),
			Suggestions: suggestionsFor(s.Position),
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].PotentialTraffic > opportunities[j].PotentialTraffic
	})
	return opportunities, nil
}

func opportunityPriority(position, volume int) Priority {
	switch {
	case position <= 15 && volume >= 1000:
		return PriorityHigh
	case position <= 18 && volume >= 500:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func suggestionsFor(position int) []string {
	switch {
	case position >= 11 && position <= 13:
		return []string{
			"Add more comprehensive content (aim for 20-30% more depth)",
			"Update with latest statistics and data",
			"Add FAQ section targeting related queries",
			"Improve internal linking to this page",
		}
	case position >= 14 && position <= 16:
		return []string{
			"Expand content significantly - analyze top 5 competitors",
			"Add multimedia content (videos, infographics)",
			"Build 3-5 high-quality backlinks",
			"Optimize for featured snippet opportunity",
		}
	default:
		return []string{
			"Complete content audit against top 10 competitors",
			"Add unique data, research, or case studies",
			"Improve E-E-A-T signals (author bio, credentials)",
			"Build authority backlinks from relevant sites",
		}
	}
}

// EstimateDifficulty guesses keyword difficulty from the current position.
// Pages already on page two face less competition than average.
func EstimateDifficulty(position int) int {
	switch {
	case position <= 20:
		return 45
	case position <= 30:
		return 55
	case position <= 50:
		return 65
	default:
		return 75
	}
}
