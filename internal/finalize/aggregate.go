package finalize

import (
	"math"
	"sort"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/scoring"
)

// DefaultTieTolerance is used when no tolerance is configured.
const DefaultTieTolerance = 1e-9

// Ballot is one judge's contribution to one track.
type Ballot struct {
	JudgeID string
	Total   float64
	Pass    *bool
	Score   *float64
}

// Outcome is the decision for a match. Winner is empty on a tie. Scores holds
// the aggregate each track was compared on.
type Outcome struct {
	Winner string             `json:"winner_match_track_id,omitempty"`
	Tie    bool               `json:"tie"`
	Scores map[string]float64 `json:"scores"`
}

// Decide applies the round strategy to the ballots collected per track.
// Only tracks present in ballots are compared; the engine guarantees every
// track of the match has at least one.
func Decide(strategy models.Strategy, method models.Scoring, ballots map[string][]Ballot, tolerance float64) Outcome {
	if tolerance <= 0 {
		tolerance = DefaultTieTolerance
	}

	if strategy == models.StrategyMajority {
		switch method {
		case models.ScoringPassFail:
			return majorityPass(ballots)
		case models.ScoringPoints:
			return strictMax(sumScores(ballots), tolerance)
		default:
			return majorityFavourite(ballots, tolerance)
		}
	}
	return strictMax(means(ballots), tolerance)
}

func means(ballots map[string][]Ballot) map[string]float64 {
	out := make(map[string]float64, len(ballots))
	for id, bs := range ballots {
		if len(bs) == 0 {
			continue
		}
		var sum float64
		for _, b := range bs {
			sum += b.Total
		}
		out[id] = sum / float64(len(bs))
	}
	return out
}

func sumScores(ballots map[string][]Ballot) map[string]float64 {
	out := make(map[string]float64, len(ballots))
	for id, bs := range ballots {
		if len(bs) == 0 {
			continue
		}
		var sum float64
		for _, b := range bs {
			if b.Score != nil {
				sum += *b.Score
			} else {
				sum += b.Total
			}
		}
		out[id] = sum
	}
	return out
}

// majorityPass needs a single track with the most passes, and those passes
// must be more than half of that track's ballots.
func majorityPass(ballots map[string][]Ballot) Outcome {
	counts := make(map[string]float64, len(ballots))
	for id, bs := range ballots {
		if len(bs) == 0 {
			continue
		}
		var n float64
		for _, b := range bs {
			if b.Pass != nil && *b.Pass {
				n++
			}
		}
		counts[id] = n
	}

	out := strictMax(counts, 0.5)
	if out.Tie {
		return out
	}
	if 2*counts[out.Winner] <= float64(len(ballots[out.Winner])) {
		return Outcome{Tie: true, Scores: counts}
	}
	return out
}

// majorityFavourite gives each judge one vote for the track they scored
// highest; a judge whose top is shared abstains. A track needs votes from
// more than half of the judges.
func majorityFavourite(ballots map[string][]Ballot, tolerance float64) Outcome {
	byJudge := make(map[string]map[string]float64)
	for id, bs := range ballots {
		for _, b := range bs {
			if byJudge[b.JudgeID] == nil {
				byJudge[b.JudgeID] = make(map[string]float64)
			}
			byJudge[b.JudgeID][id] = b.Total
		}
	}

	votes := make(map[string]float64, len(ballots))
	for id, bs := range ballots {
		if len(bs) > 0 {
			votes[id] = 0
		}
	}
	for _, judgeID := range sortedKeys(byJudge) {
		if id, ok := scoring.BestTrack(models.TrackTotals(byJudge[judgeID]), tolerance); ok {
			votes[id]++
		}
	}

	out := strictMax(votes, 0.5)
	if out.Tie || 2*votes[out.Winner] <= float64(len(byJudge)) {
		return Outcome{Tie: true, Scores: votes}
	}
	return out
}

// strictMax picks the highest value; another value within tolerance of it
// makes the result a tie.
func strictMax(values map[string]float64, tolerance float64) Outcome {
	out := Outcome{Scores: values}
	best, top := "", math.Inf(-1)
	for _, id := range sortedKeys(values) {
		if values[id] > top {
			best, top = id, values[id]
		}
	}
	if best == "" {
		out.Tie = true
		return out
	}
	for id, v := range values {
		if id != best && top-v <= tolerance {
			out.Tie = true
			return out
		}
	}
	out.Winner = best
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
