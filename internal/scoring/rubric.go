package scoring

import (
	"math"
	"sort"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

// MaxTotal is the upper bound of every normalized total.
const MaxTotal = 100.0

// ValidateRubric checks one scorecard against the round criteria: every
// criterion present, no unknown keys, each value finite and inside
// [min, max].
func ValidateRubric(criteria []models.RubricCriterion, values map[string]float64) error {
	if len(criteria) == 0 {
		return apperr.New(apperr.KindRubricInvalid, "round has no rubric criteria")
	}

	known := make(map[string]struct{}, len(criteria))
	for _, c := range criteria {
		known[c.Key] = struct{}{}
		v, ok := values[c.Key]
		if !ok {
			return apperr.Newf(apperr.KindRubricInvalid, "missing criterion %q", c.Key).
				With("criterion", c.Key)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperr.Newf(apperr.KindRubricInvalid, "criterion %q is not a number", c.Key).
				With("criterion", c.Key)
		}
		if v < c.MinValue || v > c.MaxValue {
			return apperr.Newf(apperr.KindRubricInvalid, "criterion %q must be within [%g, %g]", c.Key, c.MinValue, c.MaxValue).
				With("criterion", c.Key).
				With("min", c.MinValue).
				With("max", c.MaxValue).
				With("value", v)
		}
	}

	for _, key := range sortedKeys(values) {
		if _, ok := known[key]; !ok {
			return apperr.Newf(apperr.KindRubricInvalid, "unknown criterion %q", key).
				With("criterion", key)
		}
	}
	return nil
}

// RubricTotal validates values and folds them into a 0-100 total. Each value
// is placed on its criterion's scale and the scaled values are averaged by
// weight.
func RubricTotal(criteria []models.RubricCriterion, values map[string]float64) (float64, error) {
	if err := ValidateRubric(criteria, values); err != nil {
		return 0, err
	}

	var weighted, weights float64
	for _, c := range criteria {
		v := clamp(values[c.Key], c.MinValue, c.MaxValue)
		weighted += c.Weight * (v - c.MinValue) / (c.MaxValue - c.MinValue)
		weights += c.Weight
	}
	return MaxTotal * weighted / weights, nil
}

// ScoreMatch turns a head-to-head scorecard set into per-track totals. Every
// track of the match needs exactly one scorecard.
func ScoreMatch(criteria []models.RubricCriterion, trackIDs []string, cards models.Scorecards) (models.TrackTotals, error) {
	if len(trackIDs) == 0 {
		return nil, apperr.New(apperr.KindNoTracks, "match has no tracks to score")
	}

	tracks := make(map[string]struct{}, len(trackIDs))
	for _, id := range trackIDs {
		tracks[id] = struct{}{}
	}
	for _, id := range sortedKeys(cards) {
		if _, ok := tracks[id]; !ok {
			return nil, apperr.Newf(apperr.KindRubricInvalid, "scorecard for unknown track %q", id).
				With("match_track_id", id)
		}
	}

	totals := make(models.TrackTotals, len(trackIDs))
	for _, id := range trackIDs {
		values, ok := cards[id]
		if !ok {
			return nil, apperr.Newf(apperr.KindRubricInvalid, "missing scorecard for track %q", id).
				With("match_track_id", id)
		}
		total, err := RubricTotal(criteria, values)
		if err != nil {
			if e, ok := err.(*apperr.Error); ok {
				e.With("match_track_id", id)
			}
			return nil, err
		}
		totals[id] = total
	}
	return totals, nil
}

// SubmissionTotal scores a single submission: pass is 100, fail is 0 and
// points are taken as given.
func SubmissionTotal(scoring models.Scoring, pass *bool, score *float64) (float64, error) {
	switch scoring {
	case models.ScoringPassFail:
		if pass == nil {
			return 0, apperr.New(apperr.KindInvalidInput, "pass is required for pass_fail rounds")
		}
		if *pass {
			return MaxTotal, nil
		}
		return 0, nil
	case models.ScoringPoints:
		if score == nil {
			return 0, apperr.New(apperr.KindInvalidInput, "score is required for points rounds")
		}
		if math.IsNaN(*score) || math.IsInf(*score, 0) || *score < 0 {
			return 0, apperr.New(apperr.KindInvalidInput, "score must be a non-negative number")
		}
		return *score, nil
	default:
		return 0, apperr.Newf(apperr.KindInvalidInput, "round scoring %q does not take submission scores", scoring)
	}
}

// BestTrack returns the track with the highest total, or false when the top
// is shared within tolerance.
func BestTrack(totals models.TrackTotals, tolerance float64) (string, bool) {
	best, top := "", math.Inf(-1)
	for _, id := range sortedKeys(totals) {
		if totals[id] > top {
			best, top = id, totals[id]
		}
	}
	if best == "" {
		return "", false
	}
	for id, v := range totals {
		if id != best && top-v <= tolerance {
			return "", false
		}
	}
	return best, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
