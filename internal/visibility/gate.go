// Package visibility withholds match outcomes from readers until the round's
// judging window has closed.
package visibility

import (
	"time"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

// ResultsVisible is evaluated on every read; nothing about it is stored.
func ResultsVisible(r *models.Round, now time.Time) bool {
	if r.Status == models.RoundFinished {
		return true
	}
	return r.JudgingDeadlineAt != nil && now.Unix() > *r.JudgingDeadlineAt
}

type TrackView struct {
	models.MatchTrack
	AvgScore   *float64 `json:"avg_score"`
	JudgeCount *int     `json:"judge_count"`
}

type MatchView struct {
	models.Match
	Participants   []models.MatchParticipant `json:"participants"`
	Tracks         []TrackView               `json:"tracks"`
	ResultsVisible bool                      `json:"results_visible"`
}

// Apply nulls every field that would give the outcome away: the winner, the
// aggregated scores and elimination marks. A decided match reads as still
// judging, since finished versus tie would tell whether anyone won.
func Apply(v *MatchView, r *models.Round, now time.Time) {
	v.ResultsVisible = ResultsVisible(r, now)
	if v.ResultsVisible {
		return
	}
	if v.Status == models.MatchFinished || v.Status == models.MatchTie {
		v.Status = models.MatchJudging
	}
	v.WinnerMatchTrackID = nil
	for i := range v.Tracks {
		v.Tracks[i].AvgScore = nil
		v.Tracks[i].JudgeCount = nil
	}
	for i := range v.Participants {
		v.Participants[i].ResultStatus = nil
	}
}
