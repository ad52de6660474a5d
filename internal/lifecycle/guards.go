// Package lifecycle holds the round and match state machines and the window
// guards every mutating operation runs through.
package lifecycle

import (
	"time"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

// CheckSubmissionWindow allows track and submission writes only while the
// round is collecting submissions and its deadline, if any, has not passed.
func CheckSubmissionWindow(r *models.Round, now time.Time) error {
	if r.Status != models.RoundSubmission {
		return apperr.Newf(apperr.KindSubmissionWindowClosed, "round is %s", r.Status).
			With("round_id", r.ID).
			With("round_status", r.Status)
	}
	if r.SubmissionDeadlineAt != nil && now.Unix() > *r.SubmissionDeadlineAt {
		return apperr.New(apperr.KindSubmissionDeadlinePassed, "submission deadline has passed").
			With("round_id", r.ID).
			With("submission_deadline_at", *r.SubmissionDeadlineAt)
	}
	return nil
}

// CheckJudgingWindow allows scoring writes only while the round is judging
// and its deadline, if any, has not passed.
func CheckJudgingWindow(r *models.Round, now time.Time) error {
	if r.Status != models.RoundJudging {
		return apperr.Newf(apperr.KindJudgingWindowClosed, "round is %s", r.Status).
			With("round_id", r.ID).
			With("round_status", r.Status)
	}
	if JudgingDeadlinePassed(r, now) {
		return apperr.New(apperr.KindJudgingWindowClosed, "judging deadline has passed").
			With("round_id", r.ID).
			With("judging_deadline_at", *r.JudgingDeadlineAt)
	}
	return nil
}

func JudgingDeadlinePassed(r *models.Round, now time.Time) bool {
	return r.JudgingDeadlineAt != nil && now.Unix() > *r.JudgingDeadlineAt
}

// CheckMatchOpen rejects any mutation of a match that has reached a terminal
// status.
func CheckMatchOpen(m *models.Match) error {
	if m.Status.IsTerminal() {
		return apperr.Newf(apperr.KindMatchTerminal, "match is already %s", m.Status).
			With("match_id", m.ID).
			With("match_status", m.Status)
	}
	return nil
}

var roundNext = map[models.RoundStatus]models.RoundStatus{
	models.RoundDraft:      models.RoundSubmission,
	models.RoundSubmission: models.RoundJudging,
	models.RoundJudging:    models.RoundFinished,
}

// CanAdvanceRound reports whether to is the single forward step after from.
func CanAdvanceRound(from, to models.RoundStatus) bool {
	next, ok := roundNext[from]
	return ok && next == to
}

var matchNext = map[models.MatchStatus]models.MatchStatus{
	models.MatchScheduled:  models.MatchSubmission,
	models.MatchSubmission: models.MatchJudging,
}

// CanAdvanceMatch covers the administrative steps only. finished and tie are
// reached through finalize, cancelled through CancelMatch.
func CanAdvanceMatch(from, to models.MatchStatus) bool {
	next, ok := matchNext[from]
	return ok && next == to
}
