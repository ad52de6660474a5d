// Package assignment hands judges the matches they should score next.
package assignment

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/lifecycle"
	"github.com/art0tod/battle-rap-v2-sub000/internal/metrics"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
)

type Result struct {
	Assignment models.JudgeAssignment `json:"assignment"`
	Match      models.Match           `json:"match"`
	Resumed    bool                   `json:"resumed"`
}

type Scheduler struct {
	store store.JudgingStore
	now   func() time.Time
	// matches of this tournament skip the roster and round status checks
	challengeTournamentID string
}

func NewScheduler(s store.JudgingStore, now func() time.Time, challengeTournamentID string) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{store: s, now: now, challengeTournamentID: challengeTournamentID}
}

// AssignNext resumes the judge's in-progress assignment if there is one,
// otherwise claims the first eligible match.
func (s *Scheduler) AssignNext(ctx context.Context, judgeID string) (*Result, error) {
	logger.Debug.Printf("Assigning next match to judge %s", judgeID)
	now := s.now().Unix()

	var res *Result
	err := s.store.InTx(ctx, func(q store.Queries) error {
		active, err := q.GetActiveAssignment(ctx, judgeID)
		if err != nil {
			return err
		}
		if active != nil {
			m, err := q.GetMatch(ctx, active.MatchID)
			if err != nil {
				return err
			}
			if m == nil {
				return apperr.Newf(apperr.KindNotFound, "match %s not found", active.MatchID)
			}
			res = &Result{Assignment: *active, Match: *m, Resumed: true}
			return nil
		}

		m, err := q.NextCandidateMatch(ctx, judgeID, now)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.New(apperr.KindNoEligibleMatch, "no match is waiting for this judge").
				With("judge_id", judgeID)
		}

		a := models.JudgeAssignment{
			JudgeID:    judgeID,
			MatchID:    m.ID,
			Status:     models.AssignmentAssigned,
			AssignedAt: now,
			UpdatedAt:  now,
		}
		if err := q.UpsertAssignment(ctx, &a); err != nil {
			return err
		}
		res = &Result{Assignment: a, Match: *m}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Resumed {
		metrics.AssignmentsTotal.WithLabelValues("resumed").Inc()
		logger.Debug.Printf("Judge %s resumed match %s", judgeID, res.Match.ID)
	} else {
		metrics.AssignmentsTotal.WithLabelValues("next").Inc()
		logger.Info.Printf("Judge %s assigned to match %s", judgeID, res.Match.ID)
	}
	return res, nil
}

// AssignSpecific assigns the judge to a chosen match. Assigning again
// refreshes the existing assignment.
func (s *Scheduler) AssignSpecific(ctx context.Context, judgeID, matchID string) (*Result, error) {
	logger.Debug.Printf("Assigning judge %s to match %s", judgeID, matchID)
	now := s.now()

	var res *Result
	err := s.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
		}
		r, err := q.GetRound(ctx, m.RoundID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.Newf(apperr.KindNotFound, "round %s not found", m.RoundID)
		}

		if err := s.checkEligible(ctx, q, judgeID, r, m, now); err != nil {
			return err
		}

		a := models.JudgeAssignment{
			JudgeID:    judgeID,
			MatchID:    m.ID,
			Status:     models.AssignmentAssigned,
			AssignedAt: now.Unix(),
			UpdatedAt:  now.Unix(),
		}
		if err := q.UpsertAssignment(ctx, &a); err != nil {
			return err
		}
		res = &Result{Assignment: a, Match: *m}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AssignmentsTotal.WithLabelValues("specific").Inc()
	logger.Info.Printf("Judge %s assigned to match %s", judgeID, matchID)
	return res, nil
}

func (s *Scheduler) checkEligible(ctx context.Context, q store.Queries, judgeID string, r *models.Round, m *models.Match, now time.Time) error {
	if err := lifecycle.CheckMatchOpen(m); err != nil {
		return err
	}

	if !s.isChallenge(r) {
		if r.Status != models.RoundJudging {
			return apperr.Newf(apperr.KindAssignmentNotAllowed, "round is %s", r.Status).
				With("round_id", r.ID)
		}
		onRoster, err := q.IsTournamentJudge(ctx, r.TournamentID, judgeID)
		if err != nil {
			return err
		}
		if !onRoster {
			return apperr.New(apperr.KindNotAuthorized, "judge is not on the tournament roster").
				With("tournament_id", r.TournamentID)
		}
	}

	if lifecycle.JudgingDeadlinePassed(r, now) {
		return apperr.New(apperr.KindAssignmentNotAllowed, "judging deadline has passed").
			With("round_id", r.ID)
	}

	tracks, err := q.ListMatchTracks(ctx, m.ID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return apperr.New(apperr.KindAssignmentNotAllowed, "match has no tracks yet").
			With("match_id", m.ID)
	}

	evaluated, err := q.HasEvaluatedMatch(ctx, judgeID, m.ID)
	if err != nil {
		return err
	}
	if evaluated {
		return apperr.New(apperr.KindAssignmentNotAllowed, "judge has already evaluated this match").
			With("match_id", m.ID)
	}
	return nil
}

func (s *Scheduler) isChallenge(r *models.Round) bool {
	return s.challengeTournamentID != "" && r.TournamentID == s.challengeTournamentID
}

func (s *Scheduler) Complete(ctx context.Context, judgeID, matchID string) error {
	return s.finish(ctx, judgeID, matchID, models.AssignmentCompleted)
}

func (s *Scheduler) Skip(ctx context.Context, judgeID, matchID string) error {
	return s.finish(ctx, judgeID, matchID, models.AssignmentSkipped)
}

// finish closes the judge's own assignment. Finalization is never triggered
// from here.
func (s *Scheduler) finish(ctx context.Context, judgeID, matchID string, to models.AssignmentStatus) error {
	err := s.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
		}
		if err := lifecycle.CheckMatchOpen(m); err != nil {
			return err
		}
		ok, err := q.UpdateAssignmentStatus(ctx, judgeID, matchID, models.AssignmentAssigned, to, s.now().Unix())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindJudgeNotAssigned, "judge has no open assignment on this match").
				With("match_id", matchID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Judge %s marked match %s %s", judgeID, matchID, to)
	return nil
}

// JudgeQueue lists every assignment the judge has held, newest first.
func (s *Scheduler) JudgeQueue(ctx context.Context, judgeID string) ([]models.JudgeAssignment, error) {
	return s.store.ListJudgeAssignments(ctx, judgeID)
}
