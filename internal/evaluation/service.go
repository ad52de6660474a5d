// Package evaluation records judges' scores, one latest opinion per judge
// and target.
package evaluation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/lifecycle"
	"github.com/art0tod/battle-rap-v2-sub000/internal/metrics"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/scoring"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
)

type Service struct {
	store                 store.JudgingStore
	now                   func() time.Time
	challengeTournamentID string
}

func NewService(s store.JudgingStore, now func() time.Time, challengeTournamentID string) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: s, now: now, challengeTournamentID: challengeTournamentID}
}

// Submit validates and scores the payload, then upserts it. Nothing is
// written when any check fails.
func (s *Service) Submit(ctx context.Context, judgeID string, in models.EvaluationInput) (*models.Evaluation, error) {
	logger.Debug.Printf("Judge %s submitting evaluation for %s %s", judgeID, in.TargetType, in.TargetID)
	if err := in.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, err.Error())
	}

	now := s.now()
	var (
		stored       *models.Evaluation
		roundScoring models.Scoring
	)
	err := s.store.InTx(ctx, func(q store.Queries) error {
		ev := &models.Evaluation{
			ID:         uuid.NewString(),
			JudgeID:    judgeID,
			TargetType: in.TargetType,
			TargetID:   in.TargetID,
			Comment:    in.Comment,
			CreatedAt:  now.Unix(),
			UpdatedAt:  now.Unix(),
		}

		var (
			r   *models.Round
			err error
		)
		switch in.TargetType {
		case models.TargetMatch:
			r, err = s.scoreMatch(ctx, q, judgeID, in, ev, now)
		default:
			r, err = s.scoreSubmission(ctx, q, judgeID, in, ev, now)
		}
		if err != nil {
			return err
		}
		ev.RoundID = r.ID
		roundScoring = r.Scoring

		if err := q.UpsertEvaluation(ctx, ev); err != nil {
			return err
		}
		stored, err = q.GetEvaluation(ctx, judgeID, in.TargetType, in.TargetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.EvaluationsTotal.WithLabelValues(string(stored.TargetType)).Inc()
	if stored.TotalScore != nil {
		metrics.EvaluationScoreHistogram.WithLabelValues(string(roundScoring)).Observe(*stored.TotalScore)
	}
	logger.Info.Printf("Stored evaluation %s by judge %s for %s %s", stored.ID, judgeID, stored.TargetType, stored.TargetID)
	return stored, nil
}

func (s *Service) scoreMatch(ctx context.Context, q store.Queries, judgeID string, in models.EvaluationInput, ev *models.Evaluation, now time.Time) (*models.Round, error) {
	m, err := q.GetMatch(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "match %s not found", in.TargetID)
	}
	r, err := loadRound(ctx, q, m.RoundID)
	if err != nil {
		return nil, err
	}
	if r.TargetType() != models.TargetMatch {
		return nil, apperr.Newf(apperr.KindInvalidInput, "%s rounds are scored per submission", r.Scoring).
			With("round_id", r.ID)
	}
	if err := lifecycle.CheckMatchOpen(m); err != nil {
		return nil, err
	}
	if err := s.checkWindow(r, now); err != nil {
		return nil, err
	}

	a, err := q.GetAssignment(ctx, judgeID, m.ID)
	if err != nil {
		return nil, err
	}
	if a == nil || a.Status == models.AssignmentSkipped {
		return nil, apperr.New(apperr.KindJudgeNotAssigned, "judge is not assigned to this match").
			With("match_id", m.ID)
	}

	criteria, err := q.ListRubricCriteria(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	tracks, err := q.ListMatchTracks(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	trackIDs := make([]string, 0, len(tracks))
	for _, t := range tracks {
		trackIDs = append(trackIDs, t.ID)
	}

	totals, err := scoring.ScoreMatch(criteria, trackIDs, in.Rubric)
	if err != nil {
		return nil, err
	}

	top := 0.0
	for _, v := range totals {
		if v > top {
			top = v
		}
	}
	ev.Rubric = in.Rubric
	ev.TrackTotals = totals
	ev.TotalScore = &top
	return r, nil
}

func (s *Service) scoreSubmission(ctx context.Context, q store.Queries, judgeID string, in models.EvaluationInput, ev *models.Evaluation, now time.Time) (*models.Round, error) {
	sub, err := q.GetSubmission(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "submission %s not found", in.TargetID)
	}
	r, err := loadRound(ctx, q, sub.RoundID)
	if err != nil {
		return nil, err
	}
	if r.TargetType() != models.TargetSubmission {
		return nil, apperr.Newf(apperr.KindInvalidInput, "%s rounds are scored per match", r.Scoring).
			With("round_id", r.ID)
	}
	if !sub.Status.Judgeable() {
		return nil, apperr.Newf(apperr.KindInvalidInput, "submission is %s", sub.Status).
			With("submission_id", sub.ID)
	}
	if err := s.checkWindow(r, now); err != nil {
		return nil, err
	}

	onRoster, err := q.IsTournamentJudge(ctx, r.TournamentID, judgeID)
	if err != nil {
		return nil, err
	}
	if !onRoster && !s.isChallenge(r) {
		return nil, apperr.New(apperr.KindJudgeNotAssigned, "judge is not on the tournament roster").
			With("tournament_id", r.TournamentID)
	}

	m, err := q.GetRoundMatchForParticipant(ctx, r.ID, sub.ParticipantID)
	if err != nil {
		return nil, err
	}
	if m != nil {
		if err := lifecycle.CheckMatchOpen(m); err != nil {
			return nil, err
		}
	}

	total, err := scoring.SubmissionTotal(r.Scoring, in.Pass, in.Score)
	if err != nil {
		return nil, err
	}
	if r.Scoring == models.ScoringPassFail {
		ev.Pass = in.Pass
	} else {
		ev.Score = in.Score
	}
	ev.TotalScore = &total
	return r, nil
}

// checkWindow applies the judging window. Challenge rounds are judged as soon
// as a judge is assigned, so only their deadline counts.
func (s *Service) checkWindow(r *models.Round, now time.Time) error {
	if s.isChallenge(r) {
		if lifecycle.JudgingDeadlinePassed(r, now) {
			return apperr.New(apperr.KindJudgingWindowClosed, "judging deadline has passed").
				With("round_id", r.ID)
		}
		return nil
	}
	return lifecycle.CheckJudgingWindow(r, now)
}

func (s *Service) isChallenge(r *models.Round) bool {
	return s.challengeTournamentID != "" && r.TournamentID == s.challengeTournamentID
}

func loadRound(ctx context.Context, q store.Queries, id string) (*models.Round, error) {
	r, err := q.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "round %s not found", id)
	}
	return r, nil
}
