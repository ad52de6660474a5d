package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

const evaluationColumns = `id, judge_id, target_type, target_id, round_id, pass, score, rubric,
	track_totals, comment, total_score, created_at, updated_at`

// UpsertEvaluation overwrites the judge's previous opinion on the same target.
// id and created_at of the first write are kept.
func (q *Querier) UpsertEvaluation(ctx context.Context, e *models.Evaluation) error {
	err := q.namedExec(ctx, `
		INSERT INTO evaluations (id, judge_id, target_type, target_id, round_id, pass, score, rubric,
			track_totals, comment, total_score, created_at, updated_at)
		VALUES (:id, :judge_id, :target_type, :target_id, :round_id, :pass, :score, :rubric,
			:track_totals, :comment, :total_score, :created_at, :updated_at)
		ON CONFLICT (judge_id, target_type, target_id) DO UPDATE SET
			pass = excluded.pass,
			score = excluded.score,
			rubric = excluded.rubric,
			track_totals = excluded.track_totals,
			comment = excluded.comment,
			total_score = excluded.total_score,
			updated_at = excluded.updated_at
	`, e)
	return q.wrap(err, "failed to upsert evaluation")
}

func (q *Querier) GetEvaluation(ctx context.Context, judgeID string, targetType models.TargetType, targetID string) (*models.Evaluation, error) {
	var e models.Evaluation
	found, err := q.get(ctx, &e, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE judge_id = ? AND target_type = ? AND target_id = ?
	`, judgeID, targetType, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &e, nil
}

func (q *Querier) ListEvaluations(ctx context.Context, targetType models.TargetType, targetIDs []string) ([]models.Evaluation, error) {
	if len(targetIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT `+evaluationColumns+`
		FROM evaluations
		WHERE target_type = ? AND target_id IN (?)
		ORDER BY target_id, judge_id
	`, targetType, targetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluations query: %w", err)
	}

	var evals []models.Evaluation
	if err := q.selectAll(ctx, &evals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}

func (q *Querier) ListAllEvaluations(ctx context.Context) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	err := q.selectAll(ctx, &evals, `
		SELECT `+evaluationColumns+`
		FROM evaluations
		ORDER BY target_type, target_id, judge_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return evals, nil
}

func (q *Querier) ListSubmissionTracks(ctx context.Context) ([]models.SubmissionTrack, error) {
	var links []models.SubmissionTrack
	err := q.selectAll(ctx, &links, `
		SELECT s.id AS submission_id, mt.id AS match_track_id, mt.match_id
		FROM submissions s
		JOIN matches m ON m.round_id = s.round_id
		JOIN match_tracks mt ON mt.match_id = m.id AND mt.participant_id = s.participant_id
		ORDER BY s.id, mt.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list submission tracks: %w", err)
	}
	return links, nil
}
