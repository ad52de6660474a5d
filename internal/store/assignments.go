package store

import (
	"context"
	"fmt"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

const assignmentColumns = `ja.judge_id, ja.match_id, ja.status, ja.assigned_at, ja.updated_at`

// GetActiveAssignment returns the judge's in-progress assignment on a match
// that is still open, oldest first.
func (q *Querier) GetActiveAssignment(ctx context.Context, judgeID string) (*models.JudgeAssignment, error) {
	var a models.JudgeAssignment
	found, err := q.get(ctx, &a, `
		SELECT `+assignmentColumns+`
		FROM judge_assignments ja
		JOIN matches m ON m.id = ja.match_id
		WHERE ja.judge_id = ?
			AND ja.status = 'assigned'
			AND m.status NOT IN ('finished', 'tie', 'cancelled')
		ORDER BY ja.assigned_at, ja.match_id
		LIMIT 1
	`, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &a, nil
}

func (q *Querier) GetAssignment(ctx context.Context, judgeID, matchID string) (*models.JudgeAssignment, error) {
	var a models.JudgeAssignment
	found, err := q.get(ctx, &a, `
		SELECT `+assignmentColumns+`
		FROM judge_assignments ja
		WHERE ja.judge_id = ? AND ja.match_id = ?
	`, judgeID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &a, nil
}

func (q *Querier) ListJudgeAssignments(ctx context.Context, judgeID string) ([]models.JudgeAssignment, error) {
	var list []models.JudgeAssignment
	err := q.selectAll(ctx, &list, `
		SELECT `+assignmentColumns+`
		FROM judge_assignments ja
		WHERE ja.judge_id = ?
		ORDER BY ja.assigned_at DESC, ja.match_id
	`, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	return list, nil
}

// NextCandidateMatch picks the first match the judge may be handed, ordered
// by round number, start time with unscheduled matches first, then id.
func (q *Querier) NextCandidateMatch(ctx context.Context, judgeID string, now int64) (*models.Match, error) {
	var m models.Match
	found, err := q.get(ctx, &m, `
		SELECT `+matchColumns+`
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		JOIN tournament_judges tj ON tj.tournament_id = r.tournament_id AND tj.user_id = ?
		WHERE r.status = 'judging'
			AND (r.judging_deadline_at IS NULL OR r.judging_deadline_at >= ?)
			AND m.status NOT IN ('finished', 'tie', 'cancelled')
			AND EXISTS (SELECT 1 FROM match_tracks mt WHERE mt.match_id = m.id)
			AND NOT EXISTS (
				SELECT 1 FROM judge_assignments ja
				WHERE ja.match_id = m.id AND ja.judge_id = ?
			)
			AND NOT EXISTS (
				SELECT 1 FROM evaluations e
				WHERE e.judge_id = ? AND e.target_type = 'match' AND e.target_id = m.id
			)
			AND NOT EXISTS (
				SELECT 1 FROM evaluations e
				JOIN submissions s ON s.id = e.target_id
				JOIN match_participants mp ON mp.participant_id = s.participant_id AND mp.match_id = m.id
				WHERE e.judge_id = ? AND e.target_type = 'submission' AND s.round_id = m.round_id
			)
		ORDER BY r.number, (m.starts_at IS NOT NULL), m.starts_at, m.id
		LIMIT 1
	`, judgeID, now, judgeID, judgeID, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate match: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &m, nil
}

// UpsertAssignment relies on the (judge_id, match_id) key: assigning again
// refreshes assigned_at and resets the status.
func (q *Querier) UpsertAssignment(ctx context.Context, a *models.JudgeAssignment) error {
	err := q.namedExec(ctx, `
		INSERT INTO judge_assignments (judge_id, match_id, status, assigned_at, updated_at)
		VALUES (:judge_id, :match_id, :status, :assigned_at, :updated_at)
		ON CONFLICT (judge_id, match_id) DO UPDATE SET
			status = excluded.status,
			assigned_at = excluded.assigned_at,
			updated_at = excluded.updated_at
	`, a)
	return q.wrap(err, "failed to upsert assignment")
}

func (q *Querier) UpdateAssignmentStatus(ctx context.Context, judgeID, matchID string, from, to models.AssignmentStatus, now int64) (bool, error) {
	n, err := q.exec(ctx, `
		UPDATE judge_assignments
		SET status = ?, updated_at = ?
		WHERE judge_id = ? AND match_id = ? AND status = ?
	`, to, now, judgeID, matchID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update assignment status: %w", err)
	}
	return n == 1, nil
}

// HasEvaluatedMatch covers both head-to-head evaluations of the match and
// evaluations of submissions by the match's participants in the same round.
func (q *Querier) HasEvaluatedMatch(ctx context.Context, judgeID, matchID string) (bool, error) {
	var n int
	if _, err := q.get(ctx, &n, `
		SELECT COUNT(*) FROM evaluations e
		WHERE e.judge_id = ?
			AND (
				(e.target_type = 'match' AND e.target_id = ?)
				OR (e.target_type = 'submission' AND e.target_id IN (
					SELECT s.id FROM submissions s
					JOIN matches m ON m.round_id = s.round_id
					JOIN match_participants mp ON mp.match_id = m.id AND mp.participant_id = s.participant_id
					WHERE m.id = ?
				))
			)
	`, judgeID, matchID, matchID); err != nil {
		return false, fmt.Errorf("failed to check evaluations: %w", err)
	}
	return n > 0, nil
}
