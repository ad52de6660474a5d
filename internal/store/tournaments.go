package store

import (
	"context"
	"fmt"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

func (q *Querier) CreateTournament(ctx context.Context, t *models.Tournament) error {
	if err := t.Validate(); err != nil {
		return apperr.Newf(apperr.KindInvalidInput, "invalid tournament: %v", err)
	}
	err := q.namedExec(ctx, `
		INSERT INTO tournaments (id, title, status, registration_open_at, submission_deadline_at,
			judging_deadline_at, public_at, max_bracket_size, created_at)
		VALUES (:id, :title, :status, :registration_open_at, :submission_deadline_at,
			:judging_deadline_at, :public_at, :max_bracket_size, :created_at)
	`, t)
	return q.wrap(err, "failed to create tournament")
}

func (q *Querier) GetTournament(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	found, err := q.get(ctx, &t, `
		SELECT id, title, status, registration_open_at, submission_deadline_at,
			judging_deadline_at, public_at, max_bracket_size, created_at
		FROM tournaments
		WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &t, nil
}

func (q *Querier) AddTournamentJudge(ctx context.Context, tournamentID, userID string, now int64) error {
	_, err := q.exec(ctx, `
		INSERT INTO tournament_judges (tournament_id, user_id, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (tournament_id, user_id) DO NOTHING
	`, tournamentID, userID, now)
	return q.wrap(err, "failed to add tournament judge")
}

func (q *Querier) RemoveTournamentJudge(ctx context.Context, tournamentID, userID string) error {
	_, err := q.exec(ctx, `
		DELETE FROM tournament_judges WHERE tournament_id = ? AND user_id = ?
	`, tournamentID, userID)
	return q.wrap(err, "failed to remove tournament judge")
}

func (q *Querier) IsTournamentJudge(ctx context.Context, tournamentID, userID string) (bool, error) {
	var n int
	if _, err := q.get(ctx, &n, `
		SELECT COUNT(*) FROM tournament_judges WHERE tournament_id = ? AND user_id = ?
	`, tournamentID, userID); err != nil {
		return false, fmt.Errorf("failed to check judge roster: %w", err)
	}
	return n > 0, nil
}

const roundColumns = `id, tournament_id, kind, number, scoring, strategy, status,
	starts_at, submission_deadline_at, judging_deadline_at`

func (q *Querier) CreateRound(ctx context.Context, r *models.Round) error {
	if err := r.Validate(); err != nil {
		return apperr.Newf(apperr.KindInvalidInput, "invalid round: %v", err)
	}
	err := q.namedExec(ctx, `
		INSERT INTO rounds (id, tournament_id, kind, number, scoring, strategy, status,
			starts_at, submission_deadline_at, judging_deadline_at)
		VALUES (:id, :tournament_id, :kind, :number, :scoring, :strategy, :status,
			:starts_at, :submission_deadline_at, :judging_deadline_at)
	`, r)
	return q.wrap(err, "failed to create round")
}

func (q *Querier) GetRound(ctx context.Context, id string) (*models.Round, error) {
	var r models.Round
	found, err := q.get(ctx, &r, `SELECT `+roundColumns+` FROM rounds WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

func (q *Querier) ListTournamentRounds(ctx context.Context, tournamentID string) ([]models.Round, error) {
	var rounds []models.Round
	err := q.selectAll(ctx, &rounds, `
		SELECT `+roundColumns+`
		FROM rounds
		WHERE tournament_id = ?
		ORDER BY number, id
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// UpdateRoundStatus moves the round only if it is still in from.
func (q *Querier) UpdateRoundStatus(ctx context.Context, id string, from, to models.RoundStatus) (bool, error) {
	n, err := q.exec(ctx, `UPDATE rounds SET status = ? WHERE id = ? AND status = ?`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update round status: %w", err)
	}
	return n == 1, nil
}

// ReplaceRubricCriteria swaps the round's rubric. Every criterion is
// validated before the old set is touched.
func (q *Querier) ReplaceRubricCriteria(ctx context.Context, roundID string, criteria []models.RubricCriterion) error {
	for i := range criteria {
		if err := criteria[i].Validate(); err != nil {
			return apperr.Newf(apperr.KindInvalidInput, "invalid rubric criterion %q: %v", criteria[i].Key, err).
				With("criterion_key", criteria[i].Key)
		}
	}
	if _, err := q.exec(ctx, `DELETE FROM rubric_criteria WHERE round_id = ?`, roundID); err != nil {
		return fmt.Errorf("failed to clear rubric criteria: %w", err)
	}
	for i := range criteria {
		criteria[i].RoundID = roundID
		err := q.namedExec(ctx, `
			INSERT INTO rubric_criteria (round_id, criterion_key, name, weight, min_value, max_value, sort_order)
			VALUES (:round_id, :criterion_key, :name, :weight, :min_value, :max_value, :sort_order)
		`, &criteria[i])
		if err != nil {
			return q.wrap(err, "failed to insert rubric criterion")
		}
	}
	return nil
}

func (q *Querier) ListRubricCriteria(ctx context.Context, roundID string) ([]models.RubricCriterion, error) {
	var criteria []models.RubricCriterion
	err := q.selectAll(ctx, &criteria, `
		SELECT round_id, criterion_key, name, weight, min_value, max_value, sort_order
		FROM rubric_criteria
		WHERE round_id = ?
		ORDER BY sort_order, criterion_key
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rubric criteria: %w", err)
	}
	return criteria, nil
}
