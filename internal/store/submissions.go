package store

import (
	"context"
	"fmt"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

const submissionColumns = `id, round_id, participant_id, audio_id, lyrics, status, submitted_at, updated_at`

func (q *Querier) UpsertSubmission(ctx context.Context, s *models.Submission) error {
	err := q.namedExec(ctx, `
		INSERT INTO submissions (id, round_id, participant_id, audio_id, lyrics, status, submitted_at, updated_at)
		VALUES (:id, :round_id, :participant_id, :audio_id, :lyrics, :status, :submitted_at, :updated_at)
		ON CONFLICT (round_id, participant_id) DO UPDATE SET
			audio_id = excluded.audio_id,
			lyrics = excluded.lyrics,
			status = excluded.status,
			submitted_at = excluded.submitted_at,
			updated_at = excluded.updated_at
	`, s)
	return q.wrap(err, "failed to upsert submission")
}

func (q *Querier) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	var s models.Submission
	found, err := q.get(ctx, &s, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

func (q *Querier) GetParticipantSubmission(ctx context.Context, roundID, participantID string) (*models.Submission, error) {
	var s models.Submission
	found, err := q.get(ctx, &s, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE round_id = ? AND participant_id = ?
	`, roundID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant submission: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &s, nil
}

func (q *Querier) ListRoundSubmissions(ctx context.Context, roundID string) ([]models.Submission, error) {
	var subs []models.Submission
	err := q.selectAll(ctx, &subs, `
		SELECT `+submissionColumns+`
		FROM submissions
		WHERE round_id = ?
		ORDER BY participant_id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return subs, nil
}

// SetSubmissionStatus records the outcome of the external moderation flow.
func (q *Querier) SetSubmissionStatus(ctx context.Context, id string, status models.SubmissionStatus, now int64) error {
	_, err := q.exec(ctx, `UPDATE submissions SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return fmt.Errorf("failed to set submission status: %w", err)
	}
	return nil
}

func (q *Querier) CreateMediaAsset(ctx context.Context, a *models.MediaAsset) error {
	err := q.namedExec(ctx, `
		INSERT INTO media_assets (id, owner_id, status)
		VALUES (:id, :owner_id, :status)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status
	`, a)
	return q.wrap(err, "failed to create media asset")
}

func (q *Querier) GetMediaAsset(ctx context.Context, id string) (*models.MediaAsset, error) {
	var a models.MediaAsset
	found, err := q.get(ctx, &a, `SELECT id, owner_id, status FROM media_assets WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get media asset: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &a, nil
}
