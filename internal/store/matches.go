package store

import (
	"context"
	"fmt"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

const matchColumns = `m.id, m.round_id, m.starts_at, m.ends_at, m.status, m.winner_match_track_id, m.updated_at`

func (q *Querier) CreateMatch(ctx context.Context, m *models.Match) error {
	err := q.namedExec(ctx, `
		INSERT INTO matches (id, round_id, starts_at, ends_at, status, winner_match_track_id, updated_at)
		VALUES (:id, :round_id, :starts_at, :ends_at, :status, :winner_match_track_id, :updated_at)
	`, m)
	return q.wrap(err, "failed to create match")
}

func (q *Querier) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	var m models.Match
	found, err := q.get(ctx, &m, `SELECT `+matchColumns+` FROM matches m WHERE m.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &m, nil
}

func (q *Querier) ListRoundMatches(ctx context.Context, roundID string) ([]models.Match, error) {
	var matches []models.Match
	err := q.selectAll(ctx, &matches, `
		SELECT `+matchColumns+`
		FROM matches m
		WHERE m.round_id = ?
		ORDER BY (m.starts_at IS NOT NULL), m.starts_at, m.id
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (q *Querier) UpdateMatchStatus(ctx context.Context, id string, from, to models.MatchStatus, now int64) (bool, error) {
	n, err := q.exec(ctx, `
		UPDATE matches SET status = ?, updated_at = ? WHERE id = ? AND status = ?
	`, to, now, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update match status: %w", err)
	}
	return n == 1, nil
}

// CloseMatch writes a terminal status and winner unless the match is already
// terminal. It reports false when another writer got there first.
func (q *Querier) CloseMatch(ctx context.Context, id string, status models.MatchStatus, winnerTrackID *string, now int64) (bool, error) {
	n, err := q.exec(ctx, `
		UPDATE matches
		SET status = ?, winner_match_track_id = ?, updated_at = ?
		WHERE id = ? AND status NOT IN ('finished', 'tie', 'cancelled')
	`, status, winnerTrackID, now, id)
	if err != nil {
		return false, fmt.Errorf("failed to close match: %w", err)
	}
	return n == 1, nil
}

func (q *Querier) AddMatchParticipant(ctx context.Context, p *models.MatchParticipant) error {
	err := q.namedExec(ctx, `
		INSERT INTO match_participants (match_id, participant_id, seed, result_status)
		VALUES (:match_id, :participant_id, :seed, :result_status)
	`, p)
	return q.wrap(err, "failed to add match participant")
}

func (q *Querier) ListMatchParticipants(ctx context.Context, matchID string) ([]models.MatchParticipant, error) {
	var participants []models.MatchParticipant
	err := q.selectAll(ctx, &participants, `
		SELECT match_id, participant_id, seed, result_status
		FROM match_participants
		WHERE match_id = ?
		ORDER BY seed, participant_id
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match participants: %w", err)
	}
	return participants, nil
}

func (q *Querier) GetMatchParticipant(ctx context.Context, matchID, participantID string) (*models.MatchParticipant, error) {
	var p models.MatchParticipant
	found, err := q.get(ctx, &p, `
		SELECT match_id, participant_id, seed, result_status
		FROM match_participants
		WHERE match_id = ? AND participant_id = ?
	`, matchID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match participant: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (q *Querier) SetParticipantResult(ctx context.Context, matchID, participantID string, status *models.ResultStatus) error {
	_, err := q.exec(ctx, `
		UPDATE match_participants SET result_status = ? WHERE match_id = ? AND participant_id = ?
	`, status, matchID, participantID)
	if err != nil {
		return fmt.Errorf("failed to set participant result: %w", err)
	}
	return nil
}

func (q *Querier) IsEliminated(ctx context.Context, tournamentID, participantID string) (bool, error) {
	var n int
	if _, err := q.get(ctx, &n, `
		SELECT COUNT(*)
		FROM match_participants mp
		JOIN matches m ON m.id = mp.match_id
		JOIN rounds r ON r.id = m.round_id
		WHERE r.tournament_id = ?
			AND mp.participant_id = ?
			AND mp.result_status = 'eliminated'
	`, tournamentID, participantID); err != nil {
		return false, fmt.Errorf("failed to check elimination: %w", err)
	}
	return n > 0, nil
}

func (q *Querier) GetRoundMatchForParticipant(ctx context.Context, roundID, participantID string) (*models.Match, error) {
	var m models.Match
	found, err := q.get(ctx, &m, `
		SELECT `+matchColumns+`
		FROM matches m
		JOIN match_participants mp ON mp.match_id = m.id
		WHERE m.round_id = ? AND mp.participant_id = ?
		ORDER BY m.id
		LIMIT 1
	`, roundID, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant match: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &m, nil
}

// UpsertMatchTrack keeps one track per participant per match; a resubmission
// replaces audio and lyrics in place.
func (q *Querier) UpsertMatchTrack(ctx context.Context, t *models.MatchTrack) error {
	err := q.namedExec(ctx, `
		INSERT INTO match_tracks (id, match_id, participant_id, audio_id, lyrics, submitted_at)
		VALUES (:id, :match_id, :participant_id, :audio_id, :lyrics, :submitted_at)
		ON CONFLICT (match_id, participant_id) DO UPDATE SET
			audio_id = excluded.audio_id,
			lyrics = excluded.lyrics,
			submitted_at = excluded.submitted_at
	`, t)
	return q.wrap(err, "failed to upsert match track")
}

func (q *Querier) ListMatchTracks(ctx context.Context, matchID string) ([]models.MatchTrack, error) {
	var tracks []models.MatchTrack
	err := q.selectAll(ctx, &tracks, `
		SELECT id, match_id, participant_id, audio_id, lyrics, submitted_at
		FROM match_tracks
		WHERE match_id = ?
		ORDER BY submitted_at, id
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list match tracks: %w", err)
	}
	return tracks, nil
}
