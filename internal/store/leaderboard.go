package store

import (
	"context"
	"fmt"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

// ReplaceTrackScores swaps the whole per-track view. Run it inside InTx so
// readers never observe a half-written table.
func (q *Querier) ReplaceTrackScores(ctx context.Context, rows []models.TrackScore) error {
	if _, err := q.exec(ctx, `DELETE FROM match_track_scores`); err != nil {
		return fmt.Errorf("failed to clear track scores: %w", err)
	}
	for i := range rows {
		err := q.namedExec(ctx, `
			INSERT INTO match_track_scores (match_track_id, match_id, avg_score, judge_count, refreshed_at)
			VALUES (:match_track_id, :match_id, :avg_score, :judge_count, :refreshed_at)
		`, &rows[i])
		if err != nil {
			return q.wrap(err, "failed to insert track score")
		}
	}
	return nil
}

func (q *Querier) RebuildTournamentWins(ctx context.Context, now int64) error {
	if _, err := q.exec(ctx, `DELETE FROM tournament_wins`); err != nil {
		return fmt.Errorf("failed to clear tournament wins: %w", err)
	}
	_, err := q.exec(ctx, `
		INSERT INTO tournament_wins (tournament_id, round_id, participant_id, wins, refreshed_at)
		SELECT r.tournament_id, r.id, mt.participant_id, COUNT(*), CAST(? AS BIGINT)
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		JOIN match_tracks mt ON mt.id = m.winner_match_track_id
		WHERE m.status = 'finished'
		GROUP BY r.tournament_id, r.id, mt.participant_id
	`, now)
	if err != nil {
		return fmt.Errorf("failed to rebuild tournament wins: %w", err)
	}
	return nil
}

func (q *Querier) ListTrackScores(ctx context.Context, matchID string) ([]models.TrackScore, error) {
	var rows []models.TrackScore
	err := q.selectAll(ctx, &rows, `
		SELECT match_track_id, match_id, avg_score, judge_count, refreshed_at
		FROM match_track_scores
		WHERE match_id = ?
		ORDER BY avg_score DESC, match_track_id
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list track scores: %w", err)
	}
	return rows, nil
}

func (q *Querier) ListTournamentWins(ctx context.Context, tournamentID string) ([]models.TournamentWin, error) {
	var rows []models.TournamentWin
	err := q.selectAll(ctx, &rows, `
		SELECT tournament_id, round_id, participant_id, wins, refreshed_at
		FROM tournament_wins
		WHERE tournament_id = ?
		ORDER BY round_id, participant_id
	`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament wins: %w", err)
	}
	return rows, nil
}
