// Package testutil builds throwaway stores and seed data for engine tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store/sqlite"
)

// MigrationsDir resolves the repository migrations directory regardless of
// the package the test runs from.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// NewStore opens an in-memory SQLite store with the full schema applied. It is
// closed when the test ends.
func NewStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	s, err := sqlite.NewSQLiteStore(":memory:", MigrationsDir())
	require.NoError(t, err, "Failed to create store")
	t.Cleanup(func() {
		require.NoError(t, s.Close(), "Failed to close database")
	})
	return s
}

// Clock is a settable time source for engine components.
type Clock struct {
	T time.Time
}

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Fixture seeds rows with sensible defaults; each helper fails the test on
// error.
type Fixture struct {
	t   *testing.T
	ctx context.Context
	Q   store.Queries
	Now int64
}

func NewFixture(t *testing.T, q store.Queries, now time.Time) *Fixture {
	return &Fixture{t: t, ctx: context.Background(), Q: q, Now: now.Unix()}
}

func (f *Fixture) Tournament() *models.Tournament {
	f.t.Helper()
	tr := &models.Tournament{
		ID:        uuid.NewString(),
		Title:     "Winter Clash",
		Status:    models.TournamentOngoing,
		CreatedAt: f.Now,
	}
	require.NoError(f.t, f.Q.CreateTournament(f.ctx, tr))
	return tr
}

// Round defaults to a judging rubric/weighted bracket round; mut may adjust
// it before insert.
func (f *Fixture) Round(tournamentID string, mut func(r *models.Round)) *models.Round {
	f.t.Helper()
	r := &models.Round{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Kind:         models.RoundBracket,
		Number:       1,
		Scoring:      models.ScoringRubric,
		Strategy:     models.StrategyWeighted,
		Status:       models.RoundJudging,
	}
	if mut != nil {
		mut(r)
	}
	require.NoError(f.t, f.Q.CreateRound(f.ctx, r))
	return r
}

// DefaultCriteria are two equally weighted 0-10 criteria.
func DefaultCriteria() []models.RubricCriterion {
	return []models.RubricCriterion{
		{Key: "flow", Name: "Flow", Weight: 1, MinValue: 0, MaxValue: 10, SortOrder: 1},
		{Key: "bars", Name: "Bars", Weight: 1, MinValue: 0, MaxValue: 10, SortOrder: 2},
	}
}

func (f *Fixture) Criteria(roundID string, criteria ...models.RubricCriterion) {
	f.t.Helper()
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}
	require.NoError(f.t, f.Q.ReplaceRubricCriteria(f.ctx, roundID, criteria))
}

func (f *Fixture) Match(roundID string, mut func(m *models.Match)) *models.Match {
	f.t.Helper()
	m := &models.Match{
		ID:        uuid.NewString(),
		RoundID:   roundID,
		Status:    models.MatchJudging,
		UpdatedAt: f.Now,
	}
	if mut != nil {
		mut(m)
	}
	require.NoError(f.t, f.Q.CreateMatch(f.ctx, m))
	return m
}

func (f *Fixture) Participant(matchID, participantID string, seed int) {
	f.t.Helper()
	require.NoError(f.t, f.Q.AddMatchParticipant(f.ctx, &models.MatchParticipant{
		MatchID:       matchID,
		ParticipantID: participantID,
		Seed:          seed,
	}))
}

func (f *Fixture) Media(ownerID string, status models.MediaStatus) *models.MediaAsset {
	f.t.Helper()
	a := &models.MediaAsset{ID: uuid.NewString(), OwnerID: ownerID, Status: status}
	require.NoError(f.t, f.Q.CreateMediaAsset(f.ctx, a))
	return a
}

// Track registers the participant on the match and stores a ready track.
func (f *Fixture) Track(matchID, participantID string) *models.MatchTrack {
	f.t.Helper()
	f.Participant(matchID, participantID, 0)
	media := f.Media(participantID, models.MediaReady)
	tr := &models.MatchTrack{
		ID:            uuid.NewString(),
		MatchID:       matchID,
		ParticipantID: participantID,
		AudioID:       media.ID,
		SubmittedAt:   f.Now,
	}
	require.NoError(f.t, f.Q.UpsertMatchTrack(f.ctx, tr))
	return tr
}

func (f *Fixture) Submission(roundID, participantID string) *models.Submission {
	f.t.Helper()
	media := f.Media(participantID, models.MediaReady)
	now := f.Now
	s := &models.Submission{
		ID:            uuid.NewString(),
		RoundID:       roundID,
		ParticipantID: participantID,
		AudioID:       media.ID,
		Status:        models.SubmissionSubmitted,
		SubmittedAt:   &now,
		UpdatedAt:     now,
	}
	require.NoError(f.t, f.Q.UpsertSubmission(f.ctx, s))
	return s
}

func (f *Fixture) Judge(tournamentID string, userIDs ...string) {
	f.t.Helper()
	for _, id := range userIDs {
		require.NoError(f.t, f.Q.AddTournamentJudge(f.ctx, tournamentID, id, f.Now))
	}
}

func Ptr[T any](v T) *T { return &v }
