package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/testutil"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Load(ctx context.Context, tournamentID string) ([]models.TournamentWin, int64, bool, error) {
	args := m.Called(ctx, tournamentID)
	var rows []models.TournamentWin
	if v := args.Get(0); v != nil {
		rows = v.([]models.TournamentWin)
	}
	return rows, args.Get(1).(int64), args.Bool(2), args.Error(3)
}

func (m *MockCache) Store(ctx context.Context, tournamentID string, generation int64, rows []models.TournamentWin) error {
	args := m.Called(ctx, tournamentID, generation, rows)
	return args.Error(0)
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestTrackAverages(t *testing.T) {
	total := func(v float64) *float64 { return &v }
	evals := []models.Evaluation{
		{TargetType: models.TargetMatch, TargetID: "m1", TrackTotals: models.TrackTotals{"t1": 80, "t2": 40}},
		{TargetType: models.TargetMatch, TargetID: "m1", TrackTotals: models.TrackTotals{"t1": 60, "t2": 50}},
		{TargetType: models.TargetSubmission, TargetID: "s1", TotalScore: total(100)},
		{TargetType: models.TargetSubmission, TargetID: "s1", TotalScore: total(0)},
		{TargetType: models.TargetSubmission, TargetID: "orphan", TotalScore: total(100)},
	}
	links := []models.SubmissionTrack{{SubmissionID: "s1", MatchTrackID: "t3", MatchID: "m2"}}

	rows := trackAverages(evals, links, 42)
	require.Len(t, rows, 3)

	assert.Equal(t, "t1", rows[0].MatchTrackID)
	assert.InDelta(t, 70, rows[0].AvgScore, 1e-9)
	assert.Equal(t, 2, rows[0].JudgeCount)
	assert.InDelta(t, 45, rows[1].AvgScore, 1e-9)
	assert.Equal(t, "m2", rows[2].MatchID)
	assert.InDelta(t, 50, rows[2].AvgScore, 1e-9)
	assert.Equal(t, int64(42), rows[2].RefreshedAt)
}

func TestRank(t *testing.T) {
	got := rank(map[string]int{"carol": 1, "alice": 3, "bob": 3, "dave": 0})
	require.Len(t, got, 4)
	assert.Equal(t, models.Standing{ParticipantID: "alice", Wins: 3, Rank: 1}, got[0])
	assert.Equal(t, models.Standing{ParticipantID: "bob", Wins: 3, Rank: 1}, got[1])
	assert.Equal(t, models.Standing{ParticipantID: "carol", Wins: 1, Rank: 3}, got[2])
	assert.Equal(t, 4, got[3].Rank)
}

func TestRefreshInvalidatesCache(t *testing.T) {
	s := testutil.NewStore(t)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	r := f.Round(f.Tournament().ID, nil)
	m := f.Match(r.ID, nil)
	a := f.Track(m.ID, "alice")
	require.NoError(t, s.UpsertEvaluation(ctx, &models.Evaluation{
		ID: uuid.NewString(), JudgeID: "j1", TargetType: models.TargetMatch, TargetID: m.ID, RoundID: r.ID,
		TrackTotals: models.TrackTotals{a.ID: 64}, CreatedAt: f.Now, UpdatedAt: f.Now,
	}))

	cache := &MockCache{}
	cache.On("Invalidate", mock.Anything).Return(errors.New("redis down")).Once()

	mat := NewMaterializer(s, cache, func() time.Time { return now })
	require.NoError(t, mat.Refresh(ctx), "cache failures are not fatal")

	scores, err := s.ListTrackScores(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 64, scores[0].AvgScore, 1e-9)
	cache.AssertExpectations(t)
}

func TestStandingsUsesCacheAndGate(t *testing.T) {
	s := testutil.NewStore(t)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	open := f.Round(tr.ID, nil)
	done := f.Round(tr.ID, func(r *models.Round) { r.Number = 2; r.Status = models.RoundFinished })

	cached := []models.TournamentWin{
		{TournamentID: tr.ID, RoundID: open.ID, ParticipantID: "alice", Wins: 5},
		{TournamentID: tr.ID, RoundID: done.ID, ParticipantID: "bob", Wins: 1},
	}
	cache := &MockCache{}
	cache.On("Load", mock.Anything, tr.ID).Return(cached, int64(3), true, nil).Once()

	mat := NewMaterializer(s, cache, func() time.Time { return now })
	got, err := mat.Standings(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, got, 1, "wins from rounds still hidden are left out")
	assert.Equal(t, "bob", got[0].ParticipantID)
	cache.AssertExpectations(t)
}

func TestStandingsFillsCacheOnMiss(t *testing.T) {
	s := testutil.NewStore(t)
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	cache := &MockCache{}
	cache.On("Load", mock.Anything, tr.ID).Return(nil, int64(7), false, nil).Once()
	cache.On("Store", mock.Anything, tr.ID, int64(7), mock.Anything).Return(nil).Once()

	mat := NewMaterializer(s, cache, func() time.Time { return now })
	got, err := mat.Standings(ctx, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
	cache.AssertExpectations(t)
}
