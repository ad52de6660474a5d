package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
	"github.com/art0tod/battle-rap-v2-sub000/internal/testutil"
)

var now = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func TestTournamentRoster(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	got, err := s.GetTournament(ctx, tr.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, tr.Title, got.Title)

	missing, err := s.GetTournament(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	f.Judge(tr.ID, "judge-1")
	// adding twice is a no-op
	f.Judge(tr.ID, "judge-1")

	ok, err := s.IsTournamentJudge(ctx, tr.ID, "judge-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.RemoveTournamentJudge(ctx, tr.ID, "judge-1"))
	ok, err = s.IsTournamentJudge(ctx, tr.ID, "judge-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuplicateInsertIsConflict(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)

	tr := f.Tournament()
	err := s.CreateTournament(context.Background(), tr)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict), err)
}

func TestRubricCriteriaReplace(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	r := f.Round(f.Tournament().ID, nil)
	f.Criteria(r.ID)
	f.Criteria(r.ID, models.RubricCriterion{Key: "delivery", Name: "Delivery", Weight: 2, MinValue: 1, MaxValue: 5})

	list, err := s.ListRubricCriteria(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "delivery", list[0].Key)
	assert.Equal(t, r.ID, list[0].RoundID)
}

func TestCreateRejectsInvalidRows(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	err := s.CreateTournament(ctx, &models.Tournament{ID: uuid.NewString(), Status: models.TournamentOngoing})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), err)

	tr := f.Tournament()
	err = s.CreateRound(ctx, &models.Round{
		ID:           uuid.NewString(),
		TournamentID: tr.ID,
		Kind:         models.RoundBracket,
		Number:       1,
		Scoring:      "vibes",
		Strategy:     models.StrategyWeighted,
		Status:       models.RoundDraft,
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), err)

	rounds, err := s.ListTournamentRounds(ctx, tr.ID)
	require.NoError(t, err)
	assert.Empty(t, rounds)

	r := f.Round(tr.ID, nil)
	f.Criteria(r.ID)
	err = s.ReplaceRubricCriteria(ctx, r.ID, []models.RubricCriterion{
		{Key: "flow", Name: "Flow", Weight: 1, MinValue: 0, MaxValue: 10},
		{Key: "bars", Name: "Bars", Weight: 1, MinValue: 10, MaxValue: 0},
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), err)

	list, err := s.ListRubricCriteria(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2, "a rejected rubric leaves the previous one in place")
}

func TestUpsertAssignmentIsIdempotent(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	r := f.Round(f.Tournament().ID, nil)
	m := f.Match(r.ID, nil)

	a := &models.JudgeAssignment{JudgeID: "j1", MatchID: m.ID, Status: models.AssignmentAssigned, AssignedAt: 100, UpdatedAt: 100}
	require.NoError(t, s.UpsertAssignment(ctx, a))

	ok, err := s.UpdateAssignmentStatus(ctx, "j1", m.ID, models.AssignmentAssigned, models.AssignmentSkipped, 150)
	require.NoError(t, err)
	assert.True(t, ok)

	a.AssignedAt, a.UpdatedAt = 200, 200
	require.NoError(t, s.UpsertAssignment(ctx, a))

	list, err := s.ListJudgeAssignments(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.AssignmentAssigned, list[0].Status)
	assert.Equal(t, int64(200), list[0].AssignedAt)

	ok, err = s.UpdateAssignmentStatus(ctx, "j1", m.ID, models.AssignmentCompleted, models.AssignmentSkipped, 250)
	require.NoError(t, err)
	assert.False(t, ok, "status guard must reject a transition from the wrong state")
}

func TestNextCandidateMatchOrdering(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	f.Judge(tr.ID, "j1")
	r2 := f.Round(tr.ID, func(r *models.Round) { r.Number = 2 })
	r1 := f.Round(tr.ID, func(r *models.Round) { r.Number = 1 })

	later := f.Match(r1.ID, func(m *models.Match) { m.ID = "b"; m.StartsAt = testutil.Ptr(int64(500)) })
	unscheduled := f.Match(r1.ID, func(m *models.Match) { m.ID = "c" })
	otherRound := f.Match(r2.ID, func(m *models.Match) { m.ID = "a" })
	noTracks := f.Match(r1.ID, func(m *models.Match) { m.ID = "0" })
	_ = noTracks
	for _, m := range []*models.Match{later, unscheduled, otherRound} {
		f.Track(m.ID, "p-"+m.ID)
	}

	got, err := s.NextCandidateMatch(ctx, "j1", f.Now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, unscheduled.ID, got.ID, "unscheduled matches come first, match without tracks is skipped")

	require.NoError(t, s.UpsertAssignment(ctx, &models.JudgeAssignment{JudgeID: "j1", MatchID: unscheduled.ID, Status: models.AssignmentSkipped, AssignedAt: f.Now, UpdatedAt: f.Now}))
	got, err = s.NextCandidateMatch(ctx, "j1", f.Now)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, later.ID, got.ID)

	got, err = s.NextCandidateMatch(ctx, "stranger", f.Now)
	require.NoError(t, err)
	assert.Nil(t, got, "judges off the roster see nothing")
}

func TestNextCandidateMatchRespectsDeadline(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)

	tr := f.Tournament()
	f.Judge(tr.ID, "j1")
	r := f.Round(tr.ID, func(r *models.Round) { r.JudgingDeadlineAt = testutil.Ptr(f.Now - 1) })
	m := f.Match(r.ID, nil)
	f.Track(m.ID, "p1")

	got, err := s.NextCandidateMatch(context.Background(), "j1", f.Now)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCloseMatchOnlyOnce(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	m := f.Match(f.Round(f.Tournament().ID, nil).ID, nil)
	tr := f.Track(m.ID, "p1")

	ok, err := s.CloseMatch(ctx, m.ID, models.MatchFinished, &tr.ID, f.Now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CloseMatch(ctx, m.ID, models.MatchTie, nil, f.Now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetMatch(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchFinished, got.Status)
	require.NotNil(t, got.WinnerMatchTrackID)
	assert.Equal(t, tr.ID, *got.WinnerMatchTrackID)
}

func TestEvaluationUpsertKeepsIdentity(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	r := f.Round(f.Tournament().ID, nil)
	m := f.Match(r.ID, nil)

	first := &models.Evaluation{
		ID: uuid.NewString(), JudgeID: "j1", TargetType: models.TargetMatch, TargetID: m.ID, RoundID: r.ID,
		Rubric:      models.Scorecards{"t1": {"flow": 5}},
		TrackTotals: models.TrackTotals{"t1": 50},
		TotalScore:  testutil.Ptr(50.0),
		CreatedAt:   100, UpdatedAt: 100,
	}
	require.NoError(t, s.UpsertEvaluation(ctx, first))

	second := *first
	second.ID = uuid.NewString()
	second.TrackTotals = models.TrackTotals{"t1": 70}
	second.TotalScore = testutil.Ptr(70.0)
	second.CreatedAt, second.UpdatedAt = 200, 200
	require.NoError(t, s.UpsertEvaluation(ctx, &second))

	got, err := s.GetEvaluation(ctx, "j1", models.TargetMatch, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, int64(100), got.CreatedAt)
	assert.Equal(t, int64(200), got.UpdatedAt)
	assert.InDelta(t, 70, got.TrackTotals["t1"], 1e-9)
	assert.Nil(t, got.Pass)

	list, err := s.ListEvaluations(ctx, models.TargetMatch, []string{m.ID, "other"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	empty, err := s.ListEvaluations(ctx, models.TargetMatch, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestHasEvaluatedMatchCoversSubmissions(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	r := f.Round(f.Tournament().ID, func(r *models.Round) { r.Scoring = models.ScoringPassFail })
	m := f.Match(r.ID, nil)
	f.Participant(m.ID, "p1", 1)
	sub := f.Submission(r.ID, "p1")

	ok, err := s.HasEvaluatedMatch(ctx, "j1", m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.UpsertEvaluation(ctx, &models.Evaluation{
		ID: uuid.NewString(), JudgeID: "j1", TargetType: models.TargetSubmission, TargetID: sub.ID, RoundID: r.ID,
		Pass: testutil.Ptr(true), TotalScore: testutil.Ptr(100.0), CreatedAt: f.Now, UpdatedAt: f.Now,
	}))

	ok, err = s.HasEvaluatedMatch(ctx, "j1", m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetEvaluation(ctx, "j1", models.TargetSubmission, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Pass)
	assert.True(t, *got.Pass)
}

func TestLeaderboardTables(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	r := f.Round(tr.ID, nil)
	m1 := f.Match(r.ID, nil)
	m2 := f.Match(r.ID, nil)
	a1 := f.Track(m1.ID, "alice")
	f.Track(m1.ID, "bob")
	a2 := f.Track(m2.ID, "alice")

	_, err := s.CloseMatch(ctx, m1.ID, models.MatchFinished, &a1.ID, f.Now)
	require.NoError(t, err)
	_, err = s.CloseMatch(ctx, m2.ID, models.MatchFinished, &a2.ID, f.Now)
	require.NoError(t, err)

	err = s.InTx(ctx, func(q store.Queries) error {
		if err := q.ReplaceTrackScores(ctx, []models.TrackScore{
			{MatchTrackID: a1.ID, MatchID: m1.ID, AvgScore: 80, JudgeCount: 2, RefreshedAt: f.Now},
		}); err != nil {
			return err
		}
		return q.RebuildTournamentWins(ctx, f.Now)
	})
	require.NoError(t, err)

	scores, err := s.ListTrackScores(ctx, m1.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 80, scores[0].AvgScore, 1e-9)

	wins, err := s.ListTournamentWins(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, "alice", wins[0].ParticipantID)
	assert.Equal(t, 2, wins[0].Wins)
	assert.Equal(t, f.Now, wins[0].RefreshedAt)
}

func TestInTxRollsBack(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	boom := errors.New("boom")
	err := s.InTx(ctx, func(q store.Queries) error {
		if err := q.AddTournamentJudge(ctx, tr.ID, "j1", f.Now); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.IsTournamentJudge(ctx, tr.ID, "j1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEliminationSpansTournament(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	ctx := context.Background()

	tr := f.Tournament()
	m := f.Match(f.Round(tr.ID, nil).ID, nil)
	f.Participant(m.ID, "p1", 1)

	out := models.ResultEliminated
	require.NoError(t, s.SetParticipantResult(ctx, m.ID, "p1", &out))

	ok, err := s.IsEliminated(ctx, tr.ID, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsEliminated(ctx, f.Tournament().ID, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
}
