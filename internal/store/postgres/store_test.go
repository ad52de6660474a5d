package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/testutil"
)

// setupTestDB starts a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, testutil.MigrationsDir())
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestConvertPlaceholders(t *testing.T) {
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b IN ($2, $3)", convertPlaceholders("SELECT 1 WHERE a = ? AND b IN (?, ?)"))
	assert.Equal(t, "SELECT 1", convertPlaceholders("SELECT 1"))
}

func TestPostgresJudgingFlow(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	f := testutil.NewFixture(t, s, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))

	tr := f.Tournament()
	f.Judge(tr.ID, "j1")
	r := f.Round(tr.ID, nil)
	f.Criteria(r.ID)
	m := f.Match(r.ID, nil)
	a := f.Track(m.ID, "alice")
	f.Track(m.ID, "bob")

	t.Run("duplicate tournament is a conflict", func(t *testing.T) {
		err := s.CreateTournament(ctx, tr)
		assert.True(t, apperr.Is(err, apperr.KindConflict), err)
	})

	t.Run("candidate selection", func(t *testing.T) {
		got, err := s.NextCandidateMatch(ctx, "j1", f.Now)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, m.ID, got.ID)
	})

	t.Run("assignment upsert", func(t *testing.T) {
		as := &models.JudgeAssignment{JudgeID: "j1", MatchID: m.ID, Status: models.AssignmentAssigned, AssignedAt: f.Now, UpdatedAt: f.Now}
		require.NoError(t, s.UpsertAssignment(ctx, as))
		require.NoError(t, s.UpsertAssignment(ctx, as))

		list, err := s.ListJudgeAssignments(ctx, "j1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("evaluation round trip", func(t *testing.T) {
		ev := &models.Evaluation{
			ID: uuid.NewString(), JudgeID: "j1", TargetType: models.TargetMatch, TargetID: m.ID, RoundID: r.ID,
			Rubric:      models.Scorecards{a.ID: {"flow": 8, "bars": 6}},
			TrackTotals: models.TrackTotals{a.ID: 70},
			TotalScore:  testutil.Ptr(70.0),
			CreatedAt:   f.Now, UpdatedAt: f.Now,
		}
		require.NoError(t, s.UpsertEvaluation(ctx, ev))

		list, err := s.ListEvaluations(ctx, models.TargetMatch, []string{m.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.InDelta(t, 8, list[0].Rubric[a.ID]["flow"], 1e-9)
	})

	t.Run("close and rebuild wins", func(t *testing.T) {
		ok, err := s.CloseMatch(ctx, m.ID, models.MatchFinished, &a.ID, f.Now)
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.RebuildTournamentWins(ctx, f.Now))
		wins, err := s.ListTournamentWins(ctx, tr.ID)
		require.NoError(t, err)
		require.Len(t, wins, 1)
		assert.Equal(t, "alice", wins[0].ParticipantID)
		assert.Equal(t, 1, wins[0].Wins)
	})
}
