package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/testutil"
)

var now = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func ptr(v int64) *int64 { return &v }

func TestCheckSubmissionWindow(t *testing.T) {
	tests := []struct {
		name  string
		round models.Round
		kind  apperr.Kind
	}{
		{name: "open without deadline", round: models.Round{Status: models.RoundSubmission}},
		{name: "open on the deadline second", round: models.Round{Status: models.RoundSubmission, SubmissionDeadlineAt: ptr(now.Unix())}},
		{name: "wrong status", round: models.Round{Status: models.RoundJudging}, kind: apperr.KindSubmissionWindowClosed},
		{name: "draft", round: models.Round{Status: models.RoundDraft}, kind: apperr.KindSubmissionWindowClosed},
		{name: "deadline passed", round: models.Round{Status: models.RoundSubmission, SubmissionDeadlineAt: ptr(now.Unix() - 1)}, kind: apperr.KindSubmissionDeadlinePassed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSubmissionWindow(&tt.round, now)
			if tt.kind == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, tt.kind), err)
		})
	}
}

func TestCheckJudgingWindow(t *testing.T) {
	assert.NoError(t, CheckJudgingWindow(&models.Round{Status: models.RoundJudging}, now))
	assert.NoError(t, CheckJudgingWindow(&models.Round{Status: models.RoundJudging, JudgingDeadlineAt: ptr(now.Unix())}, now))

	err := CheckJudgingWindow(&models.Round{Status: models.RoundSubmission}, now)
	assert.True(t, apperr.Is(err, apperr.KindJudgingWindowClosed))

	err = CheckJudgingWindow(&models.Round{Status: models.RoundJudging, JudgingDeadlineAt: ptr(now.Unix() - 1)}, now)
	assert.True(t, apperr.Is(err, apperr.KindJudgingWindowClosed))
}

func TestCheckMatchOpen(t *testing.T) {
	assert.NoError(t, CheckMatchOpen(&models.Match{Status: models.MatchJudging}))
	for _, s := range models.TerminalMatchStatuses {
		assert.True(t, apperr.Is(CheckMatchOpen(&models.Match{Status: s}), apperr.KindMatchTerminal), s)
	}
}

func TestTransitionsAreForwardOnly(t *testing.T) {
	assert.True(t, CanAdvanceRound(models.RoundDraft, models.RoundSubmission))
	assert.True(t, CanAdvanceRound(models.RoundJudging, models.RoundFinished))
	assert.False(t, CanAdvanceRound(models.RoundJudging, models.RoundSubmission))
	assert.False(t, CanAdvanceRound(models.RoundDraft, models.RoundJudging))
	assert.False(t, CanAdvanceRound(models.RoundFinished, models.RoundFinished))

	assert.True(t, CanAdvanceMatch(models.MatchScheduled, models.MatchSubmission))
	assert.True(t, CanAdvanceMatch(models.MatchSubmission, models.MatchJudging))
	assert.False(t, CanAdvanceMatch(models.MatchJudging, models.MatchFinished))
	assert.False(t, CanAdvanceMatch(models.MatchJudging, models.MatchSubmission))
}

func TestAdvanceRoundCascadesMatches(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	m := NewMachine(s, func() time.Time { return now })
	ctx := context.Background()

	r := f.Round(f.Tournament().ID, func(r *models.Round) { r.Status = models.RoundDraft })
	scheduled := f.Match(r.ID, func(m *models.Match) { m.Status = models.MatchScheduled })
	cancelled := f.Match(r.ID, func(m *models.Match) { m.Status = models.MatchCancelled })

	got, err := m.AdvanceRound(ctx, r.ID, models.RoundSubmission)
	require.NoError(t, err)
	assert.Equal(t, models.RoundSubmission, got.Status)

	mt, err := s.GetMatch(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchSubmission, mt.Status)

	_, err = m.AdvanceRound(ctx, r.ID, models.RoundJudging)
	require.NoError(t, err)

	mt, err = s.GetMatch(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchJudging, mt.Status)

	mt, err = s.GetMatch(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, mt.Status, "terminal matches stay put")

	_, err = m.AdvanceRound(ctx, r.ID, models.RoundSubmission)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition))

	_, err = m.AdvanceRound(ctx, "missing", models.RoundSubmission)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdvanceAndCancelMatch(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	m := NewMachine(s, func() time.Time { return now })
	ctx := context.Background()

	mt := f.Match(f.Round(f.Tournament().ID, nil).ID, func(m *models.Match) { m.Status = models.MatchScheduled })

	got, err := m.AdvanceMatch(ctx, mt.ID, models.MatchSubmission)
	require.NoError(t, err)
	assert.Equal(t, models.MatchSubmission, got.Status)

	_, err = m.AdvanceMatch(ctx, mt.ID, models.MatchFinished)
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "finished is reached through finalize")

	require.NoError(t, m.CancelMatch(ctx, mt.ID))
	assert.True(t, apperr.Is(m.CancelMatch(ctx, mt.ID), apperr.KindMatchTerminal))

	_, err = m.AdvanceMatch(ctx, mt.ID, models.MatchJudging)
	assert.True(t, apperr.Is(err, apperr.KindMatchTerminal))
}

func TestEliminateParticipant(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	m := NewMachine(s, func() time.Time { return now })
	ctx := context.Background()

	tr := f.Tournament()
	mt := f.Match(f.Round(tr.ID, nil).ID, nil)
	f.Participant(mt.ID, "p1", 1)

	require.NoError(t, m.EliminateParticipant(ctx, mt.ID, "p1"))
	ok, err := s.IsEliminated(ctx, tr.ID, "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, apperr.Is(m.EliminateParticipant(ctx, mt.ID, "ghost"), apperr.KindNotFound))
}

func TestJudgeRoster(t *testing.T) {
	s := testutil.NewStore(t)
	f := testutil.NewFixture(t, s, now)
	m := NewMachine(s, func() time.Time { return now })
	ctx := context.Background()

	tr := f.Tournament()
	require.NoError(t, m.AddJudge(ctx, tr.ID, "j1"))
	require.NoError(t, m.AddJudge(ctx, tr.ID, "j1"))

	ok, err := s.IsTournamentJudge(ctx, tr.ID, "j1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, m.RemoveJudge(ctx, tr.ID, "j1"))
	ok, err = s.IsTournamentJudge(ctx, tr.ID, "j1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, apperr.Is(m.AddJudge(ctx, "missing", "j1"), apperr.KindNotFound))
}
