package visibility

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

func TestResultsVisible(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *int64 {
		v := now.Add(d).Unix()
		return &v
	}

	tests := []struct {
		name  string
		round models.Round
		want  bool
	}{
		{"finished round", models.Round{Status: models.RoundFinished}, true},
		{"no deadline", models.Round{Status: models.RoundJudging}, false},
		{"deadline ahead", models.Round{Status: models.RoundJudging, JudgingDeadlineAt: at(time.Hour)}, false},
		{"deadline is now", models.Round{Status: models.RoundJudging, JudgingDeadlineAt: at(0)}, false},
		{"deadline passed", models.Round{Status: models.RoundJudging, JudgingDeadlineAt: at(-time.Second)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultsVisible(&tt.round, now))
		})
	}
}

func TestApplyHidesOutcome(t *testing.T) {
	winner := "track-a"
	avg, n := 82.5, 3
	out := models.ResultEliminated
	v := &MatchView{
		Match:        models.Match{ID: "m", WinnerMatchTrackID: &winner, Status: models.MatchFinished},
		Participants: []models.MatchParticipant{{ParticipantID: "bob", ResultStatus: &out}},
		Tracks:       []TrackView{{MatchTrack: models.MatchTrack{ID: "track-a"}, AvgScore: &avg, JudgeCount: &n}},
	}

	Apply(v, &models.Round{Status: models.RoundJudging}, time.Now())

	assert.False(t, v.ResultsVisible)
	assert.Nil(t, v.WinnerMatchTrackID)
	assert.Nil(t, v.Tracks[0].AvgScore)
	assert.Nil(t, v.Tracks[0].JudgeCount)
	assert.Nil(t, v.Participants[0].ResultStatus)
	assert.Equal(t, models.MatchJudging, v.Status)
}

func TestApplyMasksDecidedStatus(t *testing.T) {
	hidden := &models.Round{Status: models.RoundJudging}
	shown := &models.Round{Status: models.RoundFinished}

	tests := []struct {
		name   string
		status models.MatchStatus
		round  *models.Round
		want   models.MatchStatus
	}{
		{"tie before reveal", models.MatchTie, hidden, models.MatchJudging},
		{"finished before reveal", models.MatchFinished, hidden, models.MatchJudging},
		{"cancelled stays cancelled", models.MatchCancelled, hidden, models.MatchCancelled},
		{"submission untouched", models.MatchSubmission, hidden, models.MatchSubmission},
		{"tie after reveal", models.MatchTie, shown, models.MatchTie},
		{"finished after reveal", models.MatchFinished, shown, models.MatchFinished},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &MatchView{Match: models.Match{ID: "m", Status: tt.status}}
			Apply(v, tt.round, time.Now())
			assert.Equal(t, tt.want, v.Status)
		})
	}
}

func TestReaderGatesByDeadline(t *testing.T) {
	s := testutil.NewStore(t)
	clock := &testutil.Clock{T: time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)}
	f := testutil.NewFixture(t, s, clock.T)
	ctx := context.Background()
	rd := NewReader(s, clock.Now)

	deadline := f.Now + 60
	r := f.Round(f.Tournament().ID, func(r *models.Round) { r.JudgingDeadlineAt = &deadline })
	f.Criteria(r.ID)
	m := f.Match(r.ID, nil)
	a := f.Track(m.ID, "alice")
	f.Track(m.ID, "bob")

	closed, err := s.CloseMatch(ctx, m.ID, models.MatchFinished, &a.ID, f.Now)
	require.NoError(t, err)
	require.True(t, closed)
	out := models.ResultEliminated
	require.NoError(t, s.SetParticipantResult(ctx, m.ID, "bob", &out))
	require.NoError(t, s.ReplaceTrackScores(ctx, []models.TrackScore{
		{MatchTrackID: a.ID, MatchID: m.ID, AvgScore: 77, JudgeCount: 2, RefreshedAt: f.Now},
	}))

	hidden, err := rd.MatchResult(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, hidden.ResultsVisible)
	assert.Nil(t, hidden.WinnerMatchTrackID)
	assert.Equal(t, models.MatchJudging, hidden.Status)
	for _, tv := range hidden.Tracks {
		assert.Nil(t, tv.AvgScore)
	}

	overview, err := rd.RoundOverview(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, overview.ResultsVisible)
	require.Len(t, overview.Matches, 1)
	assert.Nil(t, overview.Matches[0].WinnerMatchTrackID)
	assert.Len(t, overview.Criteria, 2)

	clock.Advance(2 * time.Minute)

	shown, err := rd.MatchResult(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, shown.ResultsVisible)
	assert.Equal(t, models.MatchFinished, shown.Status)
	require.NotNil(t, shown.WinnerMatchTrackID)
	assert.Equal(t, a.ID, *shown.WinnerMatchTrackID)
	for _, tv := range shown.Tracks {
		if tv.ID == a.ID {
			require.NotNil(t, tv.AvgScore)
			assert.InDelta(t, 77, *tv.AvgScore, 1e-9)
		} else {
			assert.Nil(t, tv.AvgScore, "no score row yet")
		}
	}
	for _, p := range shown.Participants {
		if p.ParticipantID == "bob" {
			assert.True(t, p.Eliminated())
		}
	}

	_, err = rd.MatchResult(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = rd.RoundOverview(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
