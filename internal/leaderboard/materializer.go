// Package leaderboard maintains the per-track score and per-tournament win
// views and serves standings from them.
package leaderboard

import (
	"context"
	"sort"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/metrics"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
	"github.com/art0tod/battle-rap-v2-sub000/internal/visibility"
)

type Materializer struct {
	store store.JudgingStore
	cache SnapshotCache
	now   func() time.Time
}

func NewMaterializer(s store.JudgingStore, cache SnapshotCache, now func() time.Time) *Materializer {
	if cache == nil {
		cache = NopCache{}
	}
	if now == nil {
		now = time.Now
	}
	return &Materializer{store: s, cache: cache, now: now}
}

type trackAcc struct {
	matchID string
	sum     float64
	n       int
}

// Refresh recomputes both views from scratch in one transaction, so readers
// see either the old or the new rows, never a mix.
func (m *Materializer) Refresh(ctx context.Context) error {
	start := time.Now()
	now := m.now().Unix()

	err := m.store.InTx(ctx, func(q store.Queries) error {
		evals, err := q.ListAllEvaluations(ctx)
		if err != nil {
			return err
		}
		links, err := q.ListSubmissionTracks(ctx)
		if err != nil {
			return err
		}

		rows := trackAverages(evals, links, now)
		if err := q.ReplaceTrackScores(ctx, rows); err != nil {
			return err
		}
		return q.RebuildTournamentWins(ctx, now)
	})
	if err != nil {
		return err
	}

	if err := m.cache.Invalidate(ctx); err != nil {
		logger.Error.Printf("Failed to invalidate leaderboard cache: %v", err)
	}

	elapsed := time.Since(start)
	metrics.LeaderboardRefreshDuration.Observe(elapsed.Seconds())
	logger.Info.Printf("Leaderboard refreshed in %s", elapsed)
	return nil
}

// trackAverages folds match evaluations through their per-track totals and
// submission evaluations through the participant's track in the same round.
func trackAverages(evals []models.Evaluation, links []models.SubmissionTrack, now int64) []models.TrackScore {
	bySubmission := make(map[string][]models.SubmissionTrack)
	for _, l := range links {
		bySubmission[l.SubmissionID] = append(bySubmission[l.SubmissionID], l)
	}

	acc := make(map[string]*trackAcc)
	add := func(trackID, matchID string, v float64) {
		a, ok := acc[trackID]
		if !ok {
			a = &trackAcc{matchID: matchID}
			acc[trackID] = a
		}
		a.sum += v
		a.n++
	}

	for _, ev := range evals {
		switch ev.TargetType {
		case models.TargetMatch:
			for trackID, total := range ev.TrackTotals {
				add(trackID, ev.TargetID, total)
			}
		case models.TargetSubmission:
			if ev.TotalScore == nil {
				continue
			}
			for _, l := range bySubmission[ev.TargetID] {
				add(l.MatchTrackID, l.MatchID, *ev.TotalScore)
			}
		}
	}

	rows := make([]models.TrackScore, 0, len(acc))
	for trackID, a := range acc {
		rows = append(rows, models.TrackScore{
			MatchTrackID: trackID,
			MatchID:      a.matchID,
			AvgScore:     a.sum / float64(a.n),
			JudgeCount:   a.n,
			RefreshedAt:  now,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].MatchTrackID < rows[j].MatchTrackID })
	return rows
}

// Standings sums wins over the rounds whose results are visible right now
// and ranks participants by them. Equal wins share a rank.
func (m *Materializer) Standings(ctx context.Context, tournamentID string) ([]models.Standing, error) {
	t, err := m.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "tournament %s not found", tournamentID)
	}

	rows, err := m.winRows(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	rounds, err := m.store.ListTournamentRounds(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	now := m.now()
	visible := make(map[string]bool, len(rounds))
	for i := range rounds {
		visible[rounds[i].ID] = visibility.ResultsVisible(&rounds[i], now)
	}

	wins := make(map[string]int)
	for _, r := range rows {
		if visible[r.RoundID] {
			wins[r.ParticipantID] += r.Wins
		}
	}
	return rank(wins), nil
}

func (m *Materializer) winRows(ctx context.Context, tournamentID string) ([]models.TournamentWin, error) {
	rows, gen, hit, err := m.cache.Load(ctx, tournamentID)
	if err != nil {
		logger.Error.Printf("Leaderboard cache read failed: %v", err)
	}
	if hit {
		return rows, nil
	}

	rows, err = m.store.ListTournamentWins(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := m.cache.Store(ctx, tournamentID, gen, rows); err != nil {
		logger.Error.Printf("Leaderboard cache write failed: %v", err)
	}
	return rows, nil
}

func rank(wins map[string]int) []models.Standing {
	out := make([]models.Standing, 0, len(wins))
	for id, n := range wins {
		out = append(out, models.Standing{ParticipantID: id, Wins: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	for i := range out {
		if i > 0 && out[i].Wins == out[i-1].Wins {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}

type TrackScoresView struct {
	MatchID        string              `json:"match_id"`
	ResultsVisible bool                `json:"results_visible"`
	Scores         []models.TrackScore `json:"scores"`
}

// TrackScores returns the match's track averages, or an empty list while
// the round's results are hidden.
func (m *Materializer) TrackScores(ctx context.Context, matchID string) (*TrackScoresView, error) {
	match, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
	}
	r, err := m.store.GetRound(ctx, match.RoundID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "round %s not found", match.RoundID)
	}

	view := &TrackScoresView{MatchID: match.ID, Scores: []models.TrackScore{}}
	if !visibility.ResultsVisible(r, m.now()) {
		return view, nil
	}
	view.ResultsVisible = true

	scores, err := m.store.ListTrackScores(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	view.Scores = append(view.Scores, scores...)
	return view, nil
}
