// Package finalize closes matches: it aggregates evaluations under the
// round strategy and commits a winner or a tie.
package finalize

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/lifecycle"
	"github.com/art0tod/battle-rap-v2-sub000/internal/metrics"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
)

// Refresher rebuilds the leaderboard views after a match closes.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type Engine struct {
	store        store.JudgingStore
	refresher    Refresher
	now          func() time.Time
	tieTolerance float64
}

func NewEngine(s store.JudgingStore, refresher Refresher, now func() time.Time, tieTolerance float64) *Engine {
	if now == nil {
		now = time.Now
	}
	if tieTolerance <= 0 {
		tieTolerance = DefaultTieTolerance
	}
	return &Engine{store: s, refresher: refresher, now: now, tieTolerance: tieTolerance}
}

type Result struct {
	Match   models.Match `json:"match"`
	Outcome Outcome      `json:"outcome"`
}

// Finalize closes the match. It fails with a readiness error when tracks or
// evaluations are missing and with match_terminal when the match is
// already closed; neither case changes any state.
func (e *Engine) Finalize(ctx context.Context, matchID string) (*Result, error) {
	logger.Debug.Printf("Finalizing match %s", matchID)
	now := e.now().Unix()

	var (
		res   *Result
		round *models.Round
	)
	err := e.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
		}
		if err := lifecycle.CheckMatchOpen(m); err != nil {
			return err
		}
		r, err := q.GetRound(ctx, m.RoundID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.Newf(apperr.KindNotFound, "round %s not found", m.RoundID)
		}
		round = r

		tracks, err := readyTracks(ctx, q, m)
		if err != nil {
			return err
		}
		ballots, err := collectBallots(ctx, q, r, m, tracks)
		if err != nil {
			return err
		}

		outcome := Decide(r.Strategy, r.Scoring, ballots, e.tieTolerance)

		status := models.MatchFinished
		var winner *string
		if outcome.Tie {
			status = models.MatchTie
		} else {
			winner = &outcome.Winner
		}

		ok, err := q.CloseMatch(ctx, m.ID, status, winner, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindMatchTerminal, "match was finalized concurrently").
				With("match_id", m.ID)
		}

		if status == models.MatchFinished && r.Kind == models.RoundBracket {
			if err := eliminateLosers(ctx, q, m.ID, tracks, outcome.Winner); err != nil {
				return err
			}
		}

		m.Status = status
		m.WinnerMatchTrackID = winner
		m.UpdatedAt = now
		res = &Result{Match: *m, Outcome: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.FinalizedMatchesTotal.WithLabelValues(string(round.Strategy), string(res.Match.Status)).Inc()
	logger.Info.Printf("Match %s finalized as %s", res.Match.ID, res.Match.Status)

	if e.refresher != nil {
		if err := e.refresher.Refresh(ctx); err != nil {
			logger.Error.Printf("Failed to refresh leaderboard after match %s: %v", res.Match.ID, err)
		}
	}
	return res, nil
}

// readyTracks enforces that every participant still in the match has a
// track.
func readyTracks(ctx context.Context, q store.Queries, m *models.Match) ([]models.MatchTrack, error) {
	tracks, err := q.ListMatchTracks(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, apperr.New(apperr.KindNoTracks, "match has no submitted tracks").
			With("match_id", m.ID)
	}

	participants, err := q.ListMatchParticipants(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	has := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		has[t.ParticipantID] = true
	}
	var missing []string
	for _, p := range participants {
		if !p.Eliminated() && !has[p.ParticipantID] {
			missing = append(missing, p.ParticipantID)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.New(apperr.KindTracksMissing, "participants have not submitted tracks").
			With("match_id", m.ID).
			With("participant_ids", missing)
	}
	return tracks, nil
}

// collectBallots gathers per-track ballots. Head-to-head rounds read the
// match evaluations; qualifier rounds read the evaluations of each
// participant's submission in the round. Every track must carry at least
// one ballot.
func collectBallots(ctx context.Context, q store.Queries, r *models.Round, m *models.Match, tracks []models.MatchTrack) (map[string][]Ballot, error) {
	ballots := make(map[string][]Ballot, len(tracks))
	count := 0

	if r.TargetType() == models.TargetMatch {
		evals, err := q.ListEvaluations(ctx, models.TargetMatch, []string{m.ID})
		if err != nil {
			return nil, err
		}
		for _, ev := range evals {
			for _, t := range tracks {
				total, ok := ev.TrackTotals[t.ID]
				if !ok {
					continue
				}
				ballots[t.ID] = append(ballots[t.ID], Ballot{JudgeID: ev.JudgeID, Total: total})
			}
		}
		count = len(evals)
	} else {
		trackBySubmission := make(map[string]string, len(tracks))
		ids := make([]string, 0, len(tracks))
		for _, t := range tracks {
			sub, err := q.GetParticipantSubmission(ctx, r.ID, t.ParticipantID)
			if err != nil {
				return nil, err
			}
			if sub == nil {
				continue
			}
			trackBySubmission[sub.ID] = t.ID
			ids = append(ids, sub.ID)
		}
		evals, err := q.ListEvaluations(ctx, models.TargetSubmission, ids)
		if err != nil {
			return nil, err
		}
		for _, ev := range evals {
			b := Ballot{JudgeID: ev.JudgeID, Pass: ev.Pass, Score: ev.Score}
			if ev.TotalScore != nil {
				b.Total = *ev.TotalScore
			}
			trackID := trackBySubmission[ev.TargetID]
			ballots[trackID] = append(ballots[trackID], b)
		}
		count = len(evals)
	}

	if count == 0 {
		return nil, apperr.New(apperr.KindNoEvaluations, "no evaluations recorded for this match").
			With("match_id", m.ID)
	}

	// an unjudged track has no score to lose with
	var unjudged []string
	for _, t := range tracks {
		if len(ballots[t.ID]) == 0 {
			unjudged = append(unjudged, t.ID)
		}
	}
	if len(unjudged) > 0 {
		return nil, apperr.New(apperr.KindNoEvaluations, "some tracks have not been evaluated yet").
			With("match_id", m.ID).
			With("match_track_ids", unjudged)
	}
	return ballots, nil
}

func eliminateLosers(ctx context.Context, q store.Queries, matchID string, tracks []models.MatchTrack, winner string) error {
	out := models.ResultEliminated
	for _, t := range tracks {
		if t.ID == winner {
			continue
		}
		if err := q.SetParticipantResult(ctx, matchID, t.ParticipantID, &out); err != nil {
			return err
		}
	}
	return nil
}
