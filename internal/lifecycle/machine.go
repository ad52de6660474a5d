package lifecycle

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
)

// Machine applies administrative transitions to rounds, matches, participants
// and judge rosters.
type Machine struct {
	store store.JudgingStore
	now   func() time.Time
}

func NewMachine(s store.JudgingStore, now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{store: s, now: now}
}

// AdvanceRound moves a round one step forward. Entering submission or
// judging drags the round's open matches along with it.
func (m *Machine) AdvanceRound(ctx context.Context, roundID string, to models.RoundStatus) (*models.Round, error) {
	logger.Debug.Printf("Advancing round %s to %s", roundID, to)
	now := m.now().Unix()

	var round *models.Round
	err := m.store.InTx(ctx, func(q store.Queries) error {
		r, err := q.GetRound(ctx, roundID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.Newf(apperr.KindNotFound, "round %s not found", roundID)
		}
		if !CanAdvanceRound(r.Status, to) {
			return apperr.Newf(apperr.KindInvalidTransition, "round cannot move from %s to %s", r.Status, to).
				With("round_id", r.ID)
		}
		ok, err := q.UpdateRoundStatus(ctx, r.ID, r.Status, to)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindConflict, "round status changed concurrently").With("round_id", r.ID)
		}

		matches, err := q.ListRoundMatches(ctx, r.ID)
		if err != nil {
			return err
		}
		for _, match := range matches {
			if err := cascadeMatch(ctx, q, match, to, now); err != nil {
				return err
			}
		}

		r.Status = to
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Round %s is now %s", round.ID, round.Status)
	return round, nil
}

func cascadeMatch(ctx context.Context, q store.Queries, match models.Match, roundTo models.RoundStatus, now int64) error {
	var steps []models.MatchStatus
	switch roundTo {
	case models.RoundSubmission:
		if match.Status == models.MatchScheduled {
			steps = []models.MatchStatus{models.MatchSubmission}
		}
	case models.RoundJudging:
		switch match.Status {
		case models.MatchScheduled:
			steps = []models.MatchStatus{models.MatchSubmission, models.MatchJudging}
		case models.MatchSubmission:
			steps = []models.MatchStatus{models.MatchJudging}
		}
	}

	from := match.Status
	for _, to := range steps {
		if _, err := q.UpdateMatchStatus(ctx, match.ID, from, to, now); err != nil {
			return err
		}
		from = to
	}
	return nil
}

func (m *Machine) AdvanceMatch(ctx context.Context, matchID string, to models.MatchStatus) (*models.Match, error) {
	logger.Debug.Printf("Advancing match %s to %s", matchID, to)

	var match *models.Match
	err := m.store.InTx(ctx, func(q store.Queries) error {
		mt, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if mt == nil {
			return apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
		}
		if err := CheckMatchOpen(mt); err != nil {
			return err
		}
		if !CanAdvanceMatch(mt.Status, to) {
			return apperr.Newf(apperr.KindInvalidTransition, "match cannot move from %s to %s", mt.Status, to).
				With("match_id", mt.ID)
		}
		ok, err := q.UpdateMatchStatus(ctx, mt.ID, mt.Status, to, m.now().Unix())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindConflict, "match status changed concurrently").With("match_id", mt.ID)
		}
		mt.Status = to
		match = mt
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Match %s is now %s", match.ID, match.Status)
	return match, nil
}

func (m *Machine) CancelMatch(ctx context.Context, matchID string) error {
	logger.Debug.Printf("Cancelling match %s", matchID)

	err := m.store.InTx(ctx, func(q store.Queries) error {
		mt, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if mt == nil {
			return apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
		}
		if err := CheckMatchOpen(mt); err != nil {
			return err
		}
		ok, err := q.CloseMatch(ctx, mt.ID, models.MatchCancelled, nil, m.now().Unix())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.KindMatchTerminal, "match was closed concurrently").With("match_id", mt.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Match %s cancelled", matchID)
	return nil
}

// EliminateParticipant marks the participant eliminated in the match, which
// blocks their submissions for the rest of the tournament.
func (m *Machine) EliminateParticipant(ctx context.Context, matchID, participantID string) error {
	err := m.store.InTx(ctx, func(q store.Queries) error {
		p, err := q.GetMatchParticipant(ctx, matchID, participantID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.Newf(apperr.KindNotFound, "participant %s is not in match %s", participantID, matchID)
		}
		status := models.ResultEliminated
		return q.SetParticipantResult(ctx, matchID, participantID, &status)
	})
	if err != nil {
		return err
	}

	logger.Info.Printf("Participant %s eliminated in match %s", participantID, matchID)
	return nil
}

func (m *Machine) AddJudge(ctx context.Context, tournamentID, userID string) error {
	t, err := m.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t == nil {
		return apperr.Newf(apperr.KindNotFound, "tournament %s not found", tournamentID)
	}
	if err := m.store.AddTournamentJudge(ctx, tournamentID, userID, m.now().Unix()); err != nil {
		return err
	}
	logger.Info.Printf("Judge %s added to tournament %s", userID, tournamentID)
	return nil
}

func (m *Machine) RemoveJudge(ctx context.Context, tournamentID, userID string) error {
	if err := m.store.RemoveTournamentJudge(ctx, tournamentID, userID); err != nil {
		return err
	}
	logger.Info.Printf("Judge %s removed from tournament %s", userID, tournamentID)
	return nil
}
