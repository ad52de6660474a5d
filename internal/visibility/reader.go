package visibility

import (
	"context"
	"time"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
)

// Reader is the read path for rounds and matches; every view it returns has
// passed through Apply.
type Reader struct {
	store store.Queries
	now   func() time.Time
}

func NewReader(s store.Queries, now func() time.Time) *Reader {
	if now == nil {
		now = time.Now
	}
	return &Reader{store: s, now: now}
}

type RoundOverview struct {
	Round          models.Round             `json:"round"`
	Criteria       []models.RubricCriterion `json:"criteria"`
	Matches        []MatchView              `json:"matches"`
	ResultsVisible bool                     `json:"results_visible"`
}

func (rd *Reader) RoundOverview(ctx context.Context, roundID string) (*RoundOverview, error) {
	r, err := rd.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "round %s not found", roundID)
	}

	criteria, err := rd.store.ListRubricCriteria(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	matches, err := rd.store.ListRoundMatches(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	now := rd.now()
	out := &RoundOverview{
		Round:          *r,
		Criteria:       criteria,
		Matches:        make([]MatchView, 0, len(matches)),
		ResultsVisible: ResultsVisible(r, now),
	}
	for _, m := range matches {
		v, err := rd.matchView(ctx, m)
		if err != nil {
			return nil, err
		}
		Apply(v, r, now)
		out.Matches = append(out.Matches, *v)
	}
	return out, nil
}

func (rd *Reader) MatchResult(ctx context.Context, matchID string) (*MatchView, error) {
	m, err := rd.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "match %s not found", matchID)
	}
	r, err := rd.store.GetRound(ctx, m.RoundID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.Newf(apperr.KindNotFound, "round %s not found", m.RoundID)
	}

	v, err := rd.matchView(ctx, *m)
	if err != nil {
		return nil, err
	}
	Apply(v, r, rd.now())
	return v, nil
}

func (rd *Reader) matchView(ctx context.Context, m models.Match) (*MatchView, error) {
	participants, err := rd.store.ListMatchParticipants(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	tracks, err := rd.store.ListMatchTracks(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	scores, err := rd.store.ListTrackScores(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	byTrack := make(map[string]models.TrackScore, len(scores))
	for _, s := range scores {
		byTrack[s.MatchTrackID] = s
	}

	v := &MatchView{Match: m, Participants: participants, Tracks: make([]TrackView, 0, len(tracks))}
	for _, t := range tracks {
		tv := TrackView{MatchTrack: t}
		if s, ok := byTrack[t.ID]; ok {
			avg, n := s.AvgScore, s.JudgeCount
			tv.AvgScore, tv.JudgeCount = &avg, &n
		}
		v.Tracks = append(v.Tracks, tv)
	}
	return v, nil
}
