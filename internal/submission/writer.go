// Package submission accepts participants' tracks: qualifier entries and
// head-to-head match tracks.
package submission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/lifecycle"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
	"github.com/art0tod/battle-rap-v2-sub000/internal/store"
)

type Writer struct {
	store store.JudgingStore
	now   func() time.Time
}

func NewWriter(s store.JudgingStore, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{store: s, now: now}
}

// SubmitEntry stores the participant's single track for a qualifier round.
// Submitting again replaces it and puts it back into moderation. When the
// participant is seeded in a match of the round, the entry also becomes
// their track in that match.
func (w *Writer) SubmitEntry(ctx context.Context, participantID string, in models.SubmissionInput) (*models.Submission, error) {
	logger.Debug.Printf("Participant %s submitting entry for round %s", participantID, in.RoundID)
	if err := in.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, err.Error())
	}
	now := w.now()

	var stored *models.Submission
	err := w.store.InTx(ctx, func(q store.Queries) error {
		r, err := q.GetRound(ctx, in.RoundID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.Newf(apperr.KindNotFound, "round %s not found", in.RoundID)
		}
		if r.Kind != models.RoundQualifier1 && r.Kind != models.RoundQualifier2 {
			return apperr.Newf(apperr.KindInvalidInput, "%s rounds take match tracks, not entries", r.Kind).
				With("round_id", r.ID)
		}
		if err := checkNotEliminated(ctx, q, r.TournamentID, participantID); err != nil {
			return err
		}
		if err := lifecycle.CheckSubmissionWindow(r, now); err != nil {
			return err
		}
		if err := checkMedia(ctx, q, in.AudioID, participantID); err != nil {
			return err
		}

		m, err := q.GetRoundMatchForParticipant(ctx, r.ID, participantID)
		if err != nil {
			return err
		}
		if m != nil {
			if err := lifecycle.CheckMatchOpen(m); err != nil {
				return err
			}
		}

		submittedAt := now.Unix()
		s := &models.Submission{
			ID:            uuid.NewString(),
			RoundID:       r.ID,
			ParticipantID: participantID,
			AudioID:       in.AudioID,
			Lyrics:        in.Lyrics,
			Status:        models.SubmissionSubmitted,
			SubmittedAt:   &submittedAt,
			UpdatedAt:     submittedAt,
		}
		if err := q.UpsertSubmission(ctx, s); err != nil {
			return err
		}

		// the entry is also the participant's track in their qualifier match
		if m != nil {
			err := q.UpsertMatchTrack(ctx, &models.MatchTrack{
				ID:            uuid.NewString(),
				MatchID:       m.ID,
				ParticipantID: participantID,
				AudioID:       in.AudioID,
				Lyrics:        in.Lyrics,
				SubmittedAt:   submittedAt,
			})
			if err != nil {
				return err
			}
		}

		stored, err = q.GetParticipantSubmission(ctx, r.ID, participantID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Stored submission %s for participant %s", stored.ID, participantID)
	return stored, nil
}

// SubmitMatchTrack stores the participant's track for a match they are
// seeded in. One track per participant per match; a resubmission replaces it.
func (w *Writer) SubmitMatchTrack(ctx context.Context, participantID string, in models.TrackInput) (*models.MatchTrack, error) {
	logger.Debug.Printf("Participant %s submitting track for match %s", participantID, in.MatchID)
	if err := in.Validate(); err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, err.Error())
	}
	now := w.now()

	var stored *models.MatchTrack
	err := w.store.InTx(ctx, func(q store.Queries) error {
		m, err := q.GetMatch(ctx, in.MatchID)
		if err != nil {
			return err
		}
		if m == nil {
			return apperr.Newf(apperr.KindNotFound, "match %s not found", in.MatchID)
		}
		r, err := q.GetRound(ctx, m.RoundID)
		if err != nil {
			return err
		}
		if r == nil {
			return apperr.Newf(apperr.KindNotFound, "round %s not found", m.RoundID)
		}

		p, err := q.GetMatchParticipant(ctx, m.ID, participantID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.New(apperr.KindNotAuthorized, "participant is not in this match").
				With("match_id", m.ID)
		}
		if err := checkNotEliminated(ctx, q, r.TournamentID, participantID); err != nil {
			return err
		}
		if err := lifecycle.CheckMatchOpen(m); err != nil {
			return err
		}
		if err := lifecycle.CheckSubmissionWindow(r, now); err != nil {
			return err
		}
		if m.Status != models.MatchScheduled && m.Status != models.MatchSubmission {
			return apperr.Newf(apperr.KindSubmissionWindowClosed, "match is %s", m.Status).
				With("match_id", m.ID)
		}
		if err := checkMedia(ctx, q, in.AudioID, participantID); err != nil {
			return err
		}

		t := &models.MatchTrack{
			ID:            uuid.NewString(),
			MatchID:       m.ID,
			ParticipantID: participantID,
			AudioID:       in.AudioID,
			Lyrics:        in.Lyrics,
			SubmittedAt:   now.Unix(),
		}
		if err := q.UpsertMatchTrack(ctx, t); err != nil {
			return err
		}

		tracks, err := q.ListMatchTracks(ctx, m.ID)
		if err != nil {
			return err
		}
		for i := range tracks {
			if tracks[i].ParticipantID == participantID {
				stored = &tracks[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info.Printf("Stored track %s for participant %s in match %s", stored.ID, participantID, stored.MatchID)
	return stored, nil
}

func checkNotEliminated(ctx context.Context, q store.Queries, tournamentID, participantID string) error {
	out, err := q.IsEliminated(ctx, tournamentID, participantID)
	if err != nil {
		return err
	}
	if out {
		return apperr.New(apperr.KindParticipantEliminated, "participant has been eliminated from this tournament").
			With("tournament_id", tournamentID)
	}
	return nil
}

func checkMedia(ctx context.Context, q store.Queries, audioID, participantID string) error {
	a, err := q.GetMediaAsset(ctx, audioID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.Newf(apperr.KindNotFound, "audio asset %s not found", audioID)
	}
	if a.OwnerID != participantID {
		return apperr.New(apperr.KindNotAuthorized, "audio asset belongs to someone else").
			With("audio_id", audioID)
	}
	if a.Status != models.MediaReady {
		return apperr.Newf(apperr.KindMediaNotReady, "audio asset is %s", a.Status).
			With("audio_id", audioID)
	}
	return nil
}
