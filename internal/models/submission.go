package models

type SubmissionStatus string

const (
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionApproved  SubmissionStatus = "approved"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// Judgeable reports whether moderation leaves the submission visible to judges.
func (s SubmissionStatus) Judgeable() bool {
	return s == SubmissionSubmitted || s == SubmissionApproved
}

type Submission struct {
	ID            string           `db:"id" json:"id"`
	RoundID       string           `db:"round_id" json:"round_id"`
	ParticipantID string           `db:"participant_id" json:"participant_id"`
	AudioID       string           `db:"audio_id" json:"audio_id"`
	Lyrics        string           `db:"lyrics" json:"lyrics"`
	Status        SubmissionStatus `db:"status" json:"status"`
	SubmittedAt   *int64           `db:"submitted_at" json:"submitted_at,omitempty"`
	UpdatedAt     int64            `db:"updated_at" json:"updated_at"`
}

type SubmissionInput struct {
	RoundID string `json:"round_id" validate:"required"`
	AudioID string `json:"audio_id" validate:"required"`
	Lyrics  string `json:"lyrics" validate:"max=20000"`
}

func (i *SubmissionInput) Validate() error {
	return validate.Struct(i)
}

type MediaStatus string

const (
	MediaPending MediaStatus = "pending"
	MediaReady   MediaStatus = "ready"
	MediaFailed  MediaStatus = "failed"
)

// MediaAsset is owned by the media subsystem; the engine only reads it.
type MediaAsset struct {
	ID      string      `db:"id" json:"id"`
	OwnerID string      `db:"owner_id" json:"owner_id"`
	Status  MediaStatus `db:"status" json:"status"`
}
