package models

type TournamentStatus string

const (
	TournamentDraft        TournamentStatus = "draft"
	TournamentRegistration TournamentStatus = "registration"
	TournamentOngoing      TournamentStatus = "ongoing"
	TournamentCompleted    TournamentStatus = "completed"
	TournamentArchived     TournamentStatus = "archived"
)

// Deadlines are unix seconds, nil when not configured.
type Tournament struct {
	ID                   string           `db:"id" json:"id"`
	Title                string           `db:"title" json:"title" validate:"required,max=200"`
	Status               TournamentStatus `db:"status" json:"status" validate:"required,oneof=draft registration ongoing completed archived"`
	RegistrationOpenAt   *int64           `db:"registration_open_at" json:"registration_open_at,omitempty"`
	SubmissionDeadlineAt *int64           `db:"submission_deadline_at" json:"submission_deadline_at,omitempty"`
	JudgingDeadlineAt    *int64           `db:"judging_deadline_at" json:"judging_deadline_at,omitempty"`
	PublicAt             *int64           `db:"public_at" json:"public_at,omitempty"`
	MaxBracketSize       int              `db:"max_bracket_size" json:"max_bracket_size" validate:"min=0"`
	CreatedAt            int64            `db:"created_at" json:"created_at"`
}

func (t *Tournament) Validate() error {
	return validate.Struct(t)
}

type TournamentJudge struct {
	TournamentID string `db:"tournament_id" json:"tournament_id"`
	UserID       string `db:"user_id" json:"user_id"`
	AddedAt      int64  `db:"added_at" json:"added_at"`
}
