package models

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchSubmission MatchStatus = "submission"
	MatchJudging    MatchStatus = "judging"
	MatchFinished   MatchStatus = "finished"
	MatchTie        MatchStatus = "tie"
	MatchCancelled  MatchStatus = "cancelled"
)

var TerminalMatchStatuses = []MatchStatus{MatchFinished, MatchTie, MatchCancelled}

func (s MatchStatus) IsTerminal() bool {
	switch s {
	case MatchFinished, MatchTie, MatchCancelled:
		return true
	}
	return false
}

type Match struct {
	ID                 string      `db:"id" json:"id"`
	RoundID            string      `db:"round_id" json:"round_id"`
	StartsAt           *int64      `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt             *int64      `db:"ends_at" json:"ends_at,omitempty"`
	Status             MatchStatus `db:"status" json:"status"`
	WinnerMatchTrackID *string     `db:"winner_match_track_id" json:"winner_match_track_id"`
	UpdatedAt          int64       `db:"updated_at" json:"updated_at"`
}

type ResultStatus string

const ResultEliminated ResultStatus = "eliminated"

type MatchParticipant struct {
	MatchID       string        `db:"match_id" json:"match_id"`
	ParticipantID string        `db:"participant_id" json:"participant_id"`
	Seed          int           `db:"seed" json:"seed"`
	ResultStatus  *ResultStatus `db:"result_status" json:"result_status"`
}

func (p *MatchParticipant) Eliminated() bool {
	return p.ResultStatus != nil && *p.ResultStatus == ResultEliminated
}

type MatchTrack struct {
	ID            string `db:"id" json:"id"`
	MatchID       string `db:"match_id" json:"match_id"`
	ParticipantID string `db:"participant_id" json:"participant_id"`
	AudioID       string `db:"audio_id" json:"audio_id"`
	Lyrics        string `db:"lyrics" json:"lyrics"`
	SubmittedAt   int64  `db:"submitted_at" json:"submitted_at"`
}

type TrackInput struct {
	MatchID string `json:"match_id" validate:"required"`
	AudioID string `json:"audio_id" validate:"required"`
	Lyrics  string `json:"lyrics" validate:"max=20000"`
}

func (i *TrackInput) Validate() error {
	return validate.Struct(i)
}
