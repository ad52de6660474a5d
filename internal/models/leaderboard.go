package models

// TrackScore is a row of the per-match-track average score view.
type TrackScore struct {
	MatchTrackID string  `db:"match_track_id" json:"match_track_id"`
	MatchID      string  `db:"match_id" json:"match_id"`
	AvgScore     float64 `db:"avg_score" json:"avg_score"`
	JudgeCount   int     `db:"judge_count" json:"judge_count"`
	RefreshedAt  int64   `db:"refreshed_at" json:"refreshed_at"`
}

// TournamentWin is a row of the win-count view. Rows are kept per round so
// readers can apply the visibility gate round by round.
type TournamentWin struct {
	TournamentID  string `db:"tournament_id" json:"tournament_id"`
	RoundID       string `db:"round_id" json:"round_id"`
	ParticipantID string `db:"participant_id" json:"participant_id"`
	Wins          int    `db:"wins" json:"wins"`
	RefreshedAt   int64  `db:"refreshed_at" json:"refreshed_at"`
}

type Standing struct {
	ParticipantID string `json:"participant_id"`
	Wins          int    `json:"wins"`
	Rank          int    `json:"rank"`
}

// SubmissionTrack links a qualifier submission to the match track of the
// same participant in a match of the same round.
type SubmissionTrack struct {
	SubmissionID string `db:"submission_id"`
	MatchTrackID string `db:"match_track_id"`
	MatchID      string `db:"match_id"`
}
