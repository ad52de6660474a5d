package models

type AssignmentStatus string

const (
	AssignmentAssigned  AssignmentStatus = "assigned"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentSkipped   AssignmentStatus = "skipped"
)

type JudgeAssignment struct {
	JudgeID    string           `db:"judge_id" json:"judge_id"`
	MatchID    string           `db:"match_id" json:"match_id"`
	Status     AssignmentStatus `db:"status" json:"status"`
	AssignedAt int64            `db:"assigned_at" json:"assigned_at"`
	UpdatedAt  int64            `db:"updated_at" json:"updated_at"`
}
