package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type TargetType string

const (
	TargetMatch      TargetType = "match"
	TargetSubmission TargetType = "submission"
)

// Scorecards holds a head-to-head rubric: criterion values per match track,
// keyed by match track id.
type Scorecards map[string]map[string]float64

func (s Scorecards) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Scorecards) Scan(src any) error {
	return scanJSON(src, s)
}

// TrackTotals maps match track id to a normalized 0-100 total.
type TrackTotals map[string]float64

func (t TrackTotals) Value() (driver.Value, error) {
	if t == nil {
		return nil, nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TrackTotals) Scan(src any) error {
	return scanJSON(src, t)
}

func scanJSON(src any, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

// Evaluation is one judge's latest opinion on one target. The
// (judge_id, target_type, target_id) triple is unique.
type Evaluation struct {
	ID          string      `db:"id" json:"id"`
	JudgeID     string      `db:"judge_id" json:"judge_id"`
	TargetType  TargetType  `db:"target_type" json:"target_type"`
	TargetID    string      `db:"target_id" json:"target_id"`
	RoundID     string      `db:"round_id" json:"round_id"`
	Pass        *bool       `db:"pass" json:"pass,omitempty"`
	Score       *float64    `db:"score" json:"score,omitempty"`
	Rubric      Scorecards  `db:"rubric" json:"rubric,omitempty"`
	TrackTotals TrackTotals `db:"track_totals" json:"track_totals,omitempty"`
	Comment     string      `db:"comment" json:"comment"`
	TotalScore  *float64    `db:"total_score" json:"total_score"`
	CreatedAt   int64       `db:"created_at" json:"created_at"`
	UpdatedAt   int64       `db:"updated_at" json:"updated_at"`
}

type EvaluationInput struct {
	TargetType TargetType `json:"target_type" validate:"required,oneof=match submission"`
	TargetID   string     `json:"target_id" validate:"required"`
	Pass       *bool      `json:"pass,omitempty"`
	Score      *float64   `json:"score,omitempty"`
	Rubric     Scorecards `json:"rubric,omitempty"`
	Comment    string     `json:"comment" validate:"max=4000"`
}

func (i *EvaluationInput) Validate() error {
	return validate.Struct(i)
}
