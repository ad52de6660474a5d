package models

type RoundKind string

const (
	RoundQualifier1 RoundKind = "qualifier1"
	RoundQualifier2 RoundKind = "qualifier2"
	RoundBracket    RoundKind = "bracket"
	RoundChallenge  RoundKind = "challenge"
)

type Scoring string

const (
	ScoringPassFail Scoring = "pass_fail"
	ScoringPoints   Scoring = "points"
	ScoringRubric   Scoring = "rubric"
)

type Strategy string

const (
	StrategyWeighted Strategy = "weighted"
	StrategyMajority Strategy = "majority"
)

type RoundStatus string

const (
	RoundDraft      RoundStatus = "draft"
	RoundSubmission RoundStatus = "submission"
	RoundJudging    RoundStatus = "judging"
	RoundFinished   RoundStatus = "finished"
)

type Round struct {
	ID                   string      `db:"id" json:"id"`
	TournamentID         string      `db:"tournament_id" json:"tournament_id" validate:"required"`
	Kind                 RoundKind   `db:"kind" json:"kind" validate:"required,oneof=qualifier1 qualifier2 bracket challenge"`
	Number               int         `db:"number" json:"number" validate:"min=1"`
	Scoring              Scoring     `db:"scoring" json:"scoring" validate:"required,oneof=pass_fail points rubric"`
	Strategy             Strategy    `db:"strategy" json:"strategy" validate:"required,oneof=weighted majority"`
	Status               RoundStatus `db:"status" json:"status" validate:"required,oneof=draft submission judging finished"`
	StartsAt             *int64      `db:"starts_at" json:"starts_at,omitempty"`
	SubmissionDeadlineAt *int64      `db:"submission_deadline_at" json:"submission_deadline_at,omitempty"`
	JudgingDeadlineAt    *int64      `db:"judging_deadline_at" json:"judging_deadline_at,omitempty"`
}

func (r *Round) Validate() error {
	return validate.Struct(r)
}

// TargetType is the shape of entity judges score in this round: head-to-head
// rubric rounds judge the match, pass/fail and points rounds judge each
// participant's submission on its own.
func (r *Round) TargetType() TargetType {
	if r.Scoring == ScoringRubric {
		return TargetMatch
	}
	return TargetSubmission
}

type RubricCriterion struct {
	RoundID   string  `db:"round_id" json:"round_id"`
	Key       string  `db:"criterion_key" json:"key" validate:"required,max=64"`
	Name      string  `db:"name" json:"name" validate:"required"`
	Weight    float64 `db:"weight" json:"weight" validate:"gt=0"`
	MinValue  float64 `db:"min_value" json:"min_value"`
	MaxValue  float64 `db:"max_value" json:"max_value" validate:"gtfield=MinValue"`
	SortOrder int     `db:"sort_order" json:"sort_order"`
}

func (c *RubricCriterion) Validate() error {
	return validate.Struct(c)
}
