package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindSubmissionWindowClosed   Kind = "submission_window_closed"
	KindSubmissionDeadlinePassed Kind = "submission_deadline_passed"
	KindJudgingWindowClosed      Kind = "judging_window_closed"
	KindJudgeNotAssigned         Kind = "judge_not_assigned"
	KindRubricInvalid            Kind = "rubric_invalid"
	KindMediaNotReady            Kind = "media_not_ready"
	KindParticipantEliminated    Kind = "participant_eliminated"
	KindAssignmentNotAllowed     Kind = "assignment_not_allowed"
	KindNotAuthorized            Kind = "not_authorized"
	KindConflict                 Kind = "conflict"

	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidTransition Kind = "invalid_transition"
	KindNoEligibleMatch   Kind = "no_eligible_match"

	// finalize: state guard vs. readiness
	KindMatchTerminal Kind = "match_terminal"
	KindNoEvaluations Kind = "no_evaluations"
	KindNoTracks      Kind = "no_tracks"
	KindTracksMissing Kind = "tracks_missing"
)

// Error is a recoverable domain error. Callers are expected to correct the
// request using Kind and Details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// With attaches a detail key to the error and returns it for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsFinalizeReadiness reports whether err means the match is not ready to be
// finalized yet, as opposed to having already been closed.
func IsFinalizeReadiness(err error) bool {
	k, ok := KindOf(err)
	if !ok {
		return false
	}
	switch k {
	case KindNoEvaluations, KindNoTracks, KindTracksMissing:
		return true
	}
	return false
}
