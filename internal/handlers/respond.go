package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/metrics"
)

type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindRubricInvalid:
		return http.StatusUnprocessableEntity
	case apperr.KindNotAuthorized, apperr.KindAssignmentNotAllowed, apperr.KindJudgeNotAssigned,
		apperr.KindParticipantEliminated:
		return http.StatusForbidden
	case apperr.KindConflict, apperr.KindMatchTerminal, apperr.KindInvalidTransition,
		apperr.KindSubmissionWindowClosed, apperr.KindSubmissionDeadlinePassed, apperr.KindJudgingWindowClosed,
		apperr.KindNoEvaluations, apperr.KindNoTracks, apperr.KindTracksMissing, apperr.KindMediaNotReady:
		return http.StatusConflict
	case apperr.KindNoEligibleMatch:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		writeJSON(w, statusFor(e.Kind), errorBody{Error: string(e.Kind), Message: e.Message, Details: e.Details})
		return
	}
	logger.Error.Printf("Request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Newf(apperr.KindInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument records request duration under the route pattern rather than
// the raw path so ids do not blow up label cardinality.
func instrument(pattern string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			metrics.APIRequestDuration.WithLabelValues(
				pattern,
				r.Method,
				strconv.Itoa(rec.status),
			).Observe(time.Since(start).Seconds())
		}()
		next(rec, r)
	}
}
