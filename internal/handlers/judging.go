package handlers

import (
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/art0tod/battle-rap-v2-sub000/internal/app"
	"github.com/art0tod/battle-rap-v2-sub000/internal/apperr"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

type JudgingHandler struct {
	service *app.Service
}

func NewJudgingHandler(service *app.Service) *JudgingHandler {
	return &JudgingHandler{
		service: service,
	}
}

// Register mounts every route on mux.
func (h *JudgingHandler) Register(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(pattern, fn))
	}
	handle("GET /api/v1/judge/assignments", h.HandleJudgeQueue)
	handle("POST /api/v1/judge/assignments/next", h.HandleAssignNext)
	handle("POST /api/v1/judge/assignments/{match}", h.HandleAssignSpecific)
	handle("POST /api/v1/judge/assignments/{match}/complete", h.HandleCompleteAssignment)
	handle("POST /api/v1/judge/assignments/{match}/skip", h.HandleSkipAssignment)
	handle("POST /api/v1/evaluations", h.HandleSubmitEvaluation)

	handle("POST /api/v1/rounds/{round}/entries", h.HandleSubmitEntry)
	handle("POST /api/v1/matches/{match}/tracks", h.HandleSubmitTrack)

	handle("GET /api/v1/rounds/{round}", h.HandleRoundOverview)
	handle("GET /api/v1/matches/{match}", h.HandleMatchResult)
	handle("GET /api/v1/matches/{match}/scores", h.HandleTrackScores)
	handle("GET /api/v1/tournaments/{tournament}/standings", h.HandleStandings)

	handle("POST /api/v1/admin/matches/{match}/finalize", h.HandleFinalize)
	handle("POST /api/v1/admin/rounds/{round}/status", h.HandleAdvanceRound)
	handle("POST /api/v1/admin/matches/{match}/status", h.HandleAdvanceMatch)
	handle("POST /api/v1/admin/matches/{match}/cancel", h.HandleCancelMatch)
	handle("POST /api/v1/admin/matches/{match}/participants/{participant}/eliminate", h.HandleEliminate)
	handle("PUT /api/v1/admin/tournaments/{tournament}/judges/{user}", h.HandleAddJudge)
	handle("DELETE /api/v1/admin/tournaments/{tournament}/judges/{user}", h.HandleRemoveJudge)
	handle("POST /api/v1/admin/leaderboard/refresh", h.HandleRefreshLeaderboard)
}

// actor resolves the caller and checks it holds one of roles. On failure the
// response is already written.
func (h *JudgingHandler) actor(w http.ResponseWriter, r *http.Request, roles ...app.Role) (*app.Actor, bool) {
	a, err := h.service.Auth.Resolve(r)
	if err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		if apperr.Is(err, apperr.KindNotAuthorized) {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: string(apperr.KindNotAuthorized), Message: "unauthorized"})
		} else {
			writeError(w, err)
		}
		return nil, false
	}
	if len(roles) > 0 {
		if err := a.Require(roles...); err != nil {
			writeError(w, err)
			return nil, false
		}
	}
	return a, true
}

func (h *JudgingHandler) HandleJudgeQueue(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleJudge)
	if !ok {
		return
	}
	rows, err := h.service.Scheduler.JudgeQueue(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}

func (h *JudgingHandler) HandleAssignNext(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleJudge)
	if !ok {
		return
	}
	res, err := h.service.Scheduler.AssignNext(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *JudgingHandler) HandleAssignSpecific(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleJudge)
	if !ok {
		return
	}
	res, err := h.service.Scheduler.AssignSpecific(r.Context(), a.ID, r.PathValue("match"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *JudgingHandler) HandleCompleteAssignment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleJudge)
	if !ok {
		return
	}
	if err := h.service.Scheduler.Complete(r.Context(), a.ID, r.PathValue("match")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JudgingHandler) HandleSkipAssignment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleJudge)
	if !ok {
		return
	}
	if err := h.service.Scheduler.Skip(r.Context(), a.ID, r.PathValue("match")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JudgingHandler) HandleSubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleJudge)
	if !ok {
		return
	}
	var in models.EvaluationInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	ev, err := h.service.Evaluations.Submit(r.Context(), a.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *JudgingHandler) HandleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleArtist)
	if !ok {
		return
	}
	var in models.SubmissionInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.RoundID = r.PathValue("round")
	s, err := h.service.Submissions.SubmitEntry(r.Context(), a.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *JudgingHandler) HandleSubmitTrack(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r, app.RoleArtist)
	if !ok {
		return
	}
	var in models.TrackInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, err)
		return
	}
	in.MatchID = r.PathValue("match")
	t, err := h.service.Submissions.SubmitMatchTrack(r.Context(), a.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *JudgingHandler) HandleRoundOverview(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Reader.RoundOverview(r.Context(), r.PathValue("round"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *JudgingHandler) HandleMatchResult(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Reader.MatchResult(r.Context(), r.PathValue("match"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *JudgingHandler) HandleTrackScores(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Leaderboard.TrackScores(r.Context(), r.PathValue("match"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *JudgingHandler) HandleStandings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.Leaderboard.Standings(r.Context(), r.PathValue("tournament"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
}
