package handlers

import (
	"net/http"

	"github.com/art0tod/battle-rap-v2-sub000/internal/app"
	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

type statusChange struct {
	Status string `json:"status"`
}

func (h *JudgingHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	res, err := h.service.Finalizer.Finalize(r.Context(), r.PathValue("match"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *JudgingHandler) HandleAdvanceRound(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	var body statusChange
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	round, err := h.service.Machine.AdvanceRound(r.Context(), r.PathValue("round"), models.RoundStatus(body.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *JudgingHandler) HandleAdvanceMatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	var body statusChange
	if err := decodeBody(r, &body); err != nil {
		writeError(w, err)
		return
	}
	m, err := h.service.Machine.AdvanceMatch(r.Context(), r.PathValue("match"), models.MatchStatus(body.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *JudgingHandler) HandleCancelMatch(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	if err := h.service.Machine.CancelMatch(r.Context(), r.PathValue("match")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JudgingHandler) HandleEliminate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	if err := h.service.Machine.EliminateParticipant(r.Context(), r.PathValue("match"), r.PathValue("participant")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JudgingHandler) HandleAddJudge(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	if err := h.service.Machine.AddJudge(r.Context(), r.PathValue("tournament"), r.PathValue("user")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JudgingHandler) HandleRemoveJudge(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	if err := h.service.Machine.RemoveJudge(r.Context(), r.PathValue("tournament"), r.PathValue("user")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JudgingHandler) HandleRefreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r, app.RoleAdmin); !ok {
		return
	}
	if err := h.service.Leaderboard.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
