package handlers

import (
	"net/http"

	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

func (h *MatchHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	match, err := h.matches.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match, nil)
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	matches, err := h.matches.ListByTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

type resultInput struct {
	Result string `json:"result"`
}

func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input resultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.matches.SubmitResult(r.Context(), id, models.MatchResult(input.Result)); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match_id": id, "result": input.Result}, nil)
}
