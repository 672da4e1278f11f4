package handlers

import (
	"net/http"

	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/services"
)

type PlayerHandler struct {
	players services.PlayerService
}

func NewPlayerHandler(players services.PlayerService) *PlayerHandler {
	return &PlayerHandler{players: players}
}

type playerInput struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	FideID     *string `json:"fide_id"`
	FideRating *int    `json:"fide_rating"`
}

func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input playerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	player := &models.Player{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		FideID:     input.FideID,
		FideRating: input.FideRating,
	}
	if err := h.players.Create(r.Context(), player); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player, nil)
}

func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil)
}

func (h *PlayerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	player, err := h.players.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player, nil)
}

func (h *PlayerHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input playerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	player := &models.Player{
		ID:         id,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		FideID:     input.FideID,
		FideRating: input.FideRating,
	}
	if err := h.players.UpdateProfile(r.Context(), player); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player, nil)
}

func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.players.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayerHandler) RatingHistory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var timeControl *models.TimeControl
	if raw := r.URL.Query().Get("time_control"); raw != "" {
		tc := models.TimeControl(raw)
		timeControl = &tc
	}

	history, err := h.players.RatingHistory(r.Context(), id, timeControl)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"history": history}, nil)
}
