package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/services"
)

type TournamentHandler struct {
	tournaments services.TournamentService
}

func NewTournamentHandler(tournaments services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournaments: tournaments}
}

type tournamentInput struct {
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
	Format      string    `json:"format"`
	TimeControl string    `json:"time_control"`
	NumRounds   *int      `json:"num_rounds"`
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input tournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament := &models.Tournament{
		Name:        input.Name,
		Location:    input.Location,
		Date:        input.Date,
		Format:      models.TournamentFormat(input.Format),
		TimeControl: models.TimeControl(input.TimeControl),
		NumRounds:   input.NumRounds,
	}
	if err := h.tournaments.Create(r.Context(), tournament); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tournament, nil)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	var completed *bool
	if raw := r.URL.Query().Get("completed"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid completed parameter")
			return
		}
		completed = &value
	}

	tournaments, err := h.tournaments.List(r.Context(), completed)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil)
}

func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	overview, err := h.tournaments.Overview(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview, nil)
}

func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournaments.Delete(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type participantInput struct {
	PlayerID int `json:"player_id"`
}

func (h *TournamentHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	var input participantInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournaments.AddPlayer(r.Context(), id, input.PlayerID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"tournament_id": id, "player_id": input.PlayerID}, nil)
}

func (h *TournamentHandler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	playerID, err := idParam(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournaments.RemovePlayer(r.Context(), id, playerID); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournaments.Start(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament_id": id, "started": true}, nil)
}

func (h *TournamentHandler) CompleteRound(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournaments.CompleteRound(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"tournament_id": id, "round_completed": true}, nil)
}

func (h *TournamentHandler) Standings(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	table, err := h.tournaments.Standings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil)
}
