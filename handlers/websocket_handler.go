package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/laurierboom/tournament-engine/live"
	"github.com/laurierboom/tournament-engine/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the club frontend's origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub         *live.Hub
	tournaments services.TournamentService
	logger      *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, tournaments services.TournamentService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, tournaments: tournaments, logger: logger}
}

// ServeWs subscribes the caller to one tournament's live events.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if _, err := h.tournaments.GetByID(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		h.logger.Warn("websocket upgrade failed", "tournament_id", id, "error", err)
		return
	}

	client := live.NewClient(h.hub, conn, live.RoomForTournament(id))
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
