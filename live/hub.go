// Package live pushes tournament updates to websocket subscribers. Clients
// join a per-tournament room and receive an event whenever pairings are
// posted, a result comes in, or standings change.
package live

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type EventType string

const (
	EventPairingsPosted      EventType = "PAIRINGS_POSTED"
	EventMatchUpdated        EventType = "MATCH_UPDATED"
	EventStandingsUpdated    EventType = "STANDINGS_UPDATED"
	EventRoundCompleted      EventType = "ROUND_COMPLETED"
	EventTournamentCompleted EventType = "TOURNAMENT_COMPLETED"
)

// Event is the wire envelope pushed to every subscriber of a room.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload"`
	Room    string      `json:"room,omitempty"`
}

// RoomForTournament names the hub room for one tournament's updates.
func RoomForTournament(tournamentID int) string {
	return "tournament:" + strconv.Itoa(tournamentID)
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 16),
		room: room,
	}
}

type Hub struct {
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run owns room membership; it must be started once, before any client
// connects.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.logger.Debug("live client joined", "room", client.room, "clients", len(h.rooms[client.room]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.room]; ok && room[client] {
				client.shutdown()
				delete(room, client)
				if len(room) == 0 {
					delete(h.rooms, client.room)
				}
				h.logger.Debug("live client left", "room", client.room)
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// BroadcastToRoom delivers one event to every subscriber of the room. A slow
// client whose buffer is full is skipped rather than blocking the caller.
func (h *Hub) BroadcastToRoom(room string, event Event) {
	event.Room = room

	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal live event", "room", room, "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			h.logger.Warn("live client send buffer full, dropping event", "room", room, "type", event.Type)
		}
		client.mu.Unlock()
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump drains and discards inbound frames; subscribers are read-only.
// It keeps the connection alive via pong handling and unregisters the client
// when the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("live client read error", "room", c.room, "error", err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush whatever queued up behind this event.
			for i := len(c.send); i > 0; i-- {
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
