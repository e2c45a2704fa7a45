package realtime

import (
	"encoding/json"
	"sync"
)

// Frame is the wire envelope for both directions of the event channel.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Session is one connected client's channel. The write mutex keeps concurrent
// broadcasts from interleaving JSON frames on the same connection.
type Session struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newSession(encoder *json.Encoder) *Session {
	return &Session{encoder: encoder}
}

func (s *Session) send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(outboundFrame{Event: event, Payload: payload})
}

// Hub maps project rooms to the sessions currently joined. State is
// in-memory and process-scoped; clients rebuild it by re-emitting
// project:join after a reconnect.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Session]struct{})}
}

// Join adds the session to the room. A session may join any number of rooms.
func (h *Hub) Join(roomID string, session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[roomID] = room
	}
	room[session] = struct{}{}
}

// RemoveSession drops the session from every room it joined. Empty rooms are
// pruned.
func (h *Hub) RemoveSession(session *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID, room := range h.rooms {
		delete(room, session)
		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast delivers the event to every session in the room, sender included.
// Delivery is fire-and-forget: write failures to individual sessions are
// ignored, a dropped connection simply stops receiving.
func (h *Hub) Broadcast(roomID, event string, payload any) {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.rooms[roomID]))
	for session := range h.rooms[roomID] {
		sessions = append(sessions, session)
	}
	h.mu.Unlock()

	for _, session := range sessions {
		_ = session.send(event, payload)
	}
}
