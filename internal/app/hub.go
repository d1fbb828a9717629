package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nklyy/chats/internal/core"
	"github.com/nklyy/chats/internal/domain"
)

const (
	ActionConnected    = "connected"
	ActionDisconnected = "disconnected"
	ActionPublish      = "publish"
)

// Notice is what the hub sends to sessions; sessions relay it to the
// client verbatim.
type Notice struct {
	Action    string `json:"action"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	From      string `json:"from,omitempty"`
}

// Hub is the sole authority over session and room state. All mutation goes
// through Register/Publish/Disconnect, serialized by the mutex; delivery is
// a non-blocking TrySend so a stalled client never holds the lock hostage.
type Hub struct {
	mu       sync.Mutex
	sessions map[core.SessionID]core.Delivery
	rooms    map[core.RoomID]*domain.Room
	roomOf   map[core.SessionID]core.RoomID
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[core.SessionID]core.Delivery),
		rooms:    make(map[core.RoomID]*domain.Room),
		roomOf:   make(map[core.SessionID]core.RoomID),
	}
}

// Register stores the delivery handle under a fresh session id and pairs the
// newcomer into a room. A room holding exactly one other session wins; scan
// order over rooms is map order, deliberately unspecified. If no room is
// waiting, the newcomer parks in a fresh singleton room and nobody is
// notified (a singleton has no peer to notify).
func (h *Hub) Register(d core.Delivery) core.SessionID {
	h.mu.Lock()
	defer h.mu.Unlock()

	sid := domain.NewSessionID()
	h.sessions[sid] = d

	for _, room := range h.rooms {
		if len(room.Members) == 1 && !room.Has(sid) {
			room.Add(sid)
			h.roomOf[sid] = room.ID
			h.broadcast(room, Notice{Action: ActionConnected, SessionID: string(sid)})
			log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("room", string(room.ID)).Msg("session paired")
			return sid
		}
	}

	room := domain.NewRoom(sid)
	h.rooms[room.ID] = room
	h.roomOf[sid] = room.ID
	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("room", string(room.ID)).Msg("session waiting for a peer")
	return sid
}

// Publish fans the text out to every member of the sender's room, the
// sender included. A sender without a room (still pairing, or orphaned by
// its peer's disconnect) is silently dropped.
func (h *Hub) Publish(sid core.SessionID, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rid, ok := h.roomOf[sid]
	if !ok {
		log.Debug().Str("module", "app.hub").Str("sid", string(sid)).Msg("publish from roomless session dropped")
		return
	}
	room, ok := h.rooms[rid]
	if !ok {
		return
	}
	h.broadcast(room, Notice{Action: ActionPublish, Message: text, From: string(sid)})
}

// Disconnect removes the session and tears down its room. The remaining
// member (if any) gets one "disconnected" notice and is left roomless until
// it disconnects itself; the room is deleted unconditionally. Idempotent:
// a second call for the same id is a no-op.
func (h *Hub) Disconnect(sid core.SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sid]; !ok {
		return
	}
	delete(h.sessions, sid)

	rid, ok := h.roomOf[sid]
	delete(h.roomOf, sid)
	if !ok {
		return
	}
	room, ok := h.rooms[rid]
	if !ok {
		return
	}

	room.Remove(sid)
	h.broadcast(room, Notice{Action: ActionDisconnected})
	for member := range room.Members {
		delete(h.roomOf, member)
	}
	delete(h.rooms, rid)
	log.Info().Str("module", "app.hub").Str("sid", string(sid)).Str("room", string(rid)).Msg("session disconnected, room torn down")
}

// Stats reports live session and room counts.
func (h *Hub) Stats() (sessions, rooms int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions), len(h.rooms)
}

// broadcast pushes the notice to every member's delivery queue. Best
// effort: a member with a full queue or a gone transport is skipped, the
// rest still get the frame. Caller holds h.mu.
func (h *Hub) broadcast(room *domain.Room, n Notice) {
	frame, err := json.Marshal(n)
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Msg("encode notice")
		return
	}
	for member := range room.Members {
		d, ok := h.sessions[member]
		if !ok {
			continue
		}
		if err := d.TrySend(core.Frame(frame)); err != nil {
			log.Warn().Err(err).Str("module", "app.hub").Str("sid", string(member)).Str("action", n.Action).Msg("dropped notice")
		}
	}
}
