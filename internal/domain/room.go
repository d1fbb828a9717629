// Package domain contains entities without logic, just meta-data.
package domain

import (
	"github.com/google/uuid"

	"github.com/nklyy/chats/internal/core"
)

// RoomCapacity is the hard cap on members per room. Pairing only ever adds
// to a room holding exactly one member, so the cap is never exceeded.
const RoomCapacity = 2

// Room pairs up to two sessions eligible to exchange messages. A room is
// destroyed permanently the instant either member leaves.
type Room struct {
	ID      core.RoomID
	Members map[core.SessionID]struct{}
}

// NewRoom mints a singleton room holding only the given session.
func NewRoom(sid core.SessionID) *Room {
	return &Room{
		ID:      core.RoomID(uuid.NewString()),
		Members: map[core.SessionID]struct{}{sid: {}},
	}
}

func (r *Room) Has(sid core.SessionID) bool {
	_, ok := r.Members[sid]
	return ok
}

func (r *Room) Add(sid core.SessionID) {
	r.Members[sid] = struct{}{}
}

func (r *Room) Remove(sid core.SessionID) {
	delete(r.Members, sid)
}

// NewSessionID mints an opaque session id. Ids are coordinator-assigned,
// never client-chosen.
func NewSessionID() core.SessionID {
	return core.SessionID(uuid.NewString())
}
