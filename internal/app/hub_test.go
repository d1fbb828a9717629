package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nklyy/chats/internal/core"
)

type fakeDelivery struct {
	mu      sync.Mutex
	notices []Notice
	full    bool
}

func (f *fakeDelivery) TrySend(frame core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return core.ErrBackpressure
	}
	var n Notice
	if err := json.Unmarshal(frame, &n); err != nil {
		return err
	}
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeDelivery) Close() {}

func (f *fakeDelivery) received() []Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notice, len(f.notices))
	copy(out, f.notices)
	return out
}

func TestRegisterPairsSequentialSessions(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}

	sidA := hub.Register(a)
	assert.Empty(t, a.received(), "a singleton room has no peer to notify")

	sidB := hub.Register(b)
	require.NotEqual(t, sidA, sidB)

	for _, d := range []*fakeDelivery{a, b} {
		notices := d.received()
		require.Len(t, notices, 1)
		assert.Equal(t, ActionConnected, notices[0].Action)
		assert.Equal(t, string(sidB), notices[0].SessionID, "connected notice carries the newcomer's id")
	}

	sessions, rooms := hub.Stats()
	assert.Equal(t, 2, sessions)
	assert.Equal(t, 1, rooms)
}

func TestThirdSessionStartsNewRoom(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}
	c := &fakeDelivery{}

	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	assert.Empty(t, c.received(), "third session parks alone")
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)

	_, rooms := hub.Stats()
	assert.Equal(t, 2, rooms)
}

func TestRoomNeverExceedsCapacity(t *testing.T) {
	hub := NewHub()
	for i := 0; i < 7; i++ {
		hub.Register(&fakeDelivery{})
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	seen := make(map[core.SessionID]int)
	for _, room := range hub.rooms {
		assert.LessOrEqual(t, len(room.Members), 2)
		for sid := range room.Members {
			seen[sid]++
		}
	}
	for sid, count := range seen {
		assert.Equal(t, 1, count, "session %s appears in more than one room", sid)
	}
}

func TestPublishReachesBothMembersIncludingSender(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}

	sidA := hub.Register(a)
	hub.Register(b)

	hub.Publish(sidA, "hello there")

	for _, d := range []*fakeDelivery{a, b} {
		notices := d.received()
		require.Len(t, notices, 2)
		assert.Equal(t, ActionPublish, notices[1].Action)
		assert.Equal(t, "hello there", notices[1].Message)
		assert.Equal(t, string(sidA), notices[1].From)
	}
}

func TestPublishFromOrphanedSessionIsDropped(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}

	sidA := hub.Register(a)
	sidB := hub.Register(b)

	hub.Disconnect(sidB)
	before := len(a.received())

	hub.Publish(sidA, "anyone?")
	assert.Len(t, a.received(), before, "orphaned publish delivers nothing")
}

func TestPublishUnknownSessionIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Publish("no-such-session", "void")

	sessions, rooms := hub.Stats()
	assert.Zero(t, sessions)
	assert.Zero(t, rooms)
}

func TestDisconnectNotifiesRemainingMemberOnce(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}

	sidA := hub.Register(a)
	sidB := hub.Register(b)

	hub.Disconnect(sidA)

	noticesA := a.received()
	require.Len(t, noticesA, 1, "the departing session is not notified of its own departure")

	noticesB := b.received()
	require.Len(t, noticesB, 2)
	assert.Equal(t, ActionDisconnected, noticesB[1].Action)
	assert.Empty(t, noticesB[1].Message)
	assert.Empty(t, noticesB[1].SessionID)

	_, rooms := hub.Stats()
	assert.Zero(t, rooms, "a room dies the instant any member leaves")

	// the survivor leaving a dead room broadcasts nothing further
	hub.Disconnect(sidB)
	assert.Len(t, b.received(), 2)
}

func TestDisconnectIsIdempotent(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}

	sidA := hub.Register(a)
	hub.Register(b)

	hub.Disconnect(sidA)
	hub.Disconnect(sidA)

	assert.Len(t, b.received(), 2, "a repeated disconnect produces no second notice")
}

func TestOrphanIsNeverRePairedButNewcomersAre(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{}

	sidA := hub.Register(a)
	hub.Register(b)
	hub.Disconnect(sidA)

	// b is orphaned: the next registration must start its own room
	c := &fakeDelivery{}
	sidC := hub.Register(c)
	assert.Empty(t, c.received())
	assert.Len(t, b.received(), 2)

	// a fresh registration pairs with the waiting newcomer, not the orphan
	d := &fakeDelivery{}
	sidD := hub.Register(d)

	noticesC := c.received()
	require.Len(t, noticesC, 1)
	assert.Equal(t, ActionConnected, noticesC[0].Action)
	assert.Equal(t, string(sidD), noticesC[0].SessionID)
	assert.Len(t, b.received(), 2, "orphan stays out of pairing")

	hub.Publish(sidC, "fresh start")
	assert.Len(t, d.received(), 2)
}

func TestReRegisterAfterDisconnectGetsFreshID(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}

	sidA := hub.Register(a)
	hub.Disconnect(sidA)

	sidAgain := hub.Register(a)
	assert.NotEqual(t, sidA, sidAgain)

	sessions, rooms := hub.Stats()
	assert.Equal(t, 1, sessions)
	assert.Equal(t, 1, rooms)
}

func TestBroadcastIsBestEffort(t *testing.T) {
	hub := NewHub()
	a := &fakeDelivery{}
	b := &fakeDelivery{full: true}

	sidA := hub.Register(a)
	hub.Register(b)

	hub.Publish(sidA, "still here")

	notices := a.received()
	require.Len(t, notices, 2, "a stalled peer does not fail delivery to the rest")
	assert.Equal(t, "still here", notices[1].Message)
}

func TestNoticeWireShape(t *testing.T) {
	frame, err := json.Marshal(Notice{Action: ActionConnected, SessionID: "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"connected","session_id":"abc"}`, string(frame), "absent fields are omitted")

	frame, err = json.Marshal(Notice{Action: ActionDisconnected})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"disconnected"}`, string(frame))
}
