package signaling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetpulse/backend/internal/metrics"
)

// newTestHub starts a hub whose clients are plain channels; the
// websocket pumps are not involved.
func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zerolog.Nop(), metrics.New())
	go h.Run()
	return h
}

func connect(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := &Client{ID: id, Hub: h, Send: make(chan *Message, 32)}
	h.Register <- c
	return c
}

func recv(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case msg := <-c.Send:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message on %s", c.ID)
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send:
		t.Fatalf("unexpected message %q on %s", msg.Type, c.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func join(h *Hub, c *Client, room, userID string) {
	h.Inbound <- &Message{Type: EventJoinRoom, Room: room, UserID: userID, client: c}
}

func TestHubJoinScenario(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	join(h, a, "r1", "user-a")
	msg := recv(t, a)
	require.Equal(t, EventAllUsers, msg.Type)
	assert.Equal(t, "r1", msg.Room)
	assert.Empty(t, msg.Users)

	join(h, b, "r1", "user-b")

	msg = recv(t, b)
	require.Equal(t, EventAllUsers, msg.Type)
	require.Len(t, msg.Users, 1)
	assert.Equal(t, UserInfo{SocketID: "A", UserID: "user-a"}, msg.Users[0])

	msg = recv(t, a)
	require.Equal(t, EventUserConnected, msg.Type)
	assert.Equal(t, "B", msg.SocketID)
	assert.Equal(t, "r1", msg.Room)
}

func TestHubSignalRelayPreservesPayload(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	payload := json.RawMessage(`{"type":"offer","sdp":"v=0 fake"}`)
	h.Inbound <- &Message{Type: EventSignal, To: "B", Signal: payload, client: a}

	msg := recv(t, b)
	require.Equal(t, EventSignal, msg.Type)
	assert.Equal(t, "A", msg.From)
	assert.JSONEq(t, string(payload), string(msg.Signal))
	assertSilent(t, a)
}

func TestHubSignalToUnknownTargetIsDropped(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	h.Inbound <- &Message{Type: EventSignal, To: "ghost", Signal: json.RawMessage(`{}`), client: a}

	// The hub keeps working: a real relay right after still lands.
	h.Inbound <- &Message{Type: EventSignal, To: "B", Signal: json.RawMessage(`{"ok":true}`), client: a}
	msg := recv(t, b)
	assert.Equal(t, EventSignal, msg.Type)
	assert.Equal(t, "A", msg.From)
}

func TestHubLeaveRoomNotifiesRemaining(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	join(h, a, "r1", "user-a")
	recv(t, a) // all-users
	join(h, b, "r1", "user-b")
	recv(t, b) // all-users
	recv(t, a) // user-connected

	h.Inbound <- &Message{Type: EventLeaveRoom, Room: "r1", client: b}

	msg := recv(t, a)
	require.Equal(t, EventUserDisconnected, msg.Type)
	assert.Equal(t, "B", msg.SocketID)
	assert.Equal(t, "r1", msg.Room)
	assertSilent(t, b)
}

func TestHubLeaveRoomNotMemberIsSilent(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	join(h, a, "r1", "user-a")
	recv(t, a)

	h.Inbound <- &Message{Type: EventLeaveRoom, Room: "r1", client: b}
	assertSilent(t, a)
}

func TestHubDisconnectNotifiesEveryRoom(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")
	c := connect(t, h, "C")

	join(h, a, "r1", "user-a")
	recv(t, a)
	join(h, b, "r2", "user-b")
	recv(t, b)

	// C is in both rooms.
	join(h, c, "r1", "user-c")
	recv(t, c) // all-users r1
	recv(t, a) // user-connected
	join(h, c, "r2", "user-c")
	recv(t, c) // all-users r2
	recv(t, b) // user-connected

	h.Unregister <- c

	msg := recv(t, a)
	assert.Equal(t, EventUserDisconnected, msg.Type)
	assert.Equal(t, "C", msg.SocketID)
	assert.Equal(t, "r1", msg.Room)

	msg = recv(t, b)
	assert.Equal(t, EventUserDisconnected, msg.Type)
	assert.Equal(t, "C", msg.SocketID)
	assert.Equal(t, "r2", msg.Room)

	// C's send channel is closed once teardown is complete.
	for {
		if _, ok := <-c.Send; !ok {
			break
		}
	}
	assert.Equal(t, 2, h.Registry().RoomCount())
}

func TestHubMalformedEventsIgnored(t *testing.T) {
	h := newTestHub(t)
	a := connect(t, h, "A")
	b := connect(t, h, "B")

	h.Inbound <- &Message{Type: EventJoinRoom, client: a}          // missing room
	h.Inbound <- &Message{Type: EventSignal, client: a}            // missing target
	h.Inbound <- &Message{Type: "made-up-event", client: a}        // unknown type
	h.Inbound <- &Message{Type: EventLeaveRoom, client: a}         // missing room
	join(h, b, "r1", "user-b")                                     // hub still alive

	msg := recv(t, b)
	assert.Equal(t, EventAllUsers, msg.Type)
	assertSilent(t, a)
}
