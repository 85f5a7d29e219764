package signaling

import (
	"github.com/rs/zerolog"

	"github.com/meetpulse/backend/internal/metrics"
)

// Hub is the central brain of the signaling server. It owns the room
// registry and the set of live connections, and processes all
// connection lifecycle and relay events on a single goroutine so that
// events from one connection are applied in the order received.
type Hub struct {
	registry *Registry

	// clients maps connection IDs to live clients. Touched only by the
	// Run goroutine.
	clients map[string]*Client

	// Register is the channel for newly upgraded connections.
	Register chan *Client

	// Unregister is the channel for dropped connections.
	Unregister chan *Client

	// Inbound carries decoded client events into the run loop.
	Inbound chan *Message

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewHub creates a Hub with an empty registry.
func NewHub(log zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		registry:   NewRegistry(),
		clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Message),
		log:        log.With().Str("component", "signaling").Logger(),
		metrics:    m,
	}
}

// Registry exposes the hub's room registry for read-side callers.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run starts the hub's main processing loop. It must be running before
// any client is registered.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client.ID] = client
			h.metrics.ActiveConnections.Set(float64(len(h.clients)))
			h.log.Info().Str("conn", client.ID).Msg("connection registered")

		case client := <-h.Unregister:
			if _, ok := h.clients[client.ID]; !ok {
				continue
			}
			h.handleDisconnect(client)

		case msg := <-h.Inbound:
			switch msg.Type {
			case EventJoinRoom:
				h.handleJoin(msg)
			case EventLeaveRoom:
				h.handleLeave(msg)
			case EventSignal:
				h.handleSignal(msg)
			default:
				h.log.Warn().
					Str("conn", msg.client.ID).
					Str("type", msg.Type).
					Msg("ignoring unknown event type")
			}
		}
	}
}

// handleJoin adds the sender to the requested room, tells it who is
// already there, and announces it to the other members.
func (h *Hub) handleJoin(msg *Message) {
	c := msg.client
	if msg.Room == "" {
		h.log.Warn().Str("conn", c.ID).Msg("join-room without a room key ignored")
		return
	}

	h.registry.Join(c.ID, msg.Room, msg.UserID)
	h.metrics.OpenRooms.Set(float64(h.registry.RoomCount()))

	others := h.registry.MembersOf(msg.Room, c.ID)
	users := make([]UserInfo, 0, len(others))
	for _, m := range others {
		users = append(users, UserInfo{SocketID: m.ConnID, UserID: m.ParticipantID})
	}
	h.send(c.ID, &Message{Type: EventAllUsers, Room: msg.Room, Users: users})

	for _, m := range others {
		h.send(m.ConnID, &Message{Type: EventUserConnected, Room: msg.Room, SocketID: c.ID})
	}

	h.log.Info().
		Str("conn", c.ID).
		Str("room", msg.Room).
		Str("participant", msg.UserID).
		Int("peers", len(others)).
		Msg("joined room")
}

// handleLeave removes the sender from one room and notifies the members
// that remain in it.
func (h *Hub) handleLeave(msg *Message) {
	c := msg.client
	if msg.Room == "" {
		h.log.Warn().Str("conn", c.ID).Msg("leave-room without a room key ignored")
		return
	}

	if !h.registry.Leave(c.ID, msg.Room) {
		return
	}
	h.metrics.OpenRooms.Set(float64(h.registry.RoomCount()))

	for _, m := range h.registry.MembersOf(msg.Room, c.ID) {
		h.send(m.ConnID, &Message{Type: EventUserDisconnected, Room: msg.Room, SocketID: c.ID})
	}

	h.log.Info().Str("conn", c.ID).Str("room", msg.Room).Msg("left room")
}

// handleSignal relays an opaque negotiation payload to one target
// connection, tagged with the sender's identity. A missing target is an
// expected outcome (the peer may already be gone), so the relay is
// dropped without error.
func (h *Hub) handleSignal(msg *Message) {
	c := msg.client
	if msg.To == "" {
		h.log.Warn().Str("conn", c.ID).Msg("signal without a target ignored")
		return
	}

	target, ok := h.clients[msg.To]
	if !ok {
		h.log.Debug().
			Str("conn", c.ID).
			Str("target", msg.To).
			Msg("dropping signal for unknown target")
		return
	}

	h.send(target.ID, &Message{Type: EventSignal, From: c.ID, Signal: msg.Signal})
	h.metrics.SignalsRelayed.Inc()
}

// handleDisconnect notifies every room the connection belonged to, then
// erases its membership and tears the client down. The remaining-member
// snapshots come from DisconnectAll's atomic removal, so each affected
// room is notified exactly once.
func (h *Hub) handleDisconnect(c *Client) {
	departures := h.registry.DisconnectAll(c.ID)
	for _, d := range departures {
		for _, connID := range d.Remaining {
			h.send(connID, &Message{Type: EventUserDisconnected, Room: d.Room, SocketID: c.ID})
		}
	}

	delete(h.clients, c.ID)
	close(c.Send)

	h.metrics.ActiveConnections.Set(float64(len(h.clients)))
	h.metrics.OpenRooms.Set(float64(h.registry.RoomCount()))
	h.log.Info().
		Str("conn", c.ID).
		Int("rooms", len(departures)).
		Msg("connection unregistered")
}

// send queues a message for one connection without blocking the run
// loop. A peer whose send buffer is full misses the message; delivery
// to the other peers in the same fan-out is unaffected.
func (h *Hub) send(connID string, msg *Message) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	select {
	case c.Send <- msg:
	default:
		h.log.Warn().
			Str("conn", connID).
			Str("type", msg.Type).
			Msg("send buffer full, dropping message")
	}
}
