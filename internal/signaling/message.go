package signaling

import "encoding/json"

// Event names sent by clients.
const (
	EventJoinRoom  = "join-room"
	EventLeaveRoom = "leave-room"
	EventSignal    = "signal"
)

// Event names sent to clients.
const (
	EventAllUsers         = "all-users"
	EventUserConnected    = "user-connected"
	EventUserDisconnected = "user-disconnected"
)

// UserInfo describes one existing room member to a newly joined peer.
type UserInfo struct {
	SocketID string `json:"socketId"`
	UserID   string `json:"userId"`
}

// Message defines the structure for all C2S (Client to Server)
// and S2C (Server to Client) websocket events.
type Message struct {
	Type string `json:"type"`

	// Room is the room key for join-room / leave-room, and the scope
	// of membership notifications sent back to clients.
	Room string `json:"room,omitempty"`

	// UserID is the participant identity supplied on join-room.
	UserID string `json:"userId,omitempty"`

	// To addresses a signal relay to a specific connection.
	To string `json:"to,omitempty"`

	// From carries the sender's connection identity on relayed signals.
	From string `json:"from,omitempty"`

	// SocketID identifies the connection a membership notification is
	// about.
	SocketID string `json:"socketId,omitempty"`

	// Users is the member list delivered with all-users.
	Users []UserInfo `json:"users,omitempty"`

	// Signal is the opaque negotiation blob relayed between peers. The
	// hub never inspects it.
	Signal json.RawMessage `json:"signal,omitempty"`

	// client is the connection that sent the message. It's set by the
	// read pump and never serialized.
	client *Client `json:"-"`
}
