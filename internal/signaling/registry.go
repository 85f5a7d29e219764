package signaling

import "sync"

// Member pairs a connection identity with the participant identity it
// joined a room under.
type Member struct {
	ConnID        string
	ParticipantID string
}

// Departure records one room a disconnecting connection was removed
// from, together with the connections still present after removal.
type Departure struct {
	Room      string
	Remaining []string
}

// Registry tracks which connections are members of which rooms. A room
// exists exactly as long as it has at least one member; the entry is
// deleted when the last member leaves. All methods are safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]string // room key -> conn ID -> participant ID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[string]string),
	}
}

// Join records connID as a member of room under the given participant
// identity. The room is created on first join. Calling Join again with
// the same arguments is a no-op.
func (r *Registry) Join(connID, room, participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]string)
		r.rooms[room] = members
	}
	members[connID] = participantID
}

// Leave removes connID from room. It reports whether the connection was
// actually a member; leaving a room it never joined is a no-op, not an
// error.
func (r *Registry) Leave(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, ok := members[connID]; !ok {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	return true
}

// DisconnectAll removes connID from every room it belongs to in one
// atomic step and returns, per room, the connections that remain. The
// remaining-member snapshots are taken under the same lock as the
// removal, so the caller can notify exactly the peers that shared a
// room with the dead connection.
func (r *Registry) DisconnectAll(connID string) []Departure {
	r.mu.Lock()
	defer r.mu.Unlock()

	var departures []Departure
	for room, members := range r.rooms {
		if _, ok := members[connID]; !ok {
			continue
		}
		delete(members, connID)

		remaining := make([]string, 0, len(members))
		for id := range members {
			remaining = append(remaining, id)
		}
		departures = append(departures, Departure{Room: room, Remaining: remaining})

		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	return departures
}

// MembersOf returns the current members of room minus the excluded
// connection. A newly joined connection passes its own ID so it learns
// only about the others.
func (r *Registry) MembersOf(room, excluding string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]Member, 0, len(members))
	for connID, participantID := range members {
		if connID == excluding {
			continue
		}
		out = append(out, Member{ConnID: connID, ParticipantID: participantID})
	}
	return out
}

// RoomCount returns the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
