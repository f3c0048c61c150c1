package ws

import (
	"sync"

	"zanzar-backend/pkg/logger"

	"github.com/google/uuid"
)

// Registry maps profile identities to their live connections and tracks
// room membership. It holds no durable state: a process restart drops all
// routing and reconnecting clients re-populate it.
type Registry struct {
	mu sync.RWMutex

	// conns maps a profile to its live connections, ordered oldest first.
	// A profile with zero connections has no map entry.
	conns map[uuid.UUID][]Conn

	// owners maps connection ID back to the owning profile, for
	// disconnect events that no longer carry handshake data.
	owners map[string]uuid.UUID

	// rooms maps a room key to the set of joined connections.
	rooms map[string]map[string]Conn

	maxPerProfile int
	log           *logger.Logger
}

func NewRegistry(maxPerProfile int, log *logger.Logger) *Registry {
	if maxPerProfile <= 0 {
		maxPerProfile = 8
	}
	return &Registry{
		conns:         make(map[uuid.UUID][]Conn),
		owners:        make(map[string]uuid.UUID),
		rooms:         make(map[string]map[string]Conn),
		maxPerProfile: maxPerProfile,
		log:           log,
	}
}

// Register adds a connection under the profile. When the per-profile cap
// is reached the oldest connection is closed and evicted.
func (r *Registry) Register(profileID uuid.UUID, conn Conn) {
	var evicted Conn

	r.mu.Lock()
	list := r.conns[profileID]
	if len(list) >= r.maxPerProfile {
		evicted = list[0]
		list = list[1:]
		delete(r.owners, evicted.ID())
		r.removeFromRoomsLocked(evicted)
	}
	r.conns[profileID] = append(list, conn)
	r.owners[conn.ID()] = profileID
	r.mu.Unlock()

	if evicted != nil {
		_ = evicted.Close()
		r.log.Warnf("evicted oldest connection for profile %s: cap %d reached", profileID, r.maxPerProfile)
	}
}

// Deregister removes a connection. An empty connection list removes the
// profile entry entirely.
func (r *Registry) Deregister(profileID uuid.UUID, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list, ok := r.conns[profileID]
	if !ok {
		return
	}
	filtered := list[:0]
	for _, c := range list {
		if c.ID() != conn.ID() {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		delete(r.conns, profileID)
	} else {
		r.conns[profileID] = filtered
	}
	delete(r.owners, conn.ID())
	r.removeFromRoomsLocked(conn)
}

// DeregisterConn removes a connection when only the connection is known,
// resolving the owning profile via the reverse index.
func (r *Registry) DeregisterConn(conn Conn) {
	r.mu.RLock()
	profileID, ok := r.owners[conn.ID()]
	r.mu.RUnlock()
	if !ok {
		r.log.Warnf("disconnected connection not found in registry: %s", conn.ID())
		return
	}
	r.Deregister(profileID, conn)
}

// ResolveProfile returns the profile owning a connection, if any.
func (r *Registry) ResolveProfile(connID string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profileID, ok := r.owners[connID]
	return profileID, ok
}

// Connections returns a copy of the live connections for a profile,
// possibly empty.
func (r *Registry) Connections(profileID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.conns[profileID]
	out := make([]Conn, len(list))
	copy(out, list)
	return out
}

// AllConnections returns every live connection across all profiles.
func (r *Registry) AllConnections() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Conn
	for _, list := range r.conns {
		out = append(out, list...)
	}
	return out
}

// JoinRoom subscribes a connection to a room. Joining is an explicit
// client action taken after connecting.
func (r *Registry) JoinRoom(room string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[string]Conn)
	}
	r.rooms[room][conn.ID()] = conn
}

// LeaveRoom unsubscribes a connection from a room. An empty room is
// removed from the map.
func (r *Registry) LeaveRoom(room string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.rooms[room]; ok {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// RoomConnections returns a copy of the connections joined to a room.
func (r *Registry) RoomConnections(room string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.rooms[room]
	out := make([]Conn, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns the number of live connections.
func (r *Registry) ConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}

func (r *Registry) removeFromRoomsLocked(conn Conn) {
	for room, members := range r.rooms {
		delete(members, conn.ID())
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}
