package ws

import (
	"sync"
)

type Conn interface {
	Send(evt Event) error
	Close() error
}

// Hub keeps per-identity broadcast rooms. Membership is process-local and
// rebuilt from the join handshake on every connection; nothing here survives a
// restart. The durable store stays the source of truth, the hub is only the
// low-latency overlay.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Conn]struct{} // identity id -> connections
	joined map[Conn]string              // reverse index, for eviction
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]struct{}),
		joined: make(map[Conn]string),
	}
}

// Membership is the capability a connection holds after a successful join.
// A connection belongs to at most one room; joining again moves it.
type Membership struct {
	hub  *Hub
	conn Conn
	id   string
}

func (m *Membership) IdentityID() string { return m.id }

func (m *Membership) Leave() {
	m.hub.remove(m.conn)
}

// Join adds c to the room of identityID, evicting any room c was in before.
func (h *Hub) Join(c Conn, identityID string) *Membership {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.joined[c]; ok {
		h.removeLocked(c, prev)
	}

	rs, ok := h.rooms[identityID]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[identityID] = rs
	}
	rs[c] = struct{}{}
	h.joined[c] = identityID

	return &Membership{hub: h, conn: c, id: identityID}
}

func (h *Hub) remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if id, ok := h.joined[c]; ok {
		h.removeLocked(c, id)
	}
}

func (h *Hub) removeLocked(c Conn, identityID string) {
	if rs, ok := h.rooms[identityID]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, identityID)
		}
	}
	delete(h.joined, c)
}

// Broadcast pushes evt to every connection in identityID's room. No delivery
// guarantee: an empty room drops the event silently, a subsequent fetch from
// the store recovers the state.
func (h *Hub) Broadcast(identityID string, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[identityID]; ok {
		for c := range rs {
			_ = c.Send(evt) // best-effort
		}
	}
}

// RoomSize reports the number of connections joined to identityID's room.
func (h *Hub) RoomSize(identityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[identityID])
}
