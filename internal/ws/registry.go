package ws

import "sync"

// Registry maps room codes to their ordered member lists. It is the only
// shared mutable state in the signaling core.
//
// Locking: mutations (Join, Leave) take the registry lock, then the affected
// room's lock — the room map and the conn→room index have to move together.
// Snapshots and broadcasts only take the room's lock, so readers of one room
// never wait on traffic in another.
//
// Invariants held inside these entry points: a room exists iff it has at
// least one member, and a connection ID is in at most one room.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	byConn map[string]string // connection ID → room code
}

type room struct {
	mu      sync.RWMutex
	bmu     sync.Mutex // serializes fan-outs so every member sees the same order
	members []member   // join order
}

type member struct {
	client *Client
	info   MemberInfo
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		byConn: make(map[string]string),
	}
}

// Join adds the connection to the room, creating the room if absent, and
// returns the resulting member snapshot. Re-joining the same room is a no-op
// besides the snapshot; a connection still recorded in another room is moved.
func (reg *Registry) Join(roomID string, c *Client, displayName string) []MemberInfo {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if prev, ok := reg.byConn[c.ID]; ok && prev != roomID {
		reg.dropLocked(prev, c.ID)
	}

	r, ok := reg.rooms[roomID]
	if !ok {
		r = &room{}
		reg.rooms[roomID] = r
	}
	reg.byConn[c.ID] = roomID

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hasLocked(c.ID) {
		r.members = append(r.members, member{
			client: c,
			info:   MemberInfo{ConnectionID: c.ID, DisplayName: displayName},
		})
	}
	return r.snapshotLocked()
}

// Leave removes the connection from whatever room it is in, deleting the
// room if it becomes empty. ok is false when the connection was not in any
// room; calling Leave twice is safe.
func (reg *Registry) Leave(connID string) (roomID string, remaining []MemberInfo, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	roomID, ok = reg.byConn[connID]
	if !ok {
		return "", nil, false
	}
	remaining = reg.dropLocked(roomID, connID)
	return roomID, remaining, true
}

// Members returns a consistent snapshot of the room's member list in join
// order, or nil if the room does not exist.
func (reg *Registry) Members(roomID string) []MemberInfo {
	reg.mu.RLock()
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	if !ok {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Room returns the connection's current room code, if any.
func (reg *Registry) Room(connID string) (string, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	roomID, ok := reg.byConn[connID]
	return roomID, ok
}

// Broadcast delivers to every member of the room except the given connection
// ID (pass "" to include everyone). Fan-outs for the same room are
// serialized so all members observe room traffic in the same relative order;
// each delivery is an independent non-blocking enqueue, so one dead member
// never starves the rest.
func (reg *Registry) Broadcast(roomID, except string, deliver func(*Client)) {
	reg.mu.RLock()
	r, ok := reg.rooms[roomID]
	reg.mu.RUnlock()
	if !ok {
		return
	}

	r.bmu.Lock()
	defer r.bmu.Unlock()

	r.mu.RLock()
	targets := make([]*Client, 0, len(r.members))
	for _, m := range r.members {
		if m.client.ID == except {
			continue
		}
		targets = append(targets, m.client)
	}
	r.mu.RUnlock()

	for _, c := range targets {
		deliver(c)
	}
}

// dropLocked removes the connection from the room and deletes the room when
// it empties. Requires reg.mu held.
func (reg *Registry) dropLocked(roomID, connID string) []MemberInfo {
	delete(reg.byConn, connID)
	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}

	r.mu.Lock()
	for i, m := range r.members {
		if m.client.ID == connID {
			r.members = append(r.members[:i], r.members[i+1:]...)
			break
		}
	}
	snap := r.snapshotLocked()
	empty := len(r.members) == 0
	r.mu.Unlock()

	if empty {
		delete(reg.rooms, roomID)
	}
	return snap
}

func (r *room) hasLocked(connID string) bool {
	for _, m := range r.members {
		if m.client.ID == connID {
			return true
		}
	}
	return false
}

func (r *room) snapshotLocked() []MemberInfo {
	snap := make([]MemberInfo, len(r.members))
	for i, m := range r.members {
		snap[i] = m.info
	}
	return snap
}
