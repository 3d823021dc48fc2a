// Package registry tracks which live connections belong to which room and
// fans frames out to room members.
//
// The registry has no knowledge of wire framing. Payloads handed to
// Broadcast are delivered as-is, and member-count pushes are produced by the
// CountEncoder supplied to New.
package registry

import (
	"log/slog"
	"sort"
	"sync"
)

// Peer is the registry's view of one live connection.
type Peer interface {
	// ID returns an identity that is unique among live peers.
	ID() string
	// Send enqueues a frame without blocking. It reports false when the
	// frame was dropped because the peer is closed or its buffer is full.
	Send(frame []byte) bool
}

// CountEncoder builds the frame pushed to members when a room's member count
// changes.
type CountEncoder func(count int) []byte

// RoomInfo is a point-in-time view of one room.
type RoomInfo struct {
	ID          string `json:"roomId"`
	MemberCount int    `json:"memberCount"`
}

type room struct {
	id      string
	mu      sync.RWMutex
	members map[string]Peer
}

// Registry is the single source of truth for room existence and membership.
// It is safe for concurrent use.
//
// mu guards rooms and the peer index. Each room's member set has its own
// lock, always taken after mu and never while holding another room's lock.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*room
	memberships map[string]*room // peer id -> room

	countFrame CountEncoder
	log        *slog.Logger
}

// New creates an empty Registry. A nil logger falls back to slog.Default.
func New(countFrame CountEncoder, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		rooms:       make(map[string]*room),
		memberships: make(map[string]*room),
		countFrame:  countFrame,
		log:         log.With(slog.String("component", "registry")),
	}
}

// CreateRoom records a new room. It fails with ErrRoomAlreadyExists if the id
// is already known.
func (r *Registry) CreateRoom(roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[roomID]; exists {
		return ErrRoomAlreadyExists
	}
	r.rooms[roomID] = &room{id: roomID, members: make(map[string]Peer)}
	r.log.Info("room created", slog.String("room_id", roomID), slog.Int("rooms", len(r.rooms)))
	return nil
}

// Join makes peer a member of roomID and pushes the new member count to every
// member, the joining peer included. A peer already in another room is moved:
// its old room loses the entry and its remaining members get a count push.
// Join returns the member count after the join.
func (r *Registry) Join(peer Peer, roomID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.rooms[roomID]
	if !ok {
		return 0, ErrRoomNotFound
	}

	id := peer.ID()
	if prev, ok := r.memberships[id]; ok && prev != target {
		prev.mu.Lock()
		delete(prev.members, id)
		r.pushCountLocked(prev)
		prev.mu.Unlock()
	}
	r.memberships[id] = target

	target.mu.Lock()
	defer target.mu.Unlock()
	target.members[id] = peer
	count := len(target.members)
	r.pushCountLocked(target)

	r.log.Debug("peer joined", slog.String("conn_id", id), slog.String("room_id", roomID), slog.Int("members", count))
	return count, nil
}

// Broadcast delivers payload to every member of the sender's room, the sender
// included. It is a no-op when the sender has not joined a room, and reports
// whether a room was resolved. Members that cannot take the frame are
// skipped.
func (r *Registry) Broadcast(sender Peer, payload []byte) bool {
	r.mu.RLock()
	target, ok := r.memberships[sender.ID()]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	target.mu.RLock()
	defer target.mu.RUnlock()

	delivered, dropped := 0, 0
	for _, member := range target.members {
		if member.Send(payload) {
			delivered++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		r.log.Warn("broadcast skipped unavailable members",
			slog.String("room_id", target.id),
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped))
	}
	return true
}

// Remove deletes any membership entry for peer. If the peer was a member, the
// remaining members of its room receive the new count, unless the room is
// now empty. Remove reports whether an entry was deleted.
func (r *Registry) Remove(peer Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := peer.ID()
	target, ok := r.memberships[id]
	if !ok {
		return false
	}
	delete(r.memberships, id)

	target.mu.Lock()
	delete(target.members, id)
	count := len(target.members)
	r.pushCountLocked(target)
	target.mu.Unlock()

	r.log.Debug("peer removed", slog.String("conn_id", id), slog.String("room_id", target.id), slog.Int("members", count))
	return true
}

// MemberCount returns the number of live members of roomID, or 0 for an
// unknown or empty room.
func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	target, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}

	target.mu.RLock()
	defer target.mu.RUnlock()
	return len(target.members)
}

// RoomOf returns the room peer currently belongs to.
func (r *Registry) RoomOf(peer Peer) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, ok := r.memberships[peer.ID()]
	if !ok {
		return "", false
	}
	return target.id, true
}

// Rooms returns a snapshot of every room, sorted by id.
func (r *Registry) Rooms() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rm.mu.RLock()
		infos = append(infos, RoomInfo{ID: rm.id, MemberCount: len(rm.members)})
		rm.mu.RUnlock()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// RoomCount returns the number of rooms created so far.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// pushCountLocked sends the current member count to every member of rm.
// The caller holds rm.mu for writing, so pushes reach members in mutation
// order. Nothing is sent to an empty room.
func (r *Registry) pushCountLocked(rm *room) {
	if len(rm.members) == 0 || r.countFrame == nil {
		return
	}
	frame := r.countFrame(len(rm.members))
	for _, member := range rm.members {
		member.Send(frame)
	}
}
