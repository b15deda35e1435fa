package services

import (
	"log"
	"sync"

	"github.com/KumudBhatt/Code-Nexus/internal/models"
)

// Registry is the authoritative table of active sessions. A session exists iff
// at least one participant is joined: it is created lazily on first join and
// destroyed the moment its participant set becomes empty or the room is
// disbanded. Mutations on an absent room are silent no-ops; room teardown
// races with in-flight events under disconnect storms and that is expected.
//
// All realtime mutations arrive through the hub's single dispatch goroutine,
// so per-room ordering is total. The mutex makes the table safe for the few
// read paths outside that loop (metrics, handlers).
type Registry struct {
	mu         sync.RWMutex
	sessions   map[string]*models.Session
	roomByConn map[string]string

	metrics *Metrics
}

func NewRegistry(metrics *Metrics) *Registry {
	return &Registry{
		sessions:   make(map[string]*models.Session),
		roomByConn: make(map[string]string),
		metrics:    metrics,
	}
}

// Join adds a participant to a room, creating the session if absent.
// Returns the current snapshot for the joiner and the updated roster for the
// whole room.
func (r *Registry) Join(roomID, connID, username string) (models.Snapshot, []models.ClientInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[roomID]
	if !ok {
		session = models.NewSession(roomID)
		r.sessions[roomID] = session
		r.metrics.IncrementRooms()
		log.Printf("session created: room=%s", roomID)
	}

	session.Participants[connID] = models.NewParticipant(connID, username)
	r.roomByConn[connID] = roomID

	return session.Snapshot(), session.Roster()
}

// UpdateCode overwrites the room's document, last writer wins.
// Returns false if the room does not exist.
func (r *Registry) UpdateCode(roomID, code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return false
	}
	session.Code = code
	return true
}

// UpdateInput overwrites the room's last-known stdin buffer.
func (r *Registry) UpdateInput(roomID, input string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return false
	}
	session.Input = input
	return true
}

// UpdateOutput overwrites the room's last-known execution output.
func (r *Registry) UpdateOutput(roomID, output string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return false
	}
	session.Output = output
	return true
}

// Leave removes a participant. The session is destroyed when its roster
// becomes empty. Returns the remaining roster and whether the session was
// destroyed; ok is false when the room or participant was already gone.
func (r *Registry) Leave(roomID, connID string) (roster []models.ClientInfo, destroyed bool, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[roomID]
	if !exists {
		// The connection may be joined elsewhere; only drop the reverse
		// mapping when it points at this room.
		if r.roomByConn[connID] == roomID {
			delete(r.roomByConn, connID)
		}
		return nil, false, false
	}
	if _, member := session.Participants[connID]; !member {
		if r.roomByConn[connID] == roomID {
			delete(r.roomByConn, connID)
		}
		return nil, false, false
	}

	delete(session.Participants, connID)
	delete(r.roomByConn, connID)

	if len(session.Participants) == 0 {
		r.destroyLocked(roomID)
		return nil, true, true
	}
	return session.Roster(), false, true
}

// Disband destroys the session unconditionally and returns the connection IDs
// that were members, so the transport layer can detach them. Idempotent on an
// absent room.
func (r *Registry) Disband(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return nil
	}

	connIDs := make([]string, 0, len(session.Participants))
	for connID := range session.Participants {
		connIDs = append(connIDs, connID)
		delete(r.roomByConn, connID)
	}
	r.destroyLocked(roomID)
	return connIDs
}

// RoomForConn resolves the room a connection is joined to. The transport gives
// no room context on involuntary disconnect, so the hub relies on this reverse
// lookup to turn a dropped connection into a leave.
func (r *Registry) RoomForConn(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomID, ok := r.roomByConn[connID]
	return roomID, ok
}

// HasRoom reports whether a session currently exists for roomID.
func (r *Registry) HasRoom(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[roomID]
	return ok
}

// ParticipantCount returns the roster size, zero for an absent room.
func (r *Registry) ParticipantCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return 0
	}
	return len(session.Participants)
}

// Snapshot returns the room's current state, for read paths outside the hub.
func (r *Registry) Snapshot(roomID string) (models.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[roomID]
	if !ok {
		return models.Snapshot{}, false
	}
	return session.Snapshot(), true
}

func (r *Registry) destroyLocked(roomID string) {
	delete(r.sessions, roomID)
	r.metrics.DecrementRooms()
	log.Printf("session destroyed: room=%s", roomID)
}
