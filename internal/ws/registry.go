package ws

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"messenger/internal/event"
)

// ErrAlreadyRegistered is returned when a connection handle is already
// owned by a different user. This cannot happen under correct lifecycle
// use; the check is defensive.
var ErrAlreadyRegistered = errors.New("connection already registered to another user")

// Registry tracks which users are reachable and through which connections.
// It is the single authoritative user <-> connection mapping for the
// process; one user may hold several connections (multiple devices).
//
// All methods are safe for concurrent use. The registry lock is never held
// while writing to a socket or while persistence I/O is in flight.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]map[string]*Client // userID -> connID -> client
	owners   map[string]int64             // connID -> userID
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[int64]map[string]*Client),
		owners:   make(map[string]int64),
		log:      log,
	}
}

// Register adds a connection to the user's session set. It reports whether
// the user transitioned from offline to online (first live connection).
func (r *Registry) Register(userID int64, c *Client) (cameOnline bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.owners[c.ID]; ok && owner != userID {
		return false, ErrAlreadyRegistered
	}

	set, ok := r.sessions[userID]
	if !ok {
		set = make(map[string]*Client)
		r.sessions[userID] = set
	}
	cameOnline = len(set) == 0
	set[c.ID] = c
	r.owners[c.ID] = userID
	return cameOnline, nil
}

// Deregister removes a connection from its owner's session set and reports
// whether the owner went offline as a result. Deregistering a connection
// that was already removed is a no-op.
func (r *Registry) Deregister(c *Client) (wentOffline bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[c.ID]
	if !ok {
		return false
	}
	delete(r.owners, c.ID)

	set := r.sessions[userID]
	delete(set, c.ID)
	if len(set) == 0 {
		delete(r.sessions, userID)
		return true
	}
	return false
}

// ConnectionsFor returns a snapshot of the user's live connections. The
// returned slice is owned by the caller.
func (r *Registry) ConnectionsFor(userID int64) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.sessions[userID]
	if len(set) == 0 {
		return nil
	}
	clients := make([]*Client, 0, len(set))
	for _, c := range set {
		clients = append(clients, c)
	}
	return clients
}

// IsOnline reports whether the user has at least one live connection.
func (r *Registry) IsOnline(userID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[userID]) > 0
}

// Push fans an event out to every live connection of the user and returns
// how many connections accepted it. Failures are isolated per connection:
// a full or closed socket is skipped, the rest still receive the event.
func (r *Registry) Push(userID int64, ev event.Event) int {
	payload, err := event.Marshal(ev)
	if err != nil {
		r.log.Error("marshal event", zap.String("event", string(ev.Kind())), zap.Error(err))
		return 0
	}

	accepted := 0
	for _, c := range r.ConnectionsFor(userID) {
		if c.Enqueue(payload) {
			accepted++
		} else {
			r.log.Debug("event dropped for connection",
				zap.String("event", string(ev.Kind())),
				zap.String("conn_id", c.ID),
				zap.Int64("user_id", userID))
		}
	}
	return accepted
}
