package service

import "messenger/internal/event"

// Pusher delivers outbound events to a user's live connections. It is
// implemented by ws.Registry; services depend on this interface so the
// outbound event contract can be tested without a live transport.
type Pusher interface {
	// Push fans the event out to every live connection of the user and
	// returns how many connections accepted it. Zero means the user had no
	// reachable connection at that moment.
	Push(userID int64, ev event.Event) int
	IsOnline(userID int64) bool
}
