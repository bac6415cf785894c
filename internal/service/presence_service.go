package service

import (
	"context"

	"go.uber.org/zap"

	"messenger/internal/domain"
	"messenger/internal/event"
)

// PresenceBroadcaster announces presence transitions to a user's contacts.
// Announcements are best-effort and never replayed: a contact who is
// offline at announcement time learns current presence by querying the
// contacts endpoint on its next connect.
type PresenceBroadcaster struct {
	contacts domain.ContactRepository
	pusher   Pusher
	log      *zap.Logger
}

func NewPresenceBroadcaster(contacts domain.ContactRepository, pusher Pusher, log *zap.Logger) *PresenceBroadcaster {
	return &PresenceBroadcaster{contacts: contacts, pusher: pusher, log: log}
}

// AnnounceOnline tells every live connection of the user's contacts that
// the user came online. Called only on the offline -> online transition.
func (b *PresenceBroadcaster) AnnounceOnline(ctx context.Context, userID int64) {
	b.announce(ctx, userID, event.NewUserOnline(userID))
}

// AnnounceOffline is the symmetric offline announcement, fired only when
// the user's last connection closed.
func (b *PresenceBroadcaster) AnnounceOffline(ctx context.Context, userID int64) {
	b.announce(ctx, userID, event.NewUserOffline(userID))
}

func (b *PresenceBroadcaster) announce(ctx context.Context, userID int64, ev event.Event) {
	contactIDs, err := b.contacts.ListContactIDs(ctx, userID)
	if err != nil {
		b.log.Error("list contacts for presence announcement",
			zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	for _, contactID := range contactIDs {
		b.pusher.Push(contactID, ev)
	}
}
