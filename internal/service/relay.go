package service

import (
	"context"

	"go.uber.org/zap"

	"messenger/internal/event"
)

// SignalRelay forwards non-persisted, fire-and-forget signals between the
// two participants of a conversation. Nothing here is durable: a recipient
// with no live connection simply misses the signal.
type SignalRelay struct {
	guard  *AccessGuard
	pusher Pusher
	log    *zap.Logger
}

func NewSignalRelay(guard *AccessGuard, pusher Pusher, log *zap.Logger) *SignalRelay {
	return &SignalRelay{guard: guard, pusher: pusher, log: log}
}

// RelayTyping forwards a typing indicator to the other participant's live
// connections. Unauthorized or malformed conversation IDs are logged and
// swallowed; this channel never reports errors to the sender.
func (r *SignalRelay) RelayTyping(ctx context.Context, senderID, conversationID int64, isTyping bool) {
	conv, err := r.guard.Authorize(ctx, senderID, conversationID)
	if err != nil {
		r.log.Debug("typing relay dropped",
			zap.Int64("sender_id", senderID),
			zap.Int64("conversation_id", conversationID),
			zap.Error(err))
		return
	}
	r.pusher.Push(conv.OtherParticipant(senderID), event.NewTyping(conv.ID, senderID, isTyping))
}
