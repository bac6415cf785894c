package service

import (
	"context"
	"fmt"

	"messenger/internal/domain"
)

// AccessGuard authorizes a user against a conversation. Every component
// that acts on a caller-supplied conversation ID goes through it first.
type AccessGuard struct {
	conversations domain.ConversationRepository
}

func NewAccessGuard(conversations domain.ConversationRepository) *AccessGuard {
	return &AccessGuard{conversations: conversations}
}

// Authorize returns the conversation only if userID is one of its two
// participants. A conversation that exists but does not include the user
// reports domain.ErrNotFound, the same as an absent one, so
// non-participants cannot probe for conversation existence.
func (g *AccessGuard) Authorize(ctx context.Context, userID, conversationID int64) (*domain.Conversation, error) {
	conv, err := g.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil || !conv.HasParticipant(userID) {
		return nil, domain.ErrNotFound
	}
	return conv, nil
}
