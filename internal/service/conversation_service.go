package service

import (
	"context"
	"fmt"

	"messenger/internal/domain"
)

// ConversationService handles conversation creation and listing. The
// one-conversation-per-pair invariant is enforced here and by the store's
// normalized unique pair.
type ConversationService struct {
	guard         *AccessGuard
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	delivery      *DeliveryService
}

func NewConversationService(
	guard *AccessGuard,
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	delivery *DeliveryService,
) *ConversationService {
	return &ConversationService{
		guard:         guard,
		conversations: conversations,
		messages:      messages,
		users:         users,
		delivery:      delivery,
	}
}

// CreateDirect returns the existing conversation between the two users or
// creates a new one.
func (s *ConversationService) CreateDirect(ctx context.Context, creatorID, participantID int64) (*domain.Conversation, error) {
	if creatorID == participantID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidInput)
	}

	participant, err := s.users.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if participant == nil {
		return nil, domain.ErrNotFound
	}

	existing, err := s.conversations.FindDirect(ctx, creatorID, participantID)
	if err != nil {
		return nil, fmt.Errorf("find existing conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{UserAID: creatorID, UserBID: participantID}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get returns a conversation the user participates in; anything else is
// ErrNotFound.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID int64) (*domain.Conversation, error) {
	return s.guard.Authorize(ctx, userID, conversationID)
}

// ConversationResponse is the list view: the other participant, the last
// message (decrypted), and the caller's unread count.
type ConversationResponse struct {
	ID          int64            `json:"id"`
	Participant *domain.User     `json:"participant"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
	UnreadCount int              `json:"unread_count"`
}

func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*ConversationResponse, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	res := make([]*ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		other, err := s.users.GetByID(ctx, conv.OtherParticipant(userID))
		if err != nil {
			return nil, fmt.Errorf("get participant: %w", err)
		}

		item := &ConversationResponse{ID: conv.ID, Participant: other}

		if conv.LastMessageID != nil {
			if last, err := s.messages.GetByID(ctx, *conv.LastMessageID); err == nil && last != nil {
				item.LastMessage = s.delivery.ToResponse(ctx, last)
			}
		}
		if unread, err := s.messages.CountUnread(ctx, conv.ID, userID); err == nil {
			item.UnreadCount = unread
		}
		res = append(res, item)
	}
	return res, nil
}
