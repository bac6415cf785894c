package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"messenger/internal/domain"
	"messenger/internal/event"
	"messenger/internal/security"
)

// DeliveryService is the single send path for messages. Both the socket
// handler and the HTTP message endpoint go through it, so they share the
// status state machine and the fan-out logic.
type DeliveryService struct {
	guard         *AccessGuard
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	encryptor     *security.Encryptor
	pusher        Pusher
	log           *zap.Logger

	MaxContentLength int
}

func NewDeliveryService(
	guard *AccessGuard,
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	encryptor *security.Encryptor,
	pusher Pusher,
	log *zap.Logger,
	maxContentLength int,
) *DeliveryService {
	if maxContentLength <= 0 {
		maxContentLength = 1000
	}
	return &DeliveryService{
		guard:            guard,
		conversations:    conversations,
		messages:         messages,
		users:            users,
		encryptor:        encryptor,
		pusher:           pusher,
		log:              log,
		MaxContentLength: maxContentLength,
	}
}

type SendMessageInput struct {
	ConversationID int64
	Content        string
	FilePath       *string
	FileType       *string
}

// SendMessage persists a new message with status "sent", updates the
// conversation's last-message pointer, and fans the message out to every
// live connection of both participants (the sender gets a multi-device
// echo). If at least one of the recipient's connections accepted the event,
// the status auto-advances to "delivered"; the returned message still
// carries "sent", which is what the sender observed synchronously.
//
// Recipients with no live connection are not retried; they see the message
// on their next history fetch.
func (s *DeliveryService) SendMessage(ctx context.Context, senderID int64, in SendMessageInput) (*domain.Message, error) {
	hasFile := in.FilePath != nil && *in.FilePath != ""
	if in.Content == "" && !hasFile {
		return nil, fmt.Errorf("%w: message content cannot be empty", domain.ErrInvalidInput)
	}
	if len([]rune(in.Content)) > s.MaxContentLength {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidInput, s.MaxContentLength)
	}

	conv, err := s.guard.Authorize(ctx, senderID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.encryptor.Encrypt(in.Content)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}

	msg := &domain.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        encrypted,
		FilePath:       in.FilePath,
		FileType:       in.FileType,
		Status:         domain.StatusSent,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := s.conversations.SetLastMessage(ctx, conv.ID, msg.ID); err != nil {
		return nil, fmt.Errorf("set last message: %w", err)
	}

	payload := s.eventMessage(ctx, msg, in.Content)
	ev := event.NewMessageReceived(conv.ID, payload)

	recipientID := conv.OtherParticipant(senderID)
	s.pusher.Push(senderID, ev)
	accepted := s.pusher.Push(recipientID, ev)

	if accepted > 0 {
		s.confirmDelivered(ctx, msg.ID)
	}
	return msg, nil
}

// confirmDelivered advances sent -> delivered. The store ignores the update
// if the message already moved past "sent", so a racing read wins.
func (s *DeliveryService) confirmDelivered(ctx context.Context, messageID int64) {
	if err := s.messages.UpdateStatus(ctx, messageID, domain.StatusDelivered); err != nil {
		s.log.Error("confirm delivered", zap.Int64("message_id", messageID), zap.Error(err))
	}
}

// MarkRead advances a message to "read" on behalf of the reader and tells
// the original sender's connections about it. Reading your own message is
// a no-op success so clients can mark whole conversations blindly.
func (s *DeliveryService) MarkRead(ctx context.Context, readerID, conversationID, messageID int64) error {
	conv, err := s.guard.Authorize(ctx, readerID, conversationID)
	if err != nil {
		return err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil || msg.ConversationID != conv.ID {
		return domain.ErrNotFound
	}
	if msg.SenderID == readerID {
		return nil
	}

	if msg.Status.CanAdvanceTo(domain.StatusRead) {
		if err := s.messages.UpdateStatus(ctx, messageID, domain.StatusRead); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
	}

	s.pusher.Push(msg.SenderID, event.NewMessageRead(conv.ID, messageID, readerID))
	return nil
}

// ListMessages returns a page of conversation history in chronological
// order, decrypted.
func (s *DeliveryService) ListMessages(ctx context.Context, userID, conversationID int64, before time.Time, limit int) ([]*MessageResponse, error) {
	conv, err := s.guard.Authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListForConversation(ctx, conv.ID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// DB returns newest first; flip to chronological.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return s.toResponses(ctx, msgs), nil
}

// MessageResponse is the HTTP view of a message, decrypted.
type MessageResponse struct {
	ID             int64                `json:"id"`
	ConversationID int64                `json:"conversation_id"`
	SenderID       int64                `json:"sender_id"`
	SenderName     string               `json:"sender_name"`
	Content        string               `json:"content"`
	FilePath       *string              `json:"file_path,omitempty"`
	FileType       *string              `json:"file_type,omitempty"`
	Status         domain.MessageStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// ToResponse converts a domain message into a decrypted response DTO.
func (s *DeliveryService) ToResponse(ctx context.Context, m *domain.Message) *MessageResponse {
	content, err := s.encryptor.Decrypt(m.Content)
	if err != nil {
		// Undecryptable content is served raw rather than failing the
		// whole listing.
		content = m.Content
	}
	var name string
	if u, err := s.users.GetByID(ctx, m.SenderID); err == nil && u != nil {
		name = u.Name
	}
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     name,
		Content:        content,
		FilePath:       m.FilePath,
		FileType:       m.FileType,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
	}
}

func (s *DeliveryService) toResponses(ctx context.Context, msgs []*domain.Message) []*MessageResponse {
	res := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, s.ToResponse(ctx, m))
	}
	return res
}

// eventMessage builds the outbound wire view using the plaintext the sender
// just provided, avoiding a decrypt round-trip.
func (s *DeliveryService) eventMessage(ctx context.Context, m *domain.Message, plain string) event.Message {
	var name string
	if u, err := s.users.GetByID(ctx, m.SenderID); err == nil && u != nil {
		name = u.Name
	}
	return event.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     name,
		Content:        plain,
		FilePath:       m.FilePath,
		FileType:       m.FileType,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
}
