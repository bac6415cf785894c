package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Search(ctx context.Context, query string, limit int) ([]*User, error)
	TouchLastSeen(ctx context.Context, id int64) error
	Update(ctx context.Context, u *User) error
}

// ConversationRepository defines persistence operations for conversations.
// Implementations enforce the one-conversation-per-pair invariant by storing
// the participant pair normalized.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	FindDirect(ctx context.Context, userA, userB int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID int64) error
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	ListForConversation(ctx context.Context, conversationID int64, before time.Time, limit int) ([]*Message, error)
	// UpdateStatus advances a message's status. Implementations must be
	// monotone: a message already at or past the requested status is left
	// untouched and no error is returned.
	UpdateStatus(ctx context.Context, messageID int64, status MessageStatus) error
	CountUnread(ctx context.Context, conversationID, userID int64) (int, error)
}

// ContactRepository defines operations on the directed contact graph.
type ContactRepository interface {
	Create(ctx context.Context, ownerID, contactID int64) error
	Delete(ctx context.Context, ownerID, contactID int64) error
	Exists(ctx context.Context, ownerID, contactID int64) (bool, error)
	// ListForOwner returns the contact users of an owner, most recently
	// seen first.
	ListForOwner(ctx context.Context, ownerID int64) ([]*User, error)
	ListContactIDs(ctx context.Context, ownerID int64) ([]int64, error)
}

// Stores bundles the repository implementations of one backing database.
type Stores struct {
	Users         UserRepository
	Conversations ConversationRepository
	Messages      MessageRepository
	Contacts      ContactRepository
}
