package domain

import "time"

// User represents an application user.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Email          string    `db:"email" json:"email"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastSeen       time.Time `db:"last_seen" json:"last_seen"`
}

// MessageStatus is the delivery state of a message. It only ever moves
// forward: sent -> delivered -> read. Delivered may be skipped when the
// recipient reads before the delivery acknowledgment.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether a transition from s to next is a legal
// forward step of the status machine.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	return next.rank() > s.rank()
}

// Conversation is a direct conversation between exactly two users. The
// participant pair is stored normalized (UserAID < UserBID) so at most one
// conversation exists per pair.
type Conversation struct {
	ID            int64     `db:"id" json:"id"`
	UserAID       int64     `db:"user_a_id" json:"user_a_id"`
	UserBID       int64     `db:"user_b_id" json:"user_b_id"`
	LastMessageID *int64    `db:"last_message_id" json:"last_message_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// OtherParticipant returns the participant that is not userID. The caller
// must have checked membership first.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}

// Message represents a single chat message.
type Message struct {
	ID             int64         `db:"id" json:"id"`
	ConversationID int64         `db:"conversation_id" json:"conversation_id"`
	SenderID       int64         `db:"sender_id" json:"sender_id"`
	Content        string        `db:"content" json:"-"` // encrypted at rest
	FilePath       *string       `db:"file_path" json:"file_path,omitempty"`
	FileType       *string       `db:"file_type" json:"file_type,omitempty"`
	Status         MessageStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// Contact is a directed owner -> contact edge. It is not required to be
// symmetric: A having B as a contact does not imply the reverse.
type Contact struct {
	OwnerID   int64     `db:"owner_id"`
	ContactID int64     `db:"contact_id"`
	CreatedAt time.Time `db:"created_at"`
}
