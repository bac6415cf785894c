// Package event defines the closed set of payloads pushed to live
// connections. Every outbound frame carries a "type" discriminator so
// clients can switch on it; the Go side dispatches on the concrete type
// instead of the string.
package event

import (
	"encoding/json"
	"time"
)

// Type discriminates outbound event payloads on the wire.
type Type string

const (
	TypeMessageReceived Type = "message:received"
	TypeMessageRead     Type = "message:read"
	TypeTyping          Type = "typing"
	TypeUserOnline      Type = "user:online"
	TypeUserOffline     Type = "user:offline"
	TypeError           Type = "error"
)

// Event is implemented by every outbound payload.
type Event interface {
	Kind() Type
}

// Marshal encodes an event for the wire.
func Marshal(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Message is the wire view of a chat message, decrypted and enriched with
// the sender's display name.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Content        string    `json:"content"`
	FilePath       *string   `json:"file_path,omitempty"`
	FileType       *string   `json:"file_type,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// MessageReceived is fanned out to both participants when a message is sent.
type MessageReceived struct {
	Type           Type    `json:"type"`
	ConversationID int64   `json:"conversation_id"`
	Message        Message `json:"message"`
}

func NewMessageReceived(conversationID int64, msg Message) MessageReceived {
	return MessageReceived{Type: TypeMessageReceived, ConversationID: conversationID, Message: msg}
}

func (MessageReceived) Kind() Type { return TypeMessageReceived }

// MessageRead is sent to the original sender when the other participant
// reads one of their messages.
type MessageRead struct {
	Type           Type  `json:"type"`
	ConversationID int64 `json:"conversation_id"`
	MessageID      int64 `json:"message_id"`
	ReaderID       int64 `json:"reader_id"`
}

func NewMessageRead(conversationID, messageID, readerID int64) MessageRead {
	return MessageRead{Type: TypeMessageRead, ConversationID: conversationID, MessageID: messageID, ReaderID: readerID}
}

func (MessageRead) Kind() Type { return TypeMessageRead }

// Typing is a fire-and-forget typing indicator.
type Typing struct {
	Type           Type  `json:"type"`
	ConversationID int64 `json:"conversation_id"`
	SenderID       int64 `json:"sender_id"`
	IsTyping       bool  `json:"is_typing"`
}

func NewTyping(conversationID, senderID int64, isTyping bool) Typing {
	return Typing{Type: TypeTyping, ConversationID: conversationID, SenderID: senderID, IsTyping: isTyping}
}

func (Typing) Kind() Type { return TypeTyping }

// UserOnline announces a presence transition to a user's contacts.
type UserOnline struct {
	Type   Type  `json:"type"`
	UserID int64 `json:"user_id"`
}

func NewUserOnline(userID int64) UserOnline {
	return UserOnline{Type: TypeUserOnline, UserID: userID}
}

func (UserOnline) Kind() Type { return TypeUserOnline }

// UserOffline is the symmetric offline announcement.
type UserOffline struct {
	Type   Type  `json:"type"`
	UserID int64 `json:"user_id"`
}

func NewUserOffline(userID int64) UserOffline {
	return UserOffline{Type: TypeUserOffline, UserID: userID}
}

func (UserOffline) Kind() Type { return TypeUserOffline }

// Error reports an operation failure back to the connection that caused it.
type Error struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
}

func NewError(msg string) Error {
	return Error{Type: TypeError, Message: msg}
}

func (Error) Kind() Type { return TypeError }
