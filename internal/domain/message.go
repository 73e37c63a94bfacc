package domain

import "time"

// MessageType classifies a chat message.
type MessageType string

const (
	MessageTypeText   MessageType = "TEXT"
	MessageTypeImage  MessageType = "IMAGE"
	MessageTypeFile   MessageType = "FILE"
	MessageTypeSystem MessageType = "SYSTEM"
	MessageTypeJoin   MessageType = "JOIN"
	MessageTypeLeave  MessageType = "LEAVE"
)

// Message is a persisted chat message. Exactly one of ChatRoomID (broadcast)
// or RecipientID (point-to-point) is set, never both.
type Message struct {
	ID                string      `json:"id"`
	SenderID          string      `json:"sender_id"`
	SenderUsername    string      `json:"sender_username"`
	SenderDisplayName string      `json:"sender_display_name,omitempty"`
	RecipientID       string      `json:"recipient_id,omitempty"`
	RecipientUsername string      `json:"recipient_username,omitempty"`
	ChatRoomID        string      `json:"chat_room_id,omitempty"`
	Content           string      `json:"content"`
	MessageType       MessageType `json:"message_type"`
	Timestamp         time.Time   `json:"timestamp"`
	IsPrivate         bool        `json:"is_private"`
	IsRead            bool        `json:"is_read"`
}

// MessageDTO is the wire and cache representation of a message. It is what
// travels through the durable log and out to live subscribers.
type MessageDTO struct {
	ID                string      `json:"id,omitempty"`
	SenderID          string      `json:"sender_id,omitempty"`
	SenderUsername    string      `json:"sender_username,omitempty"`
	SenderDisplayName string      `json:"sender_display_name,omitempty"`
	RecipientID       string      `json:"recipient_id,omitempty"`
	RecipientUsername string      `json:"recipient_username,omitempty"`
	ChatRoomID        string      `json:"chat_room_id,omitempty"`
	Content           string      `json:"content"`
	MessageType       MessageType `json:"message_type,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
	IsPrivate         bool        `json:"is_private"`
	IsRead            bool        `json:"is_read"`
}

// ToDTO converts a persisted Message to its wire representation.
func (m *Message) ToDTO() MessageDTO {
	return MessageDTO{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		SenderDisplayName: m.SenderDisplayName,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		ChatRoomID:        m.ChatRoomID,
		Content:           m.Content,
		MessageType:       m.MessageType,
		Timestamp:         m.Timestamp,
		IsPrivate:         m.IsPrivate,
		IsRead:            m.IsRead,
	}
}
