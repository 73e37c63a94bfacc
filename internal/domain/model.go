package domain

import (
	"time"

	"github.com/chattyapp/chatty-server/pkg/database"
)

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID                string    `gorm:"type:varchar(36);primaryKey"`
	SenderID          string    `gorm:"type:varchar(36);index;not null"`
	SenderUsername    string    `gorm:"type:varchar(50);not null"`
	SenderDisplayName string    `gorm:"type:varchar(100)"`
	RecipientID       string    `gorm:"type:varchar(36);index"`
	RecipientUsername string    `gorm:"type:varchar(50)"`
	ChatRoomID        string    `gorm:"type:varchar(36);index:idx_room_timestamp,priority:1"`
	Content           string    `gorm:"type:text;not null"`
	MessageType       string    `gorm:"type:varchar(10);not null;default:'TEXT'"`
	Timestamp         time.Time `gorm:"index:idx_room_timestamp,priority:2;not null"`
	IsPrivate         bool      `gorm:"not null;default:false"`
	IsRead            bool      `gorm:"not null;default:false"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		SenderDisplayName: m.SenderDisplayName,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		ChatRoomID:        m.ChatRoomID,
		Content:           m.Content,
		MessageType:       MessageType(m.MessageType),
		Timestamp:         m.Timestamp,
		IsPrivate:         m.IsPrivate,
		IsRead:            m.IsRead,
	}
}

// MessageToModel converts domain Message to MessageModel.
func MessageToModel(m *Message) *MessageModel {
	return &MessageModel{
		ID:                m.ID,
		SenderID:          m.SenderID,
		SenderUsername:    m.SenderUsername,
		SenderDisplayName: m.SenderDisplayName,
		RecipientID:       m.RecipientID,
		RecipientUsername: m.RecipientUsername,
		ChatRoomID:        m.ChatRoomID,
		Content:           m.Content,
		MessageType:       string(m.MessageType),
		Timestamp:         m.Timestamp,
		IsPrivate:         m.IsPrivate,
		IsRead:            m.IsRead,
	}
}

// ChatRoomModel is the GORM model for the chat_rooms table.
type ChatRoomModel struct {
	ID            string               `gorm:"type:varchar(36);primaryKey"`
	Name          string               `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description   string               `gorm:"type:text"`
	MemberIDs     database.StringArray `gorm:"type:text"`
	IsPublic      bool                 `gorm:"not null;default:true"`
	SecretCode    *string              `gorm:"type:varchar(8);uniqueIndex"`
	CreatedBy     string               `gorm:"type:varchar(36);not null"`
	CreatedAt     time.Time            `gorm:"autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime"`
	LastMessageID string               `gorm:"type:varchar(36)"`
	LastMessageAt *time.Time
}

// TableName specifies the table name for ChatRoomModel.
func (ChatRoomModel) TableName() string {
	return "chat_rooms"
}

// ToDomain converts ChatRoomModel to domain ChatRoom.
func (m *ChatRoomModel) ToDomain() *ChatRoom {
	secretCode := ""
	if m.SecretCode != nil {
		secretCode = *m.SecretCode
	}
	return &ChatRoom{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		MemberIDs:     []string(m.MemberIDs),
		IsPublic:      m.IsPublic,
		SecretCode:    secretCode,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		LastMessageID: m.LastMessageID,
		LastMessageAt: m.LastMessageAt,
	}
}

// ChatRoomToModel converts domain ChatRoom to ChatRoomModel.
func ChatRoomToModel(r *ChatRoom) *ChatRoomModel {
	var secretCode *string
	if r.SecretCode != "" {
		code := r.SecretCode
		secretCode = &code
	}
	return &ChatRoomModel{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		MemberIDs:     database.StringArray(r.MemberIDs),
		IsPublic:      r.IsPublic,
		SecretCode:    secretCode,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastMessageID: r.LastMessageID,
		LastMessageAt: r.LastMessageAt,
	}
}

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	Username    string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	DisplayName string    `gorm:"type:varchar(100)"`
	Status      string    `gorm:"type:varchar(10);index;not null;default:'OFFLINE'"`
	LastSeen    *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts UserModel to domain User.
func (m *UserModel) ToDomain() *User {
	return &User{
		ID:          m.ID,
		Username:    m.Username,
		DisplayName: m.DisplayName,
		Status:      UserStatus(m.Status),
		LastSeen:    m.LastSeen,
		CreatedAt:   m.CreatedAt,
	}
}

// UserToModel converts domain User to UserModel.
func UserToModel(u *User) *UserModel {
	return &UserModel{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Status:      string(u.Status),
		LastSeen:    u.LastSeen,
		CreatedAt:   u.CreatedAt,
	}
}
