package repository

import (
	"context"
	"time"

	"github.com/chattyapp/chatty-server/internal/domain"
)

// MessageRepository is the durable store for chat messages. All paged reads
// return messages ordered by timestamp descending.
type MessageRepository interface {
	Save(ctx context.Context, msg *domain.Message) error
	FindByRoom(ctx context.Context, roomID string, page, size int) ([]domain.Message, error)
	FindPrivateBetween(ctx context.Context, userID1, userID2 string, page, size int) ([]domain.Message, error)
	FindUnread(ctx context.Context, recipientID string) ([]domain.Message, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, recipientID, senderID string) error
}

// RoomRepository is the durable store for chat rooms.
type RoomRepository interface {
	Create(ctx context.Context, room *domain.ChatRoom) error
	Save(ctx context.Context, room *domain.ChatRoom) error
	GetByID(ctx context.Context, id string) (*domain.ChatRoom, error)
	GetByName(ctx context.Context, name string) (*domain.ChatRoom, error)
	GetBySecretCode(ctx context.Context, code string) (*domain.ChatRoom, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindByMember(ctx context.Context, userID string) ([]domain.ChatRoom, error)
	FindPublic(ctx context.Context) ([]domain.ChatRoom, error)
	UpdateLastMessage(ctx context.Context, roomID, messageID string, at time.Time) error
}

// UserRepository reads user identity and writes presence status.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen time.Time) error
	FindByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error)
}
