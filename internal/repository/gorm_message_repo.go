package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chattyapp/chatty-server/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Save persists a message, assigning its identity.
func (r *GormMessageRepository) Save(ctx context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	model := domain.MessageToModel(msg)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	return nil
}

// FindByRoom returns a page of room messages, newest first.
func (r *GormMessageRepository) FindByRoom(ctx context.Context, roomID string, page, size int) ([]domain.Message, error) {
	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("chat_room_id = ?", roomID).
		Order("timestamp DESC").
		Offset(page * size).
		Limit(size).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMessages(models), nil
}

// FindPrivateBetween returns a page of the private conversation between two
// users, newest first, regardless of who sent which message.
func (r *GormMessageRepository) FindPrivateBetween(ctx context.Context, userID1, userID2 string, page, size int) ([]domain.Message, error) {
	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("is_private = ?", true).
		Where(
			r.db.Where("sender_id = ? AND recipient_id = ?", userID1, userID2).
				Or("sender_id = ? AND recipient_id = ?", userID2, userID1),
		).
		Order("timestamp DESC").
		Offset(page * size).
		Limit(size).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMessages(models), nil
}

// FindUnread returns all unread private messages addressed to a recipient.
func (r *GormMessageRepository) FindUnread(ctx context.Context, recipientID string) ([]domain.Message, error) {
	var models []domain.MessageModel
	err := r.db.WithContext(ctx).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Order("timestamp DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainMessages(models), nil
}

// CountUnread counts unread private messages addressed to a recipient.
func (r *GormMessageRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.MessageModel{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead marks all unread messages from a sender to a recipient as read.
func (r *GormMessageRepository) MarkRead(ctx context.Context, recipientID, senderID string) error {
	return r.db.WithContext(ctx).
		Model(&domain.MessageModel{}).
		Where("recipient_id = ? AND sender_id = ? AND is_read = ?", recipientID, senderID, false).
		Update("is_read", true).Error
}

func toDomainMessages(models []domain.MessageModel) []domain.Message {
	messages := make([]domain.Message, len(models))
	for i := range models {
		messages[i] = *models[i].ToDomain()
	}
	return messages
}
