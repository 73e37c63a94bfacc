package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/chattyapp/chatty-server/internal/domain"
)

// GormRoomRepository implements RoomRepository using GORM.
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM-based room repository.
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// Create creates a new room.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.ChatRoom) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}

	model := domain.ChatRoomToModel(room)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return r.handleError(err)
	}

	room.CreatedAt = model.CreatedAt
	room.UpdatedAt = model.UpdatedAt
	return nil
}

// Save updates an existing room.
func (r *GormRoomRepository) Save(ctx context.Context, room *domain.ChatRoom) error {
	model := domain.ChatRoomToModel(room)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return r.handleError(result.Error)
	}
	return nil
}

// GetByID retrieves a room by ID.
func (r *GormRoomRepository) GetByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	var model domain.ChatRoomModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetByName retrieves a room by its unique name.
func (r *GormRoomRepository) GetByName(ctx context.Context, name string) (*domain.ChatRoom, error) {
	var model domain.ChatRoomModel
	if err := r.db.WithContext(ctx).First(&model, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetBySecretCode retrieves a room by its secret join code.
func (r *GormRoomRepository) GetBySecretCode(ctx context.Context, code string) (*domain.ChatRoom, error) {
	var model domain.ChatRoomModel
	if err := r.db.WithContext(ctx).First(&model, "secret_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByName reports whether a room with the given name exists.
func (r *GormRoomRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChatRoomModel{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByMember returns every room the user is a member of. Membership is
// stored as a JSON string array, so match on the quoted element.
func (r *GormRoomRepository) FindByMember(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	var models []domain.ChatRoomModel
	err := r.db.WithContext(ctx).
		Where("member_ids LIKE ?", "%\""+userID+"\"%").
		Order("last_message_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainRooms(models), nil
}

// FindPublic returns all public rooms.
func (r *GormRoomRepository) FindPublic(ctx context.Context) ([]domain.ChatRoom, error) {
	var models []domain.ChatRoomModel
	err := r.db.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainRooms(models), nil
}

// UpdateLastMessage updates the denormalized most-recent-message pointer.
func (r *GormRoomRepository) UpdateLastMessage(ctx context.Context, roomID, messageID string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ChatRoomModel{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"last_message_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

// handleError converts database-specific errors to domain errors.
func (r *GormRoomRepository) handleError(err error) error {
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "Duplicate entry") ||
		strings.Contains(errStr, "duplicate key") {
		return domain.ErrDuplicateRoomName
	}
	return err
}

func toDomainRooms(models []domain.ChatRoomModel) []domain.ChatRoom {
	rooms := make([]domain.ChatRoom, len(models))
	for i := range models {
		rooms[i] = *models[i].ToDomain()
	}
	return rooms
}
