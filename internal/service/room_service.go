package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/repository"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// Secret code alphabet. Ambiguous glyphs (0, O, 1, I) are excluded so
// codes survive being read aloud or retyped.
const secretCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const secretCodeLength = 8

// maxCodeAttempts bounds collision retries during room creation.
const maxCodeAttempts = 10

// RoomService manages chat room lifecycle and membership. The General
// room is special: it always exists, is public, and every user may read
// and post in it without being a member.
type RoomService struct {
	rooms repository.RoomRepository
	users repository.UserRepository
}

func NewRoomService(rooms repository.RoomRepository, users repository.UserRepository) *RoomService {
	return &RoomService{rooms: rooms, users: users}
}

// EnsureGeneralRoom creates the General room if it does not exist yet.
// Called once at startup; a concurrent create by another instance is
// treated as success.
func (s *RoomService) EnsureGeneralRoom(ctx context.Context) error {
	exists, err := s.rooms.ExistsByName(ctx, domain.GeneralRoomName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	room := &domain.ChatRoom{
		ID:        uuid.New().String(),
		Name:      domain.GeneralRoomName,
		IsPublic:  true,
		CreatedAt: time.Now(),
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		if errors.Is(err, domain.ErrDuplicateRoomName) {
			return nil
		}
		return err
	}

	l := log.L()
	l.Info().Str(log.FieldRoomID, room.ID).Msg("created General room")
	return nil
}

// CreateRoom creates a room owned by the creator, who becomes its first
// member. Private rooms get a unique secret code for invitations.
func (s *RoomService) CreateRoom(ctx context.Context, creatorID string, req domain.CreateRoomRequest) (*domain.ChatRoom, error) {
	exists, err := s.rooms.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateRoomName
	}

	room := &domain.ChatRoom{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		CreatedBy:   creatorID,
		CreatedAt:   time.Now(),
	}
	room.AddMember(creatorID)

	if !req.IsPublic {
		code, err := s.uniqueSecretCode(ctx)
		if err != nil {
			return nil, err
		}
		room.SecretCode = code
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}

	l := log.L()
	l.Info().
		Str(log.FieldRoomID, room.ID).
		Bool("public", room.IsPublic).
		Msg("chat room created")
	return room, nil
}

// JoinRoom adds the user as a member. Joining a room the user already
// belongs to succeeds without changing anything.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, userID string) (*domain.ChatRoom, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.HasMember(userID) {
		return room, nil
	}
	room.AddMember(userID)
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinByCode adds the user to the private room identified by the secret
// code. Codes are matched case-insensitively.
func (s *RoomService) JoinByCode(ctx context.Context, code, userID string) (*domain.ChatRoom, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if len(normalized) != secretCodeLength {
		return nil, domain.ErrInvalidSecretCode
	}

	room, err := s.rooms.GetBySecretCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, domain.ErrInvalidSecretCode
		}
		return nil, err
	}
	if room.HasMember(userID) {
		return room, nil
	}
	room.AddMember(userID)
	if err := s.rooms.Save(ctx, room); err != nil {
		return nil, err
	}

	l := log.L()
	l.Info().
		Str(log.FieldRoomID, room.ID).
		Str(log.FieldUserID, userID).
		Msg("user joined room by secret code")
	return room, nil
}

// LeaveRoom removes the user from the room's membership. Leaving a room
// the user is not a member of is a no-op.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID string) error {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.HasMember(userID) {
		return nil
	}
	room.RemoveMember(userID)
	return s.rooms.Save(ctx, room)
}

// IsUserInRoom reports whether the user may read and post in the room.
// The General room is accessible to everyone regardless of membership.
func (s *RoomService) IsUserInRoom(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return false, err
	}
	if room.Name == domain.GeneralRoomName {
		return true, nil
	}
	return room.HasMember(userID), nil
}

// GetUserAccessibleRooms returns every room the user may enter: General
// first, then the rooms the user is a member of.
func (s *RoomService) GetUserAccessibleRooms(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	rooms := make([]domain.ChatRoom, 0)

	general, err := s.rooms.GetByName(ctx, domain.GeneralRoomName)
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return nil, err
	}
	if general != nil {
		rooms = append(rooms, *general)
	}

	member, err := s.rooms.FindByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, room := range member {
		if general != nil && room.ID == general.ID {
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// GetPublicRooms returns all public rooms.
func (s *RoomService) GetPublicRooms(ctx context.Context) ([]domain.ChatRoom, error) {
	return s.rooms.FindPublic(ctx)
}

// GetRoomByID returns a single room.
func (s *RoomService) GetRoomByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	return s.rooms.GetByID(ctx, roomID)
}

// uniqueSecretCode generates a code and regenerates on the unlikely
// collision with an existing room.
func (s *RoomService) uniqueSecretCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateSecretCode()
		if err != nil {
			return "", err
		}
		_, err = s.rooms.GetBySecretCode(ctx, code)
		if errors.Is(err, domain.ErrRoomNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("could not generate a unique secret code")
}

func generateSecretCode() (string, error) {
	code := make([]byte, secretCodeLength)
	max := big.NewInt(int64(len(secretCodeCharset)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = secretCodeCharset[n.Int64()]
	}
	return string(code), nil
}
