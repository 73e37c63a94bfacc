package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chattyapp/chatty-server/internal/domain"
)

type memoryRoomRepo struct {
	rooms map[string]*domain.ChatRoom
}

func newMemoryRoomRepo() *memoryRoomRepo {
	return &memoryRoomRepo{rooms: make(map[string]*domain.ChatRoom)}
}

func (m *memoryRoomRepo) Create(ctx context.Context, room *domain.ChatRoom) error {
	for _, r := range m.rooms {
		if r.Name == room.Name {
			return domain.ErrDuplicateRoomName
		}
	}
	clone := *room
	m.rooms[room.ID] = &clone
	return nil
}

func (m *memoryRoomRepo) Save(ctx context.Context, room *domain.ChatRoom) error {
	if _, ok := m.rooms[room.ID]; !ok {
		return domain.ErrRoomNotFound
	}
	clone := *room
	m.rooms[room.ID] = &clone
	return nil
}

func (m *memoryRoomRepo) GetByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	if r, ok := m.rooms[id]; ok {
		clone := *r
		return &clone, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (m *memoryRoomRepo) GetByName(ctx context.Context, name string) (*domain.ChatRoom, error) {
	for _, r := range m.rooms {
		if r.Name == name {
			clone := *r
			return &clone, nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (m *memoryRoomRepo) GetBySecretCode(ctx context.Context, code string) (*domain.ChatRoom, error) {
	for _, r := range m.rooms {
		if r.SecretCode != "" && r.SecretCode == code {
			clone := *r
			return &clone, nil
		}
	}
	return nil, domain.ErrRoomNotFound
}

func (m *memoryRoomRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := m.GetByName(ctx, name)
	if errors.Is(err, domain.ErrRoomNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memoryRoomRepo) FindByMember(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	var result []domain.ChatRoom
	for _, r := range m.rooms {
		if r.HasMember(userID) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *memoryRoomRepo) FindPublic(ctx context.Context) ([]domain.ChatRoom, error) {
	var result []domain.ChatRoom
	for _, r := range m.rooms {
		if r.IsPublic {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *memoryRoomRepo) UpdateLastMessage(ctx context.Context, roomID, messageID string, at time.Time) error {
	r, ok := m.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	r.LastMessageID = messageID
	r.LastMessageAt = &at
	return nil
}

type noopUserRepo struct{}

func (noopUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (noopUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (noopUserRepo) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen time.Time) error {
	return nil
}

func (noopUserRepo) FindByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	return nil, nil
}

func newRoomServiceFixture() (*RoomService, *memoryRoomRepo) {
	repo := newMemoryRoomRepo()
	return NewRoomService(repo, noopUserRepo{}), repo
}

func TestEnsureGeneralRoom(t *testing.T) {
	svc, repo := newRoomServiceFixture()
	ctx := context.Background()

	if err := svc.EnsureGeneralRoom(ctx); err != nil {
		t.Fatalf("EnsureGeneralRoom: %v", err)
	}

	general, err := repo.GetByName(ctx, domain.GeneralRoomName)
	if err != nil {
		t.Fatalf("General room not created: %v", err)
	}
	if !general.IsPublic {
		t.Error("General room must be public")
	}
	if general.SecretCode != "" {
		t.Error("General room must not have a secret code")
	}

	// Second call is idempotent.
	if err := svc.EnsureGeneralRoom(ctx); err != nil {
		t.Fatalf("second EnsureGeneralRoom: %v", err)
	}
	if len(repo.rooms) != 1 {
		t.Errorf("rooms = %d, want 1", len(repo.rooms))
	}
}

func TestCreatePublicRoom(t *testing.T) {
	svc, _ := newRoomServiceFixture()

	room, err := svc.CreateRoom(context.Background(), "creator", domain.CreateRoomRequest{
		Name:     "gophers",
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if !room.HasMember("creator") {
		t.Error("creator must be the first member")
	}
	if room.SecretCode != "" {
		t.Errorf("public room has secret code %q", room.SecretCode)
	}
	if room.CreatedBy != "creator" {
		t.Errorf("CreatedBy = %q", room.CreatedBy)
	}
}

func TestCreatePrivateRoomGeneratesSecretCode(t *testing.T) {
	svc, _ := newRoomServiceFixture()

	room, err := svc.CreateRoom(context.Background(), "creator", domain.CreateRoomRequest{
		Name:     "secret-club",
		IsPublic: false,
	})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if len(room.SecretCode) != secretCodeLength {
		t.Fatalf("secret code %q, want length %d", room.SecretCode, secretCodeLength)
	}
	for _, c := range room.SecretCode {
		if !strings.ContainsRune(secretCodeCharset, c) {
			t.Errorf("secret code contains %q outside the allowed alphabet", c)
		}
	}
}

func TestCreateRoomDuplicateName(t *testing.T) {
	svc, _ := newRoomServiceFixture()
	ctx := context.Background()

	if _, err := svc.CreateRoom(ctx, "u1", domain.CreateRoomRequest{Name: "taken", IsPublic: true}); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	_, err := svc.CreateRoom(ctx, "u2", domain.CreateRoomRequest{Name: "taken", IsPublic: true})
	if !errors.Is(err, domain.ErrDuplicateRoomName) {
		t.Errorf("err = %v, want ErrDuplicateRoomName", err)
	}
}

func TestJoinByCode(t *testing.T) {
	svc, _ := newRoomServiceFixture()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "creator", domain.CreateRoomRequest{Name: "hidden", IsPublic: false})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	// Codes are matched case-insensitively, with surrounding whitespace
	// ignored.
	joined, err := svc.JoinByCode(ctx, "  "+strings.ToLower(room.SecretCode)+" ", "joiner")
	if err != nil {
		t.Fatalf("JoinByCode: %v", err)
	}
	if !joined.HasMember("joiner") {
		t.Error("joiner should be a member after JoinByCode")
	}

	// Joining twice is idempotent.
	again, err := svc.JoinByCode(ctx, room.SecretCode, "joiner")
	if err != nil {
		t.Fatalf("second JoinByCode: %v", err)
	}
	if got := len(again.MemberIDs); got != 2 {
		t.Errorf("members = %d, want creator and joiner", got)
	}
}

func TestJoinByCodeInvalid(t *testing.T) {
	svc, _ := newRoomServiceFixture()
	ctx := context.Background()

	for _, code := range []string{"", "short", "WRONGC0D", "WAYTOOLONGCODE"} {
		if _, err := svc.JoinByCode(ctx, code, "joiner"); !errors.Is(err, domain.ErrInvalidSecretCode) {
			t.Errorf("JoinByCode(%q) = %v, want ErrInvalidSecretCode", code, err)
		}
	}
}

func TestLeaveRoom(t *testing.T) {
	svc, repo := newRoomServiceFixture()
	ctx := context.Background()

	room, err := svc.CreateRoom(ctx, "creator", domain.CreateRoomRequest{Name: "r", IsPublic: true})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if err := svc.LeaveRoom(ctx, room.ID, "creator"); err != nil {
		t.Fatalf("LeaveRoom: %v", err)
	}
	stored, _ := repo.GetByID(ctx, room.ID)
	if stored.HasMember("creator") {
		t.Error("creator should no longer be a member")
	}

	// Leaving again is a no-op.
	if err := svc.LeaveRoom(ctx, room.ID, "creator"); err != nil {
		t.Fatalf("second LeaveRoom: %v", err)
	}
}

func TestIsUserInRoom(t *testing.T) {
	svc, _ := newRoomServiceFixture()
	ctx := context.Background()

	if err := svc.EnsureGeneralRoom(ctx); err != nil {
		t.Fatalf("EnsureGeneralRoom: %v", err)
	}
	general, _ := svc.rooms.GetByName(ctx, domain.GeneralRoomName)

	room, err := svc.CreateRoom(ctx, "member", domain.CreateRoomRequest{Name: "club", IsPublic: false})
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	tests := []struct {
		name   string
		roomID string
		userID string
		want   bool
	}{
		{"member of private room", room.ID, "member", true},
		{"non-member of private room", room.ID, "stranger", false},
		{"anyone in General", general.ID, "stranger", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.IsUserInRoom(ctx, tt.roomID, tt.userID)
			if err != nil {
				t.Fatalf("IsUserInRoom: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsUserInRoom = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := svc.IsUserInRoom(ctx, "missing", "anyone"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Errorf("missing room err = %v, want ErrRoomNotFound", err)
	}
}

func TestGetUserAccessibleRoomsListsGeneralFirst(t *testing.T) {
	svc, _ := newRoomServiceFixture()
	ctx := context.Background()

	if err := svc.EnsureGeneralRoom(ctx); err != nil {
		t.Fatalf("EnsureGeneralRoom: %v", err)
	}
	if _, err := svc.CreateRoom(ctx, "alice", domain.CreateRoomRequest{Name: "club", IsPublic: false}); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	rooms, err := svc.GetUserAccessibleRooms(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserAccessibleRooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms = %d, want General plus membership", len(rooms))
	}
	if rooms[0].Name != domain.GeneralRoomName {
		t.Errorf("first room = %q, want General", rooms[0].Name)
	}
}

func TestGenerateSecretCodeUniqueEnough(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateSecretCode()
		if err != nil {
			t.Fatalf("generateSecretCode: %v", err)
		}
		if len(code) != secretCodeLength {
			t.Fatalf("code %q, want length %d", code, secretCodeLength)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q within 100 draws", code)
		}
		seen[code] = true
	}
}
