package router

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chattyapp/chatty-server/internal/domain"
)

type fakeMessageRepo struct {
	saved   []domain.Message
	saveErr error
}

func (f *fakeMessageRepo) Save(ctx context.Context, msg *domain.Message) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *msg)
	return nil
}

func (f *fakeMessageRepo) FindByRoom(ctx context.Context, roomID string, page, size int) ([]domain.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) FindPrivateBetween(ctx context.Context, u1, u2 string, page, size int) ([]domain.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) FindUnread(ctx context.Context, recipientID string) ([]domain.Message, error) {
	return nil, nil
}

func (f *fakeMessageRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return 0, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, recipientID, senderID string) error {
	return nil
}

type fakeRoomRepo struct {
	lastMessageCalls int
	updateErr        error
}

func (f *fakeRoomRepo) Create(ctx context.Context, room *domain.ChatRoom) error { return nil }
func (f *fakeRoomRepo) Save(ctx context.Context, room *domain.ChatRoom) error   { return nil }
func (f *fakeRoomRepo) GetByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	return nil, domain.ErrRoomNotFound
}
func (f *fakeRoomRepo) GetByName(ctx context.Context, name string) (*domain.ChatRoom, error) {
	return nil, domain.ErrRoomNotFound
}
func (f *fakeRoomRepo) GetBySecretCode(ctx context.Context, code string) (*domain.ChatRoom, error) {
	return nil, domain.ErrRoomNotFound
}
func (f *fakeRoomRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	return false, nil
}
func (f *fakeRoomRepo) FindByMember(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	return nil, nil
}
func (f *fakeRoomRepo) FindPublic(ctx context.Context) ([]domain.ChatRoom, error) {
	return nil, nil
}
func (f *fakeRoomRepo) UpdateLastMessage(ctx context.Context, roomID, messageID string, at time.Time) error {
	f.lastMessageCalls++
	return f.updateErr
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen time.Time) error {
	return nil
}

func (f *fakeUserRepo) FindByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	return nil, nil
}

type fakeCache struct {
	appended  map[string][]domain.MessageDTO
	appendErr error
}

func (f *fakeCache) AppendAndTrim(ctx context.Context, key string, msg domain.MessageDTO) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	if f.appended == nil {
		f.appended = make(map[string][]domain.MessageDTO)
	}
	f.appended[key] = append(f.appended[key], msg)
	return nil
}

func (f *fakeCache) Replace(ctx context.Context, key string, msgs []domain.MessageDTO) error {
	return nil
}

func (f *fakeCache) ReadAll(ctx context.Context, key string) ([]domain.MessageDTO, error) {
	return nil, nil
}

func (f *fakeCache) Close() error { return nil }

type fakeProducer struct {
	public        []domain.MessageDTO
	private       []domain.MessageDTO
	notifications []domain.MessageDTO
	publishErr    error
}

func (f *fakeProducer) PublishPublic(ctx context.Context, msg *domain.MessageDTO) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.public = append(f.public, *msg)
	return nil
}

func (f *fakeProducer) PublishPrivate(ctx context.Context, msg *domain.MessageDTO) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.private = append(f.private, *msg)
	return nil
}

func (f *fakeProducer) PublishNotification(ctx context.Context, msg *domain.MessageDTO) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.notifications = append(f.notifications, *msg)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

type routerFixture struct {
	router   *Router
	messages *fakeMessageRepo
	rooms    *fakeRoomRepo
	cache    *fakeCache
	producer *fakeProducer
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	messages := &fakeMessageRepo{}
	rooms := &fakeRoomRepo{}
	users := &fakeUserRepo{users: map[string]*domain.User{
		"alice": {ID: "uid-alice", Username: "alice", DisplayName: "Alice"},
		"bob":   {ID: "uid-bob", Username: "bob", DisplayName: "Bob"},
	}}
	msgCache := &fakeCache{}
	producer := &fakeProducer{}

	return &routerFixture{
		router:   NewRouter(messages, rooms, users, msgCache, producer),
		messages: messages,
		rooms:    rooms,
		cache:    msgCache,
		producer: producer,
	}
}

func TestRoutePublic(t *testing.T) {
	f := newRouterFixture(t)
	ctx := context.Background()

	msg, err := f.router.RoutePublic(ctx, "room-1", Draft{Content: "  hello   world  "}, "alice")
	if err != nil {
		t.Fatalf("RoutePublic: %v", err)
	}

	if msg.Content != "hello world" {
		t.Errorf("Content = %q, want sanitized %q", msg.Content, "hello world")
	}
	if msg.SenderID != "uid-alice" || msg.SenderUsername != "alice" {
		t.Errorf("sender not resolved: %+v", msg)
	}
	if msg.ID == "" {
		t.Error("message id not assigned")
	}
	if msg.IsPrivate {
		t.Error("room message marked private")
	}
	if msg.MessageType != domain.MessageTypeText {
		t.Errorf("MessageType = %q, want TEXT default", msg.MessageType)
	}

	if len(f.messages.saved) != 1 {
		t.Fatalf("saved %d messages, want 1", len(f.messages.saved))
	}
	if len(f.producer.public) != 1 {
		t.Fatalf("published %d public records, want 1", len(f.producer.public))
	}
	if f.producer.public[0].ChatRoomID != "room-1" {
		t.Errorf("published room id = %q", f.producer.public[0].ChatRoomID)
	}
	if f.rooms.lastMessageCalls != 1 {
		t.Errorf("UpdateLastMessage calls = %d, want 1", f.rooms.lastMessageCalls)
	}
}

func TestRoutePublicUnknownSender(t *testing.T) {
	f := newRouterFixture(t)

	_, err := f.router.RoutePublic(context.Background(), "room-1", Draft{Content: "hi"}, "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if len(f.messages.saved) != 0 {
		t.Error("nothing should be persisted for an unknown sender")
	}
	if len(f.producer.public) != 0 {
		t.Error("nothing should be published for an unknown sender")
	}
}

func TestRoutePublicEmptyContent(t *testing.T) {
	f := newRouterFixture(t)

	_, err := f.router.RoutePublic(context.Background(), "room-1", Draft{Content: "   \t\n  "}, "alice")
	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
	if len(f.messages.saved) != 0 {
		t.Error("blank message should not be persisted")
	}
}

func TestRoutePublicPublishFailureKeepsMessagePersisted(t *testing.T) {
	f := newRouterFixture(t)
	f.producer.publishErr = errors.New("broker unavailable")

	msg, err := f.router.RoutePublic(context.Background(), "room-1", Draft{Content: "hi"}, "alice")
	if err == nil {
		t.Fatal("expected publish error to surface")
	}
	if msg == nil {
		t.Fatal("persisted message should still be returned")
	}
	if len(f.messages.saved) != 1 {
		t.Errorf("saved %d messages, want 1", len(f.messages.saved))
	}
}

func TestRoutePublicCacheFailureIsSwallowed(t *testing.T) {
	f := newRouterFixture(t)
	f.cache.appendErr = errors.New("redis down")

	if _, err := f.router.RoutePublic(context.Background(), "room-1", Draft{Content: "hi"}, "alice"); err != nil {
		t.Fatalf("cache failure should not fail the message: %v", err)
	}
	if len(f.producer.public) != 1 {
		t.Error("message should still be published when cache append fails")
	}
}

func TestRoutePublicStaleRoomStillDelivers(t *testing.T) {
	f := newRouterFixture(t)
	f.rooms.updateErr = domain.ErrRoomNotFound

	if _, err := f.router.RoutePublic(context.Background(), "gone-room", Draft{Content: "hi"}, "alice"); err != nil {
		t.Fatalf("stale room marker must not fail the message: %v", err)
	}
	if len(f.producer.public) != 1 {
		t.Error("message should still be published")
	}
}

func TestRoutePrivate(t *testing.T) {
	f := newRouterFixture(t)

	msg, err := f.router.RoutePrivate(context.Background(), "uid-bob", Draft{Content: "psst"}, "alice")
	if err != nil {
		t.Fatalf("RoutePrivate: %v", err)
	}

	if !msg.IsPrivate {
		t.Error("private message not marked private")
	}
	if msg.RecipientID != "uid-bob" || msg.RecipientUsername != "bob" {
		t.Errorf("recipient not resolved: %+v", msg)
	}
	if msg.ChatRoomID != "" {
		t.Errorf("private message carries room id %q", msg.ChatRoomID)
	}
	if len(f.producer.private) != 1 {
		t.Fatalf("published %d private records, want 1", len(f.producer.private))
	}
}

func TestRoutePrivateUnknownRecipient(t *testing.T) {
	f := newRouterFixture(t)

	_, err := f.router.RoutePrivate(context.Background(), "uid-ghost", Draft{Content: "psst"}, "alice")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
	if len(f.messages.saved) != 0 {
		t.Error("nothing should be persisted for an unknown recipient")
	}
}

func TestRouteTyping(t *testing.T) {
	f := newRouterFixture(t)

	if err := f.router.RouteTyping(context.Background(), "room-1", "alice"); err != nil {
		t.Fatalf("RouteTyping: %v", err)
	}

	if len(f.messages.saved) != 0 {
		t.Error("typing signal must not be persisted")
	}
	if len(f.cache.appended) != 0 {
		t.Error("typing signal must not be cached")
	}
	if len(f.producer.notifications) != 1 {
		t.Fatalf("published %d notifications, want 1", len(f.producer.notifications))
	}
	if got := f.producer.notifications[0].Content; !strings.Contains(got, "alice") {
		t.Errorf("notification content = %q, want sender mentioned", got)
	}
}
