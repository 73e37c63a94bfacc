package router

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chattyapp/chatty-server/internal/cache"
	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/kafka"
	"github.com/chattyapp/chatty-server/internal/repository"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// Draft is an inbound message before it enters the pipeline: raw content
// straight off the wire plus an optional explicit message type.
type Draft struct {
	Content     string
	MessageType domain.MessageType
}

// Router runs the inbound message pipeline: resolve identities, sanitize,
// persist, append to the recency cache, then publish to the durable log.
// The persisted record is the source of truth; a publish failure is
// reported to the caller but the message stays persisted.
type Router struct {
	messages repository.MessageRepository
	rooms    repository.RoomRepository
	users    repository.UserRepository
	cache    cache.MessageCache
	producer kafka.MessageProducer
}

func NewRouter(
	messages repository.MessageRepository,
	rooms repository.RoomRepository,
	users repository.UserRepository,
	msgCache cache.MessageCache,
	producer kafka.MessageProducer,
) *Router {
	return &Router{
		messages: messages,
		rooms:    rooms,
		users:    users,
		cache:    msgCache,
		producer: producer,
	}
}

// RoutePublic processes a broadcast message addressed to a room. The
// returned message is the persisted record with server-assigned id and
// timestamp.
func (r *Router) RoutePublic(ctx context.Context, roomID string, draft Draft, senderUsername string) (*domain.Message, error) {
	sender, err := r.users.GetByUsername(ctx, senderUsername)
	if err != nil {
		return nil, err
	}

	content := domain.SanitizeContent(draft.Content)
	if !domain.IsValidContent(content) {
		return nil, domain.ErrEmptyMessage
	}

	msg := &domain.Message{
		ID:                uuid.New().String(),
		SenderID:          sender.ID,
		SenderUsername:    sender.Username,
		SenderDisplayName: sender.DisplayName,
		ChatRoomID:        roomID,
		Content:           content,
		MessageType:       messageType(draft),
		Timestamp:         time.Now(),
		IsPrivate:         false,
	}

	if err := r.messages.Save(ctx, msg); err != nil {
		return nil, err
	}

	r.touchRoom(ctx, roomID, msg)

	dto := msg.ToDTO()
	r.appendCache(ctx, cache.RoomKey(roomID), dto)

	if err := r.producer.PublishPublic(ctx, &dto); err != nil {
		return msg, err
	}
	return msg, nil
}

// RoutePrivate processes a point-to-point message. The recipient is
// addressed by user id; both parties are resolved before anything is
// written.
func (r *Router) RoutePrivate(ctx context.Context, recipientID string, draft Draft, senderUsername string) (*domain.Message, error) {
	sender, err := r.users.GetByUsername(ctx, senderUsername)
	if err != nil {
		return nil, err
	}
	recipient, err := r.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	content := domain.SanitizeContent(draft.Content)
	if !domain.IsValidContent(content) {
		return nil, domain.ErrEmptyMessage
	}

	msg := &domain.Message{
		ID:                uuid.New().String(),
		SenderID:          sender.ID,
		SenderUsername:    sender.Username,
		SenderDisplayName: sender.DisplayName,
		RecipientID:       recipient.ID,
		RecipientUsername: recipient.Username,
		Content:           content,
		MessageType:       messageType(draft),
		Timestamp:         time.Now(),
		IsPrivate:         true,
	}

	if err := r.messages.Save(ctx, msg); err != nil {
		return nil, err
	}

	dto := msg.ToDTO()
	r.appendCache(ctx, cache.PrivateKey(sender.ID, recipient.ID), dto)

	if err := r.producer.PublishPrivate(ctx, &dto); err != nil {
		return msg, err
	}
	return msg, nil
}

// RouteTyping publishes a transient typing signal. Nothing is persisted
// or cached; the signal rides the notifications topic only.
func (r *Router) RouteTyping(ctx context.Context, roomID, senderUsername string) error {
	dto := domain.MessageDTO{
		SenderUsername: senderUsername,
		ChatRoomID:     roomID,
		Content:        senderUsername + " is typing",
		MessageType:    domain.MessageTypeSystem,
		Timestamp:      time.Now(),
	}
	return r.producer.PublishNotification(ctx, &dto)
}

// touchRoom updates the room's last-message marker. Best effort: an
// unknown or stale room must not fail a message that is already saved.
func (r *Router) touchRoom(ctx context.Context, roomID string, msg *domain.Message) {
	if err := r.rooms.UpdateLastMessage(ctx, roomID, msg.ID, msg.Timestamp); err != nil {
		l := log.L()
		l.Debug().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to update room last message")
	}
}

// appendCache pushes the message onto the recency cache. Cache failures
// are logged and swallowed; the store remains authoritative.
func (r *Router) appendCache(ctx context.Context, key string, dto domain.MessageDTO) {
	if err := r.cache.AppendAndTrim(ctx, key, dto); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldMessageID, dto.ID).Msg("failed to cache message")
	}
}

func messageType(draft Draft) domain.MessageType {
	if draft.MessageType == "" {
		return domain.MessageTypeText
	}
	return draft.MessageType
}
