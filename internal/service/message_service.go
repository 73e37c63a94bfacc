package service

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/chattyapp/chatty-server/internal/cache"
	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/repository"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// DefaultPageSize is used when a history request does not specify one.
const DefaultPageSize = 50

// MessageService serves chat history. The first page of any conversation
// is read through the recency cache; a miss falls through to the store
// and repopulates the cache. Deeper pages always hit the store.
type MessageService struct {
	messages repository.MessageRepository
	cache    cache.MessageCache
	group    singleflight.Group
}

func NewMessageService(messages repository.MessageRepository, msgCache cache.MessageCache) *MessageService {
	return &MessageService{messages: messages, cache: msgCache}
}

// GetRoomMessages returns one page of a room's history, oldest first.
func (s *MessageService) GetRoomMessages(ctx context.Context, roomID string, page, size int) ([]domain.MessageDTO, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	key := cache.RoomKey(roomID)
	return s.pageThroughCache(ctx, key, page, size, func() ([]domain.Message, error) {
		return s.messages.FindByRoom(ctx, roomID, page, size)
	})
}

// GetPrivateMessages returns one page of the conversation between two
// users, oldest first. The pair key is order-independent.
func (s *MessageService) GetPrivateMessages(ctx context.Context, userID1, userID2 string, page, size int) ([]domain.MessageDTO, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	key := cache.PrivateKey(userID1, userID2)
	return s.pageThroughCache(ctx, key, page, size, func() ([]domain.Message, error) {
		return s.messages.FindPrivateBetween(ctx, userID1, userID2, page, size)
	})
}

// MarkMessagesRead marks every unread message from sender to recipient
// as read.
func (s *MessageService) MarkMessagesRead(ctx context.Context, recipientID, senderID string) error {
	return s.messages.MarkRead(ctx, recipientID, senderID)
}

// GetUnreadMessages returns all unread private messages for a recipient.
func (s *MessageService) GetUnreadMessages(ctx context.Context, recipientID string) ([]domain.MessageDTO, error) {
	msgs, err := s.messages.FindUnread(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return toDTOs(msgs), nil
}

// CountUnread returns the number of unread private messages for a
// recipient.
func (s *MessageService) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return s.messages.CountUnread(ctx, recipientID)
}

// pageThroughCache serves page zero from the cache when possible.
// Concurrent misses for the same key are collapsed with singleflight so
// the store sees one query per conversation, not one per waiting client.
func (s *MessageService) pageThroughCache(ctx context.Context, key string, page, size int, fetch func() ([]domain.Message, error)) ([]domain.MessageDTO, error) {
	if page == 0 {
		cached, err := s.cache.ReadAll(ctx, key)
		if err != nil {
			l := log.L()
			l.Warn().Err(err).Str("cache_key", key).Msg("cache read failed, falling back to store")
		} else if len(cached) > 0 {
			return cached, nil
		}
	}

	if page != 0 {
		msgs, err := fetch()
		if err != nil {
			return nil, err
		}
		return reverseToChronological(msgs), nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		msgs, err := fetch()
		if err != nil {
			return nil, err
		}
		dtos := reverseToChronological(msgs)
		if len(dtos) > 0 {
			if err := s.cache.Replace(ctx, key, dtos); err != nil {
				l := log.L()
				l.Warn().Err(err).Str("cache_key", key).Msg("failed to repopulate cache")
			}
		}
		return dtos, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.MessageDTO), nil
}

// reverseToChronological flips a newest-first page from the store into
// the oldest-first order clients and the cache use.
func reverseToChronological(msgs []domain.Message) []domain.MessageDTO {
	dtos := make([]domain.MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[len(msgs)-1-i] = m.ToDTO()
	}
	return dtos
}

func toDTOs(msgs []domain.Message) []domain.MessageDTO {
	dtos := make([]domain.MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = m.ToDTO()
	}
	return dtos
}
