package cache

import (
	"context"

	"github.com/chattyapp/chatty-server/internal/domain"
)

// MessageCache is a bounded, TTL-based cache of the most recent messages
// per room or per user pair. It is not authoritative: consumers must treat
// a miss or an empty result as "fall through to the store", never as "no
// messages exist".
type MessageCache interface {
	// AppendAndTrim pushes the newest entry at the tail, trims the list to
	// the configured maximum, and resets the TTL.
	AppendAndTrim(ctx context.Context, key string, msg domain.MessageDTO) error
	// Replace rewrites the whole entry from the authoritative store and
	// resets the TTL.
	Replace(ctx context.Context, key string, msgs []domain.MessageDTO) error
	// ReadAll returns the cached entries in append order, oldest first.
	ReadAll(ctx context.Context, key string) ([]domain.MessageDTO, error)
	Close() error
}
