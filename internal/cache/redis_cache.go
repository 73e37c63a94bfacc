package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chattyapp/chatty-server/internal/config"
	"github.com/chattyapp/chatty-server/internal/domain"
)

const (
	roomKeyFormat    = "chat:room:%s:messages"
	privateKeyFormat = "chat:private:%s:%s:messages"
)

// RoomKey builds the cache key for a room's recent messages.
func RoomKey(roomID string) string {
	return fmt.Sprintf(roomKeyFormat, roomID)
}

// PrivateKey builds the cache key for a private conversation. The user ids
// are sorted so either ordering yields the same key.
func PrivateKey(userID1, userID2 string) string {
	lo, hi := userID1, userID2
	if hi < lo {
		lo, hi = hi, lo
	}
	return fmt.Sprintf(privateKeyFormat, lo, hi)
}

// RedisMessageCache implements MessageCache on a Redis list per key.
type RedisMessageCache struct {
	client      *redis.Client
	maxMessages int64
	ttl         time.Duration
}

// NewRedisMessageCache connects to Redis and returns a message cache.
func NewRedisMessageCache(cfg config.RedisConfig) (*RedisMessageCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisMessageCache{
		client:      client,
		maxMessages: int64(cfg.MaxMessages),
		ttl:         cfg.MessageTTL,
	}, nil
}

// AppendAndTrim pushes the message at the tail, keeps the last maxMessages
// entries, and refreshes the TTL.
func (c *RedisMessageCache) AppendAndTrim(ctx context.Context, key string, msg domain.MessageDTO) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal cached message: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -c.maxMessages, -1)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to cache: %w", err)
	}
	return nil
}

// Replace deletes the entry and rewrites it from the given messages,
// refreshing the TTL. Used when repopulating from the authoritative store.
func (c *RedisMessageCache) Replace(ctx context.Context, key string, msgs []domain.MessageDTO) error {
	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal cached message: %w", err)
		}
		values = append(values, data)
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace cache entry: %w", err)
	}
	return nil
}

// ReadAll returns the cached messages in append order. A missing key yields
// an empty slice, not an error.
func (c *RedisMessageCache) ReadAll(ctx context.Context, key string) ([]domain.MessageDTO, error) {
	items, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	msgs := make([]domain.MessageDTO, 0, len(items))
	for _, item := range items {
		var msg domain.MessageDTO
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}
