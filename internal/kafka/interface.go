package kafka

import (
	"context"

	"github.com/chattyapp/chatty-server/internal/domain"
)

// MessageProducer publishes fan-out records to the durable log. Records
// sharing a key land on the same partition, so per-room and per-recipient
// publish order is preserved through to the dispatcher.
type MessageProducer interface {
	// PublishPublic publishes to the public-messages topic, keyed by room id.
	PublishPublic(ctx context.Context, msg *domain.MessageDTO) error
	// PublishPrivate publishes to the private-messages topic, keyed by
	// recipient id.
	PublishPrivate(ctx context.Context, msg *domain.MessageDTO) error
	// PublishNotification publishes to the notifications topic, keyed by
	// sender id (falling back to the sender username for transient signals
	// that carry no id).
	PublishNotification(ctx context.Context, msg *domain.MessageDTO) error
	Close() error
}

// RecordHandler processes one consumed record. Returning an error is
// advisory: the consumer logs it and moves on to the next record.
type RecordHandler func(ctx context.Context, key, value []byte) error
