package kafka

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/chattyapp/chatty-server/pkg/log"
)

// Consumer is a long-lived worker pulling records from one topic and handing
// them to a RecordHandler. All consumers of a deployment share one group id
// so each record is processed exactly once across the group.
type Consumer struct {
	consumer *kafka.Consumer
	topic    string
	groupID  string
	handler  RecordHandler
}

// NewConsumer creates a consumer-group member for one topic.
func NewConsumer(brokers, topic, groupID string, handler RecordHandler) (*Consumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       brokers,
		"group.id":                groupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 5000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Consumer{
		consumer: c,
		topic:    topic,
		groupID:  groupID,
		handler:  handler,
	}, nil
}

// Run polls until the context is cancelled. A failure handling one record
// never halts consumption of subsequent records.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.consumer.Subscribe(c.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topic, err)
	}

	l := log.L()
	l.Info().Str(log.FieldTopic, c.topic).Str("group", c.groupID).Msg("kafka consumer started")

	for {
		select {
		case <-ctx.Done():
			l := log.L()
			l.Info().Str(log.FieldTopic, c.topic).Msg("kafka consumer stopping")
			return nil
		default:
		}

		ev := c.consumer.Poll(500)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			if err := c.handler(ctx, e.Key, e.Value); err != nil {
				l := log.L()
				l.Error().
					Err(err).
					Str(log.FieldTopic, c.topic).
					Int32("partition", e.TopicPartition.Partition).
					Str("offset", e.TopicPartition.Offset.String()).
					Msg("record handling failed")
			}
		case kafka.Error:
			l := log.L()
			l.Error().Err(e).Bool("fatal", e.IsFatal()).Msg("kafka error")
			if e.IsFatal() {
				return fmt.Errorf("fatal kafka error: %w", e)
			}
		default:
			// Ignore other events (rebalance, offsets committed, etc.)
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumer.Close()
}
