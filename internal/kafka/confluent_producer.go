package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/chattyapp/chatty-server/internal/config"
	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// ConfluentProducer implements MessageProducer over the three fan-out topics.
type ConfluentProducer struct {
	producer *kafka.Producer
	cfg      config.KafkaConfig
	doneCh   chan struct{}
}

// NewConfluentProducer creates a Kafka producer and ensures the fan-out
// topics exist with the configured partition count.
func NewConfluentProducer(cfg config.KafkaConfig) (*ConfluentProducer, error) {
	topics := []string{cfg.PublicMessagesTopic, cfg.PrivateMessagesTopic, cfg.NotificationsTopic}
	if err := ensureTopics(cfg.Brokers, topics, cfg.Partitions); err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to ensure topics (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	cp := &ConfluentProducer{
		producer: p,
		cfg:      cfg,
		doneCh:   make(chan struct{}),
	}

	go cp.deliveryReportHandler()

	return cp, nil
}

func ensureTopics(brokers string, topics []string, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := make([]kafka.TopicSpecification, 0, len(topics))
	for _, topic := range topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     partitions,
			ReplicationFactor: 1,
		})
	}

	results, err := admin.CreateTopics(ctx, specs)
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (cp *ConfluentProducer) deliveryReportHandler() {
	for e := range cp.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l := log.L()
				l.Error().
					Err(ev.TopicPartition.Error).
					Str(log.FieldTopic, *ev.TopicPartition.Topic).
					Msg("kafka delivery failed")
			}
		}
	}
	close(cp.doneCh)
}

// PublishPublic publishes a room message keyed by room id.
func (cp *ConfluentProducer) PublishPublic(ctx context.Context, msg *domain.MessageDTO) error {
	return cp.produce(cp.cfg.PublicMessagesTopic, msg.ChatRoomID, msg)
}

// PublishPrivate publishes a private message keyed by recipient id.
func (cp *ConfluentProducer) PublishPrivate(ctx context.Context, msg *domain.MessageDTO) error {
	return cp.produce(cp.cfg.PrivateMessagesTopic, msg.RecipientID, msg)
}

// PublishNotification publishes a transient notification keyed by sender.
func (cp *ConfluentProducer) PublishNotification(ctx context.Context, msg *domain.MessageDTO) error {
	key := msg.SenderID
	if key == "" {
		key = msg.SenderUsername
	}
	return cp.produce(cp.cfg.NotificationsTopic, key, msg)
}

func (cp *ConfluentProducer) produce(topic, key string, msg *domain.MessageDTO) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = cp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(key),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}

	return nil
}

func (cp *ConfluentProducer) Close() error {
	cp.producer.Flush(5000)
	cp.producer.Close()
	<-cp.doneCh
	return nil
}
