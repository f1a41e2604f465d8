package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/spec-kit/blog-service/internal/config"
)

// KafkaPublisher forwards events to a Kafka topic, keyed by user id.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	source   string
}

// NewKafkaPublisher dials the configured brokers.
func NewKafkaPublisher(cfg config.KafkaConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.AuditTopic, cfg.ClientID), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, source: source}
}

// Handle publishes event; it satisfies EventHandler.
func (p *KafkaPublisher) Handle(_ context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.ID)},
			{Key: []byte("event_type"), Value: []byte(event.Type)},
			{Key: []byte("producer"), Value: []byte(p.source)},
		},
		Timestamp: event.Timestamp,
	}

	if _, _, err := p.producer.SendMessage(message); err != nil {
		return fmt.Errorf("send event %s to kafka: %w", event.ID, err)
	}
	return nil
}

// Close releases the producer.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
