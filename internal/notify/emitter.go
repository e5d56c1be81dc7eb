package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AdminEmitter publishes events to the live admin channel.
type AdminEmitter interface {
	EmitAdminEvent(ctx context.Context, name string, payload interface{}) error
}

// Envelope is the message published for every admin event.
type Envelope struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	EmittedAt time.Time   `json:"emittedAt"`
}

// NewProducerConfig returns the sarama settings used for admin events.
func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Timeout = 5 * time.Second
	return config
}

// KafkaEmitter publishes admin events to a Kafka topic.
type KafkaEmitter struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaEmitter connects a sync producer to brokers.
func NewKafkaEmitter(brokers []string, topic string) (*KafkaEmitter, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to start Sarama producer: %w", err)
	}
	log.Info().Strs("brokers", brokers).Str("topic", topic).Msg("Kafka producer connected")
	return NewKafkaEmitterWithProducer(producer, topic), nil
}

// NewKafkaEmitterWithProducer wraps an existing producer.
func NewKafkaEmitterWithProducer(producer sarama.SyncProducer, topic string) *KafkaEmitter {
	return &KafkaEmitter{producer: producer, topic: topic}
}

func (e *KafkaEmitter) EmitAdminEvent(ctx context.Context, name string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := Envelope{ID: uuid.NewString(), Event: name, Payload: payload, EmittedAt: time.Now().UTC()}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", name, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: e.topic,
		Key:   sarama.StringEncoder(name),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-id"), Value: []byte(env.ID)},
		},
	}
	partition, offset, err := e.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("sending %s event to %s: %w", name, e.topic, err)
	}
	log.Debug().Str("event", name).Int32("partition", partition).Int64("offset", offset).Msg("admin event published")
	return nil
}

// Close shuts the producer down.
func (e *KafkaEmitter) Close() error {
	return e.producer.Close()
}

// LogEmitter writes admin events to the log. Used when Kafka is disabled.
type LogEmitter struct{}

func (LogEmitter) EmitAdminEvent(_ context.Context, name string, payload interface{}) error {
	log.Info().Str("event", name).Interface("payload", payload).Msg("admin event")
	return nil
}
