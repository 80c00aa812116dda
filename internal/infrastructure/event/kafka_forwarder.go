package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/disciplinario/backend/internal/domain/shared"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// producer is the subset of *kgo.Client used by KafkaForwarder
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Flush(ctx context.Context) error
	Close()
}

// KafkaConfig configures the Kafka forwarder
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// KafkaForwarder publishes every domain event as a JSON envelope to a Kafka
// topic, keyed by aggregate ID so events of one request stay ordered.
type KafkaForwarder struct {
	client     producer
	topic      string
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewKafkaForwarder connects a franz-go producer to the brokers
func NewKafkaForwarder(cfg KafkaConfig, serializer *EventSerializer, logger *zap.Logger) (*KafkaForwarder, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	return newKafkaForwarder(client, cfg.Topic, serializer, logger), nil
}

func newKafkaForwarder(client producer, topic string, serializer *EventSerializer, logger *zap.Logger) *KafkaForwarder {
	if serializer == nil {
		serializer = NewEventSerializer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{
		client:     client,
		topic:      topic,
		serializer: serializer,
		logger:     logger.Named("kafka_forwarder"),
	}
}

// EventTypes returns nil so the forwarder receives all events
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Handle produces the event and waits for the broker acknowledgement
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	value, err := f.serializer.Marshal(event)
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: f.topic,
		Key:   []byte(event.AggregateID().String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "aggregate_type", Value: []byte(event.AggregateType())},
		},
	}

	if err := f.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", event.EventType(), err)
	}

	f.logger.Debug("event forwarded",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()))
	return nil
}

// Close flushes buffered records and closes the client
func (f *KafkaForwarder) Close(ctx context.Context) error {
	err := f.client.Flush(ctx)
	f.client.Close()
	return err
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
