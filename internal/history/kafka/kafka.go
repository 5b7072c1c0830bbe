// Package kafka streams recorded history entries to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/ManuGH/foodscan/internal/history"
	"github.com/ManuGH/foodscan/internal/log"
	"github.com/ManuGH/foodscan/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the producer.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Sink publishes entries keyed by barcode, so all scans of one product land
// on the same partition.
type Sink struct {
	producer sarama.SyncProducer
	topic    string
	source   string
}

// NewProducerConfig returns the sarama settings used by the sink.
func NewProducerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = clientID
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Version = sarama.V3_6_0_0
	return cfg
}

// Connect dials the brokers.
func Connect(cfg Config) (*Sink, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig(cfg.ClientID))
	if err != nil {
		return nil, fmt.Errorf("history kafka: create producer: %w", err)
	}
	return New(producer, cfg.Topic, cfg.ClientID), nil
}

// New wraps an existing producer.
func New(producer sarama.SyncProducer, topic, source string) *Sink {
	return &Sink{producer: producer, topic: topic, source: source}
}

type envelope struct {
	Type   string        `json:"type"`
	Source string        `json:"source,omitempty"`
	Entry  history.Entry `json:"entry"`
}

// Publish sends one entry.
func (s *Sink) Publish(ctx context.Context, e history.Entry) error {
	ctx, span := telemetry.Tracer("foodscan.history").Start(ctx, "kafka.produce",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", s.topic),
		))
	defer span.End()

	body, err := json.Marshal(envelope{Type: "product.scanned", Source: s.source, Entry: e})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("history kafka: encode: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     s.topic,
		Key:       sarama.StringEncoder(e.Barcode),
		Value:     sarama.ByteEncoder(body),
		Timestamp: e.LastSeen,
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: msg})

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("history kafka: send to %s: %w", s.topic, err)
	}

	logger := log.WithComponentFromContext(ctx, "history.kafka")
	logger.Debug().
		Str("topic", s.topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Str(log.FieldBarcode, e.Barcode).
		Msg("history entry published")
	return nil
}

// Close closes the producer.
func (s *Sink) Close() error {
	return s.producer.Close()
}

// headerCarrier adapts sarama record headers to the otel propagation API.
type headerCarrier struct {
	msg *sarama.ProducerMessage
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if string(h.Key) == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, string(h.Key))
	}
	return keys
}
