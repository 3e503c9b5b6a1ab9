package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"haul-bidding/utils"
)

const (
	headerEventID   = "event-id"
	headerEventType = "event-type"
	headerSource    = "source"
)

// KafkaConfig locates the change-event topic.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupPrefix is suffixed with InstanceID so that every process reads
	// every event; Kafka is the fan-out bus between instances here.
	// InstanceID must be stable across restarts or groups accumulate.
	GroupPrefix string
	InstanceID  string
}

// GroupID is the consumer group of this instance.
func (c KafkaConfig) GroupID() string {
	return c.GroupPrefix + "-" + c.InstanceID
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBroker publishes change events to Kafka keyed by booking id, so one
// booking's events stay on one partition in publish order, and relays the
// topic back into a local Hub that serves this process's subscribers.
type KafkaBroker struct {
	hub    *Hub
	writer messageWriter
	reader messageReader
	source string
}

// NewKafkaBroker wires a writer and a reader for cfg around hub.
func NewKafkaBroker(cfg KafkaConfig, hub *Hub) (*KafkaBroker, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("realtime: at least one kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("realtime: kafka topic cannot be empty")
	}
	if cfg.InstanceID == "" {
		return nil, errors.New("realtime: kafka instance id cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			utils.Error("Kafka writer error", map[string]any{"detail": fmt.Sprintf(msg, args...)})
		}),
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID(),
		StartOffset: kafka.LastOffset,
		MaxWait:     250 * time.Millisecond,
		Logger:      kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			utils.Error("Kafka reader error", map[string]any{"detail": fmt.Sprintf(msg, args...)})
		}),
	})
	return newKafkaBroker(hub, writer, reader, cfg.InstanceID), nil
}

func newKafkaBroker(hub *Hub, w messageWriter, r messageReader, source string) *KafkaBroker {
	return &KafkaBroker{hub: hub, writer: w, reader: r, source: source}
}

// Publish writes ev to Kafka. If the write fails the event is still handed to
// local subscribers and the error is returned for logging.
func (k *KafkaBroker) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: encode event %s: %w", ev.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.BookingID),
		Value: payload,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: headerEventID, Value: []byte(ev.ID)},
			{Key: headerEventType, Value: []byte(string(ev.Table) + "." + string(ev.Op))},
			{Key: headerSource, Value: []byte(k.source)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		_ = k.hub.Publish(ctx, ev)
		return fmt.Errorf("realtime: publish event %s: %w", ev.ID, err)
	}
	return nil
}

func (k *KafkaBroker) Subscribe(ctx context.Context, f Filter) (Subscription, error) {
	return k.hub.Subscribe(ctx, f)
}

// Run relays the topic into the hub until ctx is done. Undecodable messages
// are logged and committed so they cannot wedge the partition.
func (k *KafkaBroker) Run(ctx context.Context) error {
	for {
		msg, err := k.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			utils.Warn("Kafka fetch failed", map[string]any{"error": err.Error()})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}

		var ev ChangeEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			utils.Error("Dropping undecodable change event", map[string]any{
				"partition": msg.Partition,
				"offset":    msg.Offset,
				"error":     err.Error(),
			})
		} else if err := k.hub.Publish(ctx, ev); err != nil {
			return err
		}

		if err := k.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			utils.Warn("Kafka commit failed", map[string]any{"offset": msg.Offset, "error": err.Error()})
		}
	}
}

// Close flushes the writer and leaves the consumer group.
func (k *KafkaBroker) Close() error {
	return errors.Join(k.writer.Close(), k.reader.Close())
}
