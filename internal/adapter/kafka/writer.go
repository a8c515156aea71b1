package kafka

import (
	"context"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/mission-service/internal/config"
	"github.com/couchcryptid/mission-service/internal/domain"
)

// Writer produces mission events to a Kafka topic.
// It implements pipeline.MessageWriter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured event topic. Events are
// hashed by key so every event of an incident lands on the same partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// WriteMessage publishes one event and waits for broker acknowledgement.
func (w *Writer) WriteMessage(ctx context.Context, event domain.OutputEvent) error {
	return w.writer.WriteMessages(ctx, mapOutputEventToMessage(event))
}

func (w *Writer) Close() error {
	w.logger.Info("closing kafka writer", "topic", w.writer.Topic)
	return w.writer.Close()
}

func mapOutputEventToMessage(event domain.OutputEvent) kafkago.Message {
	keys := make([]string, 0, len(event.Headers))
	for k := range event.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(event.Headers[k])})
	}
	return kafkago.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}
