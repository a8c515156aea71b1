package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/mission-service/internal/config"
	"github.com/couchcryptid/mission-service/internal/domain"
)

// Reader consumes mission commands from a Kafka topic.
// It implements pipeline.MessageReader.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured command topic and group.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaSourceTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10 MB
	})
	return &Reader{reader: r, logger: logger}
}

// ReadMessage fetches a single message without committing its offset.
// The returned RawEvent carries a Commit callback the pipeline invokes once the
// message has been handled.
func (r *Reader) ReadMessage(ctx context.Context) (domain.RawEvent, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.RawEvent{}, err
	}

	raw := mapMessageToRawEvent(msg)
	raw.Commit = func(commitCtx context.Context) error {
		return r.reader.CommitMessages(commitCtx, msg)
	}
	return raw, nil
}

func (r *Reader) Close() error {
	r.logger.Info("closing kafka reader", "topic", r.reader.Config().Topic)
	return r.reader.Close()
}

func mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
