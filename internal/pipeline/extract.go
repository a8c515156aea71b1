package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/mission-service/internal/domain"
)

// MessageReader is the port for reading messages from a broker.
type MessageReader interface {
	ReadMessage(ctx context.Context) (domain.RawEvent, error)
	Close() error
}

// BrokerExtractor implements Extractor by delegating to a MessageReader.
type BrokerExtractor struct {
	reader MessageReader
	logger *slog.Logger
}

// NewExtractor creates a BrokerExtractor backed by the given reader.
func NewExtractor(reader MessageReader, logger *slog.Logger) *BrokerExtractor {
	return &BrokerExtractor{reader: reader, logger: logger}
}

func (e *BrokerExtractor) Extract(ctx context.Context) (domain.RawEvent, error) {
	raw, err := e.reader.ReadMessage(ctx)
	if err != nil {
		return domain.RawEvent{}, err
	}
	e.logger.Debug("command received",
		"topic", raw.Topic,
		"partition", raw.Partition,
		"offset", raw.Offset,
	)
	return raw, nil
}
