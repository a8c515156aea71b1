package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/mission-service/internal/domain"
)

// MessageWriter is the port for writing events to a broker.
type MessageWriter interface {
	WriteMessage(ctx context.Context, event domain.OutputEvent) error
	Close() error
}

// BrokerLoader implements Loader by delegating to a MessageWriter.
type BrokerLoader struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewLoader creates a BrokerLoader backed by the given writer.
func NewLoader(writer MessageWriter, logger *slog.Logger) *BrokerLoader {
	return &BrokerLoader{writer: writer, logger: logger}
}

func (l *BrokerLoader) Load(ctx context.Context, event domain.OutputEvent) error {
	if err := l.writer.WriteMessage(ctx, event); err != nil {
		return err
	}
	l.logger.Debug("event published",
		"key", string(event.Key),
		"message_type", event.Headers["messageType"],
	)
	return nil
}
