package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/couchcryptid/mission-service/internal/config"
	"github.com/couchcryptid/mission-service/internal/domain"
)

const exchangeKind = "topic"

// channel is the subset of *amqp.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher writes mission events to a RabbitMQ topic exchange, routed by
// message type. It implements pipeline.MessageWriter.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	logger   *slog.Logger
}

// NewPublisher dials RabbitMQ and declares the durable event exchange.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.RabbitMQExchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: cfg.RabbitMQExchange, logger: logger}, nil
}

// WriteMessage publishes one event as a persistent message.
func (p *Publisher) WriteMessage(ctx context.Context, event domain.OutputEvent) error {
	routingKey, msg := mapOutputEventToPublishing(event)
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.logger.Info("closing rabbitmq publisher", "exchange", p.exchange)
	var errs []error
	if err := p.ch.Close(); err != nil {
		errs = append(errs, err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func mapOutputEventToPublishing(event domain.OutputEvent) (string, amqp.Publishing) {
	headers := make(amqp.Table, len(event.Headers)+1)
	for k, v := range event.Headers {
		headers[k] = v
	}
	headers["key"] = string(event.Key)

	routingKey := event.Headers["messageType"]
	if routingKey == "" {
		routingKey = domain.MissionStartedEvent
	}

	return routingKey, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		CorrelationId: string(event.Key),
		Headers:       headers,
		Body:          event.Value,
	}
}
