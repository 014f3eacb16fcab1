package events

import (
	"context"
	"fmt"
	"time"

	"coffee-shop/internal/config"
	"coffee-shop/internal/model"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Publisher hands outbox events to a message broker.
type Publisher interface {
	Publish(ctx context.Context, event model.OutboxEvent) error
	Close() error
}

// NewPublisher builds the publisher selected by cfg.Broker.
func NewPublisher(cfg config.EventsConfig, logger zerolog.Logger) (Publisher, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		return NewKafkaPublisher(cfg.Brokers(), cfg.KafkaTopic, logger), nil
	case config.BrokerRabbitMQ:
		return DialRabbitPublisher(cfg.RabbitURL, cfg.RabbitExchange, logger)
	default:
		return NewLogPublisher(logger), nil
	}
}

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic keyed by aggregate id, so
// events of one order stay in partition order.
type KafkaPublisher struct {
	writer messageWriter
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		logger: logger.With().Str("component", "kafka-publisher").Logger(),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(event.ID.String())},
			{Key: "event-type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", event.EventType, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	Close() error
}

// RabbitPublisher publishes events to a topic exchange with the event type as
// routing key, waiting for the broker's confirm.
type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
	logger   zerolog.Logger
}

// DialRabbitPublisher connects to RabbitMQ and declares the exchange.
func DialRabbitPublisher(url, exchange string, logger zerolog.Logger) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newRabbitPublisher(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newRabbitPublisher(ch amqpChannel, exchange string, logger zerolog.Logger) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With().Str("component", "rabbit-publisher").Logger(),
	}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.CreatedAt,
		Type:         event.EventType,
		Body:         event.Payload,
	}

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, event.EventType, false, false, pub)
	if err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", event.EventType, err)
	}
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq confirm %s: %w", event.EventType, err)
	}
	if !acked {
		return fmt.Errorf("rabbitmq nacked %s", event.EventType)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogPublisher only logs events. It is used when no broker is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that writes events to the log.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "log-publisher").Logger()}
}

func (p *LogPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	p.logger.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", event.Payload).
		Msg("event published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
