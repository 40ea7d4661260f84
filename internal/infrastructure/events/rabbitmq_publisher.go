package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
)

const (
	defaultExchangeType   = "topic"
	defaultConfirmTimeout = 5 * time.Second
)

var (
	// ErrPublishNacked el broker rechazó el mensaje.
	ErrPublishNacked = errors.New("events: mensaje rechazado por el broker")
	// ErrConfirmTimeout el broker no confirmó a tiempo.
	ErrConfirmTimeout = errors.New("events: tiempo de confirmación agotado")
	// ErrChannelClosed el canal AMQP se cerró.
	ErrChannelClosed = errors.New("events: canal AMQP cerrado")
)

// AMQPChannel operaciones del canal que usa el publicador.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publica los eventos del libro en un exchange topic con confirmación del
// broker. La clave de enrutamiento es el tipo del evento.
type RabbitMQPublisher struct {
	ch             AMQPChannel
	conn           *amqp.Connection
	exchange       string
	confirms       chan amqp.Confirmation
	confirmTimeout time.Duration
	log            zerolog.Logger
	mu             sync.Mutex
	closed         bool
}

// RabbitMQOption configura el publicador.
type RabbitMQOption func(*RabbitMQPublisher)

// WithConfirmTimeout espera máxima por el ack del broker.
func WithConfirmTimeout(d time.Duration) RabbitMQOption {
	return func(p *RabbitMQPublisher) {
		if d > 0 {
			p.confirmTimeout = d
		}
	}
}

// WithPublisherLogger asigna el logger.
func WithPublisherLogger(l zerolog.Logger) RabbitMQOption {
	return func(p *RabbitMQPublisher) { p.log = l }
}

// DialRabbitMQ abre conexión y canal contra url y declara el exchange.
func DialRabbitMQ(url, exchange string, opts ...RabbitMQOption) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("conectar rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	p, err := NewRabbitMQPublisher(ch, exchange, opts...)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewRabbitMQPublisher usa un canal ya abierto.
func NewRabbitMQPublisher(ch AMQPChannel, exchange string, opts ...RabbitMQOption) (*RabbitMQPublisher, error) {
	if exchange == "" {
		return nil, fmt.Errorf("events: exchange vacío")
	}
	p := &RabbitMQPublisher{
		ch:             ch,
		exchange:       exchange,
		confirmTimeout: defaultConfirmTimeout,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if err := ch.ExchangeDeclare(exchange, defaultExchangeType, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declarar exchange %s: %w", exchange, err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("activar confirmaciones: %w", err)
	}
	p.confirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return p, nil
}

// Publish envía el evento y espera la confirmación. Las llamadas se serializan para que
// cada confirmación corresponda a su publicación. Si la confirmación no llega (timeout o
// ctx cancelado) el canal se cierra y el publicador queda inutilizable: una confirmación
// tardía se atribuiría a la siguiente publicación.
func (p *RabbitMQPublisher) Publish(ctx context.Context, evt ledger.Event) error {
	body, err := NewMessage(evt).Encode()
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.OccurredAt,
		Type:         evt.Type,
		Headers:      amqp.Table{"tenant_id": evt.TenantID},
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrChannelClosed
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, evt.Type, false, false, msg); err != nil {
		return fmt.Errorf("publicar: %w", err)
	}
	if err := p.waitConfirm(ctx); err != nil {
		if confirmStreamCorrupted(err) {
			p.invalidate()
			p.log.Error().Err(err).Str("routing_key", evt.Type).Msg("confirmación perdida, canal invalidado")
		}
		return err
	}
	p.log.Debug().Str("exchange", p.exchange).Str("routing_key", evt.Type).Int("bytes", len(body)).Msg("evento publicado")
	return nil
}

func (p *RabbitMQPublisher) waitConfirm(ctx context.Context) error {
	timer := time.NewTimer(p.confirmTimeout)
	defer timer.Stop()
	select {
	case c, ok := <-p.confirms:
		if !ok {
			return ErrChannelClosed
		}
		if !c.Ack {
			return fmt.Errorf("%w: delivery_tag=%d", ErrPublishNacked, c.DeliveryTag)
		}
		return nil
	case <-timer.C:
		return ErrConfirmTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func confirmStreamCorrupted(err error) bool {
	return errors.Is(err, ErrConfirmTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// invalidate cierra el canal. Requiere p.mu.
func (p *RabbitMQPublisher) invalidate() {
	if p.closed {
		return
	}
	p.closed = true
	_ = p.ch.Close()
}

// Close cierra canal y conexión.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if !p.closed {
		p.closed = true
		err = p.ch.Close()
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
	}
	return err
}
