package events

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
)

// Publisher entrega un evento a su destino (broker, log).
type Publisher interface {
	Publish(ctx context.Context, evt ledger.Event) error
}

// Dispatcher implementa ledger.Notifier: encola los eventos post-commit en un buffer y un
// worker los publica. Si el buffer está lleno el evento se descarta y se registra; el libro
// nunca espera al broker.
type Dispatcher struct {
	queue     chan ledger.Event
	publisher Publisher
	log       zerolog.Logger
	dropped   atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher crea el despachador con capacidad buffer (mínimo 1).
func NewDispatcher(p Publisher, buffer int, log zerolog.Logger) *Dispatcher {
	if buffer < 1 {
		buffer = 1
	}
	return &Dispatcher{
		queue:     make(chan ledger.Event, buffer),
		publisher: p,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// Notify no bloquea.
func (d *Dispatcher) Notify(_ context.Context, evt ledger.Event) {
	select {
	case d.queue <- evt:
	default:
		d.dropped.Add(1)
		d.log.Warn().
			Str("tenant_id", evt.TenantID).
			Str("type", evt.Type).
			Int("movements", len(evt.Movements)).
			Msg("buffer de eventos lleno, evento descartado")
	}
}

// Run publica hasta que ctx se cancela; al cancelar drena lo que quede en el buffer.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-d.queue:
			d.publish(ctx, evt)
		case <-ctx.Done():
			d.drain()
			return nil
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case evt := <-d.queue:
			d.publish(context.Background(), evt)
		default:
			return
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, evt ledger.Event) {
	if err := d.publisher.Publish(ctx, evt); err != nil {
		d.failed.Add(1)
		d.log.Error().Err(err).
			Str("tenant_id", evt.TenantID).
			Str("type", evt.Type).
			Msg("no se pudo publicar el evento")
	}
}

// Dropped eventos descartados por buffer lleno.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Failed eventos cuya publicación falló.
func (d *Dispatcher) Failed() int64 { return d.failed.Load() }
