package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
)

// LogPublisher registra los eventos en el log estructurado (sin broker configurado).
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, evt ledger.Event) error {
	e := p.log.Info().
		Str("type", evt.Type).
		Str("tenant_id", evt.TenantID).
		Int("movements", len(evt.Movements))
	if len(evt.Movements) > 0 {
		e = e.Str("reference_type", string(evt.Movements[0].ReferenceType)).
			Str("reference_id", evt.Movements[0].ReferenceID)
	}
	e.Time("occurred_at", evt.OccurredAt).Msg("movimientos confirmados")
	return nil
}
