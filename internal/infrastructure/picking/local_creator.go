package picking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// LocalCreator genera la tarea de picking en el propio servicio cuando no hay WMS externo.
// El identificador es un UUID; la tarea solo queda registrada en el log.
type LocalCreator struct {
	log zerolog.Logger
}

// NewLocalCreator construye el creador local.
func NewLocalCreator(log zerolog.Logger) *LocalCreator {
	return &LocalCreator{log: log.With().Str("component", "picking").Logger()}
}

// CreatePickTask devuelve el ID de la tarea para la orden.
func (c *LocalCreator) CreatePickTask(ctx context.Context, order *entity.SalesOrder) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if order == nil || len(order.Lines) == 0 {
		return "", fmt.Errorf("picking: orden sin líneas")
	}
	id := uuid.New().String()
	c.log.Info().
		Str("tenant_id", order.TenantID).
		Str("order_id", order.ID).
		Str("pick_task_id", id).
		Int("lines", len(order.Lines)).
		Msg("tarea de picking creada")
	return id, nil
}
