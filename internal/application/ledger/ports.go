package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// EventMovementsPosted tipo de evento emitido después de cada commit con movimientos.
const EventMovementsPosted = "inventory.movements.posted"

// Event efecto posterior al commit (auditoría, notificaciones). Nunca se emite dentro de la transacción.
type Event struct {
	Type       string
	TenantID   string
	Movements  []*entity.MovementEntry
	OccurredAt time.Time
}

// Notifier recibe eventos post-commit. Los errores de entrega no afectan al libro:
// la implementación los registra y descarta.
type Notifier interface {
	Notify(ctx context.Context, evt Event)
}

// NopNotifier descarta los eventos.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
