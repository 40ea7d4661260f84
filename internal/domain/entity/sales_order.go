package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// OrderStatus estado de una orden de venta (enum cerrado).
type OrderStatus uint8

const (
	OrderDraft OrderStatus = iota + 1
	OrderConfirmed
	OrderAllocated
	OrderPicking
	OrderPacked
	OrderShipped
	OrderDelivered
	OrderCancelled
)

var orderStatusNames = map[OrderStatus]string{
	OrderDraft:     "DRAFT",
	OrderConfirmed: "CONFIRMED",
	OrderAllocated: "ALLOCATED",
	OrderPicking:   "PICKING",
	OrderPacked:    "PACKED",
	OrderShipped:   "SHIPPED",
	OrderDelivered: "DELIVERED",
	OrderCancelled: "CANCELLED",
}

func (s OrderStatus) String() string {
	if n, ok := orderStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("OrderStatus(%d)", uint8(s))
}

// ParseOrderStatus convierte el texto persistido.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for st, n := range orderStatusNames {
		if n == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("estado de orden desconocido %q", s)
}

// CanTransitionTo tabla de transiciones de la orden. ALLOCATED -> CONFIRMED ocurre al
// liberar reservas para replanificar.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	switch s {
	case OrderDraft:
		return to == OrderConfirmed || to == OrderCancelled
	case OrderConfirmed:
		return to == OrderAllocated || to == OrderCancelled
	case OrderAllocated:
		return to == OrderPicking || to == OrderConfirmed || to == OrderCancelled
	case OrderPicking:
		return to == OrderPacked || to == OrderCancelled
	case OrderPacked:
		return to == OrderShipped || to == OrderCancelled
	case OrderShipped:
		return to == OrderDelivered
	case OrderDelivered, OrderCancelled:
		return false
	default:
		return false
	}
}

// PreShipment indica si la orden aún no salió (cancelable, reservas liberables).
func (s OrderStatus) PreShipment() bool {
	switch s {
	case OrderDraft, OrderConfirmed, OrderAllocated, OrderPicking, OrderPacked:
		return true
	case OrderShipped, OrderDelivered, OrderCancelled:
		return false
	default:
		return false
	}
}

// SalesOrder orden de venta; es dueña de sus líneas y de su estado.
type SalesOrder struct {
	ID           string
	TenantID     string
	SiteID       string // bodega desde la que se despacha
	Number       string
	Status       OrderStatus
	PickTaskID   string
	CancelReason string
	Lines        []*SalesOrderLine
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
}

// SalesOrderLine línea de la orden; cantidades en unidad base.
type SalesOrderLine struct {
	ID               string
	OrderID          string
	LineNumber       int
	ItemID           string
	QtyOrderedBase   decimal.Decimal
	QtyAllocatedBase decimal.Decimal // <= ordenada
	QtyPickedBase    decimal.Decimal
	QtyShippedBase   decimal.Decimal
}

// Remaining cantidad pendiente de reservar.
func (l *SalesOrderLine) Remaining() decimal.Decimal {
	return l.QtyOrderedBase.Sub(l.QtyAllocatedBase)
}

// Transition aplica el cambio de estado si la tabla lo permite.
func (o *SalesOrder) Transition(to OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(to) {
		return domain.InvalidTransition("orden "+o.ID, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = now
	return nil
}

// Line busca una línea por ID.
func (o *SalesOrder) Line(lineID string) *SalesOrderLine {
	for _, l := range o.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// FullyAllocated todas las líneas cubiertas.
func (o *SalesOrder) FullyAllocated() bool {
	for _, l := range o.Lines {
		if l.QtyAllocatedBase.LessThan(l.QtyOrderedBase) {
			return false
		}
	}
	return true
}

// FullyShipped todas las líneas despachadas por lo reservado.
func (o *SalesOrder) FullyShipped() bool {
	for _, l := range o.Lines {
		if !l.QtyShippedBase.Equal(l.QtyAllocatedBase) {
			return false
		}
	}
	return true
}
