package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransferStatus estado de una transferencia entre bodegas.
type TransferStatus uint8

const (
	TransferDraft TransferStatus = iota + 1
	TransferApproved
	TransferShipped
	TransferReceived
	TransferCancelled
)

var transferStatusNames = map[TransferStatus]string{
	TransferDraft:     "DRAFT",
	TransferApproved:  "APPROVED",
	TransferShipped:   "SHIPPED",
	TransferReceived:  "RECEIVED",
	TransferCancelled: "CANCELLED",
}

func (s TransferStatus) String() string {
	if n, ok := transferStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("TransferStatus(%d)", uint8(s))
}

// ParseTransferStatus convierte el texto persistido.
func ParseTransferStatus(s string) (TransferStatus, error) {
	for st, n := range transferStatusNames {
		if n == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("estado de transferencia desconocido %q", s)
}

// CanTransitionTo tabla de transiciones. SHIPPED -> SHIPPED (recepción parcial) no es transición.
func (s TransferStatus) CanTransitionTo(to TransferStatus) bool {
	switch s {
	case TransferDraft:
		return to == TransferApproved || to == TransferCancelled
	case TransferApproved:
		return to == TransferShipped || to == TransferCancelled
	case TransferShipped:
		return to == TransferReceived || to == TransferCancelled
	case TransferReceived, TransferCancelled:
		return false
	default:
		return false
	}
}

// TransferOrder orden de transferencia entre bodegas. En DRAFT/APPROVED no reserva nada.
type TransferOrder struct {
	ID                     string
	TenantID               string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Status                 TransferStatus
	Carrier                string // metadatos opacos para el libro
	TrackingNumber         string
	CancelReason           string
	Lines                  []*TransferOrderLine
	Version                int64
	CreatedAt              time.Time
	UpdatedAt              time.Time
	ShippedAt              *time.Time
	ReceivedAt             *time.Time
	CreatedBy              string
}

// TransferOrderLine línea de la transferencia.
type TransferOrderLine struct {
	ID                string
	TransferID        string
	LineNumber        int
	ItemID            string
	QuantityRequested decimal.Decimal
	QuantityShipped   decimal.Decimal
	QuantityReceived  decimal.Decimal
	QuantityDamaged   decimal.Decimal
	QuantityReturned  decimal.Decimal // devuelto al origen al cancelar en tránsito
	ShipLocationID    string          // ubicación origen usada al despachar
}

// Outstanding cantidad aún en tránsito: despachado - recibido - dañado - devuelto.
func (l *TransferOrderLine) Outstanding() decimal.Decimal {
	return l.QuantityShipped.Sub(l.QuantityReceived).Sub(l.QuantityDamaged).Sub(l.QuantityReturned)
}

// Transition aplica el cambio de estado si la tabla lo permite.
func (t *TransferOrder) Transition(to TransferStatus, now time.Time) error {
	if !t.Status.CanTransitionTo(to) {
		return domain.InvalidTransition("transferencia "+t.ID, t.Status, to)
	}
	t.Status = to
	t.UpdatedAt = now
	return nil
}

// Line busca una línea por ID.
func (t *TransferOrder) Line(lineID string) *TransferOrderLine {
	for _, l := range t.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// Outstanding total en tránsito de la transferencia.
func (t *TransferOrder) Outstanding() decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		total = total.Add(l.Outstanding())
	}
	return total
}

// FullyAccounted cada línea despachada quedó recibida o dañada por completo.
func (t *TransferOrder) FullyAccounted() bool {
	for _, l := range t.Lines {
		if !l.Outstanding().IsZero() {
			return false
		}
	}
	return true
}
