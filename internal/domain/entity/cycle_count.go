package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// CountLineStatus estado de una línea de conteo cíclico.
type CountLineStatus uint8

const (
	CountLinePending CountLineStatus = iota + 1
	CountLineCounted
	CountLineVarianceApproved
)

var countLineStatusNames = map[CountLineStatus]string{
	CountLinePending:          "PENDING",
	CountLineCounted:          "COUNTED",
	CountLineVarianceApproved: "VARIANCE_APPROVED",
}

func (s CountLineStatus) String() string {
	if n, ok := countLineStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("CountLineStatus(%d)", uint8(s))
}

// ParseCountLineStatus convierte el texto persistido.
func ParseCountLineStatus(s string) (CountLineStatus, error) {
	for st, n := range countLineStatusNames {
		if n == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("estado de línea de conteo desconocido %q", s)
}

// CanTransitionTo PENDING -> COUNTED -> VARIANCE_APPROVED. Un reconteo (COUNTED -> COUNTED)
// se permite mientras la varianza no haya sido aprobada.
func (s CountLineStatus) CanTransitionTo(to CountLineStatus) bool {
	switch s {
	case CountLinePending:
		return to == CountLineCounted
	case CountLineCounted:
		return to == CountLineCounted || to == CountLineVarianceApproved
	case CountLineVarianceApproved:
		return false
	default:
		return false
	}
}

// CycleCountStatus estado del conteo como un todo.
type CycleCountStatus uint8

const (
	CycleCountOpen CycleCountStatus = iota + 1
	CycleCountCompleted
)

func (s CycleCountStatus) String() string {
	switch s {
	case CycleCountOpen:
		return "OPEN"
	case CycleCountCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("CycleCountStatus(%d)", uint8(s))
	}
}

// ParseCycleCountStatus convierte el texto persistido.
func ParseCycleCountStatus(s string) (CycleCountStatus, error) {
	switch s {
	case "OPEN":
		return CycleCountOpen, nil
	case "COMPLETED":
		return CycleCountCompleted, nil
	}
	return 0, fmt.Errorf("estado de conteo desconocido %q", s)
}

// CycleCount conteo cíclico de una bodega.
type CycleCount struct {
	ID          string
	TenantID    string
	SiteID      string
	Status      CycleCountStatus
	Lines       []*CycleCountLine
	CreatedAt   time.Time
	CompletedAt *time.Time
	CreatedBy   string
}

// CycleCountLine línea a contar: item en una ubicación.
type CycleCountLine struct {
	ID              string
	CountID         string
	LineNumber      int
	ItemID          string
	LocationID      string
	ExpectedQtyBase decimal.Decimal  // foto de OnHand al programar
	CountedQtyBase  *decimal.Decimal // nil hasta contar
	VarianceQtyBase *decimal.Decimal // contado - esperado
	Status          CountLineStatus
	Adjusted        bool // se emitió COUNT_ADJUST al aprobar
	CountedBy       string
	CountedAt       *time.Time
	ApprovedBy      string
	ApprovedAt      *time.Time
}

// RecordCount registra la observación física; no toca el libro.
func (l *CycleCountLine) RecordCount(counted decimal.Decimal, by string, now time.Time) error {
	if !l.Status.CanTransitionTo(CountLineCounted) {
		return domain.InvalidTransition("línea de conteo "+l.ID, l.Status, CountLineCounted)
	}
	variance := counted.Sub(l.ExpectedQtyBase)
	l.CountedQtyBase = &counted
	l.VarianceQtyBase = &variance
	l.Status = CountLineCounted
	l.CountedBy = by
	l.CountedAt = &now
	return nil
}

// HasVariance la línea contada difiere de lo esperado.
func (l *CycleCountLine) HasVariance() bool {
	return l.VarianceQtyBase != nil && !l.VarianceQtyBase.IsZero()
}

// Closed la línea no requiere más acciones: aprobada, o contada sin varianza.
func (l *CycleCountLine) Closed() bool {
	switch l.Status {
	case CountLineVarianceApproved:
		return true
	case CountLineCounted:
		return !l.HasVariance()
	default:
		return false
	}
}

// Line busca una línea por ID.
func (c *CycleCount) Line(lineID string) *CycleCountLine {
	for _, l := range c.Lines {
		if l.ID == lineID {
			return l
		}
	}
	return nil
}

// AllCounted ninguna línea sigue PENDING.
func (c *CycleCount) AllCounted() bool {
	for _, l := range c.Lines {
		if l.Status == CountLinePending {
			return false
		}
	}
	return true
}
