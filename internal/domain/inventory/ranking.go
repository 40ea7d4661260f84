package inventory

import (
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RankCandidates ordena las ubicaciones candidatas para reservar `remaining`:
//  1. ubicaciones que cubren todo lo pendiente en una sola (evita picks partidos),
//  2. ingreso más antiguo primero (FIFO) si el item maneja lotes,
//  3. código de ubicación ascendente como desempate determinístico.
//
// Las ubicaciones sin disponible se descartan.
func RankCandidates(cands []entity.AllocationCandidate, remaining decimal.Decimal, fifo bool) []entity.AllocationCandidate {
	out := make([]entity.AllocationCandidate, 0, len(cands))
	for _, c := range cands {
		if c.Available.IsPositive() {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aCovers := a.Available.GreaterThanOrEqual(remaining)
		bCovers := b.Available.GreaterThanOrEqual(remaining)
		if aCovers != bCovers {
			return aCovers
		}
		if fifo {
			switch {
			case a.OldestReceiptAt != nil && b.OldestReceiptAt != nil:
				if !a.OldestReceiptAt.Equal(*b.OldestReceiptAt) {
					return a.OldestReceiptAt.Before(*b.OldestReceiptAt)
				}
			case a.OldestReceiptAt != nil:
				return true
			case b.OldestReceiptAt != nil:
				return false
			}
		}
		return a.LocationCode < b.LocationCode
	})
	return out
}

// Reservation cantidad a reservar en una ubicación.
type Reservation struct {
	LocationID string
	Quantity   decimal.Decimal
}

// PlanReservations recorre las candidatas ya ordenadas y reparte `remaining`.
// Devuelve las reservas y lo que quedó sin cubrir (faltante).
func PlanReservations(ranked []entity.AllocationCandidate, remaining decimal.Decimal) ([]Reservation, decimal.Decimal) {
	var plan []Reservation
	for _, c := range ranked {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(c.Available, remaining)
		if !take.IsPositive() {
			continue
		}
		plan = append(plan, Reservation{LocationID: c.LocationID, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return plan, remaining
}
