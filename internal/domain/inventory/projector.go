package inventory

import (
	"sort"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BackorderPolicy tipos de movimiento a los que se permite dejar OnHand negativo.
// Vacía por defecto: ningún movimiento puede vender en descubierto.
type BackorderPolicy struct {
	AllowNegative map[entity.MovementKind]bool
}

// Allows indica si el tipo puede dejar OnHand en negativo.
func (p BackorderPolicy) Allows(kind entity.MovementKind) bool {
	return p.AllowNegative != nil && p.AllowNegative[kind]
}

// Apply imputa el delta firmado del movimiento sobre el balance de su clave.
// Si el movimiento violaría un invariante (OnHand negativo, Reserved > OnHand,
// Reserved < 0, en tránsito negativo) devuelve *domain.StockShortageError y no modifica b.
func Apply(b *entity.Balance, m *entity.MovementEntry, policy BackorderPolicy) error {
	q := m.QuantityBase
	switch m.Bucket {
	case entity.BucketOnHand:
		next := b.OnHandBase.Add(q)
		if q.IsNegative() && !policy.Allows(m.Kind) && next.LessThan(b.ReservedBase) {
			return shortage(b, m, q.Neg(), b.Available(), false)
		}
		b.OnHandBase = next
	case entity.BucketReserved:
		next := b.ReservedBase.Add(q)
		if q.IsPositive() && next.GreaterThan(b.OnHandBase) {
			return shortage(b, m, q, b.Available(), false)
		}
		if next.IsNegative() {
			return shortage(b, m, q.Neg(), b.ReservedBase, true)
		}
		b.ReservedBase = next
	case entity.BucketInTransitOut:
		next := b.InTransitOutBase.Add(q)
		if next.IsNegative() {
			return shortage(b, m, q.Neg(), b.InTransitOutBase, false)
		}
		b.InTransitOutBase = next
	case entity.BucketInTransitIn:
		next := b.InTransitInBase.Add(q)
		if next.IsNegative() {
			return shortage(b, m, q.Neg(), b.InTransitInBase, false)
		}
		b.InTransitInBase = next
	default:
		return domain.Validationf("bucket inválido %s", m.Bucket)
	}
	b.UpdatedAt = m.CreatedAt
	return nil
}

func shortage(b *entity.Balance, m *entity.MovementEntry, requested, available decimal.Decimal, reservation bool) error {
	return &domain.StockShortageError{
		ItemID:      b.Key.ItemID,
		SiteID:      b.Key.SiteID,
		LocationID:  b.Key.LocationID,
		Bucket:      m.Bucket.String(),
		Requested:   requested,
		Available:   available,
		Reservation: reservation,
	}
}

// Replay reconstruye la proyección sumando el libro completo, sin validar invariantes.
// Es la referencia contra la que se verifica la tabla de balances.
func Replay(entries []*entity.MovementEntry) map[entity.BalanceKey]*entity.Balance {
	out := make(map[entity.BalanceKey]*entity.Balance)
	for _, m := range entries {
		key := m.Key()
		b, ok := out[key]
		if !ok {
			b = entity.NewBalance(key)
			out[key] = b
		}
		switch m.Bucket {
		case entity.BucketOnHand:
			b.OnHandBase = b.OnHandBase.Add(m.QuantityBase)
		case entity.BucketReserved:
			b.ReservedBase = b.ReservedBase.Add(m.QuantityBase)
		case entity.BucketInTransitOut:
			b.InTransitOutBase = b.InTransitOutBase.Add(m.QuantityBase)
		case entity.BucketInTransitIn:
			b.InTransitInBase = b.InTransitInBase.Add(m.QuantityBase)
		}
		if m.CreatedAt.After(b.UpdatedAt) {
			b.UpdatedAt = m.CreatedAt
		}
	}
	return out
}

// Drift diferencia entre la proyección almacenada y la reconstruida para una clave.
type Drift struct {
	Key      entity.BalanceKey
	Stored   *entity.Balance // nil si la fila no existe
	Replayed *entity.Balance // nil si el libro no tiene movimientos para la clave
}

// Diff compara balances almacenados contra la reconstrucción. Resultado ordenado por clave.
func Diff(stored []*entity.Balance, replayed map[entity.BalanceKey]*entity.Balance) []Drift {
	var drifts []Drift
	seen := make(map[entity.BalanceKey]bool, len(stored))
	for _, s := range stored {
		seen[s.Key] = true
		r, ok := replayed[s.Key]
		if !ok {
			if !s.Equal(entity.NewBalance(s.Key)) {
				drifts = append(drifts, Drift{Key: s.Key, Stored: s})
			}
			continue
		}
		if !s.Equal(r) {
			drifts = append(drifts, Drift{Key: s.Key, Stored: s, Replayed: r})
		}
	}
	for key, r := range replayed {
		if !seen[key] && !r.Equal(entity.NewBalance(key)) {
			drifts = append(drifts, Drift{Key: key, Replayed: r})
		}
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Key.Less(drifts[j].Key) })
	return drifts
}
