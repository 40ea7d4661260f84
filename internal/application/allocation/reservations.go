package allocation

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// lineReservation reserva neta vigente de una línea en una ubicación.
type lineReservation struct {
	LocationID string
	Quantity   decimal.Decimal
}

// netReservations suma los movimientos RESERVED de la línea por ubicación, en el orden
// en que se reservó cada ubicación por primera vez.
func netReservations(ctx context.Context, tx *ledger.Tx, tenantID, lineID string) ([]lineReservation, error) {
	entries, err := tx.Repos().Movements.ListByReference(ctx, tenantID, entity.RefSalesOrderLine, lineID)
	if err != nil {
		return nil, err
	}
	var order []string
	net := make(map[string]decimal.Decimal)
	for _, m := range entries {
		if m.Bucket != entity.BucketReserved || m.LocationID == nil {
			continue
		}
		loc := *m.LocationID
		if _, ok := net[loc]; !ok {
			order = append(order, loc)
			net[loc] = decimal.Zero
		}
		net[loc] = net[loc].Add(m.QuantityBase)
	}
	out := make([]lineReservation, 0, len(order))
	for _, loc := range order {
		if net[loc].IsPositive() {
			out = append(out, lineReservation{LocationID: loc, Quantity: net[loc]})
		}
	}
	return out, nil
}

// releaseLine emite un DEALLOCATE por cada reserva neta vigente de la línea.
// Devuelve el total liberado.
func releaseLine(ctx context.Context, tx *ledger.Tx, order *entity.SalesOrder, line *entity.SalesOrderLine, userID, reason string) (decimal.Decimal, error) {
	reservations, err := netReservations(ctx, tx, order.TenantID, line.ID)
	if err != nil {
		return decimal.Zero, err
	}
	released := decimal.Zero
	for _, r := range reservations {
		loc := r.LocationID
		_, err := tx.Append(ctx, &entity.MovementEntry{
			TenantID:      order.TenantID,
			ItemID:        line.ItemID,
			SiteID:        order.SiteID,
			LocationID:    &loc,
			Kind:          entity.MovementDeallocate,
			Bucket:        entity.BucketReserved,
			QuantityBase:  r.Quantity.Neg(),
			ReferenceType: entity.RefSalesOrderLine,
			ReferenceID:   line.ID,
			Reason:        reason,
			CreatedBy:     userID,
		})
		if err != nil {
			return decimal.Zero, err
		}
		released = released.Add(r.Quantity)
	}
	line.QtyAllocatedBase = line.QtyAllocatedBase.Sub(released)
	return released, nil
}
