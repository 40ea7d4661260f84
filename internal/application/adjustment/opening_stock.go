package adjustment

import (
	"context"
	"fmt"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OpeningRow saldo inicial de un SKU en una ubicación (por código).
type OpeningRow struct {
	Line         int
	SKU          string
	SiteID       string
	LocationCode string
	Quantity     decimal.Decimal
}

// ImportOpeningStock carga saldos iniciales como RECEIPT con referencia OPENING_BALANCE,
// todos en una transacción: si una fila falla no se importa ninguna. Un lote ya importado
// se rechaza con domain.ErrDuplicate.
func (uc *RegisterMovementUseCase) ImportOpeningStock(ctx context.Context, tenantID, userID, batchID string, rows []OpeningRow) (int, error) {
	if batchID == "" {
		return 0, domain.Validationf("lote de importación obligatorio")
	}
	for _, r := range rows {
		if r.SKU == "" || r.SiteID == "" || r.LocationCode == "" {
			return 0, domain.Validationf("fila %d: sku, bodega y ubicación son obligatorios", r.Line)
		}
		if !r.Quantity.IsPositive() {
			return 0, domain.Validationf("fila %d: cantidad debe ser positiva", r.Line)
		}
	}
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		prev, err := tx.Repos().Movements.ListByReference(ctx, tenantID, entity.RefOpeningBalance, batchID)
		if err != nil {
			return err
		}
		if len(prev) > 0 {
			return fmt.Errorf("%w: lote %s ya importado (%d movimientos)", domain.ErrDuplicate, batchID, len(prev))
		}
		cat := tx.Repos().Catalog
		for _, r := range rows {
			item, err := cat.GetItemBySKU(ctx, tenantID, r.SKU)
			if err != nil {
				return fmt.Errorf("fila %d: %w", r.Line, err)
			}
			loc, err := cat.GetLocationByCode(ctx, tenantID, r.SiteID, r.LocationCode)
			if err != nil {
				return fmt.Errorf("fila %d: %w", r.Line, err)
			}
			locID := loc.ID
			if _, err := tx.Append(ctx, &entity.MovementEntry{
				TenantID:      tenantID,
				ItemID:        item.ID,
				SiteID:        r.SiteID,
				LocationID:    &locID,
				Kind:          entity.MovementReceipt,
				Bucket:        entity.BucketOnHand,
				QuantityBase:  r.Quantity,
				ReferenceType: entity.RefOpeningBalance,
				ReferenceID:   batchID,
				Reason:        "saldo inicial",
				CreatedBy:     userID,
			}); err != nil {
				return fmt.Errorf("fila %d: %w", r.Line, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("batch_id", batchID).Int("rows", len(rows)).Msg("saldos iniciales importados")
	return len(rows), nil
}
