package adjustment

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RegisterMovementUseCase registra ingresos, salidas y ajustes manuales. Pasan por el mismo
// camino de escritura que los flujos (libro + proyección), nunca escriben balances.
type RegisterMovementUseCase struct {
	ledger *ledger.Service
	log    zerolog.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(l *ledger.Service, log zerolog.Logger) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{ledger: l, log: log.With().Str("component", "adjustment").Logger()}
}

// MovementInputDTO entrada de un movimiento manual.
// RECEIPT: cantidad positiva. ISSUE: cantidad positiva (se registra negativa).
// COUNT_ADJUST: cantidad firmada distinta de cero; exige motivo.
type MovementInputDTO struct {
	TenantID   string
	UserID     string
	ItemID     string
	SiteID     string
	LocationID string
	Type       string
	Quantity   decimal.Decimal
	Reason     string
}

// RegisterMovement valida la entrada antes de abrir la transacción y agrega un movimiento
// de referencia ADJUSTMENT.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.MovementEntry, error) {
	if input.ItemID == "" || input.SiteID == "" || input.LocationID == "" {
		return nil, domain.Validationf("item, bodega y ubicación son obligatorios")
	}
	kind, err := entity.ParseMovementKind(strings.ToUpper(input.Type))
	if err != nil {
		return nil, domain.Validationf("tipo de movimiento inválido %q", input.Type)
	}
	qty := input.Quantity
	switch kind {
	case entity.MovementReceipt:
		if !qty.IsPositive() {
			return nil, domain.Validationf("el ingreso exige cantidad positiva")
		}
	case entity.MovementIssue:
		if !qty.IsPositive() {
			return nil, domain.Validationf("la salida exige cantidad positiva")
		}
		qty = qty.Neg()
	case entity.MovementCountAdjust:
		if qty.IsZero() {
			return nil, domain.Validationf("el ajuste exige cantidad distinta de cero")
		}
		if strings.TrimSpace(input.Reason) == "" {
			return nil, domain.Validationf("el ajuste exige motivo")
		}
	default:
		return nil, domain.Validationf("%s solo se registra desde su flujo", kind)
	}

	var out *entity.MovementEntry
	err = uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		cat := tx.Repos().Catalog
		if _, err := cat.GetItem(ctx, input.TenantID, input.ItemID); err != nil {
			return err
		}
		loc, err := cat.GetLocation(ctx, input.TenantID, input.LocationID)
		if err != nil {
			return err
		}
		if loc.SiteID != input.SiteID {
			return domain.Validationf("la ubicación %s no pertenece a la bodega", loc.Code)
		}
		locID := loc.ID
		out, err = tx.Append(ctx, &entity.MovementEntry{
			TenantID:      input.TenantID,
			ItemID:        input.ItemID,
			SiteID:        input.SiteID,
			LocationID:    &locID,
			Kind:          kind,
			Bucket:        entity.BucketOnHand,
			QuantityBase:  qty,
			ReferenceType: entity.RefAdjustment,
			ReferenceID:   uuid.New().String(),
			Reason:        strings.TrimSpace(input.Reason),
			CreatedBy:     input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("item_id", input.ItemID).Str("kind", kind.String()).Str("qty", qty.String()).Msg("movimiento manual")
	return out, nil
}
