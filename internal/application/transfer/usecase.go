package transfer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UseCase ciclo de vida de las transferencias entre bodegas.
type UseCase struct {
	ledger *ledger.Service
	log    zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(l *ledger.Service, log zerolog.Logger) *UseCase {
	return &UseCase{ledger: l, log: log.With().Str("component", "transfer").Logger()}
}

// CreateInput entrada de createTransferOrder.
type CreateInput struct {
	TenantID               string
	UserID                 string
	SourceWarehouseID      string
	DestinationWarehouseID string
	Lines                  []CreateLine
}

// CreateLine línea solicitada.
type CreateLine struct {
	ItemID   string
	Quantity decimal.Decimal
}

// ShipInput despacho completo de la transferencia.
type ShipInput struct {
	Carrier        string
	TrackingNumber string
	Lines          []ShipLine
}

// ShipLine cantidad despachada de una línea desde una ubicación del origen.
type ShipLine struct {
	LineID           string
	SourceLocationID string
	Quantity         decimal.Decimal
}

// ReceiveLine recepción (buena y dañada) de una línea en una ubicación del destino.
type ReceiveLine struct {
	LineID                string
	DestinationLocationID string
	Received              decimal.Decimal
	Damaged               decimal.Decimal
}

// Create valida origen distinto de destino y líneas con cantidad positiva.
// No tiene efecto en el libro: una transferencia en DRAFT no reserva nada.
func (uc *UseCase) Create(ctx context.Context, in CreateInput) (*entity.TransferOrder, error) {
	if in.SourceWarehouseID == "" || in.DestinationWarehouseID == "" {
		return nil, domain.Validationf("bodega origen y destino son obligatorias")
	}
	if in.SourceWarehouseID == in.DestinationWarehouseID {
		return nil, domain.Validationf("la bodega origen y destino deben ser distintas")
	}
	if len(in.Lines) == 0 {
		return nil, domain.Validationf("la transferencia requiere al menos una línea")
	}
	for i, l := range in.Lines {
		if l.ItemID == "" || !l.Quantity.IsPositive() {
			return nil, domain.Validationf("línea %d: item y cantidad positiva son obligatorios", i+1)
		}
	}
	var t *entity.TransferOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		cat := tx.Repos().Catalog
		if _, err := cat.GetWarehouse(ctx, in.TenantID, in.SourceWarehouseID); err != nil {
			return err
		}
		if _, err := cat.GetWarehouse(ctx, in.TenantID, in.DestinationWarehouseID); err != nil {
			return err
		}
		now := tx.Now()
		t = &entity.TransferOrder{
			ID:                     uuid.New().String(),
			TenantID:               in.TenantID,
			SourceWarehouseID:      in.SourceWarehouseID,
			DestinationWarehouseID: in.DestinationWarehouseID,
			Status:                 entity.TransferDraft,
			CreatedAt:              now,
			UpdatedAt:              now,
			CreatedBy:              in.UserID,
		}
		for i, l := range in.Lines {
			if _, err := cat.GetItem(ctx, in.TenantID, l.ItemID); err != nil {
				return err
			}
			t.Lines = append(t.Lines, &entity.TransferOrderLine{
				ID:                uuid.New().String(),
				TransferID:        t.ID,
				LineNumber:        i + 1,
				ItemID:            l.ItemID,
				QuantityRequested: l.Quantity,
				QuantityShipped:   decimal.Zero,
				QuantityReceived:  decimal.Zero,
				QuantityDamaged:   decimal.Zero,
				QuantityReturned:  decimal.Zero,
			})
		}
		return tx.Repos().Transfers.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get obtiene la transferencia.
func (uc *UseCase) Get(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error) {
	return uc.ledger.Read().Transfers.Get(ctx, tenantID, id)
}

// Approve DRAFT -> APPROVED, sin efecto en el libro.
func (uc *UseCase) Approve(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error) {
	var t *entity.TransferOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		var err error
		t, err = tx.Repos().Transfers.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := t.Transition(entity.TransferApproved, tx.Now()); err != nil {
			return err
		}
		return tx.Repos().Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Ship despacha todas las líneas en una sola transacción: si alguna línea no tiene stock
// suficiente en el origen no queda ningún movimiento escrito.
func (uc *UseCase) Ship(ctx context.Context, tenantID, userID, id string, in ShipInput) (*entity.TransferOrder, error) {
	if len(in.Lines) == 0 {
		return nil, domain.Validationf("sin líneas a despachar")
	}
	seen := make(map[string]bool, len(in.Lines))
	for _, sl := range in.Lines {
		if sl.LineID == "" || sl.SourceLocationID == "" || !sl.Quantity.IsPositive() {
			return nil, domain.Validationf("línea %q: ubicación origen y cantidad positiva son obligatorias", sl.LineID)
		}
		if seen[sl.LineID] {
			return nil, domain.Validationf("línea %s repetida", sl.LineID)
		}
		seen[sl.LineID] = true
	}
	var t *entity.TransferOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		var err error
		t, err = r.Transfers.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if t.Status != entity.TransferApproved {
			return domain.InvalidTransition("transferencia "+t.ID, t.Status, entity.TransferShipped)
		}
		lines := append([]ShipLine(nil), in.Lines...)
		sort.Slice(lines, func(i, j int) bool { return lines[i].LineID < lines[j].LineID })
		for _, sl := range lines {
			line := t.Line(sl.LineID)
			if line == nil {
				return fmt.Errorf("%w: línea %s", domain.ErrNotFound, sl.LineID)
			}
			if sl.Quantity.GreaterThan(line.QuantityRequested) {
				return domain.Validationf("línea %d: despachado %s supera lo solicitado %s",
					line.LineNumber, sl.Quantity, line.QuantityRequested)
			}
			if err := uc.checkLocation(ctx, tx, tenantID, sl.SourceLocationID, t.SourceWarehouseID); err != nil {
				return err
			}
			if err := uc.shipLine(ctx, tx, t, line, sl, userID); err != nil {
				return err
			}
		}
		now := tx.Now()
		if err := t.Transition(entity.TransferShipped, now); err != nil {
			return err
		}
		t.Carrier = in.Carrier
		t.TrackingNumber = in.TrackingNumber
		t.ShippedAt = &now
		return r.Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("transfer_id", id).Str("tracking", in.TrackingNumber).Msg("transferencia despachada")
	return t, nil
}

func (uc *UseCase) shipLine(ctx context.Context, tx *ledger.Tx, t *entity.TransferOrder, line *entity.TransferOrderLine, sl ShipLine, userID string) error {
	src := sl.SourceLocationID
	entries := []*entity.MovementEntry{
		uc.entry(t, line, t.SourceWarehouseID, &src, entity.MovementTransferShip, entity.BucketOnHand, sl.Quantity.Neg(), userID, ""),
		uc.entry(t, line, t.SourceWarehouseID, &src, entity.MovementTransferShip, entity.BucketInTransitOut, sl.Quantity, userID, ""),
		uc.entry(t, line, t.DestinationWarehouseID, nil, entity.MovementTransferShip, entity.BucketInTransitIn, sl.Quantity, userID, ""),
	}
	for _, m := range entries {
		if _, err := tx.Append(ctx, m); err != nil {
			return err
		}
	}
	line.QuantityShipped = sl.Quantity
	line.ShipLocationID = src
	return nil
}

// Receive registra recepciones parciales o totales. Lo dañado sale del tránsito sin
// entrar al stock del destino. La transferencia pasa a RECEIVED cuando todo lo
// despachado quedó recibido o dañado.
func (uc *UseCase) Receive(ctx context.Context, tenantID, userID, id string, lines []ReceiveLine) (*entity.TransferOrder, error) {
	if len(lines) == 0 {
		return nil, domain.Validationf("sin líneas a recibir")
	}
	for _, rl := range lines {
		if rl.LineID == "" || rl.Received.IsNegative() || rl.Damaged.IsNegative() {
			return nil, domain.Validationf("línea %q: cantidades no pueden ser negativas", rl.LineID)
		}
		if rl.Received.Add(rl.Damaged).IsZero() {
			return nil, domain.Validationf("línea %s: nada que recibir", rl.LineID)
		}
		if rl.Received.IsPositive() && rl.DestinationLocationID == "" {
			return nil, domain.Validationf("línea %s: ubicación destino obligatoria", rl.LineID)
		}
	}
	var t *entity.TransferOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		var err error
		t, err = r.Transfers.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if t.Status != entity.TransferShipped {
			return domain.InvalidTransition("transferencia "+t.ID, t.Status, entity.TransferReceived)
		}
		for _, rl := range lines {
			line := t.Line(rl.LineID)
			if line == nil {
				return fmt.Errorf("%w: línea %s", domain.ErrNotFound, rl.LineID)
			}
			total := rl.Received.Add(rl.Damaged)
			if total.GreaterThan(line.Outstanding()) {
				return domain.Validationf("línea %d: recibido+dañado %s supera lo pendiente en tránsito %s",
					line.LineNumber, total, line.Outstanding())
			}
			if rl.Received.IsPositive() {
				if err := uc.checkLocation(ctx, tx, tenantID, rl.DestinationLocationID, t.DestinationWarehouseID); err != nil {
					return err
				}
				if err := uc.receiveLine(ctx, tx, t, line, rl.DestinationLocationID, rl.Received, userID); err != nil {
					return err
				}
			}
			if rl.Damaged.IsPositive() {
				if err := uc.damageLine(ctx, tx, t, line, rl.Damaged, userID, "dañado en tránsito"); err != nil {
					return err
				}
			}
		}
		if t.FullyAccounted() {
			now := tx.Now()
			if err := t.Transition(entity.TransferReceived, now); err != nil {
				return err
			}
			t.ReceivedAt = &now
		}
		t.UpdatedAt = tx.Now()
		return r.Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (uc *UseCase) receiveLine(ctx context.Context, tx *ledger.Tx, t *entity.TransferOrder, line *entity.TransferOrderLine, destLocation string, qty decimal.Decimal, userID string) error {
	dst, src := destLocation, line.ShipLocationID
	entries := []*entity.MovementEntry{
		uc.entry(t, line, t.DestinationWarehouseID, &dst, entity.MovementTransferReceive, entity.BucketOnHand, qty, userID, ""),
		uc.entry(t, line, t.SourceWarehouseID, &src, entity.MovementTransferReceive, entity.BucketInTransitOut, qty.Neg(), userID, ""),
		uc.entry(t, line, t.DestinationWarehouseID, nil, entity.MovementTransferReceive, entity.BucketInTransitIn, qty.Neg(), userID, ""),
	}
	for _, m := range entries {
		if _, err := tx.Append(ctx, m); err != nil {
			return err
		}
	}
	line.QuantityReceived = line.QuantityReceived.Add(qty)
	return nil
}

func (uc *UseCase) damageLine(ctx context.Context, tx *ledger.Tx, t *entity.TransferOrder, line *entity.TransferOrderLine, qty decimal.Decimal, userID, reason string) error {
	src := line.ShipLocationID
	entries := []*entity.MovementEntry{
		uc.entry(t, line, t.SourceWarehouseID, &src, entity.MovementTransferDamage, entity.BucketInTransitOut, qty.Neg(), userID, reason),
		uc.entry(t, line, t.DestinationWarehouseID, nil, entity.MovementTransferDamage, entity.BucketInTransitIn, qty.Neg(), userID, reason),
	}
	for _, m := range entries {
		if _, err := tx.Append(ctx, m); err != nil {
			return err
		}
	}
	line.QuantityDamaged = line.QuantityDamaged.Add(qty)
	return nil
}

// Cancel cancela en DRAFT/APPROVED sin movimientos. En SHIPPED exige motivo y devuelve lo
// pendiente en tránsito al stock de la ubicación origen.
func (uc *UseCase) Cancel(ctx context.Context, tenantID, userID, id, reason string) (*entity.TransferOrder, error) {
	reason = strings.TrimSpace(reason)
	var t *entity.TransferOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		var err error
		t, err = r.Transfers.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if !t.Status.CanTransitionTo(entity.TransferCancelled) {
			return domain.InvalidTransition("transferencia "+t.ID, t.Status, entity.TransferCancelled)
		}
		if t.Status == entity.TransferShipped {
			if reason == "" {
				return domain.Validationf("cancelar una transferencia despachada exige motivo")
			}
			for _, line := range t.Lines {
				o := line.Outstanding()
				if !o.IsPositive() {
					continue
				}
				src := line.ShipLocationID
				entries := []*entity.MovementEntry{
					uc.entry(t, line, t.SourceWarehouseID, &src, entity.MovementTransferReceive, entity.BucketOnHand, o, userID, reason),
					uc.entry(t, line, t.SourceWarehouseID, &src, entity.MovementTransferReceive, entity.BucketInTransitOut, o.Neg(), userID, reason),
					uc.entry(t, line, t.DestinationWarehouseID, nil, entity.MovementTransferReceive, entity.BucketInTransitIn, o.Neg(), userID, reason),
				}
				for _, m := range entries {
					if _, err := tx.Append(ctx, m); err != nil {
						return err
					}
				}
				line.QuantityReturned = line.QuantityReturned.Add(o)
			}
		}
		if err := t.Transition(entity.TransferCancelled, tx.Now()); err != nil {
			return err
		}
		t.CancelReason = reason
		return r.Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("transfer_id", id).Str("reason", reason).Msg("transferencia cancelada")
	return t, nil
}

// WriteOff da de baja como merma el residuo en tránsito de una transferencia despachada
// y la cierra como RECEIVED.
func (uc *UseCase) WriteOff(ctx context.Context, tenantID, userID, id, reason string) (*entity.TransferOrder, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.Validationf("la baja en tránsito exige motivo")
	}
	var t *entity.TransferOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		var err error
		t, err = r.Transfers.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if t.Status != entity.TransferShipped {
			return domain.InvalidTransition("transferencia "+t.ID, t.Status, entity.TransferReceived)
		}
		for _, line := range t.Lines {
			if o := line.Outstanding(); o.IsPositive() {
				if err := uc.damageLine(ctx, tx, t, line, o, userID, reason); err != nil {
					return err
				}
			}
		}
		now := tx.Now()
		if err := t.Transition(entity.TransferReceived, now); err != nil {
			return err
		}
		t.ReceivedAt = &now
		return r.Transfers.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Warn().Str("transfer_id", id).Str("reason", reason).Msg("residuo en tránsito dado de baja")
	return t, nil
}

func (uc *UseCase) checkLocation(ctx context.Context, tx *ledger.Tx, tenantID, locationID, siteID string) error {
	loc, err := tx.Repos().Catalog.GetLocation(ctx, tenantID, locationID)
	if err != nil {
		return err
	}
	if loc.SiteID != siteID {
		return domain.Validationf("la ubicación %s no pertenece a la bodega %s", loc.Code, siteID)
	}
	return nil
}

func (uc *UseCase) entry(t *entity.TransferOrder, line *entity.TransferOrderLine, siteID string, locationID *string,
	kind entity.MovementKind, bucket entity.Bucket, qty decimal.Decimal, userID, reason string) *entity.MovementEntry {
	return &entity.MovementEntry{
		TenantID:      t.TenantID,
		ItemID:        line.ItemID,
		SiteID:        siteID,
		LocationID:    locationID,
		Kind:          kind,
		Bucket:        bucket,
		QuantityBase:  qty,
		ReferenceType: entity.RefTransferOrderLine,
		ReferenceID:   line.ID,
		Reason:        reason,
		CreatedBy:     userID,
	}
}
