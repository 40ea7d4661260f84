package cyclecount

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// UseCase conciliación de conteos cíclicos contra el libro.
type UseCase struct {
	ledger *ledger.Service
	log    zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(l *ledger.Service, log zerolog.Logger) *UseCase {
	return &UseCase{ledger: l, log: log.With().Str("component", "cyclecount").Logger()}
}

// ScheduleInput entrada para programar un conteo.
type ScheduleInput struct {
	TenantID string
	UserID   string
	SiteID   string
	Lines    []ScheduleLine
}

// ScheduleLine item a contar en una ubicación.
type ScheduleLine struct {
	ItemID     string
	LocationID string
}

// Schedule crea el conteo tomando la foto de OnHand de cada (item, ubicación).
func (uc *UseCase) Schedule(ctx context.Context, in ScheduleInput) (*entity.CycleCount, error) {
	if in.SiteID == "" || len(in.Lines) == 0 {
		return nil, domain.Validationf("sitio y al menos una línea son obligatorios")
	}
	for i, l := range in.Lines {
		if l.ItemID == "" || l.LocationID == "" {
			return nil, domain.Validationf("línea %d: item y ubicación son obligatorios", i+1)
		}
	}
	var count *entity.CycleCount
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		if _, err := r.Catalog.GetWarehouse(ctx, in.TenantID, in.SiteID); err != nil {
			return err
		}
		now := tx.Now()
		count = &entity.CycleCount{
			ID:        uuid.New().String(),
			TenantID:  in.TenantID,
			SiteID:    in.SiteID,
			Status:    entity.CycleCountOpen,
			CreatedAt: now,
			CreatedBy: in.UserID,
		}
		for i, l := range in.Lines {
			if _, err := r.Catalog.GetItem(ctx, in.TenantID, l.ItemID); err != nil {
				return err
			}
			loc, err := r.Catalog.GetLocation(ctx, in.TenantID, l.LocationID)
			if err != nil {
				return err
			}
			if loc.SiteID != in.SiteID {
				return domain.Validationf("línea %d: la ubicación %s no pertenece a la bodega", i+1, loc.Code)
			}
			expected := decimal.Zero
			b, err := r.Balances.Get(ctx, entity.BalanceKey{TenantID: in.TenantID, ItemID: l.ItemID, SiteID: in.SiteID, LocationID: l.LocationID})
			if err != nil {
				return err
			}
			if b != nil {
				expected = b.OnHandBase
			}
			count.Lines = append(count.Lines, &entity.CycleCountLine{
				ID:              uuid.New().String(),
				CountID:         count.ID,
				LineNumber:      i + 1,
				ItemID:          l.ItemID,
				LocationID:      l.LocationID,
				ExpectedQtyBase: expected,
				Status:          entity.CountLinePending,
			})
		}
		return r.CycleCounts.Create(ctx, count)
	})
	if err != nil {
		return nil, err
	}
	return count, nil
}

// Get obtiene el conteo con sus líneas.
func (uc *UseCase) Get(ctx context.Context, tenantID, id string) (*entity.CycleCount, error) {
	return uc.ledger.Read().CycleCounts.Get(ctx, tenantID, id)
}

// RecordCount registra la cantidad física observada; no escribe en el libro.
// El conteo pasa a COMPLETED cuando ninguna línea queda PENDING.
func (uc *UseCase) RecordCount(ctx context.Context, tenantID, userID, lineID string, counted decimal.Decimal) (*entity.CycleCountLine, error) {
	if counted.IsNegative() {
		return nil, domain.Validationf("la cantidad contada no puede ser negativa")
	}
	var line *entity.CycleCountLine
	err := uc.withLine(ctx, tenantID, lineID, func(tx *ledger.Tx, count *entity.CycleCount, l *entity.CycleCountLine) error {
		if err := l.RecordCount(counted, userID, tx.Now()); err != nil {
			return err
		}
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// ApproveVariance cierra la varianza de una línea contada. Con adjust emite un único
// COUNT_ADJUST igual a la varianza; sin adjust la varianza queda solo como registro.
// Aprobar dos veces devuelve ErrInvalidStateTransition y nunca ajusta de nuevo.
func (uc *UseCase) ApproveVariance(ctx context.Context, tenantID, userID, lineID string, adjust bool) (*entity.CycleCountLine, error) {
	var line *entity.CycleCountLine
	err := uc.withLine(ctx, tenantID, lineID, func(tx *ledger.Tx, count *entity.CycleCount, l *entity.CycleCountLine) error {
		if !l.Status.CanTransitionTo(entity.CountLineVarianceApproved) {
			return domain.InvalidTransition("línea de conteo "+l.ID, l.Status, entity.CountLineVarianceApproved)
		}
		if !l.HasVariance() {
			return fmt.Errorf("%w: línea de conteo %s sin varianza, se cerró al contar",
				domain.ErrInvalidStateTransition, l.ID)
		}
		if adjust {
			loc := l.LocationID
			_, err := tx.Append(ctx, &entity.MovementEntry{
				TenantID:      count.TenantID,
				ItemID:        l.ItemID,
				SiteID:        count.SiteID,
				LocationID:    &loc,
				Kind:          entity.MovementCountAdjust,
				Bucket:        entity.BucketOnHand,
				QuantityBase:  *l.VarianceQtyBase,
				ReferenceType: entity.RefCycleCountLine,
				ReferenceID:   l.ID,
				Reason:        "conteo cíclico",
				CreatedBy:     userID,
			})
			if err != nil {
				return err
			}
			l.Adjusted = true
		}
		now := tx.Now()
		l.Status = entity.CountLineVarianceApproved
		l.ApprovedBy = userID
		l.ApprovedAt = &now
		line = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("line_id", lineID).Bool("adjust", adjust).Str("variance", line.VarianceQtyBase.String()).Msg("varianza aprobada")
	return line, nil
}

func (uc *UseCase) withLine(ctx context.Context, tenantID, lineID string, fn func(tx *ledger.Tx, count *entity.CycleCount, l *entity.CycleCountLine) error) error {
	return uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		countID, err := r.CycleCounts.CountIDByLine(ctx, tenantID, lineID)
		if err != nil {
			return err
		}
		count, err := r.CycleCounts.GetForUpdate(ctx, tenantID, countID)
		if err != nil {
			return err
		}
		l := count.Line(lineID)
		if err := fn(tx, count, l); err != nil {
			return err
		}
		if count.Status == entity.CycleCountOpen && count.AllCounted() {
			now := tx.Now()
			count.Status = entity.CycleCountCompleted
			count.CompletedAt = &now
		}
		return r.CycleCounts.Update(ctx, count)
	})
}
