package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PickTaskCreator colaborador externo (WMS) que crea la tarea de picking de una orden.
type PickTaskCreator interface {
	CreatePickTask(ctx context.Context, order *entity.SalesOrder) (string, error)
}

// UseCase motor de asignación y ciclo de vida de la orden de venta.
// Nunca toca balances: todo pasa por el libro.
type UseCase struct {
	ledger *ledger.Service
	picks  PickTaskCreator
	log    zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(l *ledger.Service, picks PickTaskCreator, log zerolog.Logger) *UseCase {
	return &UseCase{
		ledger: l,
		picks:  picks,
		log:    log.With().Str("component", "allocation").Logger(),
	}
}

// CreateOrderInput entrada para crear una orden en DRAFT.
type CreateOrderInput struct {
	TenantID string
	UserID   string
	SiteID   string
	Number   string
	Lines    []CreateOrderLine
}

// CreateOrderLine línea solicitada.
type CreateOrderLine struct {
	ItemID     string
	QtyOrdered decimal.Decimal
}

// Shortfall porción no cubierta de una línea.
type Shortfall struct {
	LineID   string
	ShortQty decimal.Decimal
}

// Result resultado de Allocate.
type Result struct {
	FullyAllocated bool
	Shortfalls     []Shortfall
	Order          *entity.SalesOrder
}

// ShipLine cantidad a despachar de una línea.
type ShipLine struct {
	LineID   string
	Quantity decimal.Decimal
}

// CreateOrder valida y persiste la orden (sin efecto en el libro).
func (uc *UseCase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.SalesOrder, error) {
	if in.TenantID == "" || in.SiteID == "" || len(in.Lines) == 0 {
		return nil, domain.Validationf("sitio y al menos una línea son obligatorios")
	}
	for i, l := range in.Lines {
		if l.ItemID == "" || !l.QtyOrdered.IsPositive() {
			return nil, domain.Validationf("línea %d: item y cantidad positiva son obligatorios", i+1)
		}
	}
	var order *entity.SalesOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		if _, err := r.Catalog.GetWarehouse(ctx, in.TenantID, in.SiteID); err != nil {
			return err
		}
		now := tx.Now()
		order = &entity.SalesOrder{
			ID:        uuid.New().String(),
			TenantID:  in.TenantID,
			SiteID:    in.SiteID,
			Number:    in.Number,
			Status:    entity.OrderDraft,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: in.UserID,
		}
		if order.Number == "" {
			order.Number = fmt.Sprintf("SO-%d", now.UnixNano())
		}
		for i, l := range in.Lines {
			if _, err := r.Catalog.GetItem(ctx, in.TenantID, l.ItemID); err != nil {
				return err
			}
			order.Lines = append(order.Lines, &entity.SalesOrderLine{
				ID:               uuid.New().String(),
				OrderID:          order.ID,
				LineNumber:       i + 1,
				ItemID:           l.ItemID,
				QtyOrderedBase:   l.QtyOrdered,
				QtyAllocatedBase: decimal.Zero,
				QtyPickedBase:    decimal.Zero,
				QtyShippedBase:   decimal.Zero,
			})
		}
		return r.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder obtiene la orden con sus líneas.
func (uc *UseCase) GetOrder(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	return uc.ledger.Read().Orders.Get(ctx, tenantID, orderID)
}

// ConfirmOrder DRAFT -> CONFIRMED.
func (uc *UseCase) ConfirmOrder(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	return uc.transition(ctx, tenantID, orderID, entity.OrderConfirmed, nil)
}

// Allocate reserva stock para cada línea en orden de número de línea. Los faltantes no
// bloquean las demás líneas; la orden pasa a ALLOCATED solo si todas quedan cubiertas.
func (uc *UseCase) Allocate(ctx context.Context, tenantID, userID, orderID string) (*Result, error) {
	order, err := uc.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderConfirmed {
		return nil, domain.InvalidTransition("orden "+order.ID, order.Status, entity.OrderAllocated)
	}
	lines := append([]*entity.SalesOrderLine(nil), order.Lines...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })

	conflicted := make(map[string]bool)
	for _, line := range lines {
		if !line.Remaining().IsPositive() {
			continue
		}
		err := uc.allocateLine(ctx, tenantID, userID, orderID, line.ID)
		if errors.Is(err, domain.ErrConcurrentModification) {
			// Un reintento con el disponible recalculado; luego se reporta como faltante.
			err = uc.allocateLine(ctx, tenantID, userID, orderID, line.ID)
			if errors.Is(err, domain.ErrConcurrentModification) {
				uc.log.Warn().Str("order_id", orderID).Str("line_id", line.ID).Msg("conflicto persistente, línea reportada como faltante")
				conflicted[line.ID] = true
				continue
			}
		}
		if err != nil {
			return nil, err
		}
	}

	var res Result
	err = uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		o, err := tx.Repos().Orders.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		res = Result{Order: o, FullyAllocated: o.FullyAllocated()}
		sorted := append([]*entity.SalesOrderLine(nil), o.Lines...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].LineNumber < sorted[j].LineNumber })
		for _, l := range sorted {
			if l.Remaining().IsPositive() {
				res.Shortfalls = append(res.Shortfalls, Shortfall{LineID: l.ID, ShortQty: l.Remaining()})
			}
		}
		if !res.FullyAllocated || o.Status != entity.OrderConfirmed {
			return nil
		}
		if err := o.Transition(entity.OrderAllocated, tx.Now()); err != nil {
			return err
		}
		return tx.Repos().Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", orderID).Bool("fully_allocated", res.FullyAllocated).
		Int("shortfalls", len(res.Shortfalls)).Int("conflicts", len(conflicted)).Msg("asignación")
	return &res, nil
}

// allocateLine reserva lo pendiente de una línea en su propia transacción: bloquea las
// ubicaciones candidatas, recalcula el disponible y emite un ALLOCATE por ubicación.
func (uc *UseCase) allocateLine(ctx context.Context, tenantID, userID, orderID, lineID string) error {
	return uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		order, err := r.Orders.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderConfirmed {
			return domain.InvalidTransition("orden "+order.ID, order.Status, entity.OrderAllocated)
		}
		line := order.Line(lineID)
		if line == nil {
			return fmt.Errorf("%w: línea %s", domain.ErrNotFound, lineID)
		}
		remaining := line.Remaining()
		if !remaining.IsPositive() {
			return nil
		}
		item, err := r.Catalog.GetItem(ctx, tenantID, line.ItemID)
		if err != nil {
			return err
		}
		cands, err := r.Balances.Candidates(ctx, tenantID, line.ItemID, order.SiteID)
		if err != nil {
			return err
		}
		keys := make([]entity.BalanceKey, len(cands))
		for i, c := range cands {
			keys[i] = entity.BalanceKey{TenantID: tenantID, ItemID: line.ItemID, SiteID: order.SiteID, LocationID: c.LocationID}
		}
		if err := tx.LockBalances(ctx, keys...); err != nil {
			return err
		}
		for i := range cands {
			b, err := tx.Balance(ctx, keys[i])
			if err != nil {
				return err
			}
			cands[i].Available = b.Available()
		}
		plan, _ := inventory.PlanReservations(inventory.RankCandidates(cands, remaining, item.LotTracked), remaining)
		if len(plan) == 0 {
			return nil
		}
		for _, p := range plan {
			loc := p.LocationID
			if _, err := tx.Append(ctx, &entity.MovementEntry{
				TenantID:      tenantID,
				ItemID:        line.ItemID,
				SiteID:        order.SiteID,
				LocationID:    &loc,
				Kind:          entity.MovementAllocate,
				Bucket:        entity.BucketReserved,
				QuantityBase:  p.Quantity,
				ReferenceType: entity.RefSalesOrderLine,
				ReferenceID:   line.ID,
				CreatedBy:     userID,
			}); err != nil {
				return err
			}
			line.QtyAllocatedBase = line.QtyAllocatedBase.Add(p.Quantity)
		}
		order.UpdatedAt = tx.Now()
		return r.Orders.Update(ctx, order)
	})
}

// Deallocate revierte exactamente las reservas de la línea con DEALLOCATE (nunca edita).
// Si la orden estaba ALLOCATED vuelve a CONFIRMED para replanificar.
func (uc *UseCase) Deallocate(ctx context.Context, tenantID, userID, lineID string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		orderID, err := r.Orders.OrderIDByLine(ctx, tenantID, lineID)
		if err != nil {
			return err
		}
		order, err = r.Orders.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderConfirmed && order.Status != entity.OrderAllocated {
			return domain.InvalidTransition("orden "+order.ID, order.Status, entity.OrderConfirmed)
		}
		line := order.Line(lineID)
		if _, err := releaseLine(ctx, tx, order, line, userID, "replanificación"); err != nil {
			return err
		}
		if order.Status == entity.OrderAllocated {
			if err := order.Transition(entity.OrderConfirmed, tx.Now()); err != nil {
				return err
			}
		}
		order.UpdatedAt = tx.Now()
		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// StartPicking ALLOCATED -> PICKING; exige que el WMS cree la tarea de picking.
func (uc *UseCase) StartPicking(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	order, err := uc.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(entity.OrderPicking) {
		return nil, domain.InvalidTransition("orden "+order.ID, order.Status, entity.OrderPicking)
	}
	if uc.picks == nil {
		return nil, fmt.Errorf("creador de tareas de picking no configurado")
	}
	// Llamada externa fuera de la transacción.
	taskID, err := uc.picks.CreatePickTask(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("crear tarea de picking: %w", err)
	}
	if taskID == "" {
		return nil, domain.Validationf("tarea de picking sin identificador")
	}
	return uc.transition(ctx, tenantID, orderID, entity.OrderPicking, func(o *entity.SalesOrder) {
		o.PickTaskID = taskID
	})
}

// MarkPacked PICKING -> PACKED; lo pickeado es lo reservado.
func (uc *UseCase) MarkPacked(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	return uc.transition(ctx, tenantID, orderID, entity.OrderPacked, func(o *entity.SalesOrder) {
		for _, l := range o.Lines {
			l.QtyPickedBase = l.QtyAllocatedBase
		}
	})
}

// DeliverOrder SHIPPED -> DELIVERED.
func (uc *UseCase) DeliverOrder(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error) {
	return uc.transition(ctx, tenantID, orderID, entity.OrderDelivered, nil)
}

// ShipOrderLines convierte reservas en salidas: por cada ubicación reservada emite
// DEALLOCATE + ISSUE en la misma transacción (Reserved y OnHand bajan juntos).
// La orden pasa a SHIPPED cuando cada línea despachó exactamente lo reservado.
func (uc *UseCase) ShipOrderLines(ctx context.Context, tenantID, userID, orderID string, lines []ShipLine) (*entity.SalesOrder, error) {
	if len(lines) == 0 {
		return nil, domain.Validationf("sin líneas a despachar")
	}
	for _, sl := range lines {
		if sl.LineID == "" || !sl.Quantity.IsPositive() {
			return nil, domain.Validationf("línea %q: cantidad positiva obligatoria", sl.LineID)
		}
	}
	var order *entity.SalesOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		var err error
		order, err = r.Orders.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order.Status != entity.OrderPacked {
			return domain.InvalidTransition("orden "+order.ID, order.Status, entity.OrderShipped)
		}
		for _, sl := range lines {
			line := order.Line(sl.LineID)
			if line == nil {
				return fmt.Errorf("%w: línea %s", domain.ErrNotFound, sl.LineID)
			}
			if err := uc.shipLine(ctx, tx, order, line, sl.Quantity, userID); err != nil {
				return err
			}
		}
		if order.FullyShipped() {
			if err := order.Transition(entity.OrderShipped, tx.Now()); err != nil {
				return err
			}
		}
		order.UpdatedAt = tx.Now()
		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *UseCase) shipLine(ctx context.Context, tx *ledger.Tx, order *entity.SalesOrder, line *entity.SalesOrderLine, qty decimal.Decimal, userID string) error {
	pending := line.QtyAllocatedBase.Sub(line.QtyShippedBase)
	if qty.GreaterThan(pending) {
		return fmt.Errorf("%w: línea %s pide %s, reservado pendiente %s",
			domain.ErrInsufficientReservation, line.ID, qty, pending)
	}
	reservations, err := netReservations(ctx, tx, order.TenantID, line.ID)
	if err != nil {
		return err
	}
	left := qty
	for _, res := range reservations {
		if !left.IsPositive() {
			break
		}
		take := decimal.Min(res.Quantity, left)
		loc := res.LocationID
		base := entity.MovementEntry{
			TenantID:      order.TenantID,
			ItemID:        line.ItemID,
			SiteID:        order.SiteID,
			LocationID:    &loc,
			ReferenceType: entity.RefSalesOrderLine,
			ReferenceID:   line.ID,
			CreatedBy:     userID,
		}
		release := base
		release.Kind, release.Bucket, release.QuantityBase = entity.MovementDeallocate, entity.BucketReserved, take.Neg()
		issue := base
		issue.Kind, issue.Bucket, issue.QuantityBase = entity.MovementIssue, entity.BucketOnHand, take.Neg()
		if _, err := tx.Append(ctx, &release); err != nil {
			return err
		}
		if _, err := tx.Append(ctx, &issue); err != nil {
			return err
		}
		left = left.Sub(take)
	}
	if left.IsPositive() {
		return fmt.Errorf("%w: línea %s sin reservas para %s", domain.ErrInsufficientReservation, line.ID, left)
	}
	line.QtyShippedBase = line.QtyShippedBase.Add(qty)
	if line.QtyPickedBase.LessThan(line.QtyShippedBase) {
		line.QtyPickedBase = line.QtyShippedBase
	}
	return nil
}

// CancelOrder cancela una orden antes del despacho liberando todas sus reservas.
func (uc *UseCase) CancelOrder(ctx context.Context, tenantID, userID, orderID, reason string) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		r := tx.Repos()
		var err error
		order, err = r.Orders.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if !order.Status.PreShipment() {
			return domain.InvalidTransition("orden "+order.ID, order.Status, entity.OrderCancelled)
		}
		for _, line := range order.Lines {
			if _, err := releaseLine(ctx, tx, order, line, userID, "cancelación"); err != nil {
				return err
			}
		}
		if err := order.Transition(entity.OrderCancelled, tx.Now()); err != nil {
			return err
		}
		order.CancelReason = reason
		return r.Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *UseCase) transition(ctx context.Context, tenantID, orderID string, to entity.OrderStatus, mutate func(*entity.SalesOrder)) (*entity.SalesOrder, error) {
	var order *entity.SalesOrder
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		var err error
		order, err = tx.Repos().Orders.GetForUpdate(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if to == entity.OrderConfirmed && len(order.Lines) == 0 {
			return domain.Validationf("orden sin líneas")
		}
		if err := order.Transition(to, tx.Now()); err != nil {
			return err
		}
		if mutate != nil {
			mutate(order)
		}
		return tx.Repos().Orders.Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
