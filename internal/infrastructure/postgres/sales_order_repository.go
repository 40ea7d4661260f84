package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.SalesOrderRepository = (*SalesOrderRepo)(nil)

// SalesOrderRepo órdenes de venta sobre PostgreSQL (usable con pool o tx).
type SalesOrderRepo struct {
	q Querier
}

// NewSalesOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSalesOrderRepository(q Querier) *SalesOrderRepo {
	return &SalesOrderRepo{q: q}
}

// Create persiste cabecera y líneas.
func (r *SalesOrderRepo) Create(ctx context.Context, o *entity.SalesOrder) error {
	o.Version = 1
	query := `
		INSERT INTO sales_orders (id, tenant_id, site_id, number, status, pick_task_id, cancel_reason,
			version, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, o.ID, o.TenantID, o.SiteID, o.Number, o.Status.String(),
		o.PickTaskID, o.CancelReason, o.Version, o.CreatedAt, o.UpdatedAt, o.CreatedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden %s duplicada", domain.ErrValidation, o.ID)
		}
		return fmt.Errorf("insert sales order: %w", err)
	}
	lineQuery := `
		INSERT INTO sales_order_lines (id, order_id, line_number, item_id, qty_ordered_base,
			qty_allocated_base, qty_picked_base, qty_shipped_base)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range o.Lines {
		_, err := r.q.Exec(ctx, lineQuery, l.ID, o.ID, l.LineNumber, l.ItemID, l.QtyOrderedBase,
			l.QtyAllocatedBase, l.QtyPickedBase, l.QtyShippedBase)
		if err != nil {
			return fmt.Errorf("insert sales order line: %w", err)
		}
	}
	return nil
}

// Get obtiene la orden con sus líneas.
func (r *SalesOrderRepo) Get(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, tenantID, id, "")
}

// GetForUpdate bloquea la cabecera de la orden (SELECT FOR UPDATE).
func (r *SalesOrderRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.SalesOrder, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *SalesOrderRepo) get(ctx context.Context, tenantID, id, lock string) (*entity.SalesOrder, error) {
	query := `
		SELECT id, tenant_id, site_id, number, status, pick_task_id, cancel_reason, version,
			created_at, updated_at, created_by
		FROM sales_orders WHERE tenant_id = $1 AND id = $2` + lock
	var (
		o      entity.SalesOrder
		status string
	)
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(&o.ID, &o.TenantID, &o.SiteID, &o.Number, &status,
		&o.PickTaskID, &o.CancelReason, &o.Version, &o.CreatedAt, &o.UpdatedAt, &o.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: orden %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get sales order: %w", err)
	}
	if o.Status, err = entity.ParseOrderStatus(status); err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, line_number, item_id, qty_ordered_base, qty_allocated_base,
			qty_picked_base, qty_shipped_base
		FROM sales_order_lines WHERE order_id = $1 ORDER BY line_number`, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list sales order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SalesOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.LineNumber, &l.ItemID, &l.QtyOrderedBase,
			&l.QtyAllocatedBase, &l.QtyPickedBase, &l.QtyShippedBase); err != nil {
			return nil, fmt.Errorf("scan sales order line: %w", err)
		}
		o.Lines = append(o.Lines, &l)
	}
	return &o, rows.Err()
}

// OrderIDByLine resuelve la orden dueña de la línea.
func (r *SalesOrderRepo) OrderIDByLine(ctx context.Context, tenantID, lineID string) (string, error) {
	var id string
	err := r.q.QueryRow(ctx, `
		SELECT o.id FROM sales_order_lines l JOIN sales_orders o ON o.id = l.order_id
		WHERE o.tenant_id = $1 AND l.id = $2`, tenantID, lineID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: línea %s", domain.ErrNotFound, lineID)
		}
		return "", fmt.Errorf("order by line: %w", err)
	}
	return id, nil
}

// Update guarda estado y cantidades con chequeo optimista de versión.
func (r *SalesOrderRepo) Update(ctx context.Context, o *entity.SalesOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE sales_orders SET status = $3, pick_task_id = $4, cancel_reason = $5,
			version = version + 1, updated_at = $6
		WHERE tenant_id = $1 AND id = $2 AND version = $7`,
		o.TenantID, o.ID, o.Status.String(), o.PickTaskID, o.CancelReason, o.UpdatedAt, o.Version)
	if err != nil {
		return fmt.Errorf("update sales order: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: orden %s", domain.ErrConcurrentModification, o.ID)
	}
	for _, l := range o.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE sales_order_lines SET qty_allocated_base = $2, qty_picked_base = $3, qty_shipped_base = $4
			WHERE id = $1`, l.ID, l.QtyAllocatedBase, l.QtyPickedBase, l.QtyShippedBase)
		if err != nil {
			return fmt.Errorf("update sales order line: %w", err)
		}
	}
	o.Version++
	return nil
}
