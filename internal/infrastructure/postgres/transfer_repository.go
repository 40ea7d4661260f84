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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo órdenes de transferencia sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste cabecera y líneas.
func (r *TransferRepo) Create(ctx context.Context, t *entity.TransferOrder) error {
	t.Version = 1
	_, err := r.q.Exec(ctx, `
		INSERT INTO transfer_orders (id, tenant_id, source_warehouse_id, destination_warehouse_id, status,
			carrier, tracking_number, cancel_reason, version, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.TenantID, t.SourceWarehouseID, t.DestinationWarehouseID, t.Status.String(),
		t.Carrier, t.TrackingNumber, t.CancelReason, t.Version, t.CreatedAt, t.UpdatedAt, t.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	for _, l := range t.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO transfer_order_lines (id, transfer_id, line_number, item_id, quantity_requested,
				quantity_shipped, quantity_received, quantity_damaged, quantity_returned, ship_location_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			l.ID, t.ID, l.LineNumber, l.ItemID, l.QuantityRequested, l.QuantityShipped,
			l.QuantityReceived, l.QuantityDamaged, l.QuantityReturned, nullString(l.ShipLocationID))
		if err != nil {
			return fmt.Errorf("insert transfer line: %w", err)
		}
	}
	return nil
}

// Get obtiene la transferencia con sus líneas.
func (r *TransferRepo) Get(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error) {
	return r.get(ctx, tenantID, id, "")
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE).
func (r *TransferRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.TransferOrder, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *TransferRepo) get(ctx context.Context, tenantID, id, lock string) (*entity.TransferOrder, error) {
	var (
		t      entity.TransferOrder
		status string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, tenant_id, source_warehouse_id, destination_warehouse_id, status, carrier,
			tracking_number, cancel_reason, version, created_at, updated_at, shipped_at, received_at, created_by
		FROM transfer_orders WHERE tenant_id = $1 AND id = $2`+lock, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.SourceWarehouseID, &t.DestinationWarehouseID, &status, &t.Carrier,
		&t.TrackingNumber, &t.CancelReason, &t.Version, &t.CreatedAt, &t.UpdatedAt, &t.ShippedAt,
		&t.ReceivedAt, &t.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transferencia %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	if t.Status, err = entity.ParseTransferStatus(status); err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, transfer_id, line_number, item_id, quantity_requested, quantity_shipped,
			quantity_received, quantity_damaged, quantity_returned, ship_location_id
		FROM transfer_order_lines WHERE transfer_id = $1 ORDER BY line_number`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l   entity.TransferOrderLine
			loc *string
		)
		if err := rows.Scan(&l.ID, &l.TransferID, &l.LineNumber, &l.ItemID, &l.QuantityRequested,
			&l.QuantityShipped, &l.QuantityReceived, &l.QuantityDamaged, &l.QuantityReturned, &loc); err != nil {
			return nil, fmt.Errorf("scan transfer line: %w", err)
		}
		l.ShipLocationID = derefString(loc)
		t.Lines = append(t.Lines, &l)
	}
	return &t, rows.Err()
}

// Update guarda estado, metadatos de envío y cantidades con chequeo de versión.
func (r *TransferRepo) Update(ctx context.Context, t *entity.TransferOrder) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE transfer_orders SET status = $3, carrier = $4, tracking_number = $5, cancel_reason = $6,
			shipped_at = $7, received_at = $8, updated_at = $9, version = version + 1
		WHERE tenant_id = $1 AND id = $2 AND version = $10`,
		t.TenantID, t.ID, t.Status.String(), t.Carrier, t.TrackingNumber, t.CancelReason,
		t.ShippedAt, t.ReceivedAt, t.UpdatedAt, t.Version)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: transferencia %s", domain.ErrConcurrentModification, t.ID)
	}
	for _, l := range t.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE transfer_order_lines SET quantity_shipped = $2, quantity_received = $3,
				quantity_damaged = $4, quantity_returned = $5, ship_location_id = $6
			WHERE id = $1`,
			l.ID, l.QuantityShipped, l.QuantityReceived, l.QuantityDamaged, l.QuantityReturned,
			nullString(l.ShipLocationID))
		if err != nil {
			return fmt.Errorf("update transfer line: %w", err)
		}
	}
	t.Version++
	return nil
}
