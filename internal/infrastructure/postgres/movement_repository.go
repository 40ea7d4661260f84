package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx). Solo INSERT y SELECT.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `sequence, id, tenant_id, item_id, site_id, location_id, kind, bucket,
	quantity_base, reference_type, reference_id, reason, created_at, created_by`

// Create inserta el movimiento y asigna la secuencia generada.
func (r *MovementRepo) Create(ctx context.Context, m *entity.MovementEntry) error {
	query := `
		INSERT INTO movements (id, tenant_id, item_id, site_id, location_id, kind, bucket,
			quantity_base, reference_type, reference_id, reason, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.TenantID, m.ItemID, m.SiteID, m.LocationID, m.Kind.String(), m.Bucket.String(),
		m.QuantityBase, string(m.ReferenceType), m.ReferenceID, m.Reason, m.CreatedAt, m.CreatedBy,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByReference movimientos de un documento en orden de inserción.
func (r *MovementRepo) ListByReference(ctx context.Context, tenantID string, refType entity.ReferenceType, refID string) ([]*entity.MovementEntry, error) {
	query := `SELECT ` + movementColumns + `
		FROM movements WHERE tenant_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY sequence`
	rows, err := r.q.Query(ctx, query, tenantID, string(refType), refID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return collectMovements(rows)
}

// List consulta del libro, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementEntry, error) {
	where := []string{"tenant_id = $1", "item_id = $2"}
	args := []any{f.TenantID, f.ItemID}
	if f.SiteID != "" {
		args = append(args, f.SiteID)
		where = append(where, fmt.Sprintf("site_id = $%d", len(args)))
	}
	if f.LocationID != nil {
		args = append(args, *f.LocationID)
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)))
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM movements WHERE %s ORDER BY sequence DESC LIMIT $%d OFFSET $%d`,
		movementColumns, strings.Join(where, " AND "), len(args)-1, len(args))
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return collectMovements(rows)
}

// Stream recorre el libro del tenant en orden de secuencia sin cargarlo completo en memoria.
func (r *MovementRepo) Stream(ctx context.Context, tenantID string, fn func(*entity.MovementEntry) error) error {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE tenant_id = $1 ORDER BY sequence`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return fmt.Errorf("stream movements: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return rows.Err()
}

func collectMovements(rows pgx.Rows) ([]*entity.MovementEntry, error) {
	defer rows.Close()
	var out []*entity.MovementEntry
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.MovementEntry, error) {
	var (
		m            entity.MovementEntry
		kind, bucket string
		refType      string
	)
	err := row.Scan(
		&m.Sequence, &m.ID, &m.TenantID, &m.ItemID, &m.SiteID, &m.LocationID, &kind, &bucket,
		&m.QuantityBase, &refType, &m.ReferenceID, &m.Reason, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	if m.Kind, err = entity.ParseMovementKind(kind); err != nil {
		return nil, err
	}
	if m.Bucket, err = entity.ParseBucket(bucket); err != nil {
		return nil, err
	}
	m.ReferenceType = entity.ReferenceType(refType)
	return &m, nil
}
