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

var _ repository.CycleCountRepository = (*CycleCountRepo)(nil)

// CycleCountRepo conteos cíclicos sobre PostgreSQL (usable con pool o tx).
type CycleCountRepo struct {
	q Querier
}

// NewCycleCountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCycleCountRepository(q Querier) *CycleCountRepo {
	return &CycleCountRepo{q: q}
}

// Create persiste el conteo y sus líneas.
func (r *CycleCountRepo) Create(ctx context.Context, c *entity.CycleCount) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO cycle_counts (id, tenant_id, site_id, status, created_at, completed_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.TenantID, c.SiteID, c.Status.String(), c.CreatedAt, c.CompletedAt, c.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert cycle count: %w", err)
	}
	for _, l := range c.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO cycle_count_lines (id, count_id, line_number, item_id, location_id,
				expected_qty_base, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, c.ID, l.LineNumber, l.ItemID, l.LocationID, l.ExpectedQtyBase, l.Status.String())
		if err != nil {
			return fmt.Errorf("insert cycle count line: %w", err)
		}
	}
	return nil
}

// Get obtiene el conteo con sus líneas.
func (r *CycleCountRepo) Get(ctx context.Context, tenantID, id string) (*entity.CycleCount, error) {
	return r.get(ctx, tenantID, id, "")
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE).
func (r *CycleCountRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.CycleCount, error) {
	return r.get(ctx, tenantID, id, " FOR UPDATE")
}

func (r *CycleCountRepo) get(ctx context.Context, tenantID, id, lock string) (*entity.CycleCount, error) {
	var (
		c      entity.CycleCount
		status string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, tenant_id, site_id, status, created_at, completed_at, created_by
		FROM cycle_counts WHERE tenant_id = $1 AND id = $2`+lock, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.SiteID, &status, &c.CreatedAt, &c.CompletedAt, &c.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: conteo %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get cycle count: %w", err)
	}
	if c.Status, err = entity.ParseCycleCountStatus(status); err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, count_id, line_number, item_id, location_id, expected_qty_base, counted_qty_base,
			variance_qty_base, status, adjusted, counted_by, counted_at, approved_by, approved_at
		FROM cycle_count_lines WHERE count_id = $1 ORDER BY line_number`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list cycle count lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l          entity.CycleCountLine
			lineStatus string
		)
		if err := rows.Scan(&l.ID, &l.CountID, &l.LineNumber, &l.ItemID, &l.LocationID, &l.ExpectedQtyBase,
			&l.CountedQtyBase, &l.VarianceQtyBase, &lineStatus, &l.Adjusted, &l.CountedBy, &l.CountedAt,
			&l.ApprovedBy, &l.ApprovedAt); err != nil {
			return nil, fmt.Errorf("scan cycle count line: %w", err)
		}
		if l.Status, err = entity.ParseCountLineStatus(lineStatus); err != nil {
			return nil, err
		}
		c.Lines = append(c.Lines, &l)
	}
	return &c, rows.Err()
}

// CountIDByLine resuelve el conteo dueño de la línea.
func (r *CycleCountRepo) CountIDByLine(ctx context.Context, tenantID, lineID string) (string, error) {
	var id string
	err := r.q.QueryRow(ctx, `
		SELECT c.id FROM cycle_count_lines l JOIN cycle_counts c ON c.id = l.count_id
		WHERE c.tenant_id = $1 AND l.id = $2`, tenantID, lineID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: línea de conteo %s", domain.ErrNotFound, lineID)
		}
		return "", fmt.Errorf("count by line: %w", err)
	}
	return id, nil
}

// Update guarda estado del conteo y de sus líneas. La cabecera va bloqueada por GetForUpdate.
func (r *CycleCountRepo) Update(ctx context.Context, c *entity.CycleCount) error {
	_, err := r.q.Exec(ctx, `UPDATE cycle_counts SET status = $2, completed_at = $3 WHERE id = $1`,
		c.ID, c.Status.String(), c.CompletedAt)
	if err != nil {
		return fmt.Errorf("update cycle count: %w", err)
	}
	for _, l := range c.Lines {
		_, err := r.q.Exec(ctx, `
			UPDATE cycle_count_lines SET counted_qty_base = $2, variance_qty_base = $3, status = $4,
				adjusted = $5, counted_by = $6, counted_at = $7, approved_by = $8, approved_at = $9
			WHERE id = $1`,
			l.ID, l.CountedQtyBase, l.VarianceQtyBase, l.Status.String(), l.Adjusted,
			l.CountedBy, l.CountedAt, l.ApprovedBy, l.ApprovedAt)
		if err != nil {
			return fmt.Errorf("update cycle count line: %w", err)
		}
	}
	return nil
}
