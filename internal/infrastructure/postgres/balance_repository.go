package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo proyección de balances sobre PostgreSQL (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

const balanceColumns = `tenant_id, item_id, site_id, location_id, on_hand_base, reserved_base,
	in_transit_out_base, in_transit_in_base, version, updated_at`

// keyMatch la ubicación NULL es el bucket en tránsito del sitio.
const keyMatch = `tenant_id = $1 AND item_id = $2 AND site_id = $3 AND location_id IS NOT DISTINCT FROM $4::uuid`

// Get lee el balance; nil si la clave no existe.
func (r *BalanceRepo) Get(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE ` + keyMatch
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.TenantID, key.ItemID, key.SiteID, key.LocationPtr()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	return b, nil
}

// GetForUpdate crea la fila en cero si no existe y la bloquea (SELECT FOR UPDATE).
func (r *BalanceRepo) GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	insert := `
		INSERT INTO balances (tenant_id, item_id, site_id, location_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT balances_key DO NOTHING`
	if _, err := r.q.Exec(ctx, insert, key.TenantID, key.ItemID, key.SiteID, key.LocationPtr()); err != nil {
		return nil, fmt.Errorf("ensure balance: %w", err)
	}
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE ` + keyMatch + ` FOR UPDATE`
	b, err := scanBalance(r.q.QueryRow(ctx, query, key.TenantID, key.ItemID, key.SiteID, key.LocationPtr()))
	if err != nil {
		return nil, fmt.Errorf("get balance for update: %w", err)
	}
	return b, nil
}

// Save actualiza las cuatro columnas si la versión no cambió desde la lectura.
func (r *BalanceRepo) Save(ctx context.Context, b *entity.Balance) error {
	query := `
		UPDATE balances SET on_hand_base = $5, reserved_base = $6, in_transit_out_base = $7,
			in_transit_in_base = $8, version = version + 1, updated_at = $9
		WHERE ` + keyMatch + ` AND version = $10`
	updatedAt := b.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	k := b.Key
	cmd, err := r.q.Exec(ctx, query, k.TenantID, k.ItemID, k.SiteID, k.LocationPtr(),
		b.OnHandBase, b.ReservedBase, b.InTransitOutBase, b.InTransitInBase, updatedAt, b.Version)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: balance %s/%s/%s", domain.ErrConcurrentModification, k.ItemID, k.SiteID, k.LocationID)
	}
	b.Version++
	return nil
}

// ListBySite filas del item en el sitio, incluida la de tránsito.
func (r *BalanceRepo) ListBySite(ctx context.Context, tenantID, itemID, siteID string) ([]*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances
		WHERE tenant_id = $1 AND item_id = $2 AND site_id = $3
		ORDER BY location_id NULLS FIRST`
	rows, err := r.q.Query(ctx, query, tenantID, itemID, siteID)
	if err != nil {
		return nil, fmt.Errorf("list balances by site: %w", err)
	}
	return collectBalances(rows)
}

// ListByTenant toda la proyección del tenant (verificación).
func (r *BalanceRepo) ListByTenant(ctx context.Context, tenantID string) ([]*entity.Balance, error) {
	query := `SELECT ` + balanceColumns + ` FROM balances WHERE tenant_id = $1
		ORDER BY item_id, site_id, location_id NULLS FIRST`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list balances by tenant: %w", err)
	}
	return collectBalances(rows)
}

// Candidates ubicaciones con disponible. Para FIFO toma el primer ingreso posterior al
// último momento en que la ubicación quedó sin stock físico.
func (r *BalanceRepo) Candidates(ctx context.Context, tenantID, itemID, siteID string) ([]entity.AllocationCandidate, error) {
	query := `
		WITH on_hand AS (
			SELECT m.location_id, m.sequence, m.kind, m.quantity_base, m.created_at,
				sum(m.quantity_base) OVER (PARTITION BY m.location_id ORDER BY m.sequence) AS running
			FROM movements m
			WHERE m.tenant_id = $1 AND m.item_id = $2 AND m.site_id = $3
			  AND m.location_id IS NOT NULL AND m.bucket = 'ON_HAND'
		), last_empty AS (
			SELECT location_id, max(sequence) AS sequence
			FROM on_hand WHERE running <= 0
			GROUP BY location_id
		), oldest AS (
			SELECT o.location_id, min(o.created_at) AS received_at
			FROM on_hand o
			LEFT JOIN last_empty e ON e.location_id = o.location_id
			WHERE o.kind IN ('RECEIPT', 'TRANSFER_RECEIVE') AND o.quantity_base > 0
			  AND o.sequence > COALESCE(e.sequence, 0)
			GROUP BY o.location_id
		)
		SELECT b.location_id, l.code, b.on_hand_base - b.reserved_base, oldest.received_at
		FROM balances b
		JOIN locations l ON l.id = b.location_id
		LEFT JOIN oldest ON oldest.location_id = b.location_id
		WHERE b.tenant_id = $1 AND b.item_id = $2 AND b.site_id = $3
		  AND b.location_id IS NOT NULL AND b.on_hand_base - b.reserved_base > 0
		ORDER BY l.code`
	rows, err := r.q.Query(ctx, query, tenantID, itemID, siteID)
	if err != nil {
		return nil, fmt.Errorf("allocation candidates: %w", err)
	}
	defer rows.Close()
	var out []entity.AllocationCandidate
	for rows.Next() {
		var c entity.AllocationCandidate
		if err := rows.Scan(&c.LocationID, &c.LocationCode, &c.Available, &c.OldestReceiptAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceAll borra la proyección del tenant y la carga con COPY.
func (r *BalanceRepo) ReplaceAll(ctx context.Context, tenantID string, balances []*entity.Balance) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM balances WHERE tenant_id = $1`, tenantID); err != nil {
		return fmt.Errorf("delete balances: %w", err)
	}
	rows := make([][]any, 0, len(balances))
	for _, b := range balances {
		k := b.Key
		updatedAt := b.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		rows = append(rows, []any{k.TenantID, k.ItemID, k.SiteID, k.LocationPtr(),
			b.OnHandBase, b.ReservedBase, b.InTransitOutBase, b.InTransitInBase, int64(1), updatedAt})
	}
	_, err := r.q.CopyFrom(ctx, pgx.Identifier{"balances"},
		[]string{"tenant_id", "item_id", "site_id", "location_id", "on_hand_base", "reserved_base",
			"in_transit_out_base", "in_transit_in_base", "version", "updated_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy balances: %w", err)
	}
	return nil
}

func collectBalances(rows pgx.Rows) ([]*entity.Balance, error) {
	defer rows.Close()
	var out []*entity.Balance
	for rows.Next() {
		b, err := scanBalance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBalance(row pgx.Row) (*entity.Balance, error) {
	var (
		b   entity.Balance
		loc *string
	)
	err := row.Scan(&b.Key.TenantID, &b.Key.ItemID, &b.Key.SiteID, &loc,
		&b.OnHandBase, &b.ReservedBase, &b.InTransitOutBase, &b.InTransitInBase, &b.Version, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Key.LocationID = derefString(loc)
	return &b, nil
}
