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

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo items, bodegas y ubicaciones sobre PostgreSQL.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

const itemColumns = `id, tenant_id, sku, name, base_uom, lot_tracked, created_at, updated_at`

// GetItem obtiene un item por ID.
func (r *CatalogRepo) GetItem(ctx context.Context, tenantID, id string) (*entity.Item, error) {
	return r.item(ctx, `SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetItemBySKU obtiene un item por SKU.
func (r *CatalogRepo) GetItemBySKU(ctx context.Context, tenantID, sku string) (*entity.Item, error) {
	return r.item(ctx, `SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 AND sku = $2`, tenantID, sku)
}

func (r *CatalogRepo) item(ctx context.Context, query, tenantID, key string) (*entity.Item, error) {
	var it entity.Item
	err := r.q.QueryRow(ctx, query, tenantID, key).Scan(
		&it.ID, &it.TenantID, &it.SKU, &it.Name, &it.BaseUoM, &it.LotTracked, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: item %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &it, nil
}

// GetWarehouse obtiene una bodega por ID.
func (r *CatalogRepo) GetWarehouse(ctx context.Context, tenantID, id string) (*entity.Warehouse, error) {
	query := `
		SELECT id, tenant_id, code, name, address, created_at, updated_at
		FROM warehouses WHERE tenant_id = $1 AND id = $2`
	var w entity.Warehouse
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&w.ID, &w.TenantID, &w.Code, &w.Name, &w.Address, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: bodega %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return &w, nil
}

// GetLocation obtiene una ubicación por ID.
func (r *CatalogRepo) GetLocation(ctx context.Context, tenantID, id string) (*entity.Location, error) {
	return r.location(ctx, `
		SELECT id, tenant_id, site_id, code, created_at
		FROM locations WHERE tenant_id = $1 AND id = $2`, id, tenantID, id)
}

// GetLocationByCode obtiene una ubicación por código dentro de la bodega.
func (r *CatalogRepo) GetLocationByCode(ctx context.Context, tenantID, siteID, code string) (*entity.Location, error) {
	return r.location(ctx, `
		SELECT id, tenant_id, site_id, code, created_at
		FROM locations WHERE tenant_id = $1 AND site_id = $2 AND code = $3`, code, tenantID, siteID, code)
}

func (r *CatalogRepo) location(ctx context.Context, query, label string, args ...any) (*entity.Location, error) {
	var l entity.Location
	err := r.q.QueryRow(ctx, query, args...).Scan(&l.ID, &l.TenantID, &l.SiteID, &l.Code, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ubicación %s", domain.ErrNotFound, label)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// CreateItem inserta un item. SKU repetido en el tenant: domain.ErrDuplicate.
func (r *CatalogRepo) CreateItem(ctx context.Context, it *entity.Item) error {
	query := `
		INSERT INTO items (id, tenant_id, sku, name, base_uom, lot_tracked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, it.ID, it.TenantID, it.SKU, it.Name, it.BaseUoM, it.LotTracked, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, it.SKU)
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// CreateWarehouse inserta una bodega.
func (r *CatalogRepo) CreateWarehouse(ctx context.Context, w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, tenant_id, code, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, w.ID, w.TenantID, w.Code, w.Name, w.Address, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bodega %s", domain.ErrDuplicate, w.Code)
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// CreateLocation inserta una ubicación.
func (r *CatalogRepo) CreateLocation(ctx context.Context, l *entity.Location) error {
	query := `
		INSERT INTO locations (id, tenant_id, site_id, code, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, l.ID, l.TenantID, l.SiteID, l.Code, l.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: ubicación %s", domain.ErrDuplicate, l.Code)
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// ListItems lista items por SKU con paginación.
func (r *CatalogRepo) ListItems(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Item, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE tenant_id = $1 ORDER BY sku LIMIT $2 OFFSET $3`,
		tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	var list []*entity.Item
	for rows.Next() {
		var it entity.Item
		if err := rows.Scan(&it.ID, &it.TenantID, &it.SKU, &it.Name, &it.BaseUoM, &it.LotTracked, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// ListWarehouses lista las bodegas del tenant por código.
func (r *CatalogRepo) ListWarehouses(ctx context.Context, tenantID string) ([]*entity.Warehouse, error) {
	query := `
		SELECT id, tenant_id, code, name, address, created_at, updated_at
		FROM warehouses WHERE tenant_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		var w entity.Warehouse
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Code, &w.Name, &w.Address, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

// ListLocations lista las ubicaciones de una bodega por código.
func (r *CatalogRepo) ListLocations(ctx context.Context, tenantID, siteID string) ([]*entity.Location, error) {
	query := `
		SELECT id, tenant_id, site_id, code, created_at
		FROM locations WHERE tenant_id = $1 AND site_id = $2 ORDER BY code`
	rows, err := r.q.Query(ctx, query, tenantID, siteID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.TenantID, &l.SiteID, &l.Code, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
