package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// CatalogRepository maestros (items, bodegas, ubicaciones). El núcleo solo los lee para validar;
// el alta la hace el caso de uso de catálogo. Create devuelve domain.ErrDuplicate si el código ya existe.
type CatalogRepository interface {
	CreateItem(ctx context.Context, item *entity.Item) error
	CreateWarehouse(ctx context.Context, w *entity.Warehouse) error
	CreateLocation(ctx context.Context, l *entity.Location) error
	ListItems(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Item, error)
	ListWarehouses(ctx context.Context, tenantID string) ([]*entity.Warehouse, error)
	ListLocations(ctx context.Context, tenantID, siteID string) ([]*entity.Location, error)
	GetItem(ctx context.Context, tenantID, id string) (*entity.Item, error)
	GetItemBySKU(ctx context.Context, tenantID, sku string) (*entity.Item, error)
	GetWarehouse(ctx context.Context, tenantID, id string) (*entity.Warehouse, error)
	GetLocation(ctx context.Context, tenantID, id string) (*entity.Location, error)
	GetLocationByCode(ctx context.Context, tenantID, siteID, code string) (*entity.Location, error)
}
