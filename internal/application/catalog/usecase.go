package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

const defaultBaseUoM = "UND"

// UseCase alta y consulta de maestros: bodegas, ubicaciones e items.
// No genera movimientos; el stock solo entra por el libro.
type UseCase struct {
	ledger *ledger.Service
}

// NewUseCase construye el caso de uso.
func NewUseCase(l *ledger.Service) *UseCase {
	return &UseCase{ledger: l}
}

// CreateWarehouse crea una bodega. Código repetido: domain.ErrDuplicate.
func (uc *UseCase) CreateWarehouse(ctx context.Context, tenantID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return nil, domain.Validationf("código y nombre son obligatorios")
	}
	now := time.Now().UTC()
	w := &entity.Warehouse{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Code:      in.Code,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		return tx.Repos().Catalog.CreateWarehouse(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(w), nil
}

// GetWarehouse obtiene una bodega por ID.
func (uc *UseCase) GetWarehouse(ctx context.Context, tenantID, id string) (*dto.WarehouseResponse, error) {
	w, err := uc.ledger.Read().Catalog.GetWarehouse(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(w), nil
}

// ListWarehouses lista las bodegas del tenant.
func (uc *UseCase) ListWarehouses(ctx context.Context, tenantID string) (*dto.WarehouseListResponse, error) {
	list, err := uc.ledger.Read().Catalog.ListWarehouses(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{Items: items}, nil
}

// CreateLocation crea una ubicación en la bodega siteID.
func (uc *UseCase) CreateLocation(ctx context.Context, tenantID, siteID string, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return nil, domain.Validationf("código de ubicación obligatorio")
	}
	l := &entity.Location{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		SiteID:    siteID,
		Code:      in.Code,
		CreatedAt: time.Now().UTC(),
	}
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		if _, err := tx.Repos().Catalog.GetWarehouse(ctx, tenantID, siteID); err != nil {
			return err
		}
		return tx.Repos().Catalog.CreateLocation(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return toLocationResponse(l), nil
}

// ListLocations ubicaciones de una bodega, por código.
func (uc *UseCase) ListLocations(ctx context.Context, tenantID, siteID string) (*dto.LocationListResponse, error) {
	list, err := uc.ledger.Read().Catalog.ListLocations(ctx, tenantID, siteID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, *toLocationResponse(l))
	}
	return &dto.LocationListResponse{Items: items}, nil
}

// CreateItem crea un item. SKU repetido: domain.ErrDuplicate. Sin unidad base se asume UND.
func (uc *UseCase) CreateItem(ctx context.Context, tenantID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	if in.SKU == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.Validationf("sku y nombre son obligatorios")
	}
	if in.BaseUoM == "" {
		in.BaseUoM = defaultBaseUoM
	}
	now := time.Now().UTC()
	it := &entity.Item{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		SKU:        in.SKU,
		Name:       in.Name,
		BaseUoM:    in.BaseUoM,
		LotTracked: in.LotTracked,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := uc.ledger.Transact(ctx, func(tx *ledger.Tx) error {
		return tx.Repos().Catalog.CreateItem(ctx, it)
	})
	if err != nil {
		return nil, err
	}
	return toItemResponse(it), nil
}

// GetItem obtiene un item por ID.
func (uc *UseCase) GetItem(ctx context.Context, tenantID, id string) (*dto.ItemResponse, error) {
	it, err := uc.ledger.Read().Catalog.GetItem(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toItemResponse(it), nil
}

// ListItems lista items con paginación.
func (uc *UseCase) ListItems(ctx context.Context, tenantID string, page dto.PageRequest) (*dto.ItemListResponse, error) {
	page = page.Normalize(dto.DefaultPageLimit)
	list, err := uc.ledger.Read().Catalog.ListItems(ctx, tenantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *toItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  page.Echo(),
	}, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:        w.ID,
		TenantID:  w.TenantID,
		Code:      w.Code,
		Name:      w.Name,
		Address:   w.Address,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func toLocationResponse(l *entity.Location) *dto.LocationResponse {
	return &dto.LocationResponse{ID: l.ID, SiteID: l.SiteID, Code: l.Code, CreatedAt: l.CreatedAt}
}

func toItemResponse(it *entity.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		ID:         it.ID,
		SKU:        it.SKU,
		Name:       it.Name,
		BaseUoM:    it.BaseUoM,
		LotTracked: it.LotTracked,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}
