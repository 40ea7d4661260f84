package dto

import "time"

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Code    string `json:"code" validate:"required,min=1,max=40"`
	Name    string `json:"name" validate:"required,min=1,max=200"`
	Address string `json:"address"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListResponse lista de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
}

// CreateLocationRequest entrada para crear una ubicación dentro de la bodega de la ruta.
type CreateLocationRequest struct {
	Code string `json:"code" validate:"required,min=1,max=40"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID        string    `json:"id"`
	SiteID    string    `json:"site_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationListResponse ubicaciones de una bodega.
type LocationListResponse struct {
	Items []LocationResponse `json:"items"`
}

// CreateItemRequest entrada para crear un item.
type CreateItemRequest struct {
	SKU        string `json:"sku" validate:"required"`
	Name       string `json:"name" validate:"required"`
	BaseUoM    string `json:"base_uom"`
	LotTracked bool   `json:"lot_tracked"`
}

// ItemResponse salida de un item.
type ItemResponse struct {
	ID         string    `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	BaseUoM    string    `json:"base_uom"`
	LotTracked bool      `json:"lot_tracked"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ItemListResponse lista paginada de items.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
