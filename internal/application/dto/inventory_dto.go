package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// type: RECEIPT | ISSUE (cantidad positiva) | COUNT_ADJUST (cantidad firmada, exige reason).
type RegisterMovementRequest struct {
	ItemID     string          `json:"item_id"`
	SiteID     string          `json:"site_id"`
	LocationID string          `json:"location_id"`
	Type       string          `json:"type"`
	Quantity   decimal.Decimal `json:"quantity"`
	Reason     string          `json:"reason,omitempty"`
}

// MovementResponse un asiento del libro.
type MovementResponse struct {
	ID            string          `json:"id"`
	Sequence      int64           `json:"sequence"`
	ItemID        string          `json:"item_id"`
	SiteID        string          `json:"site_id"`
	LocationID    *string         `json:"location_id"`
	Kind          string          `json:"kind"`
	Bucket        string          `json:"bucket"`
	QuantityBase  decimal.Decimal `json:"quantity_base"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Reason        string          `json:"reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// MovementListResponse página del libro (más recientes primero).
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceResponse proyección de una clave o agregado de bodega (location_id vacío).
type BalanceResponse struct {
	ItemID       string          `json:"item_id"`
	SiteID       string          `json:"site_id"`
	LocationID   string          `json:"location_id,omitempty"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
	Available    decimal.Decimal `json:"available"`
	InTransitOut decimal.Decimal `json:"in_transit_out"`
	InTransitIn  decimal.Decimal `json:"in_transit_in"`
	Version      int64           `json:"version,omitempty"`
	UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
}

// DriftResponse diferencia entre la proyección almacenada y la reproducida desde el libro.
type DriftResponse struct {
	ItemID     string           `json:"item_id"`
	SiteID     string           `json:"site_id"`
	LocationID string           `json:"location_id,omitempty"`
	Stored     *BalanceResponse `json:"stored"`
	Replayed   *BalanceResponse `json:"replayed"`
}

// VerifyResponse resultado de verificar la proyección de un tenant.
type VerifyResponse struct {
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}

// RebuildResponse balances reescritos al reconstruir.
type RebuildResponse struct {
	Balances int `json:"balances"`
}
