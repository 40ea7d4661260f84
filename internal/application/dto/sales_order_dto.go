package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSalesOrderRequest entrada para crear una orden en DRAFT.
type CreateSalesOrderRequest struct {
	SiteID string                  `json:"site_id"`
	Number string                  `json:"number"`
	Lines  []SalesOrderLineRequest `json:"lines"`
}

// SalesOrderLineRequest línea pedida en unidad base.
type SalesOrderLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// SalesOrderResponse orden con sus líneas.
type SalesOrderResponse struct {
	ID           string                   `json:"id"`
	SiteID       string                   `json:"site_id"`
	Number       string                   `json:"number"`
	Status       string                   `json:"status"`
	PickTaskID   string                   `json:"pick_task_id,omitempty"`
	CancelReason string                   `json:"cancel_reason,omitempty"`
	Version      int64                    `json:"version"`
	Lines        []SalesOrderLineResponse `json:"lines"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// SalesOrderLineResponse cantidades de la línea.
type SalesOrderLineResponse struct {
	ID           string          `json:"id"`
	LineNumber   int             `json:"line_number"`
	ItemID       string          `json:"item_id"`
	QtyOrdered   decimal.Decimal `json:"qty_ordered"`
	QtyAllocated decimal.Decimal `json:"qty_allocated"`
	QtyPicked    decimal.Decimal `json:"qty_picked"`
	QtyShipped   decimal.Decimal `json:"qty_shipped"`
}

// AllocationResponse resultado de asignar: faltantes por línea cuando no se cubre todo.
type AllocationResponse struct {
	FullyAllocated bool                `json:"fully_allocated"`
	Shortfalls     []ShortfallResponse `json:"shortfalls"`
	Order          SalesOrderResponse  `json:"order"`
}

// ShortfallResponse porción no cubierta de una línea.
type ShortfallResponse struct {
	LineID   string          `json:"line_id"`
	ShortQty decimal.Decimal `json:"short_qty"`
}

// ShipOrderRequest cantidades a despachar por línea.
type ShipOrderRequest struct {
	Lines []ShipOrderLineRequest `json:"lines"`
}

// ShipOrderLineRequest cantidad a despachar de una línea.
type ShipOrderLineRequest struct {
	LineID   string          `json:"line_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ReasonRequest motivo de cancelación o baja.
type ReasonRequest struct {
	Reason string `json:"reason"`
}
