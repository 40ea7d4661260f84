package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateTransferRequest entrada para crear una transferencia entre bodegas.
type CreateTransferRequest struct {
	SourceWarehouseID      string                `json:"source_warehouse_id"`
	DestinationWarehouseID string                `json:"destination_warehouse_id"`
	Lines                  []TransferLineRequest `json:"lines"`
}

// TransferLineRequest línea solicitada.
type TransferLineRequest struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ShipTransferRequest despacho: todas las líneas o ninguna.
type ShipTransferRequest struct {
	Carrier        string                    `json:"carrier"`
	TrackingNumber string                    `json:"tracking_number"`
	Lines          []ShipTransferLineRequest `json:"lines"`
}

// ShipTransferLineRequest cantidad despachada desde una ubicación del origen.
type ShipTransferLineRequest struct {
	LineID           string          `json:"line_id"`
	SourceLocationID string          `json:"source_location_id"`
	Quantity         decimal.Decimal `json:"quantity"`
}

// ReceiveTransferRequest recepción parcial o total.
type ReceiveTransferRequest struct {
	Lines []ReceiveTransferLineRequest `json:"lines"`
}

// ReceiveTransferLineRequest cantidades buenas y dañadas de una línea.
type ReceiveTransferLineRequest struct {
	LineID                string          `json:"line_id"`
	DestinationLocationID string          `json:"destination_location_id"`
	Received              decimal.Decimal `json:"received"`
	Damaged               decimal.Decimal `json:"damaged"`
}

// TransferResponse transferencia con sus líneas.
type TransferResponse struct {
	ID                     string                 `json:"id"`
	SourceWarehouseID      string                 `json:"source_warehouse_id"`
	DestinationWarehouseID string                 `json:"destination_warehouse_id"`
	Status                 string                 `json:"status"`
	Carrier                string                 `json:"carrier,omitempty"`
	TrackingNumber         string                 `json:"tracking_number,omitempty"`
	CancelReason           string                 `json:"cancel_reason,omitempty"`
	Outstanding            decimal.Decimal        `json:"outstanding"`
	Lines                  []TransferLineResponse `json:"lines"`
	CreatedAt              time.Time              `json:"created_at"`
	ShippedAt              *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt             *time.Time             `json:"received_at,omitempty"`
}

// TransferLineResponse cantidades de la línea.
type TransferLineResponse struct {
	ID                string          `json:"id"`
	LineNumber        int             `json:"line_number"`
	ItemID            string          `json:"item_id"`
	QuantityRequested decimal.Decimal `json:"quantity_requested"`
	QuantityShipped   decimal.Decimal `json:"quantity_shipped"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityDamaged   decimal.Decimal `json:"quantity_damaged"`
	QuantityReturned  decimal.Decimal `json:"quantity_returned"`
	ShipLocationID    string          `json:"ship_location_id,omitempty"`
}
