package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleCycleCountRequest items y ubicaciones a contar en una bodega.
type ScheduleCycleCountRequest struct {
	SiteID string                  `json:"site_id"`
	Lines  []CycleCountLineRequest `json:"lines"`
}

// CycleCountLineRequest item a contar en una ubicación.
type CycleCountLineRequest struct {
	ItemID     string `json:"item_id"`
	LocationID string `json:"location_id"`
}

// RecordCountRequest cantidad contada en unidad base.
type RecordCountRequest struct {
	Counted decimal.Decimal `json:"counted"`
}

// ApproveVarianceRequest adjust=true emite el ajuste al libro.
type ApproveVarianceRequest struct {
	Adjust bool `json:"adjust"`
}

// CycleCountResponse conteo con sus líneas.
type CycleCountResponse struct {
	ID          string                   `json:"id"`
	SiteID      string                   `json:"site_id"`
	Status      string                   `json:"status"`
	Lines       []CycleCountLineResponse `json:"lines"`
	CreatedAt   time.Time                `json:"created_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
}

// CycleCountLineResponse estado de una línea.
type CycleCountLineResponse struct {
	ID         string           `json:"id"`
	LineNumber int              `json:"line_number"`
	ItemID     string           `json:"item_id"`
	LocationID string           `json:"location_id"`
	Expected   decimal.Decimal  `json:"expected"`
	Counted    *decimal.Decimal `json:"counted,omitempty"`
	Variance   *decimal.Decimal `json:"variance,omitempty"`
	Status     string           `json:"status"`
	Adjusted   bool             `json:"adjusted"`
	CountedBy  string           `json:"counted_by,omitempty"`
	ApprovedBy string           `json:"approved_by,omitempty"`
}
