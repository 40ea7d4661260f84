package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
)

// Message cuerpo JSON publicado por cada lote confirmado en el libro.
type Message struct {
	Type       string           `json:"type"`
	TenantID   string           `json:"tenant_id"`
	OccurredAt time.Time        `json:"occurred_at"`
	Movements  []MovementRecord `json:"movements"`
}

// MovementRecord movimiento serializado.
type MovementRecord struct {
	ID            string          `json:"id"`
	Sequence      int64           `json:"sequence"`
	ItemID        string          `json:"item_id"`
	SiteID        string          `json:"site_id"`
	LocationID    *string         `json:"location_id,omitempty"`
	Kind          string          `json:"kind"`
	Bucket        string          `json:"bucket"`
	QuantityBase  decimal.Decimal `json:"quantity_base"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
	Reason        string          `json:"reason,omitempty"`
	CreatedBy     string          `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewMessage convierte el evento del libro en su representación publicable.
func NewMessage(evt ledger.Event) Message {
	msg := Message{
		Type:       evt.Type,
		TenantID:   evt.TenantID,
		OccurredAt: evt.OccurredAt,
		Movements:  make([]MovementRecord, 0, len(evt.Movements)),
	}
	for _, m := range evt.Movements {
		msg.Movements = append(msg.Movements, MovementRecord{
			ID:            m.ID,
			Sequence:      m.Sequence,
			ItemID:        m.ItemID,
			SiteID:        m.SiteID,
			LocationID:    m.LocationID,
			Kind:          m.Kind.String(),
			Bucket:        m.Bucket.String(),
			QuantityBase:  m.QuantityBase,
			ReferenceType: string(m.ReferenceType),
			ReferenceID:   m.ReferenceID,
			Reason:        m.Reason,
			CreatedBy:     m.CreatedBy,
			CreatedAt:     m.CreatedAt,
		})
	}
	return msg
}

// Encode serializa el mensaje.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
