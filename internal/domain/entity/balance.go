package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifica una fila de la proyección. LocationID vacío = bucket en tránsito del sitio.
type BalanceKey struct {
	TenantID   string
	ItemID     string
	SiteID     string
	LocationID string
}

// LocationPtr devuelve la ubicación como puntero (nil para el bucket en tránsito).
func (k BalanceKey) LocationPtr() *string {
	if k.LocationID == "" {
		return nil
	}
	loc := k.LocationID
	return &loc
}

// Less orden total de claves; se usa para bloquear filas siempre en el mismo orden.
func (k BalanceKey) Less(o BalanceKey) bool {
	if k.TenantID != o.TenantID {
		return k.TenantID < o.TenantID
	}
	if k.ItemID != o.ItemID {
		return k.ItemID < o.ItemID
	}
	if k.SiteID != o.SiteID {
		return k.SiteID < o.SiteID
	}
	return k.LocationID < o.LocationID
}

// Balance proyección derivada del libro (caché, no fuente de verdad).
// Se crea perezosamente con base cero en el primer movimiento de la clave.
type Balance struct {
	Key              BalanceKey
	OnHandBase       decimal.Decimal
	ReservedBase     decimal.Decimal
	InTransitOutBase decimal.Decimal
	InTransitInBase  decimal.Decimal
	Version          int64
	UpdatedAt        time.Time
}

// NewBalance balance en cero para la clave.
func NewBalance(key BalanceKey) *Balance {
	return &Balance{
		Key:              key,
		OnHandBase:       decimal.Zero,
		ReservedBase:     decimal.Zero,
		InTransitOutBase: decimal.Zero,
		InTransitInBase:  decimal.Zero,
	}
}

// Available cantidad no reservada (OnHand - Reserved).
func (b *Balance) Available() decimal.Decimal {
	return b.OnHandBase.Sub(b.ReservedBase)
}

// Add suma otro balance (agregación por sitio).
func (b *Balance) Add(o *Balance) {
	b.OnHandBase = b.OnHandBase.Add(o.OnHandBase)
	b.ReservedBase = b.ReservedBase.Add(o.ReservedBase)
	b.InTransitOutBase = b.InTransitOutBase.Add(o.InTransitOutBase)
	b.InTransitInBase = b.InTransitInBase.Add(o.InTransitInBase)
	if o.UpdatedAt.After(b.UpdatedAt) {
		b.UpdatedAt = o.UpdatedAt
	}
}

// Equal compara las cuatro columnas (ignora versión y fecha).
func (b *Balance) Equal(o *Balance) bool {
	return b.OnHandBase.Equal(o.OnHandBase) &&
		b.ReservedBase.Equal(o.ReservedBase) &&
		b.InTransitOutBase.Equal(o.InTransitOutBase) &&
		b.InTransitInBase.Equal(o.InTransitInBase)
}

// Clone copia profunda del balance.
func (b *Balance) Clone() *Balance {
	c := *b
	return &c
}

// AllocationCandidate ubicación con stock disponible para reservar.
type AllocationCandidate struct {
	LocationID      string
	LocationCode    string
	Available       decimal.Decimal
	OldestReceiptAt *time.Time // primer ingreso a la ubicación; nil si no aplica
}
