package entity

import "time"

// Item producto o SKU controlado por el libro. Las cantidades se guardan siempre en BaseUoM.
type Item struct {
	ID         string
	TenantID   string
	SKU        string // único por tenant
	Name       string
	BaseUoM    string
	LotTracked bool // habilita FIFO (ingreso más antiguo primero) al asignar
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
