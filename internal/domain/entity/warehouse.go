package entity

import "time"

// Warehouse bodega o sitio (site) donde se almacena inventario. Las transferencias
// se hacen entre bodegas y los balances se agregan por bodega.
type Warehouse struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location ubicación física (bin, estantería) dentro de una bodega.
type Location struct {
	ID        string
	TenantID  string
	SiteID    string
	Code      string // orden ascendente = desempate determinístico en asignación
	CreatedAt time.Time
}
