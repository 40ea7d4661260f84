package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// MovementFilter filtro de consulta del libro. LocationID nil = cualquier ubicación.
type MovementFilter struct {
	TenantID   string
	ItemID     string
	SiteID     string
	LocationID *string
	Limit      int
	Offset     int
}

// MovementRepository puerto del libro de movimientos: solo inserción y lectura.
// No existe Update ni Delete.
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.MovementEntry) error
	ListByReference(ctx context.Context, tenantID string, refType entity.ReferenceType, refID string) ([]*entity.MovementEntry, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementEntry, error)
	// Stream recorre todo el libro del tenant en orden de secuencia (replay).
	Stream(ctx context.Context, tenantID string, fn func(*entity.MovementEntry) error) error
}
