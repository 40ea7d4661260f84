package repository

import (
	"context"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// BalanceRepository puerto de la proyección de balances.
// Solo el libro (ledger.Tx.Append) y la reconstrucción escriben aquí.
type BalanceRepository interface {
	// Get lee el balance; nil si la clave nunca tuvo movimientos.
	Get(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error)
	// GetForUpdate bloquea la fila (creándola en cero si no existe) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error)
	// Save persiste el balance con chequeo optimista de versión; incrementa b.Version.
	// Un conflicto de versión devuelve domain.ErrConcurrentModification.
	Save(ctx context.Context, b *entity.Balance) error
	ListBySite(ctx context.Context, tenantID, itemID, siteID string) ([]*entity.Balance, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*entity.Balance, error)
	// Candidates ubicaciones del sitio con disponible > 0 para el item.
	Candidates(ctx context.Context, tenantID, itemID, siteID string) ([]entity.AllocationCandidate, error)
	// ReplaceAll borra la proyección del tenant y la reemplaza (reconstrucción desde el libro).
	ReplaceAll(ctx context.Context, tenantID string, balances []*entity.Balance) error
}
