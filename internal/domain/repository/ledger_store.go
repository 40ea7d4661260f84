package repository

import "context"

// Repos repositorios atados a una misma transacción (o al pool si se leen fuera de ella).
type Repos struct {
	Movements   MovementRepository
	Balances    BalanceRepository
	Orders      SalesOrderRepository
	Transfers   TransferRepository
	CycleCounts CycleCountRepository
	Catalog     CatalogRepository
	Users       UserRepository
}

// LedgerStore almacenamiento inyectado del núcleo de inventario.
// Run ejecuta fn en una transacción: commit si fn devuelve nil, rollback en otro caso.
// Las esperas de bloqueo tienen timeout acotado y se reportan como domain.ErrConcurrentModification.
type LedgerStore interface {
	Run(ctx context.Context, fn func(r Repos) error) error
	// Read repositorios de solo lectura fuera de transacción.
	Read() Repos
}
