package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerStore = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con repositorios atados a ella.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout acota cada espera de bloqueo
// de fila; al vencer se devuelve domain.ErrConcurrentModification.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	if lockTimeout <= 0 {
		lockTimeout = 2 * time.Second
	}
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, fija lock_timeout, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET no admite parámetros; el valor es un entero controlado por configuración.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	if err := fn(reposFor(tx)); err != nil {
		return mapError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Read repositorios sobre el pool, fuera de transacción.
func (r *TxRunner) Read() repository.Repos {
	return reposFor(r.pool)
}

func reposFor(q Querier) repository.Repos {
	return repository.Repos{
		Movements:   NewMovementRepository(q),
		Balances:    NewBalanceRepository(q),
		Orders:      NewSalesOrderRepository(q),
		Transfers:   NewTransferRepository(q),
		CycleCounts: NewCycleCountRepository(q),
		Catalog:     NewCatalogRepository(q),
		Users:       NewUserRepository(q),
	}
}
