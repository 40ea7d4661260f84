// Package bootstrap arma las piezas compartidas por la API y la CLI a partir de la configuración.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

// Store backend del libro ya abierto. Pool es nil con el driver memory.
type Store struct {
	repository.LedgerStore
	Pool *pgxpool.Pool
}

// Close libera el pool si existe.
func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// OpenStore abre el backend indicado por STORE_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		log.Warn().Msg("store en memoria: los datos se pierden al reiniciar")
		return &Store{LedgerStore: memory.NewStore(memory.WithLockTimeout(cfg.Ledger.LockTimeout))}, nil
	case "postgres", "":
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		return &Store{LedgerStore: postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout), Pool: pool}, nil
	default:
		return nil, fmt.Errorf("bootstrap: driver de store desconocido %q", cfg.Store.Driver)
	}
}

// BackorderPolicy traduce LEDGER_BACKORDER_KINDS a la política del proyector.
func BackorderPolicy(kinds []string) (inventory.BackorderPolicy, error) {
	policy := inventory.BackorderPolicy{AllowNegative: make(map[entity.MovementKind]bool, len(kinds))}
	for _, k := range kinds {
		kind, err := entity.ParseMovementKind(k)
		if err != nil {
			return policy, fmt.Errorf("bootstrap: LEDGER_BACKORDER_KINDS: %w", err)
		}
		policy.AllowNegative[kind] = true
	}
	return policy, nil
}

// NewLedger construye el servicio del libro con la política de backorder de la configuración.
func NewLedger(store repository.LedgerStore, cfg *config.Config, log zerolog.Logger, opts ...ledger.Option) (*ledger.Service, error) {
	policy, err := BackorderPolicy(cfg.Ledger.BackorderKinds)
	if err != nil {
		return nil, err
	}
	base := []ledger.Option{
		ledger.WithBackorderPolicy(policy),
		ledger.WithLogger(log),
	}
	return ledger.NewService(store, append(base, opts...)...), nil
}
