// Package memory implementa repository.LedgerStore en memoria con transacciones
// serializadas y copy-on-write. Se usa en pruebas de los flujos del núcleo.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

var _ repository.LedgerStore = (*Store)(nil)

var errReadOnly = errors.New("memory: repositorio de solo lectura")

// Store guarda el estado confirmado como snapshot inmutable; cada transacción trabaja
// sobre una copia y la publica al confirmar.
type Store struct {
	txSem       chan struct{}
	mu          sync.RWMutex
	committed   *state
	lockTimeout time.Duration
}

// Option configura el store.
type Option func(*Store)

// WithLockTimeout espera máxima para entrar a una transacción. Cero conserva el valor por defecto.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// NewStore construye un store vacío.
func NewStore(opts ...Option) *Store {
	s := &Store{
		txSem:       make(chan struct{}, 1),
		committed:   newState(),
		lockTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ejecuta fn en una transacción serializada. Si no obtiene el turno antes del timeout
// devuelve domain.ErrConcurrentModification.
func (s *Store) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.txSem <- struct{}{}:
	case <-timer.C:
		return domain.ErrConcurrentModification
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.txSem }()

	s.mu.RLock()
	work := s.committed.clone()
	s.mu.RUnlock()

	if err := fn(work.repos(false)); err != nil {
		return err
	}
	s.mu.Lock()
	s.committed = work
	s.mu.Unlock()
	return nil
}

// Read devuelve repositorios de solo lectura sobre el último snapshot confirmado.
func (s *Store) Read() repository.Repos {
	s.mu.RLock()
	snap := s.committed
	s.mu.RUnlock()
	return snap.repos(true)
}

// AddItem registra un item en el catálogo (los maestros viven fuera del núcleo).
func (s *Store) AddItem(it *entity.Item) {
	s.mutate(func(st *state) { c := *it; st.items[it.ID] = &c })
}

// AddWarehouse registra una bodega.
func (s *Store) AddWarehouse(w *entity.Warehouse) {
	s.mutate(func(st *state) { c := *w; st.warehouses[w.ID] = &c })
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(l *entity.Location) {
	s.mutate(func(st *state) { c := *l; st.locations[l.ID] = &c })
}

// OverwriteBalance escribe un balance saltándose el libro. Solo existe para simular
// corrupción de la proyección en pruebas de verificación.
func (s *Store) OverwriteBalance(b *entity.Balance) {
	s.mutate(func(st *state) { st.balances[b.Key] = b.Clone() })
}

func (s *Store) mutate(fn func(st *state)) {
	s.txSem <- struct{}{}
	defer func() { <-s.txSem }()
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.committed.clone()
	fn(next)
	s.committed = next
}

type state struct {
	seq        int64
	movements  []*entity.MovementEntry
	balances   map[entity.BalanceKey]*entity.Balance
	orders     map[string]*entity.SalesOrder
	transfers  map[string]*entity.TransferOrder
	counts     map[string]*entity.CycleCount
	items      map[string]*entity.Item
	warehouses map[string]*entity.Warehouse
	locations  map[string]*entity.Location
	users      map[string]*entity.User
}

func newState() *state {
	return &state{
		balances:   make(map[entity.BalanceKey]*entity.Balance),
		orders:     make(map[string]*entity.SalesOrder),
		transfers:  make(map[string]*entity.TransferOrder),
		counts:     make(map[string]*entity.CycleCount),
		items:      make(map[string]*entity.Item),
		warehouses: make(map[string]*entity.Warehouse),
		locations:  make(map[string]*entity.Location),
		users:      make(map[string]*entity.User),
	}
}

// clone copia las estructuras mutables. Los movimientos son inmutables y se comparten.
func (st *state) clone() *state {
	c := newState()
	c.seq = st.seq
	c.movements = append([]*entity.MovementEntry(nil), st.movements...)
	for k, v := range st.balances {
		c.balances[k] = v.Clone()
	}
	for k, v := range st.orders {
		c.orders[k] = cloneOrder(v)
	}
	for k, v := range st.transfers {
		c.transfers[k] = cloneTransfer(v)
	}
	for k, v := range st.counts {
		c.counts[k] = cloneCount(v)
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range st.locations {
		c.locations[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	return c
}

func (st *state) repos(readOnly bool) repository.Repos {
	return repository.Repos{
		Movements:   &movementRepo{st: st, readOnly: readOnly},
		Balances:    &balanceRepo{st: st, readOnly: readOnly},
		Orders:      &orderRepo{st: st, readOnly: readOnly},
		Transfers:   &transferRepo{st: st, readOnly: readOnly},
		CycleCounts: &countRepo{st: st, readOnly: readOnly},
		Catalog:     &catalogRepo{st: st, readOnly: readOnly},
		Users:       &userRepo{st: st, readOnly: readOnly},
	}
}

func cloneOrder(o *entity.SalesOrder) *entity.SalesOrder {
	c := *o
	c.Lines = make([]*entity.SalesOrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	return &c
}

func cloneTransfer(t *entity.TransferOrder) *entity.TransferOrder {
	c := *t
	c.Lines = make([]*entity.TransferOrderLine, len(t.Lines))
	for i, l := range t.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	return &c
}

func cloneCount(cc *entity.CycleCount) *entity.CycleCount {
	c := *cc
	c.Lines = make([]*entity.CycleCountLine, len(cc.Lines))
	for i, l := range cc.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	return &c
}
