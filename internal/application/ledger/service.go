package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Service es el único camino de escritura del inventario: cada movimiento se inserta en el
// libro y se proyecta sobre su balance dentro de la misma transacción (ambos o ninguno).
type Service struct {
	store    repository.LedgerStore
	notifier Notifier
	policy   inventory.BackorderPolicy
	log      zerolog.Logger
	now      func() time.Time
}

// Option configura el servicio.
type Option func(*Service)

// WithNotifier inyecta el despachador de eventos post-commit.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithBackorderPolicy permite OnHand negativo para los tipos indicados.
func WithBackorderPolicy(p inventory.BackorderPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger asigna el logger del componente.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l.With().Str("component", "ledger").Logger() }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService construye el libro sobre el store inyectado.
func NewService(store repository.LedgerStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: NopNotifier{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tx contexto transaccional que reciben los flujos (asignación, transferencias, conteos).
type Tx struct {
	repos   repository.Repos
	policy  inventory.BackorderPolicy
	now     time.Time
	locked  map[entity.BalanceKey]*entity.Balance
	entries []*entity.MovementEntry
}

// Repos repositorios atados a la transacción.
func (t *Tx) Repos() repository.Repos { return t.repos }

// Now instante común a todos los movimientos de la transacción.
func (t *Tx) Now() time.Time { return t.now }

// Entries movimientos insertados hasta el momento en la transacción.
func (t *Tx) Entries() []*entity.MovementEntry { return t.entries }

// LockBalances bloquea las filas en orden de clave para que dos transacciones que tocan
// las mismas claves no se bloqueen mutuamente.
func (t *Tx) LockBalances(ctx context.Context, keys ...entity.BalanceKey) error {
	sorted := append([]entity.BalanceKey(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	for _, k := range sorted {
		if _, err := t.Balance(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Balance lee el balance bloqueado de la clave (lo crea en cero si no existe).
func (t *Tx) Balance(ctx context.Context, key entity.BalanceKey) (*entity.Balance, error) {
	if b, ok := t.locked[key]; ok {
		return b.Clone(), nil
	}
	b, err := t.repos.Balances.GetForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	t.locked[key] = b
	return b.Clone(), nil
}

// Append inserta el movimiento y actualiza su balance. Si el proyector rechaza el movimiento
// devuelve el error y el caller debe abortar la transacción completa.
func (t *Tx) Append(ctx context.Context, m *entity.MovementEntry) (*entity.MovementEntry, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t.now
	}
	key := m.Key()
	current, err := t.Balance(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := inventory.Apply(current, m, t.policy); err != nil {
		return nil, err
	}
	if err := t.repos.Movements.Create(ctx, m); err != nil {
		return nil, err
	}
	if err := t.repos.Balances.Save(ctx, current); err != nil {
		return nil, err
	}
	t.locked[key] = current
	t.entries = append(t.entries, m)
	return m, nil
}

// Transact ejecuta fn en una transacción del store. Si fn falla no queda ningún movimiento
// ni balance modificado. Tras el commit se notifica el lote de movimientos.
func (s *Service) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	var posted []*entity.MovementEntry
	err := s.store.Run(ctx, func(r repository.Repos) error {
		tx := &Tx{
			repos:  r,
			policy: s.policy,
			now:    s.now().UTC(),
			locked: make(map[entity.BalanceKey]*entity.Balance),
		}
		if err := fn(tx); err != nil {
			return err
		}
		posted = tx.entries
		return nil
	})
	if err != nil {
		return err
	}
	if len(posted) > 0 {
		s.notifier.Notify(ctx, Event{
			Type:       EventMovementsPosted,
			TenantID:   posted[0].TenantID,
			Movements:  posted,
			OccurredAt: posted[0].CreatedAt,
		})
	}
	return nil
}

// AppendMovement primitiva pública de escritura: un movimiento en su propia transacción.
func (s *Service) AppendMovement(ctx context.Context, m *entity.MovementEntry) (*entity.MovementEntry, error) {
	var out *entity.MovementEntry
	err := s.Transact(ctx, func(tx *Tx) error {
		var err error
		out, err = tx.Append(ctx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Read repositorios de lectura fuera de transacción.
func (s *Service) Read() repository.Repos { return s.store.Read() }

// GetBalance lee la proyección. Sin ubicación agrega todas las ubicaciones del sitio,
// incluido el bucket en tránsito.
func (s *Service) GetBalance(ctx context.Context, tenantID, itemID, siteID string, locationID *string) (*entity.Balance, error) {
	if tenantID == "" || itemID == "" || siteID == "" {
		return nil, domain.Validationf("item y sitio son obligatorios")
	}
	repo := s.store.Read().Balances
	if locationID != nil {
		b, err := repo.Get(ctx, entity.BalanceKey{TenantID: tenantID, ItemID: itemID, SiteID: siteID, LocationID: *locationID})
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, fmt.Errorf("%w: balance", domain.ErrNotFound)
		}
		return b, nil
	}
	rows, err := repo.ListBySite(ctx, tenantID, itemID, siteID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: balance", domain.ErrNotFound)
	}
	total := entity.NewBalance(entity.BalanceKey{TenantID: tenantID, ItemID: itemID, SiteID: siteID})
	for _, b := range rows {
		total.Add(b)
	}
	return total, nil
}

// ListMovements consulta el libro (más recientes primero).
func (s *Service) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementEntry, error) {
	if filter.TenantID == "" || filter.ItemID == "" {
		return nil, domain.Validationf("item obligatorio")
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.store.Read().Movements.List(ctx, filter)
}

// Rebuild descarta la proyección del tenant y la reconstruye reproduciendo el libro.
func (s *Service) Rebuild(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.store.Run(ctx, func(r repository.Repos) error {
		replayed, err := replayTenant(ctx, r, tenantID)
		if err != nil {
			return err
		}
		balances := make([]*entity.Balance, 0, len(replayed))
		for _, b := range replayed {
			balances = append(balances, b)
		}
		sort.Slice(balances, func(i, j int) bool { return balances[i].Key.Less(balances[j].Key) })
		n = len(balances)
		return r.Balances.ReplaceAll(ctx, tenantID, balances)
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("tenant_id", tenantID).Int("balances", n).Msg("proyección reconstruida")
	return n, nil
}

// Verify reproduce el libro y lo compara con la proyección almacenada (conservación).
func (s *Service) Verify(ctx context.Context, tenantID string) ([]inventory.Drift, error) {
	r := s.store.Read()
	replayed, err := replayTenant(ctx, r, tenantID)
	if err != nil {
		return nil, err
	}
	stored, err := r.Balances.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	drifts := inventory.Diff(stored, replayed)
	if len(drifts) > 0 {
		s.log.Warn().Str("tenant_id", tenantID).Int("drifts", len(drifts)).Msg("proyección difiere del libro")
	}
	return drifts, nil
}

func replayTenant(ctx context.Context, r repository.Repos, tenantID string) (map[entity.BalanceKey]*entity.Balance, error) {
	var entries []*entity.MovementEntry
	err := r.Movements.Stream(ctx, tenantID, func(m *entity.MovementEntry) error {
		entries = append(entries, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("leer libro: %w", err)
	}
	return inventory.Replay(entries), nil
}
