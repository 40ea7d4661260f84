package allocation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/allocation"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenant = "t1"
	user   = "u1"
	site   = "bodega-norte"
	item   = "item-x"
	locA   = "loc-a"
	locB   = "loc-b"
)

type fixture struct {
	store  *memory.Store
	ledger *ledger.Service
	uc     *allocation.UseCase
	picks  *fakePicks
}

type fakePicks struct {
	calls int
	err   error
}

func (f *fakePicks) CreatePickTask(_ context.Context, o *entity.SalesOrder) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "pick-" + o.Number, nil
}

func newFixture(t *testing.T, lotTracked bool) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddItem(&entity.Item{ID: item, TenantID: tenant, SKU: "SKU-X", BaseUoM: "UND", LotTracked: lotTracked})
	store.AddWarehouse(&entity.Warehouse{ID: site, TenantID: tenant, Code: "NOR"})
	store.AddLocation(&entity.Location{ID: locA, TenantID: tenant, SiteID: site, Code: "A-01"})
	store.AddLocation(&entity.Location{ID: locB, TenantID: tenant, SiteID: site, Code: "B-01"})
	l := ledger.NewService(store)
	picks := &fakePicks{}
	return &fixture{store: store, ledger: l, uc: allocation.NewUseCase(l, picks, zerolog.Nop()), picks: picks}
}

func (f *fixture) receive(t *testing.T, loc string, qty int64) {
	t.Helper()
	l := loc
	_, err := f.ledger.AppendMovement(context.Background(), &entity.MovementEntry{
		TenantID:      tenant,
		ItemID:        item,
		SiteID:        site,
		LocationID:    &l,
		Kind:          entity.MovementReceipt,
		Bucket:        entity.BucketOnHand,
		QuantityBase:  decimal.NewFromInt(qty),
		ReferenceType: entity.RefOpeningBalance,
		ReferenceID:   "apertura",
		CreatedBy:     user,
	})
	require.NoError(t, err)
}

func (f *fixture) confirmedOrder(t *testing.T, qty ...int64) *entity.SalesOrder {
	t.Helper()
	ctx := context.Background()
	in := allocation.CreateOrderInput{TenantID: tenant, UserID: user, SiteID: site}
	for _, q := range qty {
		in.Lines = append(in.Lines, allocation.CreateOrderLine{ItemID: item, QtyOrdered: decimal.NewFromInt(q)})
	}
	o, err := f.uc.CreateOrder(ctx, in)
	require.NoError(t, err)
	o, err = f.uc.ConfirmOrder(ctx, tenant, o.ID)
	require.NoError(t, err)
	return o
}

func (f *fixture) balance(t *testing.T, loc string) *entity.Balance {
	t.Helper()
	l := loc
	b, err := f.ledger.GetBalance(context.Background(), tenant, item, site, &l)
	require.NoError(t, err)
	return b
}

func (f *fixture) assertConserved(t *testing.T) {
	t.Helper()
	drifts, err := f.ledger.Verify(context.Background(), tenant)
	require.NoError(t, err)
	assert.Empty(t, drifts, "la proyección debe coincidir con la reproducción del libro")
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ──────────────────────────────────────────────────────────────────────────────
// Asignación
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_SegundaOrdenRecibeFaltante(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.receive(t, locA, 100)

	o1 := f.confirmedOrder(t, 60)
	res, err := f.uc.Allocate(ctx, tenant, user, o1.ID)
	require.NoError(t, err)
	assert.True(t, res.FullyAllocated)
	assert.Empty(t, res.Shortfalls)
	assert.Equal(t, entity.OrderAllocated, res.Order.Status)
	assert.True(t, f.balance(t, locA).ReservedBase.Equal(dec(60)))

	o2 := f.confirmedOrder(t, 60)
	res, err = f.uc.Allocate(ctx, tenant, user, o2.ID)
	require.NoError(t, err)
	assert.False(t, res.FullyAllocated)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, o2.Lines[0].ID, res.Shortfalls[0].LineID)
	assert.True(t, res.Shortfalls[0].ShortQty.Equal(dec(20)), "faltante = 60 - 40 disponibles")
	assert.Equal(t, entity.OrderConfirmed, res.Order.Status, "con faltante la orden sigue CONFIRMED")

	b := f.balance(t, locA)
	assert.True(t, b.ReservedBase.LessThanOrEqual(b.OnHandBase), "nunca se reserva más que el stock físico")
	assert.True(t, b.Available().IsZero())
	f.assertConserved(t)
}

func TestAllocate_PrefiereUbicacionQueCubreTodo(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, locA, 10)
	f.receive(t, locB, 50)

	o := f.confirmedOrder(t, 30)
	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err)
	require.True(t, res.FullyAllocated)

	assert.True(t, f.balance(t, locA).ReservedBase.IsZero(), "A-01 no cubre la línea completa")
	assert.True(t, f.balance(t, locB).ReservedBase.Equal(dec(30)))
}

func TestAllocate_DivideEntreUbicacionesPorCodigo(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, locA, 20)
	f.receive(t, locB, 20)

	o := f.confirmedOrder(t, 30)
	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err)
	require.True(t, res.FullyAllocated)

	assert.True(t, f.balance(t, locA).ReservedBase.Equal(dec(20)))
	assert.True(t, f.balance(t, locB).ReservedBase.Equal(dec(10)))
	f.assertConserved(t)
}

func TestAllocate_FIFOEnItemsConLote(t *testing.T) {
	f := newFixture(t, true)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.ledger = ledger.NewService(f.store, ledger.WithClock(func() time.Time { return clock }))
	f.uc = allocation.NewUseCase(f.ledger, f.picks, zerolog.Nop())

	f.receive(t, locB, 40) // más antiguo
	clock = clock.Add(24 * time.Hour)
	f.receive(t, locA, 40)

	o := f.confirmedOrder(t, 30)
	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err)
	require.True(t, res.FullyAllocated)
	assert.True(t, f.balance(t, locB).ReservedBase.Equal(dec(30)), "con lote se reserva primero el ingreso más antiguo")
	assert.True(t, f.balance(t, locA).ReservedBase.IsZero())
}

func TestAllocate_SoloDesdeConfirmed(t *testing.T) {
	f := newFixture(t, false)
	o, err := f.uc.CreateOrder(context.Background(), allocation.CreateOrderInput{
		TenantID: tenant, SiteID: site,
		Lines: []allocation.CreateOrderLine{{ItemID: item, QtyOrdered: dec(1)}},
	})
	require.NoError(t, err)

	_, err = f.uc.Allocate(context.Background(), tenant, user, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestAllocate_ConcurrenteNoSobrevende(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, locA, 100)
	o1 := f.confirmedOrder(t, 70)
	o2 := f.confirmedOrder(t, 70)

	var wg sync.WaitGroup
	results := make([]*allocation.Result, 2)
	for i, id := range []string{o1.ID, o2.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			res, err := f.uc.Allocate(context.Background(), tenant, user, id)
			assert.NoError(t, err)
			results[i] = res
		}(i, id)
	}
	wg.Wait()

	full := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.FullyAllocated {
			full++
		} else {
			require.Len(t, r.Shortfalls, 1)
			assert.True(t, r.Shortfalls[0].ShortQty.Equal(dec(40)))
		}
	}
	assert.Equal(t, 1, full, "exactamente una orden queda cubierta")
	b := f.balance(t, locA)
	assert.True(t, b.ReservedBase.Equal(dec(100)))
	f.assertConserved(t)
}

func TestCreateOrder_RechazaCantidadNoPositiva(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.uc.CreateOrder(context.Background(), allocation.CreateOrderInput{
		TenantID: tenant, SiteID: site,
		Lines: []allocation.CreateOrderLine{{ItemID: item, QtyOrdered: dec(-5)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ──────────────────────────────────────────────────────────────────────────────
// Liberación, despacho y cancelación
// ──────────────────────────────────────────────────────────────────────────────

func TestDeallocate_RevierteReservasDeLaLinea(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.receive(t, locA, 20)
	f.receive(t, locB, 20)
	o := f.confirmedOrder(t, 30)
	_, err := f.uc.Allocate(ctx, tenant, user, o.ID)
	require.NoError(t, err)

	o, err = f.uc.Deallocate(ctx, tenant, user, o.Lines[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderConfirmed, o.Status, "ALLOCATED vuelve a CONFIRMED para replanificar")
	assert.True(t, o.Lines[0].QtyAllocatedBase.IsZero())
	assert.True(t, f.balance(t, locA).ReservedBase.IsZero())
	assert.True(t, f.balance(t, locB).ReservedBase.IsZero())
	assert.True(t, f.balance(t, locA).OnHandBase.Equal(dec(20)), "liberar no toca el stock físico")
	f.assertConserved(t)
}

func TestShipOrderLines_ConvierteReservaEnSalida(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.receive(t, locA, 100)
	o := f.confirmedOrder(t, 60)
	_, err := f.uc.Allocate(ctx, tenant, user, o.ID)
	require.NoError(t, err)
	_, err = f.uc.StartPicking(ctx, tenant, o.ID)
	require.NoError(t, err)
	_, err = f.uc.MarkPacked(ctx, tenant, o.ID)
	require.NoError(t, err)

	o, err = f.uc.ShipOrderLines(ctx, tenant, user, o.ID, []allocation.ShipLine{{LineID: o.Lines[0].ID, Quantity: dec(60)}})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderShipped, o.Status)
	b := f.balance(t, locA)
	assert.True(t, b.OnHandBase.Equal(dec(40)))
	assert.True(t, b.ReservedBase.IsZero())

	o, err = f.uc.DeliverOrder(ctx, tenant, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderDelivered, o.Status)
	f.assertConserved(t)
}

func TestShipOrderLines_ExcesoSobreReservaEsRechazado(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.receive(t, locA, 100)
	o := f.confirmedOrder(t, 10)
	_, err := f.uc.Allocate(ctx, tenant, user, o.ID)
	require.NoError(t, err)
	_, err = f.uc.StartPicking(ctx, tenant, o.ID)
	require.NoError(t, err)
	_, err = f.uc.MarkPacked(ctx, tenant, o.ID)
	require.NoError(t, err)

	_, err = f.uc.ShipOrderLines(ctx, tenant, user, o.ID, []allocation.ShipLine{{LineID: o.Lines[0].ID, Quantity: dec(11)}})
	assert.ErrorIs(t, err, domain.ErrInsufficientReservation)
	assert.True(t, f.balance(t, locA).OnHandBase.Equal(dec(100)), "rechazo sin efectos")
}

func TestStartPicking_SinTareaNoAvanza(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.receive(t, locA, 10)
	o := f.confirmedOrder(t, 5)
	_, err := f.uc.Allocate(ctx, tenant, user, o.ID)
	require.NoError(t, err)

	f.picks.err = errors.New("wms caído")
	_, err = f.uc.StartPicking(ctx, tenant, o.ID)
	require.Error(t, err)
	got, err := f.uc.GetOrder(ctx, tenant, o.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderAllocated, got.Status)
}

func TestCancelOrder_LiberaTodasLasReservas(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.receive(t, locA, 100)
	o := f.confirmedOrder(t, 30, 20)
	_, err := f.uc.Allocate(ctx, tenant, user, o.ID)
	require.NoError(t, err)

	o, err = f.uc.CancelOrder(ctx, tenant, user, o.ID, "cliente desiste")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderCancelled, o.Status)
	assert.True(t, f.balance(t, locA).ReservedBase.IsZero())
	f.assertConserved(t)

	_, err = f.uc.CancelOrder(ctx, tenant, user, o.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

// ──────────────────────────────────────────────────────────────────────────────
// Conflictos de concurrencia
// ──────────────────────────────────────────────────────────────────────────────

// contendedStore simula que otra transacción gana las primeras `fail` llamadas a Run.
type contendedStore struct {
	*memory.Store
	mu    sync.Mutex
	calls int
	fail  int
}

func (s *contendedStore) Run(ctx context.Context, fn func(r repository.Repos) error) error {
	s.mu.Lock()
	s.calls++
	lose := s.calls <= s.fail
	s.mu.Unlock()
	if lose {
		return domain.ErrConcurrentModification
	}
	return s.Store.Run(ctx, fn)
}

func (f *fixture) contended(fail int) *contendedStore {
	cs := &contendedStore{Store: f.store, fail: fail}
	f.ledger = ledger.NewService(cs)
	f.uc = allocation.NewUseCase(f.ledger, f.picks, zerolog.Nop())
	return cs
}

func TestAllocate_ReintentaUnaVezTrasConflicto(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, locA, 20)
	o := f.confirmedOrder(t, 15)
	cs := f.contended(1)

	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err)
	assert.True(t, res.FullyAllocated)
	assert.Empty(t, res.Shortfalls)
	assert.True(t, f.balance(t, locA).ReservedBase.Equal(dec(15)))
	assert.Equal(t, 3, cs.calls, "intento, reintento y cierre de la orden")
}

func TestAllocate_ConflictoPersistenteSeReportaComoFaltante(t *testing.T) {
	f := newFixture(t, false)
	f.receive(t, locA, 20)
	o := f.confirmedOrder(t, 15)
	cs := f.contended(2)

	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err, "el conflicto no se propaga como error")
	assert.False(t, res.FullyAllocated)
	require.Len(t, res.Shortfalls, 1)
	assert.Equal(t, o.Lines[0].ID, res.Shortfalls[0].LineID)
	assert.True(t, res.Shortfalls[0].ShortQty.Equal(dec(15)))
	assert.Equal(t, entity.OrderConfirmed, res.Order.Status)
	assert.Equal(t, 3, cs.calls, "no hay un segundo reintento")

	assert.True(t, f.balance(t, locA).ReservedBase.IsZero(), "sin reserva escrita")
	movs, err := f.ledger.Read().Movements.ListByReference(context.Background(), tenant, entity.RefSalesOrderLine, o.Lines[0].ID)
	require.NoError(t, err)
	assert.Empty(t, movs)
	f.assertConserved(t)
}

func TestAllocate_EsperaDeBloqueoAcotada(t *testing.T) {
	store := memory.NewStore(memory.WithLockTimeout(30 * time.Millisecond))
	store.AddItem(&entity.Item{ID: item, TenantID: tenant, SKU: "SKU-X", BaseUoM: "UND"})
	store.AddWarehouse(&entity.Warehouse{ID: site, TenantID: tenant, Code: "NOR"})
	store.AddLocation(&entity.Location{ID: locA, TenantID: tenant, SiteID: site, Code: "A-01"})
	f := &fixture{store: store, ledger: ledger.NewService(store), picks: &fakePicks{}}
	f.uc = allocation.NewUseCase(f.ledger, f.picks, zerolog.Nop())
	f.receive(t, locA, 10)
	o := f.confirmedOrder(t, 5)

	// Otra transacción retiene el store más allá del timeout.
	entered, release := make(chan struct{}), make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.Run(context.Background(), func(repository.Repos) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	_, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification, "ni la línea ni el cierre consiguen turno")
	close(release)
	require.NoError(t, <-done)

	assert.True(t, f.balance(t, locA).ReservedBase.IsZero())
	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err)
	assert.True(t, res.FullyAllocated)
}

func TestAllocate_FIFOIgnoraIngresosYaConsumidos(t *testing.T) {
	f := newFixture(t, true)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.ledger = ledger.NewService(f.store, ledger.WithClock(func() time.Time { return clock }))
	f.uc = allocation.NewUseCase(f.ledger, f.picks, zerolog.Nop())

	f.receive(t, locB, 40)
	clock = clock.Add(24 * time.Hour)
	l := locB
	_, err := f.ledger.AppendMovement(context.Background(), &entity.MovementEntry{
		TenantID: tenant, ItemID: item, SiteID: site, LocationID: &l,
		Kind: entity.MovementIssue, Bucket: entity.BucketOnHand, QuantityBase: dec(-40),
		ReferenceType: entity.RefAdjustment, ReferenceID: "vaciado", CreatedBy: user,
	})
	require.NoError(t, err)
	clock = clock.Add(24 * time.Hour)
	f.receive(t, locA, 40)
	clock = clock.Add(24 * time.Hour)
	f.receive(t, locB, 40) // B se vació y se repuso después que A

	o := f.confirmedOrder(t, 30)
	res, err := f.uc.Allocate(context.Background(), tenant, user, o.ID)
	require.NoError(t, err)
	require.True(t, res.FullyAllocated)
	assert.True(t, f.balance(t, locA).ReservedBase.Equal(dec(30)))
	assert.True(t, f.balance(t, locB).ReservedBase.IsZero())
}
