package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

const (
	tenant = "t1"
	item   = "item-x"
	site   = "bodega"
	locA   = "loc-a"
	locB   = "loc-b"
)

type recorder struct {
	mu     sync.Mutex
	events []ledger.Event
}

func (r *recorder) Notify(_ context.Context, e ledger.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func movement(kind entity.MovementKind, bucket entity.Bucket, loc string, qty int64) *entity.MovementEntry {
	l := loc
	return &entity.MovementEntry{
		TenantID: tenant, ItemID: item, SiteID: site, LocationID: &l,
		Kind: kind, Bucket: bucket, QuantityBase: decimal.NewFromInt(qty),
		ReferenceType: entity.RefAdjustment, ReferenceID: "ref-1", CreatedBy: "u1",
	}
}

func key(loc string) entity.BalanceKey {
	return entity.BalanceKey{TenantID: tenant, ItemID: item, SiteID: site, LocationID: loc}
}

func TestAppendMovement_CreaBalanceDesdeCero(t *testing.T) {
	svc := ledger.NewService(memory.NewStore())
	ctx := context.Background()

	m, err := svc.AppendMovement(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 100))
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.CreatedAt.IsZero())
	assert.EqualValues(t, 1, m.Sequence)

	loc := locA
	b, err := svc.GetBalance(ctx, tenant, item, site, &loc)
	require.NoError(t, err)
	assert.True(t, b.OnHandBase.Equal(decimal.NewFromInt(100)))
	assert.True(t, b.ReservedBase.IsZero())
}

func TestAppendMovement_RechazoNoDejaEscrituras(t *testing.T) {
	rec := &recorder{}
	svc := ledger.NewService(memory.NewStore(), ledger.WithNotifier(rec))
	ctx := context.Background()
	_, err := svc.AppendMovement(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 10))
	require.NoError(t, err)

	_, err = svc.AppendMovement(ctx, movement(entity.MovementIssue, entity.BucketOnHand, locA, -11))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var shortage *domain.StockShortageError
	require.True(t, errors.As(err, &shortage))
	assert.True(t, shortage.Available.Equal(decimal.NewFromInt(10)))

	movs, err := svc.ListMovements(ctx, repository.MovementFilter{TenantID: tenant, ItemID: item})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "el movimiento rechazado no queda en el libro")
	assert.Len(t, rec.events, 1, "solo se notifica lo confirmado")
}

func TestTransact_FalloParcialRevierteTodo(t *testing.T) {
	svc := ledger.NewService(memory.NewStore())
	ctx := context.Background()

	err := svc.Transact(ctx, func(tx *ledger.Tx) error {
		if _, err := tx.Append(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 5)); err != nil {
			return err
		}
		_, err := tx.Append(ctx, movement(entity.MovementIssue, entity.BucketOnHand, locB, -1))
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = svc.GetBalance(ctx, tenant, item, site, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound, "ni el primer movimiento sobrevive")
}

func TestAppendMovement_ReservaNoSuperaOnHand(t *testing.T) {
	svc := ledger.NewService(memory.NewStore())
	ctx := context.Background()
	_, err := svc.AppendMovement(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 10))
	require.NoError(t, err)
	_, err = svc.AppendMovement(ctx, movement(entity.MovementAllocate, entity.BucketReserved, locA, 8))
	require.NoError(t, err)

	_, err = svc.AppendMovement(ctx, movement(entity.MovementAllocate, entity.BucketReserved, locA, 3))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	_, err = svc.AppendMovement(ctx, movement(entity.MovementIssue, entity.BucketOnHand, locA, -3))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "no se despacha stock reservado")
	_, err = svc.AppendMovement(ctx, movement(entity.MovementDeallocate, entity.BucketReserved, locA, -9))
	assert.ErrorIs(t, err, domain.ErrInsufficientReservation)
}

func TestAppendMovement_PoliticaBackorder(t *testing.T) {
	policy := inventory.BackorderPolicy{AllowNegative: map[entity.MovementKind]bool{entity.MovementIssue: true}}
	svc := ledger.NewService(memory.NewStore(), ledger.WithBackorderPolicy(policy))

	_, err := svc.AppendMovement(context.Background(), movement(entity.MovementIssue, entity.BucketOnHand, locA, -4))
	require.NoError(t, err)
	loc := locA
	b, err := svc.GetBalance(context.Background(), tenant, item, site, &loc)
	require.NoError(t, err)
	assert.True(t, b.OnHandBase.Equal(decimal.NewFromInt(-4)))
}

func TestAppendMovement_SignoInvalidoEsValidacion(t *testing.T) {
	svc := ledger.NewService(memory.NewStore())
	_, err := svc.AppendMovement(context.Background(), movement(entity.MovementReceipt, entity.BucketOnHand, locA, -1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetBalance_AgregaUbicacionesDelSitio(t *testing.T) {
	svc := ledger.NewService(memory.NewStore())
	ctx := context.Background()
	_, err := svc.AppendMovement(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 10))
	require.NoError(t, err)
	_, err = svc.AppendMovement(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locB, 15))
	require.NoError(t, err)

	b, err := svc.GetBalance(ctx, tenant, item, site, nil)
	require.NoError(t, err)
	assert.True(t, b.OnHandBase.Equal(decimal.NewFromInt(25)))
	assert.Empty(t, b.Key.LocationID)
}

func TestVerifyYRebuild_DetectanYCorrigenDeriva(t *testing.T) {
	store := memory.NewStore()
	svc := ledger.NewService(store)
	ctx := context.Background()
	_, err := svc.AppendMovement(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 10))
	require.NoError(t, err)

	drifts, err := svc.Verify(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, drifts)

	corrupt := entity.NewBalance(key(locA))
	corrupt.OnHandBase = decimal.NewFromInt(999)
	store.OverwriteBalance(corrupt)

	drifts, err = svc.Verify(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, drifts, 1)
	assert.Equal(t, key(locA), drifts[0].Key)
	assert.True(t, drifts[0].Replayed.OnHandBase.Equal(decimal.NewFromInt(10)))

	n, err := svc.Rebuild(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	drifts, err = svc.Verify(ctx, tenant)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func TestTransact_NotificaDespuesDelCommit(t *testing.T) {
	rec := &recorder{}
	svc := ledger.NewService(memory.NewStore(), ledger.WithNotifier(rec))
	ctx := context.Background()

	err := svc.Transact(ctx, func(tx *ledger.Tx) error {
		if _, err := tx.Append(ctx, movement(entity.MovementReceipt, entity.BucketOnHand, locA, 5)); err != nil {
			return err
		}
		assert.Empty(t, rec.events, "nada se publica dentro de la transacción")
		_, err := tx.Append(ctx, movement(entity.MovementAllocate, entity.BucketReserved, locA, 2))
		return err
	})
	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	assert.Equal(t, ledger.EventMovementsPosted, rec.events[0].Type)
	assert.Len(t, rec.events[0].Movements, 2)
}
