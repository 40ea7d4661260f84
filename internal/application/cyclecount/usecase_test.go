package cyclecount_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/cyclecount"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

const (
	tenant = "t1"
	user   = "auditor"
	site   = "bodega"
	item   = "item-x"
	other  = "item-y"
	loc    = "loc-a"
)

func setup(t *testing.T, onHand int64) (*ledger.Service, *cyclecount.UseCase) {
	t.Helper()
	store := memory.NewStore()
	store.AddItem(&entity.Item{ID: item, TenantID: tenant, SKU: "X"})
	store.AddItem(&entity.Item{ID: other, TenantID: tenant, SKU: "Y"})
	store.AddWarehouse(&entity.Warehouse{ID: site, TenantID: tenant})
	store.AddLocation(&entity.Location{ID: loc, TenantID: tenant, SiteID: site, Code: "A-01"})
	l := ledger.NewService(store)
	if onHand > 0 {
		locID := loc
		_, err := l.AppendMovement(context.Background(), &entity.MovementEntry{
			TenantID: tenant, ItemID: item, SiteID: site, LocationID: &locID,
			Kind: entity.MovementReceipt, Bucket: entity.BucketOnHand, QuantityBase: decimal.NewFromInt(onHand),
			ReferenceType: entity.RefOpeningBalance, ReferenceID: "apertura",
		})
		require.NoError(t, err)
	}
	return l, cyclecount.NewUseCase(l, zerolog.Nop())
}

func schedule(t *testing.T, uc *cyclecount.UseCase, items ...string) *entity.CycleCount {
	t.Helper()
	in := cyclecount.ScheduleInput{TenantID: tenant, UserID: user, SiteID: site}
	for _, it := range items {
		in.Lines = append(in.Lines, cyclecount.ScheduleLine{ItemID: it, LocationID: loc})
	}
	c, err := uc.Schedule(context.Background(), in)
	require.NoError(t, err)
	return c
}

func onHand(t *testing.T, l *ledger.Service) decimal.Decimal {
	t.Helper()
	locID := loc
	b, err := l.GetBalance(context.Background(), tenant, item, site, &locID)
	require.NoError(t, err)
	return b.OnHandBase
}

func TestApproveVariance_AjustaElStock(t *testing.T) {
	l, uc := setup(t, 100)
	ctx := context.Background()
	c := schedule(t, uc, item)
	require.True(t, c.Lines[0].ExpectedQtyBase.Equal(decimal.NewFromInt(100)), "esperado = foto de OnHand")

	line, err := uc.RecordCount(ctx, tenant, user, c.Lines[0].ID, decimal.NewFromInt(92))
	require.NoError(t, err)
	assert.True(t, line.VarianceQtyBase.Equal(decimal.NewFromInt(-8)))
	assert.True(t, onHand(t, l).Equal(decimal.NewFromInt(100)), "contar no escribe en el libro")

	line, err = uc.ApproveVariance(ctx, tenant, user, line.ID, true)
	require.NoError(t, err)
	assert.Equal(t, entity.CountLineVarianceApproved, line.Status)
	assert.True(t, line.Adjusted)
	assert.True(t, onHand(t, l).Equal(decimal.NewFromInt(92)))

	movs, err := l.ListMovements(ctx, repository.MovementFilter{TenantID: tenant, ItemID: item})
	require.NoError(t, err)
	var adjusts []*entity.MovementEntry
	for _, m := range movs {
		if m.Kind == entity.MovementCountAdjust {
			adjusts = append(adjusts, m)
		}
	}
	require.Len(t, adjusts, 1)
	assert.True(t, adjusts[0].QuantityBase.Equal(decimal.NewFromInt(-8)))
	assert.Equal(t, line.ID, adjusts[0].ReferenceID)
}

func TestApproveVariance_DobleAprobacionNoReajusta(t *testing.T) {
	l, uc := setup(t, 100)
	ctx := context.Background()
	c := schedule(t, uc, item)
	_, err := uc.RecordCount(ctx, tenant, user, c.Lines[0].ID, decimal.NewFromInt(110))
	require.NoError(t, err)
	_, err = uc.ApproveVariance(ctx, tenant, user, c.Lines[0].ID, true)
	require.NoError(t, err)

	_, err = uc.ApproveVariance(ctx, tenant, user, c.Lines[0].ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	assert.True(t, onHand(t, l).Equal(decimal.NewFromInt(110)), "el segundo intento no ajusta")
}

func TestApproveVariance_SinAjusteSoloRegistra(t *testing.T) {
	l, uc := setup(t, 100)
	ctx := context.Background()
	c := schedule(t, uc, item)
	_, err := uc.RecordCount(ctx, tenant, user, c.Lines[0].ID, decimal.NewFromInt(90))
	require.NoError(t, err)

	line, err := uc.ApproveVariance(ctx, tenant, user, c.Lines[0].ID, false)
	require.NoError(t, err)
	assert.Equal(t, entity.CountLineVarianceApproved, line.Status)
	assert.False(t, line.Adjusted)
	assert.True(t, onHand(t, l).Equal(decimal.NewFromInt(100)))
}

func TestApproveVariance_LineaSinVarianzaYaCerrada(t *testing.T) {
	_, uc := setup(t, 100)
	ctx := context.Background()
	c := schedule(t, uc, item)
	line, err := uc.RecordCount(ctx, tenant, user, c.Lines[0].ID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.True(t, line.Closed(), "sin varianza se cierra al contar")

	_, err = uc.ApproveVariance(ctx, tenant, user, line.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestApproveVariance_PendienteNoSeAprueba(t *testing.T) {
	_, uc := setup(t, 10)
	c := schedule(t, uc, item)
	_, err := uc.ApproveVariance(context.Background(), tenant, user, c.Lines[0].ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestCycleCount_CompletaCuandoNingunaLineaQuedaPendiente(t *testing.T) {
	_, uc := setup(t, 10)
	ctx := context.Background()
	c := schedule(t, uc, item, other)

	_, err := uc.RecordCount(ctx, tenant, user, c.Lines[0].ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	got, err := uc.Get(ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CycleCountOpen, got.Status)

	_, err = uc.RecordCount(ctx, tenant, user, c.Lines[1].ID, decimal.NewFromInt(3))
	require.NoError(t, err)
	got, err = uc.Get(ctx, tenant, c.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.CycleCountCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestRecordCount_CantidadNegativaEsInvalida(t *testing.T) {
	_, uc := setup(t, 10)
	c := schedule(t, uc, item)
	_, err := uc.RecordCount(context.Background(), tenant, user, c.Lines[0].ID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}
