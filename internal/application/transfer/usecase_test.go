package transfer_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/application/transfer"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	tenant  = "t1"
	user    = "u1"
	origin  = "bodega-origen"
	dest    = "bodega-destino"
	itemX   = "item-x"
	itemY   = "item-y"
	srcLoc  = "src-01"
	destLoc = "dst-01"
)

type fixture struct {
	ledger *ledger.Service
	uc     *transfer.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddItem(&entity.Item{ID: itemX, TenantID: tenant, SKU: "X", BaseUoM: "UND"})
	store.AddItem(&entity.Item{ID: itemY, TenantID: tenant, SKU: "Y", BaseUoM: "UND"})
	store.AddWarehouse(&entity.Warehouse{ID: origin, TenantID: tenant, Code: "ORI"})
	store.AddWarehouse(&entity.Warehouse{ID: dest, TenantID: tenant, Code: "DES"})
	store.AddLocation(&entity.Location{ID: srcLoc, TenantID: tenant, SiteID: origin, Code: "S-01"})
	store.AddLocation(&entity.Location{ID: destLoc, TenantID: tenant, SiteID: dest, Code: "D-01"})
	l := ledger.NewService(store)
	return &fixture{ledger: l, uc: transfer.NewUseCase(l, zerolog.Nop())}
}

func (f *fixture) receipt(t *testing.T, itemID string, qty int64) {
	t.Helper()
	loc := srcLoc
	_, err := f.ledger.AppendMovement(context.Background(), &entity.MovementEntry{
		TenantID: tenant, ItemID: itemID, SiteID: origin, LocationID: &loc,
		Kind: entity.MovementReceipt, Bucket: entity.BucketOnHand, QuantityBase: decimal.NewFromInt(qty),
		ReferenceType: entity.RefOpeningBalance, ReferenceID: "apertura",
	})
	require.NoError(t, err)
}

func (f *fixture) approved(t *testing.T, lines ...transfer.CreateLine) *entity.TransferOrder {
	t.Helper()
	ctx := context.Background()
	tr, err := f.uc.Create(ctx, transfer.CreateInput{
		TenantID: tenant, UserID: user, SourceWarehouseID: origin, DestinationWarehouseID: dest, Lines: lines,
	})
	require.NoError(t, err)
	tr, err = f.uc.Approve(ctx, tenant, tr.ID)
	require.NoError(t, err)
	return tr
}

func (f *fixture) siteBalance(t *testing.T, itemID, siteID string) *entity.Balance {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), tenant, itemID, siteID, nil)
	require.NoError(t, err)
	return b
}

func (f *fixture) assertConserved(t *testing.T) {
	t.Helper()
	drifts, err := f.ledger.Verify(context.Background(), tenant)
	require.NoError(t, err)
	assert.Empty(t, drifts)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_OrigenIgualDestinoEsInvalido(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.Create(context.Background(), transfer.CreateInput{
		TenantID: tenant, SourceWarehouseID: origin, DestinationWarehouseID: origin,
		Lines: []transfer.CreateLine{{ItemID: itemX, Quantity: dec(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransfer_DespachoYRecepcionConDanio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 80)
	tr := f.approved(t, transfer.CreateLine{ItemID: itemX, Quantity: dec(50)})

	tr, err := f.uc.Ship(ctx, tenant, user, tr.ID, transfer.ShipInput{
		Carrier: "Servientrega", TrackingNumber: "TRK-1",
		Lines: []transfer.ShipLine{{LineID: tr.Lines[0].ID, SourceLocationID: srcLoc, Quantity: dec(50)}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferShipped, tr.Status)
	src := f.siteBalance(t, itemX, origin)
	assert.True(t, src.OnHandBase.Equal(dec(30)))
	assert.True(t, src.InTransitOutBase.Equal(dec(50)))
	assert.True(t, f.siteBalance(t, itemX, dest).InTransitInBase.Equal(dec(50)))

	tr, err = f.uc.Receive(ctx, tenant, user, tr.ID, []transfer.ReceiveLine{{
		LineID: tr.Lines[0].ID, DestinationLocationID: destLoc, Received: dec(45), Damaged: dec(5),
	}})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, tr.Status)
	assert.True(t, tr.Outstanding().IsZero())

	dst := f.siteBalance(t, itemX, dest)
	assert.True(t, dst.OnHandBase.Equal(dec(45)), "lo dañado no entra al stock del destino")
	assert.True(t, dst.InTransitInBase.IsZero())
	assert.True(t, f.siteBalance(t, itemX, origin).InTransitOutBase.IsZero())
	f.assertConserved(t)
}

func TestShip_TodoONadaConStockInsuficiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 100)
	f.receipt(t, itemY, 5)
	tr := f.approved(t,
		transfer.CreateLine{ItemID: itemX, Quantity: dec(10)},
		transfer.CreateLine{ItemID: itemY, Quantity: dec(10)},
	)

	_, err := f.uc.Ship(ctx, tenant, user, tr.ID, transfer.ShipInput{Lines: []transfer.ShipLine{
		{LineID: tr.Lines[0].ID, SourceLocationID: srcLoc, Quantity: dec(10)},
		{LineID: tr.Lines[1].ID, SourceLocationID: srcLoc, Quantity: dec(10)},
	}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	x := f.siteBalance(t, itemX, origin)
	assert.True(t, x.OnHandBase.Equal(dec(100)), "ninguna línea queda despachada")
	assert.True(t, x.InTransitOutBase.IsZero())
	got, err := f.uc.Get(ctx, tenant, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status)
	f.assertConserved(t)
}

func TestShip_SoloDesdeApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 10)
	tr, err := f.uc.Create(ctx, transfer.CreateInput{
		TenantID: tenant, SourceWarehouseID: origin, DestinationWarehouseID: dest,
		Lines: []transfer.CreateLine{{ItemID: itemX, Quantity: dec(5)}},
	})
	require.NoError(t, err)

	_, err = f.uc.Ship(ctx, tenant, user, tr.ID, transfer.ShipInput{Lines: []transfer.ShipLine{
		{LineID: tr.Lines[0].ID, SourceLocationID: srcLoc, Quantity: dec(5)},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestReceive_ParcialDejaResiduoEnTransito(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 50)
	tr := f.approved(t, transfer.CreateLine{ItemID: itemX, Quantity: dec(50)})
	tr, err := f.uc.Ship(ctx, tenant, user, tr.ID, transfer.ShipInput{Lines: []transfer.ShipLine{
		{LineID: tr.Lines[0].ID, SourceLocationID: srcLoc, Quantity: dec(50)},
	}})
	require.NoError(t, err)

	tr, err = f.uc.Receive(ctx, tenant, user, tr.ID, []transfer.ReceiveLine{{
		LineID: tr.Lines[0].ID, DestinationLocationID: destLoc, Received: dec(30),
	}})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferShipped, tr.Status)
	assert.True(t, tr.Outstanding().Equal(dec(20)))
	assert.True(t, f.siteBalance(t, itemX, dest).InTransitInBase.Equal(dec(20)))

	_, err = f.uc.Receive(ctx, tenant, user, tr.ID, []transfer.ReceiveLine{{
		LineID: tr.Lines[0].ID, DestinationLocationID: destLoc, Received: dec(25),
	}})
	assert.ErrorIs(t, err, domain.ErrValidation, "no se recibe más de lo pendiente")

	tr, err = f.uc.WriteOff(ctx, tenant, user, tr.ID, "extraviado")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, tr.Status)
	assert.True(t, tr.Lines[0].QuantityDamaged.Equal(dec(20)))
	assert.True(t, f.siteBalance(t, itemX, dest).InTransitInBase.IsZero())
	f.assertConserved(t)
}

func TestCancel_DespachadaExigeMotivoYDevuelveAlOrigen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 40)
	tr := f.approved(t, transfer.CreateLine{ItemID: itemX, Quantity: dec(40)})
	tr, err := f.uc.Ship(ctx, tenant, user, tr.ID, transfer.ShipInput{Lines: []transfer.ShipLine{
		{LineID: tr.Lines[0].ID, SourceLocationID: srcLoc, Quantity: dec(40)},
	}})
	require.NoError(t, err)

	_, err = f.uc.Cancel(ctx, tenant, user, tr.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	tr, err = f.uc.Cancel(ctx, tenant, user, tr.ID, "camión averiado")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, tr.Status)
	assert.True(t, tr.Outstanding().IsZero())

	src := f.siteBalance(t, itemX, origin)
	assert.True(t, src.OnHandBase.Equal(dec(40)))
	assert.True(t, src.InTransitOutBase.IsZero())
	assert.True(t, f.siteBalance(t, itemX, dest).InTransitInBase.IsZero())
	f.assertConserved(t)
}

func TestCancel_DraftSinMovimientos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tr, err := f.uc.Create(ctx, transfer.CreateInput{
		TenantID: tenant, SourceWarehouseID: origin, DestinationWarehouseID: dest,
		Lines: []transfer.CreateLine{{ItemID: itemX, Quantity: dec(5)}},
	})
	require.NoError(t, err)

	tr, err = f.uc.Cancel(ctx, tenant, user, tr.ID, "")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferCancelled, tr.Status)

	_, err = f.ledger.GetBalance(ctx, tenant, itemX, origin, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no existe ningún movimiento")
}

// ──────────────────────────────────────────────────────────────────────────────
// Baja del residuo en tránsito
// ──────────────────────────────────────────────────────────────────────────────

func TestWriteOff_ResiduoTrasRecepcionParcial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 50)
	tr := f.approved(t, transfer.CreateLine{ItemID: itemX, Quantity: dec(40)})
	lineID := tr.Lines[0].ID

	tr, err := f.uc.Ship(ctx, tenant, user, tr.ID, transfer.ShipInput{
		Lines: []transfer.ShipLine{{LineID: lineID, SourceLocationID: srcLoc, Quantity: dec(40)}},
	})
	require.NoError(t, err)
	tr, err = f.uc.Receive(ctx, tenant, user, tr.ID, []transfer.ReceiveLine{{
		LineID: lineID, DestinationLocationID: destLoc, Received: dec(25),
	}})
	require.NoError(t, err)
	require.Equal(t, entity.TransferShipped, tr.Status, "la recepción parcial deja la transferencia en tránsito")

	_, err = f.uc.WriteOff(ctx, tenant, user, tr.ID, "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	tr, err = f.uc.WriteOff(ctx, tenant, user, tr.ID, "extraviado en ruta")
	require.NoError(t, err)
	assert.Equal(t, entity.TransferReceived, tr.Status)
	assert.NotNil(t, tr.ReceivedAt)
	assert.True(t, tr.Lines[0].QuantityDamaged.Equal(dec(15)))
	assert.True(t, tr.Outstanding().IsZero())

	src := f.siteBalance(t, itemX, origin)
	assert.True(t, src.OnHandBase.Equal(dec(10)))
	assert.True(t, src.InTransitOutBase.IsZero())
	dst := f.siteBalance(t, itemX, dest)
	assert.True(t, dst.OnHandBase.Equal(dec(25)))
	assert.True(t, dst.InTransitInBase.IsZero())

	movs, err := f.ledger.Read().Movements.ListByReference(ctx, tenant, entity.RefTransferOrderLine, lineID)
	require.NoError(t, err)
	var damage []*entity.MovementEntry
	for _, m := range movs {
		if m.Kind == entity.MovementTransferDamage {
			damage = append(damage, m)
		}
	}
	require.Len(t, damage, 2, "una entrada por cada lado del tránsito")
	for _, m := range damage {
		assert.Equal(t, "extraviado en ruta", m.Reason)
		assert.True(t, m.QuantityBase.Equal(dec(-15)))
	}
	f.assertConserved(t)
}

func TestWriteOff_SoloDesdeDespachada(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receipt(t, itemX, 10)
	tr := f.approved(t, transfer.CreateLine{ItemID: itemX, Quantity: dec(5)})

	_, err := f.uc.WriteOff(ctx, tenant, user, tr.ID, "sin despacho")
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	got, err := f.uc.Get(ctx, tenant, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TransferApproved, got.Status)
	assert.True(t, f.siteBalance(t, itemX, origin).OnHandBase.Equal(dec(10)))
}
