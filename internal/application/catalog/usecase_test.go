package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
)

func newUseCase() *catalog.UseCase {
	return catalog.NewUseCase(ledger.NewService(memory.NewStore()))
}

func TestCreateWarehouse_CodigoDuplicado(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	w, err := uc.CreateWarehouse(ctx, "t1", dto.CreateWarehouseRequest{Code: "BOG", Name: "Bogotá"})
	require.NoError(t, err)
	assert.NotEmpty(t, w.ID)

	_, err = uc.CreateWarehouse(ctx, "t1", dto.CreateWarehouseRequest{Code: "BOG", Name: "Otra"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.CreateWarehouse(ctx, "t2", dto.CreateWarehouseRequest{Code: "BOG", Name: "Otro tenant"})
	assert.NoError(t, err, "el código es único por tenant")
}

func TestCreateLocation_ExigeBodegaDelTenant(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	w, err := uc.CreateWarehouse(ctx, "t1", dto.CreateWarehouseRequest{Code: "MED", Name: "Medellín"})
	require.NoError(t, err)

	_, err = uc.CreateLocation(ctx, "t2", w.ID, dto.CreateLocationRequest{Code: "A-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.CreateLocation(ctx, "t1", w.ID, dto.CreateLocationRequest{Code: "B-01"})
	require.NoError(t, err)
	_, err = uc.CreateLocation(ctx, "t1", w.ID, dto.CreateLocationRequest{Code: "A-01"})
	require.NoError(t, err)

	list, err := uc.ListLocations(ctx, "t1", w.ID)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "A-01", list.Items[0].Code)
}

func TestCreateItem_UnidadBasePorDefecto(t *testing.T) {
	uc := newUseCase()
	ctx := context.Background()
	it, err := uc.CreateItem(ctx, "t1", dto.CreateItemRequest{SKU: "SKU-1", Name: "Tornillo"})
	require.NoError(t, err)
	assert.Equal(t, "UND", it.BaseUoM)

	_, err = uc.CreateItem(ctx, "t1", dto.CreateItemRequest{SKU: " ", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	page, err := uc.ListItems(ctx, "t1", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 20, page.Page.Limit)
}
