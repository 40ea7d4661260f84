package picking_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/picking"
)

func TestCreatePickTask_DevuelveUUID(t *testing.T) {
	c := picking.NewLocalCreator(zerolog.Nop())
	order := &entity.SalesOrder{ID: "o1", TenantID: "t1", Lines: []*entity.SalesOrderLine{{ID: "l1"}}}

	id, err := c.CreatePickTask(context.Background(), order)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestCreatePickTask_OrdenVacia(t *testing.T) {
	c := picking.NewLocalCreator(zerolog.Nop())
	_, err := c.CreatePickTask(context.Background(), &entity.SalesOrder{ID: "o1"})
	assert.Error(t, err)
}

func TestCreatePickTask_ContextoCancelado(t *testing.T) {
	c := picking.NewLocalCreator(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CreatePickTask(ctx, &entity.SalesOrder{ID: "o1", Lines: []*entity.SalesOrderLine{{ID: "l1"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
