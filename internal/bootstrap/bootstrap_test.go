package bootstrap_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/bootstrap"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

func TestBackorderPolicy(t *testing.T) {
	p, err := bootstrap.BackorderPolicy([]string{"ISSUE", "TRANSFER_SHIP"})
	require.NoError(t, err)
	assert.True(t, p.AllowNegative[entity.MovementIssue])
	assert.True(t, p.AllowNegative[entity.MovementTransferShip])
	assert.False(t, p.AllowNegative[entity.MovementReceipt])

	_, err = bootstrap.BackorderPolicy([]string{"VENDER"})
	assert.Error(t, err)
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "memory"}}
	s, err := bootstrap.OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer s.Close()
	assert.Nil(t, s.Pool)
	assert.NotNil(t, s.Read())
}

func TestOpenStore_DriverDesconocido(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mongo"}}
	_, err := bootstrap.OpenStore(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
