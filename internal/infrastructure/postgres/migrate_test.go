package postgres

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/postgres/migrations"
)

func TestUpSection_SeparaUpDeDown(t *testing.T) {
	sql := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := upSection(sql)
	assert.Contains(t, up, "CREATE TABLE a")
	assert.NotContains(t, up, "DROP TABLE")

	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"), "sin marcas se aplica el archivo completo")
}

func TestMigraciones_EmbebidasYOrdenadas(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	content, err := fs.ReadFile(migrations.FS, entries[0].Name())
	require.NoError(t, err)
	up := upSection(string(content))
	for _, table := range []string{"movements", "balances", "sales_orders", "transfer_orders", "cycle_counts"} {
		assert.True(t, strings.Contains(up, "CREATE TABLE IF NOT EXISTS "+table+" "), "falta la tabla %s", table)
	}
	assert.Contains(t, up, "balances_key", "el upsert de balances depende del nombre del constraint")
	assert.Contains(t, up, "movements_no_update", "el libro no admite UPDATE")
}

func TestMapError_ConflictosSonConcurrentModification(t *testing.T) {
	for _, code := range []string{"55P03", "40001", "40P01"} {
		err := fmt.Errorf("get balance for update: %w", &pgconn.PgError{Code: code})
		assert.ErrorIs(t, mapError(err), domain.ErrConcurrentModification, code)
	}

	other := &pgconn.PgError{Code: "23505"}
	assert.False(t, errors.Is(mapError(other), domain.ErrConcurrentModification))
	assert.True(t, isUniqueViolation(other))
	assert.NoError(t, mapError(nil))
}

func TestNullString(t *testing.T) {
	assert.Nil(t, nullString(""))
	require.NotNil(t, nullString("x"))
	assert.Equal(t, "x", derefString(nullString("x")))
}
