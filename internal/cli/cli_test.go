package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/pkg/config"
)

func memoryConfig() (*config.Config, error) {
	return &config.Config{
		App:   config.AppConfig{Env: "test", LogLevel: "error"},
		Store: config.StoreConfig{Driver: "memory"},
	}, nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(&RootOptions{loadConfig: memoryConfig})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseOpeningCSV_Latin1ConPuntoYComa(t *testing.T) {
	// "Tornillo añejo" en ISO-8859-1: ñ = 0xF1.
	data := []byte("sku;site_id;location_code;quantity;descripcion\nTOR-01;bodega;A-01;12,5;Tornillo a\xf1ejo\n\nCLV-02;bodega;A-02;3;Clavo\n")
	rows, err := ParseOpeningCSV(bytes.NewReader(data), "latin1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "TOR-01", rows[0].SKU)
	assert.Equal(t, "A-01", rows[0].LocationCode)
	assert.True(t, rows[0].Quantity.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "CLV-02", rows[1].SKU)
}

func TestParseOpeningCSV_ColumnaFaltante(t *testing.T) {
	_, err := ParseOpeningCSV(strings.NewReader("sku,site_id,quantity\nA,b,1\n"), "utf-8")
	assert.ErrorContains(t, err, "location_code")
}

func TestParseOpeningCSV_CantidadInvalida(t *testing.T) {
	_, err := ParseOpeningCSV(strings.NewReader("sku,site_id,location_code,quantity\nA,b,c,diez\n"), "")
	assert.ErrorContains(t, err, "línea 2")
}

func TestParseOpeningCSV_CodificacionDesconocida(t *testing.T) {
	_, err := ParseOpeningCSV(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestVerify_ExigeTenant(t *testing.T) {
	_, err := run(t, "verify")
	assert.ErrorContains(t, err, "--tenant")
}

func TestVerify_StoreVacioEsConsistente(t *testing.T) {
	out, err := run(t, "verify", "--tenant", "t1", "--format", "json")
	require.NoError(t, err)
	var got struct {
		Consistent bool `json:"consistent"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Consistent)
}

func TestRebuild_Texto(t *testing.T) {
	out, err := run(t, "rebuild", "--tenant", "t1")
	require.NoError(t, err)
	assert.Contains(t, out, "0 balances reconstruidos")
}

func TestMigrate_RequierePostgres(t *testing.T) {
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "postgres")
}

func TestFormatoInvalido(t *testing.T) {
	_, err := run(t, "rebuild", "--tenant", "t1", "--format", "yaml")
	assert.ErrorContains(t, err, "formato inválido")
}

func TestCreateUser_Json(t *testing.T) {
	out, err := run(t, "create-user", "--tenant", "t1", "--email", "admin@empresa.co", "--password", "secreto123", "--format", "json")
	require.NoError(t, err)
	var got struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "admin@empresa.co", got.Email)
	assert.Equal(t, "admin", got.Role)
}
