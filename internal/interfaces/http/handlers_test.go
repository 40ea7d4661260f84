package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/Inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/Inventario-ledger/internal/application/allocation"
	"github.com/jhoicas/Inventario-ledger/internal/application/auth"
	"github.com/jhoicas/Inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/Inventario-ledger/internal/application/cyclecount"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/application/transfer"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/picking"
	apphttp "github.com/jhoicas/Inventario-ledger/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	apiSite = "bodega-central"
	apiLoc  = "loc-a01"
	apiItem = "item-tornillo"
)

func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	store.AddWarehouse(&entity.Warehouse{ID: apiSite, TenantID: testTenantID, Code: "BC", Name: "Central"})
	store.AddLocation(&entity.Location{ID: apiLoc, TenantID: testTenantID, SiteID: apiSite, Code: "A-01"})
	store.AddItem(&entity.Item{ID: apiItem, TenantID: testTenantID, SKU: "TOR-01", BaseUoM: "UND"})

	log := zerolog.Nop()
	l := ledger.NewService(store)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:           l,
		Catalog:          catalog.NewUseCase(l),
		RegisterMovement: adjustment.NewRegisterMovementUseCase(l, log),
		Allocation:       allocation.NewUseCase(l, picking.NewLocalCreator(log), log),
		Transfers:        transfer.NewUseCase(l, log),
		CycleCounts:      cyclecount.NewUseCase(l, log),
		AuthUC:           auth.NewAuthUseCase(l, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer, HashCost: bcrypt.MinCost}),
		JWTSecret:        testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func receive(t *testing.T, app *fiber.App, qty int64) {
	t.Helper()
	status := call(t, app, http.MethodPost, "/api/inventory/movements", apphttp.RoleBodeguero, dto.RegisterMovementRequest{
		ItemID: apiItem, SiteID: apiSite, LocationID: apiLoc, Type: "RECEIPT", Quantity: decimal.NewFromInt(qty),
	}, nil)
	require.Equal(t, fiber.StatusCreated, status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_SinTokenRetorna401(t *testing.T) {
	app := buildAPI(t)
	status := call(t, app, http.MethodGet, "/api/inventory/balances?item_id="+apiItem+"&site_id="+apiSite, "", nil, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAPI_MovimientoYBalance(t *testing.T) {
	app := buildAPI(t)
	receive(t, app, 25)

	var b dto.BalanceResponse
	status := call(t, app, http.MethodGet, "/api/inventory/balances?item_id="+apiItem+"&site_id="+apiSite, apphttp.RoleVendedor, nil, &b)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, b.OnHand.Equal(decimal.NewFromInt(25)))
	assert.True(t, b.Available.Equal(decimal.NewFromInt(25)))

	var list dto.MovementListResponse
	status = call(t, app, http.MethodGet, "/api/inventory/movements?item_id="+apiItem, apphttp.RoleVendedor, nil, &list)
	require.Equal(t, fiber.StatusOK, status)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "RECEIPT", list.Items[0].Kind)
}

func TestAPI_SalidaSinStockRetorna422(t *testing.T) {
	app := buildAPI(t)
	receive(t, app, 5)

	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/inventory/movements", apphttp.RoleBodeguero, dto.RegisterMovementRequest{
		ItemID: apiItem, SiteID: apiSite, LocationID: apiLoc, Type: "ISSUE", Quantity: decimal.NewFromInt(6),
	}, &e)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
}

func TestAPI_AjusteSinMotivoRetorna400(t *testing.T) {
	app := buildAPI(t)
	var e dto.ErrorResponse
	status := call(t, app, http.MethodPost, "/api/inventory/movements", apphttp.RoleAdmin, dto.RegisterMovementRequest{
		ItemID: apiItem, SiteID: apiSite, LocationID: apiLoc, Type: "COUNT_ADJUST", Quantity: decimal.NewFromInt(3),
	}, &e)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestAPI_VendedorNoRegistraMovimientos(t *testing.T) {
	app := buildAPI(t)
	status := call(t, app, http.MethodPost, "/api/inventory/movements", apphttp.RoleVendedor, dto.RegisterMovementRequest{
		ItemID: apiItem, SiteID: apiSite, LocationID: apiLoc, Type: "RECEIPT", Quantity: decimal.NewFromInt(1),
	}, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestAPI_OrdenAsignacionParcialYTransicionInvalida(t *testing.T) {
	app := buildAPI(t)
	receive(t, app, 30)

	var order dto.SalesOrderResponse
	status := call(t, app, http.MethodPost, "/api/sales-orders", apphttp.RoleVendedor, dto.CreateSalesOrderRequest{
		SiteID: apiSite, Number: "SO-1",
		Lines: []dto.SalesOrderLineRequest{{ItemID: apiItem, Quantity: decimal.NewFromInt(50)}},
	}, &order)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "DRAFT", order.Status)

	// Asignar una orden en DRAFT no es una transición válida.
	var e dto.ErrorResponse
	status = call(t, app, http.MethodPost, "/api/sales-orders/"+order.ID+"/allocate", apphttp.RoleVendedor, nil, &e)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INVALID_STATE_TRANSITION", e.Code)

	status = call(t, app, http.MethodPost, "/api/sales-orders/"+order.ID+"/confirm", apphttp.RoleVendedor, nil, nil)
	require.Equal(t, fiber.StatusOK, status)

	var res dto.AllocationResponse
	status = call(t, app, http.MethodPost, "/api/sales-orders/"+order.ID+"/allocate", apphttp.RoleVendedor, nil, &res)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, res.FullyAllocated)
	require.Len(t, res.Shortfalls, 1)
	assert.True(t, res.Shortfalls[0].ShortQty.Equal(decimal.NewFromInt(20)))
	assert.True(t, res.Order.Lines[0].QtyAllocated.Equal(decimal.NewFromInt(30)))

	var b dto.BalanceResponse
	status = call(t, app, http.MethodGet, "/api/inventory/balances?item_id="+apiItem+"&site_id="+apiSite+"&location_id="+apiLoc, apphttp.RoleAdmin, nil, &b)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, b.Reserved.Equal(decimal.NewFromInt(30)))
	assert.True(t, b.Available.IsZero())
}

func TestAPI_OrdenInexistenteRetorna404(t *testing.T) {
	app := buildAPI(t)
	var e dto.ErrorResponse
	status := call(t, app, http.MethodGet, "/api/sales-orders/no-existe", apphttp.RoleAdmin, nil, &e)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", e.Code)
}

func TestAPI_CatalogoDuplicadoRetorna409(t *testing.T) {
	app := buildAPI(t)
	body := dto.CreateWarehouseRequest{Code: "NORTE", Name: "Bodega Norte"}

	var w dto.WarehouseResponse
	require.Equal(t, fiber.StatusCreated, call(t, app, http.MethodPost, "/api/warehouses", apphttp.RoleAdmin, body, &w))
	assert.NotEmpty(t, w.ID)

	var e dto.ErrorResponse
	assert.Equal(t, fiber.StatusConflict, call(t, app, http.MethodPost, "/api/warehouses", apphttp.RoleAdmin, body, &e))
	assert.Equal(t, "DUPLICATE", e.Code)

	assert.Equal(t, fiber.StatusForbidden, call(t, app, http.MethodPost, "/api/warehouses", apphttp.RoleBodeguero, body, nil))
}

func TestAPI_ConteoCiclicoAjustaConAprobacionDeAdmin(t *testing.T) {
	app := buildAPI(t)
	receive(t, app, 100)

	var cc dto.CycleCountResponse
	status := call(t, app, http.MethodPost, "/api/cycle-counts", apphttp.RoleBodeguero, dto.ScheduleCycleCountRequest{
		SiteID: apiSite, Lines: []dto.CycleCountLineRequest{{ItemID: apiItem, LocationID: apiLoc}},
	}, &cc)
	require.Equal(t, fiber.StatusCreated, status)
	require.Len(t, cc.Lines, 1)
	lineID := cc.Lines[0].ID

	status = call(t, app, http.MethodPost, "/api/cycle-counts/lines/"+lineID+"/count", apphttp.RoleBodeguero,
		dto.RecordCountRequest{Counted: decimal.NewFromInt(97)}, nil)
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, fiber.StatusForbidden, call(t, app, http.MethodPost, "/api/cycle-counts/lines/"+lineID+"/approve",
		apphttp.RoleBodeguero, dto.ApproveVarianceRequest{Adjust: true}, nil))
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPost, "/api/cycle-counts/lines/"+lineID+"/approve",
		apphttp.RoleAdmin, dto.ApproveVarianceRequest{Adjust: true}, nil))

	var b dto.BalanceResponse
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodGet,
		"/api/inventory/balances?item_id="+apiItem+"&site_id="+apiSite, apphttp.RoleAdmin, nil, &b))
	assert.True(t, b.OnHand.Equal(decimal.NewFromInt(97)))

	var v dto.VerifyResponse
	require.Equal(t, fiber.StatusOK, call(t, app, http.MethodPost, "/api/inventory/verify", apphttp.RoleAdmin, nil, &v))
	assert.Empty(t, v.Drifts)
}

func TestAPI_AltaDeUsuarioYLogin(t *testing.T) {
	app := buildAPI(t)
	reg := dto.RegisterRequest{Email: "bodega@empresa.co", Password: "secreto123", Role: apphttp.RoleBodeguero}

	assert.Equal(t, fiber.StatusForbidden, call(t, app, http.MethodPost, "/api/users", apphttp.RoleVendedor, reg, nil))
	require.Equal(t, fiber.StatusCreated, call(t, app, http.MethodPost, "/api/users", apphttp.RoleAdmin, reg, nil))

	var login dto.LoginResponse
	status := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		TenantID: testTenantID, Email: reg.Email, Password: reg.Password,
	}, &login)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, apphttp.RoleBodeguero, login.User.Role)

	status = call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{
		TenantID: testTenantID, Email: reg.Email, Password: "incorrecta",
	}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
