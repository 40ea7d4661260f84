package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/Inventario-ledger/internal/application/allocation"
	"github.com/jhoicas/Inventario-ledger/internal/application/auth"
	"github.com/jhoicas/Inventario-ledger/internal/application/catalog"
	"github.com/jhoicas/Inventario-ledger/internal/application/cyclecount"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/application/transfer"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger           *ledger.Service
	Catalog          *catalog.UseCase
	RegisterMovement *adjustment.RegisterMovementUseCase
	Allocation       *allocation.UseCase
	Transfers        *transfer.UseCase
	CycleCounts      *cyclecount.UseCase
	AuthUC           *auth.AuthUseCase
	JWTSecret        string
}

// Router registra las rutas de la API. Salvo login, todas requieren Bearer Token; las escrituras además rol.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	admin := RequireRole(RoleAdmin)
	warehouse := RequireRole(RoleAdmin, RoleBodeguero)
	sales := RequireRole(RoleAdmin, RoleVendedor)
	fulfilment := RequireRole(RoleAdmin, RoleVendedor, RoleBodeguero)

	// Usuarios del tenant
	users := protected.Group("/users", admin)
	users.Post("/", authHandler.Register)
	users.Get("/", authHandler.List)

	// Maestros
	catalogHandler := NewCatalogHandler(deps.Catalog)
	warehouses := protected.Group("/warehouses")
	warehouses.Get("/", catalogHandler.ListWarehouses)
	warehouses.Post("/", admin, catalogHandler.CreateWarehouse)
	warehouses.Get("/:id", catalogHandler.GetWarehouse)
	warehouses.Get("/:id/locations", catalogHandler.ListLocations)
	warehouses.Post("/:id/locations", admin, catalogHandler.CreateLocation)
	items := protected.Group("/items")
	items.Get("/", catalogHandler.ListItems)
	items.Post("/", admin, catalogHandler.CreateItem)
	items.Get("/:id", catalogHandler.GetItem)

	// Libro y proyección
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.RegisterMovement)
	inv := protected.Group("/inventory")
	inv.Post("/movements", warehouse, inventoryHandler.RegisterMovement)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/balances", inventoryHandler.GetBalance)
	inv.Post("/verify", admin, inventoryHandler.Verify)
	inv.Post("/rebuild", admin, inventoryHandler.Rebuild)

	// Órdenes de venta
	orderHandler := NewSalesOrderHandler(deps.Allocation)
	orders := protected.Group("/sales-orders")
	orders.Post("/", sales, orderHandler.Create)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Post("/:id/confirm", sales, orderHandler.Confirm)
	orders.Post("/:id/allocate", sales, orderHandler.Allocate)
	orders.Post("/lines/:lineId/deallocate", sales, orderHandler.Deallocate)
	orders.Post("/:id/pick", fulfilment, orderHandler.StartPicking)
	orders.Post("/:id/pack", fulfilment, orderHandler.MarkPacked)
	orders.Post("/:id/ship", fulfilment, orderHandler.Ship)
	orders.Post("/:id/deliver", fulfilment, orderHandler.Deliver)
	orders.Post("/:id/cancel", sales, orderHandler.Cancel)

	// Transferencias
	transferHandler := NewTransferHandler(deps.Transfers)
	transfers := protected.Group("/transfers")
	transfers.Post("/", warehouse, transferHandler.Create)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Post("/:id/approve", admin, transferHandler.Approve)
	transfers.Post("/:id/ship", warehouse, transferHandler.Ship)
	transfers.Post("/:id/receive", warehouse, transferHandler.Receive)
	transfers.Post("/:id/cancel", warehouse, transferHandler.Cancel)
	transfers.Post("/:id/write-off", admin, transferHandler.WriteOff)

	// Conteos cíclicos
	countHandler := NewCycleCountHandler(deps.CycleCounts)
	counts := protected.Group("/cycle-counts")
	counts.Post("/", warehouse, countHandler.Schedule)
	counts.Get("/:id", countHandler.GetByID)
	counts.Post("/lines/:lineId/count", warehouse, countHandler.RecordCount)
	counts.Post("/lines/:lineId/approve", admin, countHandler.ApproveVariance)
}
