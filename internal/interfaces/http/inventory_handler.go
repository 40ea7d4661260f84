package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/adjustment"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
)

// InventoryHandler maneja movimientos manuales, consultas del libro y mantenimiento de la proyección.
type InventoryHandler struct {
	ledger    *ledger.Service
	movements *adjustment.RegisterMovementUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(l *ledger.Service, movements *adjustment.RegisterMovementUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: l, movements: movements}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento manual
// @Description  RECEIPT e ISSUE con cantidad positiva; COUNT_ADJUST con cantidad firmada y motivo.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "item_id, site_id, location_id, type, quantity, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.movements.RegisterMovement(c.Context(), adjustment.MovementInputDTO{
		TenantID:   tenantID,
		UserID:     userID,
		ItemID:     in.ItemID,
		SiteID:     in.SiteID,
		LocationID: in.LocationID,
		Type:       in.Type,
		Quantity:   in.Quantity,
		Reason:     in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id      query  string  true   "Item"
// @Param        site_id      query  string  false  "Bodega"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        limit        query  int     false  "Límite"  default(100)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	page := pageQuery(c).Normalize(dto.DefaultMovementLimit)
	filter := repository.MovementFilter{
		TenantID: tenantID,
		ItemID:   c.Query("item_id"),
		SiteID:   c.Query("site_id"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}
	if loc := c.Query("location_id"); loc != "" {
		filter.LocationID = &loc
	}
	list, err := h.ledger.ListMovements(c.Context(), filter)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.MovementListResponse{
		Items: make([]dto.MovementResponse, 0, len(list)),
		Page:  page.Echo(),
	}
	for _, m := range list {
		out.Items = append(out.Items, toMovementResponse(m))
	}
	return c.JSON(out)
}

// GetBalance godoc
// @Summary      Consultar balance
// @Description  Con location_id devuelve la fila de la ubicación; sin ella, el agregado de la bodega (incluye en tránsito).
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        item_id      query  string  true   "Item"
// @Param        site_id      query  string  true   "Bodega"
// @Param        location_id  query  string  false  "Ubicación"
// @Success      200  {object}  dto.BalanceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) GetBalance(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var loc *string
	if v := c.Query("location_id"); v != "" {
		loc = &v
	}
	b, err := h.ledger.GetBalance(c.Context(), tenantID, c.Query("item_id"), c.Query("site_id"), loc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toBalanceResponse(b))
}

// Verify godoc
// @Summary      Verificar la proyección contra el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.VerifyResponse
// @Router       /api/inventory/verify [post]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	drifts, err := h.ledger.Verify(c.Context(), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toVerifyResponse(drifts))
}

// Rebuild godoc
// @Summary      Reconstruir la proyección desde el libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/rebuild [post]
func (h *InventoryHandler) Rebuild(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	n, err := h.ledger.Rebuild(c.Context(), tenantID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.RebuildResponse{Balances: n})
}
