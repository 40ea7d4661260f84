package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/allocation"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// SalesOrderHandler ciclo de vida de la orden de venta y asignación de stock.
type SalesOrderHandler struct {
	uc *allocation.UseCase
}

// NewSalesOrderHandler construye el handler.
func NewSalesOrderHandler(uc *allocation.UseCase) *SalesOrderHandler {
	return &SalesOrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear orden de venta (DRAFT)
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSalesOrderRequest  true  "site_id, number, lines"
// @Success      201   {object}  dto.SalesOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sales-orders [post]
func (h *SalesOrderHandler) Create(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateSalesOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := allocation.CreateOrderInput{TenantID: tenantID, UserID: userID, SiteID: in.SiteID, Number: in.Number}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, allocation.CreateOrderLine{ItemID: l.ItemID, QtyOrdered: l.Quantity})
	}
	o, err := h.uc.CreateOrder(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSalesOrderResponse(o))
}

// GetByID godoc
// @Summary      Obtener orden de venta
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	o, err := h.uc.GetOrder(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

// Confirm godoc
// @Summary      Confirmar orden (DRAFT → CONFIRMED)
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/confirm [post]
func (h *SalesOrderHandler) Confirm(c *fiber.Ctx) error {
	return h.simple(c, h.uc.ConfirmOrder)
}

// Allocate godoc
// @Summary      Asignar stock a la orden
// @Description  Reserva por línea lo disponible; lo no cubierto se informa como faltante.
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.AllocationResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/allocate [post]
func (h *SalesOrderHandler) Allocate(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	res, err := h.uc.Allocate(c.Context(), tenantID, userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAllocationResponse(res))
}

// Deallocate godoc
// @Summary      Liberar la reserva de una línea
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        lineId  path  string  true  "ID de la línea"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/lines/{lineId}/deallocate [post]
func (h *SalesOrderHandler) Deallocate(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	o, err := h.uc.Deallocate(c.Context(), tenantID, userID, c.Params("lineId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

// StartPicking godoc
// @Summary      Iniciar picking (ALLOCATED → PICKING)
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/pick [post]
func (h *SalesOrderHandler) StartPicking(c *fiber.Ctx) error {
	return h.simple(c, h.uc.StartPicking)
}

// MarkPacked godoc
// @Summary      Marcar empacada (PICKING → PACKED)
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/pack [post]
func (h *SalesOrderHandler) MarkPacked(c *fiber.Ctx) error {
	return h.simple(c, h.uc.MarkPacked)
}

// Ship godoc
// @Summary      Despachar líneas de la orden
// @Description  Consume la reserva y descuenta OnHand por ubicación.
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID de la orden"
// @Param        body  body  dto.ShipOrderRequest  true  "líneas y cantidades"
// @Success      200   {object}  dto.SalesOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/ship [post]
func (h *SalesOrderHandler) Ship(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ShipOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]allocation.ShipLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, allocation.ShipLine{LineID: l.LineID, Quantity: l.Quantity})
	}
	o, err := h.uc.ShipOrderLines(c.Context(), tenantID, userID, c.Params("id"), lines)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

// Deliver godoc
// @Summary      Confirmar entrega (SHIPPED → DELIVERED)
// @Tags         sales-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.SalesOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/deliver [post]
func (h *SalesOrderHandler) Deliver(c *fiber.Ctx) error {
	return h.simple(c, h.uc.DeliverOrder)
}

// Cancel godoc
// @Summary      Cancelar orden antes del despacho
// @Description  Libera todas las reservas en la misma transacción.
// @Tags         sales-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID de la orden"
// @Param        body  body  dto.ReasonRequest  false  "motivo"
// @Success      200   {object}  dto.SalesOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/sales-orders/{id}/cancel [post]
func (h *SalesOrderHandler) Cancel(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	o, err := h.uc.CancelOrder(c.Context(), tenantID, userID, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}

func (h *SalesOrderHandler) simple(c *fiber.Ctx, fn func(ctx context.Context, tenantID, orderID string) (*entity.SalesOrder, error)) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	o, err := fn(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toSalesOrderResponse(o))
}
