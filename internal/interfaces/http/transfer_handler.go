package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
	"github.com/jhoicas/Inventario-ledger/internal/application/transfer"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

// TransferHandler transferencias entre bodegas: aprobación, despacho, recepción y cierre.
type TransferHandler struct {
	uc *transfer.UseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Create godoc
// @Summary      Crear transferencia (DRAFT)
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino y líneas"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := transfer.CreateInput{
		TenantID:               tenantID,
		UserID:                 userID,
		SourceWarehouseID:      in.SourceWarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, transfer.CreateLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	t, err := h.uc.Create(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(t))
}

// GetByID godoc
// @Summary      Obtener transferencia
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	t, err := h.uc.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Approve godoc
// @Summary      Aprobar transferencia (DRAFT → APPROVED)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la transferencia"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/approve [post]
func (h *TransferHandler) Approve(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	t, err := h.uc.Approve(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Ship godoc
// @Summary      Despachar transferencia
// @Description  Todas las líneas o ninguna: el stock pasa del origen a en tránsito.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la transferencia"
// @Param        body  body  dto.ShipTransferRequest  true  "transportadora, guía y líneas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/ship [post]
func (h *TransferHandler) Ship(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ShipTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := transfer.ShipInput{Carrier: in.Carrier, TrackingNumber: in.TrackingNumber}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, transfer.ShipLine{LineID: l.LineID, SourceLocationID: l.SourceLocationID, Quantity: l.Quantity})
	}
	t, err := h.uc.Ship(c.Context(), tenantID, userID, c.Params("id"), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Receive godoc
// @Summary      Recibir transferencia
// @Description  Lo recibido entra al destino; lo dañado sale de en tránsito sin entrar al stock.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID de la transferencia"
// @Param        body  body  dto.ReceiveTransferRequest  true  "líneas recibidas"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ReceiveTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]transfer.ReceiveLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, transfer.ReceiveLine{
			LineID:                l.LineID,
			DestinationLocationID: l.DestinationLocationID,
			Received:              l.Received,
			Damaged:               l.Damaged,
		})
	}
	t, err := h.uc.Receive(c.Context(), tenantID, userID, c.Params("id"), lines)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Cancel godoc
// @Summary      Cancelar transferencia
// @Description  Despachada: exige motivo y devuelve lo pendiente al origen.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "ID de la transferencia"
// @Param        body  body  dto.ReasonRequest  false  "motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	return h.withReason(c, h.uc.Cancel)
}

// WriteOff godoc
// @Summary      Dar de baja lo pendiente en tránsito
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la transferencia"
// @Param        body  body  dto.ReasonRequest  true  "motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/write-off [post]
func (h *TransferHandler) WriteOff(c *fiber.Ctx) error {
	return h.withReason(c, h.uc.WriteOff)
}

func (h *TransferHandler) withReason(c *fiber.Ctx, fn func(ctx context.Context, tenantID, userID, id, reason string) (*entity.TransferOrder, error)) error {
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
	t, err := fn(c.Context(), tenantID, userID, c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}
