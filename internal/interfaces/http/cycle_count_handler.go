package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Inventario-ledger/internal/application/cyclecount"
	"github.com/jhoicas/Inventario-ledger/internal/application/dto"
)

// CycleCountHandler conteos cíclicos: programación, conteo y aprobación de varianzas.
type CycleCountHandler struct {
	uc *cyclecount.UseCase
}

// NewCycleCountHandler construye el handler.
func NewCycleCountHandler(uc *cyclecount.UseCase) *CycleCountHandler {
	return &CycleCountHandler{uc: uc}
}

// Schedule godoc
// @Summary      Programar conteo cíclico
// @Description  Toma la foto de OnHand de cada item/ubicación como cantidad esperada.
// @Tags         cycle-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ScheduleCycleCountRequest  true  "bodega y líneas"
// @Success      201   {object}  dto.CycleCountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/cycle-counts [post]
func (h *CycleCountHandler) Schedule(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ScheduleCycleCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := cyclecount.ScheduleInput{TenantID: tenantID, UserID: userID, SiteID: in.SiteID}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, cyclecount.ScheduleLine{ItemID: l.ItemID, LocationID: l.LocationID})
	}
	cc, err := h.uc.Schedule(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCycleCountResponse(cc))
}

// GetByID godoc
// @Summary      Obtener conteo cíclico
// @Tags         cycle-counts
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del conteo"
// @Success      200  {object}  dto.CycleCountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/{id} [get]
func (h *CycleCountHandler) GetByID(c *fiber.Ctx) error {
	tenantID, _, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	cc, err := h.uc.Get(c.Context(), tenantID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCycleCountResponse(cc))
}

// RecordCount godoc
// @Summary      Registrar cantidad contada
// @Description  No escribe en el libro; solo calcula la varianza.
// @Tags         cycle-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        lineId  path  string                  true  "ID de la línea"
// @Param        body    body  dto.RecordCountRequest  true  "cantidad contada"
// @Success      200     {object}  dto.CycleCountLineResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/lines/{lineId}/count [post]
func (h *CycleCountHandler) RecordCount(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.RecordCountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	line, err := h.uc.RecordCount(c.Context(), tenantID, userID, c.Params("lineId"), in.Counted)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCycleCountLineResponse(line))
}

// ApproveVariance godoc
// @Summary      Aprobar varianza
// @Description  Con adjust=true emite COUNT_ADJUST por la varianza. Una línea aprobada no se vuelve a ajustar.
// @Tags         cycle-counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        lineId  path  string                      true  "ID de la línea"
// @Param        body    body  dto.ApproveVarianceRequest  true  "adjust"
// @Success      200     {object}  dto.CycleCountLineResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Failure      422     {object}  dto.ErrorResponse
// @Router       /api/cycle-counts/lines/{lineId}/approve [post]
func (h *CycleCountHandler) ApproveVariance(c *fiber.Ctx) error {
	tenantID, userID, ok := session(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ApproveVarianceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	line, err := h.uc.ApproveVariance(c.Context(), tenantID, userID, c.Params("lineId"), in.Adjust)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toCycleCountLineResponse(line))
}
