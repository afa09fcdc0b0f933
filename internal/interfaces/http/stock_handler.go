package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del ledger de stock (protegido).
type StockHandler struct {
	coord         *inventory.StockCoordinator
	report        *inventory.LedgerReportUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewStockHandler construye el handler. report puede ser nil: el kardex PDF responde 404.
func NewStockHandler(
	coord *inventory.StockCoordinator,
	report *inventory.LedgerReportUseCase,
	replenishment *inventory.ReplenishmentUseCase,
) *StockHandler {
	return &StockHandler{coord: coord, report: report, replenishment: replenishment}
}

// Create godoc
// @Summary      Crear registro de stock
// @Description  Un registro por producto y bodega. Si initial_quantity > 0 queda un movimiento RECEIVE "stock inicial".
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateStockRequest  true  "product_id, warehouse_id, initial_quantity, safety_stock"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stocks [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.CreateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.coord.CreateStock(c.UserContext(), inventory.CreateStockCommand{
		TenantID:        companyID,
		UserID:          GetUserID(c),
		ProductID:       in.ProductID,
		WarehouseID:     in.WarehouseID,
		InitialQuantity: in.InitialQuantity,
		SafetyStock:     in.SafetyStock,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res.Stock)
}

// List godoc
// @Summary      Listar stock
// @Description  Filtra por estado derivado (status) o busca por product_id + warehouse_id.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        status        query     string  false  "NORMAL | LOW | OUT_OF_STOCK | OVERSTOCK"
// @Param        product_id    query     string  false  "Producto (requiere warehouse_id)"
// @Param        warehouse_id  query     string  false  "Bodega (requiere product_id)"
// @Param        limit         query     int     false  "Máximo 100, por defecto 20"
// @Param        offset        query     int     false  "Desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	if productID != "" || warehouseID != "" {
		rec, err := h.coord.GetStockByProductAndWarehouse(c.UserContext(), companyID, productID, warehouseID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(dto.StockListResponse{Items: []dto.StockResponse{*rec}, Page: dto.PageResponse{Limit: 1, Total: 1}})
	}

	page := pageFromQuery(c)
	var (
		list *dto.StockListResponse
		err  error
	)
	if status := c.Query("status"); status != "" {
		list, err = h.coord.ListStocksByStatus(c.UserContext(), companyID, status, page)
	} else {
		list, err = h.coord.ListStocks(c.UserContext(), companyID, page)
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// ListLow godoc
// @Summary      Stock bajo
// @Description  Registros con disponible por debajo del stock de seguridad.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        limit   query     int  false  "Máximo 100, por defecto 20"
// @Param        offset  query     int  false  "Desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stocks/low [get]
func (h *StockHandler) ListLow(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.coord.ListLowStock(c.UserContext(), companyID, pageFromQuery(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// Summary godoc
// @Summary      Resumen del inventario
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Router       /api/stocks/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	sum, err := h.coord.Summary(c.UserContext(), companyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sum)
}

// Replenishment godoc
// @Summary      Lista de reposición
// @Description  Registros agotados o bajo el stock de seguridad con la cantidad sugerida de pedido.
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query     string  false  "Filtrar por bodega. Vacío = todas."
// @Success      200  {object}  dto.ReplenishmentListResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/stocks/replenishment [get]
func (h *StockHandler) Replenishment(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext(), companyID, c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReplenishmentListResponse{Total: len(list), Replenishments: list})
}

// GetByID godoc
// @Summary      Obtener registro de stock
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del registro"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	rec, err := h.coord.GetStock(c.UserContext(), companyID, stockIDParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(rec)
}

// Receive godoc
// @Summary      Recibir unidades
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID del registro"
// @Param        body  body      dto.QuantityRequest  true  "quantity, reference_id (orden de compra)"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/receive [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	return h.quantityCommand(c, func(tenantID, userID string, id entity.StockID, in dto.QuantityRequest) (*inventory.CommandResult, error) {
		return h.coord.ReceiveStock(c.UserContext(), inventory.ReceiveStockCommand{
			TenantID: tenantID, UserID: userID, StockID: id, Quantity: in.Quantity, ReferenceID: in.ReferenceID,
		})
	})
}

// Reserve godoc
// @Summary      Reservar unidades para un pedido
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID del registro"
// @Param        body  body      dto.QuantityRequest  true  "quantity, reference_id (pedido)"
// @Success      200   {object}  dto.StockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	return h.quantityCommand(c, func(tenantID, userID string, id entity.StockID, in dto.QuantityRequest) (*inventory.CommandResult, error) {
		return h.coord.ReserveStock(c.UserContext(), inventory.ReserveStockCommand{
			TenantID: tenantID, UserID: userID, StockID: id, Quantity: in.Quantity, OrderRef: in.ReferenceID,
		})
	})
}

// Release godoc
// @Summary      Liberar una reserva
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID del registro"
// @Param        body  body      dto.QuantityRequest  true  "quantity, reference_id"
// @Success      200   {object}  dto.StockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	return h.quantityCommand(c, func(tenantID, userID string, id entity.StockID, in dto.QuantityRequest) (*inventory.CommandResult, error) {
		return h.coord.ReleaseStock(c.UserContext(), inventory.ReleaseStockCommand{
			TenantID: tenantID, UserID: userID, StockID: id, Quantity: in.Quantity, ReferenceID: in.ReferenceID,
		})
	})
}

// Ship godoc
// @Summary      Despachar unidades reservadas
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string               true  "ID del registro"
// @Param        body  body      dto.QuantityRequest  true  "quantity, reference_id (pedido)"
// @Success      200   {object}  dto.StockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/ship [post]
func (h *StockHandler) Ship(c *fiber.Ctx) error {
	return h.quantityCommand(c, func(tenantID, userID string, id entity.StockID, in dto.QuantityRequest) (*inventory.CommandResult, error) {
		return h.coord.ShipStock(c.UserContext(), inventory.ShipStockCommand{
			TenantID: tenantID, UserID: userID, StockID: id, Quantity: in.Quantity, OrderRef: in.ReferenceID,
		})
	})
}

// Adjust godoc
// @Summary      Ajuste manual de inventario
// @Description  delta positivo o negativo con motivo obligatorio. Solo admin o bodeguero.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "ID del registro"
// @Param        body  body      dto.AdjustStockRequest  true  "delta, reason"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.coord.AdjustStock(c.UserContext(), inventory.AdjustStockCommand{
		TenantID: companyID,
		UserID:   GetUserID(c),
		StockID:  stockIDParam(c),
		Delta:    in.Delta,
		Reason:   in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res.Stock)
}

// Allocate godoc
// @Summary      Asignar unidades a un canal de venta
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                        true  "ID del registro"
// @Param        body  body      dto.ChannelAllocationRequest  true  "channel_id, quantity"
// @Success      200   {object}  dto.StockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/channels/allocate [post]
func (h *StockHandler) Allocate(c *fiber.Ctx) error {
	return h.channelCommand(c, h.coord.AllocateToChannel)
}

// Deallocate godoc
// @Summary      Devolver al disponible unidades asignadas a un canal
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path      string                        true  "ID del registro"
// @Param        body  body      dto.ChannelAllocationRequest  true  "channel_id, quantity"
// @Success      200   {object}  dto.StockResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/channels/deallocate [post]
func (h *StockHandler) Deallocate(c *fiber.Ctx) error {
	return h.channelCommand(c, h.coord.DeallocateFromChannel)
}

// Transfer godoc
// @Summary      Trasladar unidades entre registros
// @Description  Sale del origen (TRANSFER_OUT) y entra al destino (TRANSFER_IN) con la misma referencia.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TransferStockRequest  true  "from_stock_id, to_stock_id, quantity, reference_id"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stocks/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.coord.TransferStock(c.UserContext(), inventory.TransferStockCommand{
		TenantID:    companyID,
		UserID:      GetUserID(c),
		FromStockID: entity.StockID(in.FromStockID),
		ToStockID:   entity.StockID(in.ToStockID),
		Quantity:    in.Quantity,
		ReferenceID: in.ReferenceID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.TransferResponse{
		ReferenceID: res.ReferenceID,
		From:        *res.From.Stock,
		To:          *res.To.Stock,
	})
}

// Movements godoc
// @Summary      Movimientos del registro
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del registro"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.coord.ListMovements(c.UserContext(), companyID, stockIDParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// VerifyLedger godoc
// @Summary      Verificar ledger
// @Description  Reproduce los movimientos y compara con las cantidades actuales.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del registro"
// @Success      200  {object}  dto.LedgerCheckResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/movements/verify [get]
func (h *StockHandler) VerifyLedger(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	check, err := h.coord.VerifyLedger(c.UserContext(), companyID, stockIDParam(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(check)
}

// LedgerPDF godoc
// @Summary      Kardex en PDF
// @Tags         movements
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path      string  true  "ID del registro"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/ledger.pdf [get]
func (h *StockHandler) LedgerPDF(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	if h.report == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "kardex no disponible"})
	}
	pdf, filename, err := h.report.GenerateLedgerPDF(c.UserContext(), companyID, stockIDParam(c))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdf)
}

// MovementsByReference godoc
// @Summary      Movimientos por referencia
// @Description  Todos los movimientos de un pedido o traslado.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        reference_id  query     string  true  "Pedido, orden o referencia de traslado"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/movements [get]
func (h *StockHandler) MovementsByReference(c *fiber.Ctx) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	ref := c.Query("reference_id")
	if ref == "" {
		return badRequest(c, "VALIDATION", "reference_id requerido")
	}
	list, err := h.coord.ListMovementsByReference(c.UserContext(), companyID, ref)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

type quantityFn func(tenantID, userID string, id entity.StockID, in dto.QuantityRequest) (*inventory.CommandResult, error)

func (h *StockHandler) quantityCommand(c *fiber.Ctx, run quantityFn) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.QuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := run(companyID, GetUserID(c), stockIDParam(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res.Stock)
}

func (h *StockHandler) channelCommand(c *fiber.Ctx, run func(ctx context.Context, cmd inventory.ChannelAllocationCommand) (*inventory.CommandResult, error)) error {
	companyID, ok := requireTenant(c)
	if !ok {
		return unauthorized(c)
	}
	var in dto.ChannelAllocationRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := run(c.UserContext(), inventory.ChannelAllocationCommand{
		TenantID:  companyID,
		UserID:    GetUserID(c),
		StockID:   stockIDParam(c),
		ChannelID: in.ChannelID,
		Quantity:  in.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res.Stock)
}

func requireTenant(c *fiber.Ctx) (string, bool) {
	companyID := GetCompanyID(c)
	return companyID, companyID != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func stockIDParam(c *fiber.Ctx) entity.StockID {
	return entity.StockID(c.Params("id"))
}

func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	return dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
}
