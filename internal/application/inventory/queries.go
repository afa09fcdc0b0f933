package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GetStock devuelve la vista del registro. ErrNotFound si no existe o pertenece a otra empresa.
func (c *StockCoordinator) GetStock(ctx context.Context, tenantID string, id entity.StockID) (*dto.StockResponse, error) {
	rec, err := c.loadStock(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return ToStockResponse(rec), nil
}

// GetStockByProductAndWarehouse busca el registro por su clave natural.
func (c *StockCoordinator) GetStockByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID string) (*dto.StockResponse, error) {
	if tenantID == "" || productID == "" || warehouseID == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := c.stocks.GetByProductAndWarehouse(ctx, tenantID, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("obtener stock por producto y bodega: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return ToStockResponse(rec), nil
}

// ListStocks lista los registros de la empresa paginados.
func (c *StockCoordinator) ListStocks(ctx context.Context, tenantID string, page dto.PageRequest) (*dto.StockListResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	limit, offset := normalizePage(page.Limit, page.Offset)
	list, err := c.stocks.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar stock: %w", err)
	}
	return &dto.StockListResponse{
		Items: toStockResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// ListStocksByStatus filtra por estado derivado. Un estado desconocido es ErrInvalidInput.
func (c *StockCoordinator) ListStocksByStatus(ctx context.Context, tenantID, status string, page dto.PageRequest) (*dto.StockListResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	st, ok := entity.ParseStockStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, status)
	}
	limit, offset := normalizePage(page.Limit, page.Offset)
	list, err := c.stocks.ListByTenantAndStatus(ctx, tenantID, st, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar stock por estado: %w", err)
	}
	return &dto.StockListResponse{
		Items: toStockResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// ListLowStock registros con disponible por debajo del stock de seguridad.
func (c *StockCoordinator) ListLowStock(ctx context.Context, tenantID string, page dto.PageRequest) (*dto.StockListResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	limit, offset := normalizePage(page.Limit, page.Offset)
	list, err := c.stocks.ListLowStockByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listar stock bajo: %w", err)
	}
	return &dto.StockListResponse{
		Items: toStockResponses(list),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// ListMovements movimientos del registro en orden de confirmación.
func (c *StockCoordinator) ListMovements(ctx context.Context, tenantID string, id entity.StockID) (*dto.MovementListResponse, error) {
	if _, err := c.loadStock(ctx, tenantID, id); err != nil {
		return nil, err
	}
	list, err := c.ledger.ListByStock(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	return toMovementList(list), nil
}

// ListMovementsByReference movimientos de un pedido o traslado en todos los registros de la empresa.
func (c *StockCoordinator) ListMovementsByReference(ctx context.Context, tenantID, referenceID string) (*dto.MovementListResponse, error) {
	if tenantID == "" || referenceID == "" {
		return nil, domain.ErrInvalidInput
	}
	list, err := c.ledger.ListByReference(ctx, tenantID, referenceID)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos por referencia: %w", err)
	}
	return toMovementList(list), nil
}

// VerifyLedger reproduce los movimientos del registro y los compara con sus cantidades actuales.
// Una inconsistencia no es un error de la llamada: se informa en la respuesta.
func (c *StockCoordinator) VerifyLedger(ctx context.Context, tenantID string, id entity.StockID) (*dto.LedgerCheckResponse, error) {
	ctx, span := tracer.Start(ctx, "inventory.VerifyLedger")
	defer span.End()

	if tenantID == "" || id == "" {
		return nil, domain.ErrInvalidInput
	}
	// Registro y movimientos se leen con la fila bloqueada: ningún comando confirma entre ambas lecturas.
	var (
		rec  *entity.StockRecord
		list []*entity.MovementEntry
	)
	err := c.txRunner.Run(ctx, func(stockRepo repository.StockRepository, ledger repository.MovementLedger) error {
		var err error
		rec, err = stockRepo.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("obtener stock: %w", err)
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		list, err = ledger.ListByStock(ctx, tenantID, id)
		if err != nil {
			return fmt.Errorf("listar movimientos: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	current := entity.TotalsOf(rec)
	resp := &dto.LedgerCheckResponse{
		StockID:   id.String(),
		Movements: len(list),
		Current:   toLedgerTotals(current),
	}
	replayed, err := entity.ReplayMovements(list)
	resp.Replayed = toLedgerTotals(replayed)
	switch {
	case errors.Is(err, domain.ErrLedgerMismatch):
		resp.Detail = err.Error()
	case err != nil:
		return nil, err
	case replayed != current:
		resp.Detail = domain.ErrLedgerMismatch.Error()
	default:
		resp.Consistent = true
	}
	if !resp.Consistent {
		c.log.Warn().
			Str("tenant_id", tenantID).
			Str("stock_id", id.String()).
			Str("detail", resp.Detail).
			Msg("ledger inconsistente")
	}
	return resp, nil
}

// Summary resumen del inventario de la empresa: conteos por estado, unidades y porcentajes.
func (c *StockCoordinator) Summary(ctx context.Context, tenantID string) (*dto.StockSummaryResponse, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	t, err := c.stocks.Totals(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resumen de stock: %w", err)
	}

	byStatus := map[string]int{
		string(entity.StockStatusNormal):     0,
		string(entity.StockStatusLow):        0,
		string(entity.StockStatusOutOfStock): 0,
		string(entity.StockStatusOverstock):  0,
	}
	for st, n := range t.ByStatus {
		byStatus[string(st)] = n
	}

	hundred := decimal.NewFromInt(100)
	reservedPct := decimal.Zero
	if t.Total.GreaterThan(decimal.Zero) {
		reservedPct = t.Reserved.Div(t.Total).Mul(hundred).Round(2)
	}
	lowPct := decimal.Zero
	if t.Records > 0 {
		lowPct = decimal.NewFromInt(int64(byStatus[string(entity.StockStatusLow)])).
			Div(decimal.NewFromInt(int64(t.Records))).Mul(hundred).Round(2)
	}

	return &dto.StockSummaryResponse{
		TenantID:       tenantID,
		Records:        t.Records,
		ByStatus:       byStatus,
		TotalUnits:     t.Total,
		AvailableUnits: t.Available,
		ReservedUnits:  t.Reserved,
		AllocatedUnits: t.Allocated,
		ReservedPct:    reservedPct,
		LowStockPct:    lowPct,
	}, nil
}

func (c *StockCoordinator) loadStock(ctx context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error) {
	if tenantID == "" || id == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := c.stocks.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("obtener stock: %w", err)
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}
