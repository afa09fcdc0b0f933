package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRepository define el puerto de persistencia de registros de stock.
// Todas las consultas filtran por tenant; un registro de otra empresa se trata como inexistente.
// Los métodos Get* devuelven (nil, nil) cuando no hay registro.
type StockRepository interface {
	// Create inserta un registro nuevo; devuelve domain.ErrDuplicateStock si el par producto/bodega ya existe.
	Create(ctx context.Context, stock *entity.StockRecord) error
	// Save persiste las cantidades con verificación de versión (CAS) e incrementa stock.Version.
	// Devuelve domain.ErrConflict si la versión almacenada cambió.
	Save(ctx context.Context, stock *entity.StockRecord) error
	GetByID(ctx context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error)
	// GetForUpdate obtiene el registro y lo bloquea hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error)
	GetByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID string) (*entity.StockRecord, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error)
	ListByTenantAndStatus(ctx context.Context, tenantID string, status entity.StockStatus, limit, offset int) ([]*entity.StockRecord, error)
	ListLowStockByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error)
	// Totals agrega cantidades y conteos por estado para el resumen de la empresa.
	Totals(ctx context.Context, tenantID string) (*StockTotals, error)
}

// StockTotals resultado crudo de la agregación por empresa.
// Las sumas vienen como NUMERIC desde PostgreSQL (SUM sobre BIGINT).
type StockTotals struct {
	Records   int
	ByStatus  map[entity.StockStatus]int
	Total     decimal.Decimal
	Available decimal.Decimal
	Reserved  decimal.Decimal
	Allocated decimal.Decimal
}
