package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockRequest body para POST /api/stocks.
type CreateStockRequest struct {
	ProductID       string `json:"product_id"`
	WarehouseID     string `json:"warehouse_id"`
	InitialQuantity int64  `json:"initial_quantity"`
	SafetyStock     int64  `json:"safety_stock"`
}

// QuantityRequest body para receive/reserve/release/ship.
// ReferenceID suele ser el ID del pedido u orden de compra.
type QuantityRequest struct {
	Quantity    int64  `json:"quantity"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// AdjustStockRequest body para POST /api/stocks/:id/adjust. Delta puede ser negativo.
type AdjustStockRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

// ChannelAllocationRequest body para asignar/desasignar stock a un canal de venta.
type ChannelAllocationRequest struct {
	ChannelID string `json:"channel_id"`
	Quantity  int64  `json:"quantity"`
}

// TransferStockRequest body para POST /api/stocks/transfers.
type TransferStockRequest struct {
	FromStockID string `json:"from_stock_id"`
	ToStockID   string `json:"to_stock_id"`
	Quantity    int64  `json:"quantity"`
	ReferenceID string `json:"reference_id,omitempty"`
}

// StockResponse vista de un registro de stock.
type StockResponse struct {
	ID                 string           `json:"id"`
	TenantID           string           `json:"tenant_id"`
	ProductID          string           `json:"product_id"`
	WarehouseID        string           `json:"warehouse_id"`
	Total              int64            `json:"total"`
	Available          int64            `json:"available"`
	Reserved           int64            `json:"reserved"`
	SafetyStock        int64            `json:"safety_stock"`
	Status             string           `json:"status"`
	ChannelAllocations map[string]int64 `json:"channel_allocations"`
	Version            int64            `json:"version"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// StockListResponse listado paginado de stock.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// MovementResponse vista de un movimiento del ledger.
type MovementResponse struct {
	ID          string    `json:"id"`
	StockID     string    `json:"stock_id"`
	Sequence    int64     `json:"sequence"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	BeforeTotal int64     `json:"before_total"`
	AfterTotal  int64     `json:"after_total"`
	ReferenceID string    `json:"reference_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovementListResponse movimientos en orden de confirmación.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Total int                `json:"total"`
}

// TransferResponse estado de origen y destino tras un traslado.
type TransferResponse struct {
	ReferenceID string        `json:"reference_id"`
	From        StockResponse `json:"from"`
	To          StockResponse `json:"to"`
}

// LedgerTotalsDTO cantidades (reproducidas o actuales) comparadas en la verificación del ledger.
type LedgerTotalsDTO struct {
	Total      int64 `json:"total"`
	Unreserved int64 `json:"unreserved"` // disponible + asignado a canales
	Reserved   int64 `json:"reserved"`
}

// LedgerCheckResponse resultado de reproducir los movimientos de un registro.
type LedgerCheckResponse struct {
	StockID    string          `json:"stock_id"`
	Movements  int             `json:"movements"`
	Consistent bool            `json:"consistent"`
	Replayed   LedgerTotalsDTO `json:"replayed"`
	Current    LedgerTotalsDTO `json:"current"`
	Detail     string          `json:"detail,omitempty"`
}

// StockSummaryResponse resumen del inventario de una empresa.
type StockSummaryResponse struct {
	TenantID       string          `json:"tenant_id"`
	Records        int             `json:"records"`
	ByStatus       map[string]int  `json:"by_status"`
	TotalUnits     decimal.Decimal `json:"total_units"`
	AvailableUnits decimal.Decimal `json:"available_units"`
	ReservedUnits  decimal.Decimal `json:"reserved_units"`
	AllocatedUnits decimal.Decimal `json:"allocated_units"` // apartado a canales; no es stock libre
	ReservedPct    decimal.Decimal `json:"reserved_pct"`    // reservado / total * 100
	LowStockPct    decimal.Decimal `json:"low_stock_pct"`   // registros LOW / registros * 100
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un registro agotado o bajo el stock de seguridad.
type ReplenishmentSuggestionDTO struct {
	StockID           string `json:"stock_id"`
	ProductID         string `json:"product_id"`
	WarehouseID       string `json:"warehouse_id"`
	Status            string `json:"status"`
	Available         int64  `json:"available"`
	Reserved          int64  `json:"reserved"`
	SafetyStock       int64  `json:"safety_stock"`
	IdealStock        int64  `json:"ideal_stock"`         // ceil(SafetyStock * 1.5)
	SuggestedOrderQty int64  `json:"suggested_order_qty"` // IdealStock - Available
	Priority          int    `json:"priority"`            // 1 = más urgente
}

// ReplenishmentListResponse respuesta de GET /api/stocks/replenishment.
type ReplenishmentListResponse struct {
	Total          int                          `json:"total"`
	Replenishments []ReplenishmentSuggestionDTO `json:"replenishments"`
}
