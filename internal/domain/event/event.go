package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// Name nombre del evento saliente.
type Name string

const (
	StockCreated        Name = "stock.created"
	StockReceived       Name = "stock.received"
	StockReserved       Name = "stock.reserved"
	StockReleased       Name = "stock.released"
	StockShipped        Name = "stock.shipped"
	StockAdjusted       Name = "stock.adjusted"
	StockTransferredOut Name = "stock.transferred_out"
	StockTransferredIn  Name = "stock.transferred_in"
	LowStockAlert       Name = "stock.low_stock_alert"
)

// Event evento de dominio devuelto por cada comando. La entrega a consumidores
// (motor de automatización, alertas) es responsabilidad del publicador.
type Event struct {
	ID          string    `json:"id"`
	Name        Name      `json:"name"`
	TenantID    string    `json:"tenant_id"`
	StockID     string    `json:"stock_id"`
	ProductID   string    `json:"product_id"`
	WarehouseID string    `json:"warehouse_id"`
	Delta       int64     `json:"delta"`
	Available   int64     `json:"available"`
	SafetyStock int64     `json:"safety_stock"`
	Status      string    `json:"status"`
	ReferenceID string    `json:"reference_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// New construye un evento con la foto actual del registro.
func New(name Name, stock *entity.StockRecord, delta int64, referenceID string, now time.Time) Event {
	return Event{
		ID:          uuid.New().String(),
		Name:        name,
		TenantID:    stock.TenantID,
		StockID:     stock.ID.String(),
		ProductID:   stock.ProductID,
		WarehouseID: stock.WarehouseID,
		Delta:       delta,
		Available:   stock.Available(),
		SafetyStock: stock.SafetyStock,
		Status:      string(stock.Status()),
		ReferenceID: referenceID,
		OccurredAt:  now,
	}
}
