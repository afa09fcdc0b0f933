package inventory

import "github.com/jhoicas/stock-ledger-api/internal/domain/entity"

// Comandos de entrada del coordinador. TenantID es obligatorio en todos;
// UserID (opcional) queda como autor del movimiento.

type CreateStockCommand struct {
	TenantID        string
	UserID          string
	ProductID       string
	WarehouseID     string
	InitialQuantity int64
	SafetyStock     int64
}

type ReceiveStockCommand struct {
	TenantID    string
	UserID      string
	StockID     entity.StockID
	Quantity    int64
	ReferenceID string
}

type ReserveStockCommand struct {
	TenantID string
	UserID   string
	StockID  entity.StockID
	Quantity int64
	OrderRef string
}

type ReleaseStockCommand struct {
	TenantID    string
	UserID      string
	StockID     entity.StockID
	Quantity    int64
	ReferenceID string
}

type ShipStockCommand struct {
	TenantID string
	UserID   string
	StockID  entity.StockID
	Quantity int64
	OrderRef string
}

type AdjustStockCommand struct {
	TenantID string
	UserID   string
	StockID  entity.StockID
	Delta    int64
	Reason   string
}

type ChannelAllocationCommand struct {
	TenantID  string
	UserID    string
	StockID   entity.StockID
	ChannelID string
	Quantity  int64
}

type TransferStockCommand struct {
	TenantID    string
	UserID      string
	FromStockID entity.StockID
	ToStockID   entity.StockID
	Quantity    int64
	ReferenceID string
}
