package entity

import "math"

// StockStatus clasificación derivada de las cantidades de un registro de stock.
type StockStatus string

const (
	StockStatusNormal     StockStatus = "NORMAL"
	StockStatusLow        StockStatus = "LOW"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusOverstock  StockStatus = "OVERSTOCK"
)

// overstockFactor: por encima de safetyStock*overstockFactor unidades el registro se considera sobre-stock.
const overstockFactor = 3

// MaxSafetyStock mayor stock de seguridad admitido: safetyStock*overstockFactor debe caber en int64
// (también en la expresión SQL de estado).
const MaxSafetyStock = math.MaxInt64 / overstockFactor

// DeriveStatus calcula el estado a partir de total, disponible y stock de seguridad.
// El orden de evaluación importa: agotado, bajo, sobre-stock, normal.
func DeriveStatus(total, available, safetyStock int64) StockStatus {
	switch {
	case total <= 0:
		return StockStatusOutOfStock
	case available < safetyStock:
		return StockStatusLow
	case total > safetyStock*overstockFactor:
		return StockStatusOverstock
	default:
		return StockStatusNormal
	}
}

// ParseStockStatus valida un estado recibido desde fuera (query string, filtros).
func ParseStockStatus(s string) (StockStatus, bool) {
	switch st := StockStatus(s); st {
	case StockStatusNormal, StockStatusLow, StockStatusOutOfStock, StockStatusOverstock:
		return st, true
	}
	return "", false
}

// Transition estado antes y después de una operación.
type Transition struct {
	From StockStatus
	To   StockStatus
}

// EnteredLow indica el cruce hacia LOW; solo en ese borde se emite la alerta de stock bajo.
func (t Transition) EnteredLow() bool {
	return t.To == StockStatusLow && t.From != StockStatusLow
}
