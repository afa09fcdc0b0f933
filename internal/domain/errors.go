package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Ledger de stock.
	ErrDuplicateStock         = errors.New("ya existe stock para el producto en la bodega")
	ErrInsufficientAvailable  = errors.New("stock disponible insuficiente")
	ErrInsufficientReserved   = errors.New("stock reservado insuficiente")
	ErrInsufficientAllocation = errors.New("asignación de canal insuficiente")
	ErrInvalidQuantity        = errors.New("cantidad inválida")
	ErrInvalidAdjustment      = errors.New("el ajuste dejaría el stock en negativo")
	ErrBlankReason            = errors.New("el motivo del ajuste es obligatorio")
	ErrLedgerMismatch         = errors.New("los movimientos no reproducen el stock actual")
)
