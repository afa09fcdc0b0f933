package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// MovementLedger define el puerto del ledger de movimientos: solo anexa y consulta.
// No existen operaciones de actualización ni borrado.
type MovementLedger interface {
	// Append asigna la secuencia de confirmación y persiste el movimiento.
	Append(ctx context.Context, movement *entity.MovementEntry) error
	// ListByStock devuelve los movimientos del registro en orden de secuencia.
	ListByStock(ctx context.Context, tenantID string, stockID entity.StockID) ([]*entity.MovementEntry, error)
	// ListByReference devuelve los movimientos asociados a una referencia (p. ej. un pedido), en orden de secuencia.
	ListByReference(ctx context.Context, tenantID, referenceID string) ([]*entity.MovementEntry, error)
}
