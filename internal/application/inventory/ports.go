package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/event"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit. Los bloqueos tomados con
// GetForUpdate se liberan al terminar la transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		ledger repository.MovementLedger,
	) error) error
}

// EventPublisher entrega los eventos de stock a consumidores externos después del commit.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// LedgerPDFGenerator genera el kardex (listado de movimientos) de un registro en PDF.
type LedgerPDFGenerator interface {
	GenerateLedgerPDF(ctx context.Context, stock *entity.StockRecord, movements []*entity.MovementEntry) ([]byte, error)
}
