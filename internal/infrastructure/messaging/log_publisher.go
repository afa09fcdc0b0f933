package messaging

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/event"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

var _ inventory.EventPublisher = (*LogPublisher)(nil)

// LogPublisher registra los eventos en el log estructurado (KAFKA_ENABLED=false).
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	if log == nil {
		log = logger.Nop()
	}
	return &LogPublisher{log: log.Component("events")}
}

// Publish nunca falla.
func (p *LogPublisher) Publish(_ context.Context, events ...event.Event) error {
	for _, ev := range events {
		entry := p.log.Info()
		if ev.Name == event.LowStockAlert {
			entry = p.log.Warn()
		}
		entry.
			Str("event", string(ev.Name)).
			Str("event_id", ev.ID).
			Str("tenant_id", ev.TenantID).
			Str("stock_id", ev.StockID).
			Str("product_id", ev.ProductID).
			Str("warehouse_id", ev.WarehouseID).
			Int64("delta", ev.Delta).
			Int64("available", ev.Available).
			Str("status", ev.Status).
			Str("reference_id", ev.ReferenceID).
			Msg("evento de stock")
	}
	return nil
}
