package inventory

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/event"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

const initialStockReason = "stock inicial"

var tracer = otel.Tracer("github.com/jhoicas/stock-ledger-api/internal/application/inventory")

// CommandResult vista del registro tras el comando y los eventos derivados.
// Los eventos se devuelven siempre al llamador; el publicador es un canal adicional.
type CommandResult struct {
	Stock  *dto.StockResponse
	Events []event.Event
}

// StockCoordinator orquesta los comandos sobre el ledger de stock: bloquea el registro,
// aplica la operación, persiste y anexa el movimiento en una sola transacción.
type StockCoordinator struct {
	txRunner  TxRunner
	stocks    repository.StockRepository
	ledger    repository.MovementLedger
	publisher EventPublisher
	log       *logger.Logger
	now       func() time.Time
}

// Option configura el coordinador.
type Option func(*StockCoordinator)

// WithPublisher entrega los eventos a un publicador después de cada commit.
func WithPublisher(p EventPublisher) Option {
	return func(c *StockCoordinator) { c.publisher = p }
}

// WithClock reemplaza el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(c *StockCoordinator) { c.now = now }
}

// NewStockCoordinator construye el coordinador. stocks y ledger son los repositorios de lectura
// (fuera de transacción); las escrituras pasan siempre por txRunner.
func NewStockCoordinator(
	txRunner TxRunner,
	stocks repository.StockRepository,
	ledger repository.MovementLedger,
	log *logger.Logger,
	opts ...Option,
) *StockCoordinator {
	if log == nil {
		log = logger.Nop()
	}
	c := &StockCoordinator{
		txRunner: txRunner,
		stocks:   stocks,
		ledger:   ledger,
		log:      log.Component("stock_coordinator"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// mutation describe un comando sobre un registro existente.
type mutation struct {
	name      string
	apply     func(*entity.StockRecord) (entity.Transition, error)
	movement  entity.MovementType // vacío: la operación no se audita en el ledger
	quantity  int64               // cantidad registrada en el movimiento / delta del evento
	reference string
	reason    string
	event     event.Name // vacío: sin evento propio (puede haber alerta de stock bajo)
}

// CreateStock crea el registro para el par producto/bodega. Si la cantidad inicial es positiva,
// anexa un movimiento RECEIVE sintético con motivo "stock inicial".
func (c *StockCoordinator) CreateStock(ctx context.Context, cmd CreateStockCommand) (*CommandResult, error) {
	ctx, span := tracer.Start(ctx, "inventory.CreateStock", trace.WithAttributes(
		attribute.String("tenant.id", cmd.TenantID),
		attribute.String("product.id", cmd.ProductID),
		attribute.String("warehouse.id", cmd.WarehouseID),
	))
	defer span.End()

	now := c.now()
	rec, err := entity.NewStockRecord(cmd.TenantID, cmd.ProductID, cmd.WarehouseID, cmd.InitialQuantity, cmd.SafetyStock, now)
	if err != nil {
		return nil, c.fail(span, "CreateStock", err)
	}

	err = c.txRunner.Run(ctx, func(stockRepo repository.StockRepository, ledger repository.MovementLedger) error {
		existing, err := stockRepo.GetByProductAndWarehouse(ctx, cmd.TenantID, cmd.ProductID, cmd.WarehouseID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateStock
		}
		if err := stockRepo.Create(ctx, rec); err != nil {
			return err
		}
		if cmd.InitialQuantity > 0 {
			mov := entity.NewMovementEntry(rec, entity.MovementTypeReceive, cmd.InitialQuantity, 0, "", initialStockReason, cmd.UserID, now)
			return ledger.Append(ctx, mov)
		}
		return nil
	})
	if err != nil {
		return nil, c.fail(span, "CreateStock", err)
	}
	span.SetAttributes(attribute.String("stock.id", rec.ID.String()))

	events := []event.Event{event.New(event.StockCreated, rec, cmd.InitialQuantity, "", now)}
	// Un registro que nace por debajo del stock de seguridad también cruza hacia LOW.
	if rec.Status() == entity.StockStatusLow {
		events = append(events, c.lowStockAlert(rec, now))
	}
	c.publish(ctx, events)

	c.log.Info().
		Str("tenant_id", rec.TenantID).
		Str("stock_id", rec.ID.String()).
		Str("product_id", rec.ProductID).
		Str("warehouse_id", rec.WarehouseID).
		Int64("initial_quantity", cmd.InitialQuantity).
		Msg("stock creado")
	return &CommandResult{Stock: ToStockResponse(rec), Events: events}, nil
}

// ReceiveStock ingresa unidades (total y disponible).
func (c *StockCoordinator) ReceiveStock(ctx context.Context, cmd ReceiveStockCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "ReceiveStock",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.Receive(cmd.Quantity)
		},
		movement:  entity.MovementTypeReceive,
		quantity:  cmd.Quantity,
		reference: cmd.ReferenceID,
		event:     event.StockReceived,
	})
}

// ReserveStock aparta unidades disponibles para un pedido.
func (c *StockCoordinator) ReserveStock(ctx context.Context, cmd ReserveStockCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "ReserveStock",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.Reserve(cmd.Quantity)
		},
		movement:  entity.MovementTypeReserve,
		quantity:  cmd.Quantity,
		reference: cmd.OrderRef,
		event:     event.StockReserved,
	})
}

// ReleaseStock libera una reserva.
func (c *StockCoordinator) ReleaseStock(ctx context.Context, cmd ReleaseStockCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "ReleaseStock",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.Release(cmd.Quantity)
		},
		movement:  entity.MovementTypeRelease,
		quantity:  cmd.Quantity,
		reference: cmd.ReferenceID,
		event:     event.StockReleased,
	})
}

// ShipStock despacha unidades previamente reservadas.
func (c *StockCoordinator) ShipStock(ctx context.Context, cmd ShipStockCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "ShipStock",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.Ship(cmd.Quantity)
		},
		movement:  entity.MovementTypeShip,
		quantity:  cmd.Quantity,
		reference: cmd.OrderRef,
		event:     event.StockShipped,
	})
}

// AdjustStock corrige total y disponible; el movimiento guarda el delta con signo y el motivo.
func (c *StockCoordinator) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "AdjustStock",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.Adjust(cmd.Delta, cmd.Reason)
		},
		movement: entity.MovementTypeAdjust,
		quantity: cmd.Delta,
		reason:   cmd.Reason,
		event:    event.StockAdjusted,
	})
}

// AllocateToChannel aparta disponible para un canal. No genera movimiento en el ledger.
func (c *StockCoordinator) AllocateToChannel(ctx context.Context, cmd ChannelAllocationCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "AllocateToChannel",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.AllocateToChannel(cmd.ChannelID, cmd.Quantity)
		},
		quantity: cmd.Quantity,
	})
}

// DeallocateFromChannel devuelve al disponible lo apartado para un canal. No genera movimiento.
func (c *StockCoordinator) DeallocateFromChannel(ctx context.Context, cmd ChannelAllocationCommand) (*CommandResult, error) {
	return c.mutate(ctx, cmd.TenantID, cmd.StockID, cmd.UserID, mutation{
		name: "DeallocateFromChannel",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.DeallocateFromChannel(cmd.ChannelID, cmd.Quantity)
		},
		quantity: cmd.Quantity,
	})
}

// mutate: bloquea la fila (GetForUpdate), aplica la operación, guarda y anexa el movimiento
// en la misma transacción. Cualquier error hace Rollback; no queda estado parcial.
func (c *StockCoordinator) mutate(ctx context.Context, tenantID string, stockID entity.StockID, userID string, m mutation) (*CommandResult, error) {
	ctx, span := tracer.Start(ctx, "inventory."+m.name, trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("stock.id", stockID.String()),
		attribute.Int64("quantity", m.quantity),
	))
	defer span.End()

	if tenantID == "" || stockID == "" {
		return nil, c.fail(span, m.name, domain.ErrInvalidInput)
	}

	now := c.now()
	var (
		updated    *entity.StockRecord
		transition entity.Transition
	)
	err := c.txRunner.Run(ctx, func(stockRepo repository.StockRepository, ledger repository.MovementLedger) error {
		rec, err := stockRepo.GetForUpdate(ctx, tenantID, stockID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		beforeTotal := rec.Total()
		transition, err = m.apply(rec)
		if err != nil {
			return err
		}
		if err := rec.CheckInvariants(); err != nil {
			return err
		}
		rec.UpdatedAt = now
		if err := stockRepo.Save(ctx, rec); err != nil {
			return err
		}
		if m.movement != "" {
			mov := entity.NewMovementEntry(rec, m.movement, m.quantity, beforeTotal, m.reference, m.reason, userID, now)
			if err := ledger.Append(ctx, mov); err != nil {
				return err
			}
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, c.fail(span, m.name, err)
	}

	var events []event.Event
	if m.event != "" {
		events = append(events, event.New(m.event, updated, m.quantity, m.reference, now))
	}
	if transition.EnteredLow() {
		events = append(events, c.lowStockAlert(updated, now))
	}
	c.publish(ctx, events)

	c.log.Debug().
		Str("command", m.name).
		Str("tenant_id", tenantID).
		Str("stock_id", stockID.String()).
		Int64("quantity", m.quantity).
		Int64("total", updated.Total()).
		Int64("available", updated.Available()).
		Int64("reserved", updated.Reserved()).
		Str("status", string(updated.Status())).
		Msg("comando de stock confirmado")
	return &CommandResult{Stock: ToStockResponse(updated), Events: events}, nil
}

func (c *StockCoordinator) lowStockAlert(rec *entity.StockRecord, now time.Time) event.Event {
	c.log.Warn().
		Str("tenant_id", rec.TenantID).
		Str("stock_id", rec.ID.String()).
		Str("product_id", rec.ProductID).
		Str("warehouse_id", rec.WarehouseID).
		Int64("available", rec.Available()).
		Int64("safety_stock", rec.SafetyStock).
		Msg("stock bajo")
	return event.New(event.LowStockAlert, rec, rec.Available()-rec.SafetyStock, "", now)
}

// publish entrega los eventos tras el commit. Un fallo no deshace nada: se registra y se sigue.
func (c *StockCoordinator) publish(ctx context.Context, events []event.Event) {
	if c.publisher == nil || len(events) == 0 {
		return
	}
	if err := c.publisher.Publish(ctx, events...); err != nil {
		c.log.Error().Err(err).Int("events", len(events)).Msg("publicar eventos de stock")
	}
}

// fail marca el span y deja rastro en el log. Los errores de negocio quedan en debug.
func (c *StockCoordinator) fail(span trace.Span, command string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if isBusinessError(err) {
		c.log.Debug().Err(err).Str("command", command).Msg("comando de stock rechazado")
	} else {
		c.log.Error().Err(err).Str("command", command).Msg("comando de stock fallido")
	}
	return err
}

func isBusinessError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrDuplicateStock,
		domain.ErrInsufficientAvailable,
		domain.ErrInsufficientReserved,
		domain.ErrInsufficientAllocation,
		domain.ErrInvalidQuantity,
		domain.ErrInvalidAdjustment,
		domain.ErrBlankReason,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
