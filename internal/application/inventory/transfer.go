package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/event"
)

const transferCompensationReason = "compensación de traslado"

// TransferResult estado de ambos registros y los eventos de los dos pasos.
type TransferResult struct {
	ReferenceID string
	From        *CommandResult
	To          *CommandResult
}

// Events devuelve los eventos de salida y entrada en orden.
func (r *TransferResult) Events() []event.Event {
	var out []event.Event
	if r.From != nil {
		out = append(out, r.From.Events...)
	}
	if r.To != nil {
		out = append(out, r.To.Events...)
	}
	return out
}

// TransferStock traslada unidades disponibles entre dos registros de la misma empresa.
// Son dos transacciones: salida del origen (TRANSFER_OUT) y entrada al destino (TRANSFER_IN).
// Si la entrada falla, se devuelve la salida al origen con un TRANSFER_IN de compensación.
func (c *StockCoordinator) TransferStock(ctx context.Context, cmd TransferStockCommand) (*TransferResult, error) {
	if cmd.TenantID == "" || cmd.FromStockID == "" || cmd.ToStockID == "" || cmd.FromStockID == cmd.ToStockID {
		return nil, domain.ErrInvalidInput
	}
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	dest, err := c.stocks.GetByID(ctx, cmd.TenantID, cmd.ToStockID)
	if err != nil {
		return nil, fmt.Errorf("traslado: obtener destino: %w", err)
	}
	if dest == nil {
		return nil, domain.ErrNotFound
	}

	ref := cmd.ReferenceID
	if ref == "" {
		ref = "TRF-" + uuid.New().String()
	}

	out, err := c.mutate(ctx, cmd.TenantID, cmd.FromStockID, cmd.UserID, mutation{
		name: "TransferOut",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.TransferOut(cmd.Quantity)
		},
		movement:  entity.MovementTypeTransferOut,
		quantity:  cmd.Quantity,
		reference: ref,
		reason:    "traslado a " + cmd.ToStockID.String(),
		event:     event.StockTransferredOut,
	})
	if err != nil {
		return nil, err
	}

	in, err := c.mutate(ctx, cmd.TenantID, cmd.ToStockID, cmd.UserID, mutation{
		name: "TransferIn",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.TransferIn(cmd.Quantity)
		},
		movement:  entity.MovementTypeTransferIn,
		quantity:  cmd.Quantity,
		reference: ref,
		reason:    "traslado desde " + cmd.FromStockID.String(),
		event:     event.StockTransferredIn,
	})
	if err == nil {
		c.log.Info().
			Str("tenant_id", cmd.TenantID).
			Str("reference_id", ref).
			Str("from_stock_id", cmd.FromStockID.String()).
			Str("to_stock_id", cmd.ToStockID.String()).
			Int64("quantity", cmd.Quantity).
			Msg("traslado confirmado")
		return &TransferResult{ReferenceID: ref, From: out, To: in}, nil
	}

	// Compensación: el origen recupera lo que salió.
	if _, cerr := c.mutate(ctx, cmd.TenantID, cmd.FromStockID, cmd.UserID, mutation{
		name: "TransferCompensation",
		apply: func(s *entity.StockRecord) (entity.Transition, error) {
			return s.TransferIn(cmd.Quantity)
		},
		movement:  entity.MovementTypeTransferIn,
		quantity:  cmd.Quantity,
		reference: ref,
		reason:    transferCompensationReason,
		event:     event.StockTransferredIn,
	}); cerr != nil {
		c.log.Error().
			Err(cerr).
			Str("tenant_id", cmd.TenantID).
			Str("reference_id", ref).
			Str("from_stock_id", cmd.FromStockID.String()).
			Int64("quantity", cmd.Quantity).
			Msg("compensación de traslado fallida; el origen requiere ajuste manual")
		return nil, fmt.Errorf("traslado %s: entrada: %w (compensación: %v)", ref, err, cerr)
	}
	return nil, fmt.Errorf("traslado %s: entrada: %w", ref, err)
}
