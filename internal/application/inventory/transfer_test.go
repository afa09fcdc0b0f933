package inventory_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/event"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/pkg/logger"
)

var errStepFailed = errors.New("fallo simulado de la transacción")

// flakyRunner falla la transacción número failOn (1-based) sin ejecutar fn.
type flakyRunner struct {
	inner  inventory.TxRunner
	failOn int32
	calls  atomic.Int32
}

func (r *flakyRunner) Run(ctx context.Context, fn func(repository.StockRepository, repository.MovementLedger) error) error {
	if r.calls.Add(1) == r.failOn {
		return errStepFailed
	}
	return r.inner.Run(ctx, fn)
}

func TestTransferStock_MueveUnidadesEntreBodegas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from := f.create(t, "P-1", 50, 5)
	res, err := f.coord.CreateStock(ctx, inventory.CreateStockCommand{
		TenantID: testTenant, ProductID: "P-1", WarehouseID: "W-2", InitialQuantity: 0, SafetyStock: 5,
	})
	require.NoError(t, err)
	to := entity.StockID(res.Stock.ID)

	out, err := f.coord.TransferStock(ctx, inventory.TransferStockCommand{
		TenantID: testTenant, UserID: testUser, FromStockID: from, ToStockID: to, Quantity: 20, ReferenceID: "TRF-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "TRF-1", out.ReferenceID)
	assert.Equal(t, int64(30), out.From.Stock.Total)
	assert.Equal(t, int64(20), out.To.Stock.Total)
	assert.Equal(t, []event.Name{event.StockTransferredOut, event.StockTransferredIn}, eventNames(out.Events()))

	byRef, err := f.coord.ListMovementsByReference(ctx, testTenant, "TRF-1")
	require.NoError(t, err)
	require.Len(t, byRef.Items, 2)
	assert.Equal(t, "TRANSFER_OUT", byRef.Items[0].Type)
	assert.Equal(t, from.String(), byRef.Items[0].StockID)
	assert.Equal(t, "TRANSFER_IN", byRef.Items[1].Type)
	assert.Equal(t, to.String(), byRef.Items[1].StockID)

	for _, id := range []entity.StockID{from, to} {
		check, err := f.coord.VerifyLedger(ctx, testTenant, id)
		require.NoError(t, err)
		assert.True(t, check.Consistent, check.Detail)
	}
}

func TestTransferStock_GeneraReferenciaSiFalta(t *testing.T) {
	f := newFixture(t)
	from := f.create(t, "P-1", 10, 0)
	to := f.create(t, "P-2", 0, 0)

	out, err := f.coord.TransferStock(context.Background(), inventory.TransferStockCommand{
		TenantID: testTenant, FromStockID: from, ToStockID: to, Quantity: 1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ReferenceID)
}

func TestTransferStock_Validaciones(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from := f.create(t, "P-1", 10, 0)
	to := f.create(t, "P-2", 0, 0)

	_, err := f.coord.TransferStock(ctx, inventory.TransferStockCommand{TenantID: testTenant, FromStockID: from, ToStockID: from, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.coord.TransferStock(ctx, inventory.TransferStockCommand{TenantID: testTenant, FromStockID: from, ToStockID: to, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = f.coord.TransferStock(ctx, inventory.TransferStockCommand{TenantID: testTenant, FromStockID: from, ToStockID: entity.NewStockID(), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.coord.TransferStock(ctx, inventory.TransferStockCommand{TenantID: testTenant, FromStockID: from, ToStockID: to, Quantity: 11})
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	// Nada se movió.
	assert.Len(t, f.movements(t, from), 1)
	assert.Empty(t, f.movements(t, to))
}

// Si la entrada al destino falla, el origen recupera las unidades con un TRANSFER_IN de compensación.
func TestTransferStock_CompensaSiFallaElDestino(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	from := f.create(t, "P-1", 50, 5)
	to := f.create(t, "P-2", 0, 5)

	runner := &flakyRunner{inner: f.store, failOn: 2}
	coord := inventory.NewStockCoordinator(runner, f.store.Stocks(), f.store.Ledger(), logger.Nop())

	_, err := coord.TransferStock(ctx, inventory.TransferStockCommand{
		TenantID: testTenant, FromStockID: from, ToStockID: to, Quantity: 20, ReferenceID: "TRF-9",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errStepFailed)
	assert.Equal(t, int32(3), runner.calls.Load(), "salida, entrada fallida y compensación")

	src, err := f.coord.GetStock(ctx, testTenant, from)
	require.NoError(t, err)
	assert.Equal(t, int64(50), src.Total)
	assert.Equal(t, int64(50), src.Available)

	dst, err := f.coord.GetStock(ctx, testTenant, to)
	require.NoError(t, err)
	assert.Equal(t, int64(0), dst.Total)

	movs := f.movements(t, from)
	require.Len(t, movs, 3)
	assert.Equal(t, entity.MovementTypeTransferOut, movs[1].Type)
	assert.Equal(t, entity.MovementTypeTransferIn, movs[2].Type)
	assert.Equal(t, "compensación de traslado", movs[2].Reason)
	assert.Equal(t, "TRF-9", movs[2].ReferenceID)

	check, err := f.coord.VerifyLedger(ctx, testTenant, from)
	require.NoError(t, err)
	assert.True(t, check.Consistent, check.Detail)
}
