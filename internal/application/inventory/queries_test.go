package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

func TestQueries_ListadosPorEstado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "P-1", 5, 10)  // LOW
	f.create(t, "P-2", 40, 20) // NORMAL
	f.create(t, "P-3", 0, 10)  // OUT_OF_STOCK
	f.create(t, "P-4", 90, 10) // OVERSTOCK

	all, err := f.coord.ListStocks(ctx, testTenant, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)
	assert.Equal(t, 20, all.Page.Limit, "límite por defecto")

	paged, err := f.coord.ListStocks(ctx, testTenant, dto.PageRequest{Limit: 500, Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, 100, paged.Page.Limit, "el límite se acota a 100")
	require.Len(t, paged.Items, 1)
	assert.Equal(t, "P-4", paged.Items[0].ProductID)

	low, err := f.coord.ListLowStock(ctx, testTenant, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "P-1", low.Items[0].ProductID)

	over, err := f.coord.ListStocksByStatus(ctx, testTenant, "OVERSTOCK", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, over.Items, 1)
	assert.Equal(t, "P-4", over.Items[0].ProductID)

	_, err = f.coord.ListStocksByStatus(ctx, testTenant, "CRITICO", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	other, err := f.coord.ListStocks(ctx, "tenant-2", dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestQueries_GetStockByProductAndWarehouse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "P-1", 5, 1)

	got, err := f.coord.GetStockByProductAndWarehouse(ctx, testTenant, "P-1", "W-1")
	require.NoError(t, err)
	assert.Equal(t, id.String(), got.ID)

	_, err = f.coord.GetStockByProductAndWarehouse(ctx, testTenant, "P-1", "W-9")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.coord.GetStockByProductAndWarehouse(ctx, testTenant, "", "W-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueries_ListMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "P-1", 10, 1)
	_, err := f.coord.ReserveStock(ctx, inventory.ReserveStockCommand{TenantID: testTenant, StockID: id, Quantity: 4, OrderRef: "ORD-7"})
	require.NoError(t, err)
	_, err = f.coord.ShipStock(ctx, inventory.ShipStockCommand{TenantID: testTenant, StockID: id, Quantity: 4, OrderRef: "ORD-7"})
	require.NoError(t, err)

	list, err := f.coord.ListMovements(ctx, testTenant, id)
	require.NoError(t, err)
	require.Equal(t, 3, list.Total)
	assert.Equal(t, []string{"RECEIVE", "RESERVE", "SHIP"},
		[]string{list.Items[0].Type, list.Items[1].Type, list.Items[2].Type})

	byRef, err := f.coord.ListMovementsByReference(ctx, testTenant, "ORD-7")
	require.NoError(t, err)
	assert.Equal(t, 2, byRef.Total)

	_, err = f.coord.ListMovements(ctx, "tenant-2", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueries_Summary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "P-1", 100, 20)
	f.create(t, "P-2", 10, 20) // LOW
	_, err := f.coord.ReserveStock(ctx, inventory.ReserveStockCommand{TenantID: testTenant, StockID: a, Quantity: 25})
	require.NoError(t, err)
	_, err = f.coord.AllocateToChannel(ctx, inventory.ChannelAllocationCommand{TenantID: testTenant, StockID: a, ChannelID: "CH-1", Quantity: 5})
	require.NoError(t, err)

	sum, err := f.coord.Summary(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Records)
	assert.Equal(t, 1, sum.ByStatus["LOW"])
	assert.Equal(t, 0, sum.ByStatus["OUT_OF_STOCK"])
	assert.True(t, sum.TotalUnits.Equal(decimal.NewFromInt(110)))
	assert.True(t, sum.AvailableUnits.Equal(decimal.NewFromInt(80)))
	assert.True(t, sum.ReservedUnits.Equal(decimal.NewFromInt(25)))
	assert.True(t, sum.AllocatedUnits.Equal(decimal.NewFromInt(5)))
	assert.True(t, sum.ReservedPct.Equal(decimal.RequireFromString("22.73")), sum.ReservedPct.String())
	assert.True(t, sum.LowStockPct.Equal(decimal.NewFromInt(50)), sum.LowStockPct.String())

	empty, err := f.coord.Summary(ctx, "tenant-2")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Records)
	assert.True(t, empty.ReservedPct.IsZero())
}

func TestQueries_VerifyLedgerDetectaDiferencias(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "P-1", 10, 1)

	// Un cambio fuera del coordinador deja el ledger sin el movimiento correspondiente.
	rec, err := f.store.Stocks().GetByID(ctx, testTenant, id)
	require.NoError(t, err)
	_, err = rec.Receive(3)
	require.NoError(t, err)
	require.NoError(t, f.store.Stocks().Save(ctx, rec))

	check, err := f.coord.VerifyLedger(ctx, testTenant, id)
	require.NoError(t, err)
	assert.False(t, check.Consistent)
	assert.Equal(t, int64(10), check.Replayed.Total)
	assert.Equal(t, int64(13), check.Current.Total)
	assert.NotEmpty(t, check.Detail)
}

func TestQueries_VerifyLedgerEsperaAlComandoEnCurso(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "P-1", 10, 1)

	locked := make(chan struct{})
	proceed := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- f.store.Run(ctx, func(stocks repository.StockRepository, ledger repository.MovementLedger) error {
			rec, err := stocks.GetForUpdate(ctx, testTenant, id)
			if err != nil {
				return err
			}
			before := rec.Total()
			if _, err := rec.Receive(3); err != nil {
				return err
			}
			if err := stocks.Save(ctx, rec); err != nil {
				return err
			}
			close(locked)
			<-proceed
			return ledger.Append(ctx, entity.NewMovementEntry(rec, entity.MovementTypeReceive, 3, before, "", "", testUser, fixedNow))
		})
	}()
	<-locked

	type result struct {
		check *dto.LedgerCheckResponse
		err   error
	}
	verified := make(chan result, 1)
	go func() {
		check, err := f.coord.VerifyLedger(ctx, testTenant, id)
		verified <- result{check, err}
	}()

	select {
	case <-verified:
		t.Fatal("la verificación no debe leer mientras otra transacción tiene la fila bloqueada")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	require.NoError(t, <-txDone)
	got := <-verified
	require.NoError(t, got.err)
	assert.True(t, got.check.Consistent, got.check.Detail)
	assert.Equal(t, int64(13), got.check.Current.Total)
	assert.Equal(t, 2, got.check.Movements)
}

// fakeLedgerPDF devuelve bytes fijos y registra lo recibido.
type fakeLedgerPDF struct {
	stock     *entity.StockRecord
	movements []*entity.MovementEntry
	err       error
}

func (g *fakeLedgerPDF) GenerateLedgerPDF(_ context.Context, stock *entity.StockRecord, movements []*entity.MovementEntry) ([]byte, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.stock, g.movements = stock, movements
	return []byte("%PDF-fake"), nil
}

func TestLedgerReport_GenerateLedgerPDF(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	id := f.create(t, "P-1", 10, 1)
	gen := &fakeLedgerPDF{}
	uc := inventory.NewLedgerReportUseCase(f.store.Stocks(), f.store.Ledger(), gen)

	out, name, err := uc.GenerateLedgerPDF(ctx, testTenant, id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "kardex_P-1_W-1.pdf", name)
	assert.Equal(t, id, gen.stock.ID)
	assert.Len(t, gen.movements, 1)

	_, _, err = uc.GenerateLedgerPDF(ctx, "tenant-2", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	gen.err = errors.New("sin fuentes")
	_, _, err = uc.GenerateLedgerPDF(ctx, testTenant, id)
	assert.Error(t, err)
}
