package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
)

const tenant = "tenant-1"

func newRecord(t *testing.T, product string, qty, safety int64) *entity.StockRecord {
	t.Helper()
	rec, err := entity.NewStockRecord(tenant, product, "W-1", qty, safety, time.Now())
	require.NoError(t, err)
	return rec
}

func TestStore_CreateYGet(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := newRecord(t, "P-1", 10, 2)

	require.NoError(t, store.Stocks().Create(ctx, rec))

	got, err := store.Stocks().GetByID(ctx, tenant, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), got.Total())

	byKey, err := store.Stocks().GetByProductAndWarehouse(ctx, tenant, "P-1", "W-1")
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, rec.ID, byKey.ID)

	other, err := store.Stocks().GetByID(ctx, "tenant-2", rec.ID)
	require.NoError(t, err)
	assert.Nil(t, other, "un registro de otra empresa no es visible")
}

func TestStore_CreateDuplicado(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Stocks().Create(ctx, newRecord(t, "P-1", 10, 2)))

	err := store.Stocks().Create(ctx, newRecord(t, "P-1", 5, 2))
	assert.ErrorIs(t, err, domain.ErrDuplicateStock)
}

func TestStore_SaveConVersionVieja(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := newRecord(t, "P-1", 10, 2)
	require.NoError(t, store.Stocks().Create(ctx, rec))

	stale := rec.Clone()
	_, err := rec.Receive(5)
	require.NoError(t, err)
	require.NoError(t, store.Stocks().Save(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	_, err = stale.Receive(1)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Stocks().Save(ctx, stale), domain.ErrConflict)
}

func TestStore_RollbackDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := newRecord(t, "P-1", 10, 2)
	require.NoError(t, store.Stocks().Create(ctx, rec))

	boom := errors.New("boom")
	err := store.Run(ctx, func(stocks repository.StockRepository, ledger repository.MovementLedger) error {
		locked, err := stocks.GetForUpdate(ctx, tenant, rec.ID)
		require.NoError(t, err)
		_, err = locked.Receive(7)
		require.NoError(t, err)
		require.NoError(t, stocks.Save(ctx, locked))
		require.NoError(t, ledger.Append(ctx, entity.NewMovementEntry(locked, entity.MovementTypeReceive, 7, 10, "", "", "", time.Now())))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Stocks().GetByID(ctx, tenant, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Total())
	movs, err := store.Ledger().ListByStock(ctx, tenant, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestStore_CommitAsignaSecuencia(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := newRecord(t, "P-1", 0, 2)
	require.NoError(t, store.Stocks().Create(ctx, rec))

	for i := 0; i < 3; i++ {
		err := store.Run(ctx, func(stocks repository.StockRepository, ledger repository.MovementLedger) error {
			locked, err := stocks.GetForUpdate(ctx, tenant, rec.ID)
			if err != nil {
				return err
			}
			before := locked.Total()
			if _, err := locked.Receive(1); err != nil {
				return err
			}
			if err := stocks.Save(ctx, locked); err != nil {
				return err
			}
			return ledger.Append(ctx, entity.NewMovementEntry(locked, entity.MovementTypeReceive, 1, before, "REF", "", "", time.Now()))
		})
		require.NoError(t, err)
	}

	movs, err := store.Ledger().ListByStock(ctx, tenant, rec.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	for i, m := range movs {
		assert.Equal(t, int64(i+1), m.Sequence)
		assert.Equal(t, int64(i), m.BeforeTotal)
	}

	byRef, err := store.Ledger().ListByReference(ctx, tenant, "REF")
	require.NoError(t, err)
	assert.Len(t, byRef, 3)
}

// GetForUpdate serializa transacciones sobre el mismo registro: ninguna actualización se pierde.
func TestStore_GetForUpdateSerializa(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := newRecord(t, "P-1", 0, 0)
	require.NoError(t, store.Stocks().Create(ctx, rec))

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Run(ctx, func(stocks repository.StockRepository, _ repository.MovementLedger) error {
				locked, err := stocks.GetForUpdate(ctx, tenant, rec.ID)
				if err != nil {
					return err
				}
				if _, err := locked.Receive(1); err != nil {
					return err
				}
				return stocks.Save(ctx, locked)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := store.Stocks().GetByID(ctx, tenant, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), got.Total())
	assert.Equal(t, int64(workers), got.Version)
	assert.Zero(t, store.LockCount(), "los bloqueos se liberan al terminar cada tx")
}

func TestStore_GetForUpdateNoRetieneBloqueosDeIdsAjenos(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	rec := newRecord(t, "P-1", 5, 0)
	require.NoError(t, store.Stocks().Create(ctx, rec))

	for i := 0; i < 50; i++ {
		err := store.Run(ctx, func(stocks repository.StockRepository, _ repository.MovementLedger) error {
			missing, err := stocks.GetForUpdate(ctx, tenant, entity.NewStockID())
			require.NoError(t, err)
			assert.Nil(t, missing)

			foreign, err := stocks.GetForUpdate(ctx, "tenant-2", rec.ID)
			require.NoError(t, err)
			assert.Nil(t, foreign)

			own, err := stocks.GetForUpdate(ctx, tenant, rec.ID)
			require.NoError(t, err)
			require.NotNil(t, own)
			assert.Equal(t, 1, store.LockCount())
			return nil
		})
		require.NoError(t, err)
	}
	assert.Zero(t, store.LockCount())
}

func TestStore_ListadosYTotales(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Stocks()

	low := newRecord(t, "P-1", 5, 10)     // LOW
	normal := newRecord(t, "P-2", 50, 20) // NORMAL
	out := newRecord(t, "P-3", 0, 10)     // OUT_OF_STOCK
	lower := newRecord(t, "P-4", 1, 10)   // LOW, mayor déficit
	for _, r := range []*entity.StockRecord{low, normal, out, lower} {
		require.NoError(t, repo.Create(ctx, r))
	}
	_, err := normal.Reserve(10)
	require.NoError(t, err)
	_, err = normal.AllocateToChannel("CH-1", 5)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, normal))

	all, err := repo.ListByTenant(ctx, tenant, 2, 1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P-2", all[0].ProductID)

	lows, err := repo.ListLowStockByTenant(ctx, tenant, 10, 0)
	require.NoError(t, err)
	require.Len(t, lows, 2)
	assert.Equal(t, "P-4", lows[0].ProductID)

	outs, err := repo.ListByTenantAndStatus(ctx, tenant, entity.StockStatusOutOfStock, 10, 0)
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, "P-3", outs[0].ProductID)

	totals, err := repo.Totals(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, 4, totals.Records)
	assert.Equal(t, 2, totals.ByStatus[entity.StockStatusLow])
	assert.Equal(t, "56", totals.Total.String())
	assert.Equal(t, "10", totals.Reserved.String())
	assert.Equal(t, "5", totals.Allocated.String())
	assert.Equal(t, "41", totals.Available.String())
}
