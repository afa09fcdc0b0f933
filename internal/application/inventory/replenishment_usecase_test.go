package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

func TestReplenishment_PriorizaAgotadosYDeficit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "P-1", 8, 10)  // LOW, déficit 2
	f.create(t, "P-2", 3, 10)  // LOW, déficit 7
	f.create(t, "P-3", 0, 5)   // OUT_OF_STOCK
	f.create(t, "P-4", 0, 0)   // OUT_OF_STOCK sin stock de seguridad: se omite
	f.create(t, "P-5", 50, 20) // NORMAL

	uc := inventory.NewReplenishmentUseCase(f.store.Stocks())
	list, err := uc.GenerateReplenishmentList(ctx, testTenant, "")
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "P-3", list[0].ProductID)
	assert.Equal(t, "OUT_OF_STOCK", list[0].Status)
	assert.Equal(t, int64(8), list[0].IdealStock, "ceil(5 * 1.5)")
	assert.Equal(t, int64(8), list[0].SuggestedOrderQty)

	assert.Equal(t, "P-2", list[1].ProductID)
	assert.Equal(t, int64(15), list[1].IdealStock)
	assert.Equal(t, int64(12), list[1].SuggestedOrderQty)

	assert.Equal(t, "P-1", list[2].ProductID)
	assert.Equal(t, int64(7), list[2].SuggestedOrderQty)

	for i, s := range list {
		assert.Equal(t, i+1, s.Priority)
	}
}

func TestReplenishment_FiltraPorBodega(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "P-1", 1, 10)

	uc := inventory.NewReplenishmentUseCase(f.store.Stocks())
	list, err := uc.GenerateReplenishmentList(ctx, testTenant, "W-9")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = uc.GenerateReplenishmentList(ctx, testTenant, "W-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = uc.GenerateReplenishmentList(ctx, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
