package entity_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name                     string
		total, available, safety int64
		want                     entity.StockStatus
	}{
		{"agotado", 0, 0, 10, entity.StockStatusOutOfStock},
		{"agotado aunque safety sea 0", 0, 0, 0, entity.StockStatusOutOfStock},
		{"bajo", 30, 9, 10, entity.StockStatusLow},
		{"bajo tiene prioridad sobre sobre-stock", 100, 5, 10, entity.StockStatusLow},
		{"normal en el límite inferior", 30, 10, 10, entity.StockStatusNormal},
		{"normal en el límite superior", 30, 30, 10, entity.StockStatusNormal},
		{"sobre-stock", 31, 31, 10, entity.StockStatusOverstock},
		{"100 con safety 20 es sobre-stock", 100, 100, 20, entity.StockStatusOverstock},
		{"100 con safety 40 es normal", 100, 100, 40, entity.StockStatusNormal},
		{"safety 0 con stock es sobre-stock", 1, 1, 0, entity.StockStatusOverstock},
		{"safety máximo sin desbordar", math.MaxInt64, math.MaxInt64, entity.MaxSafetyStock, entity.StockStatusOverstock},
		{"safety máximo con total igual a safety*3", entity.MaxSafetyStock * 3, entity.MaxSafetyStock * 3, entity.MaxSafetyStock, entity.StockStatusNormal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, entity.DeriveStatus(tc.total, tc.available, tc.safety))
		})
	}
}

func TestParseStockStatus(t *testing.T) {
	st, ok := entity.ParseStockStatus("LOW")
	require.True(t, ok)
	assert.Equal(t, entity.StockStatusLow, st)

	_, ok = entity.ParseStockStatus("low")
	assert.False(t, ok)
	_, ok = entity.ParseStockStatus("")
	assert.False(t, ok)
}

func TestTransition_EnteredLow(t *testing.T) {
	assert.True(t, entity.Transition{From: entity.StockStatusNormal, To: entity.StockStatusLow}.EnteredLow())
	assert.True(t, entity.Transition{From: entity.StockStatusOutOfStock, To: entity.StockStatusLow}.EnteredLow())
	assert.False(t, entity.Transition{From: entity.StockStatusLow, To: entity.StockStatusLow}.EnteredLow())
	assert.False(t, entity.Transition{From: entity.StockStatusLow, To: entity.StockStatusNormal}.EnteredLow())
}

func TestStockRecord_TransicionAlAjustar(t *testing.T) {
	rec := newStock(t, 70, 20)
	_, err := rec.Reserve(30)
	require.NoError(t, err)
	require.Equal(t, entity.StockStatusOverstock, rec.Status())

	tr, err := rec.Adjust(-25, "daño")
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusOverstock, tr.From)
	assert.Equal(t, entity.StockStatusLow, tr.To)
	assert.True(t, tr.EnteredLow())

	tr, err = rec.Adjust(-1, "daño")
	require.NoError(t, err)
	assert.False(t, tr.EnteredLow(), "seguir en LOW no vuelve a alertar")
}
