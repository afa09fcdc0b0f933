package entity_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

func newStock(t *testing.T, qty, safety int64) *entity.StockRecord {
	t.Helper()
	rec, err := entity.NewStockRecord("tenant-1", "P-1", "W-1", qty, safety, time.Now())
	require.NoError(t, err)
	return rec
}

func assertQuantities(t *testing.T, rec *entity.StockRecord, total, available, reserved int64) {
	t.Helper()
	assert.Equal(t, total, rec.Total(), "total")
	assert.Equal(t, available, rec.Available(), "available")
	assert.Equal(t, reserved, rec.Reserved(), "reserved")
	assert.NoError(t, rec.CheckInvariants())
}

func TestNewStockRecord(t *testing.T) {
	rec := newStock(t, 100, 20)
	assertQuantities(t, rec, 100, 100, 0)
	assert.NotEmpty(t, rec.ID)
	assert.Empty(t, rec.Channels())

	_, err := entity.NewStockRecord("tenant-1", "P-1", "W-1", -1, 0, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = entity.NewStockRecord("tenant-1", "P-1", "W-1", 0, -1, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = entity.NewStockRecord(" ", "P-1", "W-1", 0, 0, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockRecord_Receive(t *testing.T) {
	rec := newStock(t, 10, 0)
	_, err := rec.Receive(5)
	require.NoError(t, err)
	assertQuantities(t, rec, 15, 15, 0)

	for _, qty := range []int64{0, -3} {
		_, err = rec.Receive(qty)
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
	assertQuantities(t, rec, 15, 15, 0)
}

func TestStockRecord_ReserveLimites(t *testing.T) {
	rec := newStock(t, 10, 0)

	_, err := rec.Reserve(11)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailable)
	assertQuantities(t, rec, 10, 10, 0)

	_, err = rec.Reserve(10)
	require.NoError(t, err)
	assertQuantities(t, rec, 10, 0, 10)

	_, err = rec.Reserve(0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestStockRecord_ReleaseYShip(t *testing.T) {
	rec := newStock(t, 10, 0)
	_, err := rec.Reserve(6)
	require.NoError(t, err)

	_, err = rec.Release(7)
	assert.ErrorIs(t, err, domain.ErrInsufficientReserved)
	_, err = rec.Ship(7)
	assert.ErrorIs(t, err, domain.ErrInsufficientReserved)
	assertQuantities(t, rec, 10, 4, 6)

	_, err = rec.Release(2)
	require.NoError(t, err)
	assertQuantities(t, rec, 10, 6, 4)

	_, err = rec.Ship(4)
	require.NoError(t, err)
	assertQuantities(t, rec, 6, 6, 0)
}

func TestStockRecord_ShipNuncaConsumeDisponible(t *testing.T) {
	rec := newStock(t, 10, 0)
	_, err := rec.Ship(1)
	assert.ErrorIs(t, err, domain.ErrInsufficientReserved)
	assertQuantities(t, rec, 10, 10, 0)
}

func TestStockRecord_ReceiveReserveShipRestaura(t *testing.T) {
	rec := newStock(t, 40, 5)
	_, err := rec.Reserve(3)
	require.NoError(t, err)
	total, available, reserved := rec.Total(), rec.Available(), rec.Reserved()

	for _, op := range []func() (entity.Transition, error){
		func() (entity.Transition, error) { return rec.Receive(12) },
		func() (entity.Transition, error) { return rec.Reserve(12) },
		func() (entity.Transition, error) { return rec.Ship(12) },
	} {
		_, err := op()
		require.NoError(t, err)
	}
	assertQuantities(t, rec, total, available, reserved)
}

func TestStockRecord_Adjust(t *testing.T) {
	rec := newStock(t, 10, 0)
	_, err := rec.Reserve(4)
	require.NoError(t, err)

	_, err = rec.Adjust(-1, "  ")
	assert.ErrorIs(t, err, domain.ErrBlankReason)
	_, err = rec.Adjust(0, "conteo")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = rec.Adjust(-7, "merma")
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment, "el disponible quedaría negativo")
	assertQuantities(t, rec, 10, 6, 4)

	_, err = rec.Adjust(-6, "merma")
	require.NoError(t, err)
	assertQuantities(t, rec, 4, 0, 4)

	_, err = rec.Adjust(3, "conteo físico")
	require.NoError(t, err)
	assertQuantities(t, rec, 7, 3, 4)
}

func TestStockRecord_CanalesNoTocanReservaNiTotal(t *testing.T) {
	rec := newStock(t, 100, 0)

	_, err := rec.AllocateToChannel("CH-1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(95), rec.Available())
	assert.Equal(t, int64(5), rec.Channels().Get("CH-1"))
	assert.Equal(t, int64(100), rec.Total())
	assert.Equal(t, int64(0), rec.Reserved())
	require.NoError(t, rec.CheckInvariants())

	_, err = rec.DeallocateFromChannel("CH-1", 6)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllocation)
	_, err = rec.DeallocateFromChannel("CH-2", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientAllocation)
	_, err = rec.AllocateToChannel("", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = rec.AllocateToChannel("CH-1", 96)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	_, err = rec.DeallocateFromChannel("CH-1", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rec.Available())
	assert.Empty(t, rec.Channels(), "el canal se elimina al llegar a cero")
}

func TestStockRecord_Traslados(t *testing.T) {
	rec := newStock(t, 10, 0)
	_, err := rec.TransferOut(11)
	assert.ErrorIs(t, err, domain.ErrInsufficientAvailable)

	_, err = rec.TransferOut(4)
	require.NoError(t, err)
	assertQuantities(t, rec, 6, 6, 0)

	_, err = rec.TransferIn(4)
	require.NoError(t, err)
	assertQuantities(t, rec, 10, 10, 0)
}

func TestStockRecord_IngresosQueDesbordanSeRechazan(t *testing.T) {
	rec := newStock(t, 10, 1)
	_, err := rec.Reserve(2)
	require.NoError(t, err)

	_, err = rec.Receive(math.MaxInt64)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = rec.TransferIn(math.MaxInt64 - 9)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	_, err = rec.Adjust(math.MaxInt64, "conteo físico")
	assert.ErrorIs(t, err, domain.ErrInvalidAdjustment)
	assertQuantities(t, rec, 10, 8, 2)

	// Justo en el límite sí cabe.
	_, err = rec.Receive(math.MaxInt64 - 10)
	require.NoError(t, err)
	assertQuantities(t, rec, math.MaxInt64, math.MaxInt64-2, 2)

	_, err = rec.Receive(1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assertQuantities(t, rec, math.MaxInt64, math.MaxInt64-2, 2)
}

func TestNewStockRecord_StockDeSeguridadMaximo(t *testing.T) {
	rec, err := entity.NewStockRecord("tenant-1", "P-1", "W-1", 1, entity.MaxSafetyStock, time.Now())
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusLow, rec.Status())

	_, err = entity.NewStockRecord("tenant-1", "P-1", "W-1", 1, entity.MaxSafetyStock+1, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = entity.RestoreStockRecord(entity.StockState{
		ID: "s-1", TenantID: "tenant-1", ProductID: "P-1", WarehouseID: "W-1",
		Total: 1, Available: 1, SafetyStock: math.MaxInt64,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStockRecord_StateYRestore(t *testing.T) {
	rec := newStock(t, 30, 5)
	_, err := rec.Reserve(10)
	require.NoError(t, err)
	_, err = rec.AllocateToChannel("CH-1", 3)
	require.NoError(t, err)
	rec.Version = 7

	restored, err := entity.RestoreStockRecord(rec.State())
	require.NoError(t, err)
	assert.Equal(t, rec.State(), restored.State())

	bad := rec.State()
	bad.Available = 99
	_, err = entity.RestoreStockRecord(bad)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStockRecord_CloneIndependiente(t *testing.T) {
	rec := newStock(t, 10, 0)
	_, err := rec.AllocateToChannel("CH-1", 2)
	require.NoError(t, err)

	clone := rec.Clone()
	_, err = clone.AllocateToChannel("CH-1", 3)
	require.NoError(t, err)

	assert.Equal(t, int64(2), rec.Channels().Get("CH-1"))
	assert.Equal(t, int64(5), clone.Channels().Get("CH-1"))
}

// Secuencias aleatorias de operaciones: el invariante y la no negatividad se mantienen,
// y una operación rechazada no cambia nada.
func TestStockRecord_InvarianteConOperacionesAleatorias(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	channels := []string{"CH-1", "CH-2", "CH-3"}

	for run := 0; run < 50; run++ {
		rec := newStock(t, rng.Int63n(50), rng.Int63n(20))
		for step := 0; step < 200; step++ {
			before := rec.State()
			qty := rng.Int63n(30) - 5
			var err error
			switch rng.Intn(9) {
			case 0:
				_, err = rec.Receive(qty)
			case 1:
				_, err = rec.Reserve(qty)
			case 2:
				_, err = rec.Release(qty)
			case 3:
				_, err = rec.Ship(qty)
			case 4:
				_, err = rec.Adjust(qty, "aleatorio")
			case 5:
				_, err = rec.AllocateToChannel(channels[rng.Intn(len(channels))], qty)
			case 6:
				_, err = rec.DeallocateFromChannel(channels[rng.Intn(len(channels))], qty)
			case 7:
				_, err = rec.TransferOut(qty)
			case 8:
				_, err = rec.TransferIn(qty)
			}
			require.NoError(t, rec.CheckInvariants(), "run %d step %d", run, step)
			if err != nil {
				require.Equal(t, before, rec.State(), "una operación fallida no modifica el registro")
			}
		}
	}
}
