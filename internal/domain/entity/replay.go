package entity

import (
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// LedgerTotals cantidades reconstruidas a partir de los movimientos.
// Unreserved = disponible + asignado a canales: las asignaciones no generan movimientos,
// así que el ledger no puede distinguirlas del disponible.
type LedgerTotals struct {
	Total      int64
	Unreserved int64
	Reserved   int64
}

// TotalsOf devuelve las cantidades actuales del registro en la misma forma que ReplayMovements.
func TotalsOf(s *StockRecord) LedgerTotals {
	return LedgerTotals{
		Total:      s.Total(),
		Unreserved: s.Available() + s.Allocated(),
		Reserved:   s.Reserved(),
	}
}

// ReplayMovements reproduce los movimientos desde (0,0,0) en orden de secuencia.
// Falla con ErrLedgerMismatch si un BeforeTotal/AfterTotal no encadena con el total acumulado.
func ReplayMovements(entries []*MovementEntry) (LedgerTotals, error) {
	ordered := make([]*MovementEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Sequence < ordered[j].Sequence })

	var t LedgerTotals
	for _, m := range ordered {
		if m.BeforeTotal != t.Total {
			return t, fmt.Errorf("%w: movimiento %s espera total %d, acumulado %d",
				domain.ErrLedgerMismatch, m.ID, m.BeforeTotal, t.Total)
		}
		switch m.Type {
		case MovementTypeReceive, MovementTypeTransferIn, MovementTypeAdjust:
			t.Total += m.Quantity
			t.Unreserved += m.Quantity
		case MovementTypeTransferOut:
			t.Total -= m.Quantity
			t.Unreserved -= m.Quantity
		case MovementTypeReserve:
			t.Unreserved -= m.Quantity
			t.Reserved += m.Quantity
		case MovementTypeRelease:
			t.Reserved -= m.Quantity
			t.Unreserved += m.Quantity
		case MovementTypeShip:
			t.Reserved -= m.Quantity
			t.Total -= m.Quantity
		default:
			return t, fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrLedgerMismatch, m.Type)
		}
		if m.AfterTotal != t.Total {
			return t, fmt.Errorf("%w: movimiento %s registra total %d, reproducido %d",
				domain.ErrLedgerMismatch, m.ID, m.AfterTotal, t.Total)
		}
	}
	return t, nil
}
