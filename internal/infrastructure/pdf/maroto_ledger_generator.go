// Package pdf genera el kardex de un registro de stock: encabezado con las cantidades
// actuales y la tabla de movimientos en orden de confirmación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Producto + Bodega   │  Estado + Fecha de emisión   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Total | Disponible | Reservado | Asignado | Seg.  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Fecha | Tipo | Cant. | Antes | Después | Ref.  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID del registro + leyenda               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.LedgerPDFGenerator = (*MarotoLedgerGenerator)(nil)

// MarotoLedgerGenerator implementa inventory.LedgerPDFGenerator usando Maroto v2.
type MarotoLedgerGenerator struct {
	now func() time.Time
}

// NewMarotoLedgerGenerator construye el generador.
func NewMarotoLedgerGenerator() *MarotoLedgerGenerator {
	return &MarotoLedgerGenerator{now: time.Now}
}

// GenerateLedgerPDF genera el kardex y devuelve sus bytes.
func (g *MarotoLedgerGenerator) GenerateLedgerPDF(
	_ context.Context,
	stock *entity.StockRecord,
	movements []*entity.MovementEntry,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Kardex de stock", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(stock, g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(stock))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	if len(movements) == 0 {
		m.AddRows(row.New(8).Add(col.New(12).Add(
			text.New("Sin movimientos registrados", props.Text{
				Size: 8, Align: align.Center, Color: colorGray, Top: 2,
			}),
		)))
	}
	for _, r := range movementRows(movements) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(stock))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar kardex: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: producto y bodega (izq), estado y fecha de emisión (der).
func headerRow(stock *entity.StockRecord, issued time.Time) core.Row {
	statusColor := colorPrimary
	if st := stock.Status(); st == entity.StockStatusLow || st == entity.StockStatusOutOfStock {
		statusColor = colorAlert
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("KARDEX DE STOCK", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Producto: "+stock.ProductID, props.Text{
				Size: 9, Top: 8, Color: colorGray,
			}),
			text.New("Bodega: "+stock.WarehouseID, props.Text{
				Size: 9, Top: 13, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(string(stock.Status()), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right,
				Color: statusColor, Top: 1,
			}),
			text.New("Emitido: "+issued.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 9, Color: colorGray,
			}),
		),
	)
}

// summaryRow: cantidades actuales del registro.
func summaryRow(stock *entity.StockRecord) core.Row {
	cell := func(label string, value int64) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 7, Align: align.Center, Color: colorPrimary, Top: 1,
			}),
			text.New(formatUnits(value), props.Text{
				Size: 10, Align: align.Center, Top: 6,
			}),
		)
	}
	return row.New(14).Add(
		cell("TOTAL", stock.Total()),
		cell("DISPONIBLE", stock.Available()),
		cell("RESERVADO", stock.Reserved()),
		cell("ASIGNADO", stock.Allocated()),
		cell("SEGURIDAD", stock.SafetyStock),
		col.New(2).Add(
			text.New("VERSIÓN", props.Text{
				Style: fontstyle.Bold, Size: 7, Align: align.Center, Color: colorPrimary, Top: 1,
			}),
			text.New(strconv.FormatInt(stock.Version, 10), props.Text{
				Size: 10, Align: align.Center, Top: 6,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de movimientos.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Fecha", 2, align.Left),
		h("Tipo", 2, align.Left),
		h("Cant.", 1, align.Right),
		h("Antes", 1, align.Right),
		h("Después", 1, align.Right),
		h("Referencia / Motivo", 4, align.Left),
	)
}

// movementRows: una fila por movimiento.
func movementRows(movements []*entity.MovementEntry) []core.Row {
	result := make([]core.Row, 0, len(movements))
	for _, mv := range movements {
		result = append(result, row.New(6).Add(
			col.New(1).Add(text.New(
				strconv.FormatInt(mv.Sequence, 10),
				props.Text{Size: 7, Align: align.Center, Top: 1},
			)),
			col.New(2).Add(text.New(
				mv.CreatedAt.Format("02/01/2006 15:04"),
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				string(mv.Type),
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(1).Add(text.New(
				formatUnits(mv.Quantity),
				props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				formatUnits(mv.BeforeTotal),
				props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				formatUnits(mv.AfterTotal),
				props.Text{Size: 7, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(4).Add(text.New(
				describe(mv),
				props.Text{Size: 7, Align: align.Left, Top: 1, Left: 1, Color: colorGray},
			)),
		))
	}
	return result
}

// footerRow: QR con el ID del registro para ubicarlo desde la bodega.
func footerRow(stock *entity.StockRecord) core.Row {
	return row.New(30).Add(
		col.New(3).Add(code.NewQr("stock:"+stock.ID.String(), props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("ID del registro: "+stock.ID.String(), props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Los movimientos son inmutables; el orden corresponde a la secuencia de confirmación.", props.Text{
				Size: 7, Top: 12, Left: 3, Color: colorGray,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func describe(mv *entity.MovementEntry) string {
	switch {
	case mv.ReferenceID != "" && mv.Reason != "":
		return mv.ReferenceID + " · " + mv.Reason
	case mv.ReferenceID != "":
		return mv.ReferenceID
	case mv.Reason != "":
		return mv.Reason
	}
	return "—"
}

// formatUnits inserta puntos de miles. Ej: 25000 → "25.000", -1200 → "-1.200".
func formatUnits(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	l := len(s)
	if l <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, l+l/3)
	for i, c := range []byte(s) {
		if i > 0 && (l-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
