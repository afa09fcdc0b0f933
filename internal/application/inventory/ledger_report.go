package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// LedgerReportUseCase genera el kardex (PDF) de un registro de stock.
type LedgerReportUseCase struct {
	stocks    repository.StockRepository
	ledger    repository.MovementLedger
	generator LedgerPDFGenerator
}

// NewLedgerReportUseCase construye el caso de uso inyectando sus dependencias.
func NewLedgerReportUseCase(
	stocks repository.StockRepository,
	ledger repository.MovementLedger,
	generator LedgerPDFGenerator,
) *LedgerReportUseCase {
	return &LedgerReportUseCase{stocks: stocks, ledger: ledger, generator: generator}
}

// GenerateLedgerPDF carga el registro y sus movimientos y genera el PDF.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si el registro no existe para la empresa.
func (uc *LedgerReportUseCase) GenerateLedgerPDF(
	ctx context.Context,
	tenantID string,
	stockID entity.StockID,
) (pdfBytes []byte, filename string, err error) {
	if tenantID == "" || stockID == "" {
		return nil, "", domain.ErrInvalidInput
	}

	rec, err := uc.stocks.GetByID(ctx, tenantID, stockID)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: obtener stock: %w", err)
	}
	if rec == nil {
		return nil, "", domain.ErrNotFound
	}

	movements, err := uc.ledger.ListByStock(ctx, tenantID, stockID)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: obtener movimientos: %w", err)
	}

	pdfBytes, err = uc.generator.GenerateLedgerPDF(ctx, rec, movements)
	if err != nil {
		return nil, "", fmt.Errorf("kardex: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("kardex_%s_%s.pdf", rec.ProductID, rec.WarehouseID)
	return pdfBytes, filename, nil
}
