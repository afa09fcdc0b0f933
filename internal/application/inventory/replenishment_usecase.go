package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// idealStockFactor: el stock ideal tras reponer es safetyStock * 1.5, redondeado hacia arriba.
var idealStockFactor = decimal.NewFromFloat(1.5)

// ReplenishmentUseCase genera la lista de reposición de una empresa.
// Considera los registros agotados o por debajo del stock de seguridad.
type ReplenishmentUseCase struct {
	stocks repository.StockRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(stocks repository.StockRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{stocks: stocks}
}

// GenerateReplenishmentList devuelve los registros LOW u OUT_OF_STOCK con la cantidad sugerida
// de pedido. warehouseID puede ser vacío para considerar todas las bodegas de la empresa.
// Prioridad: agotados primero, luego mayor déficit frente al stock de seguridad.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(
	ctx context.Context,
	tenantID, warehouseID string,
) ([]dto.ReplenishmentSuggestionDTO, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidInput
	}

	low, err := uc.collect(ctx, func(limit, offset int) ([]*entity.StockRecord, error) {
		return uc.stocks.ListLowStockByTenant(ctx, tenantID, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("reposición: stock bajo: %w", err)
	}
	out, err := uc.collect(ctx, func(limit, offset int) ([]*entity.StockRecord, error) {
		return uc.stocks.ListByTenantAndStatus(ctx, tenantID, entity.StockStatusOutOfStock, limit, offset)
	})
	if err != nil {
		return nil, fmt.Errorf("reposición: agotados: %w", err)
	}

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(low)+len(out))
	for _, rec := range append(out, low...) {
		if warehouseID != "" && rec.WarehouseID != warehouseID {
			continue
		}
		// Un agotado sin stock de seguridad no tiene objetivo de reposición.
		if rec.SafetyStock == 0 {
			continue
		}
		suggestions = append(suggestions, suggest(rec))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		aOut, bOut := a.Status == string(entity.StockStatusOutOfStock), b.Status == string(entity.StockStatusOutOfStock)
		if aOut != bOut {
			return aOut
		}
		defA, defB := a.SafetyStock-a.Available, b.SafetyStock-b.Available
		if defA != defB {
			return defA > defB
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.WarehouseID < b.WarehouseID
	})

	// Prioridad 1 = más urgente
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// collect recorre todas las páginas de un listado.
func (uc *ReplenishmentUseCase) collect(ctx context.Context, list func(limit, offset int) ([]*entity.StockRecord, error)) ([]*entity.StockRecord, error) {
	var all []*entity.StockRecord
	for offset := 0; ; offset += maxPageLimit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := list(maxPageLimit, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < maxPageLimit {
			return all, nil
		}
	}
}

func suggest(rec *entity.StockRecord) dto.ReplenishmentSuggestionDTO {
	ideal := decimal.NewFromInt(rec.SafetyStock).Mul(idealStockFactor).Ceil().IntPart()
	qty := ideal - rec.Available()
	if qty < 0 {
		qty = 0
	}
	return dto.ReplenishmentSuggestionDTO{
		StockID:           rec.ID.String(),
		ProductID:         rec.ProductID,
		WarehouseID:       rec.WarehouseID,
		Status:            string(rec.Status()),
		Available:         rec.Available(),
		Reserved:          rec.Reserved(),
		SafetyStock:       rec.SafetyStock,
		IdealStock:        ideal,
		SuggestedOrderQty: qty,
	}
}
