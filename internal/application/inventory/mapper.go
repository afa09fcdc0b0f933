package inventory

import (
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// ToStockResponse convierte el registro en la vista expuesta a los colaboradores.
func ToStockResponse(s *entity.StockRecord) *dto.StockResponse {
	if s == nil {
		return nil
	}
	return &dto.StockResponse{
		ID:                 s.ID.String(),
		TenantID:           s.TenantID,
		ProductID:          s.ProductID,
		WarehouseID:        s.WarehouseID,
		Total:              s.Total(),
		Available:          s.Available(),
		Reserved:           s.Reserved(),
		SafetyStock:        s.SafetyStock,
		Status:             string(s.Status()),
		ChannelAllocations: s.Channels(),
		Version:            s.Version,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func toStockResponses(list []*entity.StockRecord) []dto.StockResponse {
	out := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, *ToStockResponse(s))
	}
	return out
}

func toMovementResponse(m *entity.MovementEntry) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID.String(),
		StockID:     m.StockID.String(),
		Sequence:    m.Sequence,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		BeforeTotal: m.BeforeTotal,
		AfterTotal:  m.AfterTotal,
		ReferenceID: m.ReferenceID,
		Reason:      m.Reason,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

func toMovementList(list []*entity.MovementEntry) *dto.MovementListResponse {
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return &dto.MovementListResponse{Items: items, Total: len(items)}
}

func toLedgerTotals(t entity.LedgerTotals) dto.LedgerTotalsDTO {
	return dto.LedgerTotalsDTO{Total: t.Total, Unreserved: t.Unreserved, Reserved: t.Reserved}
}
