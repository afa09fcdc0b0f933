package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// statusExpr deriva el estado en SQL con las mismas reglas que entity.DeriveStatus.
// El estado nunca se almacena.
const statusExpr = `
	CASE
		WHEN total <= 0 THEN 'OUT_OF_STOCK'
		WHEN available < safety_stock THEN 'LOW'
		WHEN total > safety_stock * 3 THEN 'OVERSTOCK'
		ELSE 'NORMAL'
	END`

const stockColumns = `
	id::text, tenant_id, product_id, warehouse_id, total, available, reserved,
	safety_stock, channel_allocations, version, created_at, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Create inserta el registro. El par (tenant, producto, bodega) es único.
func (r *StockRepo) Create(ctx context.Context, stock *entity.StockRecord) error {
	s := stock.State()
	channels, err := json.Marshal(s.ChannelAllocations)
	if err != nil {
		return fmt.Errorf("create stock: codificar asignaciones: %w", err)
	}
	query := `
		INSERT INTO stocks (id, tenant_id, product_id, warehouse_id, total, available, reserved,
			safety_stock, channel_allocations, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.q.Exec(ctx, query,
		s.ID.String(), s.TenantID, s.ProductID, s.WarehouseID, s.Total, s.Available, s.Reserved,
		s.SafetyStock, channels, s.Version, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateStock
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return nil
}

// Save actualiza cantidades con verificación de versión. Si otra transacción
// cambió la fila, no se afecta ninguna y se devuelve ErrConflict.
func (r *StockRepo) Save(ctx context.Context, stock *entity.StockRecord) error {
	s := stock.State()
	channels, err := json.Marshal(s.ChannelAllocations)
	if err != nil {
		return fmt.Errorf("save stock: codificar asignaciones: %w", err)
	}
	query := `
		UPDATE stocks
		SET total = $3, available = $4, reserved = $5, safety_stock = $6,
			channel_allocations = $7, version = version + 1, updated_at = $8
		WHERE tenant_id = $1 AND id = $2 AND version = $9`
	tag, err := r.q.Exec(ctx, query,
		s.TenantID, s.ID.String(), s.Total, s.Available, s.Reserved, s.SafetyStock,
		channels, s.UpdatedAt, s.Version,
	)
	if err != nil {
		return fmt.Errorf("save stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: stock %s versión %d", domain.ErrConflict, s.ID, s.Version)
	}
	stock.Version++
	return nil
}

// GetByID obtiene el registro de la empresa; (nil, nil) si no existe.
func (r *StockRepo) GetByID(ctx context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error) {
	if !isUUID(id.String()) {
		return nil, nil
	}
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE tenant_id = $1 AND id = $2`
	return r.getOne(ctx, "get stock", query, tenantID, id.String())
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error) {
	if !isUUID(id.String()) {
		return nil, nil
	}
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE tenant_id = $1 AND id = $2 FOR UPDATE`
	return r.getOne(ctx, "get stock for update", query, tenantID, id.String())
}

// GetByProductAndWarehouse busca por la clave natural.
func (r *StockRepo) GetByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + `
		FROM stocks WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3`
	return r.getOne(ctx, "get stock by product and warehouse", query, tenantID, productID, warehouseID)
}

// ListByTenant lista los registros de la empresa.
func (r *StockRepo) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + `
		FROM stocks WHERE tenant_id = $1
		ORDER BY product_id, warehouse_id
		LIMIT $2 OFFSET $3`
	return r.list(ctx, "list stock", query, tenantID, limit, offset)
}

// ListByTenantAndStatus filtra por el estado derivado.
func (r *StockRepo) ListByTenantAndStatus(ctx context.Context, tenantID string, status entity.StockStatus, limit, offset int) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + `
		FROM stocks WHERE tenant_id = $1 AND (` + statusExpr + `) = $2
		ORDER BY product_id, warehouse_id
		LIMIT $3 OFFSET $4`
	return r.list(ctx, "list stock by status", query, tenantID, string(status), limit, offset)
}

// ListLowStockByTenant registros en estado LOW, mayor déficit primero.
func (r *StockRepo) ListLowStockByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error) {
	query := `SELECT ` + stockColumns + `
		FROM stocks WHERE tenant_id = $1 AND (` + statusExpr + `) = 'LOW'
		ORDER BY safety_stock - available DESC, product_id, warehouse_id
		LIMIT $2 OFFSET $3`
	return r.list(ctx, "list low stock", query, tenantID, limit, offset)
}

// Totals agrega unidades y cuenta registros por estado.
// Usa COALESCE para devolver cero si la empresa no tiene registros.
func (r *StockRepo) Totals(ctx context.Context, tenantID string) (*repository.StockTotals, error) {
	query := `
		SELECT ` + statusExpr + ` AS status,
			COUNT(*),
			COALESCE(SUM(total), 0)::numeric,
			COALESCE(SUM(available), 0)::numeric,
			COALESCE(SUM(reserved), 0)::numeric,
			COALESCE(SUM(total - available - reserved), 0)::numeric
		FROM stocks WHERE tenant_id = $1
		GROUP BY 1`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("stock totals: %w", err)
	}
	defer rows.Close()

	t := &repository.StockTotals{
		ByStatus:  map[entity.StockStatus]int{},
		Total:     decimal.Zero,
		Available: decimal.Zero,
		Reserved:  decimal.Zero,
		Allocated: decimal.Zero,
	}
	for rows.Next() {
		var (
			status                               string
			count                                int
			total, available, reserved, assigned decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &total, &available, &reserved, &assigned); err != nil {
			return nil, fmt.Errorf("stock totals scan: %w", err)
		}
		t.ByStatus[entity.StockStatus(status)] = count
		t.Records += count
		t.Total = t.Total.Add(total)
		t.Available = t.Available.Add(available)
		t.Reserved = t.Reserved.Add(reserved)
		t.Allocated = t.Allocated.Add(assigned)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stock totals: %w", err)
	}
	return t, nil
}

func (r *StockRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.StockRecord, error) {
	rec, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

func (r *StockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StockRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*entity.StockRecord
	for rows.Next() {
		rec, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		list = append(list, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// scanStock lee una fila y rehidrata el agregado (valida el invariante).
func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var (
		s        entity.StockState
		id       string
		channels []byte
	)
	err := row.Scan(
		&id, &s.TenantID, &s.ProductID, &s.WarehouseID, &s.Total, &s.Available, &s.Reserved,
		&s.SafetyStock, &channels, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.ID = entity.StockID(id)
	s.ChannelAllocations = entity.ChannelAllocations{}
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &s.ChannelAllocations); err != nil {
			return nil, fmt.Errorf("decodificar asignaciones: %w", err)
		}
	}
	return entity.RestoreStockRecord(s)
}
