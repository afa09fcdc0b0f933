package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementLedger = (*MovementLedger)(nil)

const movementColumns = `
	id::text, tenant_id, stock_id::text, seq, type, quantity, before_total, after_total,
	reference_id, reason, created_by, created_at`

// MovementLedger ledger de movimientos sobre PostgreSQL: solo INSERT y SELECT.
// La secuencia (seq BIGSERIAL) se asigna dentro de la transacción que tiene bloqueada la fila del stock,
// así que el orden por registro coincide con el orden de confirmación.
type MovementLedger struct {
	q Querier
}

// NewMovementLedger construye el adaptador. Pasar pool o tx (Querier).
func NewMovementLedger(q Querier) *MovementLedger {
	return &MovementLedger{q: q}
}

// Append persiste el movimiento y completa movement.Sequence.
func (r *MovementLedger) Append(ctx context.Context, m *entity.MovementEntry) error {
	query := `
		INSERT INTO stock_movements (id, tenant_id, stock_id, type, quantity, before_total, after_total,
			reference_id, reason, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID.String(), m.TenantID, m.StockID.String(), string(m.Type), m.Quantity, m.BeforeTotal, m.AfterTotal,
		nullIfEmpty(m.ReferenceID), nullIfEmpty(m.Reason), nullIfEmpty(m.CreatedBy), m.CreatedAt,
	).Scan(&m.Sequence)
	if err != nil {
		return fmt.Errorf("append stock movement: %w", err)
	}
	return nil
}

// ListByStock movimientos del registro en orden de secuencia.
func (r *MovementLedger) ListByStock(ctx context.Context, tenantID string, stockID entity.StockID) ([]*entity.MovementEntry, error) {
	if !isUUID(stockID.String()) {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE tenant_id = $1 AND stock_id = $2
		ORDER BY seq`
	return r.list(ctx, "list movements by stock", query, tenantID, stockID.String())
}

// ListByReference movimientos con la referencia dada (pedido, traslado), en orden de secuencia.
func (r *MovementLedger) ListByReference(ctx context.Context, tenantID, referenceID string) ([]*entity.MovementEntry, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE tenant_id = $1 AND reference_id = $2
		ORDER BY seq`
	return r.list(ctx, "list movements by reference", query, tenantID, referenceID)
}

func (r *MovementLedger) list(ctx context.Context, op, query string, args ...any) ([]*entity.MovementEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var list []*entity.MovementEntry
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func scanMovement(row pgx.Row) (*entity.MovementEntry, error) {
	var (
		m                          entity.MovementEntry
		id, stockID, typ           string
		referenceID, reason, maker *string
	)
	err := row.Scan(
		&id, &m.TenantID, &stockID, &m.Sequence, &typ, &m.Quantity, &m.BeforeTotal, &m.AfterTotal,
		&referenceID, &reason, &maker, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ID = entity.MovementID(id)
	m.StockID = entity.StockID(stockID)
	m.Type = entity.MovementType(typ)
	m.ReferenceID = fromNullable(referenceID)
	m.Reason = fromNullable(reason)
	m.CreatedBy = fromNullable(maker)
	return &m, nil
}
