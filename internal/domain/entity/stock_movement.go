package entity

import (
	"time"

	"github.com/google/uuid"
)

// MovementID identificador opaco de un movimiento.
type MovementID string

func (id MovementID) String() string { return string(id) }

// MovementType tipos de movimiento del ledger.
type MovementType string

const (
	MovementTypeReceive     MovementType = "RECEIVE"
	MovementTypeShip        MovementType = "SHIP"
	MovementTypeReserve     MovementType = "RESERVE"
	MovementTypeRelease     MovementType = "RELEASE"
	MovementTypeAdjust      MovementType = "ADJUST"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
)

// MovementEntry registro inmutable de una operación que cambia cantidades.
// Quantity es positiva salvo en ADJUST, donde lleva el signo del ajuste.
// Sequence la asigna el ledger al confirmar y define el orden de reproducción.
type MovementEntry struct {
	ID          MovementID
	TenantID    string
	StockID     StockID
	Sequence    int64
	Type        MovementType
	Quantity    int64
	BeforeTotal int64
	AfterTotal  int64
	ReferenceID string // pedido, traslado, orden de compra (opcional)
	Reason      string // opcional; obligatorio en ajustes
	CreatedBy   string // UserID (opcional)
	CreatedAt   time.Time
}

// NewMovementEntry construye un movimiento listo para anexar al ledger.
func NewMovementEntry(stock *StockRecord, typ MovementType, quantity, beforeTotal int64, referenceID, reason, createdBy string, now time.Time) *MovementEntry {
	return &MovementEntry{
		ID:          MovementID(uuid.New().String()),
		TenantID:    stock.TenantID,
		StockID:     stock.ID,
		Type:        typ,
		Quantity:    quantity,
		BeforeTotal: beforeTotal,
		AfterTotal:  stock.Total(),
		ReferenceID: referenceID,
		Reason:      reason,
		CreatedBy:   createdBy,
		CreatedAt:   now,
	}
}
