package entity

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// StockID identificador opaco de un registro de stock.
type StockID string

// NewStockID genera un identificador nuevo.
func NewStockID() StockID { return StockID(uuid.New().String()) }

func (id StockID) String() string { return string(id) }

// StockRecord representa el stock de un producto en una bodega para una empresa (tenant).
// Las cantidades solo cambian a través de sus operaciones; el estado se deriva siempre de ellas.
//
// Invariante: total == available + reserved + channels.Sum(), todas las cantidades >= 0.
type StockRecord struct {
	ID          StockID
	TenantID    string
	ProductID   string
	WarehouseID string
	SafetyStock int64
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	total     int64
	available int64
	reserved  int64
	channels  ChannelAllocations
}

// StockState fotografía plana del registro, usada por los repositorios para persistir y rehidratar.
type StockState struct {
	ID                 StockID
	TenantID           string
	ProductID          string
	WarehouseID        string
	Total              int64
	Available          int64
	Reserved           int64
	SafetyStock        int64
	ChannelAllocations ChannelAllocations
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewStockRecord crea el registro con total = disponible = initialQty.
func NewStockRecord(tenantID, productID, warehouseID string, initialQty, safetyStock int64, now time.Time) (*StockRecord, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(productID) == "" || strings.TrimSpace(warehouseID) == "" {
		return nil, domain.ErrInvalidInput
	}
	if initialQty < 0 || safetyStock < 0 || safetyStock > MaxSafetyStock {
		return nil, domain.ErrInvalidQuantity
	}
	return &StockRecord{
		ID:          NewStockID(),
		TenantID:    tenantID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		SafetyStock: safetyStock,
		CreatedAt:   now,
		UpdatedAt:   now,
		total:       initialQty,
		available:   initialQty,
		channels:    ChannelAllocations{},
	}, nil
}

// RestoreStockRecord reconstruye un registro persistido. Rechaza estados que violan el invariante.
func RestoreStockRecord(s StockState) (*StockRecord, error) {
	rec := &StockRecord{
		ID:          s.ID,
		TenantID:    s.TenantID,
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		SafetyStock: s.SafetyStock,
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		total:       s.Total,
		available:   s.Available,
		reserved:    s.Reserved,
		channels:    s.ChannelAllocations.Clone(),
	}
	if err := rec.CheckInvariants(); err != nil {
		return nil, fmt.Errorf("restaurar stock %s: %w", s.ID, err)
	}
	return rec, nil
}

// State devuelve una copia plana del registro.
func (s *StockRecord) State() StockState {
	return StockState{
		ID:                 s.ID,
		TenantID:           s.TenantID,
		ProductID:          s.ProductID,
		WarehouseID:        s.WarehouseID,
		Total:              s.total,
		Available:          s.available,
		Reserved:           s.reserved,
		SafetyStock:        s.SafetyStock,
		ChannelAllocations: s.channels.Clone(),
		Version:            s.Version,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// Clone copia profunda (incluye el mapa de canales).
func (s *StockRecord) Clone() *StockRecord {
	c := *s
	c.channels = s.channels.Clone()
	return &c
}

func (s *StockRecord) Total() int64     { return s.total }
func (s *StockRecord) Available() int64 { return s.available }
func (s *StockRecord) Reserved() int64  { return s.reserved }

// Allocated total apartado para canales.
func (s *StockRecord) Allocated() int64 { return s.channels.Sum() }

// Channels copia de las asignaciones por canal.
func (s *StockRecord) Channels() ChannelAllocations { return s.channels.Clone() }

// Status se calcula en cada llamada; no existe un campo de estado que pueda desincronizarse.
func (s *StockRecord) Status() StockStatus {
	return DeriveStatus(s.total, s.available, s.SafetyStock)
}

// CheckInvariants verifica no negatividad y total == disponible + reservado + asignado.
func (s *StockRecord) CheckInvariants() error {
	if s.total < 0 || s.available < 0 || s.reserved < 0 || s.SafetyStock < 0 || s.SafetyStock > MaxSafetyStock {
		return fmt.Errorf("%w: cantidades negativas (total=%d disponible=%d reservado=%d)",
			domain.ErrConflict, s.total, s.available, s.reserved)
	}
	for id, qty := range s.channels {
		if qty <= 0 {
			return fmt.Errorf("%w: asignación no positiva en canal %q", domain.ErrConflict, id)
		}
	}
	if s.total != s.available+s.reserved+s.channels.Sum() {
		return fmt.Errorf("%w: total=%d != disponible=%d + reservado=%d + asignado=%d",
			domain.ErrConflict, s.total, s.available, s.reserved, s.channels.Sum())
	}
	return nil
}

// mutate aplica fn y devuelve la transición de estado resultante.
// Las validaciones se hacen antes de llamar a mutate: fn nunca falla a mitad de camino.
func (s *StockRecord) mutate(fn func()) Transition {
	from := s.Status()
	fn()
	return Transition{From: from, To: s.Status()}
}

// fitsIncrease indica si total puede crecer en qty sin desbordar int64.
// available y reserved nunca superan a total, así que basta con revisar total.
func (s *StockRecord) fitsIncrease(qty int64) bool {
	return qty <= math.MaxInt64-s.total
}

// Receive ingresa mercancía: suma a total y disponible.
func (s *StockRecord) Receive(qty int64) (Transition, error) {
	if qty <= 0 || !s.fitsIncrease(qty) {
		return Transition{}, domain.ErrInvalidQuantity
	}
	return s.mutate(func() {
		s.total += qty
		s.available += qty
	}), nil
}

// Reserve aparta unidades disponibles para un pedido.
func (s *StockRecord) Reserve(qty int64) (Transition, error) {
	if qty <= 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if s.available < qty {
		return Transition{}, domain.ErrInsufficientAvailable
	}
	return s.mutate(func() {
		s.available -= qty
		s.reserved += qty
	}), nil
}

// Release devuelve unidades reservadas al disponible.
func (s *StockRecord) Release(qty int64) (Transition, error) {
	if qty <= 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if s.reserved < qty {
		return Transition{}, domain.ErrInsufficientReserved
	}
	return s.mutate(func() {
		s.reserved -= qty
		s.available += qty
	}), nil
}

// Ship despacha unidades. Siempre consume de lo reservado, nunca directamente del disponible.
func (s *StockRecord) Ship(qty int64) (Transition, error) {
	if qty <= 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if s.reserved < qty {
		return Transition{}, domain.ErrInsufficientReserved
	}
	return s.mutate(func() {
		s.reserved -= qty
		s.total -= qty
	}), nil
}

// Adjust corrige total y disponible por delta (positivo o negativo). El motivo es obligatorio.
func (s *StockRecord) Adjust(delta int64, reason string) (Transition, error) {
	if strings.TrimSpace(reason) == "" {
		return Transition{}, domain.ErrBlankReason
	}
	if delta == 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if delta > 0 && !s.fitsIncrease(delta) {
		return Transition{}, domain.ErrInvalidAdjustment
	}
	if s.total+delta < 0 || s.available+delta < 0 {
		return Transition{}, domain.ErrInvalidAdjustment
	}
	return s.mutate(func() {
		s.total += delta
		s.available += delta
	}), nil
}

// AllocateToChannel aparta disponible para un canal. Es un nivel distinto de la reserva:
// no toca reserved ni total.
func (s *StockRecord) AllocateToChannel(channelID string, qty int64) (Transition, error) {
	if strings.TrimSpace(channelID) == "" {
		return Transition{}, domain.ErrInvalidInput
	}
	if qty <= 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if s.available < qty {
		return Transition{}, domain.ErrInsufficientAvailable
	}
	return s.mutate(func() {
		s.available -= qty
		s.channels.add(channelID, qty)
	}), nil
}

// DeallocateFromChannel devuelve al disponible lo apartado para un canal.
func (s *StockRecord) DeallocateFromChannel(channelID string, qty int64) (Transition, error) {
	if strings.TrimSpace(channelID) == "" {
		return Transition{}, domain.ErrInvalidInput
	}
	if qty <= 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if s.channels.Get(channelID) < qty {
		return Transition{}, domain.ErrInsufficientAllocation
	}
	return s.mutate(func() {
		s.channels.remove(channelID, qty)
		s.available += qty
	}), nil
}

// TransferOut descuenta unidades disponibles que salen hacia otra bodega.
func (s *StockRecord) TransferOut(qty int64) (Transition, error) {
	if qty <= 0 {
		return Transition{}, domain.ErrInvalidQuantity
	}
	if s.available < qty {
		return Transition{}, domain.ErrInsufficientAvailable
	}
	return s.mutate(func() {
		s.total -= qty
		s.available -= qty
	}), nil
}

// TransferIn ingresa unidades que llegan desde otra bodega.
func (s *StockRecord) TransferIn(qty int64) (Transition, error) {
	if qty <= 0 || !s.fitsIncrease(qty) {
		return Transition{}, domain.ErrInvalidQuantity
	}
	return s.mutate(func() {
		s.total += qty
		s.available += qty
	}), nil
}
