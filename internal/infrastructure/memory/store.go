// Package memory implementa los puertos de persistencia del ledger de stock en memoria,
// para desarrollo (STORAGE_DRIVER=memory) y tests. Conserva la semántica de bloqueo de PostgreSQL:
// GetForUpdate toma un mutex por registro que se mantiene hasta Commit/Rollback.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger-api/internal/application/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner          = (*Store)(nil)
	_ repository.StockRepository = (*StockRepo)(nil)
	_ repository.MovementLedger  = (*MovementLedger)(nil)
)

type naturalKey struct {
	tenantID, productID, warehouseID string
}

// Store estado compartido: registros confirmados, índice por clave natural y ledger.
type Store struct {
	mu        sync.RWMutex
	stocks    map[entity.StockID]entity.StockState
	byKey     map[naturalKey]entity.StockID
	movements []*entity.MovementEntry
	seq       int64

	locksMu sync.Mutex
	locks   map[entity.StockID]*recordLock
}

// recordLock mutex de un registro; refs cuenta las tx que lo tienen o lo esperan.
type recordLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		stocks: make(map[entity.StockID]entity.StockState),
		byKey:  make(map[naturalKey]entity.StockID),
		locks:  make(map[entity.StockID]*recordLock),
	}
}

// Stocks repositorio fuera de transacción: cada escritura se confirma de inmediato.
func (s *Store) Stocks() *StockRepo { return &StockRepo{store: s} }

// Ledger ledger fuera de transacción.
func (s *Store) Ledger() *MovementLedger { return &MovementLedger{store: s} }

// Run ejecuta fn con repositorios atados a una transacción en memoria.
// Las escrituras quedan en staging hasta el Commit; un error descarta todo.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	ledger repository.MovementLedger,
) error) error {
	t := s.begin()
	defer t.release()

	if err := fn(&StockRepo{store: s, tx: t}, &MovementLedger{store: s, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.commit()
}

// acquire bloquea el registro id. La entrada del mapa vive mientras alguna tx la use.
func (s *Store) acquire(id entity.StockID) *recordLock {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &recordLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *Store) releaseLock(id entity.StockID, l *recordLock) {
	l.mu.Unlock()
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

func (s *Store) committed(tenantID string, id entity.StockID) (entity.StockState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stocks[id]
	if !ok || st.TenantID != tenantID {
		return entity.StockState{}, false
	}
	return st, true
}

// tx unidad de trabajo: registros bloqueados, creaciones, guardados y movimientos pendientes.
type tx struct {
	store     *Store
	held      map[entity.StockID]*recordLock
	created   map[entity.StockID]entity.StockState
	saved     map[entity.StockID]entity.StockState
	movements []*entity.MovementEntry
}

func (s *Store) begin() *tx {
	return &tx{
		store:   s,
		held:    make(map[entity.StockID]*recordLock),
		created: make(map[entity.StockID]entity.StockState),
		saved:   make(map[entity.StockID]entity.StockState),
	}
}

// lock bloquea el registro hasta el fin de la transacción (reentrante dentro de la misma tx).
func (t *tx) lock(id entity.StockID) {
	if _, ok := t.held[id]; ok {
		return
	}
	t.held[id] = t.store.acquire(id)
}

func (t *tx) unlock(id entity.StockID) {
	if l, ok := t.held[id]; ok {
		t.store.releaseLock(id, l)
		delete(t.held, id)
	}
}

func (t *tx) release() {
	for id := range t.held {
		t.unlock(id)
	}
}

// view estado visible para la tx: lo pendiente tiene prioridad sobre lo confirmado.
func (t *tx) view(tenantID string, id entity.StockID) (entity.StockState, bool) {
	for _, staged := range []map[entity.StockID]entity.StockState{t.saved, t.created} {
		if st, ok := staged[id]; ok {
			return st, st.TenantID == tenantID
		}
	}
	return t.store.committed(tenantID, id)
}

func (t *tx) create(st entity.StockState) error {
	key := naturalKey{st.TenantID, st.ProductID, st.WarehouseID}
	for _, c := range t.created {
		if (naturalKey{c.TenantID, c.ProductID, c.WarehouseID}) == key {
			return domain.ErrDuplicateStock
		}
	}
	t.store.mu.RLock()
	_, dup := t.store.byKey[key]
	t.store.mu.RUnlock()
	if dup {
		return domain.ErrDuplicateStock
	}
	t.created[st.ID] = st
	return nil
}

func (t *tx) save(st entity.StockState) error {
	current, ok := t.view(st.TenantID, st.ID)
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != st.Version {
		return fmt.Errorf("%w: stock %s versión %d", domain.ErrConflict, st.ID, st.Version)
	}
	st.Version++
	if _, isNew := t.created[st.ID]; isNew {
		t.created[st.ID] = st
	} else {
		t.saved[st.ID] = st
	}
	return nil
}

// commit aplica todo bajo el lock global. Repite las verificaciones de unicidad y versión
// porque las lecturas sin GetForUpdate no bloquean.
func (t *tx) commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range t.created {
		if _, dup := s.byKey[naturalKey{st.TenantID, st.ProductID, st.WarehouseID}]; dup {
			return domain.ErrDuplicateStock
		}
	}
	for id, st := range t.saved {
		if cur, ok := s.stocks[id]; !ok || cur.Version != st.Version-1 {
			return fmt.Errorf("%w: stock %s", domain.ErrConflict, id)
		}
	}

	for id, st := range t.created {
		s.stocks[id] = st
		s.byKey[naturalKey{st.TenantID, st.ProductID, st.WarehouseID}] = id
	}
	for id, st := range t.saved {
		s.stocks[id] = st
	}
	for _, m := range t.movements {
		s.seq++
		m.Sequence = s.seq
		cp := *m
		s.movements = append(s.movements, &cp)
	}
	return nil
}

// autoCommit ejecuta una escritura fuera de transacción como una tx de una sola operación.
func (s *Store) autoCommit(fn func(t *tx) error) error {
	t := s.begin()
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

// ── StockRepository ──────────────────────────────────────────────────────────

// StockRepo implementación en memoria de repository.StockRepository.
type StockRepo struct {
	store *Store
	tx    *tx // nil: fuera de transacción
}

// Create registra el stock; ErrDuplicateStock si la clave natural ya existe.
func (r *StockRepo) Create(_ context.Context, stock *entity.StockRecord) error {
	if r.tx == nil {
		return r.store.autoCommit(func(t *tx) error { return t.create(stock.State()) })
	}
	return r.tx.create(stock.State())
}

// Save guarda con verificación de versión e incrementa stock.Version.
func (r *StockRepo) Save(_ context.Context, stock *entity.StockRecord) error {
	var err error
	if r.tx == nil {
		err = r.store.autoCommit(func(t *tx) error { return t.save(stock.State()) })
	} else {
		err = r.tx.save(stock.State())
	}
	if err != nil {
		return err
	}
	stock.Version++
	return nil
}

// GetByID (nil, nil) si no existe o es de otra empresa.
func (r *StockRepo) GetByID(_ context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error) {
	var (
		st entity.StockState
		ok bool
	)
	if r.tx != nil {
		st, ok = r.tx.view(tenantID, id)
	} else {
		st, ok = r.store.committed(tenantID, id)
	}
	if !ok {
		return nil, nil
	}
	return entity.RestoreStockRecord(st)
}

// GetForUpdate bloquea el registro hasta el fin de la transacción.
// Fuera de transacción equivale a GetByID.
func (r *StockRepo) GetForUpdate(ctx context.Context, tenantID string, id entity.StockID) (*entity.StockRecord, error) {
	if r.tx == nil {
		return r.GetByID(ctx, tenantID, id)
	}
	_, alreadyHeld := r.tx.held[id]
	r.tx.lock(id)
	rec, err := r.GetByID(ctx, tenantID, id)
	if (err != nil || rec == nil) && !alreadyHeld {
		r.tx.unlock(id)
	}
	return rec, err
}

// GetByProductAndWarehouse busca por la clave natural.
func (r *StockRepo) GetByProductAndWarehouse(ctx context.Context, tenantID, productID, warehouseID string) (*entity.StockRecord, error) {
	key := naturalKey{tenantID, productID, warehouseID}
	if r.tx != nil {
		for id, st := range r.tx.created {
			if (naturalKey{st.TenantID, st.ProductID, st.WarehouseID}) == key {
				return r.GetByID(ctx, tenantID, id)
			}
		}
	}
	r.store.mu.RLock()
	id, ok := r.store.byKey[key]
	r.store.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, tenantID, id)
}

// ListByTenant ordenado por producto y bodega, como en PostgreSQL.
func (r *StockRepo) ListByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error) {
	return r.filter(tenantID, limit, offset, nil)
}

// ListByTenantAndStatus filtra por el estado derivado.
func (r *StockRepo) ListByTenantAndStatus(_ context.Context, tenantID string, status entity.StockStatus, limit, offset int) ([]*entity.StockRecord, error) {
	return r.filter(tenantID, limit, offset, func(rec *entity.StockRecord) bool {
		return rec.Status() == status
	})
}

// ListLowStockByTenant registros LOW, mayor déficit primero.
func (r *StockRepo) ListLowStockByTenant(_ context.Context, tenantID string, limit, offset int) ([]*entity.StockRecord, error) {
	all, err := r.filter(tenantID, 0, 0, func(rec *entity.StockRecord) bool {
		return rec.Status() == entity.StockStatusLow
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SafetyStock-all[i].Available() > all[j].SafetyStock-all[j].Available()
	})
	return page(all, limit, offset), nil
}

// Totals agrega unidades y conteos por estado.
func (r *StockRepo) Totals(_ context.Context, tenantID string) (*repository.StockTotals, error) {
	all, err := r.filter(tenantID, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	t := &repository.StockTotals{
		ByStatus:  map[entity.StockStatus]int{},
		Total:     decimal.Zero,
		Available: decimal.Zero,
		Reserved:  decimal.Zero,
		Allocated: decimal.Zero,
	}
	for _, rec := range all {
		t.Records++
		t.ByStatus[rec.Status()]++
		t.Total = t.Total.Add(decimal.NewFromInt(rec.Total()))
		t.Available = t.Available.Add(decimal.NewFromInt(rec.Available()))
		t.Reserved = t.Reserved.Add(decimal.NewFromInt(rec.Reserved()))
		t.Allocated = t.Allocated.Add(decimal.NewFromInt(rec.Allocated()))
	}
	return t, nil
}

// filter recorre lo confirmado (más lo pendiente de la tx) de la empresa; limit 0 = sin límite.
func (r *StockRepo) filter(tenantID string, limit, offset int, keep func(*entity.StockRecord) bool) ([]*entity.StockRecord, error) {
	states := make(map[entity.StockID]entity.StockState)
	r.store.mu.RLock()
	for id, st := range r.store.stocks {
		if st.TenantID == tenantID {
			states[id] = st
		}
	}
	r.store.mu.RUnlock()
	if r.tx != nil {
		for _, staged := range []map[entity.StockID]entity.StockState{r.tx.created, r.tx.saved} {
			for id, st := range staged {
				if st.TenantID == tenantID {
					states[id] = st
				}
			}
		}
	}

	out := make([]*entity.StockRecord, 0, len(states))
	for _, st := range states {
		rec, err := entity.RestoreStockRecord(st)
		if err != nil {
			return nil, err
		}
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].WarehouseID < out[j].WarehouseID
	})
	return page(out, limit, offset), nil
}

func page(list []*entity.StockRecord, limit, offset int) []*entity.StockRecord {
	if offset >= len(list) {
		return []*entity.StockRecord{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// ── MovementLedger ───────────────────────────────────────────────────────────

// MovementLedger implementación en memoria de repository.MovementLedger. Solo anexa.
type MovementLedger struct {
	store *Store
	tx    *tx
}

// Append deja el movimiento pendiente; la secuencia se asigna al confirmar.
func (l *MovementLedger) Append(_ context.Context, m *entity.MovementEntry) error {
	if l.tx == nil {
		return l.store.autoCommit(func(t *tx) error {
			t.movements = append(t.movements, m)
			return nil
		})
	}
	l.tx.movements = append(l.tx.movements, m)
	return nil
}

// ListByStock movimientos del registro en orden de secuencia.
func (l *MovementLedger) ListByStock(_ context.Context, tenantID string, stockID entity.StockID) ([]*entity.MovementEntry, error) {
	return l.collect(func(m *entity.MovementEntry) bool {
		return m.TenantID == tenantID && m.StockID == stockID
	}), nil
}

// ListByReference movimientos con la referencia dada, en orden de secuencia.
func (l *MovementLedger) ListByReference(_ context.Context, tenantID, referenceID string) ([]*entity.MovementEntry, error) {
	return l.collect(func(m *entity.MovementEntry) bool {
		return m.TenantID == tenantID && m.ReferenceID == referenceID
	}), nil
}

// collect devuelve copias; el slice interno ya está en orden de secuencia.
func (l *MovementLedger) collect(keep func(*entity.MovementEntry) bool) []*entity.MovementEntry {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	out := make([]*entity.MovementEntry, 0)
	for _, m := range l.store.movements {
		if keep(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}
