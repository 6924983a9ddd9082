// Package memory implementa los repositorios de inventario en memoria (desarrollo y tests).
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

// state datos del almacén. Se copia al iniciar cada transacción y se publica en el commit.
type state struct {
	products map[string]entity.Product
	skus     map[string]string // sku -> id
	ledger   map[string][]entity.LedgerEntry
	alerts   []entity.InventoryAlert
}

func (s *state) clone() *state {
	ledger := make(map[string][]entity.LedgerEntry, len(s.ledger))
	for k, v := range s.ledger {
		// Clip obliga a que un append en la copia no escriba sobre el arreglo confirmado
		ledger[k] = slices.Clip(v)
	}
	return &state{
		products: maps.Clone(s.products),
		skus:     maps.Clone(s.skus),
		ledger:   ledger,
		alerts:   slices.Clone(s.alerts),
	}
}

// Store almacén en memoria. Las transacciones se ejecutan de una en una; las escrituras
// se aplican sobre una copia que solo se publica si fn no devuelve error.
type Store struct {
	mu   sync.Mutex
	data *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: &state{
		products: map[string]entity.Product{},
		skus:     map[string]string{},
		ledger:   map[string][]entity.LedgerEntry{},
	}}
}

// Run ejecuta fn con repositorios sobre una copia del estado; commit si fn devuelve nil.
// Todas las transacciones se serializan, también entre productos distintos; no apto para producción.
func (s *Store) Run(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	ledgerRepo repository.LedgerRepository,
	alertRepo repository.AlertRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	tx := &txRepos{st: staged}
	if err := fn(&ProductRepo{tx: tx}, &LedgerRepo{tx: tx}, &AlertRepo{tx: tx}); err != nil {
		return err
	}
	s.data = staged
	return nil
}

// Products devuelve un repositorio de productos fuera de transacción (cada llamada es atómica).
func (s *Store) Products() repository.ProductRepository {
	return &autoProductRepo{store: s}
}

type txRepos struct {
	st *state
}

// ─── Productos ────────────────────────────────────────────────────────────────

// ProductRepo implementa repository.ProductRepository dentro de una transacción en memoria.
type ProductRepo struct {
	tx *txRepos
}

var _ repository.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	if _, ok := r.tx.st.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	if _, ok := r.tx.st.skus[p.SKU]; ok {
		return domain.ErrDuplicate
	}
	r.tx.st.products[p.ID] = *p
	r.tx.st.skus[p.SKU] = p.ID
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.tx.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	id, ok := r.tx.st.skus[sku]
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// GetForUpdate no necesita bloqueo: la transacción ya es exclusiva.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	cur, ok := r.tx.st.products[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if owner, ok := r.tx.st.skus[p.SKU]; ok && owner != p.ID {
		return domain.ErrDuplicate
	}
	delete(r.tx.st.skus, cur.SKU)
	r.tx.st.skus[p.SKU] = p.ID
	cur.SKU = p.SKU
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.UnitMeasure = p.UnitMeasure
	cur.LowStockThreshold = p.LowStockThreshold
	cur.IsActive = p.IsActive
	cur.UpdatedAt = p.UpdatedAt
	r.tx.st.products[p.ID] = cur
	return nil
}

func (r *ProductRepo) UpdateStockQuantity(_ context.Context, id string, expected, next int64) error {
	cur, ok := r.tx.st.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.StockQuantity != expected {
		return domain.ErrConcurrencyConflict
	}
	cur.StockQuantity = next
	cur.UpdatedAt = time.Now().UTC()
	r.tx.st.products[id] = cur
	return nil
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	all := make([]*entity.Product, 0, len(r.tx.st.products))
	for _, p := range r.tx.st.products {
		all = append(all, &p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	if offset >= len(all) {
		return []*entity.Product{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// autoProductRepo ejecuta cada operación en su propia transacción.
type autoProductRepo struct {
	store *Store
}

var _ repository.ProductRepository = (*autoProductRepo)(nil)

func (a *autoProductRepo) do(ctx context.Context, fn func(r repository.ProductRepository) error) error {
	return a.store.Run(ctx, func(p repository.ProductRepository, _ repository.LedgerRepository, _ repository.AlertRepository) error {
		return fn(p)
	})
}

func (a *autoProductRepo) Create(ctx context.Context, p *entity.Product) error {
	return a.do(ctx, func(r repository.ProductRepository) error { return r.Create(ctx, p) })
}

func (a *autoProductRepo) GetByID(ctx context.Context, id string) (out *entity.Product, err error) {
	err = a.do(ctx, func(r repository.ProductRepository) error { out, err = r.GetByID(ctx, id); return err })
	return out, err
}

func (a *autoProductRepo) GetBySKU(ctx context.Context, sku string) (out *entity.Product, err error) {
	err = a.do(ctx, func(r repository.ProductRepository) error { out, err = r.GetBySKU(ctx, sku); return err })
	return out, err
}

func (a *autoProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return a.GetByID(ctx, id)
}

func (a *autoProductRepo) Update(ctx context.Context, p *entity.Product) error {
	return a.do(ctx, func(r repository.ProductRepository) error { return r.Update(ctx, p) })
}

func (a *autoProductRepo) UpdateStockQuantity(ctx context.Context, id string, expected, next int64) error {
	return a.do(ctx, func(r repository.ProductRepository) error { return r.UpdateStockQuantity(ctx, id, expected, next) })
}

func (a *autoProductRepo) List(ctx context.Context, limit, offset int) (out []*entity.Product, err error) {
	err = a.do(ctx, func(r repository.ProductRepository) error { out, err = r.List(ctx, limit, offset); return err })
	return out, err
}

// ─── Libro ────────────────────────────────────────────────────────────────────

// LedgerRepo implementa repository.LedgerRepository (solo inserción).
type LedgerRepo struct {
	tx *txRepos
}

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

func (r *LedgerRepo) Append(_ context.Context, e *entity.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	entries := r.tx.st.ledger[e.ProductID]
	if n := len(entries); n > 0 && entries[n-1].Sequence >= e.Sequence {
		return domain.ErrConcurrencyConflict
	}
	if e.IdempotencyKey != "" {
		for _, prior := range entries {
			if prior.IdempotencyKey == e.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
	}
	r.tx.st.ledger[e.ProductID] = append(entries, *e)
	return nil
}

func (r *LedgerRepo) ListForProduct(_ context.Context, productID string, afterSequence int64, limit int) ([]*entity.LedgerEntry, error) {
	entries := r.tx.st.ledger[productID]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Sequence > afterSequence })
	out := make([]*entity.LedgerEntry, 0)
	for ; i < len(entries) && (limit <= 0 || len(out) < limit); i++ {
		e := entries[i]
		out = append(out, &e)
	}
	return out, nil
}

func (r *LedgerRepo) LastForProduct(_ context.Context, productID string) (*entity.LedgerEntry, error) {
	entries := r.tx.st.ledger[productID]
	if len(entries) == 0 {
		return nil, nil
	}
	e := entries[len(entries)-1]
	return &e, nil
}

func (r *LedgerRepo) GetByIdempotencyKey(_ context.Context, productID, key string) (*entity.LedgerEntry, error) {
	for _, e := range r.tx.st.ledger[productID] {
		if e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, nil
}

// ─── Alertas ──────────────────────────────────────────────────────────────────

// AlertRepo implementa repository.AlertRepository.
type AlertRepo struct {
	tx *txRepos
}

var _ repository.AlertRepository = (*AlertRepo)(nil)

func (r *AlertRepo) OpenIfAbsent(_ context.Context, a *entity.InventoryAlert) (*entity.InventoryAlert, bool, error) {
	for _, cur := range r.tx.st.alerts {
		if cur.ProductID == a.ProductID && cur.AlertType == a.AlertType && !cur.IsResolved {
			return &cur, false, nil
		}
	}
	created := *a
	created.IsResolved = false
	created.ResolvedAt = nil
	r.tx.st.alerts = append(r.tx.st.alerts, created)
	return &created, true, nil
}

func (r *AlertRepo) Resolve(_ context.Context, productID string, alertType entity.AlertType, at time.Time) (*entity.InventoryAlert, error) {
	for i := range r.tx.st.alerts {
		cur := &r.tx.st.alerts[i]
		if cur.ProductID == productID && cur.AlertType == alertType && !cur.IsResolved {
			cur.IsResolved = true
			resolvedAt := at
			cur.ResolvedAt = &resolvedAt
			out := *cur
			return &out, nil
		}
	}
	return nil, nil
}

func (r *AlertRepo) ListOpen(_ context.Context, productID string) ([]*entity.InventoryAlert, error) {
	out := make([]*entity.InventoryAlert, 0)
	for _, a := range r.tx.st.alerts {
		if a.IsResolved || (productID != "" && a.ProductID != productID) {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}
