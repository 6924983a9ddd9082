package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/locking"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/memory"
)

// ─── Helpers ──────────────────────────────────────────────────────────────────

var errInjected = errors.New("fallo inyectado")

// failingRunner envuelve el almacén en memoria y hace fallar el paso indicado.
type failingRunner struct {
	inner *memory.Store
	step  string // "ledger", "stock" o "alert"
}

func (f *failingRunner) Run(ctx context.Context, fn func(repository.ProductRepository, repository.LedgerRepository, repository.AlertRepository) error) error {
	return f.inner.Run(ctx, func(p repository.ProductRepository, l repository.LedgerRepository, a repository.AlertRepository) error {
		switch f.step {
		case "ledger":
			l = failingLedger{l}
		case "stock":
			p = failingProducts{p}
		case "alert":
			a = failingAlerts{a}
		}
		return fn(p, l, a)
	})
}

type failingLedger struct{ repository.LedgerRepository }

func (failingLedger) Append(context.Context, *entity.LedgerEntry) error { return errInjected }

type failingProducts struct{ repository.ProductRepository }

func (failingProducts) UpdateStockQuantity(context.Context, string, int64, int64) error {
	return errInjected
}

type failingAlerts struct{ repository.AlertRepository }

func (failingAlerts) OpenIfAbsent(context.Context, *entity.InventoryAlert) (*entity.InventoryAlert, bool, error) {
	return nil, false, errInjected
}

func (failingAlerts) Resolve(context.Context, string, entity.AlertType, time.Time) (*entity.InventoryAlert, error) {
	return nil, errInjected
}

// captureNotifier guarda los eventos recibidos.
type captureNotifier struct {
	mu     sync.Mutex
	events []inventory.AlertEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, events []inventory.AlertEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
	return c.err
}

func (c *captureNotifier) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		out = append(out, string(ev.Kind)+":"+string(ev.Alert.AlertType))
	}
	return out
}

type fixture struct {
	store    *memory.Store
	svc      *inventory.Service
	notifier *captureNotifier
}

func newFixture(t *testing.T, runner inventory.TxRunner, store *memory.Store) *fixture {
	t.Helper()
	n := &captureNotifier{}
	if runner == nil {
		runner = store
	}
	svc := inventory.NewService(runner, locking.NewKeyedMutex(), n, nil, inventory.Config{LockTimeout: time.Second})
	return &fixture{store: store, svc: svc, notifier: n}
}

func seedProduct(t *testing.T, store *memory.Store, id string, qty, threshold int64) {
	t.Helper()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: "Cerveza " + id,
		OpeningQuantity: qty, StockQuantity: qty, LowStockThreshold: threshold, IsActive: true,
	}))
}

func (f *fixture) apply(t *testing.T, productID string, tt entity.TransactionType, change int64) (*entity.LedgerEntry, error) {
	t.Helper()
	return f.svc.ApplyTransaction(context.Background(), inventory.ApplyInput{
		ProductID: productID, TransactionType: tt, QuantityChange: change, Actor: "user-1",
	})
}

func (f *fixture) stock(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}

func (f *fixture) openAlerts(t *testing.T, productID string) map[entity.AlertType]int {
	t.Helper()
	list, err := f.svc.ListOpenAlerts(context.Background(), productID)
	require.NoError(t, err)
	out := map[entity.AlertType]int{}
	for _, a := range list {
		out[a.AlertType]++
	}
	return out
}

func (f *fixture) ledger(t *testing.T, productID string) []*entity.LedgerEntry {
	t.Helper()
	var out []*entity.LedgerEntry
	for e, err := range f.svc.Entries(context.Background(), productID, 0, 2) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

// ─── Escenario de referencia ──────────────────────────────────────────────────

func TestApplyTransaction_EscenarioVentaAgotadoReposicion(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 5)
	f := newFixture(t, nil, store)

	e, err := f.apply(t, "P", entity.TransactionSale, -6)
	require.NoError(t, err)
	assert.Equal(t, int64(10), e.PreviousQuantity)
	assert.Equal(t, int64(4), e.NewQuantity)
	assert.Equal(t, "user-1", e.CreatedBy)
	assert.Equal(t, map[entity.AlertType]int{entity.AlertLowStock: 1}, f.openAlerts(t, "P"))

	e, err = f.apply(t, "P", entity.TransactionSale, -4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), e.NewQuantity)
	assert.Equal(t, map[entity.AlertType]int{entity.AlertLowStock: 1, entity.AlertOutOfStock: 1}, f.openAlerts(t, "P"))

	_, err = f.apply(t, "P", entity.TransactionSale, -1)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "P", se.ProductID)
	assert.Equal(t, int64(0), se.Current)
	assert.Equal(t, int64(-1), se.Change)
	assert.Equal(t, int64(0), f.stock(t, "P"))
	assert.Len(t, f.openAlerts(t, "P"), 2)
	assert.Len(t, f.ledger(t, "P"), 2, "el rechazo no escribe en el libro")

	e, err = f.apply(t, "P", entity.TransactionRestock, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(20), e.NewQuantity)
	assert.Empty(t, f.openAlerts(t, "P"))

	assert.Equal(t, []string{
		"alert_opened:low_stock",
		"alert_opened:out_of_stock",
		"alert_resolved:out_of_stock",
		"alert_resolved:low_stock",
	}, f.notifier.kinds())

	report, err := f.svc.VerifyProduct(context.Background(), "P")
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(3), report.Entries)
	assert.Equal(t, int64(20), report.ProjectedQuantity)
}

// ─── Invariantes ──────────────────────────────────────────────────────────────

func TestApplyTransaction_TotalAcumuladoEncadenado(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 7, 2)
	f := newFixture(t, nil, store)

	changes := []struct {
		tt     entity.TransactionType
		change int64
	}{
		{entity.TransactionSale, -3},
		{entity.TransactionRestock, 12},
		{entity.TransactionAdjustment, -5},
		{entity.TransactionReturn, 1},
		{entity.TransactionCorrection, 2},
		{entity.TransactionSale, -14},
	}
	for _, c := range changes {
		_, err := f.apply(t, "P", c.tt, c.change)
		require.NoError(t, err)
	}

	entries := f.ledger(t, "P")
	require.Len(t, entries, len(changes))
	prev := int64(7)
	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Sequence)
		assert.Equal(t, prev, e.PreviousQuantity)
		assert.Equal(t, e.PreviousQuantity+e.QuantityChange, e.NewQuantity)
		prev = e.NewQuantity
	}
	assert.Equal(t, prev, f.stock(t, "P"))
}

func TestApplyTransaction_DeduplicaAlertaBajoUmbral(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 5)
	f := newFixture(t, nil, store)

	for _, change := range []int64{-6, -1, -1} {
		_, err := f.apply(t, "P", entity.TransactionSale, change)
		require.NoError(t, err)
		assert.Equal(t, 1, f.openAlerts(t, "P")[entity.AlertLowStock])
	}
	// Sube sin cruzar el umbral: sigue abierta la misma
	_, err := f.apply(t, "P", entity.TransactionReturn, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, f.openAlerts(t, "P")[entity.AlertLowStock])
	assert.Equal(t, []string{"alert_opened:low_stock"}, f.notifier.kinds())
}

func TestApplyTransaction_ResuelveYReabre(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 5)
	f := newFixture(t, nil, store)

	_, err := f.apply(t, "P", entity.TransactionSale, -5) // 5: en el umbral
	require.NoError(t, err)
	assert.Equal(t, 1, f.openAlerts(t, "P")[entity.AlertLowStock])

	_, err = f.apply(t, "P", entity.TransactionRestock, 1) // 6: por encima
	require.NoError(t, err)
	assert.Empty(t, f.openAlerts(t, "P"))

	_, err = f.apply(t, "P", entity.TransactionRestock, 1)
	require.NoError(t, err)
	assert.Empty(t, f.openAlerts(t, "P"), "sin cruce no hay alerta nueva")

	_, err = f.apply(t, "P", entity.TransactionSale, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, f.openAlerts(t, "P")[entity.AlertLowStock])
	assert.Equal(t, []string{"alert_opened:low_stock", "alert_resolved:low_stock", "alert_opened:low_stock"}, f.notifier.kinds())
}

func TestApplyTransaction_DesdeAgotadoABajoUmbral(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 2, 5)
	f := newFixture(t, nil, store)

	_, err := f.apply(t, "P", entity.TransactionSale, -2)
	require.NoError(t, err)
	_, err = f.apply(t, "P", entity.TransactionRestock, 3)
	require.NoError(t, err)

	assert.Equal(t, map[entity.AlertType]int{entity.AlertLowStock: 1}, f.openAlerts(t, "P"))
}

// ─── Atomicidad ───────────────────────────────────────────────────────────────

func TestApplyTransaction_FalloEnCualquierPasoNoDejaRastro(t *testing.T) {
	for _, step := range []string{"ledger", "stock", "alert"} {
		t.Run(step, func(t *testing.T) {
			store := memory.NewStore()
			seedProduct(t, store, "P", 10, 5)
			f := newFixture(t, &failingRunner{inner: store, step: step}, store)

			_, err := f.apply(t, "P", entity.TransactionSale, -6)
			require.ErrorIs(t, err, domain.ErrStorage)
			require.ErrorIs(t, err, errInjected)

			assert.Equal(t, int64(10), f.stock(t, "P"))
			assert.Empty(t, f.ledger(t, "P"))
			assert.Empty(t, f.openAlerts(t, "P"))
			assert.Empty(t, f.notifier.kinds(), "no se notifica nada revertido")
		})
	}
}

func TestApplyTransaction_FalloDelNotificadorNoRevierte(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 5)
	f := newFixture(t, nil, store)
	f.notifier.err = errors.New("smtp caído")

	e, err := f.apply(t, "P", entity.TransactionSale, -6)
	require.NoError(t, err)
	assert.Equal(t, int64(4), e.NewQuantity)
	assert.Equal(t, int64(4), f.stock(t, "P"))
}

// ─── Validación ───────────────────────────────────────────────────────────────

func TestApplyTransaction_Validacion(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 5)
	f := newFixture(t, nil, store)

	cases := []struct {
		name string
		in   inventory.ApplyInput
	}{
		{"cambio cero", inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionAdjustment}},
		{"tipo desconocido", inventory.ApplyInput{ProductID: "P", TransactionType: "gift", QuantityChange: 1}},
		{"venta positiva", inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionSale, QuantityChange: 1}},
		{"reposición negativa", inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionRestock, QuantityChange: -1}},
		{"sin producto", inventory.ApplyInput{TransactionType: entity.TransactionRestock, QuantityChange: 1}},
		{"negativo en venta", inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionSale, QuantityChange: -1, AllowNegative: true}},
		{"referencia incompleta", inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionRestock, QuantityChange: 1, Reference: entity.Reference{ID: "o-1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.ApplyTransaction(context.Background(), tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, int64(10), f.stock(t, "P"))
	assert.Empty(t, f.ledger(t, "P"))
}

func TestApplyTransaction_ProductoInexistente(t *testing.T) {
	f := newFixture(t, nil, memory.NewStore())

	_, err := f.apply(t, "nope", entity.TransactionRestock, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyTransaction_ProductoInactivoNoVende(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID: "P", SKU: "P", Name: "Retirada", OpeningQuantity: 5, StockQuantity: 5, IsActive: false,
	}))
	f := newFixture(t, nil, store)

	_, err := f.apply(t, "P", entity.TransactionSale, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.apply(t, "P", entity.TransactionAdjustment, -5)
	require.NoError(t, err, "los ajustes siguen permitidos para vaciar el producto")
}

func TestApplyTransaction_AllowNegativeNoRompeElLibro(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 1, 0)
	f := newFixture(t, nil, store)

	_, err := f.svc.ApplyTransaction(context.Background(), inventory.ApplyInput{
		ProductID: "P", TransactionType: entity.TransactionCorrection, QuantityChange: -3, AllowNegative: true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "una entrada con cantidad negativa no se persiste")
	assert.Equal(t, int64(1), f.stock(t, "P"))
}

// ─── Idempotencia y pedidos ───────────────────────────────────────────────────

func TestApplyTransaction_IdempotencyKey(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 0)
	f := newFixture(t, nil, store)
	in := inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionSale, QuantityChange: -2, IdempotencyKey: "k-1"}

	first, err := f.svc.ApplyTransaction(context.Background(), in)
	require.NoError(t, err)
	again, err := f.svc.ApplyTransaction(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(8), f.stock(t, "P"))

	in.QuantityChange = -3
	_, err = f.svc.ApplyTransaction(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "misma clave con otro movimiento")
}

func TestApplyOrderSaleYReturn(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 5, 0)
	f := newFixture(t, nil, store)
	ctx := context.Background()

	e, err := f.svc.ApplyOrderSale(ctx, "ord-1", "P", 3, "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.Reference{Type: "order", ID: "ord-1"}, e.Reference)

	_, err = f.svc.ApplyOrderSale(ctx, "ord-1", "P", 3, "user-1")
	require.NoError(t, err, "reintento del mismo pedido")
	assert.Equal(t, int64(2), f.stock(t, "P"))

	_, err = f.svc.ApplyOrderSale(ctx, "ord-2", "P", 3, "user-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "el pedido se rechaza completo")

	_, err = f.svc.ApplyOrderReturn(ctx, "ord-1", "dev-1", "P", 3, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.stock(t, "P"))

	_, err = f.svc.ApplyOrderReturn(ctx, "ord-1", "", "P", 3, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "la devolución necesita su propio id")

	_, err = f.svc.ApplyOrderSale(ctx, "", "P", 1, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApplyOrderReturn_DevolucionesParciales(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 0)
	f := newFixture(t, nil, store)
	ctx := context.Background()

	_, err := f.svc.ApplyOrderSale(ctx, "o1", "P", 4, "user-1")
	require.NoError(t, err)

	first, err := f.svc.ApplyOrderReturn(ctx, "o1", "r1", "P", 2, "user-1")
	require.NoError(t, err)
	second, err := f.svc.ApplyOrderReturn(ctx, "o1", "r2", "P", 2, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID, "dos devoluciones de la misma cantidad son movimientos distintos")
	assert.Equal(t, int64(10), f.stock(t, "P"))

	again, err := f.svc.ApplyOrderReturn(ctx, "o1", "r2", "P", 2, "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, again.ID, "reintento de la misma devolución")
	assert.Equal(t, int64(10), f.stock(t, "P"))
}

// ─── Concurrencia ─────────────────────────────────────────────────────────────

func TestApplyTransaction_ConcurrenciaSinSobreventa(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 50, 10)
	seedProduct(t, store, "Q", 50, 10)
	f := newFixture(t, nil, store)

	var g errgroup.Group
	var mu sync.Mutex
	ok := map[string]int{}
	for i := 0; i < 80; i++ {
		id := "P"
		if i%2 == 1 {
			id = "Q"
		}
		g.Go(func() error {
			_, err := f.apply(t, id, entity.TransactionSale, -1)
			if err != nil && !errors.Is(err, domain.ErrInsufficientStock) {
				return err
			}
			if err == nil {
				mu.Lock()
				ok[id]++
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	for _, id := range []string{"P", "Q"} {
		assert.Equal(t, 40, ok[id])
		assert.Equal(t, int64(10), f.stock(t, id))
		assert.Equal(t, 1, f.openAlerts(t, id)[entity.AlertLowStock])
		report, err := f.svc.VerifyProduct(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, report.Consistent, report.Problem)
	}
}

type blockingLocker struct{}

func (blockingLocker) Lock(ctx context.Context, _ string) (func(), error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestApplyTransaction_TimeoutDeCandadoEsConflicto(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 0)
	svc := inventory.NewService(store, blockingLocker{}, nil, nil, inventory.Config{LockTimeout: 10 * time.Millisecond})

	_, err := svc.ApplyTransaction(context.Background(), inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionSale, QuantityChange: -1})
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "P", se.ProductID)
}

func TestUpdateProduct_BajarUmbralResuelveAlerta(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 5)
	f := newFixture(t, nil, store)
	ctx := context.Background()

	_, err := f.apply(t, "P", entity.TransactionSale, -6)
	require.NoError(t, err)
	require.Equal(t, map[entity.AlertType]int{entity.AlertLowStock: 1}, f.openAlerts(t, "P"))

	p, err := f.svc.UpdateProduct(ctx, "P", func(p *entity.Product) error {
		p.LowStockThreshold = 2
		p.StockQuantity = 999
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(4), p.StockQuantity, "el catálogo no cambia cantidades")
	assert.Empty(t, f.openAlerts(t, "P"))
	kinds := f.notifier.kinds()
	require.Len(t, kinds, 2)
	assert.Equal(t, string(inventory.AlertResolved)+":"+string(entity.AlertLowStock), kinds[1])

	_, err = f.apply(t, "P", entity.TransactionRestock, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(104), f.stock(t, "P"))
	assert.Empty(t, f.openAlerts(t, "P"))

	missing, err := f.svc.UpdateProduct(ctx, "nope", func(*entity.Product) error { return nil })
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.svc.UpdateProduct(ctx, "P", func(p *entity.Product) error { return domain.Invalid("x") })
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApplyTransaction_CancelacionDelLlamadorNoEsConflicto(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 0)
	locker := locking.NewKeyedMutex()
	svc := inventory.NewService(store, locker, nil, nil, inventory.Config{LockTimeout: time.Minute})

	unlock, err := locker.Lock(context.Background(), "P")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	_, err = svc.ApplyTransaction(ctx, inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionSale, QuantityChange: -1})
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrConcurrencyConflict)

	expired, cancelExpired := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelExpired()
	_, err = svc.ApplyTransaction(expired, inventory.ApplyInput{ProductID: "P", TransactionType: entity.TransactionSale, QuantityChange: -1})
	require.ErrorIs(t, err, context.DeadlineExceeded, "el plazo del llamador también pasa sin traducir")
	assert.NotErrorIs(t, err, domain.ErrConcurrencyConflict)

	p, err := store.Products().GetByID(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.StockQuantity)
}

// ─── Consultas ────────────────────────────────────────────────────────────────

func TestLedgerPage_Cursor(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 0, 0)
	f := newFixture(t, nil, store)
	for i := 0; i < 5; i++ {
		_, err := f.apply(t, "P", entity.TransactionRestock, 1)
		require.NoError(t, err)
	}
	ctx := context.Background()

	page, next, err := f.svc.LedgerPage(ctx, "P", 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(2), next)

	page, next, err = f.svc.LedgerPage(ctx, "P", 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(5), page[0].Sequence)
	assert.Zero(t, next)

	_, _, err = f.svc.LedgerPage(ctx, "nope", 0, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEntries_CortaAlPedirlo(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 0, 0)
	f := newFixture(t, nil, store)
	for i := 0; i < 5; i++ {
		_, err := f.apply(t, "P", entity.TransactionRestock, 1)
		require.NoError(t, err)
	}

	var seen []int64
	for e, err := range f.svc.Entries(context.Background(), "P", 1, 2) {
		require.NoError(t, err)
		seen = append(seen, e.Sequence)
		if len(seen) == 3 {
			break
		}
	}
	assert.Equal(t, []int64{2, 3, 4}, seen)
}

func TestVerifyProduct_DetectaCacheDesalineada(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "P", 10, 0)
	f := newFixture(t, nil, store)
	_, err := f.apply(t, "P", entity.TransactionSale, -1)
	require.NoError(t, err)

	// Escritura directa que se salta el servicio
	require.NoError(t, store.Products().UpdateStockQuantity(context.Background(), "P", 9, 12))

	report, err := f.svc.VerifyProduct(context.Background(), "P")
	require.NoError(t, err)
	assert.False(t, report.Consistent)
	assert.Equal(t, int64(9), report.ProjectedQuantity)
	assert.Equal(t, int64(12), report.CachedQuantity)

	_, err = f.apply(t, "P", entity.TransactionSale, -1)
	assert.ErrorIs(t, err, domain.ErrStorage, "no se escribe sobre un estado inconsistente")
}

func TestRegisterProduct_AlertasIniciales(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, memory.NewStore())

	tests := []struct {
		id        string
		qty       int64
		wantKinds []string
	}{
		{"agotado", 0, []string{"alert_opened:out_of_stock"}},
		{"bajo", 3, []string{"alert_opened:low_stock"}},
		{"ok", 20, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			f.notifier.events = nil
			p := &entity.Product{ID: tt.id, SKU: "SKU-" + tt.id, Name: tt.id, OpeningQuantity: tt.qty, LowStockThreshold: 5, IsActive: true}
			require.NoError(t, f.svc.RegisterProduct(ctx, p))
			assert.Equal(t, tt.qty, f.stock(t, tt.id))
			assert.Equal(t, tt.wantKinds, f.notifier.kinds())
		})
	}

	err := f.svc.RegisterProduct(ctx, &entity.Product{ID: "otro", SKU: "SKU-ok", Name: "dup"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	err = f.svc.RegisterProduct(ctx, &entity.Product{ID: "neg", SKU: "SKU-neg", OpeningQuantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
