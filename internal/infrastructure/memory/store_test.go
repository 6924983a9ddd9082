package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/memory"
)

func seed(t *testing.T, s *memory.Store, id string, qty int64) {
	t.Helper()
	require.NoError(t, s.Products().Create(context.Background(), &entity.Product{
		ID: id, SKU: "SKU-" + id, Name: id, OpeningQuantity: qty, StockQuantity: qty, LowStockThreshold: 5, IsActive: true,
	}))
}

func entry(productID string, seq, prev, change int64) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		ID: productID + "-" + string(rune('a'+seq)), ProductID: productID, Sequence: seq,
		TransactionType: entity.TransactionAdjustment, QuantityChange: change,
		PreviousQuantity: prev, NewQuantity: prev + change, CreatedAt: time.Now(),
	}
}

func TestRun_RollbackDescartaTodo(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "p1", 10)

	boom := errors.New("boom")
	err := s.Run(ctx, func(p repository.ProductRepository, l repository.LedgerRepository, a repository.AlertRepository) error {
		require.NoError(t, l.Append(ctx, entry("p1", 1, 10, -3)))
		require.NoError(t, p.UpdateStockQuantity(ctx, "p1", 10, 7))
		_, _, err := a.OpenIfAbsent(ctx, &entity.InventoryAlert{ID: "a1", ProductID: "p1", AlertType: entity.AlertLowStock})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = s.Run(ctx, func(p repository.ProductRepository, l repository.LedgerRepository, a repository.AlertRepository) error {
		prod, err := p.GetByID(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, int64(10), prod.StockQuantity)
		last, err := l.LastForProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, last)
		open, err := a.ListOpen(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, open)
		return nil
	})
	require.NoError(t, err)
}

func TestRun_CommitPublicaCambios(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "p1", 10)

	require.NoError(t, s.Run(ctx, func(p repository.ProductRepository, l repository.LedgerRepository, _ repository.AlertRepository) error {
		if err := l.Append(ctx, entry("p1", 1, 10, -3)); err != nil {
			return err
		}
		return p.UpdateStockQuantity(ctx, "p1", 10, 7)
	}))

	prod, err := s.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), prod.StockQuantity)
}

func TestProductRepo_UpdateStockQuantityDetectaConflicto(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "p1", 10)

	err := s.Products().UpdateStockQuantity(context.Background(), "p1", 9, 5)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestProductRepo_SKUDuplicado(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "p1", 10)

	err := s.Products().Create(context.Background(), &entity.Product{ID: "p2", SKU: "SKU-p1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestLedgerRepo_AppendValidaYPagina(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "p1", 10)

	err := s.Run(ctx, func(_ repository.ProductRepository, l repository.LedgerRepository, _ repository.AlertRepository) error {
		bad := entry("p1", 1, 10, -11)
		assert.ErrorIs(t, l.Append(ctx, bad), domain.ErrInvalidInput, "newQuantity negativa")

		zero := entry("p1", 1, 10, 0)
		assert.ErrorIs(t, l.Append(ctx, zero), domain.ErrInvalidInput, "cambio 0")

		q := int64(10)
		for seq := int64(1); seq <= 5; seq++ {
			require.NoError(t, l.Append(ctx, entry("p1", seq, q, -1)))
			q--
		}
		assert.ErrorIs(t, l.Append(ctx, entry("p1", 3, q, -1)), domain.ErrConcurrencyConflict, "secuencia repetida")

		page, err := l.ListForProduct(ctx, "p1", 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(3), page[0].Sequence)
		assert.Equal(t, int64(4), page[1].Sequence)
		return nil
	})
	require.NoError(t, err)
}

func TestAlertRepo_UnaAbiertaPorTipo(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := s.Run(ctx, func(_ repository.ProductRepository, _ repository.LedgerRepository, a repository.AlertRepository) error {
		first, created, err := a.OpenIfAbsent(ctx, &entity.InventoryAlert{ID: "a1", ProductID: "p1", AlertType: entity.AlertLowStock})
		require.NoError(t, err)
		assert.True(t, created)

		again, created, err := a.OpenIfAbsent(ctx, &entity.InventoryAlert{ID: "a2", ProductID: "p1", AlertType: entity.AlertLowStock})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, again.ID)

		resolved, err := a.Resolve(ctx, "p1", entity.AlertLowStock, at)
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.True(t, resolved.IsResolved)
		assert.Equal(t, at, *resolved.ResolvedAt)

		none, err := a.Resolve(ctx, "p1", entity.AlertLowStock, at)
		require.NoError(t, err)
		assert.Nil(t, none, "resolver sin alerta abierta es no-op")

		open, err := a.ListOpen(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, open)
		return nil
	})
	require.NoError(t, err)
}
