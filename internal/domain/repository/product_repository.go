package repository

import (
	"context"

	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Los Get devuelven (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// GetForUpdate obtiene el producto y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	// Update actualiza los datos de catálogo. No modifica StockQuantity ni OpeningQuantity.
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStockQuantity escribe la cantidad cacheada solo si sigue valiendo expected.
	// Devuelve domain.ErrConcurrencyConflict si otra operación la cambió primero.
	UpdateStockQuantity(ctx context.Context, id string, expected, next int64) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
