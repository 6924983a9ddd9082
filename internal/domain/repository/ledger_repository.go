package repository

import (
	"context"

	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
)

// LedgerRepository almacén append-only de movimientos de inventario.
// No existe operación de actualización ni de borrado.
type LedgerRepository interface {
	// Append persiste una entrada completa. ErrInvalidInput si NewQuantity < 0 o QuantityChange == 0.
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	// ListForProduct devuelve hasta limit entradas con Sequence > afterSequence, en orden ascendente.
	ListForProduct(ctx context.Context, productID string, afterSequence int64, limit int) ([]*entity.LedgerEntry, error)
	// LastForProduct devuelve la última entrada confirmada del producto o nil si no hay ninguna.
	LastForProduct(ctx context.Context, productID string) (*entity.LedgerEntry, error)
	// GetByIdempotencyKey busca una entrada previa con la misma clave (nil si no existe).
	GetByIdempotencyKey(ctx context.Context, productID, key string) (*entity.LedgerEntry, error)
}
