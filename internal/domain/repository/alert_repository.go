package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
)

// AlertRepository almacén de alertas de inventario. Garantiza como máximo una alerta
// sin resolver por (productID, alertType); debe usarse dentro de la transacción del llamador.
type AlertRepository interface {
	// OpenIfAbsent crea la alerta o devuelve la existente sin resolver. created indica si se insertó.
	OpenIfAbsent(ctx context.Context, alert *entity.InventoryAlert) (existing *entity.InventoryAlert, created bool, err error)
	// Resolve marca como resuelta la alerta abierta; devuelve nil si no había ninguna.
	Resolve(ctx context.Context, productID string, alertType entity.AlertType, at time.Time) (*entity.InventoryAlert, error)
	// ListOpen lista alertas sin resolver; productID vacío = todos los productos.
	ListOpen(ctx context.Context, productID string) ([]*entity.InventoryAlert, error)
}
