package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback de todo; si no, Commit. Garantiza atomicidad del libro.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error) error
}

// ProductLocker serializa las operaciones de escritura por producto.
// Lock bloquea hasta obtener el candado o hasta que ctx expire; unlock debe llamarse siempre.
type ProductLocker interface {
	Lock(ctx context.Context, productID string) (unlock func(), err error)
}

// AlertEventKind tipo de evento de alerta publicado tras el commit.
type AlertEventKind string

const (
	AlertOpened   AlertEventKind = "alert_opened"
	AlertResolved AlertEventKind = "alert_resolved"
)

// AlertEvent evento que consume el sumidero de notificaciones (email, dashboard, Kafka...).
type AlertEvent struct {
	Kind          AlertEventKind
	Alert         entity.InventoryAlert
	LedgerEntryID string // movimiento que provocó el cambio
	Quantity      int64  // cantidad resultante
	OccurredAt    time.Time
}

// AlertNotifier recibe los eventos de alertas de una unidad de trabajo ya confirmada.
// Nunca se invoca para transacciones revertidas.
type AlertNotifier interface {
	Notify(ctx context.Context, events []AlertEvent) error
}

// NopNotifier descarta los eventos.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, []AlertEvent) error { return nil }
