package inventory

import (
	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
)

// RunningTotal reproduce el libro de un producto entrada por entrada y verifica el invariante
// de total acumulado: entry[i].PreviousQuantity == entry[i-1].NewQuantity (o la cantidad inicial)
// y NewQuantity == PreviousQuantity + QuantityChange.
type RunningTotal struct {
	quantity int64
	applied  int64
}

// NewRunningTotal arranca la proyección desde la cantidad inicial del producto.
func NewRunningTotal(opening int64) *RunningTotal {
	return &RunningTotal{quantity: opening}
}

// Apply incorpora la siguiente entrada. Devuelve ErrInvalidInput si rompe el invariante.
func (r *RunningTotal) Apply(e *entity.LedgerEntry) error {
	if e.Sequence != r.applied+1 {
		return domain.Invalid("secuencia %d fuera de orden (esperada %d)", e.Sequence, r.applied+1)
	}
	if e.PreviousQuantity != r.quantity {
		return domain.Invalid("secuencia %d: cantidad anterior %d, esperada %d", e.Sequence, e.PreviousQuantity, r.quantity)
	}
	if e.NewQuantity != e.PreviousQuantity+e.QuantityChange {
		return domain.Invalid("secuencia %d: %d + %d != %d", e.Sequence, e.PreviousQuantity, e.QuantityChange, e.NewQuantity)
	}
	if e.NewQuantity < 0 {
		return domain.Invalid("secuencia %d: cantidad negativa %d", e.Sequence, e.NewQuantity)
	}
	r.quantity = e.NewQuantity
	r.applied++
	return nil
}

// Quantity cantidad proyectada hasta la última entrada aplicada.
func (r *RunningTotal) Quantity() int64 { return r.quantity }

// Applied número de entradas aplicadas.
func (r *RunningTotal) Applied() int64 { return r.applied }
