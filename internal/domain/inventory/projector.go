package inventory

import (
	"math"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
)

// Project traduce "aplicar delta al stock actual" en el par (anterior, nuevo) validado (servicio de dominio, sin I/O).
// Si el resultado es negativo y allowNegative es false devuelve *domain.StockError con ErrInsufficientStock.
func Project(current, delta int64, allowNegative bool) (previous, next int64, err error) {
	if (delta > 0 && current > math.MaxInt64-delta) || (delta < 0 && current < math.MinInt64-delta) {
		return 0, 0, domain.Invalid("desbordamiento al aplicar %d sobre %d", delta, current)
	}
	next = current + delta
	if next < 0 && !allowNegative {
		se := domain.NewStockError(domain.ErrInsufficientStock, "", nil)
		se.Current = current
		se.Change = delta
		return 0, 0, se
	}
	return current, next, nil
}
