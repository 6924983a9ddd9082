package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo de la cervecería (barril, caja, botella...).
// StockQuantity es un valor derivado: siempre igual a OpeningQuantity más la suma de los
// cambios registrados en el libro de inventario. Solo el servicio de inventario lo escribe.
type Product struct {
	ID                string
	SKU               string // código único
	Name              string
	Description       string
	Price             decimal.Decimal // precio de venta
	UnitMeasure       string
	OpeningQuantity   int64 // cantidad inicial al crear el producto (inmutable)
	StockQuantity     int64
	LowStockThreshold int64 // >= 0
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
