package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. InitialQuantity es el punto de partida del libro.
type CreateProductRequest struct {
	SKU               string          `json:"sku" validate:"required,min=1,max=100"`
	Name              string          `json:"name" validate:"required,min=1,max=200"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	UnitMeasure       string          `json:"unit_measure"`
	InitialQuantity   int64           `json:"initial_quantity" validate:"min=0"`
	LowStockThreshold int64           `json:"low_stock_threshold" validate:"min=0"`
}

// UpdateProductRequest entrada para actualizar un producto (sin cantidades: se manejan vía movimientos).
type UpdateProductRequest struct {
	SKU               *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Name              *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	UnitMeasure       *string          `json:"unit_measure"`
	LowStockThreshold *int64           `json:"low_stock_threshold"`
	IsActive          *bool            `json:"is_active"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	UnitMeasure       string          `json:"unit_measure"`
	OpeningQuantity   int64           `json:"opening_quantity"`
	StockQuantity     int64           `json:"stock_quantity"`
	LowStockThreshold int64           `json:"low_stock_threshold"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
