package entity

import "time"

// AlertType tipo de alerta de inventario.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
)

// InventoryAlert alerta de stock bajo o agotado. Como máximo una alerta sin resolver
// por (ProductID, AlertType). Se resuelve, nunca se borra.
type InventoryAlert struct {
	ID         string
	ProductID  string
	AlertType  AlertType
	Message    string
	IsResolved bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
