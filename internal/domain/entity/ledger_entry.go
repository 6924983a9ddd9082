package entity

import (
	"strings"
	"time"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
)

// TransactionType tipo cerrado de movimiento del libro de inventario.
type TransactionType string

// Tipos de movimiento admitidos.
const (
	TransactionSale       TransactionType = "sale"       // venta (cantidad negativa)
	TransactionRestock    TransactionType = "restock"    // reposición (positiva)
	TransactionReturn     TransactionType = "return"     // devolución o cancelación de pedido (positiva)
	TransactionAdjustment TransactionType = "adjustment" // ajuste manual (cualquier signo)
	TransactionCorrection TransactionType = "correction" // corrección de auditoría (cualquier signo)
)

// TransactionTypes devuelve todos los tipos válidos.
func TransactionTypes() []TransactionType {
	return []TransactionType{TransactionSale, TransactionRestock, TransactionReturn, TransactionAdjustment, TransactionCorrection}
}

// ParseTransactionType convierte un string (sin distinguir mayúsculas) al tipo cerrado.
func ParseTransactionType(s string) (TransactionType, bool) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid indica si el tipo pertenece al conjunto cerrado.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionSale, TransactionRestock, TransactionReturn, TransactionAdjustment, TransactionCorrection:
		return true
	}
	return false
}

// SignAllowed indica si el signo del cambio es coherente con el tipo.
func (t TransactionType) SignAllowed(change int64) bool {
	switch t {
	case TransactionSale:
		return change < 0
	case TransactionRestock, TransactionReturn:
		return change > 0
	case TransactionAdjustment, TransactionCorrection:
		return change != 0
	}
	return false
}

// NegativeOverridePermitted indica si el llamador puede pedir allowNegative para este tipo.
// Las ventas nunca; ajustes y correcciones de auditoría sí.
func (t TransactionType) NegativeOverridePermitted() bool {
	switch t {
	case TransactionAdjustment, TransactionCorrection:
		return true
	}
	return false
}

// Reference correlaciona un movimiento con la entidad que lo causó (p. ej. un pedido).
// No es una relación de propiedad.
type Reference struct {
	Type string
	ID   string
}

// IsZero indica si la referencia está vacía.
func (r Reference) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

// LedgerEntry es un registro inmutable de un cambio en el stock de un producto.
// NewQuantity = PreviousQuantity + QuantityChange; ambos >= 0.
type LedgerEntry struct {
	ID               string
	ProductID        string
	Sequence         int64 // posición 1..n en el libro del producto
	TransactionType  TransactionType
	QuantityChange   int64
	PreviousQuantity int64
	NewQuantity      int64
	Reference        Reference
	Notes            string
	IdempotencyKey   string
	CreatedBy        string // UserID, opcional
	CreatedAt        time.Time
}

// Validate comprueba la forma de una entrada antes de persistirla.
func (e *LedgerEntry) Validate() error {
	if e.ProductID == "" {
		return domain.Invalid("product_id requerido")
	}
	if !e.TransactionType.Valid() {
		return domain.Invalid("tipo de movimiento %q desconocido", e.TransactionType)
	}
	if e.QuantityChange == 0 {
		return domain.Invalid("quantity_change no puede ser 0")
	}
	if e.PreviousQuantity < 0 || e.NewQuantity < 0 {
		return domain.Invalid("cantidad negativa (anterior %d, nueva %d)", e.PreviousQuantity, e.NewQuantity)
	}
	if e.NewQuantity != e.PreviousQuantity+e.QuantityChange {
		return domain.Invalid("nueva cantidad %d != %d + %d", e.NewQuantity, e.PreviousQuantity, e.QuantityChange)
	}
	return nil
}
