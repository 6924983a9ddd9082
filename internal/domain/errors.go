package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente con datos frescos")
	ErrStorage             = errors.New("fallo de persistencia")
)

// StockError acompaña a los errores del libro de inventario con el producto afectado
// y las cantidades involucradas. Se desenvuelve tanto al sentinel (Kind) como a la causa.
type StockError struct {
	Kind      error
	ProductID string
	Current   int64
	Change    int64
	Err       error
}

// NewStockError construye un StockError para el producto dado.
func NewStockError(kind error, productID string, cause error) *StockError {
	return &StockError{Kind: kind, ProductID: productID, Err: cause}
}

func (e *StockError) Error() string {
	msg := e.Kind.Error()
	if e.ProductID != "" {
		msg = fmt.Sprintf("producto %s: %s", e.ProductID, msg)
	}
	if errors.Is(e.Kind, ErrInsufficientStock) {
		msg = fmt.Sprintf("%s (actual %d, cambio %d)", msg, e.Current, e.Change)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StockError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Invalid envuelve un mensaje de validación como ErrInvalidInput.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsKnown indica si err ya pertenece a la taxonomía del dominio.
func IsKnown(err error) bool {
	for _, k := range []error{ErrNotFound, ErrInvalidInput, ErrDuplicate, ErrUnauthorized, ErrForbidden, ErrInsufficientStock, ErrConcurrencyConflict, ErrStorage} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
