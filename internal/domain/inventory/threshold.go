package inventory

import "github.com/jhoicas/Cerveceria-api/internal/domain/entity"

// AlertTransition cambio de estado de alerta implicado por una transición de cantidad.
type AlertTransition int

const (
	OpenLowStock AlertTransition = iota + 1
	OpenOutOfStock
	ResolveLowStock
	ResolveOutOfStock
)

func (t AlertTransition) String() string {
	switch t {
	case OpenLowStock:
		return "open_low_stock"
	case OpenOutOfStock:
		return "open_out_of_stock"
	case ResolveLowStock:
		return "resolve_low_stock"
	case ResolveOutOfStock:
		return "resolve_out_of_stock"
	}
	return "unknown"
}

// AlertType tipo de alerta afectado por la transición.
func (t AlertTransition) AlertType() entity.AlertType {
	switch t {
	case OpenOutOfStock, ResolveOutOfStock:
		return entity.AlertOutOfStock
	}
	return entity.AlertLowStock
}

// Opens indica si la transición abre una alerta (false = la resuelve).
func (t AlertTransition) Opens() bool {
	return t == OpenLowStock || t == OpenOutOfStock
}

// Evaluate decide qué alertas abrir o resolver al pasar de previous a next con el umbral dado.
// Función pura: mismas entradas, mismas transiciones. La deduplicación contra alertas ya abiertas
// es responsabilidad del AlertRepository.
//
// Bandas: agotado (0), bajo (1..threshold), normal (> threshold). Dentro de la misma banda no hay transición.
// Las resoluciones se emiten antes que las aperturas.
func Evaluate(previous, next, threshold int64) []AlertTransition {
	var out []AlertTransition
	if next > 0 && previous <= 0 {
		out = append(out, ResolveOutOfStock)
	}
	if next > threshold && previous <= threshold {
		out = append(out, ResolveLowStock)
	}
	if next <= 0 && previous > 0 {
		out = append(out, OpenOutOfStock)
	}
	// Entrar en la banda baja desde arriba o saliendo de agotado.
	if next > 0 && next <= threshold && (previous > threshold || previous <= 0) {
		out = append(out, OpenLowStock)
	}
	return out
}

// Initial alertas que corresponden a un producto recién creado con la cantidad dada,
// como si viniera de la banda normal.
func Initial(quantity, threshold int64) []AlertTransition {
	switch {
	case quantity <= 0:
		return []AlertTransition{OpenOutOfStock}
	case quantity <= threshold:
		return []AlertTransition{OpenLowStock}
	}
	return nil
}

// Reconcile ajusta las alertas abiertas a la banda actual tras un cambio de umbral, sin movimiento de stock.
// Se resuelve lo que ya no corresponde a quantity y se abre lo que Initial exige; las resoluciones van primero.
// low_stock sigue siendo válida en cero: solo se resuelve si quantity supera el umbral.
func Reconcile(quantity, threshold int64, lowOpen, outOpen bool) []AlertTransition {
	var out []AlertTransition
	if outOpen && quantity > 0 {
		out = append(out, ResolveOutOfStock)
	}
	if lowOpen && quantity > threshold {
		out = append(out, ResolveLowStock)
	}
	for _, t := range Initial(quantity, threshold) {
		if (t == OpenLowStock && lowOpen) || (t == OpenOutOfStock && outOpen) {
			continue
		}
		out = append(out, t)
	}
	return out
}
