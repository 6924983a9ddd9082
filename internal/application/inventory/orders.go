package inventory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
)

// ReferenceTypeOrder tipo de referencia para movimientos originados por pedidos.
const ReferenceTypeOrder = "order"

// ApplyOrderSale descuenta stock por una línea de pedido. ErrInsufficientStock significa que la línea
// no se puede atender y debe rechazarse completa. Reintentos con el mismo pedido no descuentan dos veces.
func (s *Service) ApplyOrderSale(ctx context.Context, orderID, productID string, quantity int64, actor string) (*entity.LedgerEntry, error) {
	if orderID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.ApplyTransaction(ctx, ApplyInput{
		ProductID:       productID,
		TransactionType: entity.TransactionSale,
		QuantityChange:  -quantity,
		Reference:       entity.Reference{Type: ReferenceTypeOrder, ID: orderID},
		IdempotencyKey:  orderKey(orderID, entity.TransactionSale, productID),
		Actor:           actor,
	})
}

// ApplyOrderReturn devuelve al stock una línea de pedido cancelada o devuelta. returnID identifica
// la devolución dentro del pedido: devoluciones parciales distintas usan returnID distintos y un
// reintento con el mismo returnID no suma dos veces.
func (s *Service) ApplyOrderReturn(ctx context.Context, orderID, returnID, productID string, quantity int64, actor string) (*entity.LedgerEntry, error) {
	if orderID == "" || returnID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}
	return s.ApplyTransaction(ctx, ApplyInput{
		ProductID:       productID,
		TransactionType: entity.TransactionReturn,
		QuantityChange:  quantity,
		Reference:       entity.Reference{Type: ReferenceTypeOrder, ID: orderID},
		IdempotencyKey:  orderKey(orderID, entity.TransactionReturn, productID) + ":" + returnID,
		Actor:           actor,
	})
}

func orderKey(orderID string, t entity.TransactionType, productID string) string {
	return fmt.Sprintf("order:%s:%s:%s", orderID, t, productID)
}
