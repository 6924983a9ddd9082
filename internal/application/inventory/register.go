package inventory

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

// RegisterProduct da de alta un producto con su cantidad inicial y abre, en la misma transacción,
// las alertas que le correspondan si ya nace agotado o bajo el umbral.
func (s *Service) RegisterProduct(ctx context.Context, p *entity.Product) error {
	ctx, span := s.tracer.Start(ctx, "inventory.RegisterProduct", trace.WithAttributes(
		attribute.String("product.id", p.ID),
		attribute.Int64("inventory.opening_quantity", p.OpeningQuantity),
	))
	defer span.End()

	if p.OpeningQuantity < 0 || p.LowStockThreshold < 0 {
		return domain.Invalid("cantidades negativas no permitidas")
	}
	p.StockQuantity = p.OpeningQuantity

	var events []AlertEvent
	now := s.now()
	err := s.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		_ repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		if err := productRepo.Create(ctx, p); err != nil {
			return err
		}
		for _, t := range inventory.Initial(p.OpeningQuantity, p.LowStockThreshold) {
			ev, err := s.applyTransition(ctx, alertRepo, p, t, p.OpeningQuantity, now)
			if err != nil {
				return err
			}
			if ev != nil {
				events = append(events, *ev)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return classify(p.ID, err)
	}
	s.log.Info().Str("product_id", p.ID).Str("sku", p.SKU).Int64("opening_quantity", p.OpeningQuantity).Msg("producto registrado")
	s.publish(ctx, events)
	return nil
}

// UpdateProduct aplica mutate a los datos de catálogo bajo el candado del producto. Si cambia el umbral,
// en la misma transacción se resuelven las alertas que ya no corresponden a la cantidad actual y se abren
// las que ahora sí. Devuelve (nil, nil) si el producto no existe. mutate no debe tocar cantidades.
func (s *Service) UpdateProduct(ctx context.Context, id string, mutate func(p *entity.Product) error) (*entity.Product, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.UpdateProduct", trace.WithAttributes(
		attribute.String("product.id", id),
	))
	defer span.End()

	unlock, err := s.lock(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer unlock()

	var (
		result *entity.Product
		events []AlertEvent
	)
	now := s.now()
	err = s.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		_ repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		p, err := productRepo.GetForUpdate(ctx, id)
		if err != nil || p == nil {
			return err
		}
		threshold, stock, opening := p.LowStockThreshold, p.StockQuantity, p.OpeningQuantity
		if err := mutate(p); err != nil {
			return err
		}
		if p.LowStockThreshold < 0 {
			return domain.Invalid("low_stock_threshold debe ser >= 0")
		}
		p.StockQuantity, p.OpeningQuantity = stock, opening
		if err := productRepo.Update(ctx, p); err != nil {
			return err
		}
		result = p
		if p.LowStockThreshold == threshold {
			return nil
		}

		open, err := alertRepo.ListOpen(ctx, p.ID)
		if err != nil {
			return err
		}
		var lowOpen, outOpen bool
		for _, a := range open {
			switch a.AlertType {
			case entity.AlertLowStock:
				lowOpen = true
			case entity.AlertOutOfStock:
				outOpen = true
			}
		}
		for _, t := range inventory.Reconcile(p.StockQuantity, p.LowStockThreshold, lowOpen, outOpen) {
			ev, err := s.applyTransition(ctx, alertRepo, p, t, p.StockQuantity, now)
			if err != nil {
				return err
			}
			if ev != nil {
				events = append(events, *ev)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classify(id, err)
	}
	if result != nil && len(events) > 0 {
		s.log.Info().Str("product_id", id).Int64("low_stock_threshold", result.LowStockThreshold).
			Int("alert_events", len(events)).Msg("umbral cambiado, alertas ajustadas")
	}
	s.publish(ctx, events)
	return result, nil
}
