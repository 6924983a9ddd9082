package inventory

import (
	"context"
	"errors"
	"iter"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

// DefaultPageSize tamaño de página por defecto al recorrer el libro.
const DefaultPageSize = 100

// LedgerPage devuelve una página del libro del producto a partir del cursor after (secuencia exclusiva).
// next es el cursor para la siguiente página; 0 si no hay más.
func (s *Service) LedgerPage(ctx context.Context, productID string, after int64, limit int) (entries []*entity.LedgerEntry, next int64, err error) {
	if productID == "" || after < 0 {
		return nil, 0, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	err = s.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.AlertRepository,
	) error {
		p, err := productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewStockError(domain.ErrNotFound, productID, nil)
		}
		// Se pide uno de más para saber si hay otra página
		list, err := ledgerRepo.ListForProduct(ctx, productID, after, limit+1)
		if err != nil {
			return err
		}
		if len(list) > limit {
			list = list[:limit]
			next = list[limit-1].Sequence
		}
		entries = list
		return nil
	})
	if err != nil {
		return nil, 0, classify(productID, err)
	}
	return entries, next, nil
}

// Entries recorre perezosamente el libro del producto en orden ascendente, página a página.
// La secuencia es finita y reiniciable: cada llamada arranca desde after.
func (s *Service) Entries(ctx context.Context, productID string, after int64, pageSize int) iter.Seq2[*entity.LedgerEntry, error] {
	return func(yield func(*entity.LedgerEntry, error) bool) {
		cursor := after
		for {
			page, next, err := s.LedgerPage(ctx, productID, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if next == 0 {
				return
			}
			cursor = next
		}
	}
}

// ListOpenAlerts lista las alertas sin resolver; productID vacío = todas.
func (s *Service) ListOpenAlerts(ctx context.Context, productID string) ([]*entity.InventoryAlert, error) {
	var out []*entity.InventoryAlert
	err := s.txRunner.Run(ctx, func(
		_ repository.ProductRepository,
		_ repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		list, err := alertRepo.ListOpen(ctx, productID)
		out = list
		return err
	})
	if err != nil {
		return nil, classify(productID, err)
	}
	return out, nil
}

// ProjectionReport resultado de reproducir el libro de un producto.
type ProjectionReport struct {
	ProductID         string
	OpeningQuantity   int64
	CachedQuantity    int64
	ProjectedQuantity int64
	Entries           int64
	Consistent        bool
	BrokenSequence    int64  // primera entrada que rompe el invariante; 0 si ninguna
	Problem           string // vacío si Consistent
}

// VerifyProduct reproduce el libro desde la cantidad inicial, verifica el invariante de total
// acumulado entrada por entrada y compara con la cantidad cacheada del producto.
// Una inconsistencia no es error: se informa en el reporte.
func (s *Service) VerifyProduct(ctx context.Context, productID string) (*ProjectionReport, error) {
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	var report *ProjectionReport
	err := s.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
		_ repository.AlertRepository,
	) error {
		p, err := productRepo.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.NewStockError(domain.ErrNotFound, productID, nil)
		}
		report = &ProjectionReport{ProductID: p.ID, OpeningQuantity: p.OpeningQuantity, CachedQuantity: p.StockQuantity}
		rt := inventory.NewRunningTotal(p.OpeningQuantity)
		var after int64
		for {
			page, err := ledgerRepo.ListForProduct(ctx, productID, after, DefaultPageSize)
			if err != nil {
				return err
			}
			for _, e := range page {
				if err := rt.Apply(e); err != nil {
					if !errors.Is(err, domain.ErrInvalidInput) {
						return err
					}
					report.Problem = err.Error()
					report.BrokenSequence = e.Sequence
					report.ProjectedQuantity = rt.Quantity()
					report.Entries = rt.Applied()
					return nil
				}
				after = e.Sequence
			}
			if len(page) < DefaultPageSize {
				break
			}
		}
		report.ProjectedQuantity = rt.Quantity()
		report.Entries = rt.Applied()
		report.Consistent = rt.Quantity() == p.StockQuantity
		if !report.Consistent {
			report.Problem = "la cantidad cacheada no coincide con el libro"
		}
		return nil
	})
	if err != nil {
		return nil, classify(productID, err)
	}
	return report, nil
}
