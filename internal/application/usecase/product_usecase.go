package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Cerveceria-api/internal/application/dto"
	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

// ProductRegistrar alta y cambios de catálogo que afectan el estado de alertas del inventario.
type ProductRegistrar interface {
	RegisterProduct(ctx context.Context, p *entity.Product) error
	UpdateProduct(ctx context.Context, id string, mutate func(p *entity.Product) error) (*entity.Product, error)
}

// ProductUseCase casos de uso de catálogo. El stock solo cambia vía movimientos del libro.
type ProductUseCase struct {
	repo      repository.ProductRepository
	registrar ProductRegistrar
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, registrar ProductRegistrar) *ProductUseCase {
	return &ProductUseCase{repo: repo, registrar: registrar}
}

// Create crea un nuevo producto con su cantidad inicial.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.Invalid("sku y name son obligatorios")
	}
	if in.InitialQuantity < 0 || in.LowStockThreshold < 0 {
		return nil, domain.Invalid("initial_quantity y low_stock_threshold deben ser >= 0")
	}
	if in.Price.IsNegative() {
		return nil, domain.Invalid("price no puede ser negativo")
	}
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "unidad"
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:                uuid.New().String(),
		SKU:               in.SKU,
		Name:              in.Name,
		Description:       in.Description,
		Price:             in.Price,
		UnitMeasure:       in.UnitMeasure,
		OpeningQuantity:   in.InitialQuantity,
		StockQuantity:     in.InitialQuantity,
		LowStockThreshold: in.LowStockThreshold,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.registrar.RegisterProduct(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza datos de catálogo bajo el candado del producto. Si cambia el umbral, las alertas
// abiertas se ajustan a la cantidad actual en la misma operación. Desactivar conserva libro y alertas.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.registrar.UpdateProduct(ctx, id, func(product *entity.Product) error {
		if in.SKU != nil {
			sku := strings.TrimSpace(*in.SKU)
			if sku == "" {
				return domain.Invalid("sku vacío")
			}
			product.SKU = sku
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.Invalid("name vacío")
			}
			product.Name = name
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.Price != nil {
			if in.Price.IsNegative() {
				return domain.Invalid("price no puede ser negativo")
			}
			product.Price = *in.Price
		}
		if in.UnitMeasure != nil {
			product.UnitMeasure = *in.UnitMeasure
		}
		if in.LowStockThreshold != nil {
			if *in.LowStockThreshold < 0 {
				return domain.Invalid("low_stock_threshold debe ser >= 0")
			}
			product.LowStockThreshold = *in.LowStockThreshold
		}
		if in.IsActive != nil {
			product.IsActive = *in.IsActive
		}
		product.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		Price:             p.Price,
		UnitMeasure:       p.UnitMeasure,
		OpeningQuantity:   p.OpeningQuantity,
		StockQuantity:     p.StockQuantity,
		LowStockThreshold: p.LowStockThreshold,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}
