// seed carga un catálogo inicial de productos de la cervecería e imprime tokens de desarrollo
// para cada rol.
//
// Uso: go run ./cmd/seed
// Usa la misma configuración que el API (DATABASE_URL, JWT_SECRET, ...). Los SKU existentes se omiten.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cerveceria-api/internal/application/dto"
	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/application/usecase"
	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/locking"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cerveceria-api/pkg/config"
	"github.com/jhoicas/Cerveceria-api/pkg/jwt"
	"github.com/jhoicas/Cerveceria-api/pkg/logger"
)

var catalog = []dto.CreateProductRequest{
	{SKU: "LAG-BAR-20", Name: "Lager barril 20 L", UnitMeasure: "barril", Price: decimal.RequireFromString("380000"), InitialQuantity: 12, LowStockThreshold: 4},
	{SKU: "IPA-BAR-20", Name: "IPA barril 20 L", UnitMeasure: "barril", Price: decimal.RequireFromString("450000"), InitialQuantity: 8, LowStockThreshold: 3},
	{SKU: "STO-BAR-20", Name: "Stout barril 20 L", UnitMeasure: "barril", Price: decimal.RequireFromString("420000"), InitialQuantity: 3, LowStockThreshold: 3},
	{SKU: "LAG-CAJ-24", Name: "Lager caja 24 x 330 ml", UnitMeasure: "caja", Price: decimal.RequireFromString("96000"), InitialQuantity: 60, LowStockThreshold: 15},
	{SKU: "IPA-CAJ-24", Name: "IPA caja 24 x 330 ml", UnitMeasure: "caja", Price: decimal.RequireFromString("118000"), InitialQuantity: 40, LowStockThreshold: 10},
	{SKU: "WEI-BOT-500", Name: "Weissbier botella 500 ml", UnitMeasure: "botella", Price: decimal.RequireFromString("9500"), InitialQuantity: 0, LowStockThreshold: 24},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			fmt.Fprintf(os.Stderr, "Migraciones: %v\n", err)
			os.Exit(1)
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	svc := inventory.NewService(postgres.NewTxRunner(pool, cfg.Inventory.DBLockTimeout), locking.NewKeyedMutex(), nil, log, inventory.Config{})
	uc := usecase.NewProductUseCase(postgres.NewProductRepository(pool), svc)

	created, skipped := 0, 0
	for _, in := range catalog {
		p, err := uc.Create(ctx, in)
		if errors.Is(err, domain.ErrDuplicate) {
			skipped++
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear %s: %v\n", in.SKU, err)
			os.Exit(1)
		}
		created++
		fmt.Printf("%-12s %-28s stock=%d id=%s\n", p.SKU, p.Name, p.StockQuantity, p.ID)
	}
	fmt.Printf("Productos: %d creados, %d ya existían\n", created, skipped)

	if cfg.JWT.Secret == "" {
		return
	}
	fmt.Println("\nTokens de desarrollo:")
	for _, role := range []string{jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor} {
		tok, err := jwt.Generate(cfg.JWT.Secret, "seed-"+role, role, cfg.JWT.Issuer, cfg.JWT.Expiration)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Token %s: %v\n", role, err)
			os.Exit(1)
		}
		fmt.Printf("%-10s %s\n", role, tok)
	}
}
