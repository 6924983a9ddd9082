package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/application/usecase"
	"github.com/jhoicas/Cerveceria-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC *usecase.ProductUseCase
	Inventory *inventory.Service
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	catalog := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	inventoryHandler := NewInventoryHandler(deps.Inventory)
	products.Post("/", catalog, productHandler.Create)
	products.Get("/", anyRole, productHandler.List)
	products.Get("/:id", anyRole, productHandler.GetByID)
	products.Put("/:id", catalog, productHandler.Update)

	// Libro de inventario; el permiso por tipo de movimiento se valida en el handler
	invGroup := protected.Group("/inventory", anyRole)
	invGroup.Post("/transactions", inventoryHandler.ApplyTransaction)
	invGroup.Get("/alerts", inventoryHandler.ListAlerts)
	invGroup.Get("/products/:id/ledger", inventoryHandler.GetLedger)
	invGroup.Get("/products/:id/verify", catalog, inventoryHandler.Verify)
}
