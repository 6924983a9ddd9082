package http

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cerveceria-api/internal/application/dto"
	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/pkg/jwt"
)

// rolesByType roles que pueden registrar cada tipo de movimiento (además de admin).
var rolesByType = map[entity.TransactionType][]string{
	entity.TransactionSale:       {jwt.RoleVendedor},
	entity.TransactionReturn:     {jwt.RoleVendedor, jwt.RoleBodeguero},
	entity.TransactionRestock:    {jwt.RoleBodeguero},
	entity.TransactionAdjustment: {jwt.RoleBodeguero},
	entity.TransactionCorrection: {jwt.RoleBodeguero},
}

func canApply(role string, t entity.TransactionType) bool {
	return role == jwt.RoleAdmin || slices.Contains(rolesByType[t], role)
}

// InventoryHandler maneja las peticiones HTTP del libro de inventario (protegido).
type InventoryHandler struct {
	svc *inventory.Service
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(svc *inventory.Service) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// ApplyTransaction godoc
// @Summary      Registrar movimiento de inventario
// @Description  Registra el movimiento en el libro y actualiza el stock de forma atómica.
//
//	La cabecera Idempotency-Key (o idempotency_key en el cuerpo) evita aplicar dos veces el mismo movimiento.
//
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                       false  "Clave de idempotencia"
// @Param        body             body    dto.ApplyTransactionRequest  true   "product_id, transaction_type, quantity_change con signo"
// @Success      201   {object}  dto.LedgerEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [post]
func (h *InventoryHandler) ApplyTransaction(c *fiber.Ctx) error {
	var in dto.ApplyTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	txType, ok := entity.ParseTransactionType(in.TransactionType)
	if !ok {
		return badRequest(c, "VALIDATION", "transaction_type debe ser sale, restock, return, adjustment o correction")
	}
	if !canApply(GetRole(c), txType) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para " + string(txType)})
	}
	key := c.Get("Idempotency-Key")
	if key == "" {
		key = in.IdempotencyKey
	}
	entry, err := h.svc.ApplyTransaction(c.UserContext(), inventory.ApplyInput{
		ProductID:       in.ProductID,
		TransactionType: txType,
		QuantityChange:  in.QuantityChange,
		Reference:       entity.Reference{Type: in.ReferenceType, ID: in.ReferenceID},
		Notes:           in.Notes,
		AllowNegative:   in.AllowNegative,
		IdempotencyKey:  key,
		Actor:           GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLedgerEntryResponse(entry))
}

// GetLedger godoc
// @Summary      Libro de inventario de un producto
// @Description  Entradas en orden ascendente de secuencia. next_cursor = 0 cuando no hay más páginas.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "ID del producto"
// @Param        after  query  int     false  "Cursor: última secuencia vista"  default(0)
// @Param        limit  query  int     false  "Tamaño de página"                default(100)
// @Success      200  {object}  dto.LedgerPageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/ledger [get]
func (h *InventoryHandler) GetLedger(c *fiber.Ctx) error {
	after := c.QueryInt("after", 0)
	if after < 0 {
		return badRequest(c, "VALIDATION", "after debe ser >= 0")
	}
	limit := c.QueryInt("limit", inventory.DefaultPageSize)
	if limit <= 0 || limit > 500 {
		limit = inventory.DefaultPageSize
	}
	entries, next, err := h.svc.LedgerPage(c.UserContext(), c.Params("id"), int64(after), limit)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.LedgerPageResponse{Items: make([]dto.LedgerEntryResponse, 0, len(entries)), NextCursor: next}
	for _, e := range entries {
		out.Items = append(out.Items, toLedgerEntryResponse(e))
	}
	return c.JSON(out)
}

// Verify godoc
// @Summary      Verificar consistencia del libro
// @Description  Reproduce el libro desde la cantidad inicial y lo compara con el stock cacheado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProjectionReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/verify [get]
func (h *InventoryHandler) Verify(c *fiber.Ctx) error {
	r, err := h.svc.VerifyProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProjectionReportResponse{
		ProductID:         r.ProductID,
		OpeningQuantity:   r.OpeningQuantity,
		CachedQuantity:    r.CachedQuantity,
		ProjectedQuantity: r.ProjectedQuantity,
		Entries:           r.Entries,
		Consistent:        r.Consistent,
		BrokenSequence:    r.BrokenSequence,
		Problem:           r.Problem,
	})
}

// ListAlerts godoc
// @Summary      Alertas abiertas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Success      200  {array}   dto.AlertResponse
// @Router       /api/inventory/alerts [get]
func (h *InventoryHandler) ListAlerts(c *fiber.Ctx) error {
	list, err := h.svc.ListOpenAlerts(c.UserContext(), c.Query("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, dto.AlertResponse{
			ID:         a.ID,
			ProductID:  a.ProductID,
			AlertType:  string(a.AlertType),
			Message:    a.Message,
			IsResolved: a.IsResolved,
			CreatedAt:  a.CreatedAt,
			ResolvedAt: a.ResolvedAt,
		})
	}
	return c.JSON(out)
}

func toLedgerEntryResponse(e *entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:               e.ID,
		ProductID:        e.ProductID,
		Sequence:         e.Sequence,
		TransactionType:  string(e.TransactionType),
		QuantityChange:   e.QuantityChange,
		PreviousQuantity: e.PreviousQuantity,
		NewQuantity:      e.NewQuantity,
		ReferenceType:    e.Reference.Type,
		ReferenceID:      e.Reference.ID,
		Notes:            e.Notes,
		IdempotencyKey:   e.IdempotencyKey,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt,
	}
}
