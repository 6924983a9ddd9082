package dto

import "time"

// ApplyTransactionRequest entrada de POST /api/inventory/transactions.
type ApplyTransactionRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	TransactionType string `json:"transaction_type" validate:"required"` // sale, restock, return, adjustment, correction
	QuantityChange  int64  `json:"quantity_change" validate:"required"`  // con signo; nunca 0
	ReferenceType   string `json:"reference_type,omitempty"`
	ReferenceID     string `json:"reference_id,omitempty"`
	Notes           string `json:"notes,omitempty"`
	AllowNegative   bool   `json:"allow_negative,omitempty"`
	IdempotencyKey  string `json:"idempotency_key,omitempty"` // también vía cabecera Idempotency-Key
}

// LedgerEntryResponse salida de una entrada del libro.
type LedgerEntryResponse struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	Sequence         int64     `json:"sequence"`
	TransactionType  string    `json:"transaction_type"`
	QuantityChange   int64     `json:"quantity_change"`
	PreviousQuantity int64     `json:"previous_quantity"`
	NewQuantity      int64     `json:"new_quantity"`
	ReferenceType    string    `json:"reference_type,omitempty"`
	ReferenceID      string    `json:"reference_id,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	IdempotencyKey   string    `json:"idempotency_key,omitempty"`
	CreatedBy        string    `json:"created_by,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// LedgerPageResponse página del libro; NextCursor = 0 si no hay más.
type LedgerPageResponse struct {
	Items      []LedgerEntryResponse `json:"items"`
	NextCursor int64                 `json:"next_cursor"`
}

// AlertResponse salida de una alerta de inventario.
type AlertResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	AlertType  string     `json:"alert_type"`
	Message    string     `json:"message"`
	IsResolved bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// ProjectionReportResponse resultado de verificar el libro de un producto.
type ProjectionReportResponse struct {
	ProductID         string `json:"product_id"`
	OpeningQuantity   int64  `json:"opening_quantity"`
	CachedQuantity    int64  `json:"cached_quantity"`
	ProjectedQuantity int64  `json:"projected_quantity"`
	Entries           int64  `json:"entries"`
	Consistent        bool   `json:"consistent"`
	BrokenSequence    int64  `json:"broken_sequence,omitempty"`
	Problem           string `json:"problem,omitempty"`
}
