package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// Constraints únicos de inventory_ledger (ver migraciones).
const (
	constraintLedgerSequence    = "inventory_ledger_product_sequence_key"
	constraintLedgerIdempotency = "inventory_ledger_idempotency_key"
)

// LedgerRepo libro de inventario append-only. La tabla rechaza UPDATE y DELETE con un trigger.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, product_id, sequence, transaction_type, quantity_change, previous_quantity, new_quantity,
	COALESCE(reference_type, ''), COALESCE(reference_id, ''), COALESCE(notes, ''),
	COALESCE(idempotency_key, ''), COALESCE(created_by, ''), created_at`

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	var txType string
	err := row.Scan(
		&e.ID, &e.ProductID, &e.Sequence, &txType, &e.QuantityChange, &e.PreviousQuantity, &e.NewQuantity,
		&e.Reference.Type, &e.Reference.ID, &e.Notes, &e.IdempotencyKey, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.TransactionType = entity.TransactionType(txType)
	return &e, nil
}

// Append inserta la entrada. Una secuencia repetida indica que otra escritura ganó la carrera.
func (r *LedgerRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO inventory_ledger (
			id, product_id, sequence, transaction_type, quantity_change, previous_quantity, new_quantity,
			reference_type, reference_id, notes, idempotency_key, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), $13)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.ProductID, e.Sequence, string(e.TransactionType), e.QuantityChange, e.PreviousQuantity, e.NewQuantity,
		e.Reference.Type, e.Reference.ID, e.Notes, e.IdempotencyKey, e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			switch constraintName(err) {
			case constraintLedgerIdempotency:
				return fmt.Errorf("idempotency_key %q: %w", e.IdempotencyKey, domain.ErrDuplicate)
			default:
				return fmt.Errorf("secuencia %d del producto %s: %w", e.Sequence, e.ProductID, domain.ErrConcurrencyConflict)
			}
		}
		return mapError("insert ledger entry", err)
	}
	return nil
}

// ListForProduct página ascendente por secuencia a partir del cursor.
func (r *LedgerRepo) ListForProduct(ctx context.Context, productID string, afterSequence int64, limit int) ([]*entity.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+ledgerColumns+`
		FROM inventory_ledger
		WHERE product_id = $1 AND sequence > $2
		ORDER BY sequence
		LIMIT $3`, productID, afterSequence, limit)
	if err != nil {
		return nil, mapError("list ledger", err)
	}
	defer rows.Close()
	list := make([]*entity.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, mapError("scan ledger entry", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate ledger", err)
	}
	return list, nil
}

// LastForProduct última entrada del producto o nil.
func (r *LedgerRepo) LastForProduct(ctx context.Context, productID string) (*entity.LedgerEntry, error) {
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM inventory_ledger
		WHERE product_id = $1
		ORDER BY sequence DESC
		LIMIT 1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("last ledger entry", err)
	}
	return e, nil
}

// GetByIdempotencyKey entrada previa con la misma clave o nil.
func (r *LedgerRepo) GetByIdempotencyKey(ctx context.Context, productID, key string) (*entity.LedgerEntry, error) {
	e, err := scanLedgerEntry(r.q.QueryRow(ctx, `
		SELECT `+ledgerColumns+`
		FROM inventory_ledger
		WHERE product_id = $1 AND idempotency_key = $2`, productID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get ledger by idempotency key", err)
	}
	return e, nil
}
