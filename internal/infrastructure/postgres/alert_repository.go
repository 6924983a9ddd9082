package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

// AlertRepo alertas de inventario. El índice único parcial
// inventory_alerts_open_uidx (product_id, alert_type) WHERE NOT is_resolved
// impide dos alertas abiertas del mismo tipo aunque dos transacciones compitan.
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

const alertColumns = `id, product_id, alert_type, message, is_resolved, created_at, resolved_at`

func scanAlert(row pgx.Row) (*entity.InventoryAlert, error) {
	var a entity.InventoryAlert
	var alertType string
	if err := row.Scan(&a.ID, &a.ProductID, &alertType, &a.Message, &a.IsResolved, &a.CreatedAt, &a.ResolvedAt); err != nil {
		return nil, err
	}
	a.AlertType = entity.AlertType(alertType)
	return &a, nil
}

// OpenIfAbsent inserta la alerta salvo que ya haya una abierta del mismo tipo; en ese caso la devuelve.
func (r *AlertRepo) OpenIfAbsent(ctx context.Context, alert *entity.InventoryAlert) (*entity.InventoryAlert, bool, error) {
	created, err := scanAlert(r.q.QueryRow(ctx, `
		INSERT INTO inventory_alerts (id, product_id, alert_type, message, is_resolved, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		ON CONFLICT (product_id, alert_type) WHERE NOT is_resolved DO NOTHING
		RETURNING `+alertColumns,
		alert.ID, alert.ProductID, string(alert.AlertType), alert.Message, alert.CreatedAt))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, mapError("open alert", err)
	}
	existing, err := scanAlert(r.q.QueryRow(ctx, `
		SELECT `+alertColumns+`
		FROM inventory_alerts
		WHERE product_id = $1 AND alert_type = $2 AND NOT is_resolved`,
		alert.ProductID, string(alert.AlertType)))
	if err != nil {
		return nil, false, mapError("get open alert", err)
	}
	return existing, false, nil
}

// Resolve marca como resuelta la alerta abierta; nil si no había.
func (r *AlertRepo) Resolve(ctx context.Context, productID string, alertType entity.AlertType, at time.Time) (*entity.InventoryAlert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `
		UPDATE inventory_alerts
		SET is_resolved = TRUE, resolved_at = $3
		WHERE product_id = $1 AND alert_type = $2 AND NOT is_resolved
		RETURNING `+alertColumns,
		productID, string(alertType), at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("resolve alert", err)
	}
	return a, nil
}

// ListOpen alertas sin resolver en orden de apertura.
func (r *AlertRepo) ListOpen(ctx context.Context, productID string) ([]*entity.InventoryAlert, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+alertColumns+`
		FROM inventory_alerts
		WHERE NOT is_resolved AND ($1 = '' OR product_id::text = $1)
		ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, mapError("list open alerts", err)
	}
	defer rows.Close()
	list := make([]*entity.InventoryAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, mapError("scan alert", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate open alerts", err)
	}
	return list, nil
}
