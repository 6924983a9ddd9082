package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
)

// LogNotifier escribe cada evento de alerta en el log (sumidero por defecto sin Kafka).
type LogNotifier struct {
	log zerolog.Logger
}

var _ inventory.AlertNotifier = (*LogNotifier)(nil)

func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, events []inventory.AlertEvent) error {
	for _, ev := range events {
		n.log.Info().
			Str("event", string(ev.Kind)).
			Str("alert_id", ev.Alert.ID).
			Str("product_id", ev.Alert.ProductID).
			Str("alert_type", string(ev.Alert.AlertType)).
			Int64("quantity", ev.Quantity).
			Str("ledger_entry_id", ev.LedgerEntryID).
			Msg(ev.Alert.Message)
	}
	return nil
}

// Multi reparte los eventos a varios notificadores y junta sus errores.
type Multi []inventory.AlertNotifier

func (m Multi) Notify(ctx context.Context, events []inventory.AlertEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
