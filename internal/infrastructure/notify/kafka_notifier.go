// Package notify entrega los eventos de alertas de inventario a sus consumidores.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
)

// MessageProducer publica mensajes en Kafka.
type MessageProducer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// KafkaConfig conexión al tópico de alertas.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	ClientID     string
	BatchTimeout time.Duration
}

// NewKafkaProducer crea un writer instrumentado con OpenTelemetry; el contexto de traza
// viaja en las cabeceras del mensaje.
func NewKafkaProducer(cfg KafkaConfig, tp trace.TracerProvider) (MessageProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("kafka: brokers y topic requeridos")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	base := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // misma clave (producto) = misma partición = orden por producto
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireAll,
	}
	w, err := otelkafka.NewWriter(base,
		otelkafka.WithTracerProvider(tp),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(cfg.Topic),
				attribute.String("messaging.kafka.client_id", cfg.ClientID),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka writer: %w", err)
	}
	return w, nil
}

// AlertMessage cuerpo JSON publicado por cada evento.
type AlertMessage struct {
	Event         string     `json:"event"`
	AlertID       string     `json:"alert_id"`
	ProductID     string     `json:"product_id"`
	AlertType     string     `json:"alert_type"`
	Message       string     `json:"message"`
	Quantity      int64      `json:"quantity"`
	LedgerEntryID string     `json:"ledger_entry_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// NewAlertMessage convierte un evento de dominio al mensaje publicado.
func NewAlertMessage(ev inventory.AlertEvent) AlertMessage {
	return AlertMessage{
		Event:         string(ev.Kind),
		AlertID:       ev.Alert.ID,
		ProductID:     ev.Alert.ProductID,
		AlertType:     string(ev.Alert.AlertType),
		Message:       ev.Alert.Message,
		Quantity:      ev.Quantity,
		LedgerEntryID: ev.LedgerEntryID,
		CreatedAt:     ev.Alert.CreatedAt,
		ResolvedAt:    ev.Alert.ResolvedAt,
		OccurredAt:    ev.OccurredAt,
	}
}

// KafkaNotifier publica cada evento como un mensaje con clave = producto.
type KafkaNotifier struct {
	producer MessageProducer
	log      zerolog.Logger
}

var _ inventory.AlertNotifier = (*KafkaNotifier)(nil)

// NewKafkaNotifier crea el notificador sobre un producer ya configurado.
func NewKafkaNotifier(producer MessageProducer, log zerolog.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, log: log}
}

// Notify publica los eventos en orden; sigue con los demás si uno falla y devuelve todos los errores.
func (n *KafkaNotifier) Notify(ctx context.Context, events []inventory.AlertEvent) error {
	var errs []error
	for _, ev := range events {
		payload, err := json.Marshal(NewAlertMessage(ev))
		if err != nil {
			errs = append(errs, fmt.Errorf("serializar alerta %s: %w", ev.Alert.ID, err))
			continue
		}
		msg := kafka.Message{
			Key:   []byte(ev.Alert.ProductID),
			Value: payload,
		}
		if err := n.producer.WriteMessage(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("publicar alerta %s: %w", ev.Alert.ID, err))
			continue
		}
		n.log.Debug().Str("alert_id", ev.Alert.ID).Str("event", string(ev.Kind)).Msg("alerta publicada en kafka")
	}
	return errors.Join(errs...)
}

// Close cierra el producer.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
