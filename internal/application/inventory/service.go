package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
	"github.com/jhoicas/Cerveceria-api/internal/domain/entity"
	"github.com/jhoicas/Cerveceria-api/internal/domain/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
	"github.com/jhoicas/Cerveceria-api/pkg/logger"
)

const tracerName = "github.com/jhoicas/Cerveceria-api/internal/application/inventory"

// DefaultLockTimeout espera máxima por el candado de un producto.
const DefaultLockTimeout = 5 * time.Second

// Config parámetros del servicio de inventario.
type Config struct {
	LockTimeout time.Duration // 0 = DefaultLockTimeout
}

// Service es el único punto de entrada que modifica stock: registra el movimiento en el libro,
// actualiza la cantidad cacheada del producto y abre/resuelve alertas en una sola transacción.
// Las escrituras se serializan por producto (ProductLocker + SELECT FOR UPDATE).
type Service struct {
	txRunner    TxRunner
	locker      ProductLocker
	notifier    AlertNotifier
	log         *logger.Logger
	tracer      trace.Tracer
	lockTimeout time.Duration
	now         func() time.Time
}

// NewService construye el servicio. notifier y log pueden ser nil.
func NewService(txRunner TxRunner, locker ProductLocker, notifier AlertNotifier, log *logger.Logger, cfg Config) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	return &Service{
		txRunner:    txRunner,
		locker:      locker,
		notifier:    notifier,
		log:         log.Component("inventory"),
		tracer:      otel.Tracer(tracerName),
		lockTimeout: cfg.LockTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj (tests).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// ApplyInput entrada de ApplyTransaction.
type ApplyInput struct {
	ProductID       string
	TransactionType entity.TransactionType
	QuantityChange  int64
	Reference       entity.Reference
	Notes           string
	AllowNegative   bool   // solo adjustment/correction
	IdempotencyKey  string // opcional: misma clave = mismo movimiento
	Actor           string // UserID que origina el movimiento
}

func (in ApplyInput) validate() error {
	if in.ProductID == "" {
		return domain.Invalid("product_id requerido")
	}
	if !in.TransactionType.Valid() {
		return domain.Invalid("tipo de movimiento %q desconocido", in.TransactionType)
	}
	if in.QuantityChange == 0 {
		return domain.Invalid("quantity_change no puede ser 0")
	}
	if !in.TransactionType.SignAllowed(in.QuantityChange) {
		return domain.Invalid("signo de %d no permitido para %s", in.QuantityChange, in.TransactionType)
	}
	if in.AllowNegative && !in.TransactionType.NegativeOverridePermitted() {
		return domain.Invalid("allow_negative no permitido para %s", in.TransactionType)
	}
	if (in.Reference.Type == "") != (in.Reference.ID == "") {
		return domain.Invalid("reference_type y reference_id van juntos")
	}
	return nil
}

// ApplyTransaction aplica un cambio de stock de forma atómica y devuelve la entrada creada.
//
// Errores: domain.ErrInvalidInput, domain.ErrNotFound, domain.ErrInsufficientStock,
// domain.ErrConcurrencyConflict (reintentar con datos frescos) y domain.ErrStorage.
// Si IdempotencyKey ya fue aplicada se devuelve la entrada original sin efectos nuevos.
func (s *Service) ApplyTransaction(ctx context.Context, in ApplyInput) (*entity.LedgerEntry, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.ApplyTransaction", trace.WithAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("inventory.transaction_type", string(in.TransactionType)),
		attribute.Int64("inventory.quantity_change", in.QuantityChange),
	))
	defer span.End()

	entry, events, replayed, err := s.apply(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logFailure(in, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("inventory.new_quantity", entry.NewQuantity),
		attribute.Bool("inventory.idempotent_replay", replayed),
	)
	if replayed {
		s.log.Debug().Str("product_id", in.ProductID).Str("idempotency_key", in.IdempotencyKey).
			Str("entry_id", entry.ID).Msg("movimiento ya aplicado, se devuelve el original")
		return entry, nil
	}

	s.log.Debug().
		Str("product_id", entry.ProductID).
		Str("type", string(entry.TransactionType)).
		Int64("change", entry.QuantityChange).
		Int64("previous", entry.PreviousQuantity).
		Int64("new", entry.NewQuantity).
		Int64("sequence", entry.Sequence).
		Str("entry_id", entry.ID).
		Msg("movimiento registrado")

	s.publish(ctx, events)
	return entry, nil
}

func (s *Service) apply(ctx context.Context, in ApplyInput) (*entity.LedgerEntry, []AlertEvent, bool, error) {
	if err := in.validate(); err != nil {
		return nil, nil, false, err
	}

	unlock, err := s.lock(ctx, in.ProductID)
	if err != nil {
		return nil, nil, false, err
	}
	defer unlock()

	var (
		result   *entity.LedgerEntry
		events   []AlertEvent
		replayed bool
	)
	now := s.now()

	err = s.txRunner.Run(ctx, func(
		productRepo repository.ProductRepository,
		ledgerRepo repository.LedgerRepository,
		alertRepo repository.AlertRepository,
	) error {
		// Bloquea la fila del producto (SELECT FOR UPDATE) durante toda la unidad de trabajo
		product, err := productRepo.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.NewStockError(domain.ErrNotFound, in.ProductID, nil)
		}

		if in.IdempotencyKey != "" {
			prior, err := ledgerRepo.GetByIdempotencyKey(ctx, product.ID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				if prior.TransactionType != in.TransactionType || prior.QuantityChange != in.QuantityChange {
					return domain.Invalid("idempotency_key %q ya usada con otro movimiento", in.IdempotencyKey)
				}
				result, replayed = prior, true
				return nil
			}
		}
		if !product.IsActive && in.TransactionType == entity.TransactionSale {
			return domain.Invalid("producto %s inactivo", product.ID)
		}

		last, err := ledgerRepo.LastForProduct(ctx, product.ID)
		if err != nil {
			return err
		}
		expected, seq := product.OpeningQuantity, int64(1)
		if last != nil {
			expected, seq = last.NewQuantity, last.Sequence+1
		}
		if expected != product.StockQuantity {
			return domain.NewStockError(domain.ErrStorage, product.ID,
				fmt.Errorf("cantidad cacheada %d no coincide con el libro %d", product.StockQuantity, expected))
		}

		prev, next, err := inventory.Project(product.StockQuantity, in.QuantityChange, in.AllowNegative)
		if err != nil {
			var se *domain.StockError
			if errors.As(err, &se) {
				se.ProductID = product.ID
			}
			return err
		}

		entry := &entity.LedgerEntry{
			ID:               uuid.New().String(),
			ProductID:        product.ID,
			Sequence:         seq,
			TransactionType:  in.TransactionType,
			QuantityChange:   in.QuantityChange,
			PreviousQuantity: prev,
			NewQuantity:      next,
			Reference:        in.Reference,
			Notes:            in.Notes,
			IdempotencyKey:   in.IdempotencyKey,
			CreatedBy:        in.Actor,
			CreatedAt:        now,
		}
		if err := ledgerRepo.Append(ctx, entry); err != nil {
			return err
		}
		if err := productRepo.UpdateStockQuantity(ctx, product.ID, prev, next); err != nil {
			return err
		}

		for _, t := range inventory.Evaluate(prev, next, product.LowStockThreshold) {
			ev, err := s.applyTransition(ctx, alertRepo, product, t, next, now)
			if err != nil {
				return err
			}
			if ev != nil {
				ev.LedgerEntryID = entry.ID
				events = append(events, *ev)
			}
		}
		result = entry
		return nil
	})
	if err != nil {
		return nil, nil, false, classify(in.ProductID, err)
	}
	return result, events, replayed, nil
}

// applyTransition abre (deduplicando) o resuelve la alerta indicada. Devuelve nil si no hubo cambio.
func (s *Service) applyTransition(
	ctx context.Context,
	alertRepo repository.AlertRepository,
	product *entity.Product,
	t inventory.AlertTransition,
	quantity int64,
	now time.Time,
) (*AlertEvent, error) {
	if t.Opens() {
		alert := &entity.InventoryAlert{
			ID:        uuid.New().String(),
			ProductID: product.ID,
			AlertType: t.AlertType(),
			Message:   alertMessage(product, t.AlertType(), quantity),
			CreatedAt: now,
		}
		got, created, err := alertRepo.OpenIfAbsent(ctx, alert)
		if err != nil {
			return nil, err
		}
		if !created {
			return nil, nil
		}
		return &AlertEvent{Kind: AlertOpened, Alert: *got, Quantity: quantity, OccurredAt: now}, nil
	}
	resolved, err := alertRepo.Resolve(ctx, product.ID, t.AlertType(), now)
	if err != nil || resolved == nil {
		return nil, err
	}
	return &AlertEvent{Kind: AlertResolved, Alert: *resolved, Quantity: quantity, OccurredAt: now}, nil
}

func alertMessage(p *entity.Product, t entity.AlertType, quantity int64) string {
	name := p.Name
	if name == "" {
		name = p.ID
	}
	if t == entity.AlertOutOfStock {
		return fmt.Sprintf("%s agotado", name)
	}
	return fmt.Sprintf("%s con stock bajo: %d unidades (umbral %d)", name, quantity, p.LowStockThreshold)
}

// lock obtiene el candado del producto con la espera máxima configurada.
func (s *Service) lock(ctx context.Context, productID string) (func(), error) {
	_, span := s.tracer.Start(ctx, "inventory.lock")
	defer span.End()

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, productID)
	if err == nil {
		return unlock, nil
	}
	span.RecordError(err)
	// Cancelación o plazo del propio llamador: no es contención, se devuelve tal cual.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrConcurrencyConflict) {
		return nil, domain.NewStockError(domain.ErrConcurrencyConflict, productID, err)
	}
	return nil, domain.NewStockError(domain.ErrStorage, productID, err)
}

// classify asegura que todo error salga con un tipo de la taxonomía; lo desconocido es ErrStorage.
func classify(productID string, err error) error {
	var se *domain.StockError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		return domain.NewStockError(domain.ErrConcurrencyConflict, productID, err)
	}
	if domain.IsKnown(err) {
		return err
	}
	return domain.NewStockError(domain.ErrStorage, productID, err)
}

func (s *Service) logFailure(in ApplyInput, err error) {
	level := zerolog.ErrorLevel
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound), errors.Is(err, context.Canceled):
		level = zerolog.InfoLevel
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConcurrencyConflict):
		level = zerolog.WarnLevel
	}
	zl := s.log.Zerolog()
	zl.WithLevel(level).Err(err).
		Str("product_id", in.ProductID).
		Str("type", string(in.TransactionType)).
		Int64("change", in.QuantityChange).
		Msg("movimiento rechazado")
}

// publish entrega los eventos al sumidero; un fallo aquí no revierte nada (ya hubo commit).
func (s *Service) publish(ctx context.Context, events []AlertEvent) {
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		s.log.Info().
			Str("product_id", ev.Alert.ProductID).
			Str("alert_type", string(ev.Alert.AlertType)).
			Str("event", string(ev.Kind)).
			Int64("quantity", ev.Quantity).
			Msg("alerta de inventario")
	}
	if err := s.notifier.Notify(ctx, events); err != nil {
		s.log.Error().Err(err).Int("events", len(events)).Msg("no se pudieron notificar las alertas")
	}
}
