package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Cerveceria-api/internal/application/inventory"
	"github.com/jhoicas/Cerveceria-api/internal/application/usecase"
	"github.com/jhoicas/Cerveceria-api/internal/domain/repository"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/locking"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/memory"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/notify"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cerveceria-api/internal/infrastructure/tracing"
	httpRouter "github.com/jhoicas/Cerveceria-api/internal/interfaces/http"
	"github.com/jhoicas/Cerveceria-api/pkg/config"
	"github.com/jhoicas/Cerveceria-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Inventory.Store).
		Str("lock", cfg.Inventory.LockBackend).
		Msg("iniciando aplicación")

	ctx := context.Background()

	tp, shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Endpoint:       cfg.Otel.Endpoint,
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Insecure:       cfg.Otel.Insecure,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	txRunner, productRepo, closeStore := buildStore(ctx, cfg, log)
	defer closeStore()

	locker, closeLocker := buildLocker(ctx, cfg, log)
	defer closeLocker()

	notifier, closeNotifier := buildNotifier(cfg, tp, log)
	defer closeNotifier()

	inventorySvc := inventory.NewService(txRunner, locker, notifier, log, inventory.Config{
		LockTimeout: cfg.Inventory.LockTimeout,
	})
	productUC := usecase.NewProductUseCase(productRepo, inventorySvc)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (solo si se generó docs/swagger.json)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Cervecería API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC: productUC,
		Inventory: inventorySvc,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

// buildStore elige el almacén del libro: PostgreSQL (con migraciones embebidas) o memoria.
func buildStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (inventory.TxRunner, repository.ProductRepository, func()) {
	if cfg.Inventory.Store == config.StoreMemory {
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return store, store.Products(), func() {}
	}

	if cfg.DB.Migrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
			log.Fatal().Err(err).Msg("migraciones de PostgreSQL")
		}
		log.Info().Msg("migraciones aplicadas")
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	return postgres.NewTxRunner(pool, cfg.Inventory.DBLockTimeout), postgres.NewProductRepository(pool), pool.Close
}

// buildLocker candado por producto: en proceso o en Redis cuando hay varias instancias.
func buildLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) (inventory.ProductLocker, func()) {
	if cfg.Inventory.LockBackend != config.LockRedis {
		return locking.NewKeyedMutex(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
	}
	return locking.NewRedisLocker(client, cfg.Inventory.LockTTL, log.Component("locking").Zerolog()), func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar Redis")
		}
	}
}

// buildNotifier siempre registra las alertas en el log; con brokers también las publica en Kafka.
func buildNotifier(cfg *config.Config, tp trace.TracerProvider, log *logger.Logger) (inventory.AlertNotifier, func()) {
	logNotifier := notify.NewLogNotifier(log.Component("alerts").Zerolog())
	if !cfg.Kafka.Enabled() {
		return logNotifier, func() {}
	}
	producer, err := notify.NewKafkaProducer(notify.KafkaConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.AlertsTopic,
		ClientID: cfg.App.Name,
	}, tp)
	if err != nil {
		log.Fatal().Err(err).Msg("productor Kafka")
	}
	kafkaNotifier := notify.NewKafkaNotifier(producer, log.Component("kafka").Zerolog())
	return notify.Multi{logNotifier, kafkaNotifier}, func() {
		if err := kafkaNotifier.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar productor Kafka")
		}
	}
}

