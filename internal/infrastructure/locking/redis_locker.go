package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Cerveceria-api/internal/domain"
)

const (
	lockKeyPrefix     = "inventory:lock:"
	defaultLockTTL    = 10 * time.Second
	defaultRetryDelay = 25 * time.Millisecond
)

// releaseScript borra el candado solo si sigue siendo del mismo dueño.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker candado distribuido por producto (SET NX PX + liberación con compare-and-delete).
// El TTL acota cuánto dura un candado huérfano si el proceso muere; la fila del producto
// sigue protegida por SELECT FOR UPDATE dentro de la transacción.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
	log        zerolog.Logger
}

// NewRedisLocker crea el candado. ttl <= 0 usa el valor por defecto.
func NewRedisLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl, retryDelay: defaultRetryDelay, log: log}
}

// Lock reintenta SET NX hasta obtener el candado o hasta que ctx expire.
func (l *RedisLocker) Lock(ctx context.Context, productID string) (func(), error) {
	key := lockKeyPrefix + productID
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("redis lock %s: %w", productID, err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: candado ocupado: %w", domain.ErrConcurrencyConflict, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(key, token string) {
	// Contexto propio: el del llamador puede estar ya cancelado
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado; expirará por TTL")
		return
	}
	if n == 0 {
		l.log.Warn().Str("key", key).Msg("candado expirado antes de liberarlo")
	}
}
