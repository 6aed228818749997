package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements progress.Locker with SET NX and a token-checked release.
type Locker struct {
	cache  *Cache
	logger *slog.Logger
}

// NewLocker creates a distributed locker.
func NewLocker(cache *Cache, logger *slog.Logger) *Locker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{cache: cache, logger: logger}
}

// Acquire takes the lock without waiting.
// Returns shared.ErrAdvancementInProgress when another holder has it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = TTLDistributedLock
	}

	token := uuid.NewString()
	lockKey := LockKey(key)

	ok, err := l.cache.SetNX(ctx, lockKey, token, ttl)
	if err != nil {
		return nil, shared.WrapError("lock", "Acquire", shared.ErrServiceUnavailable, fmt.Sprintf("failed to acquire %s", lockKey), err)
	}
	if !ok {
		return nil, shared.ErrAdvancementInProgress
	}

	return func() { l.release(lockKey, token, ttl) }, nil
}

// release runs the token-checked delete. A failure leaves the key held until
// its TTL runs out, which blocks the next advancement that long.
func (l *Locker) release(lockKey, token string, ttl time.Duration) {
	// The caller's context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.cache.Client(), []string{lockKey}, token).Err(); err != nil {
		l.logger.Error("lock release failed, key stays held until ttl",
			"key", lockKey,
			"ttl", ttl,
			"error", err,
		)
	}
}
