// Package locking provides an in-process progress.Locker for single-node
// deployments (sqlite driver, Redis disabled).
package locking

import (
	"context"
	"sync"
	"time"

	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// LocalLocker hands out non-blocking exclusive locks keyed by name.
// An expired lock may be taken over by the next caller.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]holder
	now   func() time.Time
	token uint64
}

type holder struct {
	token     uint64
	expiresAt time.Time
}

// NewLocalLocker creates an empty locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]holder),
		now:  time.Now,
	}
}

// Acquire implements progress.Locker.
func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.held[key]; ok && (h.expiresAt.IsZero() || now.Before(h.expiresAt)) {
		return nil, shared.ErrAdvancementInProgress
	}

	l.token++
	token := l.token
	h := holder{token: token}
	if ttl > 0 {
		h.expiresAt = now.Add(ttl)
	}
	l.held[key] = h

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if cur, ok := l.held[key]; ok && cur.token == token {
				delete(l.held, key)
			}
		})
	}
	return release, nil
}
