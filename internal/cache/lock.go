package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/iam-hussain/peacock-app-sub002/internal/domain"
)

const lockKey = keyPrefix + "recalc-lock"

// RecalcLock serializes recalculation passes against concurrent ledger
// writes. While a pass holds the lock, transaction creation and deletion for
// the same ledger go through the same lock, so a computed snapshot can never
// omit or double-count a concurrently mutated entry.
type RecalcLock struct {
	rs  *redsync.Redsync
	ttl time.Duration
}

func NewRecalcLock(client *redis.Client, ttl time.Duration) *RecalcLock {
	return &RecalcLock{
		rs:  redsync.New(goredis.NewPool(client)),
		ttl: ttl,
	}
}

// WithLock runs fn while holding the recalculation mutex. If another pass is
// in flight the call fails fast with ErrRecalcInProgress rather than queue.
func (l *RecalcLock) WithLock(ctx context.Context, fn func(context.Context) error) error {
	mutex := l.rs.NewMutex(lockKey,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(1),
	)

	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return fmt.Errorf("WithLock: %w", domain.ErrRecalcInProgress)
		}
		return fmt.Errorf("WithLock: %w", err)
	}

	defer func() {
		// Best effort: an expired lock unlocks itself via the TTL.
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}()

	return fn(ctx)
}
