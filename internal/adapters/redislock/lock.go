package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cbrates/internal/adapters"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const defaultExpiry = 5 * time.Minute

// Locker hands out single-attempt redis locks so that only one replica runs a job.
type Locker struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewLocker(client *redis.Client, expiry time.Duration) *Locker {
	if expiry <= 0 {
		expiry = defaultExpiry
	}
	return &Locker{rs: redsync.New(goredis.NewPool(client)), expiry: expiry}
}

func (l *Locker) TryLock(ctx context.Context, key string) (adapters.UnlockFunc, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}

	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var errTaken *redsync.ErrTaken
		if errors.As(err, &errTaken) || errors.Is(err, redsync.ErrFailed) {
			return nil, adapters.ErrLockNotAcquired
		}
		return nil, fmt.Errorf("failed to lock %q: %w", key, err)
	}

	return func(ctx context.Context) error {
		ok, err := mutex.UnlockContext(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("lock %q expired before unlock", key)
		}
		return nil
	}, nil
}
