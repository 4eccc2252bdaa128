package adapters

import (
	"context"
	"errors"

	"cbrates/internal/domain"
)

var ErrLockNotAcquired = errors.New("lock not acquired")

type RateSource interface {
	FetchAll(ctx context.Context) ([]domain.RemoteRate, error)
}

type RateStore interface {
	Create(ctx context.Context, fields domain.RateFields) (domain.StoredRate, error)
	FindAll(ctx context.Context) ([]domain.StoredRate, error)
	FindByCode(ctx context.Context, code string) (domain.StoredRate, error)
	FindByID(ctx context.Context, id int64) (domain.StoredRate, error)
	Update(ctx context.Context, id int64, fields domain.RateFields) (domain.StoredRate, error)
	DeleteByID(ctx context.Context, id int64) error
}

// UnlockFunc releases a lock obtained from a JobLocker.
type UnlockFunc func(ctx context.Context) error

type JobLocker interface {
	// TryLock makes a single attempt and returns ErrLockNotAcquired when the key is held elsewhere.
	TryLock(ctx context.Context, key string) (UnlockFunc, error)
}

// NoopLocker always grants the lock. It is used when the service runs as a single replica.
type NoopLocker struct{}

func (NoopLocker) TryLock(_ context.Context, _ string) (UnlockFunc, error) {
	return func(context.Context) error { return nil }, nil
}
