package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cbrates/internal/adapters"
	"cbrates/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// RateStore serves FindByCode hits from memory and delegates everything else.
// Any write drops the whole cache. A read that overlapped a write is not cached.
type RateStore struct {
	next  adapters.RateStore
	cache *ristretto.Cache
	ttl   time.Duration
	// -----
	mu         sync.Mutex
	generation uint64
}

func NewRateStore(next adapters.RateStore, maxItems int64, ttl time.Duration) (*RateStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxItems,
		MaxCost:     maxItems,
		BufferItems: 64,
		// cost is counted in items
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create rate cache failed: %w", err)
	}
	return &RateStore{next: next, cache: c, ttl: ttl}, nil
}

func (s *RateStore) FindByCode(ctx context.Context, code string) (domain.StoredRate, error) {
	if v, ok := s.cache.Get(code); ok {
		if r, ok := v.(domain.StoredRate); ok {
			return r, nil
		}
	}

	s.mu.Lock()
	started := s.generation
	s.mu.Unlock()

	r, err := s.next.FindByCode(ctx, code)
	if err != nil {
		return domain.StoredRate{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == started {
		s.cache.SetWithTTL(code, r, 1, s.ttl)
	}
	return r, nil
}

func (s *RateStore) FindAll(ctx context.Context) ([]domain.StoredRate, error) {
	return s.next.FindAll(ctx)
}

func (s *RateStore) FindByID(ctx context.Context, id int64) (domain.StoredRate, error) {
	return s.next.FindByID(ctx, id)
}

func (s *RateStore) Create(ctx context.Context, fields domain.RateFields) (domain.StoredRate, error) {
	defer s.invalidate()
	return s.next.Create(ctx, fields)
}

func (s *RateStore) Update(ctx context.Context, id int64, fields domain.RateFields) (domain.StoredRate, error) {
	defer s.invalidate()
	return s.next.Update(ctx, id, fields)
}

func (s *RateStore) DeleteByID(ctx context.Context, id int64) error {
	defer s.invalidate()
	return s.next.DeleteByID(ctx, id)
}

func (s *RateStore) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Clear()
}

func (s *RateStore) Close() { s.cache.Close() }
