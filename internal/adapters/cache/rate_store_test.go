package cache

import (
	"context"
	"testing"
	"time"

	"cbrates/internal/domain"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRateStore struct{ mock.Mock }

func (m *MockRateStore) Create(ctx context.Context, fields domain.RateFields) (domain.StoredRate, error) {
	args := m.Called(ctx, fields)
	r, _ := args.Get(0).(domain.StoredRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindAll(ctx context.Context) ([]domain.StoredRate, error) {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]domain.StoredRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindByCode(ctx context.Context, code string) (domain.StoredRate, error) {
	args := m.Called(ctx, code)
	r, _ := args.Get(0).(domain.StoredRate)
	return r, args.Error(1)
}

func (m *MockRateStore) FindByID(ctx context.Context, id int64) (domain.StoredRate, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(domain.StoredRate)
	return r, args.Error(1)
}

func (m *MockRateStore) Update(ctx context.Context, id int64, fields domain.RateFields) (domain.StoredRate, error) {
	args := m.Called(ctx, id, fields)
	r, _ := args.Get(0).(domain.StoredRate)
	return r, args.Error(1)
}

func (m *MockRateStore) DeleteByID(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var usd = domain.StoredRate{ID: 1, Code: "USD", Name: "US Dollar", Rate: 90}

func newTestStore(t *testing.T, next *MockRateStore) *RateStore {
	t.Helper()
	s, err := NewRateStore(next, 128, time.Minute)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRateStore_FindByCode_ServesHitFromCache(t *testing.T) {
	next := new(MockRateStore)
	next.On("FindByCode", mock.Anything, "USD").Return(usd, nil).Once()
	s := newTestStore(t, next)

	got, err := s.FindByCode(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, usd, got)
	s.cache.Wait()

	got, err = s.FindByCode(context.Background(), "USD")
	require.NoError(t, err)
	require.Equal(t, usd, got)
	next.AssertNumberOfCalls(t, "FindByCode", 1)
}

func TestRateStore_FindByCode_DoesNotCacheNotFound(t *testing.T) {
	next := new(MockRateStore)
	next.On("FindByCode", mock.Anything, "XYZ").Return(domain.StoredRate{}, domain.ErrRateNotFound).Twice()
	s := newTestStore(t, next)

	_, err := s.FindByCode(context.Background(), "XYZ")
	require.ErrorIs(t, err, domain.ErrRateNotFound)
	s.cache.Wait()

	_, err = s.FindByCode(context.Background(), "XYZ")
	require.ErrorIs(t, err, domain.ErrRateNotFound)
	next.AssertExpectations(t)
}

func TestRateStore_WritesClearCache(t *testing.T) {
	fields := domain.RateFields{Code: "USD", Name: "US Dollar", Rate: 91}
	writes := map[string]func(s *RateStore) error{
		"create": func(s *RateStore) error {
			_, err := s.Create(context.Background(), fields)
			return err
		},
		"update": func(s *RateStore) error {
			_, err := s.Update(context.Background(), usd.ID, fields)
			return err
		},
		"delete": func(s *RateStore) error {
			return s.DeleteByID(context.Background(), usd.ID)
		},
	}

	for name, write := range writes {
		t.Run(name, func(t *testing.T) {
			next := new(MockRateStore)
			next.On("FindByCode", mock.Anything, "USD").Return(usd, nil).Twice()
			next.On("Create", mock.Anything, fields).Return(usd, nil).Maybe()
			next.On("Update", mock.Anything, usd.ID, fields).Return(usd, nil).Maybe()
			next.On("DeleteByID", mock.Anything, usd.ID).Return(nil).Maybe()
			s := newTestStore(t, next)

			_, err := s.FindByCode(context.Background(), "USD")
			require.NoError(t, err)
			s.cache.Wait()

			require.NoError(t, write(s))

			_, err = s.FindByCode(context.Background(), "USD")
			require.NoError(t, err)
			next.AssertNumberOfCalls(t, "FindByCode", 2)
		})
	}
}

func TestRateStore_DelegatesReads(t *testing.T) {
	next := new(MockRateStore)
	next.On("FindAll", mock.Anything).Return([]domain.StoredRate{usd}, nil).Once()
	next.On("FindByID", mock.Anything, int64(1)).Return(usd, nil).Once()
	s := newTestStore(t, next)

	all, err := s.FindAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.StoredRate{usd}, all)

	byID, err := s.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, usd, byID)
	next.AssertExpectations(t)
}

func TestRateStore_FindByCode_OverlappingWriteIsNotCached(t *testing.T) {
	updated := usd
	updated.Rate = 103

	reading := make(chan struct{})
	proceed := make(chan struct{})
	next := new(MockRateStore)
	next.On("FindByCode", mock.Anything, "USD").Return(usd, nil).Run(func(mock.Arguments) {
		close(reading)
		<-proceed
	}).Once()
	next.On("FindByCode", mock.Anything, "USD").Return(updated, nil).Once()
	next.On("Update", mock.Anything, usd.ID, updated.Fields()).Return(updated, nil).Once()
	s := newTestStore(t, next)

	staleRead := make(chan domain.StoredRate)
	go func() {
		r, _ := s.FindByCode(context.Background(), "USD")
		staleRead <- r
	}()

	<-reading
	_, err := s.Update(context.Background(), usd.ID, updated.Fields())
	require.NoError(t, err)
	close(proceed)

	require.InDelta(t, 90.0, (<-staleRead).Rate, 1e-9)
	s.cache.Wait()

	got, err := s.FindByCode(context.Background(), "USD")
	require.NoError(t, err)
	require.InDelta(t, 103.0, got.Rate, 1e-9)
	next.AssertExpectations(t)
}
