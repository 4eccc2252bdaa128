package postgres

import (
	"context"
	"errors"
	"fmt"

	"cbrates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const rateColumns = `id, code, name, rate, created_at, updated_at`

type RateStore struct {
	pool *pgxpool.Pool
}

func (s *RateStore) Create(ctx context.Context, fields domain.RateFields) (domain.StoredRate, error) {
	const q = `
		insert into rates (code, name, rate, created_at, updated_at)
		values ($1, $2, $3, now(), now())
		returning ` + rateColumns + `;
	`

	rate, err := scanRate(s.pool.QueryRow(ctx, q, fields.Code, fields.Name, fields.Rate))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.StoredRate{}, fmt.Errorf("failed to insert rate %q: %w", fields.Code, domain.ErrRateExists)
		}
		return domain.StoredRate{}, fmt.Errorf("%w: failed to insert rate %q: %w", domain.ErrStoreUnavailable, fields.Code, err)
	}
	return rate, nil
}

func (s *RateStore) FindAll(ctx context.Context) ([]domain.StoredRate, error) {
	const q = `select ` + rateColumns + ` from rates order by id;`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query rates: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	rates := make([]domain.StoredRate, 0, 64)
	for rows.Next() {
		rate, scanErr := scanRate(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%w: failed to scan rate: %w", domain.ErrStoreUnavailable, scanErr)
		}
		rates = append(rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rates: %w", domain.ErrStoreUnavailable, err)
	}
	return rates, nil
}

func (s *RateStore) FindByCode(ctx context.Context, code string) (domain.StoredRate, error) {
	const q = `select ` + rateColumns + ` from rates where code = $1 order by id limit 1;`

	rate, err := scanRate(s.pool.QueryRow(ctx, q, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredRate{}, domain.ErrRateNotFound
		}
		return domain.StoredRate{}, fmt.Errorf("%w: failed to select rate by code %q: %w", domain.ErrStoreUnavailable, code, err)
	}
	return rate, nil
}

func (s *RateStore) FindByID(ctx context.Context, id int64) (domain.StoredRate, error) {
	const q = `select ` + rateColumns + ` from rates where id = $1;`

	rate, err := scanRate(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredRate{}, domain.ErrRateNotFound
		}
		return domain.StoredRate{}, fmt.Errorf("%w: failed to select rate by id %d: %w", domain.ErrStoreUnavailable, id, err)
	}
	return rate, nil
}

// Update overwrites code, name and rate of an existing record. id and created_at are never touched.
func (s *RateStore) Update(ctx context.Context, id int64, fields domain.RateFields) (domain.StoredRate, error) {
	const q = `
		update rates
		set code = $2, name = $3, rate = $4, updated_at = now()
		where id = $1
		returning ` + rateColumns + `;
	`

	rate, err := scanRate(s.pool.QueryRow(ctx, q, id, fields.Code, fields.Name, fields.Rate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StoredRate{}, domain.ErrRateNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.StoredRate{}, fmt.Errorf("failed to update rate %d to code %q: %w", id, fields.Code, domain.ErrRateExists)
		}
		return domain.StoredRate{}, fmt.Errorf("%w: failed to update rate %d: %w", domain.ErrStoreUnavailable, id, err)
	}
	return rate, nil
}

func (s *RateStore) DeleteByID(ctx context.Context, id int64) error {
	const q = `delete from rates where id = $1;`

	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("%w: failed to delete rate %d: %w", domain.ErrStoreUnavailable, id, err)
	}
	return nil
}

func scanRate(row pgx.Row) (domain.StoredRate, error) {
	var rate domain.StoredRate
	err := row.Scan(
		&rate.ID,
		&rate.Code,
		&rate.Name,
		&rate.Rate,
		&rate.CreatedAt,
		&rate.UpdatedAt,
	)
	return rate, err
}

func NewRateStore(pool *pgxpool.Pool) *RateStore {
	return &RateStore{pool: pool}
}
