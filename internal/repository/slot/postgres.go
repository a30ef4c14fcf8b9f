package slot

import (
	"context"
	"errors"

	"empress-storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `
SELECT value
FROM storage_slots
WHERE key = $1
`
	var value string
	if err := r.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return []byte(value), nil
}

func (r *postgresRepo) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO storage_slots (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`
	_, err := r.pool.Exec(ctx, q, key, string(value))
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM storage_slots WHERE key = $1`, key)
	return err
}
