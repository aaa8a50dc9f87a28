package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps device state in a shared database, scoped to one device id.
type Postgres struct {
	pool     *pgxpool.Pool
	deviceID string
}

func NewPostgres(pool *pgxpool.Pool, deviceID string) *Postgres {
	return &Postgres{pool: pool, deviceID: deviceID}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	const q = `
SELECT value
FROM device_state
WHERE device_id = $1 AND key = $2
LIMIT 1
`
	var value string
	if err := p.pool.QueryRow(ctx, q, p.deviceID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO device_state (device_id, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (device_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	if _, err := p.pool.Exec(ctx, q, p.deviceID, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM device_state WHERE device_id = $1 AND key = $2`, p.deviceID, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
