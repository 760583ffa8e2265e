package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

// PostgresAlertRepository хранит историю уведомлений в Postgres.
type PostgresAlertRepository struct {
	pool *pgxpool.Pool
}

// NewPgxPool открывает пул соединений и проверяет доступность базы.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return pool, nil
}

// NewPostgresAlertRepository создаёт репозиторий и таблицу, если её нет.
func NewPostgresAlertRepository(ctx context.Context, pool *pgxpool.Pool) (*PostgresAlertRepository, error) {
	const sql = `
CREATE TABLE IF NOT EXISTS alerts (
    id         UUID PRIMARY KEY,
    animal     TEXT        NOT NULL,
    labels     TEXT[]      NOT NULL,
    chats      INTEGER     NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS alerts_created_at_idx ON alerts (created_at DESC);
`
	if _, err := pool.Exec(ctx, sql); err != nil {
		return nil, fmt.Errorf("postgres: migrate alerts: %w", err)
	}
	return &PostgresAlertRepository{pool: pool}, nil
}

func (r *PostgresAlertRepository) Save(ctx context.Context, a *entity.Alert) error {
	const sql = `
INSERT INTO alerts (id, animal, labels, chats, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING;
`
	if _, err := r.pool.Exec(ctx, sql, a.ID, a.AnimalKey, a.Labels, a.Chats, a.CreatedAt); err != nil {
		return fmt.Errorf("postgres: saving alert: %w", err)
	}
	return nil
}

func (r *PostgresAlertRepository) Recent(ctx context.Context, limit int) ([]*entity.Alert, error) {
	const sql = `
SELECT id::text, animal, labels, chats, created_at
  FROM alerts
 ORDER BY created_at DESC
 LIMIT $1;
`
	if limit <= 0 {
		limit = defaultAlertCapacity
	}
	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: querying alerts: %w", err)
	}
	defer rows.Close()

	var out []*entity.Alert
	for rows.Next() {
		var (
			a         entity.Alert
			createdAt time.Time
		)
		if err := rows.Scan(&a.ID, &a.AnimalKey, &a.Labels, &a.Chats, &createdAt); err != nil {
			return nil, fmt.Errorf("postgres: scanning alert: %w", err)
		}
		a.CreatedAt = createdAt.UTC()
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating alerts: %w", err)
	}
	return out, nil
}

var _ port.AlertRepository = (*PostgresAlertRepository)(nil)
