package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect открывает пул соединений и проверяет доступность базы
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS game_history (
	id               BIGSERIAL PRIMARY KEY,
	session_id       TEXT        NOT NULL,
	player_id        TEXT        NOT NULL,
	result           TEXT        NOT NULL,
	bet_amount       NUMERIC     NOT NULL,
	multiplier       NUMERIC     NOT NULL,
	payout           NUMERIC     NOT NULL,
	mine_count       INT         NOT NULL,
	grid_size        INT         NOT NULL,
	gems_found       INT         NOT NULL,
	cashed_out       BOOLEAN     NOT NULL DEFAULT FALSE,
	mines            JSONB       NOT NULL,
	revealed         JSONB       NOT NULL,
	server_seed      TEXT        NOT NULL DEFAULT '',
	server_seed_hash TEXT        NOT NULL DEFAULT '',
	client_seed      TEXT        NOT NULL DEFAULT '',
	nonce            BIGINT      NOT NULL DEFAULT 0,
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS game_history_player_idx ON game_history (player_id, finished_at DESC);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         BIGSERIAL PRIMARY KEY,
	player_id  TEXT        NOT NULL,
	session_id TEXT        NOT NULL DEFAULT '',
	action     TEXT        NOT NULL,
	category   TEXT        NOT NULL,
	details    JSONB       NOT NULL DEFAULT '{}',
	ip         TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS audit_logs_player_idx ON audit_logs (player_id, created_at DESC);
CREATE INDEX IF NOT EXISTS audit_logs_session_idx ON audit_logs (session_id);
`

// Migrate создает таблицы, если их еще нет
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
