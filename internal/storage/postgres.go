package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id    TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	checksum   TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// PostgresStore keeps one row per game in game_snapshots.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects, pings and makes sure the table exists.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, snapshotSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create game_snapshots: %w", err)
	}

	stats := pool.Stat()
	logger.Info("postgres snapshot store ready",
		zap.Int32("max_conns", stats.MaxConns()),
		zap.Int32("total_conns", stats.TotalConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Save upserts the record unless a newer version is already stored.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO game_snapshots (game_id, version, checksum, data, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (game_id) DO UPDATE
		SET version = EXCLUDED.version,
		    checksum = EXCLUDED.checksum,
		    data = EXCLUDED.data,
		    updated_at = EXCLUDED.updated_at
		WHERE game_snapshots.version <= EXCLUDED.version`,
		rec.GameID, rec.Version, rec.Checksum, rec.Data,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", rec.GameID, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, gameID string) (Record, error) {
	rec := Record{GameID: gameID}
	err := s.pool.QueryRow(ctx,
		`SELECT version, checksum, data, updated_at FROM game_snapshots WHERE game_id = $1`,
		gameID,
	).Scan(&rec.Version, &rec.Checksum, &rec.Data, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, gameID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM game_snapshots WHERE game_id = $1`, gameID); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", gameID, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT game_id FROM game_snapshots ORDER BY game_id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
