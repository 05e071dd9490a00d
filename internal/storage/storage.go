// Package storage persists game snapshots.
//
// A snapshot is the opaque JSON produced by the game package plus the
// checksum it was taken with. Three backends are provided: an in-process
// map, PostgreSQL and Redis.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotFound is returned when no snapshot exists for a game.
var ErrNotFound = errors.New("snapshot not found")

// Record is one stored snapshot. Version increases with every accepted
// operation; stores never replace a record with an older version.
type Record struct {
	GameID    string
	Version   int64
	Checksum  string
	Data      []byte
	UpdatedAt time.Time
}

// Store is implemented by every backend.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context, gameID string) (Record, error)
	Delete(ctx context.Context, gameID string) error
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Drivers lists the accepted values of Config.Driver.
var Drivers = []string{"memory", "postgres", "redis"}

// Open connects the configured backend.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case "", "memory":
		logger.Info("using in-memory snapshot store")
		return NewMemoryStore(), nil
	case "postgres":
		return NewPostgresStore(ctx, cfg.Postgres, logger)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
