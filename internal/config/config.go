// Package config loads shovelsctl settings. Environment variables
// (SHOVELS_LOGGING_LEVEL and so on) override the YAML file, which overrides
// the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shovelsgame/shovels-server/internal/game"
	"github.com/shovelsgame/shovels-server/internal/storage"
)

const envPrefix = "SHOVELS"

type Config struct {
	Logging LoggingConfig  `mapstructure:"logging"`
	Game    game.Options   `mapstructure:"game"`
	Storage storage.Config `mapstructure:"storage"`
	Replay  ReplayConfig   `mapstructure:"replay"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ReplayConfig locates replay files written by a ReplayRecorder.
type ReplayConfig struct {
	Directory string `mapstructure:"directory"`
}

func setDefaults(v *viper.Viper) {
	opts := game.DefaultOptions()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.max_characters", opts.MaxCharacters)
	v.SetDefault("game.shop_pile_size", opts.ShopPileSize)
	v.SetDefault("game.shop_row_size", opts.ShopRowSize)
	v.SetDefault("game.gravedig_deal", opts.GravedigDeal)
	v.SetDefault("game.refresh_cost", opts.RefreshCost)
	v.SetDefault("game.seed", 0)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.postgres.max_conns", 4)
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.ttl", 24*time.Hour)

	v.SetDefault("replay.directory", "replays")
}

// Load reads path if it is non-empty. A missing file is an error; an empty
// path means defaults plus environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	// Player count is only known at game start; validate against the minimum.
	if err := c.Game.Validate(2); err != nil {
		errs = append(errs, fmt.Errorf("game: %w", err))
	}

	if !slices.Contains(storage.Drivers, c.Storage.Driver) {
		errs = append(errs, fmt.Errorf("storage.driver: must be one of %v, got %q", storage.Drivers, c.Storage.Driver))
	}
	if c.Storage.Driver == "postgres" && c.Storage.Postgres.DSN == "" {
		errs = append(errs, errors.New("storage.postgres.dsn: required for the postgres driver"))
	}
	if c.Storage.Driver == "redis" && c.Storage.Redis.Addr == "" {
		errs = append(errs, errors.New("storage.redis.addr: required for the redis driver"))
	}

	if c.Replay.Directory == "" {
		errs = append(errs, errors.New("replay.directory: required"))
	}
	return errors.Join(errs...)
}
