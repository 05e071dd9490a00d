package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	snapshotKeyPrefix = "game:"
	snapshotKeySuffix = ":snapshot"
)

func snapshotKey(gameID string) string {
	return fmt.Sprintf("game:%s:snapshot", gameID)
}

// saveScript writes the hash only when the stored version is not newer.
var saveScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'version')
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'checksum', ARGV[2], 'data', ARGV[3], 'updated_at', ARGV[4])
if tonumber(ARGV[5]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[5])
end
return 1
`)

// RedisStore keeps each snapshot in a hash at game:<id>:snapshot.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisStore(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	logger.Info("redis snapshot store ready",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB),
		zap.Duration("ttl", cfg.TTL),
	)
	return &RedisStore{rdb: rdb, ttl: cfg.TTL, logger: logger}, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	err := saveScript.Run(ctx, s.rdb, []string{snapshotKey(rec.GameID)},
		rec.Version,
		rec.Checksum,
		rec.Data,
		updated.Format(time.RFC3339Nano),
		s.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", rec.GameID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, gameID string) (Record, error) {
	fields, err := s.rdb.HGetAll(ctx, snapshotKey(gameID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Record{}, fmt.Errorf("load snapshot %s: %w", gameID, err)
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}

	version, err := strconv.ParseInt(fields["version"], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("snapshot %s: bad version %q: %w", gameID, fields["version"], err)
	}
	rec := Record{
		GameID:   gameID,
		Version:  version,
		Checksum: fields["checksum"],
		Data:     []byte(fields["data"]),
	}
	if ts := fields["updated_at"]; ts != "" {
		if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			s.logger.Warn("snapshot has unparsable updated_at",
				zap.String("game_id", gameID),
				zap.String("updated_at", ts),
			)
		}
	}
	return rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, gameID string) error {
	if err := s.rdb.Del(ctx, snapshotKey(gameID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", gameID, err)
	}
	return nil
}

// List scans for snapshot keys. Order is unspecified.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.rdb.Scan(ctx, 0, snapshotKeyPrefix+"*"+snapshotKeySuffix, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(key, snapshotKeyPrefix), snapshotKeySuffix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
