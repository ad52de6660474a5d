package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/art0tod/battle-rap-v2-sub000/internal/models"
)

const (
	generationKey = "leaderboard:generation"
	winsKeyTpl    = "leaderboard:%d:wins:%s" // leaderboard:${generation}:wins:${tournament}
)

// SnapshotCache keeps raw win rows per tournament. Rows are stored under the
// generation read before they were loaded, so a refresh that lands in
// between never gets masked by older data.
type SnapshotCache interface {
	Load(ctx context.Context, tournamentID string) (rows []models.TournamentWin, generation int64, hit bool, err error)
	Store(ctx context.Context, tournamentID string, generation int64, rows []models.TournamentWin) error
	Invalidate(ctx context.Context) error
}

type RedisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// DefaultTTL bounds how long a snapshot from an old generation lingers.
const DefaultTTL = 10 * time.Minute

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{redis: client, ttl: ttl}
}

func (c *RedisCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.redis.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read leaderboard generation: %w", err)
	}
	return gen, nil
}

func (c *RedisCache) Load(ctx context.Context, tournamentID string) ([]models.TournamentWin, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	data, err := c.redis.Get(ctx, fmt.Sprintf(winsKeyTpl, gen, tournamentID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to read leaderboard snapshot: %w", err)
	}

	var rows []models.TournamentWin
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, gen, false, fmt.Errorf("failed to decode leaderboard snapshot: %w", err)
	}
	return rows, gen, true, nil
}

func (c *RedisCache) Store(ctx context.Context, tournamentID string, generation int64, rows []models.TournamentWin) error {
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode leaderboard snapshot: %w", err)
	}
	key := fmt.Sprintf(winsKeyTpl, generation, tournamentID)
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write leaderboard snapshot: %w", err)
	}
	return nil
}

// Invalidate moves every reader to a fresh generation; old keys expire on
// their own.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to bump leaderboard generation: %w", err)
	}
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// NopCache always misses.
type NopCache struct{}

func (NopCache) Load(context.Context, string) ([]models.TournamentWin, int64, bool, error) {
	return nil, 0, false, nil
}

func (NopCache) Store(context.Context, string, int64, []models.TournamentWin) error { return nil }

func (NopCache) Invalidate(context.Context) error { return nil }
