package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"petalz/internal/calendar"
)

// CachedSource is a Redis read-through cache in front of another source.
// Entries are keyed by room and the day they were computed on, so a cached
// set never leaks into the next day's horizon.
type CachedSource struct {
	next     calendar.Source
	redis    *redis.Client
	ttl      time.Duration
	location *time.Location
	now      func() time.Time
	logger   *zerolog.Logger
}

// NewCachedSource wraps next. A nil client or non-positive ttl disables
// caching.
func NewCachedSource(next calendar.Source, rdb *redis.Client, ttl time.Duration, loc *time.Location, logger *zerolog.Logger) *CachedSource {
	return &CachedSource{
		next:     next,
		redis:    rdb,
		ttl:      ttl,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}
}

type cachedSet struct {
	Dates []string `json:"dates"`
}

// Fetch implements calendar.Source.
func (c *CachedSource) Fetch(ctx context.Context, room string) (calendar.Set, error) {
	key := c.key(room)

	var cached cachedSet
	if c.readCache(ctx, key, &cached) {
		set, err := calendar.ParseSet(cached.Dates)
		if err == nil {
			return set, nil
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt availability cache entry")
	}

	set, err := c.next.Fetch(ctx, room)
	if err != nil {
		return calendar.Set{}, err
	}
	c.writeCache(ctx, key, cachedSet{Dates: set.Strings()})
	return set, nil
}

// Invalidate drops the cached set for room so the next fetch recomputes it.
func (c *CachedSource) Invalidate(ctx context.Context, room string) error {
	if !c.enabled() {
		return nil
	}
	return c.redis.Del(ctx, c.key(room)).Err()
}

func (c *CachedSource) key(room string) string {
	return fmt.Sprintf("availability:%s:%s", room, calendar.Today(c.now(), c.location))
}

func (c *CachedSource) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

func (c *CachedSource) readCache(ctx context.Context, key string, out any) bool {
	if !c.enabled() {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("availability cache read failed")
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *CachedSource) writeCache(ctx context.Context, key string, val any) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("availability cache write failed")
	}
}
