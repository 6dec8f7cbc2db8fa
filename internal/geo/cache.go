package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hilaltech/miqat/internal/model"
)

// kvStore is the slice of redis this cache needs. Kept narrow so tests can
// substitute a map-backed fake.
type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// redisKV adapts a go-redis client to kvStore.
type redisKV struct {
	rdb *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.rdb.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

// CachedGeocoder wraps a Geocoder with a redis-backed result cache so
// repeated queries for the same place skip the provider. Cache failures are
// logged and ignored; the provider result always wins.
type CachedGeocoder struct {
	next Geocoder
	kv   kvStore
	ttl  time.Duration
}

// NewCachedGeocoder returns next unwrapped when rdb is nil, so callers can
// run without redis in development.
func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration) Geocoder {
	if rdb == nil {
		return next
	}
	return &CachedGeocoder{next: next, kv: redisKV{rdb: rdb}, ttl: ttl}
}

func forwardKey(query string) string {
	return "geocode:fwd:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func reverseKey(coords model.Coordinates) string {
	// round to ~100m so nearby fixes share an entry
	return fmt.Sprintf("geocode:rev:%.3f:%.3f", coords.Latitude, coords.Longitude)
}

func (c *CachedGeocoder) Forward(ctx context.Context, query string) ([]Place, error) {
	key := forwardKey(query)
	if raw, err := c.kv.Get(ctx, key); err == nil {
		var cached []Place
		if err := json.Unmarshal([]byte(raw), &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	places, err := c.next.Forward(ctx, query)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(places); err == nil {
		if err := c.kv.Set(ctx, key, string(raw), c.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to cache forward geocode")
		}
	}
	return places, nil
}

func (c *CachedGeocoder) Reverse(ctx context.Context, coords model.Coordinates) (string, error) {
	key := reverseKey(coords)
	if cached, err := c.kv.Get(ctx, key); err == nil && cached != "" {
		return cached, nil
	}

	text, err := c.next.Reverse(ctx, coords)
	if err != nil {
		return "", err
	}

	if err := c.kv.Set(ctx, key, text, c.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache reverse geocode")
	}
	return text, nil
}
