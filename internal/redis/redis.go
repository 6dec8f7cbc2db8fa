package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var Rdb *redis.Client

var ErrNotConfigured = errors.New("redis: client not configured")

func InitRedis(redisAddress, redisUsername, redisPassword string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     redisAddress,
		Username: redisUsername,
		Password: redisPassword,
		DB:       0,
	})
}

func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if Rdb == nil {
		log.Error().Str("key", key).Msg("redis not configured, dropping key")
		return
	}
	if err := Rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to add key to redis")
	}
}

func Get(ctx context.Context, key string) (string, error) {
	if Rdb == nil {
		return "", ErrNotConfigured
	}
	value, err := Rdb.Get(ctx, key).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to read key from redis")
		return "", err
	}
	return value, nil
}
