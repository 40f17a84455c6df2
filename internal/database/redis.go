package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/config"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Redis is nil when the server could not be reached at startup. Callers fall
// back to in-process stores in that case.
var Redis *redis.Client

var ErrCacheMiss = errors.New("cache miss")

func InitRedis() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", config.AppConfig.RedisAddr).
			Msg("Failed to connect to Redis. Sessions, cooldowns and caching will be process-local.")
		_ = client.Close()
		return
	}
	Redis = client
	logger.Info().Str("addr", config.AppConfig.RedisAddr).Msg("Connected to Redis successfully")
}

func CloseRedis() {
	if Redis != nil {
		_ = Redis.Close()
	}
}

// CacheSet stores value as JSON under key.
func CacheSet(ctx context.Context, rdb *redis.Client, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, expiration).Err()
}

// CacheGet decodes the JSON stored under key into dest. A missing key yields ErrCacheMiss.
func CacheGet(ctx context.Context, rdb *redis.Client, key string, dest interface{}) error {
	val, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dest)
}

func CacheDelete(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err()
}
