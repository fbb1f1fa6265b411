package utils

import (
	"context"
	"log"
	"time"

	"asterias/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient backs the shared API cache layer.
	CacheClient *redis.Client
	// SessionClient is the dedicated client for booking checkout sessions.
	SessionClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitSessionStore initializes the Redis client holding checkout sessions.
func InitSessionStore() {
	SessionClient = newRedisClient(config.AppConfig.RedisSessionDB)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionClient returns the Redis client for checkout sessions.
func GetSessionClient() *redis.Client {
	if SessionClient == nil {
		InitSessionStore()
	}
	return SessionClient
}
