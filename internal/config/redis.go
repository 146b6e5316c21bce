package config

import (
	"context"
	"crypto/tls"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds the Redis client used for reserve-endpoint rate
// limiting and the game listing cache. REDIS_URL (redis:// or rediss://)
// wins when set; otherwise the address is assembled from REDIS_HOST,
// REDIS_PORT, REDIS_PASSWORD, REDIS_DB and REDIS_TLS. The connection is
// pinged with a short timeout and nil is returned on any failure, so both
// Redis-backed middlewares degrade to pass-through on a dead broker.
func NewRedisClient() *redis.Client {
	opts, err := redisOptions()
	if err != nil {
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

func redisOptions() (*redis.Options, error) {
	if raw := envStr("REDIS_URL", ""); raw != "" {
		return redis.ParseURL(raw)
	}

	addr := envStr("REDIS_ADDR", "")
	if host := envStr("REDIS_HOST", ""); host != "" {
		addr = host + ":" + envStr("REDIS_PORT", "6379")
	}
	if addr == "" {
		addr = "localhost:6379"
	}

	db := 0
	if raw := envStr("REDIS_DB", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			db = n
		}
	}

	opts := &redis.Options{
		Addr:     addr,
		Password: envStr("REDIS_PASSWORD", ""),
		DB:       db,
	}
	if raw := envStr("REDIS_TLS", ""); raw == "1" || strings.EqualFold(raw, "true") {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
