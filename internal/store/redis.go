package store

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every salon key in a shared Redis.
const KeyPrefix = "salon"

// Key joins parts under KeyPrefix, e.g. Key("insights", "2024-11") is
// "salon:insights:2024-11".
func Key(parts ...string) string {
	return KeyPrefix + ":" + strings.Join(parts, ":")
}

// RedisOptions selects the Redis server backing the queue, summary cache
// and rate limiter.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// Redis holds the shared client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects with short timeouts; calls fail fast when Redis is down.
func NewRedis(opts RedisOptions) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy pings Redis within one second.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
