package probe

import (
	"context"

	"github.com/fgeck/dbavailwait/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisTransport probes Redis through redis/go-redis.
type RedisTransport struct{}

// NewRedisTransport creates the "redis" transport.
func NewRedisTransport() *RedisTransport { return &RedisTransport{} }

// Name returns the driver name.
func (t *RedisTransport) Name() string { return "redis" }

// Accepts reports whether endpoint is a redis:// or rediss:// URL.
func (t *RedisTransport) Accepts(endpoint string) bool {
	return hasScheme(endpoint, "redis", "rediss")
}

// Ping sends PING on a fresh client and closes it.
func (t *RedisTransport) Ping(ctx context.Context, endpoint string, creds models.Credentials) error {
	opts, err := redis.ParseURL(endpoint)
	if err != nil {
		return unsuitable(endpoint, err)
	}
	if creds.Username != "" {
		opts.Username = creds.Username
	}
	if creds.Password != "" {
		opts.Password = creds.Password
	}
	opts.MaxRetries = -1
	opts.PoolSize = 1

	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	return client.Ping(ctx).Err()
}
