package storage

import (
	"context"
	"fmt"
	"time"

	"talenttrack/internal/config"
	"talenttrack/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// DedupStore tracks MD5s of accepted resume files so byte-identical
// re-uploads are detected cheaply.
type DedupStore interface {
	CheckResumeFileMD5Exists(ctx context.Context, md5Hex string) (bool, error)
	AddResumeFileMD5(ctx context.Context, md5Hex string) error
}

var _ DedupStore = (*Redis)(nil)

// Redis wraps the Redis client.
type Redis struct {
	Client *redis.Client
	cfg    *config.RedisConfig
}

// NewRedisAdapter creates a Redis client connection.
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	}

	client := redis.NewClient(opt)

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	return &Redis{Client: client, cfg: cfg}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.Client.Close()
}

// CheckResumeFileMD5Exists reports whether a byte-identical resume file was
// already accepted.
func (r *Redis) CheckResumeFileMD5Exists(ctx context.Context, md5Hex string) (bool, error) {
	return r.Client.SIsMember(ctx, constants.KeyResumeFileMD5Set, md5Hex).Result()
}

// AddResumeFileMD5 records a newly accepted resume file's MD5 and refreshes
// the set's expiry.
func (r *Redis) AddResumeFileMD5(ctx context.Context, md5Hex string) error {
	if err := r.Client.SAdd(ctx, constants.KeyResumeFileMD5Set, md5Hex).Err(); err != nil {
		return err
	}
	return r.Client.Expire(ctx, constants.KeyResumeFileMD5Set, r.md5ExpireDuration()).Err()
}

func (r *Redis) md5ExpireDuration() time.Duration {
	days := r.cfg.FileMD5ExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}
