package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/retry"
)

// Client wraps go-redis with the service logger and the few operations the service needs.
type Client struct {
	redisClient *redis.Client
	config      RedisConfig
	logger      logging.Logger
}

// NewRedisClient parses config.URL, applies connection settings and verifies connectivity.
func NewRedisClient(ctx context.Context, logger logging.Logger, config RedisConfig) (*Client, error) {
	opt, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	applyConnectionSettings(opt, config.ConnectionSettings)

	client := NewClientFromRedis(redis.NewClient(opt), logger)
	client.config = config

	err = retry.RetryFunc(ctx, func() error {
		return client.Ping(ctx)
	}, DefaultRetryConfig(), logger)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("Successfully connected to Redis")
	return client, nil
}

// NewClientFromRedis wraps an existing go-redis client without a connectivity check.
func NewClientFromRedis(redisClient *redis.Client, logger logging.Logger) *Client {
	return &Client{
		redisClient: redisClient,
		config:      RedisConfig{ConnectionSettings: DefaultConnectionSettings()},
		logger:      logger,
	}
}

func applyConnectionSettings(opt *redis.Options, settings ConnectionSettings) {
	if settings.PoolSize > 0 {
		opt.PoolSize = settings.PoolSize
	}
	if settings.MinIdleConns > 0 {
		opt.MinIdleConns = settings.MinIdleConns
	}
	if settings.DialTimeout > 0 {
		opt.DialTimeout = settings.DialTimeout
	}
	if settings.ReadTimeout > 0 {
		opt.ReadTimeout = settings.ReadTimeout
	}
	if settings.WriteTimeout > 0 {
		opt.WriteTimeout = settings.WriteTimeout
	}
}

func (c *Client) Ping(ctx context.Context) error {
	timeout := c.config.ConnectionSettings.PingTimeout
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return c.redisClient.SetNX(ctx, key, value, expiration).Result()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.redisClient.Get(ctx, key).Result()
}

func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return c.redisClient.Eval(ctx, script, keys, args...).Result()
}

func (c *Client) Close() error {
	return c.redisClient.Close()
}
