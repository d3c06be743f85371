package redis

import (
	"time"

	"github.com/trigg3rX/autobuy-backend/pkg/retry"
)

type RedisConfig struct {
	URL                string
	ConnectionSettings ConnectionSettings
}

type ConnectionSettings struct {
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingTimeout  time.Duration
}

func DefaultConnectionSettings() ConnectionSettings {
	return ConnectionSettings{
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PingTimeout:  2 * time.Second,
	}
}

// RetryConfig is an alias for the generic retry configuration
type RetryConfig = retry.RetryConfig

// DefaultRetryConfig is used for the startup connection check
func DefaultRetryConfig() *RetryConfig {
	config := retry.DefaultRetryConfig()
	config.MaxRetries = 3
	config.InitialDelay = 200 * time.Millisecond
	config.MaxDelay = 2 * time.Second
	config.JitterFactor = 0.1
	return config
}
