package datastore

import (
	"fmt"
	"time"

	"github.com/trigg3rX/autobuy-backend/pkg/env"
	"github.com/trigg3rX/autobuy-backend/pkg/retry"
)

const (
	DefaultDatabase               = "swifter-v2"
	TaskCollection                = "task"
	SubscriptionCollection        = "subscriptions"
	defaultConnectTimeout         = 10 * time.Second
	defaultOperationTimeout       = 15 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
)

// Config holds the MongoDB connection settings.
type Config struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	OperationTimeout       time.Duration
	ServerSelectionTimeout time.Duration
	RetryConfig            *retry.RetryConfig
}

// NewConfig creates a Config with defaults for everything but the URI.
func NewConfig(uri string) *Config {
	return &Config{
		URI:                    uri,
		Database:               DefaultDatabase,
		ConnectTimeout:         defaultConnectTimeout,
		OperationTimeout:       defaultOperationTimeout,
		ServerSelectionTimeout: defaultServerSelectionTimeout,
		RetryConfig:            retry.DefaultRetryConfig(),
	}
}

// WithDatabase sets the database name.
func (c *Config) WithDatabase(name string) *Config {
	if name != "" {
		c.Database = name
	}
	return c
}

// WithOperationTimeout bounds every find and update.
func (c *Config) WithOperationTimeout(timeout time.Duration) *Config {
	c.OperationTimeout = timeout
	return c
}

func (c *Config) Validate() error {
	if !env.IsValidMongoURI(c.URI) {
		return fmt.Errorf("invalid MongoDB URI")
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("operation timeout must be positive")
	}
	return nil
}
