package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrLockNotAcquired is returned when releasing or refreshing a lock this holder no longer owns.
var ErrLockNotAcquired = errors.New("cannot release a lock that is not acquired")

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// Lock is a single-holder lease on a Redis key.
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock prepares a lock on key. Nothing is written until Acquire.
func (c *Client) NewLock(key string, ttl time.Duration) (*Lock, error) {
	if ttl <= 0 {
		return nil, errors.New("lock TTL must be greater than zero")
	}
	return &Lock{
		client: c,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}, nil
}

// Acquire reports false without error when another holder owns the key.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.key, l.token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return acquired, nil
}

func (l *Lock) Release(ctx context.Context) error {
	res, err := l.client.Eval(ctx, releaseScript, []string{l.key}, l.token)
	if err != nil {
		return fmt.Errorf("failed to execute lock release script: %w", err)
	}
	if val, ok := res.(int64); !ok || val == 0 {
		return ErrLockNotAcquired
	}
	return nil
}

// refreshScript resets the expiry only while the key still holds our token.
const refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end`

// Refresh extends the lease to a full TTL from now. It fails with ErrLockNotAcquired once the key
// has expired or been taken by another holder.
func (l *Lock) Refresh(ctx context.Context) error {
	res, err := l.client.Eval(ctx, refreshScript, []string{l.key}, l.token, l.ttl.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to execute lock refresh script: %w", err)
	}
	if val, ok := res.(int64); !ok || val == 0 {
		return ErrLockNotAcquired
	}
	return nil
}

func (l *Lock) Key() string {
	return l.key
}
