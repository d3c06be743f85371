package redis

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultLockPrefix = "autobuy:lock:"

	minRenewInterval = 100 * time.Millisecond
)

// ExecutionLocker guards a record so that only one process executes it at a time.
// A held lock is renewed every third of its TTL until released, so a long execution never
// outlives its lease. A crashed holder frees the record after one TTL.
type ExecutionLocker struct {
	client     *Client
	prefix     string
	ttl        time.Duration
	renewEvery time.Duration
}

func NewExecutionLocker(client *Client, prefix string, ttl time.Duration) *ExecutionLocker {
	if prefix == "" {
		prefix = DefaultLockPrefix
	}
	renewEvery := ttl / 3
	if renewEvery < minRenewInterval {
		renewEvery = minRenewInterval
	}
	return &ExecutionLocker{client: client, prefix: prefix, ttl: ttl, renewEvery: renewEvery}
}

// TryLock returns acquired=false when the record is held elsewhere. The unlock func is nil in that case.
// The unlock func stops renewal and releases the key. It is safe to call more than once.
func (e *ExecutionLocker) TryLock(ctx context.Context, key string) (func(context.Context) error, bool, error) {
	lock, err := e.client.NewLock(e.prefix+key, e.ttl)
	if err != nil {
		return nil, false, err
	}
	acquired, err := lock.Acquire(ctx)
	if err != nil || !acquired {
		return nil, false, err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go e.keepAlive(lock, stop, done)

	var once sync.Once
	unlock := func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
		})
		return lock.Release(ctx)
	}
	return unlock, true, nil
}

func (e *ExecutionLocker) keepAlive(lock *Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(e.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), e.renewEvery)
			err := lock.Refresh(ctx)
			cancel()
			if errors.Is(err, ErrLockNotAcquired) {
				e.client.logger.Errorf("Lost lock %s while still executing", lock.Key())
				return
			}
			if err != nil {
				e.client.logger.Warnf("Failed to renew lock %s: %v", lock.Key(), err)
			}
		}
	}
}
