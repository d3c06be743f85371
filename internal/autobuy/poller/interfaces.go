package poller

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/sequencer"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

// Strategy is what a Poller needs to know about one kind of record.
type Strategy[T any] interface {
	Name() string
	FetchDue(ctx context.Context, now time.Time) ([]T, error)
	Key(record T) string
	Process(ctx context.Context, record T, now time.Time, logger logging.Logger) Outcome
}

type TaskStore interface {
	FindActive(ctx context.Context, taskType types.TaskType) ([]types.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, owner string, patch types.TaskPatch) error
}

type SubscriptionStore interface {
	FindDue(ctx context.Context, now time.Time) ([]types.Subscription, error)
	Update(ctx context.Context, id primitive.ObjectID, owner string, patch types.SubscriptionPatch) error
}

// SwapRunner is the sequencer as seen by the pollers.
type SwapRunner interface {
	Quote(ctx context.Context, order sequencer.Order) (*types.Quote, error)
	Execute(ctx context.Context, order sequencer.Order) (string, error)
}

// Locker claims a record for the duration of one evaluation.
// acquired=false means another process holds it and the record must be skipped.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(context.Context) error, acquired bool, err error)
}

// NoopLocker always grants the lock. Used when no Redis is configured.
type NoopLocker struct{}

func (NoopLocker) TryLock(context.Context, string) (func(context.Context) error, bool, error) {
	return func(context.Context) error { return nil }, true, nil
}
