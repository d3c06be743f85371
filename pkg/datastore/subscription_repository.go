package datastore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

type SubscriptionRepository struct {
	repo repository[types.Subscription]
}

func NewSubscriptionRepository(collection Collection, timeout time.Duration, observer RequestObserver, logger logging.Logger) *SubscriptionRepository {
	return &SubscriptionRepository{repo: repository[types.Subscription]{
		collection: collection,
		timeout:    timeout,
		observer:   observer,
		logger:     logger,
	}}
}

// FindDue returns active subscriptions whose next execution is at or before now, earliest first.
func (r *SubscriptionRepository) FindDue(ctx context.Context, now time.Time) ([]types.Subscription, error) {
	return r.repo.find(ctx, DueSubscriptionsFilter(now.Unix()), AscendingBy("nextExecutionTimestamp"))
}

func (r *SubscriptionRepository) Update(ctx context.Context, id primitive.ObjectID, owner string, patch types.SubscriptionPatch) error {
	return r.repo.update(ctx, ActiveRecordFilter(id, subscriptionOwnerField, owner), SubscriptionUpdate(patch))
}
