package poller

import (
	"context"
	"errors"
	"time"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/policy"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/sequencer"
	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const SubscriptionPoller = "subscription"

// SubscriptionStrategy runs due recurring buys and reschedules them after every attempt.
type SubscriptionStrategy struct {
	store  SubscriptionStore
	swaps  SwapRunner
	policy policy.SubscriptionPolicy
}

func NewSubscriptionStrategy(store SubscriptionStore, swaps SwapRunner, p policy.SubscriptionPolicy) *SubscriptionStrategy {
	return &SubscriptionStrategy{store: store, swaps: swaps, policy: p}
}

func (s *SubscriptionStrategy) Name() string {
	return SubscriptionPoller
}

func (s *SubscriptionStrategy) FetchDue(ctx context.Context, now time.Time) ([]types.Subscription, error) {
	return s.store.FindDue(ctx, now)
}

func (s *SubscriptionStrategy) Key(sub types.Subscription) string {
	return sub.Key()
}

func (s *SubscriptionStrategy) Process(ctx context.Context, sub types.Subscription, now time.Time, logger logging.Logger) Outcome {
	if err := sub.Validate(); err != nil {
		logger.Warn("Skipping invalid subscription", "error", err)
		return OutcomeInvalid
	}

	logger.Info("Executing subscription",
		"execution", sub.Executed+1,
		"total", sub.TotalExecutions,
		"amount", sub.SwapAmount().String())

	hash, err := s.swaps.Execute(ctx, sequencer.OrderFromSubscription(sub))
	outcome := policy.NewOutcome(hash, err)
	patch := s.policy.Next(sub, outcome, now)

	if err := s.store.Update(ctx, sub.ID, sub.WalletAddress, patch); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotUpdated) {
			logger.Warn("Subscription changed while processing, update dropped", "status", string(patch.Status))
		} else {
			logger.Error("Failed to update subscription", "status", string(patch.Status), "error", err)
		}
	}

	if outcome.Succeeded() {
		logger.Info("Subscription executed", "hash", outcome.TxHash, "status", string(patch.Status))
		return OutcomeExecuted
	}
	logger.Error("Subscription execution failed",
		"hash", outcome.TxHash,
		"kind", pkgerrors.KindOf(err).String(),
		"error", outcome.ErrorMessage(),
		"status", string(patch.Status))
	return OutcomeFailed
}
