package poller

import (
	"context"
	"errors"
	"time"

	"github.com/trigg3rX/autobuy-backend/internal/autobuy/metrics"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/policy"
	"github.com/trigg3rX/autobuy-backend/internal/autobuy/sequencer"
	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const (
	PriceTaskPoller     = "price-task"
	ScheduledTaskPoller = "scheduled-task"
)

// TaskStrategy handles one-shot tasks of a single type. Tasks are never retried:
// the first execution attempt moves them to completed or failed.
type TaskStrategy struct {
	taskType types.TaskType
	store    TaskStore
	swaps    SwapRunner
}

func NewPriceTaskStrategy(store TaskStore, swaps SwapRunner) *TaskStrategy {
	return &TaskStrategy{taskType: types.TaskTypePrice, store: store, swaps: swaps}
}

func NewScheduledTaskStrategy(store TaskStore, swaps SwapRunner) *TaskStrategy {
	return &TaskStrategy{taskType: types.TaskTypeScheduled, store: store, swaps: swaps}
}

func (s *TaskStrategy) Name() string {
	if s.taskType == types.TaskTypeScheduled {
		return ScheduledTaskPoller
	}
	return PriceTaskPoller
}

func (s *TaskStrategy) FetchDue(ctx context.Context, _ time.Time) ([]types.Task, error) {
	return s.store.FindActive(ctx, s.taskType)
}

func (s *TaskStrategy) Key(task types.Task) string {
	return task.Key()
}

func (s *TaskStrategy) Process(ctx context.Context, task types.Task, now time.Time, logger logging.Logger) Outcome {
	if s.taskType == types.TaskTypeScheduled {
		return s.processScheduled(ctx, task, now, logger)
	}
	return s.processPrice(ctx, task, now, logger)
}

func (s *TaskStrategy) processPrice(ctx context.Context, task types.Task, now time.Time, logger logging.Logger) Outcome {
	if policy.PriceTaskExpired(task, now) {
		logger.Info("Price task expired", "expired_at", task.SwapLimitExpired)
		metrics.TrackTaskExpired()
		s.update(ctx, task, policy.ExpireTask(), logger)
		return OutcomeExpired
	}
	if err := task.Validate(); err != nil {
		logger.Warn("Skipping invalid task", "error", err)
		return OutcomeInvalid
	}

	order := sequencer.OrderFromTask(task)
	quote, err := s.swaps.Quote(ctx, order)
	if err != nil {
		logger.Warn("Quote unavailable, will retry next tick",
			"kind", pkgerrors.KindOf(err).String(),
			"error", err)
		return OutcomeSkipped
	}

	reached, err := policy.PriceTargetReached(task, quote.AmountOut)
	if err != nil {
		logger.Warn("Skipping task with unusable price target", "error", err)
		return OutcomeInvalid
	}
	if !reached {
		logger.Debug("Price target not reached",
			"quoted", types.FormatUnits(quote.AmountOut, task.ToToken.Decimals),
			"target", task.SwapLimitAmount.String())
		return OutcomeSkipped
	}

	logger.Info("Price target reached, executing swap",
		"quoted", types.FormatUnits(quote.AmountOut, task.ToToken.Decimals),
		"target", task.SwapLimitAmount.String())
	order.Quote = quote
	return s.execute(ctx, task, order, logger)
}

func (s *TaskStrategy) processScheduled(ctx context.Context, task types.Task, now time.Time, logger logging.Logger) Outcome {
	if !policy.ScheduledTaskDue(task, now) {
		return OutcomeSkipped
	}
	if err := task.Validate(); err != nil {
		logger.Warn("Skipping invalid task", "error", err)
		return OutcomeInvalid
	}

	logger.Info("Scheduled time reached, executing swap", "scheduled_at", task.SwapScheduledExecutionTime)
	return s.execute(ctx, task, sequencer.OrderFromTask(task), logger)
}

func (s *TaskStrategy) execute(ctx context.Context, task types.Task, order sequencer.Order, logger logging.Logger) Outcome {
	hash, err := s.swaps.Execute(ctx, order)
	outcome := policy.NewOutcome(hash, err)
	patch := policy.ResolveTask(outcome)
	s.update(ctx, task, patch, logger)

	if patch.Status == types.TaskStatusCompleted {
		logger.Info("Task completed", "hash", patch.Hash)
		return OutcomeExecuted
	}
	logger.Error("Task failed",
		"hash", patch.Hash,
		"kind", pkgerrors.KindOf(err).String(),
		"error", patch.MessageStatus)
	return OutcomeFailed
}

func (s *TaskStrategy) update(ctx context.Context, task types.Task, patch types.TaskPatch, logger logging.Logger) {
	err := s.store.Update(ctx, task.ID, task.OwnerAddress, patch)
	switch {
	case err == nil:
	case errors.Is(err, pkgerrors.ErrRecordNotUpdated):
		logger.Warn("Task changed while processing, update dropped", "status", string(patch.Status))
	default:
		logger.Error("Failed to update task", "status", string(patch.Status), "error", err)
	}
}
