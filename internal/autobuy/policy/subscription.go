package policy

import (
	"fmt"
	"time"

	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

// FailureMode selects how a failed subscription attempt is accounted.
type FailureMode string

const (
	// FailureModeAdvance counts the attempt as an execution and moves to the next slot.
	FailureModeAdvance FailureMode = "advance"
	// FailureModeRetry keeps the slot, retries after RetryDelay and fails the subscription after MaxFailures.
	FailureModeRetry FailureMode = "retry"
)

const (
	DefaultMaxFailures = 3
	DefaultRetryDelay  = 180 * time.Second
)

func ParseFailureMode(s string) (FailureMode, error) {
	switch FailureMode(s) {
	case FailureModeAdvance, FailureModeRetry:
		return FailureMode(s), nil
	case "":
		return FailureModeAdvance, nil
	default:
		return "", fmt.Errorf("unknown subscription failure policy %q", s)
	}
}

type SubscriptionPolicy struct {
	Mode        FailureMode
	MaxFailures int64
	RetryDelay  time.Duration
}

func NewSubscriptionPolicy(mode FailureMode) SubscriptionPolicy {
	return SubscriptionPolicy{
		Mode:        mode,
		MaxFailures: DefaultMaxFailures,
		RetryDelay:  DefaultRetryDelay,
	}
}

// Next computes the patch for one attempt. It is a pure function of its inputs.
func (p SubscriptionPolicy) Next(sub types.Subscription, outcome Outcome, now time.Time) types.SubscriptionPatch {
	now = now.UTC()
	entry := historyEntry(sub, outcome, now)

	if outcome.Succeeded() {
		patch := p.advance(sub, now, entry)
		patch.LastExecutionHash = ptr(outcome.TxHash)
		patch.LastExecutionTime = ptr(now)
		return patch
	}

	if p.Mode == FailureModeRetry {
		return p.retry(sub, outcome, now, entry)
	}

	patch := p.advance(sub, now, entry)
	patch.LastExecutionHash = ptr(outcome.TxHash)
	patch.LastExecutionTime = ptr(now)
	patch.LastError = ptr(outcome.ErrorMessage())
	return patch
}

// advance consumes one execution and schedules the next slot or closes the subscription.
func (p SubscriptionPolicy) advance(sub types.Subscription, now time.Time, entry types.ExecutionHistoryEntry) types.SubscriptionPatch {
	executed := sub.Executed + 1
	patch := types.SubscriptionPatch{
		Executed: ptr(executed),
		History:  entry,
	}

	if executed >= sub.TotalExecutions {
		patch.Status = types.SubscriptionStatusCompleted
		patch.CompletedAt = ptr(now)
		return patch
	}

	next := sub.NextExecutionTimestamp + sub.FrequencyInSecond
	if next > sub.DurationInSecond {
		patch.Status = types.SubscriptionStatusExpired
		patch.ExpiredAt = ptr(now)
		return patch
	}

	patch.Status = types.SubscriptionStatusActive
	patch.NextExecutionTimestamp = ptr(next)
	patch.NextExecution = ptr(time.Unix(next, 0).UTC())
	return patch
}

func (p SubscriptionPolicy) retry(sub types.Subscription, outcome Outcome, now time.Time, entry types.ExecutionHistoryEntry) types.SubscriptionPatch {
	failures := sub.FailureCount + 1
	message := outcome.ErrorMessage()
	patch := types.SubscriptionPatch{
		FailureCount: ptr(failures),
		LastError:    ptr(message),
		History:      entry,
	}

	maxFailures := p.MaxFailures
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if failures >= maxFailures {
		patch.Status = types.SubscriptionStatusFailed
		patch.FailedAt = ptr(now)
		return patch
	}

	delay := p.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	next := now.Add(delay).Unix()
	if next < sub.NextExecutionTimestamp {
		next = sub.NextExecutionTimestamp
	}

	patch.Status = types.SubscriptionStatusActive
	patch.NextExecutionTimestamp = ptr(next)
	patch.NextExecution = ptr(time.Unix(next, 0).UTC())
	patch.LastRetryTime = ptr(now)
	return patch
}

func historyEntry(sub types.Subscription, outcome Outcome, now time.Time) types.ExecutionHistoryEntry {
	entry := types.ExecutionHistoryEntry{
		Timestamp:       now,
		TransactionHash: outcome.TxHash,
		ExecutedAmount:  string(sub.SwapAmount()),
		FromToken:       sub.PaymentToken.Symbol,
		ToToken:         sub.TargetToken.Symbol,
	}
	if outcome.Succeeded() {
		entry.Status = types.HistoryStatusSuccess
	} else {
		entry.Status = types.HistoryStatusFailed
		entry.Error = outcome.ErrorMessage()
		entry.RefundHash = pkgerrors.RefundTxHashOf(outcome.Err)
	}
	return entry
}

func ptr[T any](v T) *T {
	return &v
}
