package policy

import (
	"fmt"
	"math/big"
	"time"

	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

// PriceTaskExpired is true strictly after the task's limit deadline.
func PriceTaskExpired(task types.Task, now time.Time) bool {
	return now.Unix() > task.SwapLimitExpired
}

// ScheduledTaskDue is true from the scheduled second onwards.
func ScheduledTaskDue(task types.Task, now time.Time) bool {
	return now.Unix() >= task.SwapScheduledExecutionTime
}

// PriceTargetReached compares the quoted output against the limit, both in the output token's base units.
func PriceTargetReached(task types.Task, amountOut *big.Int) (bool, error) {
	if amountOut == nil {
		return false, fmt.Errorf("quote has no output amount")
	}
	limit, err := types.ParseUnits(string(task.SwapLimitAmount), task.ToToken.Decimals)
	if err != nil {
		return false, fmt.Errorf("invalid swap_limit_amount: %w", err)
	}
	return amountOut.Cmp(limit) >= 0, nil
}

func ExpireTask() types.TaskPatch {
	return types.TaskPatch{
		Status:        types.TaskStatusFailed,
		MessageStatus: MessageExpired,
	}
}

// ResolveTask maps an execution outcome onto the task's terminal state.
func ResolveTask(outcome Outcome) types.TaskPatch {
	if outcome.Succeeded() {
		return types.TaskPatch{
			Status: types.TaskStatusCompleted,
			Hash:   outcome.TxHash,
		}
	}
	return types.TaskPatch{
		Status:        types.TaskStatusFailed,
		Hash:          outcome.TxHash,
		MessageStatus: outcome.ErrorMessage(),
	}
}
