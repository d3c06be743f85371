package policy

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/trigg3rX/autobuy-backend/pkg/errors"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

func TestPriceTaskExpired(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	tests := []struct {
		name     string
		deadline int64
		expected bool
	}{
		{"deadline in the future", now.Unix() + 3600, false},
		{"deadline is now", now.Unix(), false},
		{"deadline passed", now.Unix() - 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := types.Task{SwapLimitExpired: tt.deadline}
			assert.Equal(t, tt.expected, PriceTaskExpired(task, now))
		})
	}
}

func TestScheduledTaskDue(t *testing.T) {
	now := time.Unix(1_760_000_000, 0)

	assert.False(t, ScheduledTaskDue(types.Task{SwapScheduledExecutionTime: now.Unix() + 1}, now))
	assert.True(t, ScheduledTaskDue(types.Task{SwapScheduledExecutionTime: now.Unix()}, now))
	assert.True(t, ScheduledTaskDue(types.Task{SwapScheduledExecutionTime: now.Unix() - 60}, now))
}

func TestPriceTargetReached(t *testing.T) {
	task := types.Task{
		ToToken:         types.Token{Decimals: 6},
		SwapLimitAmount: "100",
	}

	tests := []struct {
		name      string
		amountOut *big.Int
		expected  bool
	}{
		{"above limit", big.NewInt(150_000_000), true},
		{"exactly at limit", big.NewInt(100_000_000), true},
		{"one unit below", big.NewInt(99_999_999), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached, err := PriceTargetReached(task, tt.amountOut)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, reached)
		})
	}

	_, err := PriceTargetReached(task, nil)
	assert.Error(t, err)

	task.SwapLimitAmount = "not-a-number"
	_, err = PriceTargetReached(task, big.NewInt(1))
	assert.Error(t, err)
}

func TestExpireTask(t *testing.T) {
	assert.Equal(t, types.TaskPatch{Status: types.TaskStatusFailed, MessageStatus: "Expired"}, ExpireTask())
}

func TestResolveTask(t *testing.T) {
	tests := []struct {
		name     string
		outcome  Outcome
		expected types.TaskPatch
	}{
		{
			name:     "success",
			outcome:  NewOutcome("0xabc", nil),
			expected: types.TaskPatch{Status: types.TaskStatusCompleted, Hash: "0xabc"},
		},
		{
			name:     "reverted keeps hash",
			outcome:  NewOutcome("", pkgerrors.NewSwapError(pkgerrors.KindReverted, "Transaction failed on-chain").WithTxHash("0xdead")),
			expected: types.TaskPatch{Status: types.TaskStatusFailed, Hash: "0xdead", MessageStatus: "Transaction failed on-chain"},
		},
		{
			name:     "plain error",
			outcome:  NewOutcome("", errors.New("insufficient funds")),
			expected: types.TaskPatch{Status: types.TaskStatusFailed, MessageStatus: "insufficient funds"},
		},
		{
			name:     "no hash and no error",
			outcome:  NewOutcome("", nil),
			expected: types.TaskPatch{Status: types.TaskStatusFailed, MessageStatus: MessageNoTransactionHash},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveTask(tt.outcome))
		})
	}
}
