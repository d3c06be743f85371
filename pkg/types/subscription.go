package types

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCompleted SubscriptionStatus = "completed"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusFailed    SubscriptionStatus = "failed"
	SubscriptionStatusCanceled  SubscriptionStatus = "canceled"
)

const (
	HistoryStatusSuccess = "success"
	HistoryStatusFailed  = "failed"
)

// Subscription is a recurring buy stored in the "subscriptions" collection.
// DurationInSecond is an absolute unix deadline, not a length of time.
type Subscription struct {
	ID              primitive.ObjectID    `bson:"_id" json:"id"`
	WalletAddress   string                `bson:"wallet_address" json:"wallet_address"`
	PaymentToken    Token                 `bson:"paymentToken" json:"paymentToken"`
	TargetToken     Token                 `bson:"targetToken" json:"targetToken"`
	Amount          Amount                `bson:"amount" json:"amount"`
	AmountFormatted Amount                `bson:"amount_formatted,omitempty" json:"amount_formatted,omitempty"`
	Settings        *SubscriptionSettings `bson:"settings,omitempty" json:"settings,omitempty"`
	Permission      []Permission          `bson:"permission" json:"permission"`

	FrequencyInSecond      int64 `bson:"frequency_in_second" json:"frequency_in_second"`
	DurationInSecond       int64 `bson:"duration_in_second" json:"duration_in_second"`
	TotalExecutions        int64 `bson:"totalExecutions" json:"totalExecutions"`
	Executed               int64 `bson:"executed" json:"executed"`
	NextExecutionTimestamp int64 `bson:"nextExecutionTimestamp" json:"nextExecutionTimestamp"`
	FailureCount           int64 `bson:"failureCount,omitempty" json:"failureCount,omitempty"`

	Status            SubscriptionStatus      `bson:"status" json:"status"`
	LastExecutionHash string                  `bson:"lastExecutionHash,omitempty" json:"lastExecutionHash,omitempty"`
	ExecutionHistory  []ExecutionHistoryEntry `bson:"execution_history,omitempty" json:"execution_history,omitempty"`
}

type SubscriptionSettings struct {
	Slippage float64 `bson:"slippage,omitempty" json:"slippage,omitempty"`
	Deadline int64   `bson:"deadline,omitempty" json:"deadline,omitempty"`
}

// ExecutionHistoryEntry is appended to a subscription on every attempt.
type ExecutionHistoryEntry struct {
	Timestamp       time.Time `bson:"timestamp" json:"timestamp"`
	Status          string    `bson:"status" json:"status"`
	TransactionHash string    `bson:"transactionHash,omitempty" json:"transactionHash,omitempty"`
	Error           string    `bson:"error,omitempty" json:"error,omitempty"`
	RefundHash      string    `bson:"refundHash,omitempty" json:"refundHash,omitempty"`
	ExecutedAmount  string    `bson:"executedAmount" json:"executedAmount"`
	FromToken       string    `bson:"fromToken" json:"fromToken"`
	ToToken         string    `bson:"toToken" json:"toToken"`
}

// SubscriptionPatch is the set of fields written back after one execution attempt.
// Nil pointers are left untouched in the store.
type SubscriptionPatch struct {
	Status                 SubscriptionStatus
	Executed               *int64
	FailureCount           *int64
	NextExecutionTimestamp *int64
	NextExecution          *time.Time
	LastExecutionHash      *string
	LastExecutionTime      *time.Time
	LastRetryTime          *time.Time
	LastError              *string
	CompletedAt            *time.Time
	ExpiredAt              *time.Time
	FailedAt               *time.Time
	History                ExecutionHistoryEntry
}

func (s Subscription) Key() string {
	return s.ID.Hex()
}

// SwapAmount prefers the human readable amount when the app stored one.
func (s Subscription) SwapAmount() Amount {
	if s.AmountFormatted != "" {
		return s.AmountFormatted
	}
	return s.Amount
}

func (s Subscription) Validate() error {
	if _, ok := FirstPermission(s.Permission); !ok {
		return fmt.Errorf("subscription %s has no permission", s.Key())
	}
	if !IsPositive(string(s.SwapAmount()), s.PaymentToken.Decimals) {
		return fmt.Errorf("subscription %s has invalid amount %q", s.Key(), s.SwapAmount())
	}
	if s.FrequencyInSecond <= 0 {
		return fmt.Errorf("subscription %s has invalid frequency %d", s.Key(), s.FrequencyInSecond)
	}
	return nil
}
