package types

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskType string

const (
	TaskTypePrice     TaskType = "price"
	TaskTypeScheduled TaskType = "scheduled"
)

type TaskStatus string

const (
	TaskStatusActive    TaskStatus = "active"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCanceled  TaskStatus = "canceled"
)

// Task is a one-shot swap order stored in the "task" collection.
// Price tasks fire once the quote reaches SwapLimitAmount, scheduled tasks once SwapScheduledExecutionTime passes.
type Task struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	OwnerAddress string             `bson:"owner_address" json:"owner_address"`
	Type         TaskType           `bson:"type" json:"type"`
	FromToken    Token              `bson:"from_token" json:"from_token"`
	ToToken      Token              `bson:"to_token" json:"to_token"`
	FromAmount   Amount             `bson:"from_amount" json:"from_amount"`
	Permission   []Permission       `bson:"permission" json:"permission"`

	SwapLimitAmount            Amount `bson:"swap_limit_amount,omitempty" json:"swap_limit_amount,omitempty"`
	SwapLimitExpired           int64  `bson:"swap_limit_expired,omitempty" json:"swap_limit_expired,omitempty"`
	SwapScheduledExecutionTime int64  `bson:"swap_scheduled_execution_time,omitempty" json:"swap_scheduled_execution_time,omitempty"`

	Status        TaskStatus `bson:"status" json:"status"`
	Hash          string     `bson:"hash,omitempty" json:"hash,omitempty"`
	MessageStatus string     `bson:"message_status,omitempty" json:"message_status,omitempty"`
	Timestamp     int64      `bson:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// TaskPatch is the set of fields a poller writes back after handling a task.
type TaskPatch struct {
	Status        TaskStatus
	Hash          string
	MessageStatus string
}

func (t Task) Key() string {
	return t.ID.Hex()
}

// Validate checks what the swap needs before anything is sent on-chain.
func (t Task) Validate() error {
	if _, ok := FirstPermission(t.Permission); !ok {
		return fmt.Errorf("task %s has no permission", t.Key())
	}
	if !IsPositive(string(t.FromAmount), t.FromToken.Decimals) {
		return fmt.Errorf("task %s has invalid from_amount %q", t.Key(), t.FromAmount)
	}
	if t.Type == TaskTypePrice && !IsPositive(string(t.SwapLimitAmount), t.ToToken.Decimals) {
		return fmt.Errorf("task %s has invalid swap_limit_amount %q", t.Key(), t.SwapLimitAmount)
	}
	return nil
}
