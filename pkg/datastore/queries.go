package datastore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

const (
	taskOwnerField         = "owner_address"
	subscriptionOwnerField = "wallet_address"
	isoTimeLayout          = "2006-01-02T15:04:05.000Z07:00"
)

// TaskSortField is the trigger timestamp a task type is ordered by.
func TaskSortField(taskType types.TaskType) string {
	if taskType == types.TaskTypeScheduled {
		return "swap_scheduled_execution_time"
	}
	return "swap_limit_expired"
}

func ActiveTasksFilter(taskType types.TaskType) bson.D {
	return bson.D{
		{Key: "status", Value: string(types.TaskStatusActive)},
		{Key: "type", Value: string(taskType)},
	}
}

func DueSubscriptionsFilter(now int64) bson.D {
	return bson.D{
		{Key: "status", Value: string(types.SubscriptionStatusActive)},
		{Key: "nextExecutionTimestamp", Value: bson.D{{Key: "$lte", Value: now}}},
	}
}

func AscendingBy(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// ActiveRecordFilter matches one record by id and owner, only while it is still active.
func ActiveRecordFilter(id primitive.ObjectID, ownerField, owner string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: ownerField, Value: owner},
		{Key: "status", Value: "active"},
	}
}

func TaskUpdate(patch types.TaskPatch) bson.D {
	set := bson.D{
		{Key: "status", Value: string(patch.Status)},
		{Key: "message_status", Value: patch.MessageStatus},
	}
	if patch.Hash != "" {
		set = append(set, bson.E{Key: "hash", Value: patch.Hash})
	}
	return bson.D{{Key: "$set", Value: set}}
}

// SubscriptionUpdate sets every non-nil patch field and appends the history entry.
func SubscriptionUpdate(patch types.SubscriptionPatch) bson.D {
	set := bson.D{{Key: "status", Value: string(patch.Status)}}
	appendSet := func(key string, value any) {
		set = append(set, bson.E{Key: key, Value: value})
	}

	if patch.Executed != nil {
		appendSet("executed", *patch.Executed)
	}
	if patch.FailureCount != nil {
		appendSet("failureCount", *patch.FailureCount)
	}
	if patch.NextExecutionTimestamp != nil {
		appendSet("nextExecutionTimestamp", *patch.NextExecutionTimestamp)
	}
	if patch.NextExecution != nil {
		appendSet("nextExecution", patch.NextExecution.UTC().Format(isoTimeLayout))
	}
	if patch.LastExecutionHash != nil {
		appendSet("lastExecutionHash", *patch.LastExecutionHash)
	}
	optionalTime := func(key string, t *time.Time) {
		if t != nil {
			appendSet(key, t.UTC())
		}
	}
	optionalTime("lastExecutionTime", patch.LastExecutionTime)
	optionalTime("lastRetryTime", patch.LastRetryTime)
	if patch.LastError != nil {
		appendSet("lastError", *patch.LastError)
	}
	optionalTime("completedAt", patch.CompletedAt)
	optionalTime("expiredAt", patch.ExpiredAt)
	optionalTime("failedAt", patch.FailedAt)

	return bson.D{
		{Key: "$set", Value: set},
		{Key: "$push", Value: bson.D{{Key: "execution_history", Value: patch.History}}},
	}
}
