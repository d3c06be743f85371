package datastore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trigg3rX/autobuy-backend/pkg/logging"
	"github.com/trigg3rX/autobuy-backend/pkg/types"
)

type TaskRepository struct {
	repo repository[types.Task]
}

func NewTaskRepository(collection Collection, timeout time.Duration, observer RequestObserver, logger logging.Logger) *TaskRepository {
	return &TaskRepository{repo: repository[types.Task]{
		collection: collection,
		timeout:    timeout,
		observer:   observer,
		logger:     logger,
	}}
}

// FindActive returns active tasks of one type ordered by their trigger timestamp.
func (r *TaskRepository) FindActive(ctx context.Context, taskType types.TaskType) ([]types.Task, error) {
	return r.repo.find(ctx, ActiveTasksFilter(taskType), AscendingBy(TaskSortField(taskType)))
}

// Update applies the patch only if the task still belongs to owner and is active.
func (r *TaskRepository) Update(ctx context.Context, id primitive.ObjectID, owner string, patch types.TaskPatch) error {
	return r.repo.update(ctx, ActiveRecordFilter(id, taskOwnerField, owner), TaskUpdate(patch))
}
