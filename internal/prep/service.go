// internal/prep/service.go
package prep

import (
	"context"
	"time"

	"kitchenops/internal/data"
)

// TaskService applies kitchen updates to prep tasks with a read-check-write
// inside one transaction.
type TaskService struct {
	store TxRunner
	pub   Publisher
	now   func() time.Time
}

func NewTaskService(store TxRunner, pub Publisher) *TaskService {
	return &TaskService{store: store, pub: pub, now: time.Now}
}

// Update applies a direct field patch after CheckPatch accepts it.
func (s *TaskService) Update(ctx context.Context, id string, patch data.TaskPatch) (*data.PrepTask, error) {
	return s.mutate(ctx, id, func(task data.PrepTask) (data.TaskPatch, error) {
		return patch, CheckPatch(task, patch)
	})
}

// Act runs a state machine action on the task.
func (s *TaskService) Act(ctx context.Context, id string, action Action) (*data.PrepTask, error) {
	return s.mutate(ctx, id, func(task data.PrepTask) (data.TaskPatch, error) {
		return Apply(task, action, s.now())
	})
}

func (s *TaskService) mutate(ctx context.Context, id string, plan func(data.PrepTask) (data.TaskPatch, error)) (*data.PrepTask, error) {
	var updated *data.PrepTask

	err := s.store.WithTx(ctx, func(q *data.Queries) error {
		task, err := q.GetPrepTask(ctx, id)
		if err != nil {
			return err
		}
		patch, err := plan(*task)
		if err != nil {
			return err
		}
		updated, err = q.UpdatePrepTask(ctx, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.pub != nil {
		s.pub.Publish(updated.PrepDate)
	}
	return updated, nil
}
