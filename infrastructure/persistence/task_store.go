package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcelore/sourcelore/domain/repository"
	"github.com/sourcelore/sourcelore/domain/task"
	"github.com/sourcelore/sourcelore/internal/database"
	"gorm.io/gorm"
)

// TaskStore implements task.TaskStore using GORM. Unlike the other stores
// in this package it does not embed database.Repository, because
// TaskMapper's ToDomain/ToModel can fail (payload marshaling) and the
// generic Repository's EntityMapper contract has no room for that error.
type TaskStore struct {
	db     database.Database
	mapper TaskMapper
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db database.Database) TaskStore {
	return TaskStore{db: db, mapper: TaskMapper{}}
}

// Get retrieves a task by ID.
func (s TaskStore) Get(ctx context.Context, id int64) (task.Task, error) {
	var model TaskModel
	result := s.db.Session(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return task.Task{}, fmt.Errorf("%w: task", database.ErrNotFound)
		}
		return task.Task{}, fmt.Errorf("get task: %w", result.Error)
	}
	return s.mapper.ToDomain(model)
}

// FindAll returns every pending task.
func (s TaskStore) FindAll(ctx context.Context) ([]task.Task, error) {
	var models []TaskModel
	if result := s.db.Session(ctx).Find(&models); result.Error != nil {
		return nil, fmt.Errorf("find all tasks: %w", result.Error)
	}
	return s.toDomainAll(models)
}

// FindPending returns pending tasks matching the given options, ordered
// by priority descending then created_at ascending.
func (s TaskStore) FindPending(ctx context.Context, options ...repository.Option) ([]task.Task, error) {
	var models []TaskModel
	db := database.ApplyOptions(s.db.Session(ctx).Model(&TaskModel{}), options...)
	if result := db.Order("priority DESC").Order("created_at ASC").Find(&models); result.Error != nil {
		return nil, fmt.Errorf("find pending tasks: %w", result.Error)
	}
	return s.toDomainAll(models)
}

// Save creates or updates a task. If a task with the same dedup_key
// exists, its priority is updated instead of inserting a duplicate.
func (s TaskStore) Save(ctx context.Context, t task.Task) (task.Task, error) {
	model, err := s.mapper.ToModel(t)
	if err != nil {
		return task.Task{}, fmt.Errorf("marshal task: %w", err)
	}

	var existing TaskModel
	lookup := s.db.Session(ctx).Where("dedup_key = ?", t.DedupKey()).First(&existing)
	switch {
	case lookup.Error == nil:
		existing.Priority = model.Priority
		existing.Payload = model.Payload
		if result := s.db.Session(ctx).Save(&existing); result.Error != nil {
			return task.Task{}, fmt.Errorf("update task: %w", result.Error)
		}
		return s.mapper.ToDomain(existing)
	case errors.Is(lookup.Error, gorm.ErrRecordNotFound):
		if result := s.db.Session(ctx).Create(&model); result.Error != nil {
			return task.Task{}, fmt.Errorf("create task: %w", result.Error)
		}
		return s.mapper.ToDomain(model)
	default:
		return task.Task{}, fmt.Errorf("lookup task by dedup key: %w", lookup.Error)
	}
}

// SaveBulk saves multiple tasks, each following the same dedup_key
// upsert rule as Save.
func (s TaskStore) SaveBulk(ctx context.Context, tasks []task.Task) ([]task.Task, error) {
	saved := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		st, err := s.Save(ctx, t)
		if err != nil {
			return nil, err
		}
		saved = append(saved, st)
	}
	return saved, nil
}

// Delete removes a task. Deleting a task that no longer exists (e.g.
// already claimed by Dequeue) is not an error.
func (s TaskStore) Delete(ctx context.Context, t task.Task) error {
	if result := s.db.Session(ctx).Delete(&TaskModel{}, "id = ?", t.ID()); result.Error != nil {
		return fmt.Errorf("delete task: %w", result.Error)
	}
	return nil
}

// DeleteAll removes every pending task.
func (s TaskStore) DeleteAll(ctx context.Context) error {
	if result := s.db.Session(ctx).Where("1 = 1").Delete(&TaskModel{}); result.Error != nil {
		return fmt.Errorf("delete all tasks: %w", result.Error)
	}
	return nil
}

// CountPending returns the number of tasks matching the given options.
func (s TaskStore) CountPending(ctx context.Context, options ...repository.Option) (int64, error) {
	var count int64
	db := database.ApplyConditions(s.db.Session(ctx).Model(&TaskModel{}), options...)
	if result := db.Count(&count); result.Error != nil {
		return 0, fmt.Errorf("count pending tasks: %w", result.Error)
	}
	return count, nil
}

// Exists reports whether a task with the given ID exists.
func (s TaskStore) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	result := s.db.Session(ctx).Model(&TaskModel{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("check task exists: %w", result.Error)
	}
	return count > 0, nil
}

// Dequeue atomically claims and removes the highest-priority pending
// task (ties broken by oldest created_at), so concurrent workers never
// observe the same row.
func (s TaskStore) Dequeue(ctx context.Context) (task.Task, bool, error) {
	return s.dequeue(ctx, "")
}

// DequeueByOperation is Dequeue scoped to a single operation.
func (s TaskStore) DequeueByOperation(ctx context.Context, operation task.Operation) (task.Task, bool, error) {
	return s.dequeue(ctx, operation)
}

type dequeueResult struct {
	model TaskModel
	found bool
}

func (s TaskStore) dequeue(ctx context.Context, operation task.Operation) (task.Task, bool, error) {
	result, err := database.WithTransactionResult(ctx, s.db, func(tx *gorm.DB) (dequeueResult, error) {
		var model TaskModel
		q := tx.Model(&TaskModel{}).Order("priority DESC").Order("created_at ASC")
		if operation != "" {
			q = q.Where("type = ?", string(operation))
		}
		findResult := q.First(&model)
		if findResult.Error != nil {
			if errors.Is(findResult.Error, gorm.ErrRecordNotFound) {
				return dequeueResult{}, nil
			}
			return dequeueResult{}, findResult.Error
		}

		if delResult := tx.Delete(&TaskModel{}, "id = ?", model.ID); delResult.Error != nil {
			return dequeueResult{}, delResult.Error
		}
		return dequeueResult{model: model, found: true}, nil
	})
	if err != nil {
		return task.Task{}, false, fmt.Errorf("dequeue task: %w", err)
	}
	if !result.found {
		return task.Task{}, false, nil
	}

	t, err := s.mapper.ToDomain(result.model)
	if err != nil {
		return task.Task{}, false, fmt.Errorf("unmarshal dequeued task: %w", err)
	}
	return t, true, nil
}

func (s TaskStore) toDomainAll(models []TaskModel) ([]task.Task, error) {
	tasks := make([]task.Task, len(models))
	for i, m := range models {
		t, err := s.mapper.ToDomain(m)
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}
