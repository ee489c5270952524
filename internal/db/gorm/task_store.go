package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/namegroup/pkg/models"
)

var (
	// ErrTaskNotFound indicates no grouping task exists for the given ID.
	ErrTaskNotFound = errors.New("grouping task not found")
	// ErrTaskNotPending indicates a completion attempt against a task that
	// has already been processed. The processing guard relies on this to
	// stay idempotent when a task is enqueued twice.
	ErrTaskNotPending = errors.New("grouping task is not pending")
)

// TaskStore provides database operations for grouping tasks.
type TaskStore struct {
	store *Store
}

// NewTaskStore creates a new TaskStore backed by the given Store.
func NewTaskStore(store *Store) *TaskStore {
	return &TaskStore{store: store}
}

// Create persists a new grouping task and fills in its database ID.
func (s *TaskStore) Create(ctx context.Context, task *models.GroupingTask) error {
	row := fromDomain(task)
	if err := s.store.DB.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	task.ID = row.ID
	task.PublicID = row.PublicID
	return nil
}

// GetByPublicID returns the task with the given public identifier.
func (s *TaskStore) GetByPublicID(ctx context.Context, publicID string) (*models.GroupingTask, error) {
	var row GroupingTask
	err := s.store.DB.WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// getByID returns the task with the given database ID.
func (s *TaskStore) getByID(ctx context.Context, id int64) (*models.GroupingTask, error) {
	var row GroupingTask
	err := s.store.DB.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// List returns tasks ordered newest first, up to limit (0 means no limit).
func (s *TaskStore) List(ctx context.Context, limit int) ([]*models.GroupingTask, error) {
	q := s.store.DB.WithContext(ctx).
		Order("created_at_epoch DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []GroupingTask
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	tasks := make([]*models.GroupingTask, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toDomain())
	}
	return tasks, nil
}

// Pending returns unprocessed tasks oldest first, for startup recovery.
func (s *TaskStore) Pending(ctx context.Context) ([]*models.GroupingTask, error) {
	var rows []GroupingTask
	err := s.store.DB.WithContext(ctx).
		Where("status = ? AND completed_at IS NULL", models.TaskStatusPending).
		Order("created_at_epoch ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]*models.GroupingTask, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toDomain())
	}
	return tasks, nil
}

// Claim loads a task for processing, verifying it is still pending.
func (s *TaskStore) Claim(ctx context.Context, id int64) (*models.GroupingTask, error) {
	task, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != models.TaskStatusPending || task.CompletedAt.Valid {
		return nil, ErrTaskNotPending
	}
	return task, nil
}

// Complete stores the grouping result and stamps the completion time. Only a
// still-pending row is updated; completing an already-processed task returns
// ErrTaskNotPending.
func (s *TaskStore) Complete(ctx context.Context, id int64, result models.GroupMap) error {
	now := time.Now()
	res := s.store.DB.WithContext(ctx).
		Model(&GroupingTask{}).
		Where("id = ? AND status = ? AND completed_at IS NULL", id, models.TaskStatusPending).
		Updates(map[string]interface{}{
			"result":             result,
			"status":             string(models.TaskStatusCompleted),
			"completed_at":       now.Format(time.RFC3339),
			"completed_at_epoch": now.UnixMilli(),
			"updated_at":         now.Format(time.RFC3339),
			"updated_at_epoch":   now.UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotPending
	}
	return nil
}

// Fail marks a pending task as failed.
func (s *TaskStore) Fail(ctx context.Context, id int64) error {
	now := time.Now()
	res := s.store.DB.WithContext(ctx).
		Model(&GroupingTask{}).
		Where("id = ? AND status = ? AND completed_at IS NULL", id, models.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":             string(models.TaskStatusFailed),
			"completed_at":       now.Format(time.RFC3339),
			"completed_at_epoch": now.UnixMilli(),
			"updated_at":         now.Format(time.RFC3339),
			"updated_at_epoch":   now.UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotPending
	}
	return nil
}

// SaveResult overwrites the stored result of an already-completed task. Used
// by the move-name operation, which edits the result without re-running the
// grouping.
func (s *TaskStore) SaveResult(ctx context.Context, id int64, result models.GroupMap) error {
	now := time.Now()
	res := s.store.DB.WithContext(ctx).
		Model(&GroupingTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"result":           result,
			"updated_at":       now.Format(time.RFC3339),
			"updated_at_epoch": now.UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}
