package gorm

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebtf/namegroup/pkg/models"
)

// GroupingTask is the persistence model for a grouping request. The input
// names and the grouping result are stored as JSON TEXT columns via the
// Scanner/Valuer types in pkg/models.
type GroupingTask struct {
	ID               int64                  `gorm:"primaryKey;autoIncrement"`
	PublicID         string                 `gorm:"uniqueIndex;not null"`
	Names            models.JSONStringArray `gorm:"type:text;not null"`
	WordDelimiter    string                 `gorm:"type:text;not null;default:'_'"`
	Result           models.GroupMap        `gorm:"type:text;not null"`
	Status           string                 `gorm:"type:text;check:status IN ('pending', 'completed', 'failed');default:'pending';index"`
	CreatedAt        string                 `gorm:"not null"`
	CreatedAtEpoch   int64                  `gorm:"index:idx_grouping_tasks_created,sort:desc;not null"`
	CompletedAt      sql.NullString
	CompletedAtEpoch sql.NullInt64
	UpdatedAt        string `gorm:"not null"`
	UpdatedAtEpoch   int64  `gorm:"not null"`
}

func (GroupingTask) TableName() string { return "grouping_tasks" }

// BeforeCreate hook to ensure identifiers, timestamps and defaults are set.
func (t *GroupingTask) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if t.PublicID == "" {
		t.PublicID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = string(models.TaskStatusPending)
	}
	if t.CreatedAtEpoch == 0 {
		t.CreatedAtEpoch = now.UnixMilli()
	}
	if t.CreatedAt == "" {
		t.CreatedAt = now.Format(time.RFC3339)
	}
	if t.UpdatedAtEpoch == 0 {
		t.UpdatedAtEpoch = now.UnixMilli()
	}
	if t.UpdatedAt == "" {
		t.UpdatedAt = now.Format(time.RFC3339)
	}
	return nil
}

// toDomain converts the persistence model to the domain model.
func (t *GroupingTask) toDomain() *models.GroupingTask {
	return &models.GroupingTask{
		ID:               t.ID,
		PublicID:         t.PublicID,
		Names:            t.Names,
		WordDelimiter:    t.WordDelimiter,
		Result:           t.Result,
		Status:           models.TaskStatus(t.Status),
		CreatedAt:        t.CreatedAt,
		CreatedAtEpoch:   t.CreatedAtEpoch,
		CompletedAt:      t.CompletedAt,
		CompletedAtEpoch: t.CompletedAtEpoch,
		UpdatedAt:        t.UpdatedAt,
		UpdatedAtEpoch:   t.UpdatedAtEpoch,
	}
}

// fromDomain converts a domain task to the persistence model.
func fromDomain(task *models.GroupingTask) *GroupingTask {
	return &GroupingTask{
		ID:               task.ID,
		PublicID:         task.PublicID,
		Names:            task.Names,
		WordDelimiter:    task.WordDelimiter,
		Result:           task.Result,
		Status:           string(task.Status),
		CreatedAt:        task.CreatedAt,
		CreatedAtEpoch:   task.CreatedAtEpoch,
		CompletedAt:      task.CompletedAt,
		CompletedAtEpoch: task.CompletedAtEpoch,
		UpdatedAt:        task.UpdatedAt,
		UpdatedAtEpoch:   task.UpdatedAtEpoch,
	}
}
