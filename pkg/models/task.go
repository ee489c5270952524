package models

import (
	"database/sql"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// TaskStatus represents the processing status of a grouping task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// GroupingTask represents one accepted grouping request: the validated input
// names plus delimiter, and the grouping result once the task has been
// processed.
type GroupingTask struct {
	ID               int64           `db:"id"`
	PublicID         string          `db:"public_id"`
	Names            JSONStringArray `db:"names"`
	WordDelimiter    string          `db:"word_delimiter"`
	Result           GroupMap        `db:"result"`
	Status           TaskStatus      `db:"status"`
	CreatedAt        string          `db:"created_at"`
	CreatedAtEpoch   int64           `db:"created_at_epoch"`
	CompletedAt      sql.NullString  `db:"completed_at"`
	CompletedAtEpoch sql.NullInt64   `db:"completed_at_epoch"`
	UpdatedAt        string          `db:"updated_at"`
	UpdatedAtEpoch   int64           `db:"updated_at_epoch"`
}

// NewGroupingTask creates a pending grouping task for the given input.
func NewGroupingTask(names []string, wordDelimiter string) *GroupingTask {
	now := time.Now()
	return &GroupingTask{
		PublicID:       uuid.NewString(),
		Names:          JSONStringArray(names),
		WordDelimiter:  wordDelimiter,
		Result:         GroupMap{},
		Status:         TaskStatusPending,
		CreatedAt:      now.Format(time.RFC3339),
		CreatedAtEpoch: now.UnixMilli(),
		UpdatedAt:      now.Format(time.RFC3339),
		UpdatedAtEpoch: now.UnixMilli(),
	}
}

// GroupingTaskJSON is a JSON-friendly representation of GroupingTask. It
// flattens sql.Null* fields for clean JSON output; the input names are
// deliberately excluded from responses.
type GroupingTaskJSON struct {
	ID             string     `json:"id"`
	Result         GroupMap   `json:"result"`
	Status         TaskStatus `json:"status"`
	CreatedAt      string     `json:"created_at"`
	CreatedAtEpoch int64      `json:"created_at_epoch"`
	CompletedAt    string     `json:"completed_at,omitempty"`
	UpdatedAt      string     `json:"updated_at"`
}

// JSON returns the JSON-friendly representation of the task.
func (t *GroupingTask) JSON() GroupingTaskJSON {
	j := GroupingTaskJSON{
		ID:             t.PublicID,
		Result:         t.Result,
		Status:         t.Status,
		CreatedAt:      t.CreatedAt,
		CreatedAtEpoch: t.CreatedAtEpoch,
		UpdatedAt:      t.UpdatedAt,
	}
	if t.CompletedAt.Valid {
		j.CompletedAt = t.CompletedAt.String
	}
	return j
}

// MarshalJSON implements json.Marshaler for GroupingTask.
func (t *GroupingTask) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.JSON())
}
