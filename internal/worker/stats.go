package worker

import (
	"sync/atomic"
	"time"
)

// TaskStats tracks processing statistics for the grouping service.
type TaskStats struct {
	startTime      time.Time
	tasksCreated   atomic.Int64
	tasksCompleted atomic.Int64
	tasksFailed    atomic.Int64
	movesApplied   atomic.Int64
	namesGrouped   atomic.Int64
	totalLatency   atomic.Int64 // Sum in microseconds
	totalRequests  atomic.Int64
}

// NewTaskStats creates a new stats tracker.
func NewTaskStats() *TaskStats {
	return &TaskStats{startTime: time.Now()}
}

// RecordRequest records an incoming API request.
func (s *TaskStats) RecordRequest() {
	s.totalRequests.Add(1)
}

// RecordCreated records a newly queued task.
func (s *TaskStats) RecordCreated() {
	s.tasksCreated.Add(1)
}

// RecordCompleted records a finished task with its name count and latency.
func (s *TaskStats) RecordCompleted(names int, latency time.Duration) {
	s.tasksCompleted.Add(1)
	s.namesGrouped.Add(int64(names))
	s.totalLatency.Add(latency.Microseconds())
}

// RecordFailed records a failed task.
func (s *TaskStats) RecordFailed() {
	s.tasksFailed.Add(1)
}

// RecordMove records a move-name edit.
func (s *TaskStats) RecordMove() {
	s.movesApplied.Add(1)
}

// StatsSnapshot represents a point-in-time statistics snapshot.
type StatsSnapshot struct {
	TotalRequests  int64         `json:"total_requests"`
	TasksCreated   int64         `json:"tasks_created"`
	TasksCompleted int64         `json:"tasks_completed"`
	TasksFailed    int64         `json:"tasks_failed"`
	MovesApplied   int64         `json:"moves_applied"`
	NamesGrouped   int64         `json:"names_grouped"`
	AvgLatency     time.Duration `json:"avg_latency_us"`
	Uptime         time.Duration `json:"uptime_us"`
}

// GetSnapshot returns the current statistics snapshot.
func (s *TaskStats) GetSnapshot() StatsSnapshot {
	snapshot := StatsSnapshot{
		TotalRequests:  s.totalRequests.Load(),
		TasksCreated:   s.tasksCreated.Load(),
		TasksCompleted: s.tasksCompleted.Load(),
		TasksFailed:    s.tasksFailed.Load(),
		MovesApplied:   s.movesApplied.Load(),
		NamesGrouped:   s.namesGrouped.Load(),
		Uptime:         time.Since(s.startTime),
	}
	if snapshot.TasksCompleted > 0 {
		snapshot.AvgLatency = time.Duration(s.totalLatency.Load()/snapshot.TasksCompleted) * time.Microsecond
	}
	return snapshot
}
