package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	gormdb "github.com/thebtf/namegroup/internal/db/gorm"
	"github.com/thebtf/namegroup/internal/worker/sse"
	"github.com/thebtf/namegroup/pkg/models"
	"github.com/thebtf/namegroup/pkg/wordtrie"
)

// Processor consumes queued grouping tasks and runs the trie grouping
// algorithm on a pool of workers.
type Processor struct {
	taskStore   *gormdb.TaskStore
	broadcaster *sse.Broadcaster
	stats       *TaskStats
	queue       chan int64
	workers     int
}

// NewProcessor creates a task processor with the given queue size and
// worker count.
func NewProcessor(taskStore *gormdb.TaskStore, broadcaster *sse.Broadcaster, stats *TaskStats, queueSize, workers int) *Processor {
	if queueSize < 1 {
		queueSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		taskStore:   taskStore,
		broadcaster: broadcaster,
		stats:       stats,
		queue:       make(chan int64, queueSize),
		workers:     workers,
	}
}

// Enqueue queues a task for processing. Returns an error when the queue
// is full rather than blocking the HTTP handler.
func (p *Processor) Enqueue(id int64) error {
	select {
	case p.queue <- id:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Run starts the worker pool and blocks until ctx is cancelled. Pending
// tasks left over from a previous run are re-queued before workers start.
func (p *Processor) Run(ctx context.Context) error {
	if err := p.recoverPending(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to recover pending tasks")
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		workerID := i
		g.Go(func() error {
			return p.runWorker(ctx, workerID)
		})
	}
	return g.Wait()
}

// recoverPending re-queues tasks that were still pending at shutdown,
// oldest first.
func (p *Processor) recoverPending(ctx context.Context) error {
	pending, err := p.taskStore.Pending(ctx)
	if err != nil {
		return err
	}
	for _, task := range pending {
		if err := p.Enqueue(task.ID); err != nil {
			return fmt.Errorf("re-queue task %s: %w", task.PublicID, err)
		}
	}
	if len(pending) > 0 {
		log.Info().Int("count", len(pending)).Msg("Recovered pending tasks")
	}
	return nil
}

func (p *Processor) runWorker(ctx context.Context, workerID int) error {
	log.Debug().Int("worker", workerID).Msg("Task worker started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Int("worker", workerID).Msg("Task worker stopping")
			return ctx.Err()
		case id := <-p.queue:
			p.process(ctx, id)
		}
	}
}

// process runs the grouping algorithm for a single task and persists the
// outcome. A task already completed by a previous run is skipped.
func (p *Processor) process(ctx context.Context, id int64) {
	start := time.Now()

	task, err := p.taskStore.Claim(ctx, id)
	if err != nil {
		if errors.Is(err, gormdb.ErrTaskNotPending) {
			log.Debug().Int64("taskId", id).Msg("Skipping already-processed task")
			return
		}
		log.Error().Err(err).Int64("taskId", id).Msg("Failed to claim task")
		return
	}

	groups, err := wordtrie.GroupNames(task.Names, task.WordDelimiter)
	if err != nil {
		p.fail(ctx, task, err)
		return
	}

	if err := p.taskStore.Complete(ctx, id, models.GroupMap(groups)); err != nil {
		if errors.Is(err, gormdb.ErrTaskNotPending) {
			return
		}
		log.Error().Err(err).Str("publicId", task.PublicID).Msg("Failed to store task result")
		return
	}

	p.stats.RecordCompleted(len(task.Names), time.Since(start))
	p.broadcaster.Broadcast(sse.TaskEvent{
		Type:   sse.EventTaskCompleted,
		TaskID: task.PublicID,
		Status: string(models.TaskStatusCompleted),
		Groups: len(groups),
	})

	log.Info().
		Str("publicId", task.PublicID).
		Int("names", len(task.Names)).
		Int("groups", len(groups)).
		Dur("took", time.Since(start)).
		Msg("Grouping task completed")
}

func (p *Processor) fail(ctx context.Context, task *models.GroupingTask, cause error) {
	log.Error().Err(cause).Str("publicId", task.PublicID).Msg("Grouping task failed")

	if err := p.taskStore.Fail(ctx, task.ID); err != nil && !errors.Is(err, gormdb.ErrTaskNotPending) {
		log.Error().Err(err).Str("publicId", task.PublicID).Msg("Failed to mark task as failed")
		return
	}

	p.stats.RecordFailed()
	p.broadcaster.Broadcast(sse.TaskEvent{
		Type:   sse.EventTaskFailed,
		TaskID: task.PublicID,
		Status: string(models.TaskStatusFailed),
	})
}
