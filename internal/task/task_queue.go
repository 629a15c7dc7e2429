package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Errors returned by TaskQueue.Enqueue.
var (
	ErrQueueClosed   = errors.New("task queue is closed")
	ErrQueueFull     = errors.New("task queue is full")
	ErrAlreadyQueued = errors.New("task already queued")
)

// Keyed is implemented by tasks that must not be queued twice. While a task
// with a given key is queued or running, another task with the same key is
// rejected with ErrAlreadyQueued.
type Keyed interface {
	Key() string
}

// TaskQueue is a bounded FIFO of tasks consumed by a WorkerPool. It
// implements TaskQueueReader and TaskQueueWriter.
type TaskQueue struct {
	mu      sync.Mutex
	tasks   chan Task
	pending map[string]struct{}
	closed  bool
	logger  *slog.Logger
}

// NewTaskQueue creates a queue holding at most size tasks.
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskQueue{
		tasks:   make(chan Task, size),
		pending: make(map[string]struct{}),
		logger:  logger.With(slog.String("component", "task_queue")),
	}
}

// Enqueue adds task without blocking. It fails with ErrQueueClosed after
// Close, with ErrQueueFull at capacity and with ErrAlreadyQueued for a
// Keyed task whose key is still pending.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	key, keyed := taskKey(task)
	if keyed {
		if _, dup := q.pending[key]; dup {
			return fmt.Errorf("%w: %s", ErrAlreadyQueued, key)
		}
	}

	select {
	case q.tasks <- task:
	default:
		return fmt.Errorf("%w: %s task rejected at capacity %d", ErrQueueFull, task.Type(), cap(q.tasks))
	}
	if keyed {
		q.pending[key] = struct{}{}
	}

	q.logger.Debug("task enqueued",
		slog.String("task_id", task.ID().String()),
		slog.String("task_type", task.Type()),
		slog.Int("queue_len", len(q.tasks)))
	return nil
}

// Release forgets the key of a finished task so it can be queued again.
// The worker pool calls it after every task it runs.
func (q *TaskQueue) Release(task Task) {
	key, ok := taskKey(task)
	if !ok {
		return
	}
	q.mu.Lock()
	delete(q.pending, key)
	q.mu.Unlock()
}

// Len returns the number of queued tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// Close stops accepting tasks. Queued tasks remain readable. Closing twice
// is a no-op.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.tasks)
	q.logger.Info("task queue closed", slog.Int("abandoned", len(q.tasks)))
}

// GetChannel returns the channel workers consume.
func (q *TaskQueue) GetChannel() <-chan Task {
	return q.tasks
}

func taskKey(task Task) (string, bool) {
	k, ok := task.(Keyed)
	if !ok {
		return "", false
	}
	return k.Key(), true
}
