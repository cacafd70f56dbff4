// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"sync"
)

// =============================================================================
// TASK QUEUE
// =============================================================================

// Queue manages background tasks with thread-safe operations.
type Queue struct {
	// tasks is the list of all tasks (both queued and completed)
	tasks []*Task

	// running tracks currently running tasks by ID
	running map[string]*Task

	// maxHistory is the maximum number of completed tasks to keep
	maxHistory int

	// maxQueueSize is the maximum number of queued tasks allowed (0 = unlimited)
	maxQueueSize int

	mu sync.RWMutex

	// wake signals the runner that work may be available
	wake chan struct{}
}

// =============================================================================
// QUEUE CREATION
// =============================================================================

// NewQueue creates a new task queue.
// maxHistory sets the maximum number of completed tasks to keep (0 = unlimited).
func NewQueue(maxHistory int) *Queue {
	return NewQueueWithOptions(maxHistory, 0)
}

// NewQueueWithOptions creates a new task queue with custom settings.
// maxQueueSize: maximum number of queued tasks allowed (0 = unlimited)
func NewQueueWithOptions(maxHistory, maxQueueSize int) *Queue {
	return &Queue{
		tasks:        make([]*Task, 0),
		running:      make(map[string]*Task),
		maxHistory:   maxHistory,
		maxQueueSize: maxQueueSize,
		wake:         make(chan struct{}, 1),
	}
}

// =============================================================================
// TASK MANAGEMENT
// =============================================================================

// Add adds a queued task.
// Returns an error if the queue has reached its maximum size.
func (q *Queue) Add(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if task.GetStatus() != TaskStatusQueued {
		return fmt.Errorf("task %s is %s, not queued", task.ID, task.GetStatus())
	}
	if q.maxQueueSize > 0 {
		if queued := q.countLocked(TaskStatusQueued); queued >= q.maxQueueSize {
			return fmt.Errorf("queue is full: %d queued tasks (max: %d)", queued, q.maxQueueSize)
		}
	}

	q.tasks = append(q.tasks, task)
	q.signal()
	return nil
}

// Get retrieves a copy of a task by ID.
// Returns nil if the task is not found.
func (q *Queue) Get(id string) *Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, task := range q.tasks {
		if task.ID == id {
			return task.Clone()
		}
	}
	return nil
}

// Cancel cancels a queued or running task by ID.
// Returns true if the task was successfully canceled.
func (q *Queue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.tasks {
		if task.ID != id {
			continue
		}
		if !task.Cancel() {
			return false
		}
		if _, ok := q.running[id]; !ok {
			// Never started; the runner will not report it.
			q.finishLocked(task)
		}
		return true
	}
	return false
}

// claim takes the oldest queued task and marks it running. Returns nil
// when nothing is queued.
func (q *Queue) claim() *Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, task := range q.tasks {
		if task.markStarted() {
			q.running[task.ID] = task
			return task
		}
	}
	return nil
}

// finish records a terminal task and trims history.
func (q *Queue) finish(task *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.finishLocked(task)
}

func (q *Queue) finishLocked(task *Task) {
	delete(q.running, task.ID)
	q.cleanupLocked()
}

// cancelQueued cancels every task that has not started.
func (q *Queue) cancelQueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, task := range q.tasks {
		if task.GetStatus() == TaskStatusQueued && task.Cancel() {
			q.finishLocked(task)
			n++
		}
	}
	return n
}

// signal wakes the runner without blocking.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// =============================================================================
// QUEUE QUERIES
// =============================================================================

// Running returns a copy of all running tasks.
func (q *Queue) Running() []*Task {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]*Task, 0, len(q.running))
	for _, task := range q.running {
		result = append(result, task.Clone())
	}
	return result
}

// Count returns the total number of tasks.
func (q *Queue) Count() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// QueuedCount returns the number of tasks waiting to start.
func (q *Queue) QueuedCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.countLocked(TaskStatusQueued)
}

// RunningCount returns the number of running tasks.
func (q *Queue) RunningCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.running)
}

func (q *Queue) countLocked(status TaskStatus) int {
	n := 0
	for _, task := range q.tasks {
		if task.GetStatus() == status {
			n++
		}
	}
	return n
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked removes the oldest completed tasks beyond maxHistory.
// Must be called with lock held.
func (q *Queue) cleanupLocked() {
	if q.maxHistory <= 0 {
		return
	}

	completed := 0
	for _, task := range q.tasks {
		if task.IsComplete() {
			completed++
		}
	}
	if completed <= q.maxHistory {
		return
	}

	toRemove := completed - q.maxHistory
	kept := make([]*Task, 0, len(q.tasks)-toRemove)
	for _, task := range q.tasks {
		if task.IsComplete() && toRemove > 0 {
			toRemove--
			continue
		}
		kept = append(kept, task)
	}
	q.tasks = kept
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of the queue.
func (q *Queue) Summary() string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return fmt.Sprintf("Running: %d | Queued: %d | Completed: %d | Failed: %d",
		len(q.running),
		q.countLocked(TaskStatusQueued),
		q.countLocked(TaskStatusComplete),
		q.countLocked(TaskStatusFailed))
}
