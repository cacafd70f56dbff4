// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides a background task system for asynchronous work.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TASK STATUS
// =============================================================================

// TaskStatus represents the current state of a background task.
type TaskStatus string

const (
	// TaskStatusQueued indicates the task is waiting to be executed
	TaskStatusQueued TaskStatus = "Queued"

	// TaskStatusRunning indicates the task is currently executing
	TaskStatusRunning TaskStatus = "Running"

	// TaskStatusComplete indicates the task finished successfully
	TaskStatusComplete TaskStatus = "Complete"

	// TaskStatusFailed indicates the job returned an error or timed out
	TaskStatusFailed TaskStatus = "Failed"

	// TaskStatusCanceled indicates the task was canceled before finishing
	TaskStatusCanceled TaskStatus = "Canceled"
)

// String returns the string representation of the task status.
func (s TaskStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusComplete || s == TaskStatusFailed || s == TaskStatusCanceled
}

// =============================================================================
// TASK STRUCTURE
// =============================================================================

// Job is the unit of work a task runs. The context carries the task
// timeout and is canceled by Cancel or Runner.Stop.
type Job func(ctx context.Context, task *Task) error

// Task represents a background job and its lifecycle.
type Task struct {
	// ID is a unique identifier for this task
	ID string

	// Kind groups tasks for logging, e.g. "reply" or "preview"
	Kind string

	// Description is a human-readable description of what this task does
	Description string

	// Status is the current state of the task
	Status TaskStatus

	// Timeout overrides the runner's default timeout when non-zero
	Timeout time.Duration

	// StartTime is when the task started running
	StartTime time.Time

	// EndTime is when the task reached a terminal state
	EndTime time.Time

	// Error is the error message if the task failed
	Error string

	// ConversationID is the conversation this task was started for
	ConversationID string

	job    Job
	cancel context.CancelFunc
	done   chan struct{}

	// mu protects concurrent access to the task
	mu sync.RWMutex
}

// =============================================================================
// TASK CREATION
// =============================================================================

// NewTask creates a queued task that runs job.
func NewTask(kind, description string, job Job) *Task {
	return &Task{
		ID:          uuid.NewString(),
		Kind:        kind,
		Description: description,
		Status:      TaskStatusQueued,
		job:         job,
		done:        make(chan struct{}),
	}
}

// =============================================================================
// TASK METHODS
// =============================================================================

// SetStatus updates the task status (thread-safe).
// Valid transitions: Queued -> Running -> Complete/Failed/Canceled, and
// Queued -> Canceled.
func (t *Task) SetStatus(status TaskStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !isValidTransition(t.Status, status) {
		return fmt.Errorf("invalid status transition from %s to %s", t.Status, status)
	}
	t.setStatusLocked(status)
	return nil
}

func isValidTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case TaskStatusQueued:
		return to == TaskStatusRunning || to == TaskStatusCanceled
	case TaskStatusRunning:
		return to.IsTerminal()
	default:
		return false
	}
}

// setStatusLocked applies a status and closes Done on the first terminal
// state. Must be called with the lock held.
func (t *Task) setStatusLocked(status TaskStatus) {
	if t.Status.IsTerminal() {
		return
	}
	t.Status = status
	switch {
	case status == TaskStatusRunning:
		t.StartTime = time.Now()
	case status.IsTerminal():
		t.EndTime = time.Now()
		close(t.done)
	}
}

// GetStatus returns the current task status (thread-safe).
func (t *Task) GetStatus() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Status
}

// Done is closed once the task reaches a terminal state.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// GetError returns the error message (thread-safe).
func (t *Task) GetError() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.Error
}

// markStarted moves a queued task to running. It reports false if the
// task was canceled while waiting.
func (t *Task) markStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Status != TaskStatusQueued {
		return false
	}
	t.setStatusLocked(TaskStatusRunning)
	return true
}

func (t *Task) markComplete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setStatusLocked(TaskStatusComplete)
}

func (t *Task) markFailed(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.Status.IsTerminal() && err != nil {
		t.Error = err.Error()
	}
	t.setStatusLocked(TaskStatusFailed)
}

func (t *Task) markCanceled() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setStatusLocked(TaskStatusCanceled)
}

// setCancelFunc stores the context cancel function for a running task.
// A task canceled before its context existed is canceled immediately.
func (t *Task) setCancelFunc(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
	if t.Status.IsTerminal() {
		cancel()
	}
}

// Cancel cancels the task if it has not finished.
// Returns true if the task was canceled.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Status.IsTerminal() {
		return false
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.setStatusLocked(TaskStatusCanceled)
	return true
}

// Duration returns how long the task has been running or took to complete.
func (t *Task) Duration() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.StartTime.IsZero() {
		return 0
	}
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// IsComplete returns true if the task has finished (success, failure, or canceled).
func (t *Task) IsComplete() bool {
	return t.GetStatus().IsTerminal()
}

// Clone creates a copy of the task for reading. The clone cannot be run.
func (t *Task) Clone() *Task {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return &Task{
		ID:             t.ID,
		Kind:           t.Kind,
		Description:    t.Description,
		Status:         t.Status,
		Timeout:        t.Timeout,
		StartTime:      t.StartTime,
		EndTime:        t.EndTime,
		Error:          t.Error,
		ConversationID: t.ConversationID,
		done:           t.done,
	}
}
