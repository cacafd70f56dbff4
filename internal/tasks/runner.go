// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// pollInterval bounds how long a queued task can wait if a wake signal is
// coalesced away.
const pollInterval = 100 * time.Millisecond

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner executes background tasks from a queue.
type Runner struct {
	queue       *Queue
	logger      *slog.Logger
	wg          sync.WaitGroup
	stop        chan struct{}
	loopDone    chan struct{}
	stopOnce    sync.Once
	started     atomic.Bool
	stopped     atomic.Bool   // prevents new tasks after Stop() is called
	semaphore   chan struct{} // limits concurrency
	taskTimeout time.Duration // default timeout for each task (0 = no timeout)
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// MaxConcurrent is the maximum number of tasks running at once (default: 5)
	MaxConcurrent int

	// TaskTimeout applies to tasks without their own Timeout (0 = none)
	TaskTimeout time.Duration

	// Logger receives task lifecycle events (nil = slog.Default())
	Logger *slog.Logger
}

// NewRunnerWithOptions creates a new task runner with custom settings.
func NewRunnerWithOptions(queue *Queue, opts RunnerOptions) *Runner {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		queue:       queue,
		logger:      opts.Logger,
		stop:        make(chan struct{}),
		loopDone:    make(chan struct{}),
		semaphore:   make(chan struct{}, opts.MaxConcurrent),
		taskTimeout: opts.TaskTimeout,
	}
}

// =============================================================================
// RUNNER LIFECYCLE
// =============================================================================

// Start begins processing tasks from the queue. Calling Start more than
// once has no effect.
func (r *Runner) Start() {
	if r.started.Swap(true) {
		return
	}
	go r.processLoop()
}

// Stop stops the runner. Tasks that have not started are canceled; running
// tasks have their context canceled and Stop waits for them to return.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
		if r.started.Load() {
			<-r.loopDone
		}

		for _, task := range r.queue.Running() {
			r.queue.Cancel(task.ID)
		}
		if n := r.queue.cancelQueued(); n > 0 {
			r.logger.Debug("canceled queued tasks on stop", "count", n)
		}
		r.wg.Wait()
	})
}

// Submit creates a task for job, queues it and returns it.
func (r *Runner) Submit(kind, description string, job Job) (*Task, error) {
	if r.stopped.Load() {
		return nil, errors.New("runner is stopped")
	}
	task := NewTask(kind, description, job)
	if err := r.queue.Add(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Queue returns the runner's queue.
func (r *Runner) Queue() *Queue {
	return r.queue
}

// =============================================================================
// TASK PROCESSING
// =============================================================================

// processLoop dispatches queued tasks whenever work or capacity appears.
func (r *Runner) processLoop() {
	defer close(r.loopDone)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		r.dispatch()
		select {
		case <-r.stop:
			return
		case <-r.queue.wake:
		case <-ticker.C:
		}
	}
}

// dispatch starts queued tasks until the queue is empty or the runner is
// at capacity.
func (r *Runner) dispatch() {
	for !r.stopped.Load() {
		select {
		case r.semaphore <- struct{}{}:
		default:
			return
		}

		task := r.queue.claim()
		if task == nil {
			<-r.semaphore
			return
		}
		r.wg.Add(1)
		go r.executeTask(task)
	}
}

// executeTask runs one claimed task to completion.
func (r *Runner) executeTask(task *Task) {
	defer r.wg.Done()
	defer r.queue.signal()
	defer func() { <-r.semaphore }()

	timeout := task.Timeout
	if timeout <= 0 {
		timeout = r.taskTimeout
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	task.setCancelFunc(cancel)
	defer cancel()

	err := runJob(ctx, task)

	switch {
	case err == nil:
		task.markComplete()
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		task.markFailed(fmt.Errorf("task timeout after %v: %w", timeout, err))
	case errors.Is(ctx.Err(), context.Canceled):
		task.markCanceled()
	default:
		task.markFailed(err)
	}

	r.queue.finish(task)
	r.logger.Debug("task finished",
		"task", task.ID, "kind", task.Kind, "status", task.GetStatus(), "duration", task.Duration())
}

// runJob calls the task's job, converting a panic into an error.
func runJob(ctx context.Context, task *Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	if task.job == nil {
		return errors.New("task has no job")
	}
	return task.job(ctx, task)
}
