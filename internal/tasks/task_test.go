// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func noop(context.Context, *Task) error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRunner(maxConcurrent int, timeout time.Duration) *Runner {
	q := NewQueueWithOptions(0, 0)
	r := NewRunnerWithOptions(q, RunnerOptions{
		MaxConcurrent: maxConcurrent,
		TaskTimeout:   timeout,
		Logger:        discardLogger(),
	})
	r.Start()
	return r
}

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("task %s did not finish (status %s)", task.ID, task.GetStatus())
	}
}

// =============================================================================
// TASK TESTS
// =============================================================================

func TestNewTask(t *testing.T) {
	task := NewTask("preview", "Build preview", noop)

	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}
	if task.Kind != "preview" || task.Description != "Build preview" {
		t.Errorf("unexpected task fields: %+v", task)
	}
	if task.GetStatus() != TaskStatusQueued {
		t.Errorf("Expected status Queued, got %s", task.GetStatus())
	}
}

func TestTaskTransitions(t *testing.T) {
	task := NewTask("test", "Test", noop)

	if err := task.SetStatus(TaskStatusComplete); err == nil {
		t.Error("Queued -> Complete should be rejected")
	}
	if err := task.SetStatus(TaskStatusRunning); err != nil {
		t.Fatalf("Queued -> Running: %v", err)
	}
	if err := task.SetStatus(TaskStatusComplete); err != nil {
		t.Fatalf("Running -> Complete: %v", err)
	}
	if err := task.SetStatus(TaskStatusRunning); err == nil {
		t.Error("terminal states must not transition")
	}

	select {
	case <-task.Done():
	default:
		t.Error("Done should be closed after a terminal status")
	}
	if task.Duration() < 0 {
		t.Error("Task duration should not be negative")
	}
}

func TestTaskCancel(t *testing.T) {
	task := NewTask("test", "Test", noop)
	task.markStarted()

	if !task.Cancel() {
		t.Error("Cancel should succeed for running task")
	}
	if task.GetStatus() != TaskStatusCanceled {
		t.Error("Task should be canceled")
	}
	if task.Cancel() {
		t.Error("Second cancel should fail")
	}
}

// =============================================================================
// QUEUE TESTS
// =============================================================================

func TestQueueOperations(t *testing.T) {
	queue := NewQueue(10)

	task1 := NewTask("test", "Task 1", noop)
	task2 := NewTask("test", "Task 2", noop)
	if err := queue.Add(task1); err != nil {
		t.Fatal(err)
	}
	if err := queue.Add(task2); err != nil {
		t.Fatal(err)
	}

	if queue.Count() != 2 || queue.QueuedCount() != 2 {
		t.Errorf("Count=%d Queued=%d, want 2/2", queue.Count(), queue.QueuedCount())
	}

	retrieved := queue.Get(task1.ID)
	if retrieved == nil || retrieved.Description != "Task 1" {
		t.Fatalf("Get returned %+v", retrieved)
	}
	if queue.Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}

	claimed := queue.claim()
	if claimed != task1 {
		t.Error("claim should return the oldest queued task")
	}
	if queue.RunningCount() != 1 || queue.QueuedCount() != 1 {
		t.Errorf("Running=%d Queued=%d after claim", queue.RunningCount(), queue.QueuedCount())
	}
}

func TestQueueMaxSize(t *testing.T) {
	queue := NewQueueWithOptions(0, 1)
	if err := queue.Add(NewTask("t", "one", noop)); err != nil {
		t.Fatal(err)
	}
	if err := queue.Add(NewTask("t", "two", noop)); err == nil {
		t.Error("Add beyond maxQueueSize should fail")
	}
}

func TestQueueCancelQueued(t *testing.T) {
	queue := NewQueue(10)
	task := NewTask("t", "waiting", noop)
	_ = queue.Add(task)

	if !queue.Cancel(task.ID) {
		t.Fatal("Cancel should succeed for queued task")
	}
	if queue.claim() != nil {
		t.Error("canceled task must not be claimed")
	}

	if got := queue.Get(task.ID); got == nil || got.Status != TaskStatusCanceled {
		t.Errorf("canceled task = %+v", got)
	}
}

func TestQueueHistoryLimit(t *testing.T) {
	queue := NewQueue(2)
	for i := 0; i < 4; i++ {
		task := NewTask("t", "done", noop)
		_ = queue.Add(task)
		queue.claim()
		task.markComplete()
		queue.finish(task)
	}
	if queue.Count() != 2 {
		t.Errorf("Count = %d, want history trimmed to 2", queue.Count())
	}
	if s := queue.Summary(); s != "Running: 0 | Queued: 0 | Completed: 2 | Failed: 0" {
		t.Errorf("Summary = %q", s)
	}
}

// =============================================================================
// RUNNER TESTS
// =============================================================================

func TestRunnerRunsJobs(t *testing.T) {
	r := newTestRunner(2, 0)
	defer r.Stop()

	var ran atomic.Int32
	var submitted []*Task
	for i := 0; i < 5; i++ {
		task, err := r.Submit("test", "count", func(ctx context.Context, task *Task) error {
			ran.Add(1)
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		submitted = append(submitted, task)
	}
	for _, task := range submitted {
		waitDone(t, task)
		if task.GetStatus() != TaskStatusComplete {
			t.Errorf("task %s: status %s", task.ID, task.GetStatus())
		}
	}
	if ran.Load() != 5 {
		t.Errorf("ran %d jobs, want 5", ran.Load())
	}
}

func TestRunnerConcurrencyLimit(t *testing.T) {
	r := newTestRunner(2, 0)
	defer r.Stop()

	var current, peak atomic.Int32
	release := make(chan struct{})
	var submitted []*Task
	for i := 0; i < 6; i++ {
		task, _ := r.Submit("test", "block", func(ctx context.Context, task *Task) error {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			current.Add(-1)
			return nil
		})
		submitted = append(submitted, task)
	}

	time.Sleep(150 * time.Millisecond)
	close(release)
	for _, task := range submitted {
		waitDone(t, task)
	}
	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
	}
}

func TestRunnerFailureAndPanic(t *testing.T) {
	r := newTestRunner(1, 0)
	defer r.Stop()

	failing, _ := r.Submit("test", "fail", func(context.Context, *Task) error {
		return errors.New("boom")
	})
	panicking, _ := r.Submit("test", "panic", func(context.Context, *Task) error {
		panic("kaboom")
	})

	waitDone(t, failing)
	waitDone(t, panicking)

	if failing.GetStatus() != TaskStatusFailed || failing.GetError() != "boom" {
		t.Errorf("failing: %s %q", failing.GetStatus(), failing.GetError())
	}
	if panicking.GetStatus() != TaskStatusFailed || !strings.Contains(panicking.GetError(), "kaboom") {
		t.Errorf("panicking: %s %q", panicking.GetStatus(), panicking.GetError())
	}
}

func TestRunnerTimeout(t *testing.T) {
	r := newTestRunner(1, time.Hour)
	defer r.Stop()

	task := NewTask("test", "slow", func(ctx context.Context, _ *Task) error {
		<-ctx.Done()
		return ctx.Err()
	})
	task.Timeout = 20 * time.Millisecond
	if err := r.Queue().Add(task); err != nil {
		t.Fatal(err)
	}

	waitDone(t, task)
	if task.GetStatus() != TaskStatusFailed || !strings.Contains(task.GetError(), "timeout") {
		t.Errorf("status %s error %q", task.GetStatus(), task.GetError())
	}
}

func TestRunnerStopCancelsWork(t *testing.T) {
	r := newTestRunner(1, 0)

	started := make(chan struct{})
	running, _ := r.Submit("test", "long", func(ctx context.Context, _ *Task) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	queued, _ := r.Submit("test", "never", noop)

	<-started
	r.Stop()

	if running.GetStatus() != TaskStatusCanceled {
		t.Errorf("running task status = %s, want Canceled", running.GetStatus())
	}
	if queued.GetStatus() != TaskStatusCanceled {
		t.Errorf("queued task status = %s, want Canceled", queued.GetStatus())
	}
	if _, err := r.Submit("test", "late", noop); err == nil {
		t.Error("Submit after Stop should fail")
	}
	r.Stop()
}

func TestRunnerLongSessionLogsNoWarnings(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r := NewRunnerWithOptions(NewQueueWithOptions(50, 0), RunnerOptions{MaxConcurrent: 4, Logger: logger})
	r.Start()
	defer r.Stop()

	var submitted []*Task
	for i := 0; i < 250; i++ {
		task, err := r.Submit("reply", "reply", noop)
		if err != nil {
			t.Fatal(err)
		}
		submitted = append(submitted, task)
	}
	for _, task := range submitted {
		waitDone(t, task)
	}
	if logs.Len() != 0 {
		t.Errorf("unexpected warnings after 250 tasks:\n%s", logs.String())
	}
	// Done closes before the queue records the finish.
	deadline := time.Now().Add(5 * time.Second)
	for r.Queue().RunningCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if s := r.Queue().Summary(); s != "Running: 0 | Queued: 0 | Completed: 50 | Failed: 0" {
		t.Errorf("Summary = %q", s)
	}
}
