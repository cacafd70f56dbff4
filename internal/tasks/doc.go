// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks provides a background task system for asynchronous work.
//
// Reply generation, attachment previews and clipboard writes all run as
// tasks so that the interactive loop never blocks on them.
//
// # Key Types
//
//   - Task: a job with status, timeout and a Done channel
//   - Queue: thread-safe task list with bounded history
//   - Runner: executes queued tasks with bounded concurrency
//   - Job: the function a task runs
//
// # Usage
//
//	queue := tasks.NewQueue(50)
//	runner := tasks.NewRunnerWithOptions(queue, tasks.RunnerOptions{MaxConcurrent: 4})
//	runner.Start()
//	defer runner.Stop()
//
//	task, _ := runner.Submit("preview", "Decode image", func(ctx context.Context, t *tasks.Task) error {
//	    return buildPreview(ctx)
//	})
//	<-task.Done()
package tasks
