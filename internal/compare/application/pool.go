package application

import (
	"context"
	"sync"
	"time"

	"gridstats/internal/observability/metrics"
)

// Task is one independent, slow, I/O-bound fetch unit.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// TaskResult is the per-task outcome. A non-nil Err marks a real failure;
// expected skips (missing remote series) complete with Err == nil.
type TaskResult struct {
	Name string
	Err  error
}

// RunPool executes tasks on a bounded pool of workers and blocks until all
// complete. The degree is independent of CPU count: tasks block on network
// I/O. No task failure aborts the batch and there is no cancellation
// beyond the caller's context; the pool always runs to completion, and
// per-task outcomes are returned for logging.
func RunPool(ctx context.Context, tasks []Task, workers int) []TaskResult {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	results := make([]TaskResult, len(tasks))
	queue := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range queue {
				task := tasks[idx]
				started := time.Now()
				err := task.Run(ctx)
				results[idx] = TaskResult{Name: task.Name, Err: err}
				if err != nil {
					metrics.ObserveFetchTask(metrics.ResultError, time.Since(started))
				} else {
					metrics.ObserveFetchTask(metrics.ResultSuccess, time.Since(started))
				}
			}
		}()
	}
	for idx := range tasks {
		queue <- idx
	}
	close(queue)
	wg.Wait()

	return results
}

// FailedCount tallies real failures in a result set.
func FailedCount(results []TaskResult) int {
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	return failed
}
