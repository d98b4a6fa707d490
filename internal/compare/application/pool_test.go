package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunPoolFailureDoesNotAbortBatch(t *testing.T) {
	var ran int32
	boom := errors.New("boom")
	tasks := []Task{
		{Name: "a", Run: func(context.Context) error { atomic.AddInt32(&ran, 1); return nil }},
		{Name: "b", Run: func(context.Context) error { atomic.AddInt32(&ran, 1); return boom }},
		{Name: "c", Run: func(context.Context) error { atomic.AddInt32(&ran, 1); return nil }},
	}

	results := RunPool(context.Background(), tasks, 2)
	if ran != 3 {
		t.Fatalf("expected all 3 tasks to run, got %d", ran)
	}
	if FailedCount(results) != 1 {
		t.Fatalf("expected 1 failure, got %d", FailedCount(results))
	}
	if results[1].Name != "b" || !errors.Is(results[1].Err, boom) {
		t.Fatalf("result order lost: %+v", results)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected failures: %+v", results)
	}
}

func TestRunPoolBoundsConcurrency(t *testing.T) {
	const workers = 3
	var mu sync.Mutex
	var inFlight, peak int

	var tasks []Task
	gate := make(chan struct{})
	for i := 0; i < 10; i++ {
		tasks = append(tasks, Task{Run: func(context.Context) error {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			<-gate
			mu.Lock()
			inFlight--
			mu.Unlock()
			return nil
		}})
	}

	done := make(chan []TaskResult)
	go func() { done <- RunPool(context.Background(), tasks, workers) }()
	close(gate)
	results := <-done

	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if peak > workers {
		t.Fatalf("peak in-flight %d exceeded %d workers", peak, workers)
	}
}

func TestRunPoolZeroWorkers(t *testing.T) {
	var ran bool
	results := RunPool(context.Background(), []Task{{Run: func(context.Context) error { ran = true; return nil }}}, 0)
	if !ran || len(results) != 1 {
		t.Fatalf("pool with zero workers did not run the task")
	}
}

func TestRunPoolEmptyTasks(t *testing.T) {
	if results := RunPool(context.Background(), nil, 4); len(results) != 0 {
		t.Fatalf("expected empty results, got %+v", results)
	}
}
