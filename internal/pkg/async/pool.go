// Package async runs independent read tasks concurrently on a bounded pool.
package async

import (
	"context"
	"fmt"
	"sync"
)

// Task is one named unit of work.
type Task struct {
	Name    string
	Execute func(ctx context.Context) (interface{}, error)
}

// Result carries a task's output, keyed by the task name.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool runs tasks on a fixed number of workers.
type Pool struct {
	workerCount int
}

// NewPool returns a pool with workerCount workers (at least one).
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case task, ok := <-tasks:
			if !ok {
				return
			}
			results <- run(ctx, task)
		case <-ctx.Done():
			return
		}
	}
}

// run executes a task and turns a panic into an error result.
func run(ctx context.Context, task Task) (result Result) {
	result.Name = task.Name
	defer func() {
		if r := recover(); r != nil {
			result.Data = nil
			result.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	result.Data, result.Err = task.Execute(ctx)
	return result
}

// Execute runs tasks and returns the results gathered before ctx is done.
// Each call uses its own channels so a Pool can be reused.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	taskCh := make(chan Task)
	resultCh := make(chan Result, len(tasks))
	results := make(map[string]Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, taskCh, resultCh, &wg)
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-resultCh:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	return results
}
