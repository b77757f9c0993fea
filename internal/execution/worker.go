package execution

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"simrun/internal/config"
	"simrun/internal/domain"
	"simrun/internal/results"
)

// TestRunner runs one test to completion
type TestRunner interface {
	Run(ctx context.Context, test string, spec domain.TestSpec, defines []string) domain.RunResult
}

// WorkerPool executes selected tests, sequentially by default or with up
// to config.Jobs tests in flight. A failing test never stops the batch.
type WorkerPool struct {
	config    *config.Config
	runner    TestRunner
	specs     SpecSource
	progress  ProgressReporter
	observers []Observer
	log       *zap.Logger
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner TestRunner, specs SpecSource, log *zap.Logger) *WorkerPool {
	return &WorkerPool{
		config: cfg,
		runner: runner,
		specs:  specs,
		log:    log,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress ProgressReporter) {
	wp.progress = progress
}

// AddObserver registers o to be told about every finished test
func (wp *WorkerPool) AddObserver(o Observer) {
	wp.observers = append(wp.observers, o)
}

// Execute runs tests in selection order and returns their results
func (wp *WorkerPool) Execute(ctx context.Context, tests []string, defines []string) (*results.Set, time.Duration, error) {
	set := results.New(tests)
	if len(tests) == 0 {
		return set, 0, nil
	}

	testQueue := make(chan string, len(tests))
	for _, test := range tests {
		testQueue <- test
	}
	close(testQueue)

	var mu sync.Mutex
	var passed, failed int
	startTime := time.Now()
	workerCount := wp.config.Jobs
	if workerCount <= 0 {
		workerCount = 1
	}
	if workerCount > len(tests) {
		workerCount = len(tests)
	}

	var wg sync.WaitGroup
	for i := 1; i <= workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for test := range testQueue {
				result := wp.runOne(ctx, test, defines)
				set.Record(result)

				mu.Lock()
				if result.Passed() {
					passed++
				} else {
					failed++
				}
				if wp.progress != nil {
					wp.progress.Update(passed, failed)
				}
				for _, o := range wp.observers {
					o.Observe(result)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wp.progress != nil {
		wp.progress.Finish()
	}
	return set, time.Since(startTime), nil
}

func (wp *WorkerPool) runOne(ctx context.Context, test string, defines []string) domain.RunResult {
	spec, ok := wp.specs.Lookup(test)
	if !ok {
		err := &domain.Error{Kind: domain.KindSelection, Op: "lookup test", Path: test, Err: domain.ErrNotFound}
		wp.log.Warn(fmt.Sprintf("Unable to find test: %s", test))
		return domain.RunResult{Test: test, Status: domain.StatusFailed, Phase: domain.PhasePending, Error: err}
	}
	if err := ctx.Err(); err != nil {
		return domain.RunResult{
			Test:   test,
			Status: domain.StatusFailed,
			Phase:  domain.PhasePending,
			Error:  &domain.Error{Kind: domain.KindExecution, Op: "run", Path: test, Err: err},
		}
	}
	return wp.runner.Run(ctx, test, spec, defines)
}
