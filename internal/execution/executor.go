package execution

import (
	"context"
	"time"

	"simrun/internal/domain"
	"simrun/internal/results"
)

// Executor executes selected tests and returns their results
type Executor interface {
	Execute(ctx context.Context, tests []string, defines []string) (*results.Set, time.Duration, error)
}

// SpecSource looks up catalog entries by test name
type SpecSource interface {
	Lookup(name string) (domain.TestSpec, bool)
}

// Observer is notified of every finished test
type Observer interface {
	Observe(r domain.RunResult)
}

// ProgressReporter displays batch progress
type ProgressReporter interface {
	Update(passed, failed int)
	Finish()
}
