// Package results aggregates per-test outcomes for a run.
package results

import (
	"sync"
	"time"

	"simrun/internal/domain"
)

// Set accumulates run results. It is safe for concurrent use and always
// reports entries in selection order, whatever order they complete in.
type Set struct {
	mu      sync.Mutex
	order   []string
	index   map[string]int
	results map[string]domain.RunResult
}

// New creates a Set that reports in the given selection order
func New(order []string) *Set {
	s := &Set{
		index:   make(map[string]int, len(order)),
		results: make(map[string]domain.RunResult, len(order)),
	}
	for _, name := range order {
		s.addName(name)
	}
	return s
}

func (s *Set) addName(name string) {
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = len(s.order)
	s.order = append(s.order, name)
}

// Record stores r, replacing any earlier result for the same test. A test
// outside the selection is appended to the order.
func (s *Set) Record(r domain.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addName(r.Test)
	s.results[r.Test] = r
}

// All returns every recorded result in selection order
func (s *Set) All() []domain.RunResult {
	return s.filter(func(domain.RunResult) bool { return true })
}

// Passed returns the passed tests in selection order
func (s *Set) Passed() []domain.RunResult {
	return s.filter(func(r domain.RunResult) bool { return r.Status == domain.StatusPassed })
}

// Failed returns the failed tests in selection order
func (s *Set) Failed() []domain.RunResult {
	return s.filter(func(r domain.RunResult) bool { return r.Status == domain.StatusFailed })
}

// Warnings returns the tests that saw a warning, in selection order.
// A test appears here in addition to its passed or failed entry.
func (s *Set) Warnings() []domain.RunResult {
	return s.filter(func(r domain.RunResult) bool { return r.Warning })
}

// Counts returns the number of passed, failed and warning tests
func (s *Set) Counts() (passed, failed, warnings int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if r.Status == domain.StatusPassed {
			passed++
		} else {
			failed++
		}
		if r.Warning {
			warnings++
		}
	}
	return passed, failed, warnings
}

// Len returns the number of recorded results
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *Set) filter(keep func(domain.RunResult) bool) []domain.RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.RunResult, 0, len(s.results))
	for _, name := range s.order {
		r, ok := s.results[name]
		if ok && keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Summary builds the persisted form of the run
func (s *Set) Summary(runID string, workers int, elapsed time.Duration, outputDir string) *domain.RunSummary {
	all := s.All()
	passed, failed, warnings := s.Counts()

	summary := &domain.RunSummary{
		Meta: domain.RunMeta{
			RunID:           runID,
			TotalTests:      len(all),
			PassedTests:     passed,
			FailedTests:     failed,
			WarningTests:    warnings,
			Duration:        elapsed.Round(time.Millisecond).String(),
			DurationSeconds: elapsed.Seconds(),
			Workers:         workers,
			Timestamp:       time.Now().Format(time.RFC3339),
			OutputDir:       outputDir,
		},
		Tests: make([]domain.TestRecord, 0, len(all)),
	}
	for _, r := range all {
		summary.Tests = append(summary.Tests, domain.NewTestRecord(r))
	}
	return summary
}
