package execution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"simrun/internal/config"
	"simrun/internal/domain"
)

type stubSpecs map[string]domain.TestSpec

func (s stubSpecs) Lookup(name string) (domain.TestSpec, bool) {
	spec, ok := s[name]
	return spec, ok
}

type stubRunner struct {
	mu      sync.Mutex
	pass    map[string]bool
	delay   map[string]time.Duration
	defines [][]string
}

func (r *stubRunner) Run(ctx context.Context, test string, spec domain.TestSpec, defines []string) domain.RunResult {
	time.Sleep(r.delay[test])
	r.mu.Lock()
	r.defines = append(r.defines, defines)
	r.mu.Unlock()
	status := domain.StatusFailed
	if r.pass[test] {
		status = domain.StatusPassed
	}
	return domain.RunResult{Test: test, Status: status, Phase: domain.PhaseDone}
}

type recordingProgress struct {
	updates  [][2]int
	finished bool
}

func (p *recordingProgress) Update(passed, failed int) {
	p.updates = append(p.updates, [2]int{passed, failed})
}

func (p *recordingProgress) Finish() {
	p.finished = true
}

type recordingObserver struct{ seen []string }

func (o *recordingObserver) Observe(r domain.RunResult) { o.seen = append(o.seen, r.Test) }

func specsFor(names ...string) stubSpecs {
	s := stubSpecs{}
	for _, n := range names {
		s[n] = domain.TestSpec{TB: n + "_tb.sv"}
	}
	return s
}

func TestWorkerPool_Sequential(t *testing.T) {
	cfg := config.New()
	runner := &stubRunner{pass: map[string]bool{"a": true, "c": true}}
	wp := NewWorkerPool(cfg, runner, specsFor("a", "b", "c"), zap.NewNop())
	progress := &recordingProgress{}
	observer := &recordingObserver{}
	wp.SetProgress(progress)
	wp.AddObserver(observer)

	set, _, err := wp.Execute(context.Background(), []string{"a", "b", "c"}, []string{"TRACE"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, observer.seen)
	assert.Equal(t, [][2]int{{1, 0}, {1, 1}, {2, 1}}, progress.updates)
	assert.True(t, progress.finished)
	assert.Len(t, set.Passed(), 2)
	assert.Len(t, set.Failed(), 1)
	for _, d := range runner.defines {
		assert.Equal(t, []string{"TRACE"}, d)
	}
}

func TestWorkerPool_ParallelKeepsSelectionOrder(t *testing.T) {
	cfg := config.New()
	cfg.Jobs = 4
	tests := []string{"slow", "medium", "fast", "instant"}
	runner := &stubRunner{
		pass: map[string]bool{"slow": true, "medium": true, "fast": true, "instant": true},
		delay: map[string]time.Duration{
			"slow":   60 * time.Millisecond,
			"medium": 30 * time.Millisecond,
			"fast":   10 * time.Millisecond,
		},
	}
	wp := NewWorkerPool(cfg, runner, specsFor(tests...), zap.NewNop())

	set, _, err := wp.Execute(context.Background(), tests, nil)
	require.NoError(t, err)

	var got []string
	for _, r := range set.All() {
		got = append(got, r.Test)
	}
	assert.Equal(t, tests, got)
	passed, failed, _ := set.Counts()
	assert.Equal(t, 4, passed)
	assert.Zero(t, failed)
}

func TestWorkerPool_FailureNeverStopsBatch(t *testing.T) {
	cfg := config.New()
	runner := &stubRunner{pass: map[string]bool{"c": true}}
	wp := NewWorkerPool(cfg, runner, specsFor("a", "b", "c"), zap.NewNop())

	set, _, err := wp.Execute(context.Background(), []string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.Len(t, set.Passed(), 1)
}

func TestWorkerPool_UnknownTest(t *testing.T) {
	cfg := config.New()
	wp := NewWorkerPool(cfg, &stubRunner{}, specsFor("a"), zap.NewNop())

	set, _, err := wp.Execute(context.Background(), []string{"ghost"}, nil)
	require.NoError(t, err)
	require.Len(t, set.Failed(), 1)
	assert.Equal(t, domain.KindSelection, domain.KindOf(set.Failed()[0].Error))
}

func TestWorkerPool_CancelledContext(t *testing.T) {
	cfg := config.New()
	runner := &stubRunner{pass: map[string]bool{"a": true}}
	wp := NewWorkerPool(cfg, runner, specsFor("a"), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set, _, err := wp.Execute(ctx, []string{"a"}, nil)
	require.NoError(t, err)
	require.Len(t, set.Failed(), 1)
	assert.Equal(t, domain.KindExecution, domain.KindOf(set.Failed()[0].Error))
	assert.Empty(t, runner.defines)
}

func TestWorkerPool_Empty(t *testing.T) {
	wp := NewWorkerPool(config.New(), &stubRunner{}, stubSpecs{}, zap.NewNop())
	set, elapsed, err := wp.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, elapsed)
	assert.Zero(t, set.Len())
}
