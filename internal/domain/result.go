package domain

import "time"

// Status is the mutually exclusive outcome of a test
type Status string

const (
	StatusPassed Status = "PASSED"
	StatusFailed Status = "FAILED"
)

// Phase is the point in the per-test pipeline a test reached
type Phase string

const (
	PhasePending       Phase = "PENDING"
	PhaseCompiling     Phase = "COMPILING"
	PhaseCompileFailed Phase = "COMPILE_FAILED"
	PhaseCompiled      Phase = "COMPILED"
	PhaseSimulating    Phase = "SIMULATING"
	PhaseDone          Phase = "DONE"
)

// RunResult represents the classification of one executed test
type RunResult struct {
	Test           string
	Status         Status
	Warning        bool   // Orthogonal to Status
	OutDir         string // Per-test output directory
	LogPath        string
	Phase          Phase // Last phase reached
	CompileExit    int
	SimExit        int
	MissingModules []string // Instantiated modules without a source file
	Error          error    // Execution failure, if any
	Duration       time.Duration
}

// Passed reports whether the test was classified PASSED
func (r RunResult) Passed() bool {
	return r.Status == StatusPassed
}

// TestRecord is the persisted form of a RunResult
type TestRecord struct {
	Name     string  `json:"name"`
	Status   Status  `json:"status"`
	Warning  bool    `json:"warning"`
	OutDir   string  `json:"out_dir"`
	LogPath  string  `json:"log_path"`
	Phase    Phase   `json:"phase"`
	Error    string  `json:"error,omitempty"`
	Seconds  float64 `json:"duration_seconds"`
	Resolved bool    `json:"resolved,omitempty"` // Marked as looked-at in the failures viewer
}

// RunMeta contains metadata about a run
type RunMeta struct {
	RunID           string  `json:"run_id"`
	TotalTests      int     `json:"total_tests"`
	PassedTests     int     `json:"passed_tests"`
	FailedTests     int     `json:"failed_tests"`
	WarningTests    int     `json:"warning_tests"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	Workers         int     `json:"workers"`
	Timestamp       string  `json:"timestamp"`
	OutputDir       string  `json:"output_dir"`
}

// RunSummary is the complete persisted structure for one run
type RunSummary struct {
	Meta  RunMeta      `json:"meta"`
	Tests []TestRecord `json:"tests"`
}

// NewTestRecord converts a RunResult into its persisted form
func NewTestRecord(r RunResult) TestRecord {
	rec := TestRecord{
		Name:    r.Test,
		Status:  r.Status,
		Warning: r.Warning,
		OutDir:  r.OutDir,
		LogPath: r.LogPath,
		Phase:   r.Phase,
		Seconds: r.Duration.Seconds(),
	}
	if r.Error != nil {
		rec.Error = r.Error.Error()
	}
	return rec
}

// FailedNames returns the names of failed tests in recorded order
func (s *RunSummary) FailedNames() []string {
	var names []string
	for _, t := range s.Tests {
		if t.Status == StatusFailed {
			names = append(names, t.Name)
		}
	}
	return names
}
