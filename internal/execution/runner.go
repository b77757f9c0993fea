package execution

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"simrun/internal/config"
	"simrun/internal/deps"
	"simrun/internal/discovery"
	"simrun/internal/domain"
	"simrun/internal/parser"
	"simrun/internal/simcmd"
)

const (
	// commonSourcePattern selects shared testbench sources (.v, .sv, .vh, ...)
	commonSourcePattern = "*v*"
	// waitDelay bounds how long output pipes stay open after a kill
	waitDelay = 2 * time.Second
	// maxLineSize caps a single line of simulator output
	maxLineSize = 4 * 1024 * 1024
)

// Runner compiles and simulates a single test
type Runner struct {
	config   *config.Config
	resolver *deps.Resolver
	synth    *simcmd.Synthesizer
	scanner  *discovery.Scanner
	parser   parser.Parser
	log      *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	scanner := discovery.NewScanner(nil)
	resolver := deps.NewResolver(deps.Options{
		RTLDir:         cfg.GetRTLDir(),
		SourceExt:      cfg.SourceExt,
		InstancePrefix: cfg.InstancePrefix,
		WarnMissing:    cfg.WarnMissingModules,
	}, log)
	synth := simcmd.NewSynthesizer(simcmd.Options{
		Simulator:        cfg.Simulator,
		SourceExt:        cfg.SourceExt,
		PerTestFilelists: cfg.Jobs > 1,
	}, scanner, log)

	return &Runner{
		config:   cfg,
		resolver: resolver,
		synth:    synth,
		scanner:  scanner,
		parser:   parser.NewSimOutputParser(),
		log:      log,
	}
}

// Run executes the compile-then-simulate pipeline for one test. It never
// returns an error: every failure is folded into a FAILED result.
func (r *Runner) Run(ctx context.Context, test string, spec domain.TestSpec, defines []string) (res domain.RunResult) {
	start := time.Now()
	res = domain.RunResult{
		Test:        test,
		Status:      domain.StatusFailed,
		Phase:       domain.PhasePending,
		CompileExit: -1,
		SimExit:     -1,
	}
	defer func() {
		res.Duration = time.Since(start)
		r.logResult(res)
	}()

	paths, err := r.preparePaths(test, spec)
	res.OutDir = paths.OutDir
	if err != nil {
		return r.fail(res, "prepare output", paths.OutDir, err)
	}

	resolved, err := r.resolver.Resolve(paths.TBPath)
	if err != nil {
		return r.fail(res, "resolve dependencies", paths.TBPath, err)
	}
	res.MissingModules = resolved.Missing

	inv := r.synth.Synthesize(test, spec, paths, defines, resolved.Files)
	if err := os.WriteFile(inv.FilelistPath, []byte(inv.FilelistContent()), 0644); err != nil {
		return r.fail(res, "write file list", inv.FilelistPath, err)
	}

	res.LogPath = filepath.Join(paths.OutDir, test+".log")
	logFile, err := os.Create(res.LogPath)
	if err != nil {
		return r.fail(res, "create log", res.LogPath, err)
	}
	defer logFile.Close()
	logw := bufio.NewWriter(logFile)
	defer logw.Flush()

	fmt.Fprintf(logw, "Compilation command:\n %s\n", inv.String())
	r.log.Debug("compiling", zap.String("test", test), zap.String("command", inv.String()))

	class := parser.NewClassification(r.parser)

	res.Phase = domain.PhaseCompiling
	exit, err := r.stream(ctx, inv.Args, paths.ProjectDir, logw, class.ObserveCompile)
	res.CompileExit = exit
	res.Warning = class.Warning()
	if err != nil {
		return r.fail(res, "compile", inv.Args[0], err)
	}
	if exit != 0 {
		res.Phase = domain.PhaseCompileFailed
		fmt.Fprintf(logw, "Compilation of %s failed with exit code %d\n", test, exit)
		return res
	}
	res.Phase = domain.PhaseCompiled
	fmt.Fprintf(logw, "Compilation of %s complete\n", test)

	simCtx := ctx
	if r.config.SimTimeout > 0 {
		var cancel context.CancelFunc
		simCtx, cancel = context.WithTimeout(ctx, r.config.SimTimeout)
		defer cancel()
	}

	res.Phase = domain.PhaseSimulating
	fmt.Fprintf(logw, "Beginning simulation of test: %s...\n", test)
	exit, err = r.stream(simCtx, []string{inv.Artifact}, paths.ProjectDir, logw, class.ObserveSimulation)
	res.SimExit = exit
	res.Warning = class.Warning()
	if timedOut(simCtx, exit, err) {
		fmt.Fprintf(logw, "Simulation of %s timed out after %v\n", test, r.config.SimTimeout)
		return r.fail(res, "simulate", inv.Artifact, fmt.Errorf("%w after %v", domain.ErrTimeout, r.config.SimTimeout))
	}
	if err != nil {
		return r.fail(res, "simulate", inv.Artifact, err)
	}

	res.Phase = domain.PhaseDone
	if class.Passed() {
		res.Status = domain.StatusPassed
	}
	return res
}

// preparePaths builds the per-test filesystem context and leaves an empty
// output directory behind, so re-running a test never sees stale artifacts
func (r *Runner) preparePaths(test string, spec domain.TestSpec) (*domain.ResolvedPaths, error) {
	cfg := r.config
	paths := &domain.ResolvedPaths{
		ProjectDir:  cfg.GetProjectDir(),
		RTLDir:      cfg.GetRTLDir(),
		IncludeDirs: cfg.GetIncludeDirs(),
		LibraryDirs: cfg.GetLibraryDirs(),
		TBPath:      cfg.GetTBPath(spec.TB),
		OutDir:      filepath.Join(cfg.GetRunOutputDir(), test),
		FilelistDir: cfg.GetRunFilelistDir(),
		HexDir:      cfg.GetHexDir(),
	}

	// The output directory is wiped below; it must be a direct child of the run directory.
	if filepath.Dir(paths.OutDir) != filepath.Clean(cfg.GetRunOutputDir()) || filepath.Base(paths.OutDir) != test {
		return paths, fmt.Errorf("%w: test name %q is not a single path element", domain.ErrMalformed, test)
	}

	if err := os.RemoveAll(paths.OutDir); err != nil {
		return paths, err
	}
	if err := os.MkdirAll(paths.OutDir, 0755); err != nil {
		return paths, err
	}
	if err := os.MkdirAll(paths.FilelistDir, 0755); err != nil {
		return paths, err
	}

	common, err := r.scanner.Scan(cfg.GetTBCommonDir(), commonSourcePattern)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return paths, err
	}
	paths.CommonSources = common
	return paths, nil
}

// stream runs args in dir and copies its combined stdout and stderr into w
// line by line, handing each line to observe. The returned exit code is -1
// when the process could not be started or did not exit normally; err is
// set only for spawn and I/O failures, never for a non-zero exit.
func (r *Runner) stream(ctx context.Context, args []string, dir string, w io.Writer, observe func(string)) (int, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	// One writer for both streams keeps their lines interleaved as emitted.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return -1, err
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		pw.Close()
		waitErr <- err
	}()

	sc := bufio.NewScanner(pr)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		line := sc.Text()
		fmt.Fprintln(w, line)
		observe(line)
	}
	scanErr := sc.Err()
	if scanErr != nil {
		_, _ = io.Copy(io.Discard, pr)
	}

	err := <-waitErr
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), scanErr
	default:
		return -1, err
	}
	return 0, scanErr
}

// timedOut reports whether the deadline, not the simulation itself, ended the
// run. A child that exited cleanly keeps its result even if the deadline
// fired right after.
func timedOut(ctx context.Context, exit int, err error) bool {
	if err == nil && exit == 0 {
		return false
	}
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (r *Runner) fail(res domain.RunResult, op, path string, err error) domain.RunResult {
	res.Status = domain.StatusFailed
	res.Error = &domain.Error{Kind: domain.KindExecution, Op: op, Path: path, Err: err}
	r.log.Error("test "+res.Test+" could not run", zap.Error(res.Error))
	return res
}

func (r *Runner) logResult(res domain.RunResult) {
	r.log.Info(fmt.Sprintf("%s %s", res.Test, res.Status))
	if res.Warning {
		r.log.Info(res.Test + " CONTAINS WARNINGS")
	}
}
