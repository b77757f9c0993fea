package deps

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"simrun/internal/domain"
	"simrun/internal/orderedset"
)

// DefaultSourceExt is the extension of module sources under the RTL root
const DefaultSourceExt = ".sv"

// Options configures a Resolver
type Options struct {
	RTLDir         string
	SourceExt      string
	InstancePrefix string
	WarnMissing    bool // Log unresolved modules as warnings instead of at debug level
}

// Resolver maps a testbench to the module sources it transitively instantiates
type Resolver struct {
	opts Options
	log  *zap.Logger
}

// Result is the outcome of one resolution
type Result struct {
	Files   []string            // Absolute module paths in first-discovery order
	Missing []string            // Instantiated modules with no source file, first-discovery order
	Edges   map[string][]string // Module -> instantiated modules, source order, for every scanned module
}

// NewResolver creates a new Resolver
func NewResolver(opts Options, log *zap.Logger) *Resolver {
	if opts.SourceExt == "" {
		opts.SourceExt = DefaultSourceExt
	}
	if opts.InstancePrefix == "" {
		opts.InstancePrefix = DefaultInstancePrefix
	}
	return &Resolver{opts: opts, log: log}
}

// Resolve walks the instantiation graph from entry depth-first. Each module is
// scanned at most once, so repeated and cyclic instantiation terminate. The
// result lists every resolvable module in pre-order, first discovery wins.
// Nothing is cached between calls.
func (r *Resolver) Resolve(entry string) (*Result, error) {
	edges := make(map[string][]string)

	entryChildren, err := r.scan(entry)
	if err != nil {
		return nil, err
	}

	files := orderedset.New[string]()
	missing := orderedset.New[string]()
	visited := make(map[string]bool)

	// Explicit stack of pending children, pushed in reverse to keep pre-order.
	stack := reversed(entryChildren)
	for len(stack) > 0 {
		module := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[module] {
			continue
		}
		visited[module] = true

		path, ok, err := r.locate(module)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing.Add(module)
			continue
		}
		files.Add(path)

		children, err := r.scan(path)
		if err != nil {
			return nil, err
		}
		edges[module] = children
		stack = append(stack, reversed(children)...)
	}

	res := &Result{Files: files.Items(), Missing: missing.Items(), Edges: edges}
	for _, m := range res.Missing {
		gap := &domain.Error{Kind: domain.KindDependencyGap, Op: "resolve module", Path: m, Err: domain.ErrNotFound}
		if r.opts.WarnMissing {
			r.log.Warn("no source for instantiated module", zap.String("module", m), zap.String("entry", entry), zap.Error(gap))
		} else {
			r.log.Debug("no source for instantiated module", zap.String("module", m), zap.String("entry", entry))
		}
	}
	return res, nil
}

// scan returns the module names instantiated in file, in source order
func (r *Resolver) scan(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "open %s", file)
	}
	defer f.Close()

	instances, err := ScanInstances(f, r.opts.InstancePrefix)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "scan %s", file)
	}
	modules := make([]string, 0, len(instances))
	for _, inst := range instances {
		modules = append(modules, inst.Module)
	}
	return modules, nil
}

// locate finds <rtl>/<module><ext>. A stat failure other than not-exist is an error.
func (r *Resolver) locate(module string) (string, bool, error) {
	candidate := filepath.Join(r.opts.RTLDir, module+r.opts.SourceExt)
	info, err := os.Stat(candidate)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrapf(err, "stat %s", candidate)
	}
	if info.IsDir() {
		return "", false, nil
	}
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", false, pkgerrors.Wrapf(err, "resolve %s", candidate)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, true, nil
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[len(in)-1-i] = s
	}
	return out
}
