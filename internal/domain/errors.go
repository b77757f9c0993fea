package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies the failures the orchestrator distinguishes
type ErrorKind int

const (
	// KindConfiguration is fatal: the catalog or config is missing or unparseable.
	KindConfiguration ErrorKind = iota + 1
	// KindSelection is a non-fatal unknown regression or test name.
	KindSelection
	// KindDependencyGap is an instantiated module with no source file.
	KindDependencyGap
	// KindArtifactMissing is an absent hex input for a system test.
	KindArtifactMissing
	// KindExecution is a spawn, I/O or timeout failure while running a test.
	KindExecution
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindSelection:
		return "selection warning"
	case KindDependencyGap:
		return "dependency resolution gap"
	case KindArtifactMissing:
		return "artifact missing"
	case KindExecution:
		return "execution failure"
	default:
		return "unknown error"
	}
}

var (
	ErrNotFound  = errors.New("not found")
	ErrMalformed = errors.New("malformed")
	ErrTimeout   = errors.New("timed out")
)

// Error is an error tagged with its kind
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or 0
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
