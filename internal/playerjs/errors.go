package playerjs

import (
	"errors"
	"fmt"
)

const (
	ProgramSignature = "signature"
	ProgramThrottle  = "throttle"
)

var (
	// ErrProgramNotFound indicates an anchor pattern is missing from the asset.
	ErrProgramNotFound = errors.New("transform program not found")
	// ErrUnsupportedOperation indicates a program shape the engine does not model.
	ErrUnsupportedOperation = errors.New("unsupported transform operation")
	// ErrReplayIndex indicates a program step indexed outside its input.
	ErrReplayIndex = errors.New("transform replay index out of range")
)

// ProgramNotFoundError reports which program and anchor could not be located.
type ProgramNotFoundError struct {
	Program string
	Anchor  string
	Cause   error
}

func (e *ProgramNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s program not found: %s: %v", e.Program, e.Anchor, e.Cause)
	}
	return fmt.Sprintf("%s program not found: %s", e.Program, e.Anchor)
}

func (e *ProgramNotFoundError) Unwrap() error {
	return ErrProgramNotFound
}

// UnsupportedOperationError carries the source fragment that was not recognized.
type UnsupportedOperationError struct {
	Program string
	Shape   string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s program: unsupported operation %q", e.Program, truncate(e.Shape, 120))
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

// ReplayIndexError reports the failing step and the bounds it violated.
type ReplayIndexError struct {
	Program string
	Step    int
	Index   int
	Length  int
}

func (e *ReplayIndexError) Error() string {
	return fmt.Sprintf("%s program step %d: index %d out of range for length %d", e.Program, e.Step, e.Index, e.Length)
}

func (e *ReplayIndexError) Unwrap() error {
	return ErrReplayIndex
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
