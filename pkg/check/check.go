// Package check verifies that notebooks were executed cleanly: execution
// counts run in order and no output records an error or a stderr stream.
//
// All checks are read-only and never modify the notebook.
package check

import (
	"errors"
	"fmt"

	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

// Sequence failures reported by VerifyExecutionCount.
var (
	ErrEmptyCellExecuted = errors.New("code cell without source has execution_count")
	ErrNotExecuted       = errors.New("code cell not executed")
	ErrNotConsecutive    = errors.New("execution_count is not previous + 1")
	ErrNotIncreasing     = errors.New("execution_count is not increasing")
	ErrMixedExecution    = errors.New("notebook has both executed and not executed code cells")
)

// SequenceError describes where an execution count sequence breaks.
// Cell is the index in Notebook.Cells, or -1 for whole-notebook failures.
type SequenceError struct {
	Cell   int
	Count  int
	Reason error
}

func (e *SequenceError) Error() string {
	if e.Cell < 0 {
		return e.Reason.Error()
	}
	return fmt.Sprintf("cell %d (execution_count %d): %v", e.Cell, e.Count, e.Reason)
}

func (e *SequenceError) Unwrap() error {
	return e.Reason
}

// VerifyExecutionCount walks the code cells in order and returns a
// *SequenceError for the first break in the execution count sequence.
//
// In strict mode every executed cell must be numbered previous + 1 starting
// from 1; otherwise counts only need to increase. Cells without source are
// skipped but must not carry a count. With allowUnexecuted, cells that were
// never run are tolerated as long as no cell was run at all.
func VerifyExecutionCount(nb *notebook.Notebook, strict, allowUnexecuted bool) error {
	current := 0
	unexecuted := false

	for i, cell := range nb.Cells {
		if !cell.IsCode() {
			continue
		}

		if !cell.HasSource() {
			if cell.ExecutionCount != nil {
				return &SequenceError{Cell: i, Count: *cell.ExecutionCount, Reason: ErrEmptyCellExecuted}
			}
			continue
		}

		if cell.ExecutionCount == nil {
			if !allowUnexecuted {
				return &SequenceError{Cell: i, Reason: ErrNotExecuted}
			}
			unexecuted = true
			continue
		}

		n := *cell.ExecutionCount
		if strict && n != current+1 {
			return &SequenceError{Cell: i, Count: n, Reason: ErrNotConsecutive}
		}
		if n <= current {
			return &SequenceError{Cell: i, Count: n, Reason: ErrNotIncreasing}
		}
		current = n
	}

	if unexecuted && current > 0 {
		return &SequenceError{Cell: -1, Count: current, Reason: ErrMixedExecution}
	}
	return nil
}

// ExecutionCount reports whether the execution counts of nb form a valid
// sequence. See VerifyExecutionCount.
func ExecutionCount(nb *notebook.Notebook, strict, allowUnexecuted bool) bool {
	return VerifyExecutionCount(nb, strict, allowUnexecuted) == nil
}

// Errors reports whether no code cell has an error output.
func Errors(nb *notebook.Notebook) bool {
	return !hasOutput(nb, func(o *notebook.Output) bool {
		return o.OutputType == notebook.OutputError
	})
}

// Warnings reports whether no code cell has a stderr stream output.
func Warnings(nb *notebook.Notebook) bool {
	return !hasOutput(nb, func(o *notebook.Output) bool {
		return o.OutputType == notebook.OutputStream && o.Name == notebook.StreamStderr
	})
}

func hasOutput(nb *notebook.Notebook, match func(*notebook.Output) bool) bool {
	for _, cell := range nb.Cells {
		if !cell.IsCode() {
			continue
		}
		for _, output := range cell.Outputs {
			if match(output) {
				return true
			}
		}
	}
	return false
}
