package batch

import (
	"context"

	"github.com/ayasyrev/nbmetaclean/internal/logger"
	"github.com/ayasyrev/nbmetaclean/pkg/check"
	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

// Checks selects which checks run and how the execution count is checked.
type Checks struct {
	ExecutionCount bool
	Errors         bool
	Warnings       bool

	// Strict requires execution counts to be consecutive.
	Strict bool
	// AllowUnexecuted accepts notebooks whose code cells were never run.
	AllowUnexecuted bool
}

// Any reports whether at least one check is selected.
func (c Checks) Any() bool {
	return c.ExecutionCount || c.Errors || c.Warnings
}

// CheckResult lists the files that failed each check.
type CheckResult struct {
	Checked             int         `json:"checked" yaml:"checked"`
	WrongExecutionCount []string    `json:"wrong_execution_count" yaml:"wrong_execution_count"`
	WithErrors          []string    `json:"with_errors" yaml:"with_errors"`
	WithWarnings        []string    `json:"with_warnings" yaml:"with_warnings"`
	ReadErrors          []FileError `json:"read_errors" yaml:"read_errors"`
}

// Passed reports whether every file was read and passed every check.
func (r *CheckResult) Passed() bool {
	return len(r.WrongExecutionCount) == 0 &&
		len(r.WithErrors) == 0 &&
		len(r.WithWarnings) == 0 &&
		len(r.ReadErrors) == 0
}

type fileChecks struct {
	executionCount bool
	errors         bool
	warnings       bool
}

// Check reads every file in paths and runs the selected checks on it.
func Check(ctx context.Context, paths []string, checks Checks, opts Options) (*CheckResult, error) {
	workers, err := opts.workers()
	if err != nil {
		return nil, err
	}

	passed, errs := each(ctx, paths, workers, func(path string) (fileChecks, error) {
		nb, err := notebook.Read(path)
		if err != nil {
			return fileChecks{}, err
		}
		return runChecks(ctx, path, nb, checks), nil
	})

	result := &CheckResult{
		WrongExecutionCount: []string{},
		WithErrors:          []string{},
		WithWarnings:        []string{},
		ReadErrors:          []FileError{},
	}
	for i, path := range paths {
		result.Checked++
		if errs[i] != nil {
			logger.WarnContext(ctx, "failed to read notebook", "path", path, "error", errs[i])
			result.ReadErrors = append(result.ReadErrors, newFileError(path, errs[i]))
			continue
		}
		if !passed[i].executionCount {
			result.WrongExecutionCount = append(result.WrongExecutionCount, path)
		}
		if !passed[i].errors {
			result.WithErrors = append(result.WithErrors, path)
		}
		if !passed[i].warnings {
			result.WithWarnings = append(result.WithWarnings, path)
		}
	}
	return result, nil
}

// runChecks runs the selected checks. Checks not selected pass.
func runChecks(ctx context.Context, path string, nb *notebook.Notebook, checks Checks) fileChecks {
	res := fileChecks{executionCount: true, errors: true, warnings: true}
	if checks.ExecutionCount {
		if err := check.VerifyExecutionCount(nb, checks.Strict, checks.AllowUnexecuted); err != nil {
			logger.DebugContext(ctx, "wrong execution_count", "path", path, "reason", err)
			res.executionCount = false
		}
	}
	if checks.Errors {
		res.errors = check.Errors(nb)
	}
	if checks.Warnings {
		res.warnings = check.Warnings(nb)
	}
	return res
}
