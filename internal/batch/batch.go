// Package batch runs the cleaner and the checks over many notebook files.
//
// A failure on one file is recorded and never stops the others. Files are
// processed concurrently; results keep the order of the input paths.
package batch

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Options controls how files are processed.
type Options struct {
	// Concurrency is the number of files processed at once.
	// Zero means GOMAXPROCS.
	Concurrency int `validate:"gte=0"`
}

var validate = validator.New()

func (o Options) workers() (int, error) {
	if err := validate.Struct(o); err != nil {
		return 0, fmt.Errorf("invalid batch options: %w", err)
	}
	if o.Concurrency == 0 {
		return runtime.GOMAXPROCS(0), nil
	}
	return o.Concurrency, nil
}

// FileError records a file that could not be processed.
type FileError struct {
	Path    string `json:"path" yaml:"path"`
	Message string `json:"error" yaml:"error"`
	Err     error  `json:"-" yaml:"-"`
}

func newFileError(path string, err error) FileError {
	return FileError{Path: path, Message: err.Error(), Err: err}
}

func (e FileError) Error() string {
	return e.Message
}

func (e FileError) Unwrap() error {
	return e.Err
}

// each runs fn for every path with at most workers calls in flight. fn
// results are stored by index so callers can fold them in input order.
// Paths not started before ctx is done get ctx.Err().
func each[T any](ctx context.Context, paths []string, workers int, fn func(string) (T, error)) ([]T, []error) {
	results := make([]T, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = fn(path)
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}
