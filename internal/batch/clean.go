package batch

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/ayasyrev/nbmetaclean/internal/logger"
	"github.com/ayasyrev/nbmetaclean/pkg/cleaner"
	"github.com/ayasyrev/nbmetaclean/pkg/notebook"
)

// CleanResult is the outcome of cleaning a set of files.
type CleanResult struct {
	Checked int         `json:"checked" yaml:"checked"`
	Cleaned []string    `json:"cleaned" yaml:"cleaned"`
	Failed  []FileError `json:"failed" yaml:"failed"`
	DryRun  bool        `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
}

// CleanFile cleans the notebook at path and reports whether it changed.
// The file is rewritten only when it changed and cfg is not a dry run.
func CleanFile(path string, cfg *cleaner.Config) (bool, error) {
	if cfg == nil {
		cfg = cleaner.DefaultConfig()
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("reading notebook %s: %w", path, err)
	}
	nb, err := notebook.Read(path)
	if err != nil {
		return false, err
	}

	changed := cleaner.CleanNotebook(nb, cfg)
	logger.Debug("cleaned notebook", "path", path, "size", humanize.Bytes(uint64(info.Size())), "changed", changed)
	if !changed || cfg.DryRun {
		return changed, nil
	}

	var opts notebook.WriteOptions
	if cfg.PreserveTimestamp {
		opts.ModTime = info.ModTime()
	}
	if _, err := notebook.Write(nb, path, opts); err != nil {
		return changed, err
	}
	return changed, nil
}

// Clean cleans every file in paths. Per-file failures are collected in the
// result; the returned error is only set for invalid options or config.
func Clean(ctx context.Context, paths []string, cfg *cleaner.Config, opts Options) (*CleanResult, error) {
	if cfg == nil {
		cfg = cleaner.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers, err := opts.workers()
	if err != nil {
		return nil, err
	}

	changed, errs := each(ctx, paths, workers, func(path string) (bool, error) {
		return CleanFile(path, cfg)
	})

	result := &CleanResult{
		Cleaned: []string{},
		Failed:  []FileError{},
		DryRun:  cfg.DryRun,
	}
	for i, path := range paths {
		result.Checked++
		if errs[i] != nil {
			logger.WarnContext(ctx, "failed to clean notebook", "path", path, "error", errs[i])
			result.Failed = append(result.Failed, newFileError(path, errs[i]))
			continue
		}
		if changed[i] {
			result.Cleaned = append(result.Cleaned, path)
		}
	}
	logger.DebugContext(ctx, "clean finished", "checked", result.Checked, "cleaned", len(result.Cleaned), "failed", len(result.Failed))
	return result, nil
}
