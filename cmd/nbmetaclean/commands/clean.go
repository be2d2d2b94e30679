package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ayasyrev/nbmetaclean/internal/batch"
	"github.com/ayasyrev/nbmetaclean/internal/config"
	"github.com/ayasyrev/nbmetaclean/internal/discover"
	"github.com/ayasyrev/nbmetaclean/internal/logger"
	"github.com/ayasyrev/nbmetaclean/internal/output"
	"github.com/ayasyrev/nbmetaclean/internal/watch"
	"github.com/ayasyrev/nbmetaclean/pkg/cleaner"
)

var cleanKeys = []string{
	config.KeySilent, config.KeyVerbose, config.KeyDryRun, config.KeyNotPT,
	config.KeyDontClearNBMetadata, config.KeyDontClearCellMetadata, config.KeyDontClearExecutionCount,
	config.KeyClearOutputs, config.KeyNBMetadataPreserveMask, config.KeyCellMetadataPreserveMask,
	config.KeyDontMergeMasks, config.KeyCleanHiddenNbs, config.KeyConcurrency, config.KeyFormat,
	config.KeyWatch,
}

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nbmetaclean [path...]",
		Short: "Clean Jupyter notebooks",
		Long: `Clean Jupyter notebook metadata, execution counts and optionally outputs.

Paths may be notebooks or directories, which are searched recursively.
With no path the current directory is cleaned. Settings are also read from
the [tool.nbmetaclean] table of pyproject.toml and NBMETACLEAN_* variables.`,
		Args: cobra.ArbitraryArgs,
		RunE: runClean,
	}
	setupCommand(cmd, "nbmetaclean")

	flags := cmd.Flags()
	flags.BoolP(config.FlagName(config.KeySilent), "s", false, "silent mode, print nothing")
	flags.BoolP(config.FlagName(config.KeyVerbose), "V", false, "print paths and counts")
	flags.BoolP(config.FlagName(config.KeyDryRun), "D", false, "report what would be cleaned without writing")
	flags.Bool(config.FlagName(config.KeyNotPT), false, "do not preserve timestamps of cleaned notebooks")
	flags.Bool(config.FlagName(config.KeyDontClearNBMetadata), false, "keep notebook metadata")
	flags.Bool(config.FlagName(config.KeyDontClearCellMetadata), false, "keep cell metadata")
	flags.Bool(config.FlagName(config.KeyDontClearExecutionCount), false, "keep execution counts")
	flags.Bool(config.FlagName(config.KeyClearOutputs), false, "remove outputs of code cells")
	flags.StringArray(config.FlagName(config.KeyNBMetadataPreserveMask), nil, "notebook metadata path to keep, dotted (repeatable)")
	flags.StringArray(config.FlagName(config.KeyCellMetadataPreserveMask), nil, "cell metadata path to keep, dotted (repeatable)")
	flags.Bool(config.FlagName(config.KeyDontMergeMasks), false, "use the notebook masks given instead of adding them to the defaults")
	flags.Bool(config.FlagName(config.KeyCleanHiddenNbs), false, "clean hidden notebooks")
	flags.Bool(config.FlagName(config.KeyWatch), false, "keep running and clean notebooks when they are saved")
	addOutputFlags(flags)

	return cmd
}

// cleanConfig builds the cleaner configuration from layered settings.
func cleanConfig(v *viper.Viper) (*cleaner.Config, error) {
	cfg := cleaner.DefaultConfig()
	cfg.ClearNBMetadata = !v.GetBool(config.KeyDontClearNBMetadata)
	cfg.ClearCellMetadata = !v.GetBool(config.KeyDontClearCellMetadata)
	cfg.ClearExecutionCount = !v.GetBool(config.KeyDontClearExecutionCount)
	cfg.ClearOutputs = v.GetBool(config.KeyClearOutputs)
	cfg.MaskMerge = !v.GetBool(config.KeyDontMergeMasks)
	cfg.PreserveTimestamp = !v.GetBool(config.KeyNotPT)
	cfg.DryRun = v.GetBool(config.KeyDryRun)
	cfg.Silent = v.GetBool(config.KeySilent)
	cfg.Verbose = v.GetBool(config.KeyVerbose)

	if v.IsSet(config.KeyNBMetadataPreserveMask) {
		cfg.NBMetadataPreserveMasks = cleaner.ParseMasks(v.GetStringSlice(config.KeyNBMetadataPreserveMask))
	}
	if v.IsSet(config.KeyCellMetadataPreserveMask) {
		cfg.CellMetadataPreserveMasks = cleaner.ParseMasks(v.GetStringSlice(config.KeyCellMetadataPreserveMask))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preserve mask: %w", err)
	}
	return cfg, nil
}

func runClean(cmd *cobra.Command, args []string) error {
	v, err := loadSettings(cmd, cleanKeys...)
	if err != nil {
		return err
	}
	cfg, err := cleanConfig(v)
	if err != nil {
		return err
	}
	hidden := v.GetBool(config.KeyCleanHiddenNbs)
	opts := batch.Options{Concurrency: v.GetInt(config.KeyConcurrency)}

	writer, err := newWriter(cmd, v)
	if err != nil {
		return err
	}
	defer writer.Flush()

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	names, missing := discover.NamesFromList(paths, true, hidden)
	if !cfg.Silent {
		reportMissing(cmd, v, missing)
	}
	logger.Debug("found notebooks", "count", len(names), "paths", paths)

	result, err := batch.Clean(cmd.Context(), names, cfg, opts)
	if err != nil {
		return err
	}

	if !cfg.Silent {
		var report any = result
		if isText(v) {
			report = cleanReport{
				result:            result,
				paths:             paths,
				verbose:           cfg.Verbose,
				preserveTimestamp: cfg.PreserveTimestamp,
			}
		}
		if err := writer.Write(report); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}

	if v.GetBool(config.KeyWatch) {
		return runWatch(cmd, paths, cfg, hidden, writer)
	}
	if len(result.Failed) > 0 {
		if cfg.Silent {
			logger.Error("notebooks failed to clean", "count", len(result.Failed))
		}
		return ErrCheckFailed
	}
	return nil
}

// runWatch cleans notebooks under paths as they are saved until the command
// context is cancelled.
func runWatch(cmd *cobra.Command, paths []string, cfg *cleaner.Config, hidden bool, writer output.Writer) error {
	w, err := watch.New(paths, watch.Options{
		Config:    cfg,
		Recursive: true,
		Hidden:    hidden,
	}, func(e watch.Event) {
		if cfg.Silent || (!e.Changed && e.Error == "") {
			return
		}
		if err := writer.Write(e); err == nil {
			_ = writer.Flush()
		}
	})
	if err != nil {
		return err
	}

	logger.Info("watching for notebook changes", "dirs", len(w.WatchList()))
	return w.Run(cmd.Context())
}
