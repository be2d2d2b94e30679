package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayasyrev/nbmetaclean/internal/batch"
	"github.com/ayasyrev/nbmetaclean/internal/config"
	"github.com/ayasyrev/nbmetaclean/internal/discover"
	"github.com/ayasyrev/nbmetaclean/internal/logger"
)

var checkKeys = []string{
	config.KeyEC, config.KeyErr, config.KeyWarn, config.KeyNotStrict, config.KeyNoExec,
	config.KeyVerbose, config.KeyHidden, config.KeyConcurrency, config.KeyFormat,
}

// newCheckCmd returns the check command. With use "nbcheck" it is set up as
// a standalone program, otherwise as a subcommand.
func newCheckCmd(use string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " [path...]",
		Short: "Check Jupyter notebooks for execution order, errors and warnings",
		Long: `Check Jupyter notebooks.

--ec checks that code cells were executed in order, starting from 1.
--err and --warn check outputs for errors and warnings.
Exits with status 1 when any notebook fails a check.`,
		Args: cobra.ArbitraryArgs,
		RunE: runCheck,
	}
	if use == "nbcheck" {
		setupCommand(cmd, use)
	} else {
		setVersion(cmd, "nbcheck")
	}

	flags := cmd.Flags()
	flags.Bool(config.FlagName(config.KeyEC), false, "check execution_count")
	flags.Bool(config.FlagName(config.KeyErr), false, "check errors in outputs")
	flags.Bool(config.FlagName(config.KeyWarn), false, "check warnings in outputs")
	flags.Bool(config.FlagName(config.KeyNotStrict), false, "allow gaps in execution_count")
	flags.Bool(config.FlagName(config.KeyNoExec), false, "accept notebooks that were never executed")
	flags.BoolP(config.FlagName(config.KeyVerbose), "V", false, "print the number of notebooks checked")
	flags.Bool(config.FlagName(config.KeyHidden), false, "check hidden notebooks")
	addOutputFlags(flags)

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	v, err := loadSettings(cmd, checkKeys...)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	checks := batch.Checks{
		ExecutionCount:  v.GetBool(config.KeyEC),
		Errors:          v.GetBool(config.KeyErr),
		Warnings:        v.GetBool(config.KeyWarn),
		Strict:          !v.GetBool(config.KeyNotStrict),
		AllowUnexecuted: v.GetBool(config.KeyNoExec),
	}
	if !checks.Any() {
		fmt.Fprintln(out, noChecksMessage)
		return errNoChecks
	}

	writer, err := newWriter(cmd, v)
	if err != nil {
		return err
	}
	defer writer.Flush()

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}
	names, missing := discover.NamesFromList(paths, true, v.GetBool(config.KeyHidden))
	reportMissing(cmd, v, missing)
	if v.GetBool(config.KeyVerbose) && isText(v) {
		fmt.Fprintf(out, "Checking %d notebooks:\n", len(names))
	}

	result, err := batch.Check(cmd.Context(), names, checks, batch.Options{
		Concurrency: v.GetInt(config.KeyConcurrency),
	})
	if err != nil {
		return err
	}
	logger.Debug("check finished", "checked", result.Checked, "passed", result.Passed())

	var report any = result
	if isText(v) {
		report = checkReport{result: result}
	}
	if err := writer.Write(report); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if !result.Passed() {
		return ErrCheckFailed
	}
	return nil
}
