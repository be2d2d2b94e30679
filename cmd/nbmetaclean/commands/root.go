// Package commands implements the CLI commands for nbmetaclean and nbcheck.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ayasyrev/nbmetaclean/internal/config"
	"github.com/ayasyrev/nbmetaclean/internal/logger"
	"github.com/ayasyrev/nbmetaclean/internal/output"
	"github.com/ayasyrev/nbmetaclean/internal/version"
)

// ErrCheckFailed is returned when a notebook failed a check or could not
// be processed. The details have already been reported.
var ErrCheckFailed = errors.New("check failed")

// errNoChecks is returned by check when no check was selected.
var errNoChecks = errors.New("no checks selected")

const noChecksMessage = "No checks are selected. Please select at least one check: " +
	"--ec (for execution_count) or " +
	"--err (for errors in outputs) or " +
	"--warn (for warnings in outputs)."

// NewRootCmd returns the nbmetaclean command: clean by default, with check
// and version subcommands.
func NewRootCmd() *cobra.Command {
	root := newCleanCmd()
	root.AddCommand(newCheckCmd("check"))
	root.AddCommand(newVersionCmd())
	return root
}

// NewCheckRootCmd returns the standalone nbcheck command.
func NewCheckRootCmd() *cobra.Command {
	return newCheckCmd("nbcheck")
}

// Execute runs the nbmetaclean command.
func Execute() error {
	return execute(NewRootCmd())
}

// ExecuteCheck runs the nbcheck command.
func ExecuteCheck() error {
	return execute(NewCheckRootCmd())
}

func execute(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, ErrCheckFailed) && !errors.Is(err, errNoChecks) {
		logError("%v", err)
	}
	return err
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// setVersion enables -v/--version on cmd with the banner of program.
func setVersion(cmd *cobra.Command, program string) {
	cmd.Version = version.String()
	cmd.SetVersionTemplate(version.Line(program) + "\n")
}

// setupCommand applies the settings shared by every top-level command.
func setupCommand(cmd *cobra.Command, program string) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	setVersion(cmd, program)
	cmd.SetGlobalNormalizationFunc(underscoreToDash)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (default .nbmetaclean.yaml in the current or home directory)")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("log-json", false, "write logs as JSON")
}

// underscoreToDash accepts flag names written with underscores, so
// --clear_outputs and --clear-outputs are the same flag.
func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// addOutputFlags adds the flags controlling report format and concurrency.
func addOutputFlags(flags *pflag.FlagSet) {
	flags.String(config.FlagName(config.KeyFormat), string(output.FormatText), "output format: text, json, jsonl, yaml")
	flags.IntP(config.FlagName(config.KeyConcurrency), "j", 0, "notebooks processed at once (0 = number of CPUs)")
}

// loadSettings layers pyproject.toml, the config file, the environment and
// the flags of cmd for keys, and initializes the logger. The logger is set
// up from the flags alone first so that loading the settings can log too.
func loadSettings(cmd *cobra.Command, keys ...string) (*viper.Viper, error) {
	flags := cmd.Flags()
	debug, _ := flags.GetBool("debug")
	logJSON, _ := flags.GetBool("log-json")
	silent, _ := flags.GetBool(config.FlagName(config.KeySilent))
	logger.Init(logger.Options{
		Verbose: debug,
		Silent:  silent,
		JSON:    logJSON,
		Output:  cmd.ErrOrStderr(),
	})

	cfgFile, _ := flags.GetString("config")
	v, err := config.NewViper(".", cfgFile)
	if err != nil {
		return nil, err
	}

	bound := append(slices.Clone(keys), "debug", "log_json")
	for _, key := range bound {
		flag := flags.Lookup(config.FlagName(key))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, err
		}
	}

	logger.Init(logger.Options{
		Verbose: v.GetBool("debug"),
		Silent:  v.GetBool(config.KeySilent),
		JSON:    v.GetBool("log_json"),
		Output:  cmd.ErrOrStderr(),
	})
	return v, nil
}

// reportMissing prints the paths that could not be searched: to stdout with
// text reports, to stderr with structured ones.
func reportMissing(cmd *cobra.Command, v *viper.Viper, errs []error) {
	out := cmd.ErrOrStderr()
	if isText(v) {
		out = cmd.OutOrStdout()
	}
	for _, err := range errs {
		fmt.Fprintln(out, err)
	}
}

// newWriter returns the report writer selected by the format setting.
func newWriter(cmd *cobra.Command, v *viper.Viper) (output.Writer, error) {
	format, err := output.ParseFormat(v.GetString(config.KeyFormat))
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format)
}

// isText reports whether reports are written as plain text.
func isText(v *viper.Viper) bool {
	format, err := output.ParseFormat(v.GetString(config.KeyFormat))
	return err == nil && format == output.FormatText
}
