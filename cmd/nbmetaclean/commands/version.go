package commands

import (
	"github.com/spf13/cobra"

	"github.com/ayasyrev/nbmetaclean/internal/config"
	"github.com/ayasyrev/nbmetaclean/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := loadSettings(cmd, config.KeyFormat)
			if err != nil {
				return err
			}
			writer, err := newWriter(cmd, v)
			if err != nil {
				return err
			}

			var report any = version.Get()
			if isText(v) {
				report = version.Full("nbmetaclean")
			}
			if err := writer.Write(report); err != nil {
				return err
			}
			return writer.Flush()
		},
	}
	cmd.Flags().String(config.FlagName(config.KeyFormat), "text", "output format: text, json, yaml")
	return cmd
}
