package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every subcommand
type GlobalFlags struct {
	ConfigFile string
	// Verbose raises the diagnostic log level to debug
	Verbose bool
	// Quiet silences the event echo and pass summaries; diagnostics drop to errors
	Quiet bool
}

var globalFlags GlobalFlags

// AddGlobalFlags registers --config, --verbose and --quiet on the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigFile, "config", "",
		"configuration file (default $HOME/.config/syncmirror/config.yaml)")
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false,
		"debug diagnostics, including every digested file")
	flags.BoolVarP(&globalFlags.Quiet, "quiet", "q", false,
		"no event echo or pass summaries on stdout; the event log is still written")
}
