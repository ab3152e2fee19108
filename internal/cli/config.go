package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/syncmirror/pkg/config"
	"github.com/sdejongh/syncmirror/pkg/ratelimit"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the syncmirror configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Digest: %s\n", cfg.Mirror.Digest)
			fmt.Fprintf(out, "Directory Heuristic: %s\n", cfg.Mirror.DirHeuristic)
			fmt.Fprintf(out, "Scratch Dir: %s\n", orDefault(cfg.Mirror.ScratchDir, os.TempDir()))
			fmt.Fprintf(out, "Dry Run: %t\n", cfg.Mirror.DryRun)
			fmt.Fprintf(out, "Buffer Size: %d\n", cfg.Performance.BufferSize)
			fmt.Fprintf(out, "Patch Max Bytes: %d\n", cfg.Performance.PatchMaxBytes)
			fmt.Fprintf(out, "Bandwidth Limit: %s\n", ratelimit.FormatRate(cfg.Performance.BandwidthLimit))
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Progress: %t\n", cfg.Output.Progress)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)
			fmt.Fprintf(out, "Log File: %s\n", orDefault(cfg.Logging.File, "stderr"))
			fmt.Fprintf(out, "Exclude: %s\n", strings.Join(cfg.Exclude, ", "))

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				if path, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
			}

			if err := config.SaveToFile(config.Default(), path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")

	return cmd
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
