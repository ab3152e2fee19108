package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the syncmirror command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "syncmirror",
		Short: "Periodic one-way folder mirroring",
		Long: `syncmirror keeps a destination folder an exact copy of a source folder.
Every period it compares both trees, patches modified files in place, renames
entries that were renamed in the source, and logs every mutation it applies.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewMirrorCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
