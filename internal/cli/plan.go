package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/syncmirror/pkg/guard"
	"github.com/sdejongh/syncmirror/pkg/output"
	"github.com/sdejongh/syncmirror/pkg/scheduler"
)

var planFlags MirrorFlags

// NewPlanCommand creates the plan command
func NewPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the mutations one pass would apply (dry-run)",
		Long: `Run a single reconciliation pass in dry-run mode and print the mutations it
would apply, without touching the destination or writing an event log.
This is equivalent to mirror --once --dry-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, &planFlags)
		},
	}

	addMirrorFlags(cmd, &planFlags)
	cmd.Flags().StringVar(&planFlags.Report, "report", "", "write the pass report to file")
	cmd.Flags().StringVar(&planFlags.ReportFormat, "report-format", "human", "pass report format: human, json")

	return cmd
}

func runPlan(cmd *cobra.Command, flags *MirrorFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Force dry-run mode for plan command
	flags.DryRun = true
	flags.Once = true
	flags.CreateDest = false

	if err := validateMirrorFlags(flags, false); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlagsToConfig(cmd, flags, cfg)
	cfg.Mirror.DryRun = true

	operation, err := createMirrorOperation(flags, cfg)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, operation, cfg, "")
	if err != nil {
		return err
	}
	defer s.Close()
	warnOutputsInsideSource(ctx, s.logger, flags)

	sched := scheduler.New(guard.New(s.source, s.dest), s.engine, time.Second, scheduler.Options{
		Formatter: s.formatter,
		Writer:    os.Stdout,
		Logger:    s.logger,
	})

	report, err := sched.RunOnce(ctx)
	if flags.Report != "" {
		if werr := output.WritePassReport(report, flags.Report, flags.ReportFormat); werr != nil {
			return fmt.Errorf("failed to write pass report: %w", werr)
		}
	}
	return err
}
