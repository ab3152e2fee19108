package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sdejongh/syncmirror/pkg/models"
)

// WritePassReport writes the mutations of a pass to a file, replacing it.
// Format can be "human" or "json".
func WritePassReport(report *models.PassReport, path string, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeReportJSON(report, file)
	default:
		err = writeReportHuman(report, file)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

func writeReportHuman(report *models.PassReport, w io.Writer) error {
	fmt.Fprintf(w, "Pass Report\n")
	fmt.Fprintf(w, "===========\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Pass:      #%d %s\n", report.Sequence, report.PassID)
	fmt.Fprintf(w, "Source:    %s\n", report.SourcePath)
	fmt.Fprintf(w, "Dest:      %s\n", report.DestPath)
	fmt.Fprintf(w, "Status:    %s\n", report.Status)
	if report.DryRun {
		fmt.Fprintf(w, "Mode:      dry-run (nothing was changed)\n")
	}
	if report.Err != nil {
		fmt.Fprintf(w, "Error:     %v\n", report.Err)
	}
	fmt.Fprintf(w, "\n")

	if len(report.Events) == 0 {
		fmt.Fprintf(w, "No mutations: destination already mirrors the source.\n")
		return nil
	}

	counts := make(map[models.Mutation]int)
	for _, ev := range report.Events {
		counts[ev.Mutation]++
	}
	fmt.Fprintf(w, "Mutations: %d\n", len(report.Events))
	for _, m := range []models.Mutation{models.MutationCopy, models.MutationRename, models.MutationRemove, models.MutationCreate} {
		if counts[m] > 0 {
			fmt.Fprintf(w, "  %-8s %d\n", m, counts[m])
		}
	}
	fmt.Fprintf(w, "\n")

	for _, ev := range report.Events {
		line := fmt.Sprintf("[%s] %s %s", ev.Mutation, ev.Kind, ev.Path)
		switch {
		case ev.Mutation == models.MutationRename:
			line += " -> " + ev.NewPath
		case ev.Patched:
			line += fmt.Sprintf(" (patched, %s)", formatBytes(ev.Bytes))
		case ev.Bytes > 0:
			line += fmt.Sprintf(" (%s)", formatBytes(ev.Bytes))
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func writeReportJSON(report *models.PassReport, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewJSONReport(report))
}
