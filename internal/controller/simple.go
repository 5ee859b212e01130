package controller

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// SimpleUI implements UI using the cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(ctx context.Context) {
	_ = ctx.Err()
}

// Wait blocks until the UI is closed (no-op for SimpleUI).
func (s *SimpleUI) Wait(ctx context.Context) {
	_ = ctx.Err()
}

// DisplayAnalysis prints one row per analyzed file with function and stub
// counts.
func (s *SimpleUI) DisplayAnalysis(ctx context.Context, facts []m.SourceFact, stubs map[m.Path][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := make([]m.SourceFact, len(facts))
	copy(sorted, facts)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FilePath < sorted[j].FilePath
	})

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Path", "Functions", "Includes", "Stubs Needed"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER,
	})

	totalFunctions := 0

	for _, fact := range sorted {
		totalFunctions += len(fact.Functions)

		table.Append([]string{
			string(fact.FilePath),
			strconv.Itoa(len(fact.Functions)),
			strconv.Itoa(len(fact.Includes)),
			strconv.Itoa(len(stubs[fact.FilePath])),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(sorted)),
		strconv.Itoa(totalFunctions),
		"",
		"",
	})
	table.Render()

	s.printf("\n%s", buf.String())

	return nil
}

// DisplayFileStarting announces the file entering the pipeline.
func (s *SimpleUI) DisplayFileStarting(ctx context.Context, source m.Path) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Generating tests for: %s\n", source)
}

// DisplayFileCompleted reports one file's pipeline outcome.
func (s *SimpleUI) DisplayFileCompleted(ctx context.Context, result m.GenerationResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if !result.Succeeded() {
		s.printf("Failed: %s (%v)\n", result.Source, result.Err)
		return
	}

	quality := ""
	if result.Report != nil {
		quality = fmt.Sprintf(" [%s]", result.Report.Quality)
	}

	s.printf("Generated: %s%s\n", result.TestFile, quality)
}

// DisplayPreview prints the first lines of a generated file.
func (s *SimpleUI) DisplayPreview(ctx context.Context, path m.Path, lines []string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Preview of %s:\n", path)

	for _, line := range lines {
		s.printf("   %s\n", line)
	}
}

// DisplayValidationReports renders the validation table.
func (s *SimpleUI) DisplayValidationReports(ctx context.Context, reports []m.ValidationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"File", "Compiles", "Realistic", "Quality", "Issues"})
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, report := range reports {
		table.Append([]string{
			string(report.File),
			strconv.FormatBool(report.Compiles),
			strconv.FormatBool(report.Realistic),
			report.Quality.String(),
			strconv.Itoa(len(report.Issues)),
		})
	}

	table.Render()

	s.printf("\n%s", buf.String())

	for _, report := range reports {
		if len(report.Issues) == 0 {
			continue
		}

		s.printf("\n%s:\n", report.File)

		for _, issue := range report.Issues {
			s.printf("  - %s\n", issue)
		}
	}

	return nil
}

// DisplaySummary prints the final run tally.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.RunSummary) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("\nCompleted run %s: %d/%d files successfully generated",
		shortID(summary.RunID), summary.Generated, summary.Total)

	if summary.Failed > 0 {
		s.printf(" (%d failed)", summary.Failed)
	}

	s.printf("\nQuality score: %.2f\n", summary.QualityScore)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

// shortID trims a run ID down to a display-friendly prefix.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
