// Package controller provides output adapters for displaying analysis and
// generation results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// StartMode defines the mode of operation for the UI.
type StartMode int

// Available StartMode values.
const (
	ModeAnalyze StartMode = iota
	ModeGenerate
	ModeValidate
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	mode  StartMode
	total int
}

// WithAnalyzeMode sets the UI to analysis mode.
func WithAnalyzeMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeAnalyze
	}
}

// WithGenerateMode sets the UI to generation mode with the expected number of
// files.
func WithGenerateMode(total int) StartOption {
	return func(c *StartConfig) {
		c.mode = ModeGenerate
		c.total = total
	}
}

// WithValidateMode sets the UI to validation mode.
func WithValidateMode() StartOption {
	return func(c *StartConfig) {
		c.mode = ModeValidate
	}
}

// UI defines the interface for displaying pipeline progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Wait(ctx context.Context)
	DisplayAnalysis(ctx context.Context, facts []m.SourceFact, stubs map[m.Path][]string) error
	DisplayFileStarting(ctx context.Context, source m.Path)
	DisplayFileCompleted(ctx context.Context, result m.GenerationResult)
	DisplayPreview(ctx context.Context, path m.Path, lines []string)
	DisplayValidationReports(ctx context.Context, reports []m.ValidationReport) error
	DisplaySummary(ctx context.Context, summary m.RunSummary)
}

// IsTTY reports whether the file is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewUI selects the TUI when attached to a terminal, the simple printer
// otherwise.
func NewUI(cmd *cobra.Command, tty bool) UI {
	if tty {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}
