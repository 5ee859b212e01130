package controller

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	summaryStyle = lipgloss.NewStyle().MarginTop(1)
)

// TUI implements UI using Bubble Tea for interactive generation runs.
type TUI struct {
	output  io.Writer
	program *tea.Program
	mu      sync.Mutex
	done    chan struct{}
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the progress program for generation mode. Other modes print
// statically and need no program.
func (p *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	config := StartConfig{}
	for _, option := range options {
		option(&config)
	}

	if config.mode != ModeGenerate {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.program = tea.NewProgram(newGenerationModel(config.total), tea.WithOutput(p.output))
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		if _, err := p.program.Run(); err != nil {
			fmt.Fprintf(p.output, "display error: %v\n", err)
		}
	}()

	return nil
}

// Close shuts the program down if it is still running.
func (p *TUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}

	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Quit()
	}
}

// Wait blocks until the progress program exits.
func (p *TUI) Wait(ctx context.Context) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-ctx.Done():
	case <-done:
	}
}

// send delivers a message to the running program, if any.
func (p *TUI) send(msg tea.Msg) {
	p.mu.Lock()
	program := p.program
	p.mu.Unlock()

	if program != nil {
		program.Send(msg)
	}
}

// DisplayAnalysis prints per-file fact counts.
func (p *TUI) DisplayAnalysis(ctx context.Context, facts []m.SourceFact, stubs map[m.Path][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Source analysis") + "\n\n")

	for _, fact := range facts {
		fmt.Fprintf(&b, "  %s  %d function(s), %d include(s), %d stub(s) needed\n",
			pathStyle.Render(string(fact.FilePath)),
			len(fact.Functions), len(fact.Includes), len(stubs[fact.FilePath]))
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

// DisplayFileStarting feeds the progress model.
func (p *TUI) DisplayFileStarting(ctx context.Context, source m.Path) {
	if ctx.Err() != nil {
		return
	}

	p.send(fileStartedMsg{path: source})
}

// DisplayFileCompleted feeds the progress model.
func (p *TUI) DisplayFileCompleted(ctx context.Context, result m.GenerationResult) {
	if ctx.Err() != nil {
		return
	}

	p.send(fileDoneMsg{result: result})
}

// DisplayPreview is suppressed in TUI mode; the progress view already shows
// per-file outcomes.
func (p *TUI) DisplayPreview(ctx context.Context, _ m.Path, _ []string) {
	_ = ctx.Err()
}

// DisplayValidationReports prints a compact styled listing.
func (p *TUI) DisplayValidationReports(ctx context.Context, reports []m.ValidationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Validation") + "\n\n")

	for _, report := range reports {
		status := okStyle.Render(report.Quality.String())
		if report.Quality == m.QualityLow {
			status = failStyle.Render(report.Quality.String())
		}

		fmt.Fprintf(&b, "  %s  %s\n", status, pathStyle.Render(string(report.File)))

		for _, issue := range report.Issues {
			fmt.Fprintf(&b, "      - %s\n", issue)
		}
	}

	_, err := fmt.Fprint(p.output, b.String())

	return err
}

// DisplaySummary finishes the progress program with the run tally.
func (p *TUI) DisplaySummary(ctx context.Context, summary m.RunSummary) {
	if ctx.Err() != nil {
		return
	}

	p.send(runDoneMsg{summary: summary})
}

type fileStartedMsg struct {
	path m.Path
}

type fileDoneMsg struct {
	result m.GenerationResult
}

type runDoneMsg struct {
	summary m.RunSummary
}

// generationModel renders a spinner, a progress bar and the most recent
// per-file outcomes while the batch runs.
type generationModel struct {
	spinner   spinner.Model
	bar       progress.Model
	total     int
	completed int
	failed    int
	current   []string
	recent    []string
	summary   *m.RunSummary
	quitting  bool
}

func newGenerationModel(total int) generationModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return generationModel{
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient()),
		total:   total,
	}
}

func (gm generationModel) Init() tea.Cmd {
	return gm.spinner.Tick
}

func (gm generationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			gm.quitting = true
			return gm, tea.Quit
		}

		return gm, nil

	case tea.WindowSizeMsg:
		gm.bar.Width = msg.Width - 8
		return gm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		gm.spinner, cmd = gm.spinner.Update(msg)

		return gm, cmd

	case progress.FrameMsg:
		bar, cmd := gm.bar.Update(msg)
		if updated, ok := bar.(progress.Model); ok {
			gm.bar = updated
		}

		return gm, cmd

	case fileStartedMsg:
		gm.current = append(gm.current, string(msg.path))
		return gm, nil

	case fileDoneMsg:
		gm.completed++
		gm.current = removeString(gm.current, string(msg.result.Source))
		gm.recent = appendBounded(gm.recent, formatOutcome(msg.result), 5)

		if !msg.result.Succeeded() {
			gm.failed++
		}

		if gm.total > 0 {
			return gm, gm.bar.SetPercent(float64(gm.completed) / float64(gm.total))
		}

		return gm, nil

	case runDoneMsg:
		summary := msg.summary
		gm.summary = &summary
		gm.quitting = true

		return gm, tea.Quit
	}

	return gm, nil
}

func (gm generationModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ctestgen") + "\n\n")
	fmt.Fprintf(&b, "%s %d/%d files\n", gm.bar.View(), gm.completed, gm.total)

	for _, path := range gm.current {
		fmt.Fprintf(&b, "%s %s\n", gm.spinner.View(), pathStyle.Render(path))
	}

	for _, line := range gm.recent {
		b.WriteString(line + "\n")
	}

	if gm.summary != nil {
		b.WriteString(summaryStyle.Render(fmt.Sprintf(
			"Run %s: %d/%d generated, %d failed, quality score %.2f",
			gm.summary.RunID, gm.summary.Generated, gm.summary.Total,
			gm.summary.Failed, gm.summary.QualityScore)) + "\n")
	}

	return b.String()
}

func formatOutcome(result m.GenerationResult) string {
	if !result.Succeeded() {
		return failStyle.Render("✗ ") + string(result.Source)
	}

	label := okStyle.Render("✓ ") + string(result.TestFile)
	if result.Report != nil {
		label += pathStyle.Render(" [" + result.Report.Quality.String() + "]")
	}

	return label
}

func removeString(items []string, target string) []string {
	for i, item := range items {
		if item == target {
			return append(items[:i], items[i+1:]...)
		}
	}

	return items
}

func appendBounded(items []string, item string, max int) []string {
	items = append(items, item)
	if len(items) > max {
		items = items[len(items)-max:]
	}

	return items
}
