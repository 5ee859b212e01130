package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	"ctestgen.dev/pkg/ctestgen/internal/controller"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
	"ctestgen.dev/pkg/ctestgen/pkg"
)

const previewLineCount = 10

// GenerateArgs contains the arguments for a test generation run.
type GenerateArgs struct {
	RepoPath    m.Path
	OutputDir   m.Path
	Threads     uint
	Batch       bool
	ChangedOnly bool
}

// AnalyzeArgs contains the arguments for an analysis-only run.
type AnalyzeArgs struct {
	RepoPath    m.Path
	ChangedOnly bool
}

// ValidateArgs contains the arguments for re-validating generated tests.
type ValidateArgs struct {
	RepoPath m.Path
	TestsDir m.Path
}

// Workflow defines the top-level pipelines behind each command.
type Workflow interface {
	Generate(ctx context.Context, args GenerateArgs) error
	Analyze(ctx context.Context, args AnalyzeArgs) error
	Validate(ctx context.Context, args ValidateArgs) error
}

type workflow struct {
	fs         adapter.SourceFSAdapter
	git        adapter.GitAdapter
	completion adapter.CompletionClient
	reports    adapter.ReportStore
	ui         controller.UI
	stoplist   []string
}

// NewWorkflow creates a Workflow wired to the provided adapters. A nil
// stoplist keeps the default call-site stoplist.
func NewWorkflow(
	fs adapter.SourceFSAdapter,
	git adapter.GitAdapter,
	completion adapter.CompletionClient,
	reports adapter.ReportStore,
	ui controller.UI,
	stoplist []string,
) Workflow {
	return &workflow{
		fs:         fs,
		git:        git,
		completion: completion,
		reports:    reports,
		ui:         ui,
		stoplist:   stoplist,
	}
}

// components holds the per-repository domain objects. They are built once per
// run because the extractor and prompt builder are bound to a repository root.
type components struct {
	extractor *Extractor
	resolver  *Resolver
	prompts   *PromptBuilder
	post      *PostProcessor
	validator *Validator
}

func (w *workflow) newComponents(repoRoot m.Path) components {
	var opts []ExtractorOption
	if w.stoplist != nil {
		opts = append(opts, WithCallStoplist(w.stoplist))
	}

	extractor := NewExtractor(w.fs, repoRoot, opts...)

	return components{
		extractor: extractor,
		resolver:  NewResolver(w.fs, extractor),
		prompts:   NewPromptBuilder(w.fs, repoRoot),
		post:      NewPostProcessor(),
		validator: NewValidator(w.fs, extractor),
	}
}

// analyzeRepository enumerates source files, analyzes each and computes stub
// requirements against the repository-wide dependency map.
func (w *workflow) analyzeRepository(ctx context.Context, c components, repoPath m.Path, changedOnly bool) ([]m.SourceFact, map[m.Path][]string, error) {
	files, err := c.resolver.EnumerateSourceFiles(repoPath)
	if err != nil {
		return nil, nil, err
	}

	if changedOnly {
		files = intersectChanged(files, w.git.ChangedCFiles(ctx, repoPath))
	}

	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no C files found in %s", repoPath)
	}

	depMap, err := c.resolver.BuildDependencyMap(repoPath)
	if err != nil {
		return nil, nil, err
	}

	facts := make([]m.SourceFact, 0, len(files))
	stubs := make(map[m.Path][]string, len(files))

	for _, file := range files {
		fact := c.extractor.Analyze(file)
		facts = append(facts, fact)
		stubs[fact.FilePath] = c.resolver.ComputeStubRequirements(fact, depMap)
	}

	return facts, stubs, nil
}

func (w *workflow) Analyze(ctx context.Context, args AnalyzeArgs) error {
	c := w.newComponents(args.RepoPath)

	facts, stubs, err := w.analyzeRepository(ctx, c, args.RepoPath, args.ChangedOnly)
	if err != nil {
		return err
	}

	if err := w.ui.Start(ctx, controller.WithAnalyzeMode()); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	return w.ui.DisplayAnalysis(ctx, facts, stubs)
}

func (w *workflow) Generate(ctx context.Context, args GenerateArgs) error {
	c := w.newComponents(args.RepoPath)

	facts, stubs, err := w.analyzeRepository(ctx, c, args.RepoPath, args.ChangedOnly)
	if err != nil {
		return err
	}

	outputDir := resolveOutputDir(args.RepoPath, args.OutputDir)
	if err := w.fs.MkdirAll(outputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	total := len(facts)
	if args.Batch {
		total = 1
	}

	if err := w.ui.Start(ctx, controller.WithGenerateMode(total)); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	spill, err := pkg.NewFileSpill[m.ValidationReport]("reports")
	if err != nil {
		return fmt.Errorf("create report buffer: %w", err)
	}
	defer spill.Close()

	var results []m.GenerationResult
	if args.Batch {
		results = []m.GenerationResult{w.generateBatch(ctx, c, facts, stubs, outputDir)}
	} else {
		results = w.generateEach(ctx, c, facts, stubs, outputDir, args.Threads)
	}

	for _, result := range results {
		if result.Report != nil {
			if err := spill.Append(*result.Report); err != nil {
				return fmt.Errorf("buffer report: %w", err)
			}
		}
	}

	if err := w.saveReports(outputDir, results); err != nil {
		return err
	}

	score, err := qualityScoreFromReports(spill)
	if err != nil {
		return fmt.Errorf("aggregate quality score: %w", err)
	}

	summary := m.RunSummary{
		RunID:        uuid.NewString(),
		Total:        total,
		Generated:    countSucceeded(results),
		Failed:       total - countSucceeded(results),
		QualityScore: score,
	}

	slog.Info("Generation run finished",
		"runID", summary.RunID,
		"generated", summary.Generated,
		"total", summary.Total,
		"qualityScore", summary.QualityScore)

	w.ui.DisplaySummary(ctx, summary)
	w.ui.Wait(ctx)

	return nil
}

// generateEach fans the per-file pipelines out over a bounded errgroup. The
// dependency facts are read-only from here on, so the workers share them
// without locking.
func (w *workflow) generateEach(ctx context.Context, c components, facts []m.SourceFact, stubs map[m.Path][]string, outputDir m.Path, threads uint) []m.GenerationResult {
	results := make([]m.GenerationResult, len(facts))

	var mu sync.Mutex

	var group errgroup.Group
	if threads > 0 {
		group.SetLimit(int(threads))
	}

	for i, fact := range facts {
		group.Go(func() error {
			w.ui.DisplayFileStarting(ctx, fact.FilePath)

			result := w.generateFile(ctx, c, fact, stubs[fact.FilePath], outputDir)

			mu.Lock()
			results[i] = result
			mu.Unlock()

			w.ui.DisplayFileCompleted(ctx, result)

			return nil
		})
	}

	// Workers never return errors; failures are recorded per file.
	_ = group.Wait()

	return results
}

func (w *workflow) generateFile(ctx context.Context, c components, fact m.SourceFact, stubs []string, outputDir m.Path) m.GenerationResult {
	result := m.GenerationResult{Source: fact.FilePath}

	prompt := c.prompts.BuildFilePrompt(fact, stubs)

	raw, err := w.completion.Complete(ctx, prompt)
	if err != nil {
		result.Err = fmt.Errorf("completion for %s: %w", fact.FilePath, err)
		return result
	}

	testFile := w.fs.JoinPath(string(outputDir), testFileName(fact.FilePath))
	normalized := c.post.Normalize(raw, fact.Includes)

	if err := w.fs.WriteFile(testFile, []byte(normalized), 0o600); err != nil {
		result.Err = fmt.Errorf("write %s: %w", testFile, err)
		return result
	}

	result.TestFile = testFile

	report := c.validator.Validate(testFile, fact.FilePath)
	result.Report = &report

	w.ui.DisplayPreview(ctx, testFile, previewLines(normalized))

	return result
}

// generateBatch sends the whole repository as one prompt and writes a single
// test file named after the first analyzed source.
func (w *workflow) generateBatch(ctx context.Context, c components, facts []m.SourceFact, stubs map[m.Path][]string, outputDir m.Path) m.GenerationResult {
	first := facts[0]
	result := m.GenerationResult{Source: first.FilePath}

	w.ui.DisplayFileStarting(ctx, first.FilePath)
	defer func() { w.ui.DisplayFileCompleted(ctx, result) }()

	prompt := c.prompts.BuildBatchPrompt(facts, stubs)

	raw, err := w.completion.Complete(ctx, prompt)
	if err != nil {
		result.Err = fmt.Errorf("batch completion: %w", err)
		return result
	}

	includes := unionIncludes(facts)
	testFile := w.fs.JoinPath(string(outputDir), testFileName(first.FilePath))
	normalized := c.post.Normalize(raw, includes)

	if err := w.fs.WriteFile(testFile, []byte(normalized), 0o600); err != nil {
		result.Err = fmt.Errorf("write %s: %w", testFile, err)
		return result
	}

	result.TestFile = testFile

	report := c.validator.Validate(testFile, first.FilePath)
	result.Report = &report

	w.ui.DisplayPreview(ctx, testFile, previewLines(normalized))

	return result
}

func (w *workflow) Validate(ctx context.Context, args ValidateArgs) error {
	c := w.newComponents(args.RepoPath)

	facts, _, err := w.analyzeRepository(ctx, c, args.RepoPath, false)
	if err != nil {
		return err
	}

	testsDir := resolveOutputDir(args.RepoPath, args.TestsDir)

	tests, err := w.listGeneratedTests(testsDir)
	if err != nil {
		return err
	}

	if len(tests) == 0 {
		return fmt.Errorf("no generated tests found in %s", testsDir)
	}

	sourceByBase := make(map[string]m.Path, len(facts))
	for _, fact := range facts {
		sourceByBase[filepath.Base(string(fact.FilePath))] = fact.FilePath
	}

	reports := make([]m.ValidationReport, 0, len(tests))

	for _, test := range tests {
		source, ok := sourceByBase[sourceBaseForTest(test)]
		if !ok {
			slog.Warn("No matching source for generated test", "test", test)
			continue
		}

		reports = append(reports, c.validator.Validate(test, source))
	}

	if err := w.reports.SaveReports(testsDir, reports); err != nil {
		return fmt.Errorf("save validation reports: %w", err)
	}

	if err := w.ui.Start(ctx, controller.WithValidateMode()); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	return w.ui.DisplayValidationReports(ctx, reports)
}

func (w *workflow) saveReports(outputDir m.Path, results []m.GenerationResult) error {
	reports := make([]m.ValidationReport, 0, len(results))

	for _, result := range results {
		if result.Report != nil {
			reports = append(reports, *result.Report)
		}
	}

	if err := w.reports.SaveReports(outputDir, reports); err != nil {
		return fmt.Errorf("save validation reports: %w", err)
	}

	return nil
}

// testFileName maps src/temp_sensor.c to test_temp_sensor.c.
func testFileName(source m.Path) string {
	base := filepath.Base(string(source))
	return "test_" + strings.TrimSuffix(base, filepath.Ext(base)) + ".c"
}

// sourceBaseForTest maps test_temp_sensor.c back to temp_sensor.c.
func sourceBaseForTest(test m.Path) string {
	base := filepath.Base(string(test))
	return strings.TrimPrefix(strings.TrimSuffix(base, ".c"), "test_") + ".c"
}

// resolveOutputDir keeps absolute paths as given and anchors relative ones at
// the repository root.
func resolveOutputDir(repoPath, dir m.Path) m.Path {
	if filepath.IsAbs(string(dir)) {
		return dir
	}

	return m.Path(filepath.Join(string(repoPath), string(dir)))
}

func (w *workflow) listGeneratedTests(dir m.Path) ([]m.Path, error) {
	names, err := w.fs.ReadDirNames(dir)
	if err != nil {
		return nil, fmt.Errorf("read tests dir: %w", err)
	}

	var tests []m.Path

	for _, name := range names {
		if !strings.HasPrefix(name, "test_") || !strings.HasSuffix(name, ".c") {
			continue
		}

		tests = append(tests, w.fs.JoinPath(string(dir), name))
	}

	return tests, nil
}

func intersectChanged(files, changed []m.Path) []m.Path {
	changedSet := make(map[string]struct{}, len(changed))
	for _, path := range changed {
		changedSet[filepath.Clean(string(path))] = struct{}{}
	}

	var kept []m.Path

	for _, file := range files {
		if _, ok := changedSet[filepath.Clean(string(file))]; ok {
			kept = append(kept, file)
		}
	}

	return kept
}

func unionIncludes(facts []m.SourceFact) []string {
	seen := make(map[string]struct{})

	var includes []string

	for _, fact := range facts {
		for _, include := range fact.Includes {
			if _, ok := seen[include]; ok {
				continue
			}

			seen[include] = struct{}{}
			includes = append(includes, include)
		}
	}

	return includes
}

func countSucceeded(results []m.GenerationResult) int {
	count := 0

	for _, result := range results {
		if result.Succeeded() {
			count++
		}
	}

	return count
}

func previewLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > previewLineCount {
		lines = lines[:previewLineCount]
	}

	return lines
}
