package domain

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// authoringRules is the fixed instruction block appended to every per-file
// prompt. Its wording is a contract with the completion service: the
// downstream post-processor and validator assume stub tracking, tolerance
// based float assertions and code-only output.
const authoringRules = `INSTRUCTIONS:

Create a complete Unity test file named test_%s

Generate stub functions for ALL listed functions that need stubs

Stubs should track call counts and allow configuring return values

Test normal cases, edge cases, and error conditions

Use TEST_ASSERT_* macros appropriately; never compare floats for exact
equality, use TEST_ASSERT_FLOAT_WITHIN with a small tolerance

Include setUp() and tearDown() if needed

Do NOT define or call main(); the test runner provides the entry point

Generate ONLY the complete C test file code. No explanations, no markdown.`

// batchSeparator delimits sections of the whole-repository prompt.
var batchSeparator = strings.Repeat("=", 80)

// PromptBuilder renders prompts for the completion service. It performs no
// I/O of its own: source text and inventories are passed in by the caller.
type PromptBuilder struct {
	fs       adapter.SourceFSAdapter
	repoRoot m.Path
}

// NewPromptBuilder constructs a PromptBuilder rooted at the repository.
func NewPromptBuilder(fs adapter.SourceFSAdapter, repoRoot m.Path) *PromptBuilder {
	return &PromptBuilder{
		fs:       fs,
		repoRoot: repoRoot,
	}
}

// BuildFilePrompt renders the targeted single-file prompt: relative path,
// verbatim source, functions to test, stub list and the authoring rules.
// Section order is fixed and stable within a run.
func (p *PromptBuilder) BuildFilePrompt(fact m.SourceFact, stubs []string) string {
	relPath := p.relPath(fact.FilePath)
	base := filepath.Base(string(fact.FilePath))

	var b strings.Builder

	fmt.Fprintf(&b, "Generate Unity tests for this C file: %s\n\n", relPath)

	b.WriteString("SOURCE CODE TO TEST:\n```c\n")
	b.WriteString(p.readSourceText(fact.FilePath))
	b.WriteString("\n```\n\n")

	b.WriteString("FUNCTIONS TO TEST:\n")

	for _, fn := range fact.Functions {
		fmt.Fprintf(&b, "- %s %s\n", fn.ReturnType, fn.Name)
	}

	b.WriteString("\nINCLUDES:\n")

	if len(fact.Includes) == 0 {
		b.WriteString("- None\n")
	}

	for _, include := range fact.Includes {
		fmt.Fprintf(&b, "- %s\n", include)
	}

	b.WriteString("\nCALLED FUNCTIONS:\n")

	if len(fact.CalledIdentifiers) == 0 {
		b.WriteString("- None\n")
	}

	for _, called := range fact.CalledIdentifiers {
		fmt.Fprintf(&b, "- %s\n", called)
	}

	b.WriteString("\nFUNCTIONS THAT NEED STUBS (implement these as stub functions):\n")

	if len(stubs) == 0 {
		b.WriteString("- None\n")
	}

	for _, stub := range stubs {
		fmt.Fprintf(&b, "- %s\n", stub)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, authoringRules, base)

	return b.String()
}

// BuildBatchPrompt renders the whole-repository prompt: repository context,
// one analysis section per file, then the authoring rules, joined by the
// fixed separator.
func (p *PromptBuilder) BuildBatchPrompt(facts []m.SourceFact, stubsByFile map[m.Path][]string) string {
	parts := []string{p.buildRepositoryContext()}

	for _, fact := range facts {
		parts = append(parts, p.buildFileSection(fact, stubsByFile[fact.FilePath]))
	}

	parts = append(parts, fmt.Sprintf(authoringRules, "<original_filename>.c"))

	return "\n\n" + batchSeparator + "\n\n" + strings.Join(parts, "\n\n"+batchSeparator+"\n\n") + "\n" + batchSeparator
}

// buildRepositoryContext lists the repository's .c and .h files, sorted for a
// stable rendering.
func (p *PromptBuilder) buildRepositoryContext() string {
	cFiles, hFiles, err := p.fs.ListRepositoryFiles(p.repoRoot)
	if err != nil {
		return "REPOSITORY CONTEXT:\n// Unable to list repository files"
	}

	sortPaths(cFiles)
	sortPaths(hFiles)

	var b strings.Builder

	b.WriteString("REPOSITORY CONTEXT:\nThis is a C project with the following structure:\n\n")
	fmt.Fprintf(&b, "SOURCE FILES (%d):\n", len(cFiles))

	for _, f := range cFiles {
		fmt.Fprintf(&b, "  - %s\n", f)
	}

	fmt.Fprintf(&b, "\nHEADER FILES (%d):\n", len(hFiles))

	for _, f := range hFiles {
		fmt.Fprintf(&b, "  - %s\n", f)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (p *PromptBuilder) buildFileSection(fact m.SourceFact, stubs []string) string {
	relPath := p.relPath(fact.FilePath)

	var b strings.Builder

	fmt.Fprintf(&b, "FILE ANALYSIS: %s\n", relPath)
	b.WriteString(strings.Repeat("-", len(relPath)+15) + "\n\n")

	fmt.Fprintf(&b, "FUNCTIONS TO TEST (%d):\n", len(fact.Functions))

	for _, fn := range fact.Functions {
		fmt.Fprintf(&b, "  - %s\n", fn.SignatureText)
	}

	b.WriteString("\nDEPENDENCIES:\n")
	fmt.Fprintf(&b, "  Includes: %s\n", joinOrNone(fact.Includes))
	fmt.Fprintf(&b, "  Called Functions: %s\n", joinOrNone(fact.CalledIdentifiers))
	fmt.Fprintf(&b, "  Stubs Needed: %s\n", joinOrNone(stubs))

	b.WriteString("\nSOURCE CODE:\n```c\n")
	b.WriteString(p.readSourceText(fact.FilePath))
	b.WriteString("\n```")

	return b.String()
}

// readSourceText embeds the file content, or a placeholder comment when the
// file cannot be read. A read failure never fails prompt rendering.
func (p *PromptBuilder) readSourceText(path m.Path) string {
	content, err := p.fs.ReadFile(path)
	if err != nil {
		return "// Unable to read file"
	}

	return strings.TrimRight(string(content), "\n")
}

func (p *PromptBuilder) relPath(path m.Path) string {
	rel, err := p.fs.RelPath(p.repoRoot, path)
	if err != nil {
		return string(path)
	}

	return string(rel)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}

	return strings.Join(items, ", ")
}

func sortPaths(paths []m.Path) {
	sort.Slice(paths, func(i, j int) bool {
		return paths[i] < paths[j]
	})
}
