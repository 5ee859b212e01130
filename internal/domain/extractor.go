// Package domain implements the analysis, prompting and validation pipeline
// for C test generation.
package domain

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// Lexical patterns shared by all extraction passes. This is pattern matching
// over C-like text, not a parser: multi-line signatures, macro-expanded
// definitions, function pointers and K&R declarations are known blind spots.
var (
	// commentStringPattern removes line comments, block comments and
	// double-quoted string literals in a single lossy pre-pass.
	commentStringPattern = regexp.MustCompile(`(?ms)//.*?$|/\*.*?\*/|"(?:\\.|[^"\\])*"`)

	// functionPattern matches `returnType name(params) {` on one line of the
	// cleaned text. Qualifiers like static/inline fold into the return type
	// imprecisely.
	functionPattern = regexp.MustCompile(`(\w+)\s+(\w+)\s*\([^)]*\)\s*\{`)

	// includePattern matches #include directives at start of line.
	includePattern = regexp.MustCompile(`(?m)^\s*#include\s+[<"]([^>"]+)[>"]`)

	// callPattern matches any identifier followed by an opening parenthesis.
	callPattern = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)
)

// DefaultCallStoplist holds the identifiers excluded from the called-identifier
// scan: control-flow keywords plus common library calls that never need stubs.
var DefaultCallStoplist = []string{
	"if", "while", "for", "switch", "return", "sizeof",
	"printf", "malloc", "free",
}

// ExtractorOption customizes an Extractor.
type ExtractorOption func(*Extractor)

// WithCallStoplist replaces the default call-site stoplist.
func WithCallStoplist(names []string) ExtractorOption {
	return func(e *Extractor) {
		e.stoplist = make(map[string]struct{}, len(names))
		for _, name := range names {
			e.stoplist[name] = struct{}{}
		}
	}
}

// Extractor derives SourceFacts from C source text using lexical pattern
// matching. Extraction is best-effort by design: it trades precision for
// recall and never fails on malformed input.
type Extractor struct {
	fs       adapter.SourceFSAdapter
	repoRoot m.Path
	stoplist map[string]struct{}
}

// NewExtractor constructs an Extractor rooted at the given repository.
func NewExtractor(fs adapter.SourceFSAdapter, repoRoot m.Path, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		fs:       fs,
		repoRoot: repoRoot,
	}

	WithCallStoplist(DefaultCallStoplist)(e)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Analyze extracts all facts for one file. A read failure yields a fact with
// empty collections and a logged warning; Analyze never returns an error.
func (e *Extractor) Analyze(path m.Path) m.SourceFact {
	fact := m.SourceFact{FilePath: path}

	content, err := e.fs.ReadFile(path)
	if err != nil {
		slog.Warn("could not read source file, returning empty facts", "path", path, "error", err)
		return fact
	}

	text := string(content)

	fact.Functions = e.ExtractFunctions(text)
	fact.Includes = e.ExtractIncludes(text)
	fact.CalledIdentifiers = e.ExtractCalledIdentifiers(text)
	fact.FileDependencies = e.resolveFileDependencies(path, fact.Includes)

	return fact
}

// StripCommentsAndStrings removes comments and string literals so later scans
// do not match inside them. The pass is idempotent: stripping twice equals
// stripping once. It does not handle every escaped-quote or char-literal edge
// case.
func (e *Extractor) StripCommentsAndStrings(src string) string {
	return commentStringPattern.ReplaceAllString(src, "")
}

// ExtractFunctions returns the function signatures matched in src, in source
// order. Repeated names are all retained.
func (e *Extractor) ExtractFunctions(src string) []m.FunctionSignature {
	clean := e.StripCommentsAndStrings(src)

	var functions []m.FunctionSignature

	for _, match := range functionPattern.FindAllStringSubmatch(clean, -1) {
		returnType, name := match[1], match[2]
		functions = append(functions, m.FunctionSignature{
			Name:          name,
			ReturnType:    returnType,
			SignatureText: fmt.Sprintf("%s %s(...)", returnType, name),
		})
	}

	return functions
}

// ExtractIncludes returns the header names of all #include directives in file
// order, without deduplication.
func (e *Extractor) ExtractIncludes(src string) []string {
	var includes []string

	for _, match := range includePattern.FindAllStringSubmatch(src, -1) {
		includes = append(includes, match[1])
	}

	return includes
}

// ExtractCalledIdentifiers scans the cleaned text for `identifier(` patterns,
// skipping the stoplist and identifiers starting with an uppercase letter
// (macro-style constants). The result keeps first-occurrence order with
// set semantics.
func (e *Extractor) ExtractCalledIdentifiers(src string) []string {
	clean := e.StripCommentsAndStrings(src)

	var called []string

	seen := make(map[string]struct{})

	for _, match := range callPattern.FindAllStringSubmatch(clean, -1) {
		name := match[1]

		if _, stop := e.stoplist[name]; stop {
			continue
		}

		if name[0] >= 'A' && name[0] <= 'Z' {
			continue
		}

		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}

		called = append(called, name)
	}

	return called
}

// resolveFileDependencies probes a fixed list of candidate locations for a .c
// file matching each .h include. First existing candidate wins per include;
// there is no nested directory search.
func (e *Extractor) resolveFileDependencies(path m.Path, includes []string) []m.Path {
	var deps []m.Path

	seen := make(map[m.Path]struct{})

	for _, include := range includes {
		if !strings.HasSuffix(include, ".h") {
			continue
		}

		stem := strings.TrimSuffix(include, ".h")
		candidates := []m.Path{
			e.fs.JoinPath(filepath.Dir(string(path)), stem+".c"),
			e.fs.JoinPath(string(e.repoRoot), stem+".c"),
			e.fs.JoinPath(string(e.repoRoot), "src", stem+".c"),
			e.fs.JoinPath(string(e.repoRoot), "source", stem+".c"),
			e.fs.JoinPath(string(e.repoRoot), "lib", stem+".c"),
		}

		for _, candidate := range candidates {
			if !e.fs.FileExists(candidate) {
				continue
			}

			if _, dup := seen[candidate]; !dup {
				seen[candidate] = struct{}{}

				deps = append(deps, candidate)
			}

			break
		}
	}

	return deps
}
