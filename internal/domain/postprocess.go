package domain

import (
	"regexp"
	"strings"
)

// unityInclude is the test-framework include every generated file must carry.
const unityInclude = `#include "unity.h"`

// floatTolerance is the fixed tolerance substituted for exact float equality.
const floatTolerance = "0.01"

var (
	fenceLinePattern = regexp.MustCompile("^```[a-zA-Z]*\\s*$")

	// exactFloatPattern captures both operands of an exact float equality
	// assertion so the rewrite can preserve their order.
	exactFloatPattern = regexp.MustCompile(`TEST_ASSERT_EQUAL_FLOAT\s*\(\s*([^,]+?)\s*,\s*([^)]+?)\s*\)`)

	// mainDefPattern locates a main definition up to its opening brace; the
	// body is removed by brace matching from there.
	mainDefPattern = regexp.MustCompile(`(?m)^\s*(?:\w+\s+)?main\s*\([^)]*\)\s*\{`)

	// mainCallPattern matches statements that invoke main directly.
	mainCallPattern = regexp.MustCompile(`(?m)^.*\bmain\s*\(\s*\)\s*;[^\n]*\n?`)

	// consoleIOPattern matches bare printf/scanf statements. Diagnostic
	// output that is never asserted on has no place in a test body.
	consoleIOPattern = regexp.MustCompile(`(?m)^\s*(?:printf|scanf)\s*\([^;]*\)\s*;\s*\n?`)
)

// PostProcessor normalizes raw completion output into compilable-looking
// source text. Every pass is total: when its pattern does not match, the text
// passes through unchanged. Normalization is idempotent; no rewrite target
// recurs after one application.
type PostProcessor struct{}

// NewPostProcessor constructs a PostProcessor.
func NewPostProcessor() *PostProcessor {
	return &PostProcessor{}
}

// Normalize applies the ordered rewrite passes. sourceIncludes is the include
// list of the original source file; generated includes not present there are
// dropped since they would fail to resolve at build time.
func (p *PostProcessor) Normalize(raw string, sourceIncludes []string) string {
	text := stripFences(raw)
	text = rewriteExactFloatEquality(text)
	text = removeMainEntryPoint(text)
	text = stripConsoleIO(text)
	text = filterIncludes(text, sourceIncludes)

	return strings.TrimRight(text, "\n") + "\n"
}

// stripFences removes leading and trailing code-fence marker lines.
func stripFences(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")

	for len(lines) > 0 && fenceLinePattern.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}

	for len(lines) > 0 && fenceLinePattern.MatchString(strings.TrimSpace(lines[len(lines)-1])) {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}

// rewriteExactFloatEquality converts exact float equality assertions to the
// tolerance form, preserving operand order.
func rewriteExactFloatEquality(text string) string {
	return exactFloatPattern.ReplaceAllString(text,
		"TEST_ASSERT_FLOAT_WITHIN("+floatTolerance+", $1, $2)")
}

// removeMainEntryPoint deletes any main definition (brace matched) and any
// direct call to main. A stray main would collide with the project's own
// entry point at link time.
func removeMainEntryPoint(text string) string {
	for {
		loc := mainDefPattern.FindStringIndex(text)
		if loc == nil {
			break
		}

		end := matchBrace(text, loc[1]-1)
		if end < 0 {
			// Unbalanced braces; drop from the definition to end of text.
			text = text[:loc[0]]
			break
		}

		text = text[:loc[0]] + text[end+1:]
	}

	return mainCallPattern.ReplaceAllString(text, "")
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(text string, open int) int {
	depth := 0

	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// stripConsoleIO removes bare printf/scanf statements.
func stripConsoleIO(text string) string {
	return consoleIOPattern.ReplaceAllString(text, "")
}

// filterIncludes keeps the unity include (exactly once) and any include also
// present in the original source; everything else is dropped. When the unity
// include is absent it is re-inserted as the first line.
func filterIncludes(text string, sourceIncludes []string) string {
	allowed := make(map[string]struct{}, len(sourceIncludes))
	for _, include := range sourceIncludes {
		allowed[include] = struct{}{}
	}

	var kept []string

	unitySeen := false

	for _, line := range strings.Split(text, "\n") {
		match := includePattern.FindStringSubmatch(line)
		if match == nil {
			kept = append(kept, line)
			continue
		}

		header := match[1]

		if header == "unity.h" {
			if unitySeen {
				continue
			}

			unitySeen = true

			kept = append(kept, line)

			continue
		}

		if _, ok := allowed[header]; ok {
			kept = append(kept, line)
		}
	}

	if !unitySeen {
		kept = append([]string{unityInclude}, kept...)
	}

	return strings.Join(kept, "\n")
}
