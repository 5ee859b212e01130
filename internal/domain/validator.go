package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// Standard headers a generated test may include even when the original source
// does not.
var standardHeaders = map[string]struct{}{
	"stdio.h":   {},
	"stdlib.h":  {},
	"string.h":  {},
	"math.h":    {},
	"stdint.h":  {},
	"stdbool.h": {},
	"stddef.h":  {},
	"limits.h":  {},
	"float.h":   {},
	"assert.h":  {},
	"ctype.h":   {},
	"unity.h":   {},
}

var (
	testFuncPattern = regexp.MustCompile(`(?m)void\s+(test_\w+)\s*\(\s*(?:void)?\s*\)\s*\{`)
	assertPattern   = regexp.MustCompile(`TEST_ASSERT\w*\s*\(`)

	equalIntPattern = regexp.MustCompile(`TEST_ASSERT_EQUAL_INT\s*\(\s*([01])\s*,\s*([^)]+?)\s*\)`)

	sentinelPattern = regexp.MustCompile(`\b(?:INT_MAX|INT_MIN|UINT_MAX|LONG_MAX|2147483647|-2147483648)\b`)

	edgeNamePattern = regexp.MustCompile(`(?i)edge|boundary|bound|limit|overflow|invalid|error`)

	resetCallPattern   = regexp.MustCompile(`\b\w*[Rr]eset\w*\s*\(`)
	resetAssignPattern = regexp.MustCompile(`=\s*(?:0|NULL|false)\s*;`)

	setUpPattern    = regexp.MustCompile(`void\s+setUp\s*\(`)
	tearDownPattern = regexp.MustCompile(`void\s+tearDown\s*\(\s*(?:void)?\s*\)\s*\{`)
)

// Validator statically cross-checks a generated test file against the facts
// of its original source. All checks run regardless of earlier failures so a
// single report aggregates every issue found; validation never raises past
// its own boundary.
type Validator struct {
	fs        adapter.SourceFSAdapter
	extractor *Extractor
	rules     []RealismRule
}

// NewValidator constructs a Validator with the default realism rules.
func NewValidator(fs adapter.SourceFSAdapter, extractor *Extractor) *Validator {
	return &Validator{
		fs:        fs,
		extractor: extractor,
		rules:     DefaultRealismRules(),
	}
}

// RegisterRealismRules appends domain-specific rows to the realism table.
func (v *Validator) RegisterRealismRules(rules ...RealismRule) {
	v.rules = append(v.rules, rules...)
}

// Validate checks the generated file on four independent axes and derives the
// coarse quality rating. Read failures are recorded as a single issue and
// force compiles=false, quality LOW.
func (v *Validator) Validate(generatedFile, originalSourceFile m.Path) m.ValidationReport {
	report := m.ValidationReport{
		File:      generatedFile,
		Compiles:  true,
		Realistic: true,
	}

	content, err := v.fs.ReadFile(generatedFile)
	if err != nil {
		report.Compiles = false
		report.Quality = m.QualityLow
		report.Issues = []string{fmt.Sprintf("could not read generated file: %v", err)}

		return report
	}

	text := string(content)
	generatedFact := v.extractor.Analyze(generatedFile)
	sourceFact := v.extractor.Analyze(originalSourceFile)

	compileIssues := v.checkCompilationSafety(text, generatedFact, sourceFact)
	realismIssues := v.checkRealism(text)
	qualityIssues := v.checkQuality(text)
	consistencyIssues := v.checkLogicalConsistency(text)

	if len(compileIssues) > 0 {
		report.Compiles = false
	}

	if len(realismIssues) > 0 {
		report.Realistic = false
	}

	report.Issues = append(report.Issues, compileIssues...)
	report.Issues = append(report.Issues, realismIssues...)
	report.Issues = append(report.Issues, qualityIssues...)
	report.Issues = append(report.Issues, consistencyIssues...)

	report.Keep, report.Fix, report.Remove = v.adviseActions(text, report.Issues)
	report.Quality = rateQuality(report)

	return report
}

// rateQuality derives the deterministic rating, in order of precedence.
func rateQuality(report m.ValidationReport) m.Quality {
	switch {
	case !report.Compiles:
		return m.QualityLow
	case len(report.Issues) == 0 && report.Realistic:
		return m.QualityHigh
	case len(report.Issues) <= 2:
		return m.QualityMedium
	default:
		return m.QualityLow
	}
}

// checkCompilationSafety flags anything that would plausibly fail the build.
func (v *Validator) checkCompilationSafety(text string, generated, source m.SourceFact) []string {
	var issues []string

	if strings.Contains(text, "```") {
		issues = append(issues, "stray markdown fence markers remain in the file")
	}

	if !containsInclude(generated.Includes, "unity.h") {
		issues = append(issues, "missing test framework include \"unity.h\"")
	}

	if offending := v.unknownHeaders(generated.Includes, source.Includes); len(offending) > 0 {
		issues = append(issues,
			fmt.Sprintf("includes not resolvable from the source under test: %s",
				strings.Join(offending, ", ")))
	}

	issues = append(issues, stubReturnTypeMismatches(generated, source)...)

	if dupes := duplicateFunctionNames(generated); len(dupes) > 0 {
		issues = append(issues,
			fmt.Sprintf("duplicate function definitions: %s", strings.Join(dupes, ", ")))
	}

	if mainCallSitePattern.MatchString(text) {
		issues = append(issues, "generated test calls main()")
	}

	return issues
}

var mainCallSitePattern = regexp.MustCompile(`\bmain\s*\(\s*\)`)

// unknownHeaders returns generated includes that are neither in the source's
// own include list nor plausibly standard.
func (v *Validator) unknownHeaders(generated, source []string) []string {
	allowed := make(map[string]struct{}, len(source))
	for _, header := range source {
		allowed[header] = struct{}{}
	}

	var offending []string

	seen := make(map[string]struct{})

	for _, header := range generated {
		if _, ok := allowed[header]; ok {
			continue
		}

		if _, std := standardHeaders[header]; std {
			continue
		}

		if _, dup := seen[header]; dup {
			continue
		}

		seen[header] = struct{}{}

		offending = append(offending, header)
	}

	return offending
}

// stubReturnTypeMismatches compares every generated function that shadows a
// source function against the source's extracted return type.
func stubReturnTypeMismatches(generated, source m.SourceFact) []string {
	sourceTypes := make(map[string]string, len(source.Functions))
	for _, fn := range source.Functions {
		sourceTypes[fn.Name] = fn.ReturnType
	}

	var issues []string

	for _, fn := range generated.Functions {
		want, ok := sourceTypes[fn.Name]
		if !ok || want == fn.ReturnType {
			continue
		}

		issues = append(issues,
			fmt.Sprintf("stub %s returns %s but source declares %s", fn.Name, fn.ReturnType, want))
	}

	return issues
}

// duplicateFunctionNames lists function names defined more than once in the
// generated file.
func duplicateFunctionNames(fact m.SourceFact) []string {
	counts := make(map[string]int)
	for _, fn := range fact.Functions {
		counts[fn.Name]++
	}

	var dupes []string

	for name, n := range counts {
		if n > 1 {
			dupes = append(dupes, name)
		}
	}

	sort.Strings(dupes)

	return dupes
}

// checkRealism runs the pluggable rule table plus the exact-float idiom
// check. The post-processor should have rewritten exact float equality; its
// survival here indicates upstream mutation or bypass.
func (v *Validator) checkRealism(text string) []string {
	var issues []string

	if exactFloatPattern.MatchString(text) {
		issues = append(issues, "exact float equality assertion survived post-processing")
	}

	for _, rule := range v.rules {
		issues = append(issues, rule.run(text)...)
	}

	return issues
}

// checkQuality applies the structural heuristics over the test suite shape.
func (v *Validator) checkQuality(text string) []string {
	var issues []string

	tests := testFunctionNames(text)
	asserts := len(assertPattern.FindAllString(text, -1))

	if len(tests) > 1 && !anyMatches(tests, edgeNamePattern) {
		issues = append(issues, "no boundary or edge-case test among the generated tests")
	}

	if asserts < len(tests) {
		issues = append(issues,
			fmt.Sprintf("fewer assertions (%d) than test functions (%d)", asserts, len(tests)))
	}

	if len(tests) > 5 && distinctSuffixes(tests) < 3 {
		issues = append(issues, "many near-duplicate test names; consolidate related cases")
	}

	hasSetUp := setUpPattern.MatchString(text)
	hasTearDown := tearDownPattern.MatchString(text)

	if len(tests) > 3 && (!hasSetUp || !hasTearDown) {
		issues = append(issues, "setUp/tearDown missing for a suite of this size")
	}

	if hasSetUp && hasTearDown && !tearDownResetsState(text) {
		issues = append(issues, "tearDown does not reset stub state")
	}

	return issues
}

// tearDownResetsState looks inside the tearDown body for a reset-style call
// or a direct zero/NULL/false assignment.
func tearDownResetsState(text string) bool {
	loc := tearDownPattern.FindStringIndex(text)
	if loc == nil {
		return false
	}

	end := matchBrace(text, loc[1]-1)
	if end < 0 {
		return false
	}

	body := text[loc[1]:end]

	return resetCallPattern.MatchString(body) || resetAssignPattern.MatchString(body)
}

// checkLogicalConsistency flags contradictory assertions and extreme
// sentinel thresholds.
func (v *Validator) checkLogicalConsistency(text string) []string {
	var issues []string

	issues = append(issues, contradictoryAssertions(text)...)

	for _, line := range strings.Split(text, "\n") {
		if assertPattern.MatchString(line) && sentinelPattern.MatchString(line) {
			issues = append(issues,
				fmt.Sprintf("extreme sentinel constant used as assertion threshold: %s",
					strings.TrimSpace(line)))
		}
	}

	return issues
}

// contradictoryAssertions detects EQUAL_INT(0, X) and EQUAL_INT(1, X) against
// the same subject within one test body.
func contradictoryAssertions(text string) []string {
	var issues []string

	for _, body := range testBodies(text) {
		expected := make(map[string]map[string]struct{})

		for _, match := range equalIntPattern.FindAllStringSubmatch(body.text, -1) {
			value, subject := match[1], strings.TrimSpace(match[2])

			if expected[subject] == nil {
				expected[subject] = make(map[string]struct{})
			}

			expected[subject][value] = struct{}{}
		}

		for subject, values := range expected {
			_, hasZero := values["0"]
			_, hasOne := values["1"]

			if hasZero && hasOne {
				issues = append(issues,
					fmt.Sprintf("%s asserts both 0 and 1 for %s", body.name, subject))
			}
		}
	}

	sort.Strings(issues)

	return issues
}

// adviseActions sorts test functions into keep/fix/remove advice from the
// aggregated issues.
func (v *Validator) adviseActions(text string, issues []string) (keep, fix, remove []string) {
	for _, name := range testFunctionNames(text) {
		implicated := false

		for _, issue := range issues {
			if strings.Contains(issue, name) {
				implicated = true
				break
			}
		}

		if implicated {
			fix = append(fix, name)
		} else {
			keep = append(keep, name)
		}
	}

	for _, issue := range issues {
		if strings.Contains(issue, "duplicate function definitions") ||
			strings.Contains(issue, "calls main()") {
			remove = append(remove, issue)
		}
	}

	return keep, fix, remove
}

type namedBody struct {
	name string
	text string
}

// testBodies extracts each test function's brace-matched body.
func testBodies(text string) []namedBody {
	var bodies []namedBody

	for _, loc := range testFuncPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[loc[2]:loc[3]]

		end := matchBrace(text, loc[1]-1)
		if end < 0 {
			end = len(text) - 1
		}

		bodies = append(bodies, namedBody{name: name, text: text[loc[1]:end]})
	}

	return bodies
}

func testFunctionNames(text string) []string {
	var names []string

	for _, match := range testFuncPattern.FindAllStringSubmatch(text, -1) {
		names = append(names, match[1])
	}

	return names
}

func anyMatches(names []string, pattern *regexp.Regexp) bool {
	for _, name := range names {
		if pattern.MatchString(name) {
			return true
		}
	}

	return false
}

// distinctSuffixes counts the distinct name parts after the last underscore.
func distinctSuffixes(names []string) int {
	suffixes := make(map[string]struct{})

	for _, name := range names {
		idx := strings.LastIndex(name, "_")
		if idx < 0 || idx == len(name)-1 {
			suffixes[name] = struct{}{}
			continue
		}

		suffixes[name[idx+1:]] = struct{}{}
	}

	return len(suffixes)
}

func containsInclude(includes []string, header string) bool {
	for _, include := range includes {
		if include == header {
			return true
		}
	}

	return false
}
