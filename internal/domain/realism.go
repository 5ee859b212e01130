package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// RealismRule is one row of the pluggable realism table. Rules flag literals
// that are physically implausible for the domain under test. A rule either
// supplies Pattern/Range/ContextGate and lets the shared scanner drive it, or
// overrides Apply entirely for checks a single regex cannot express.
type RealismRule struct {
	Name string

	// Pattern locates candidate literal sites, scanned line by line.
	Pattern *regexp.Regexp

	// Range reports whether a parsed literal value is implausible.
	// Nil means any Pattern match is implausible.
	Range func(value float64) bool

	// ContextGate accepts the line despite a Range hit: contextual cues such
	// as "raw" or "adc" mean the literal is in a different unit.
	ContextGate *regexp.Regexp

	// Issue is the issue-text template; the offending line is appended.
	Issue string

	// Apply, when set, replaces the shared scanner for this rule.
	Apply func(text string) []string
}

// run evaluates the rule against the full text and returns issue strings.
func (r RealismRule) run(text string) []string {
	if r.Apply != nil {
		return r.Apply(text)
	}

	var issues []string

	for _, line := range strings.Split(text, "\n") {
		match := r.Pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		if r.Range != nil {
			value, err := strconv.ParseFloat(strings.TrimSuffix(match[len(match)-1], "f"), 64)
			if err != nil || !r.Range(value) {
				continue
			}
		}

		if r.ContextGate != nil && r.ContextGate.MatchString(line) {
			continue
		}

		issues = append(issues, fmt.Sprintf("%s: %s", r.Issue, strings.TrimSpace(line)))
	}

	return issues
}

var (
	absoluteZeroPattern = regexp.MustCompile(`-273\.15\d*`)
	overflowPattern     = regexp.MustCompile(`\b\d{10,}\b`)
	// Only float-shaped literals are treated as candidate temperatures;
	// integer literals on the same line are usually raw counts.
	tempLiteralPattern = regexp.MustCompile(`(-?\d+\.\d+)f?\b`)
	rawContextPattern  = regexp.MustCompile(`(?i)\braw\b|\badc\b`)
	nullAssignPattern  = regexp.MustCompile(`\b(\w+)\s*=\s*NULL\s*;`)
)

// DefaultRealismRules returns the built-in table. The temperature rows match
// the sensor domain this tool grew up with; other domains register their own
// rows instead of branching in shared code.
func DefaultRealismRules() []RealismRule {
	return []RealismRule{
		{
			Name:    "absolute-zero",
			Pattern: absoluteZeroPattern,
			Issue:   "absolute-zero temperature constant used as a test value",
		},
		{
			Name:    "overflow-magnitude",
			Pattern: overflowPattern,
			Issue:   "overflow-scale literal magnitude",
		},
		{
			Name:  "temperature-range",
			Apply: temperatureRangeCheck,
		},
		{
			Name:  "null-self-assignment",
			Apply: nullSelfAssignmentCheck,
		},
	}
}

// temperatureRangeCheck flags literals outside roughly -100..200 on lines
// that plausibly deal in temperatures, unless raw/adc cues suggest the value
// is in a different unit.
func temperatureRangeCheck(text string) []string {
	var issues []string

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "temp") {
			continue
		}

		if rawContextPattern.MatchString(line) {
			continue
		}

		for _, match := range tempLiteralPattern.FindAllStringSubmatch(line, -1) {
			value, err := strconv.ParseFloat(match[1], 64)
			if err != nil {
				continue
			}

			if value < -100 || value > 200 {
				issues = append(issues,
					fmt.Sprintf("temperature value %s outside plausible range: %s",
						match[1], strings.TrimSpace(line)))

				break
			}
		}
	}

	return issues
}

// nullSelfAssignmentCheck flags a pointer nulled out and immediately
// dereferenced or asserted non-NULL on the following line.
func nullSelfAssignmentCheck(text string) []string {
	lines := strings.Split(text, "\n")

	var issues []string

	for i, line := range lines {
		match := nullAssignPattern.FindStringSubmatch(line)
		if match == nil || i+1 >= len(lines) {
			continue
		}

		name := match[1]
		next := lines[i+1]

		if strings.Contains(next, name+"->") ||
			strings.Contains(next, "TEST_ASSERT_NOT_NULL("+name) {
			issues = append(issues,
				fmt.Sprintf("suspicious NULL assignment to %s immediately before use", name))
		}
	}

	return issues
}
