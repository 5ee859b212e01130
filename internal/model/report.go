package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Quality is the coarse rating the validator assigns to a generated test file.
type Quality int

const (
	// QualityHigh means the file looks compilable, realistic and issue-free.
	QualityHigh Quality = iota
	// QualityMedium means the file compiles but carries a small number of issues.
	QualityMedium
	// QualityLow means the file likely does not compile or carries many issues.
	QualityLow
)

// String returns the display label for the quality rating.
func (q Quality) String() string {
	switch q {
	case QualityHigh:
		return "HIGH"
	case QualityMedium:
		return "MEDIUM"
	case QualityLow:
		return "LOW"
	}

	return "UNKNOWN"
}

// MarshalYAML persists the rating as its display label instead of an int.
func (q Quality) MarshalYAML() (interface{}, error) {
	return q.String(), nil
}

// UnmarshalYAML accepts the display label written by MarshalYAML.
func (q *Quality) UnmarshalYAML(node *yaml.Node) error {
	var label string
	if err := node.Decode(&label); err != nil {
		return err
	}

	switch label {
	case "HIGH":
		*q = QualityHigh
	case "MEDIUM":
		*q = QualityMedium
	case "LOW":
		*q = QualityLow
	default:
		return fmt.Errorf("unknown quality label %q", label)
	}

	return nil
}

// ValidationReport is the outcome of statically checking one generated test
// file against the facts of its original source. It is purely derived and
// never mutated after creation.
type ValidationReport struct {
	File      Path     `yaml:"file"`
	Compiles  bool     `yaml:"compiles"`
	Realistic bool     `yaml:"realistic"`
	Quality   Quality  `yaml:"quality"`
	Issues    []string `yaml:"issues,omitempty"`
	Keep      []string `yaml:"keep,omitempty"`
	Fix       []string `yaml:"fix,omitempty"`
	Remove    []string `yaml:"remove,omitempty"`
}

// GenerationResult records the per-file outcome of one pipeline pass.
// A failed completion call is a result, not a batch abort.
type GenerationResult struct {
	Source   Path
	TestFile Path
	Err      error
	Report   *ValidationReport
}

// Succeeded reports whether a test file was produced for the source.
func (r GenerationResult) Succeeded() bool {
	return r.Err == nil
}

// RunSummary tallies a whole generation run.
type RunSummary struct {
	RunID        string
	Total        int
	Generated    int
	Failed       int
	QualityScore float64
}
