package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

// validationReportsFile is the file name used inside the output directory.
const validationReportsFile = "validation.yaml"

// ReportStore persists validation reports alongside the generated tests so a
// later `validate` run can compare against them.
type ReportStore interface {
	SaveReports(dir m.Path, reports []m.ValidationReport) error
	LoadReports(dir m.Path) ([]m.ValidationReport, error)
}

// YAMLReportStore stores reports as one YAML document per output directory.
type YAMLReportStore struct{}

// NewYAMLReportStore constructs a YAMLReportStore.
func NewYAMLReportStore() *YAMLReportStore {
	return &YAMLReportStore{}
}

// SaveReports writes the reports to <dir>/validation.yaml, creating dir if
// needed.
func (s *YAMLReportStore) SaveReports(dir m.Path, reports []m.ValidationReport) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("marshal reports: %w", err)
	}

	target := filepath.Join(string(dir), validationReportsFile)
	if err := os.WriteFile(target, data, 0o600); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	return nil
}

// LoadReports reads previously saved reports. A missing file is not an error;
// it returns an empty slice.
func (s *YAMLReportStore) LoadReports(dir m.Path) ([]m.ValidationReport, error) {
	data, err := os.ReadFile(filepath.Join(string(dir), validationReportsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("read reports: %w", err)
	}

	var reports []m.ValidationReport
	if err := yaml.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("unmarshal reports: %w", err)
	}

	return reports, nil
}
