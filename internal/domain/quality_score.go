package domain

import (
	m "ctestgen.dev/pkg/ctestgen/internal/model"
	"ctestgen.dev/pkg/ctestgen/pkg"
)

// qualityScoreFromReports computes the percentage of reports rated HIGH or
// MEDIUM across the spilled batch. An empty batch scores 100: nothing
// generated, nothing wrong.
func qualityScoreFromReports(reports pkg.FileSpill[m.ValidationReport]) (float64, error) {
	good := 0
	total := 0

	err := reports.Range(func(_ uint64, report m.ValidationReport) error {
		total++

		switch report.Quality {
		case m.QualityHigh, m.QualityMedium:
			good++
		case m.QualityLow:
		}

		return nil
	})
	if err != nil {
		return 0.0, err
	}

	if total == 0 {
		return 100.0, nil
	}

	return float64(good) / float64(total) * 100.0, nil
}
