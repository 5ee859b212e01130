package adapter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

func TestYAMLReportStore_RoundTrip(t *testing.T) {
	store := NewYAMLReportStore()
	dir := m.Path(filepath.Join(t.TempDir(), "generated"))

	reports := []m.ValidationReport{
		{
			File:      "generated/test_alarm.c",
			Compiles:  true,
			Realistic: true,
			Quality:   m.QualityHigh,
			Keep:      []string{"test_normal_case"},
		},
		{
			File:     "generated/test_temp_sensor.c",
			Compiles: false,
			Quality:  m.QualityLow,
			Issues:   []string{"missing test framework include \"unity.h\""},
			Fix:      []string{"test_conversion"},
		},
	}

	if err := store.SaveReports(dir, reports); err != nil {
		t.Fatalf("SaveReports failed: %v", err)
	}

	loaded, err := store.LoadReports(dir)
	if err != nil {
		t.Fatalf("LoadReports failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(loaded))
	}

	if loaded[0].Quality != m.QualityHigh || !loaded[0].Compiles {
		t.Fatalf("first report mangled: %+v", loaded[0])
	}

	if loaded[1].Quality != m.QualityLow || len(loaded[1].Issues) != 1 {
		t.Fatalf("second report mangled: %+v", loaded[1])
	}
}

func TestYAMLReportStore_LoadMissingFile(t *testing.T) {
	store := NewYAMLReportStore()

	loaded, err := store.LoadReports(m.Path(t.TempDir()))
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}

	if loaded != nil {
		t.Fatalf("expected nil reports, got %v", loaded)
	}
}

func TestYAMLReportStore_FileShape(t *testing.T) {
	store := NewYAMLReportStore()
	dir := m.Path(t.TempDir())

	reports := []m.ValidationReport{{File: "test_a.c", Compiles: true, Quality: m.QualityMedium}}
	if err := store.SaveReports(dir, reports); err != nil {
		t.Fatalf("SaveReports failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(string(dir), "validation.yaml"))
	if err != nil {
		t.Fatalf("read validation.yaml: %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "file: test_a.c") || !strings.Contains(text, "compiles: true") {
		t.Fatalf("unexpected yaml shape:\n%s", text)
	}

	// Quality persists as its display label, not the underlying int.
	if !strings.Contains(text, "quality: MEDIUM") {
		t.Fatalf("quality not persisted as label:\n%s", text)
	}

	loaded, err := store.LoadReports(dir)
	if err != nil {
		t.Fatalf("LoadReports failed: %v", err)
	}

	if len(loaded) != 1 || loaded[0].Quality != m.QualityMedium {
		t.Fatalf("quality label did not round-trip: %+v", loaded)
	}
}
