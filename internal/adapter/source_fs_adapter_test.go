package adapter

import (
	"path/filepath"
	"testing"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

func sensorRepo() m.Path {
	return m.Path(filepath.Join("..", "..", "examples", "sensor"))
}

func TestLocalSourceFSAdapter_EnumerateSourceFiles(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	files, err := a.EnumerateSourceFiles(sensorRepo())
	if err != nil {
		t.Fatalf("EnumerateSourceFiles failed: %v", err)
	}

	bases := make([]string, 0, len(files))
	for _, file := range files {
		bases = append(bases, filepath.Base(string(file)))
	}

	want := []string{"alarm.c", "temp_sensor.c"}
	if len(bases) != len(want) {
		t.Fatalf("expected %v, got %v", want, bases)
	}

	for i, base := range want {
		if bases[i] != base {
			t.Fatalf("expected %q at %d, got %q", base, i, bases[i])
		}
	}
}

func TestLocalSourceFSAdapter_EnumerateSkipsOutsideSrc(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	files, err := a.EnumerateSourceFiles(sensorRepo())
	if err != nil {
		t.Fatalf("EnumerateSourceFiles failed: %v", err)
	}

	for _, file := range files {
		if filepath.Base(string(file)) == "main.c" {
			t.Fatalf("main.c outside src/ should not be enumerated: %v", files)
		}

		if filepath.Base(filepath.Dir(string(file))) == "build" {
			t.Fatalf("build/ contents should be skipped: %v", files)
		}
	}
}

func TestIsTestLikeFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"src/test_sensor.c", true},
		{"src/sensor_test.c", true},
		{"src/unity_runner.c", true},
		{"src/TESTBENCH.c", true},
		{"src/sensor.c", false},
		{"src/alarm.c", false},
	}

	for _, tc := range cases {
		if got := IsTestLikeFile(tc.path); got != tc.want {
			t.Errorf("IsTestLikeFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestLocalSourceFSAdapter_ListRepositoryFiles(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	cFiles, hFiles, err := a.ListRepositoryFiles(sensorRepo())
	if err != nil {
		t.Fatalf("ListRepositoryFiles failed: %v", err)
	}

	// Inventory is unfiltered apart from hidden dirs: main.c and the
	// hand-written test file are both listed, paths relative to root.
	foundMain := false

	for _, file := range cFiles {
		if filepath.IsAbs(string(file)) {
			t.Fatalf("expected relative path, got %s", file)
		}

		if string(file) == "main.c" {
			foundMain = true
		}
	}

	if !foundMain {
		t.Fatalf("expected main.c in inventory, got %v", cFiles)
	}

	if len(hFiles) != 1 || filepath.Base(string(hFiles[0])) != "temp_sensor.h" {
		t.Fatalf("expected temp_sensor.h, got %v", hFiles)
	}
}

func TestLocalSourceFSAdapter_FileExists(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	if !a.FileExists(a.JoinPath(string(sensorRepo()), "src", "alarm.c")) {
		t.Fatal("expected alarm.c to exist")
	}

	// Directories are not files.
	if a.FileExists(a.JoinPath(string(sensorRepo()), "src")) {
		t.Fatal("expected src/ directory to report false")
	}
}

func TestLocalSourceFSAdapter_ReadDirNames(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	names, err := a.ReadDirNames(a.JoinPath(string(sensorRepo()), "src"))
	if err != nil {
		t.Fatalf("ReadDirNames failed: %v", err)
	}

	want := []string{"alarm.c", "temp_sensor.c", "temp_sensor.h", "test_temp_sensor.c"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}

	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected %q at %d, got %q", name, i, names[i])
		}
	}

	if _, err := a.ReadDirNames(a.JoinPath(string(sensorRepo()), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLocalSourceFSAdapter_RelPath(t *testing.T) {
	a := NewLocalSourceFSAdapter()

	rel, err := a.RelPath(sensorRepo(), a.JoinPath(string(sensorRepo()), "src", "alarm.c"))
	if err != nil {
		t.Fatalf("RelPath failed: %v", err)
	}

	if string(rel) != filepath.Join("src", "alarm.c") {
		t.Fatalf("unexpected relative path: %s", rel)
	}
}
