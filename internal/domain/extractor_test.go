package domain

import (
	"path/filepath"
	"strings"
	"testing"

	"ctestgen.dev/pkg/ctestgen/internal/adapter"
	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

func sensorRepo() string {
	return filepath.Join("..", "..", "examples", "sensor")
}

func newTestExtractor(opts ...ExtractorOption) *Extractor {
	return NewExtractor(adapter.NewLocalSourceFSAdapter(), m.Path(sensorRepo()), opts...)
}

func TestExtractor_Analyze_AlarmFile(t *testing.T) {
	e := newTestExtractor()

	fact := e.Analyze(m.Path(filepath.Join(sensorRepo(), "src", "alarm.c")))

	if len(fact.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(fact.Functions))
	}

	fn := fact.Functions[0]
	if fn.Name != "check_overheat" || fn.ReturnType != "int" {
		t.Fatalf("unexpected function: %+v", fn)
	}

	if fn.SignatureText != "int check_overheat(...)" {
		t.Fatalf("unexpected signature text: %q", fn.SignatureText)
	}

	wantIncludes := []string{"stdio.h", "temp_sensor.h"}
	if len(fact.Includes) != len(wantIncludes) {
		t.Fatalf("expected includes %v, got %v", wantIncludes, fact.Includes)
	}

	for i, include := range wantIncludes {
		if fact.Includes[i] != include {
			t.Fatalf("expected include %q at %d, got %q", include, i, fact.Includes[i])
		}
	}

	// printf and if are stoplisted; first-occurrence order is kept.
	wantCalled := []string{"check_overheat", "convert_raw_to_celsius", "is_valid_reading"}
	if len(fact.CalledIdentifiers) != len(wantCalled) {
		t.Fatalf("expected called %v, got %v", wantCalled, fact.CalledIdentifiers)
	}

	for i, called := range wantCalled {
		if fact.CalledIdentifiers[i] != called {
			t.Fatalf("expected called %q at %d, got %q", called, i, fact.CalledIdentifiers[i])
		}
	}

	if len(fact.FileDependencies) != 1 {
		t.Fatalf("expected 1 file dependency, got %v", fact.FileDependencies)
	}

	if filepath.Base(string(fact.FileDependencies[0])) != "temp_sensor.c" {
		t.Fatalf("expected dependency on temp_sensor.c, got %s", fact.FileDependencies[0])
	}
}

func TestExtractor_Analyze_UnreadableFile(t *testing.T) {
	e := newTestExtractor()

	fact := e.Analyze(m.Path(filepath.Join(sensorRepo(), "src", "no_such_file.c")))

	if len(fact.Functions) != 0 || len(fact.Includes) != 0 || len(fact.CalledIdentifiers) != 0 {
		t.Fatalf("expected empty facts for unreadable file, got %+v", fact)
	}
}

func TestExtractor_ExtractFunctions_NoDefinitions(t *testing.T) {
	e := newTestExtractor()

	src := `#include <stdio.h>
extern int counter;
/* int fake_function(void) { return 0; } */
`

	if got := e.ExtractFunctions(src); len(got) != 0 {
		t.Fatalf("expected no functions, got %v", got)
	}
}

func TestExtractor_ExtractFunctions_DuplicatesKeptInOrder(t *testing.T) {
	e := newTestExtractor()

	src := `int reset(void) { return 0; }
float scale(float x) { return x; }
int reset(void) { return 1; }
`

	got := e.ExtractFunctions(src)
	if len(got) != 3 {
		t.Fatalf("expected 3 signatures, got %d", len(got))
	}

	wantNames := []string{"reset", "scale", "reset"}
	for i, name := range wantNames {
		if got[i].Name != name {
			t.Fatalf("expected %q at %d, got %q", name, i, got[i].Name)
		}
	}
}

func TestExtractor_StripCommentsAndStrings_Idempotent(t *testing.T) {
	e := newTestExtractor()

	src := `int f(void) { // trailing comment
    char *s = "quoted \"call()\" text";
    /* block
       comment */
    return 0;
}
`

	once := e.StripCommentsAndStrings(src)
	twice := e.StripCommentsAndStrings(once)

	if once != twice {
		t.Fatalf("strip is not idempotent:\nonce: %q\ntwice: %q", once, twice)
	}

	if strings.Contains(once, "call()") {
		t.Fatalf("string literal content survived stripping: %q", once)
	}
}

func TestExtractor_CalledIdentifiers_StoplistAndMacros(t *testing.T) {
	e := newTestExtractor()

	src := `void run(void) {
    if (x) {
        printf("x");
        malloc(4);
        free(p);
        INIT_MACRO(p);
        helper(p);
        helper(q);
    }
}
`

	got := e.ExtractCalledIdentifiers(src)

	// run and helper survive; if, printf, malloc and free are stoplisted;
	// INIT_MACRO is macro-shaped.
	want := []string{"run", "helper"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	for i, name := range want {
		if got[i] != name {
			t.Fatalf("expected %q at %d, got %q", name, i, got[i])
		}
	}
}

func TestExtractor_CustomStoplist(t *testing.T) {
	e := newTestExtractor(WithCallStoplist([]string{"free"}))

	got := e.ExtractCalledIdentifiers(`void run(void) { free(p); printf("x"); }`)

	want := []string{"run", "printf"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	for i, name := range want {
		if got[i] != name {
			t.Fatalf("expected %q at %d, got %q", name, i, got[i])
		}
	}
}

func TestExtractor_ExtractIncludes_NoDedup(t *testing.T) {
	e := newTestExtractor()

	src := `#include <stdio.h>
#include "temp_sensor.h"
#include <stdio.h>
  #include <math.h>
not_an_include "fake.h"
`

	got := e.ExtractIncludes(src)

	want := []string{"stdio.h", "temp_sensor.h", "stdio.h", "math.h"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	for i, header := range want {
		if got[i] != header {
			t.Fatalf("expected %q at %d, got %q", header, i, got[i])
		}
	}
}
