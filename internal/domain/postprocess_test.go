package domain

import (
	"strings"
	"testing"
)

func TestPostProcessor_Normalize_StripsFences(t *testing.T) {
	p := NewPostProcessor()

	raw := "```c\n#include \"unity.h\"\nvoid test_a(void) { TEST_ASSERT_TRUE(1); }\n```"

	got := p.Normalize(raw, nil)

	if strings.Contains(got, "```") {
		t.Fatalf("fence markers survived:\n%s", got)
	}

	if !strings.HasPrefix(got, `#include "unity.h"`) {
		t.Fatalf("unity include not first:\n%s", got)
	}
}

func TestPostProcessor_Normalize_RewritesExactFloatEquality(t *testing.T) {
	p := NewPostProcessor()

	raw := `#include "unity.h"
void test_conv(void) {
    TEST_ASSERT_EQUAL_FLOAT(3.0, convert(512));
}
`

	got := p.Normalize(raw, nil)

	if !strings.Contains(got, "TEST_ASSERT_FLOAT_WITHIN(0.01, 3.0, convert(512))") {
		t.Fatalf("operand order not preserved:\n%s", got)
	}

	if strings.Contains(got, "TEST_ASSERT_EQUAL_FLOAT") {
		t.Fatalf("exact equality assertion survived:\n%s", got)
	}
}

func TestPostProcessor_Normalize_RemovesMain(t *testing.T) {
	p := NewPostProcessor()

	raw := `#include "unity.h"
void test_a(void) { TEST_ASSERT_TRUE(1); }
int main(void) {
    UNITY_BEGIN();
    if (1) { RUN_TEST(test_a); }
    return UNITY_END();
}
`

	got := p.Normalize(raw, nil)

	if strings.Contains(got, "main") {
		t.Fatalf("main survived:\n%s", got)
	}

	if !strings.Contains(got, "void test_a(void)") {
		t.Fatalf("test function lost:\n%s", got)
	}
}

func TestPostProcessor_Normalize_StripsConsoleIO(t *testing.T) {
	p := NewPostProcessor()

	raw := `#include "unity.h"
void test_a(void) {
    printf("debugging %d\n", 1);
    TEST_ASSERT_TRUE(1);
}
`

	got := p.Normalize(raw, nil)

	if strings.Contains(got, "printf") {
		t.Fatalf("printf survived:\n%s", got)
	}

	if !strings.Contains(got, "TEST_ASSERT_TRUE(1);") {
		t.Fatalf("assertion lost:\n%s", got)
	}
}

func TestPostProcessor_Normalize_FiltersIncludes(t *testing.T) {
	p := NewPostProcessor()

	raw := `#include "unity.h"
#include "unity.h"
#include <stdio.h>
#include "private_header.h"
void test_a(void) { TEST_ASSERT_TRUE(1); }
`

	got := p.Normalize(raw, []string{"stdio.h"})

	if strings.Count(got, `#include "unity.h"`) != 1 {
		t.Fatalf("unity include not exactly once:\n%s", got)
	}

	if !strings.Contains(got, "<stdio.h>") {
		t.Fatalf("source include dropped:\n%s", got)
	}

	if strings.Contains(got, "private_header.h") {
		t.Fatalf("foreign include kept:\n%s", got)
	}
}

func TestPostProcessor_Normalize_InsertsMissingUnityInclude(t *testing.T) {
	p := NewPostProcessor()

	got := p.Normalize("void test_a(void) { TEST_ASSERT_TRUE(1); }\n", nil)

	if !strings.HasPrefix(got, `#include "unity.h"`) {
		t.Fatalf("unity include not inserted first:\n%s", got)
	}
}

func TestPostProcessor_Normalize_Idempotent(t *testing.T) {
	p := NewPostProcessor()

	raw := "```c\n" + `#include "unity.h"
#include <stdio.h>
void test_conv(void) {
    printf("x");
    TEST_ASSERT_EQUAL_FLOAT(1.5, scale(3));
}
int main(void) { return 0; }
` + "```"

	sourceIncludes := []string{"stdio.h"}

	once := p.Normalize(raw, sourceIncludes)
	twice := p.Normalize(once, sourceIncludes)

	if once != twice {
		t.Fatalf("Normalize is not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}
