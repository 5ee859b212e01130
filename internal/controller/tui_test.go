package controller

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "ctestgen.dev/pkg/ctestgen/internal/model"
)

func TestGenerationModel_ProgressFlow(t *testing.T) {
	model := newGenerationModel(2)

	updated, _ := model.Update(fileStartedMsg{path: "src/alarm.c"})
	gm, ok := updated.(generationModel)
	require.True(t, ok)
	assert.Contains(t, gm.View(), "src/alarm.c")

	updated, _ = gm.Update(fileDoneMsg{result: m.GenerationResult{
		Source:   "src/alarm.c",
		TestFile: "tests/generated/test_alarm.c",
		Report:   &m.ValidationReport{Quality: m.QualityHigh},
	}})
	gm, ok = updated.(generationModel)
	require.True(t, ok)

	assert.Equal(t, 1, gm.completed)
	assert.Equal(t, 0, gm.failed)
	assert.Empty(t, gm.current)
	assert.Contains(t, gm.View(), "test_alarm.c")
	assert.Contains(t, gm.View(), "HIGH")
}

func TestGenerationModel_FailedFileCounted(t *testing.T) {
	model := newGenerationModel(1)

	updated, _ := model.Update(fileDoneMsg{result: m.GenerationResult{
		Source: "src/alarm.c",
		Err:    assert.AnError,
	}})
	gm := updated.(generationModel)

	assert.Equal(t, 1, gm.failed)
	assert.Contains(t, gm.View(), "src/alarm.c")
}

func TestGenerationModel_SummaryQuits(t *testing.T) {
	model := newGenerationModel(1)

	updated, cmd := model.Update(runDoneMsg{summary: m.RunSummary{
		RunID:        "run-1",
		Total:        1,
		Generated:    1,
		QualityScore: 100,
	}})
	gm := updated.(generationModel)

	require.NotNil(t, cmd)
	assert.True(t, gm.quitting)
	assert.Contains(t, gm.View(), "1/1 generated")
}

func TestGenerationModel_QuitKeys(t *testing.T) {
	model := newGenerationModel(1)

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
	} {
		updated, cmd := model.Update(key)
		gm := updated.(generationModel)

		assert.True(t, gm.quitting, "key %v should quit", key)
		require.NotNil(t, cmd)
	}
}

func TestFormatOutcome(t *testing.T) {
	ok := formatOutcome(m.GenerationResult{TestFile: "test_a.c"})
	assert.Contains(t, ok, "test_a.c")

	failed := formatOutcome(m.GenerationResult{Source: "a.c", Err: assert.AnError})
	assert.Contains(t, failed, "a.c")
}

func TestAppendBounded(t *testing.T) {
	var items []string
	for i := 0; i < 8; i++ {
		items = appendBounded(items, strings.Repeat("x", i+1), 5)
	}

	assert.Len(t, items, 5)
	assert.Equal(t, "xxxx", items[0])
}
