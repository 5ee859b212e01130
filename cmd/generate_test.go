package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCmd_MissingCredential(t *testing.T) {
	t.Setenv("CTESTGEN_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	// Run from a directory without a .env file.
	t.Chdir(t.TempDir())

	_, err := executeRoot(t, "generate", ".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestGenerateCmd_FlagDefaults(t *testing.T) {
	cmd := newGenerateCmd()

	output, err := cmd.Flags().GetInt(parallelFlagName)
	require.NoError(t, err)
	assert.Equal(t, defaultParallel, output)

	batch, err := cmd.Flags().GetBool(batchFlagName)
	require.NoError(t, err)
	assert.False(t, batch)

	changed, err := cmd.Flags().GetBool(changedOnlyFlagName)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestResolveAPIKey_FlagWins(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	assert.Equal(t, "from-flag", resolveAPIKey("from-flag"))
}

func TestResolveAPIKey_ViperEnv(t *testing.T) {
	t.Setenv("CTESTGEN_API_KEY", "from-ctestgen-env")
	t.Setenv("GEMINI_API_KEY", "from-gemini-env")

	assert.Equal(t, "from-ctestgen-env", resolveAPIKey(""))
}

func TestResolveAPIKey_GeminiFallback(t *testing.T) {
	t.Setenv("CTESTGEN_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "from-gemini-env")

	assert.Equal(t, "from-gemini-env", resolveAPIKey(""))
}
