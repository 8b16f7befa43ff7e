package translations

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullTranslationHelper(t *testing.T) {
	assert.Equal(t, "default", NullTranslationHelper("ANY_KEY", "default"))
}

func TestTranslationHelperPrefersEnvironment(t *testing.T) {
	t.Setenv("GITHUB_CONNECTOR_TOOL_READ_FILE_DESCRIPTION", "from env")

	th, _ := translationHelper(nil, t.TempDir())

	assert.Equal(t, "from env", th("tool_read_file_description", "fallback"))
	assert.Equal(t, "fallback", th("TOOL_UNSET_DESCRIPTION", "fallback"))
}

func TestTranslationHelperReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := map[string]string{"TOOL_SEARCH_CODE_DESCRIPTION": "from file"}
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigName+".json"), b, 0o600))

	th, _ := translationHelper(nil, dir)

	assert.Equal(t, "from file", th("TOOL_SEARCH_CODE_DESCRIPTION", "fallback"))
}

func TestTranslationHelperMemoizesFirstValue(t *testing.T) {
	th, _ := translationHelper(nil, t.TempDir())

	assert.Equal(t, "first", th("TOOL_X", "first"))
	assert.Equal(t, "first", th("tool_x", "second"))
}

func TestDumpTranslationKeyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, DumpTranslationKeyMap(path, map[string]string{"A": "b"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, map[string]string{"A": "b"}, got)
}
