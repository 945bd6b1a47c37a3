package build

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgbundle/internal/logging"
	"github.com/vvka-141/pgbundle/internal/manifest"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestPatcher_RootAndNestedTargets(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"Cargo.toml":            "pgrx = \"=0.11.3\"\n",
		"crates/sub/Cargo.toml": "pgrx = \"=0.11.3\"\n",
		"src/lib.rs":            "// pgrx = \"=0.11.3\"\n",
		".git/Cargo.toml":       "pgrx = \"=0.11.3\"\n",
	})

	p := NewPatcher(logging.NewNullLogger())
	results, err := p.Apply("demo", dir, []manifest.Patch{{
		Expression: `s/pgrx = "=0.11.3"/pgrx = "=0.12.9"/`,
		Files:      []string{"**/Cargo.toml"},
	}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"Cargo.toml", "crates/sub/Cargo.toml"}, results[0].Changed)

	content, err := os.ReadFile(filepath.Join(dir, "Cargo.toml"))
	require.NoError(t, err)
	assert.Equal(t, "pgrx = \"=0.12.9\"\n", string(content))

	untouched, err := os.ReadFile(filepath.Join(dir, "src", "lib.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(untouched), "0.11.3")

	gitFile, err := os.ReadFile(filepath.Join(dir, ".git", "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(gitFile), "0.11.3")
}

func TestPatcher_ExactPath(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a.c": "#define LIMIT 10\n",
		"src/b.c": "#define LIMIT 10\n",
	})

	results, err := NewPatcher(logging.NewNullLogger()).Apply("demo", dir, []manifest.Patch{{
		Expression: `s/LIMIT 10/LIMIT 20/`,
		Files:      []string{"src/b.c"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/b.c"}, results[0].Changed)
}

func TestPatcher_InvalidExpression(t *testing.T) {
	_, err := NewPatcher(logging.NewNullLogger()).Apply("demo", t.TempDir(), []manifest.Patch{{
		Expression: "not sed",
		Files:      []string{"**"},
	}})
	assert.Error(t, err)
}

func TestPatcher_StaleWarns(t *testing.T) {
	logger := &recordingLogger{}
	dir := writeTree(t, map[string]string{"Makefile": "all:\n"})

	results, err := NewPatcher(logger).Apply("demo", dir, []manifest.Patch{{
		Expression: "s/-Werror//",
		Files:      []string{"**/Makefile*"},
	}})
	require.NoError(t, err)
	assert.True(t, results[0].Stale())
	require.Len(t, logger.warns, 1)
	assert.Contains(t, logger.warns[0], "matched no files")
}
