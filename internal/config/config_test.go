package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lspgraph/internal/lsp"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, 3, cfg.SettleSeconds)
	assert.Empty(t, cfg.Server.Command)

	mask, err := cfg.KindMask()
	require.NoError(t, err)
	assert.True(t, mask.Keep(lsp.SymbolKindFunction))
	assert.True(t, mask.Keep(lsp.SymbolKindStruct))
	assert.False(t, mask.Keep(lsp.SymbolKindVariable))
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lspgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  command: rust-analyzer
  args: ["--log-file", "/tmp/ra.log"]
settle_seconds: 10
symbol_kinds: [function]
include: ["src/**/*.rs"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "rust-analyzer", cfg.Server.Command)
	assert.Equal(t, []string{"--log-file", "/tmp/ra.log"}, cfg.Server.Args)
	assert.Equal(t, 10, cfg.SettleSeconds)

	mask, err := cfg.KindMask()
	require.NoError(t, err)
	assert.True(t, mask.Keep(lsp.SymbolKindFunction))
	assert.False(t, mask.Keep(lsp.SymbolKindMethod))
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestKindMaskUnknownName(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.SymbolKinds = []string{"gadget"}

	_, err := cfg.KindMask()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gadget")
}

func TestMatcher(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Include = []string{"src/**/*.rs", "lib.rs"}

	match, err := cfg.Matcher()
	require.NoError(t, err)

	assert.True(t, match("src/a.rs"))
	assert.True(t, match("src/nested/deep/b.rs"))
	assert.True(t, match("lib.rs"))
	assert.False(t, match("src/a.go"))
	assert.False(t, match("tests/a.rs"))
}

func TestMatcherDefaultIncludesEverything(t *testing.T) {
	t.Parallel()

	match, err := Default().Matcher()
	require.NoError(t, err)
	assert.True(t, match("any/path/at/all.txt"))
}

func TestMatcherBadPattern(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Include = []string{"[unclosed"}

	_, err := cfg.Matcher()
	require.Error(t, err)
}
