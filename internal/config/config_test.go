package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestResolveFindsJSONC(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".frogrc.jsonc", "{}")

	path, err := Resolve(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".frogrc.jsonc"), path)
}

func TestResolveReturnsEmptyWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path, err := Resolve(dir)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestResolveErrorsOnMissingWorkspace(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"inventory"}, cfg.InventoryRoots)
	assert.False(t, cfg.BootstrapClean)
}

func TestLoadParsesJSONCWithComments(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".frogrc.jsonc", `{
		// inline comment, stripped by jsonc before decoding
		"inventory_roots": ["prod", "staging"],
		"bootstrap_clean": true,
	}`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"prod", "staging"}, cfg.InventoryRoots)
	assert.True(t, cfg.BootstrapClean)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".frogrc.jsonc", `{"bootstrap_directory": "/opt/from-file"}`)

	t.Setenv("FROG_BOOTSTRAP_DIRECTORY", "/opt/from-env")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/from-env", cfg.BootstrapDirectory)
}

func TestLoadExplicitConfigPathOverridesSearch(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".frogrc.jsonc", `{"bootstrap_directory": "/opt/default-name"}`)
	other := writeConfig(t, dir, "custom.jsonc", `{"bootstrap_directory": "/opt/explicit"}`)

	cfg, err := Load(dir, other)
	require.NoError(t, err)
	assert.Equal(t, "/opt/explicit", cfg.BootstrapDirectory)
}

func TestFactCacheValidityConvertsSecondsToDuration(t *testing.T) {
	cfg := Config{FactCacheValiditySeconds: 120}
	assert.Equal(t, int64(120), int64(cfg.FactCacheValidity().Seconds()))
}

func TestLoadDefaultsToFilesystemFactCache(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, FactCacheTypeFilesystem, cfg.FactCacheType)
}

func TestLoadHonorsMemoryFactCacheType(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".frogrc.jsonc", `{"fact_cache_type": "memory"}`)

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, FactCacheTypeMemory, cfg.FactCacheType)
}
