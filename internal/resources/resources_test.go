package resources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/frog/internal/inventory"
	"github.com/griffithind/frog/internal/remotectx"
)

func testHandle(host string) *remotectx.Handle {
	inv := inventory.New(map[string][]inventory.HostDescriptor{"web": {{Host: host}}})
	return remotectx.New(inventory.HostDescriptor{Host: host}, inv, uuid.New())
}

func TestLookupSplitsNamespaceAndName(t *testing.T) {
	fn, err := Lookup("test.ping")
	require.NoError(t, err)
	require.NotNil(t, fn)
}

func TestLookupUnknownNamespace(t *testing.T) {
	_, err := Lookup("bogus.ping")
	assert.Error(t, err)
}

func TestLookupUnknownFunction(t *testing.T) {
	_, err := Lookup("test.nonexistent")
	assert.Error(t, err)
}

func TestLookupMissingDot(t *testing.T) {
	_, err := Lookup("ping")
	assert.Error(t, err)
}

func TestPingDefaultMessage(t *testing.T) {
	fn, err := Lookup("test.ping")
	require.NoError(t, err)

	result := fn(testHandle("web-n01"), nil)
	assert.False(t, result.IsChain())
	assert.Equal(t, "pong", result.Result["message"])
}

func TestFileMkdirsAndTouch(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub")

	mkdirsFn, err := Lookup("file.mkdirs")
	require.NoError(t, err)
	result := mkdirsFn(testHandle("web-n01"), map[string]interface{}{"path": target})
	assert.True(t, result.Success())

	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())

	touchFn, err := Lookup("file.touch")
	require.NoError(t, err)
	touched := filepath.Join(target, "marker")
	result = touchFn(testHandle("web-n01"), map[string]interface{}{"path": touched})
	assert.True(t, result.Success())
	assert.True(t, result.Result["changed"].(bool))
}

func TestFilePutAndGetContents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.txt")

	putFn, err := Lookup("file.put")
	require.NoError(t, err)
	result := putFn(testHandle("web-n01"), map[string]interface{}{"path": path, "contents": "hello"})
	assert.True(t, result.Success())

	getFn, err := Lookup("file.get_contents")
	require.NoError(t, err)
	result = getFn(testHandle("web-n01"), map[string]interface{}{"path": path})
	assert.True(t, result.Success())
	assert.Equal(t, "hello", result.Result["contents"])
}

func TestFilePutRefusesOverwriteByDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	putFn, err := Lookup("file.put")
	require.NoError(t, err)
	result := putFn(testHandle("web-n01"), map[string]interface{}{"path": path, "contents": "new"})
	assert.False(t, result.Success())
}

func TestFileDeployComposesAChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "app.conf")

	deployFn, err := Lookup("file.deploy")
	require.NoError(t, err)
	result := deployFn(testHandle("web-n01"), map[string]interface{}{"path": path, "contents": "port=8080"})

	require.True(t, result.IsChain())
	require.Len(t, result.Results, 3)
	assert.True(t, result.Success())

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "port=8080", string(data))
}

func TestFileDeployOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.conf")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	deployFn, err := Lookup("file.deploy")
	require.NoError(t, err)
	result := deployFn(testHandle("web-n01"), map[string]interface{}{"path": path, "contents": "new"})
	assert.True(t, result.Success())

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "new", string(data))
}

func TestFactsGatherResource(t *testing.T) {
	fn, err := Lookup("facts.gather")
	require.NoError(t, err)

	result := fn(testHandle("web-n01"), nil)
	assert.True(t, result.Success())
	assert.Contains(t, result.Result, "fqdn")
}
