package factcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheMissThenHit(t *testing.T) {
	cache := NewMemoryCache()

	_, ok := cache.Get("db-n01")
	assert.False(t, ok)

	require.NoError(t, cache.Update("db-n01", map[string]interface{}{"platform": "linux"}))

	facts, ok := cache.Get("db-n01")
	require.True(t, ok)
	assert.Equal(t, "linux", facts["platform"])
}

func TestFilesystemCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFilesystemCache(dir, time.Hour)
	require.NoError(t, err)

	_, ok := cache.Get("web-n01.use1.example.com")
	assert.False(t, ok)

	require.NoError(t, cache.Update("web-n01.use1.example.com", map[string]interface{}{"fqdn": "web-n01.use1.example.com"}))

	facts, ok := cache.Get("web-n01.use1.example.com")
	require.True(t, ok)
	assert.Equal(t, "web-n01.use1.example.com", facts["fqdn"])
}

func TestFilesystemCacheExpiresEntries(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFilesystemCache(dir, time.Millisecond)
	require.NoError(t, err)

	require.NoError(t, cache.Update("db-n02", map[string]interface{}{"x": 1}))
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("db-n02")
	assert.False(t, ok)
}

func TestNeedsUpdateErrorCode(t *testing.T) {
	err := NeedsUpdate("db-n01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db-n01")
}
