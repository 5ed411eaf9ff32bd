package factcache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/griffithind/frog/internal/ferrors"
)

// FilesystemCache persists fact maps to one file per host under a
// directory, each entry considered valid for a fixed lifetime after its
// last write.
type FilesystemCache struct {
	directory string
	validity  time.Duration
}

// NewFilesystemCache builds a cache rooted at directory, creating it with
// mode 0755 if absent. Entries older than validity are treated as
// expired.
func NewFilesystemCache(directory string, validity time.Duration) (*FilesystemCache, error) {
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, ferrors.Wrapf(err, ferrors.CategoryFacts, ferrors.CodeFactsGather,
			"failed to create fact cache directory %s", directory)
	}
	return &FilesystemCache{directory: directory, validity: validity}, nil
}

func (c *FilesystemCache) pathFor(hostname string) string {
	sum := md5.Sum([]byte(hostname))
	return filepath.Join(c.directory, hex.EncodeToString(sum[:])+".p")
}

func (c *FilesystemCache) isValid(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return time.Since(modTime(info)) < c.validity
}

func modTime(info os.FileInfo) time.Time {
	return info.ModTime()
}

// Get implements Cache.
func (c *FilesystemCache) Get(hostname string) (map[string]interface{}, bool) {
	path := c.pathFor(hostname)
	if !c.isValid(path) {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var facts map[string]interface{}
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, false
	}
	return facts, true
}

// Update implements Cache.
func (c *FilesystemCache) Update(hostname string, facts map[string]interface{}) error {
	path := c.pathFor(hostname)

	data, err := json.Marshal(facts)
	if err != nil {
		return ferrors.Wrap(err, ferrors.CategorySerial, ferrors.CodeSerialization, "failed to marshal facts for cache")
	}

	if err := os.WriteFile(path, data, 0o640); err != nil {
		return ferrors.Wrapf(err, ferrors.CategoryFacts, ferrors.CodeFactsGather, "failed to write fact cache entry for %s", hostname)
	}
	return nil
}
