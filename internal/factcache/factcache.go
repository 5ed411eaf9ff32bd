// Package factcache caches per-host fact maps between runs so that
// gathering facts from a host can be skipped when a recent cache entry
// already exists.
package factcache

import (
	"github.com/griffithind/frog/internal/ferrors"
)

// Cache stores fact maps keyed by hostname. Get signals a missing or
// expired entry with an explicit false rather than an error, so callers
// branch on the return value instead of on error type; NeedsUpdate builds
// the FactsNeedsUpdate FrogError for a caller that wants to report a miss.
type Cache interface {
	// Get returns the cached facts for hostname and true if a valid
	// entry exists, or (nil, false) if the caller should gather fresh
	// facts and call Update.
	Get(hostname string) (map[string]interface{}, bool)

	// Update stores facts for hostname, replacing any prior entry.
	Update(hostname string, facts map[string]interface{}) error
}

// NeedsUpdate builds the FrogError a caller can surface when Get returns
// false and the caller wants to report why, mirroring the original
// FactCache.NeedsUpdate exception's message.
func NeedsUpdate(hostname string) error {
	return ferrors.FactsNeedsUpdate(hostname)
}
