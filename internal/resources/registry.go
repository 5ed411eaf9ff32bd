// Package resources is the agent-side registry of callable remote
// operations, addressed as "namespace.function" (e.g. "file.mkdirs",
// "facts.gather", "test.ping").
//
// The original discovered resource modules dynamically at runtime
// (frog.util.packages.load_sibling_modules walking the filesystem for
// sibling .py files) and dispatched by splitting the target string and
// using getattr(). frog-agent is a single static binary with no
// filesystem of modules to scan, so each namespace self-registers into a
// compile-time map via an init() func, and Lookup does the same
// split-and-index dispatch against that map instead of reflection.
package resources

import (
	"sync"

	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/remotectx"
)

// Func is a single resource implementation.
type Func func(h *remotectx.Handle, args map[string]interface{}) envelope.Envelope

var (
	mu         sync.RWMutex
	namespaces = map[string]map[string]Func{}
)

// Register adds fn under namespace.name, called from each namespace
// file's init().
func Register(namespace, name string, fn Func) {
	mu.Lock()
	defer mu.Unlock()
	if namespaces[namespace] == nil {
		namespaces[namespace] = map[string]Func{}
	}
	namespaces[namespace][name] = fn
}

// Lookup splits target on its first '.' and resolves the matching
// registered function, mirroring the original resources.lookup()'s
// namespace/getattr split, raising NameNotFound for either an unknown
// namespace or an unknown function within it.
func Lookup(target string) (Func, error) {
	namespace, name, ok := splitTarget(target)
	if !ok {
		return nil, ferrors.NameNotFound(target)
	}

	mu.RLock()
	defer mu.RUnlock()

	ns, ok := namespaces[namespace]
	if !ok {
		return nil, ferrors.NameNotFound(target)
	}
	fn, ok := ns[name]
	if !ok {
		return nil, ferrors.NameNotFound(target)
	}
	return fn, nil
}

func splitTarget(target string) (namespace, name string, ok bool) {
	for i := 0; i < len(target); i++ {
		if target[i] == '.' {
			return target[:i], target[i+1:], true
		}
	}
	return "", "", false
}
