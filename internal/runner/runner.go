// Package runner is the controller-side dispatch engine: it resolves a
// host's connection method, bootstraps frog-agent onto it when no cached
// session exists, caches the live session, and fans resource calls out across many hosts
// concurrently.
//
// The original's Runner kept one mitogen Context per host in a dict
// keyed by a (host, options) tuple, bootstrapping lazily on first use and
// reusing the connection for every later call. frog keeps that
// connect-once, reuse-many shape but replaces the mitogen Context cache
// with a map of live connection.Context sessions guarded by a mutex, and
// replaces mitogen's call_service RPC with the two-stage
// bootstrap-then-exec protocol: detect the remote architecture, stage the
// matching frog-agent binary, then pipe each call's request as JSON over
// the agent process's stdin.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/griffithind/frog/internal/agentproto"
	"github.com/griffithind/frog/internal/bootstrap"
	"github.com/griffithind/frog/internal/connection"
	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/factcache"
	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/inventory"
	"github.com/griffithind/frog/internal/util"
)

// Runner dispatches resource calls against an inventory, caching one live
// connection per connection key (see connectionKey).
type Runner struct {
	cache    factcache.Cache
	settings bootstrap.Settings
	selfAddr uuid.UUID

	// loadMethod resolves a host's raw connection config into a Method.
	// Defaults to connection.Load; tests override it to inject a fake
	// Method without needing a real ssh/docker/podman target.
	loadMethod func(map[string]interface{}) (connection.Method, error)

	mu          sync.Mutex
	connections map[string]cachedConn
}

type cachedConn struct {
	conn      connection.Context
	agentPath string
}

// New builds a Runner. cache may be nil, in which case facts are always
// gathered fresh (never read from or written to a cache).
func New(cache factcache.Cache, settings bootstrap.Settings) *Runner {
	return &Runner{
		cache:       cache,
		settings:    settings,
		selfAddr:    uuid.New(),
		loadMethod:  connection.Load,
		connections: make(map[string]cachedConn),
	}
}

// Call dispatches target against a single host, bootstrapping and
// connecting as needed, and returns the resulting envelope. Connection and
// bootstrap failures are folded into a failed envelope rather than
// returned as a Go error, so callers can always treat a Call result as
// "what happened on that host".
func (r *Runner) Call(ctx context.Context, host inventory.HostDescriptor, target string, args map[string]interface{}) envelope.Envelope {
	conn, agentPath, err := r.connect(ctx, host)
	if err != nil {
		return envelope.Fail(host.Host, err)
	}

	req := agentproto.Request{
		Host:          host,
		Target:        target,
		Args:          args,
		ParentAddress: r.selfAddr.String(),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return envelope.Fail(host.Host, ferrors.Wrap(err, ferrors.CategorySerial, ferrors.CodeSerialization, "failed to encode call request"))
	}

	stdout, stderr, code, err := conn.Exec(ctx, []string{agentPath, "call"}, nil, bytes.NewReader(data))
	if err != nil {
		return envelope.Fail(host.Host, ferrors.RemoteCall(host.Host, target, err))
	}
	if code != 0 {
		return envelope.Fail(host.Host, ferrors.RemoteCall(host.Host, target, fmt.Errorf("exit %d: %s", code, strings.TrimSpace(string(stderr)))))
	}

	result, err := envelope.Deserialize(stdout)
	if err != nil {
		return envelope.Fail(host.Host, ferrors.RemoteCall(host.Host, target, err))
	}
	return result
}

// Execute dispatches target against every host concurrently — one
// worker per host, unconditionally, per spec.md §4.7/§5 ("execute fans
// out across all hosts"). The CPU-sized worker pool bound belongs only to
// the remote fact gatherer (internal/facts.Gather, §4.6), which runs a
// fixed small set of fact modules per host rather than one worker per
// fleet member. Returns one envelope per host in the same order as hosts.
func (r *Runner) Execute(ctx context.Context, hosts []inventory.HostDescriptor, target string, args map[string]interface{}) []envelope.Envelope {
	out := make([]envelope.Envelope, len(hosts))
	var wg sync.WaitGroup

	for i, host := range hosts {
		i, host := i, host
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i] = r.Call(ctx, host, target, args)
		}()
	}
	wg.Wait()
	return out
}

// GatherFacts returns host's facts, preferring a cache hit over a live
// "facts.gather" call, and populates the cache after a live gather.
// Mirrors the original's FactCache.get raising NeedsUpdate to trigger a
// fresh gather, reworked as the ok-bool REDESIGN FLAGS form.
func (r *Runner) GatherFacts(ctx context.Context, host inventory.HostDescriptor) (map[string]interface{}, error) {
	if r.cache != nil {
		if facts, ok := r.cache.Get(host.Host); ok {
			return facts, nil
		}
	}

	result := r.Call(ctx, host, "facts.gather", nil)
	facts, err := result.Unwrap()
	if err != nil {
		return nil, ferrors.FactsGather(host.Host, err)
	}

	if r.cache != nil {
		if err := r.cache.Update(host.Host, facts); err != nil {
			return nil, err
		}
	}
	return facts, nil
}

// connectionKey renders the cache identity for host: the connection
// method's own Describe() plus any jump-via chain and sudo target, since
// the same host reached via two different paths (direct vs. bastion, or
// as two different sudo users) is intentionally treated as two distinct
// cached connections (spec.md §4.7 "Connection caching").
func (r *Runner) connectionKey(host inventory.HostDescriptor) (string, error) {
	method, err := r.loadMethod(host.Connection)
	if err != nil {
		return "", err
	}
	key := method.Describe()
	for via := host.JumpVia; via != nil; via = via.JumpVia {
		key += " via " + via.Host
	}
	if host.SudoEnabled() {
		key += " as " + host.SudoUsername()
	}
	return key, nil
}

// connect resolves host's connection method, reusing a cached session
// keyed by its connection identity, or dialing (following any jump-via
// chain and applying sudo escalation), detecting the remote architecture,
// and bootstrapping frog-agent when none exists yet. Concurrent misses for
// the same key are not coalesced: each one dials and bootstraps, the first
// to finish is cached, and the others close their connections.
func (r *Runner) connect(ctx context.Context, host inventory.HostDescriptor) (connection.Context, string, error) {
	key, err := r.connectionKey(host)
	if err != nil {
		return nil, "", err
	}

	r.mu.Lock()
	if c, ok := r.connections[key]; ok {
		r.mu.Unlock()
		util.Debug("reusing cached connection %s", key)
		return c.conn, c.agentPath, nil
	}
	r.mu.Unlock()

	util.Debug("dialing %s", key)
	conn, err := connection.Open(ctx, &host, r.loadMethod)
	if err != nil {
		return nil, "", ferrors.Connection(host.Host, err)
	}

	arch, err := detectArch(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, "", err
	}
	util.Debug("detected %s architecture on %s", arch, key)

	result, err := bootstrap.Bootstrap(ctx, conn, arch, r.settings)
	if err != nil {
		_ = conn.Close()
		return nil, "", err
	}
	util.Info("bootstrapped frog-agent on %s at %s", key, result.AgentPath)

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.connections[key]; ok {
		// Another call raced us to this same method and won; reuse its
		// connection and discard the one we just opened.
		_ = conn.Close()
		return c.conn, c.agentPath, nil
	}
	entry := cachedConn{conn: conn, agentPath: result.AgentPath}
	r.connections[key] = entry
	return entry.conn, entry.agentPath, nil
}

// detectArch runs uname -m over a freshly dialed connection to pick the
// frog-agent binary bootstrap needs to push, since unlike the original's
// venv-based bootstrap, a compiled binary is architecture-specific.
func detectArch(ctx context.Context, conn connection.Context) (string, error) {
	stdout, stderr, code, err := conn.Exec(ctx, []string{"uname", "-m"}, nil, nil)
	if err != nil || code != 0 {
		return "", ferrors.BootstrapExec("", fmt.Errorf("uname -m failed: exit %d: %s: %w", code, strings.TrimSpace(string(stderr)), err))
	}

	switch strings.TrimSpace(string(stdout)) {
	case "x86_64", "amd64":
		return "amd64", nil
	case "aarch64", "arm64":
		return "arm64", nil
	default:
		return "", ferrors.Newf(ferrors.CategoryBootstrap, ferrors.CodeBootstrapInvalid, "unsupported remote architecture %q", strings.TrimSpace(string(stdout)))
	}
}

// Close closes every cached connection, aggregating failures rather than
// stopping at the first one so a single unreachable host never hides
// problems with the rest.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result *multierror.Error
	for key, c := range r.connections {
		if err := c.conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("closing %s: %w", key, err))
		}
		delete(r.connections, key)
	}
	return result.ErrorOrNil()
}
