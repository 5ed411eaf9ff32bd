// Package connection defines the pluggable ways frog reaches a host and
// dispatches the two-stage bootstrap over it: SSH, Docker exec, and
// Podman exec.
//
// The original modeled this as a ConnectionMethod abstract base class
// with SshConnectionMethod/DockerConnectionMethod siblings and a
// PodmanConnectionMethod subclassing DockerConnectionMethod to swap one
// resolved binary path. Go has no class inheritance, so Podman is
// expressed as a struct that embeds Docker and overrides only the
// executable it resolves, per the tagged-variant redesign.
package connection

import (
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/inventory"
)

// DefaultConnectTimeout mirrors the original's options["connect_timeout"]
// default of 30 seconds.
const DefaultConnectTimeout = 30 * time.Second

// DefaultRemoteBinary is the remote interpreter path frog expects to find
// (or push) on the target, replacing the original's
// DEFAULT_PYTHON_PATH = ["/usr/bin/env", "python3"].
var DefaultRemoteBinary = []string{"/usr/bin/env", "frog-agent"}

// Method is one way of reaching a host and running the agent on it.
type Method interface {
	// Type returns the method's registry key ("ssh", "docker", "podman").
	Type() string

	// Connect opens a session to the host and returns it as a Context.
	// The concrete value is one of package transport's sessions; this
	// package imports transport directly.
	Connect(ctx context.Context) (Context, error)

	// Describe renders a printable identity used for connection cache
	// keys and logs, mirroring the original's str(item) cache key.
	Describe() string
}

// Context is the minimal surface connection needs from a live transport
// session; internal/transport provides the concrete implementation.
type Context interface {
	Exec(ctx context.Context, command []string, env map[string]string, stdin io.Reader) ([]byte, []byte, int, error)
	PushFile(ctx context.Context, localPath, remotePath string, mode uint32) error
	Close() error
}

// ChainableMethod is implemented by connection methods that can tunnel
// their own dial through an already-open jump-host context, rather than
// connecting directly from the controller. SSHMethod implements it;
// Docker/Podman methods do not, since exec'ing into a container has no
// equivalent of tunnelling a TCP dial through a bastion.
type ChainableMethod interface {
	ConnectVia(ctx context.Context, via Context) (Context, error)
}

// Open resolves host's connection method and opens it, following
// open_connection(router)'s two-step contract (spec.md §4.4):
//  1. Open the base context via the connection method, recursively
//     dialing through host.JumpVia's own chain first when set.
//  2. If host.SudoEnabled(), wrap the base context in a sudo context
//     using the host's sudo options.
func Open(ctx context.Context, host *inventory.HostDescriptor, loadMethod func(map[string]interface{}) (Method, error)) (Context, error) {
	base, err := openChain(ctx, host, loadMethod)
	if err != nil {
		return nil, err
	}
	if host.SudoEnabled() {
		return NewSudoContext(base, host.SudoUsername(), host.SudoPassword()), nil
	}
	return base, nil
}

func openChain(ctx context.Context, host *inventory.HostDescriptor, loadMethod func(map[string]interface{}) (Method, error)) (Context, error) {
	method, err := loadMethod(host.Connection)
	if err != nil {
		return nil, err
	}

	if host.JumpVia == nil {
		return method.Connect(ctx)
	}

	viaConn, err := openChain(ctx, host.JumpVia, loadMethod)
	if err != nil {
		return nil, err
	}

	chainer, ok := method.(ChainableMethod)
	if !ok {
		_ = viaConn.Close()
		return nil, ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed,
			"connection method %q does not support jump-via chaining", method.Type())
	}
	return chainer.ConnectVia(ctx, viaConn)
}

// options mirrors the shared fields the original's ConnectionMethod
// base __init__ populated on every subclass's options dict.
type options struct {
	RemoteBinary   []string
	Debug          bool
	Unidirectional bool
	ConnectTimeout time.Duration
	Via            string
}

func defaultOptions() options {
	return options{
		RemoteBinary:   DefaultRemoteBinary,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// Load builds a Method from a raw decoded map, dispatching on the "type"
// key the way the original's ConnectionMethod.load() classmethod did,
// defaulting to "ssh" when unset.
func Load(data map[string]interface{}) (Method, error) {
	typ, _ := data["type"].(string)
	if typ == "" {
		typ = "ssh"
	}

	switch typ {
	case "ssh":
		return loadSSH(data)
	case "docker":
		return loadDocker(data)
	case "podman":
		return loadPodman(data)
	default:
		return nil, ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "unknown connection type %q", typ)
	}
}

func stringField(data map[string]interface{}, key, def string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return def
}

func intField(data map[string]interface{}, key string, def int) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func boolField(data map[string]interface{}, key string, def bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return def
}

func resolveBinary(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "%s not found on PATH", name).WithCause(err)
	}
	return path, nil
}

func (o options) connectTimeoutOrDefault() time.Duration {
	if o.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return o.ConnectTimeout
}
