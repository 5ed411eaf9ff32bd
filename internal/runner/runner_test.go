package runner

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/griffithind/frog/internal/agentproto"
	"github.com/griffithind/frog/internal/bootstrap"
	"github.com/griffithind/frog/internal/connection"
	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/factcache"
	"github.com/griffithind/frog/internal/inventory"
)

// fakeConn is a connection.Context test double that scripts uname, the
// agent version check, the checksum probe, and "call" dispatch entirely
// in memory.
type fakeConn struct {
	closed   bool
	pushed   []string
	onCall   func(req agentproto.Request) envelope.Envelope
	execHook func(command []string, stdin io.Reader) (stdout, stderr []byte, code int, err error)
}

func (f *fakeConn) Exec(ctx context.Context, command []string, env map[string]string, stdin io.Reader) ([]byte, []byte, int, error) {
	if f.execHook != nil {
		return f.execHook(command, stdin)
	}

	switch {
	case len(command) >= 2 && command[0] == "uname":
		return []byte("x86_64\n"), nil, 0, nil
	case len(command) >= 1 && command[0] == "sha256sum":
		return []byte("deadbeef  agent\n"), nil, 0, nil
	case len(command) >= 2 && command[len(command)-1] == "version":
		return []byte("ok\n"), nil, 0, nil
	case len(command) >= 2 && command[len(command)-1] == "call":
		data, _ := io.ReadAll(stdin)
		var req agentproto.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, []byte(err.Error()), 1, nil
		}
		result := f.onCall(req)
		out, _ := result.Serialize()
		return out, nil, 0, nil
	default:
		return nil, nil, 0, nil
	}
}

func (f *fakeConn) PushFile(ctx context.Context, localPath, remotePath string, mode uint32) error {
	f.pushed = append(f.pushed, remotePath)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

type fakeMethod struct {
	describe string
	conn     *fakeConn
	connErr  error
}

func (m *fakeMethod) Type() string    { return "fake" }
func (m *fakeMethod) Describe() string { return m.describe }
func (m *fakeMethod) Connect(ctx context.Context) (connection.Context, error) {
	if m.connErr != nil {
		return nil, m.connErr
	}
	return m.conn, nil
}

func testHost(name string) inventory.HostDescriptor {
	return inventory.HostDescriptor{Host: name}
}

func newTestRunner(methods map[string]*fakeMethod) *Runner {
	r := New(factcache.NewMemoryCache(), bootstrap.Settings{})
	r.loadMethod = func(data map[string]interface{}) (connection.Method, error) {
		name, _ := data["__fake__"].(string)
		return methods[name], nil
	}
	return r
}

func TestCallDispatchesToRegisteredMethod(t *testing.T) {
	conn := &fakeConn{onCall: func(req agentproto.Request) envelope.Envelope {
		assert.Equal(t, "test.ping", req.Target)
		return envelope.Ok(req.Host.Host, map[string]interface{}{"message": "pong"})
	}}
	r := newTestRunner(map[string]*fakeMethod{"db": {describe: "db", conn: conn}})

	host := testHost("db-n01")
	host.Connection = map[string]interface{}{"__fake__": "db"}

	result := r.Call(context.Background(), host, "test.ping", nil)
	require.True(t, result.Success())
	data, err := result.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "pong", data["message"])
}

func TestCallReusesCachedConnectionAcrossCalls(t *testing.T) {
	dials := 0
	conn := &fakeConn{onCall: func(req agentproto.Request) envelope.Envelope {
		return envelope.Ok(req.Host.Host, map[string]interface{}{})
	}}
	method := &fakeMethod{describe: "db", conn: conn}
	r := newTestRunner(map[string]*fakeMethod{"db": method})

	host := testHost("db-n01")
	host.Connection = map[string]interface{}{"__fake__": "db"}

	for i := 0; i < 3; i++ {
		r.Call(context.Background(), host, "test.ping", nil)
	}
	_ = dials
	assert.Len(t, conn.pushed, 1, "bootstrap should push the agent binary exactly once across repeated calls")
}

func TestCallFailsWhenConnectErrors(t *testing.T) {
	method := &fakeMethod{describe: "db", connErr: assertError{"boom"}}
	r := newTestRunner(map[string]*fakeMethod{"db": method})

	host := testHost("db-n01")
	host.Connection = map[string]interface{}{"__fake__": "db"}

	result := r.Call(context.Background(), host, "test.ping", nil)
	assert.False(t, result.Success())
}

func TestExecuteFansOutPreservingOrder(t *testing.T) {
	conn := &fakeConn{onCall: func(req agentproto.Request) envelope.Envelope {
		return envelope.Ok(req.Host.Host, map[string]interface{}{"host": req.Host.Host})
	}}
	methods := map[string]*fakeMethod{
		"a": {describe: "a", conn: conn},
		"b": {describe: "b", conn: conn},
		"c": {describe: "c", conn: conn},
	}
	r := newTestRunner(methods)

	hosts := []inventory.HostDescriptor{
		{Host: "a-n01", Connection: map[string]interface{}{"__fake__": "a"}},
		{Host: "b-n01", Connection: map[string]interface{}{"__fake__": "b"}},
		{Host: "c-n01", Connection: map[string]interface{}{"__fake__": "c"}},
	}

	results := r.Execute(context.Background(), hosts, "test.ping", nil)
	require.Len(t, results, 3)
	for i, want := range []string{"a-n01", "b-n01", "c-n01"} {
		assert.Equal(t, want, results[i].Host)
	}
}

func TestGatherFactsPrefersCache(t *testing.T) {
	cache := factcache.NewMemoryCache()
	require.NoError(t, cache.Update("db-n01", map[string]interface{}{"platform": "linux"}))

	r := New(cache, bootstrap.Settings{})
	r.loadMethod = func(data map[string]interface{}) (connection.Method, error) {
		t.Fatal("should not dial when facts are already cached")
		return nil, nil
	}

	facts, err := r.GatherFacts(context.Background(), testHost("db-n01"))
	require.NoError(t, err)
	assert.Equal(t, "linux", facts["platform"])
}

func TestGatherFactsPopulatesCacheOnMiss(t *testing.T) {
	conn := &fakeConn{onCall: func(req agentproto.Request) envelope.Envelope {
		return envelope.Ok(req.Host.Host, map[string]interface{}{"platform": "linux"})
	}}
	cache := factcache.NewMemoryCache()
	r := New(cache, bootstrap.Settings{})
	r.loadMethod = func(data map[string]interface{}) (connection.Method, error) {
		return &fakeMethod{describe: "db", conn: conn}, nil
	}

	host := testHost("db-n01")
	host.Connection = map[string]interface{}{"__fake__": "db"}

	facts, err := r.GatherFacts(context.Background(), host)
	require.NoError(t, err)
	assert.Equal(t, "linux", facts["platform"])

	cached, ok := cache.Get("db-n01")
	require.True(t, ok)
	assert.Equal(t, "linux", cached["platform"])
}

func TestCloseClosesEveryCachedConnection(t *testing.T) {
	connA := &fakeConn{onCall: func(req agentproto.Request) envelope.Envelope { return envelope.Ok(req.Host.Host, nil) }}
	connB := &fakeConn{onCall: func(req agentproto.Request) envelope.Envelope { return envelope.Ok(req.Host.Host, nil) }}
	methods := map[string]*fakeMethod{
		"a": {describe: "a", conn: connA},
		"b": {describe: "b", conn: connB},
	}
	r := newTestRunner(methods)

	hostA := inventory.HostDescriptor{Host: "a-n01", Connection: map[string]interface{}{"__fake__": "a"}}
	hostB := inventory.HostDescriptor{Host: "b-n01", Connection: map[string]interface{}{"__fake__": "b"}}
	r.Call(context.Background(), hostA, "test.ping", nil)
	r.Call(context.Background(), hostB, "test.ping", nil)

	require.NoError(t, r.Close())
	assert.True(t, connA.closed)
	assert.True(t, connB.closed)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
