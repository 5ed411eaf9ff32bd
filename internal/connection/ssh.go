package connection

import (
	"context"

	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/transport"
)

// SSHMethod reaches a host over SSH, mirroring SshConnectionMethod's
// hostname/username/port/identity_file/check_host_keys fields.
type SSHMethod struct {
	opts options

	Hostname       string
	Username       string
	Port           int
	IdentityFile   string
	IdentitiesOnly bool
	Password       string
	CheckHostKeys  string // "enforce" (default), "accept-new", "ignore"
	Compression    bool
}

func loadSSH(data map[string]interface{}) (*SSHMethod, error) {
	m := &SSHMethod{
		opts:           defaultOptions(),
		Hostname:       stringField(data, "hostname", ""),
		Username:       stringField(data, "username", ""),
		Port:           intField(data, "port", 22),
		IdentityFile:   stringField(data, "identity_file", ""),
		IdentitiesOnly: boolField(data, "identities_only", false),
		Password:       stringField(data, "password", ""),
		CheckHostKeys:  stringField(data, "check_host_keys", "enforce"),
		Compression:    boolField(data, "compression", true),
	}
	if m.Hostname == "" {
		return nil, ferrors.New(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "ssh connection requires hostname")
	}
	return m, nil
}

// Type implements Method.
func (m *SSHMethod) Type() string { return "ssh" }

// Describe implements Method.
func (m *SSHMethod) Describe() string {
	if m.Username != "" {
		return m.Username + "@" + m.Hostname
	}
	return m.Hostname
}

// Connect implements Method.
func (m *SSHMethod) Connect(ctx context.Context) (Context, error) {
	tctx, err := transport.DialSSH(ctx, m.transportConfig())
	if err != nil {
		return nil, ferrors.Connection(m.Describe(), err)
	}
	return tctx, nil
}

// ConnectVia implements connection.ChainableMethod, tunnelling the dial
// to this host through an already-open jump-host context rather than
// dialing directly from the controller.
func (m *SSHMethod) ConnectVia(ctx context.Context, via Context) (Context, error) {
	tc, ok := via.(*transport.Context)
	if !ok {
		return nil, ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed,
			"jump-via host for %s did not produce an ssh transport context", m.Describe())
	}
	client, ok := transport.ClientOf(tc)
	if !ok {
		return nil, ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed,
			"jump-via host for %s is not reachable over ssh", m.Describe())
	}

	tctx, err := transport.DialSSHVia(client, m.transportConfig())
	if err != nil {
		return nil, ferrors.Connection(m.Describe(), err)
	}
	return tctx, nil
}

func (m *SSHMethod) transportConfig() transport.SSHConfig {
	return transport.SSHConfig{
		Hostname:       m.Hostname,
		Port:           m.Port,
		Username:       m.Username,
		IdentityFile:   m.IdentityFile,
		IdentitiesOnly: m.IdentitiesOnly,
		Password:       m.Password,
		StrictHostKeys: m.CheckHostKeys == "enforce",
		Timeout:        m.opts.connectTimeoutOrDefault(),
	}
}
