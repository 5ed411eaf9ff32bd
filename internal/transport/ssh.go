package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/griffithind/frog/internal/ferrors"
)

// SSHConfig configures a direct SSH dial to a real host, the fields
// SshConnectionMethod collects before calling router.ssh(**options) in
// the original.
type SSHConfig struct {
	Hostname       string
	Port           int
	Username       string
	IdentityFile   string
	IdentitiesOnly bool
	Password       string
	StrictHostKeys bool
	Timeout        time.Duration
}

type sshSession struct {
	client *ssh.Client

	sftpOnce sync.Once
	sftp     *sftp.Client
	sftpErr  error
}

// sftpClient lazily opens the SFTP subsystem on first use: most resource
// calls never push files, so connecting to a host with no SFTP subsystem
// configured should not fail the whole session up front.
func (s *sshSession) sftpClient() (*sftp.Client, error) {
	s.sftpOnce.Do(func() {
		s.sftp, s.sftpErr = sftp.NewClient(s.client)
	})
	return s.sftp, s.sftpErr
}

// DialSSH opens an SSH connection and returns a Context wrapping it.
func DialSSH(ctx context.Context, cfg SSHConfig) (*Context, error) {
	clientCfg, timeout, err := sshClientConfig(cfg)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", sshAddr(cfg))
	if err != nil {
		return nil, err
	}

	return finishSSHDial(conn, sshAddr(cfg), clientCfg)
}

// DialSSHVia opens an SSH connection to cfg's target by tunnelling the
// TCP dial through an already-connected jump host's ssh.Client instead of
// dialing directly from the controller — the transport half of a
// jump-via chain (connection.Open resolves the chain itself, hop by hop).
func DialSSHVia(via *ssh.Client, cfg SSHConfig) (*Context, error) {
	clientCfg, _, err := sshClientConfig(cfg)
	if err != nil {
		return nil, err
	}

	addr := sshAddr(cfg)
	conn, err := via.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	return finishSSHDial(conn, addr, clientCfg)
}

func sshAddr(cfg SSHConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(cfg.Hostname, fmt.Sprint(port))
}

func sshClientConfig(cfg SSHConfig) (*ssh.ClientConfig, time.Duration, error) {
	authMethods, err := authMethodsFor(cfg)
	if err != nil {
		return nil, 0, err
	}

	hostKeyCallback, err := hostKeyCallbackFor(cfg)
	if err != nil {
		return nil, 0, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &ssh.ClientConfig{
		User:            cfg.Username,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, timeout, nil
}

func finishSSHDial(conn net.Conn, addr string, clientCfg *ssh.ClientConfig) (*Context, error) {
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientCfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	return newContext(&sshSession{client: client}), nil
}

// ClientOf returns the underlying ssh.Client of an SSH-backed Context, for
// tunnelling a jump-via hop's dial through it. The second return is false
// for a non-SSH Context (e.g. a docker/podman exec session).
func ClientOf(c *Context) (*ssh.Client, bool) {
	s, ok := c.session.(interface{ SSHClient() *ssh.Client })
	if !ok {
		return nil, false
	}
	return s.SSHClient(), true
}

func authMethodsFor(cfg SSHConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.IdentityFile != "" {
		key, err := os.ReadFile(cfg.IdentityFile)
		if err != nil {
			return nil, ferrors.Wrapf(err, ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "failed to read identity file %s", cfg.IdentityFile)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, ferrors.Wrapf(err, ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "failed to parse identity file %s", cfg.IdentityFile)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}

	if !cfg.IdentitiesOnly {
		if agentConn, err := agentConnFromEnv(); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers))
		}
	}

	if cfg.Password != "" {
		methods = append(methods, ssh.Password(cfg.Password))
	}

	if len(methods) == 0 {
		return nil, ferrors.New(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "no SSH authentication methods available")
	}
	return methods, nil
}

func agentConnFromEnv() (net.Conn, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
	}
	return net.Dial("unix", sock)
}

func hostKeyCallbackFor(cfg SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKeys {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	knownHosts := home + "/.ssh/known_hosts"
	if _, err := os.Stat(knownHosts); err != nil {
		return nil, ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed,
			"check_host_keys is enforced but %s is missing", knownHosts)
	}
	return knownHostsCallback(knownHosts)
}

func (s *sshSession) Run(ctx context.Context, command []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return -1, err
	}
	defer session.Close()

	for k, v := range env {
		// Most sshd configs reject arbitrary SetEnv names unless
		// AcceptEnv is configured for them; failures here are
		// non-fatal, since the agent call carries its request as JSON
		// on stdin rather than in the environment.
		_ = session.Setenv(k, v)
	}

	session.Stdin = stdin
	session.Stdout = stdout
	session.Stderr = stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(strings.Join(quoteAll(command), " "))
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return -1, ctx.Err()
	case err := <-done:
		if err == nil {
			return 0, nil
		}
		if exitErr, ok := err.(*ssh.ExitError); ok {
			return exitErr.ExitStatus(), nil
		}
		return -1, err
	}
}

func (s *sshSession) Push(ctx context.Context, localPath, remotePath string, mode uint32) error {
	sftpClient, err := s.sftpClient()
	if err != nil {
		return err
	}

	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	if err := sftpClient.MkdirAll(parentDir(remotePath)); err != nil {
		return err
	}

	remote, err := sftpClient.Create(remotePath)
	if err != nil {
		return err
	}
	defer remote.Close()

	if _, err := io.Copy(remote, local); err != nil {
		return err
	}
	return sftpClient.Chmod(remotePath, os.FileMode(mode))
}

func (s *sshSession) Close() error {
	if s.sftp != nil {
		s.sftp.Close()
	}
	return s.client.Close()
}

// SSHClient exposes the underlying ssh.Client so a jump-via hop can
// tunnel its own dial through this session; see ClientOf.
func (s *sshSession) SSHClient() *ssh.Client {
	return s.client
}

func parentDir(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

var shellUnsafeChars = "\t\n !\"#$&'()*,;<=>?[\\]^`{|}~"

func quoteAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = shellQuote(a)
	}
	return out
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, shellUnsafeChars) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
