// Package bootstrap performs the two-stage remote setup frog needs
// before it can dispatch resource calls to a host: push a working
// frog-agent binary, then exec it.
//
// The original's bootstrapper created a Python venv on the target,
// fetched a requirements.txt over mitogen's FileService, and pip-installed
// it, returning the venv's interpreter path for the controller to use as
// the python_path for all subsequent calls. frog has no interpreter or
// dependency set to install on the remote side: the analog of "create an
// isolated environment and populate it" is "push one statically-linked
// binary", so this package replaces venv.create + pip install with an
// SFTP/exec file push plus a checksum-gated skip, and returns the
// in-place path to exec instead of an interpreter path.
package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"runtime"

	"github.com/griffithind/frog/internal/agentbin"
	"github.com/griffithind/frog/internal/ferrors"
)

// Settings mirrors the original's remoteenv.Settings(directory, clean).
type Settings struct {
	// Directory is the remote path frog-agent is staged into. Defaults
	// to /opt/frog-env, the Go analog of the original's
	// "/opt/infra-env" default.
	Directory string

	// Clean forces a fresh push even if a matching binary is already
	// staged.
	Clean bool
}

// DefaultDirectory is the remote staging path used when Settings.Directory
// is empty.
const DefaultDirectory = "/opt/frog-env"

func (s Settings) directoryOrDefault() string {
	if s.Directory == "" {
		return DefaultDirectory
	}
	return s.Directory
}

// Context is the minimal remote-session surface bootstrap needs; it is
// satisfied by connection.Context without importing that package
// directly, avoiding a bootstrap<->connection import cycle.
type Context interface {
	Exec(ctx context.Context, command []string, env map[string]string, stdin io.Reader) (stdout, stderr []byte, exitCode int, err error)
	PushFile(ctx context.Context, localPath, remotePath string, mode uint32) error
}

// Result is what a successful bootstrap hands back to the runner: the
// remote path to exec for every subsequent resource call.
type Result struct {
	AgentPath string
}

// Bootstrap ensures a frog-agent binary matching the host's architecture
// is staged at settings.Directory and runnable, skipping the push when an
// identical binary is already present unless settings.Clean is set.
func Bootstrap(ctx context.Context, remote Context, arch string, settings Settings) (*Result, error) {
	directory := settings.directoryOrDefault()
	remotePath := path.Join(directory, "frog-agent")

	binary, err := agentbin.GetBinary(arch)
	if err != nil {
		return nil, ferrors.BootstrapExec("", err)
	}
	if len(binary) == 0 {
		return nil, ferrors.Newf(ferrors.CategoryBootstrap, ferrors.CodeBootstrapInvalid,
			"no compiled frog-agent binary embedded for %s; run make build-agent", arch)
	}

	if !settings.Clean {
		if matches, err := remoteChecksumMatches(ctx, remote, remotePath, binary); err == nil && matches {
			return &Result{AgentPath: remotePath}, nil
		}
	}

	localPath, cleanup, err := stageLocalCopy(binary)
	if err != nil {
		return nil, ferrors.BootstrapPush(remotePath, err)
	}
	defer cleanup()

	if err := remote.PushFile(ctx, localPath, remotePath, 0o755); err != nil {
		return nil, ferrors.BootstrapPush(remotePath, err)
	}

	stdout, stderr, code, err := remote.Exec(ctx, []string{remotePath, "version"}, nil, nil)
	if err != nil || code != 0 {
		return nil, ferrors.BootstrapExec(remotePath, fmt.Errorf("exit %d: %s: %w", code, string(stderr), err))
	}
	_ = stdout

	return &Result{AgentPath: remotePath}, nil
}

func stageLocalCopy(binary []byte) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "frog-agent-*")
	if err != nil {
		return "", nil, err
	}
	if _, err := f.Write(binary); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	f.Close()
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func remoteChecksumMatches(ctx context.Context, remote Context, remotePath string, binary []byte) (bool, error) {
	sum := sha256.Sum256(binary)
	want := hex.EncodeToString(sum[:])

	stdout, _, code, err := remote.Exec(ctx, []string{"sha256sum", remotePath}, nil, nil)
	if err != nil || code != 0 {
		return false, err
	}

	got := ""
	for i, c := range stdout {
		if c == ' ' || c == '\t' {
			got = string(stdout[:i])
			break
		}
	}
	return got == want, nil
}

// CurrentArch returns GOARCH for the controller process, used only by
// tests and local-loopback bootstraps; the runner determines the remote
// architecture by running uname -m over the connection instead of
// assuming parity with the controller.
func CurrentArch() string {
	return runtime.GOARCH
}

// Clean wipes the staged directory, forcing the next Bootstrap call to
// push fresh regardless of settings.Clean.
func Clean(ctx context.Context, remote Context, settings Settings) error {
	directory := settings.directoryOrDefault()
	_, stderr, code, err := remote.Exec(ctx, []string{"rm", "-rf", directory}, nil, nil)
	if err != nil || code != 0 {
		return ferrors.BootstrapExec(directory, fmt.Errorf("exit %d: %s: %w", code, string(stderr), err))
	}
	return nil
}
