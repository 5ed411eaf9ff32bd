package transport

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/docker/docker/client"

	"github.com/griffithind/frog/internal/ferrors"
)

// ExecConfig configures a docker/podman exec session into a running
// container, the fields DockerConnectionMethod/PodmanConnectionMethod
// collect before calling router.docker(**options) in the original.
type ExecConfig struct {
	Binary    string // resolved "docker" or "podman" path
	Container string
	Username  string
	Timeout   time.Duration
}

type execSession struct {
	binary    string
	container string
	username  string
}

// DialExec verifies the container is reachable and returns a Context
// that runs further commands via `<binary> exec`.
func DialExec(ctx context.Context, cfg ExecConfig) (*Context, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if isDockerBinary(cfg.Binary) {
		if err := probeViaSDK(probeCtx, cfg.Container); err == nil {
			return newContext(&execSession{binary: cfg.Binary, container: cfg.Container, username: cfg.Username}), nil
		}
		// Fall through to CLI probing: the daemon may be reachable
		// only via a non-default DOCKER_HOST the SDK's from-env
		// resolution didn't pick up.
	}

	args := []string{"inspect", "--format", "{{.State.Running}}", cfg.Container}
	cmd := exec.CommandContext(probeCtx, cfg.Binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed,
			"container %s is not reachable via %s", cfg.Container, cfg.Binary).WithCause(err)
	}

	return newContext(&execSession{binary: cfg.Binary, container: cfg.Container, username: cfg.Username}), nil
}

func isDockerBinary(binary string) bool {
	return filepath.Base(binary) == "docker"
}

// probeViaSDK checks container liveness through the Docker Engine API
// client rather than shelling out, used whenever the resolved binary is
// the real docker CLI (the teacher's internal/docker.Client wraps the
// same client.NewClientWithOpts(client.FromEnv, ...) construction). Exec
// itself still goes through the CLI below so stdio streaming for the
// bootstrap push doesn't need to reimplement the Docker attach protocol.
func probeViaSDK(ctx context.Context, container string) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return err
	}
	defer cli.Close()

	info, err := cli.ContainerInspect(ctx, container)
	if err != nil {
		return err
	}
	if info.State == nil || !info.State.Running {
		return ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "container %s is not running", container)
	}
	return nil
}

func (s *execSession) Run(ctx context.Context, command []string, env map[string]string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	args := []string{"exec", "-i"}
	if s.username != "" {
		args = append(args, "-u", s.username)
	}
	for k, v := range env {
		args = append(args, "-e", k+"="+v)
	}
	args = append(args, s.container)
	args = append(args, command...)

	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Push streams the local file into the container at remotePath via
// `<binary> exec ... sh -c 'cat > path'`, then chmods it, replacing the
// original's filesystem-level venv population with a single streamed
// write over the same exec channel used for commands.
func (s *execSession) Push(ctx context.Context, localPath, remotePath string, mode uint32) error {
	local, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer local.Close()

	mkdirArgs := []string{"exec", s.container, "mkdir", "-p", parentDir(remotePath)}
	if err := exec.CommandContext(ctx, s.binary, mkdirArgs...).Run(); err != nil {
		return err
	}

	writeArgs := []string{"exec", "-i", s.container, "sh", "-c", "cat > " + shellQuote(remotePath)}
	writeCmd := exec.CommandContext(ctx, s.binary, writeArgs...)
	writeCmd.Stdin = local
	if err := writeCmd.Run(); err != nil {
		return err
	}

	chmodArgs := []string{"exec", s.container, "chmod", strconv.FormatUint(uint64(mode), 8), remotePath}
	return exec.CommandContext(ctx, s.binary, chmodArgs...).Run()
}

func (s *execSession) Close() error {
	return nil
}
