package bootstrap_test

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/griffithind/frog/internal/agentbin"
	"github.com/griffithind/frog/internal/bootstrap"
	"github.com/griffithind/frog/internal/connection"
)

// dockerAvailable mirrors the teacher's container-integration-test
// pattern of checking testcontainers' provider directly rather than
// trusting a bare LookPath, since the daemon can be absent even when the
// CLI binary is installed.
func dockerAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

// TestBootstrapAgainstRealContainer drives the two-stage bootstrap
// protocol (push + checksum-gated skip + version exec) against a
// throwaway container reached over the real "docker exec" transport.
// It is skipped unless both Docker and a real embedded frog-agent binary
// (built via `make build-agent`) are available, since the repository
// ships the embed loader without a compiled artifact checked in.
func TestBootstrapAgainstRealContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("skipping: no Docker daemon available")
	}
	if !agentbin.HasBinaries("amd64") {
		t.Skip("skipping: no compiled frog-agent binary embedded; run make build-agent")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:      "alpine:latest",
		Cmd:        []string{"sleep", "infinity"},
		WaitingFor: nil,
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	containerID := container.GetContainerID()

	method, err := connection.Load(map[string]interface{}{
		"type":      "docker",
		"container": containerID,
	})
	require.NoError(t, err)

	remote, err := method.Connect(ctx)
	require.NoError(t, err)
	defer remote.Close()

	settings := bootstrap.Settings{Directory: "/opt/frog-env-test"}

	dialCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := bootstrap.Bootstrap(dialCtx, remote, "amd64", settings)
	require.NoError(t, err)
	require.NotEmpty(t, result.AgentPath)

	// A second bootstrap against the same container should take the
	// checksum-match fast path rather than re-pushing the binary.
	result2, err := bootstrap.Bootstrap(dialCtx, remote, "amd64", settings)
	require.NoError(t, err)
	require.Equal(t, result.AgentPath, result2.AgentPath)
}
