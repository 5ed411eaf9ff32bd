package connection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsToSSH(t *testing.T) {
	m, err := Load(map[string]interface{}{"hostname": "db-n01.use1.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ssh", m.Type())
	assert.Equal(t, "db-n01.use1.example.com", m.Describe())
}

func TestLoadSSHRequiresHostname(t *testing.T) {
	_, err := Load(map[string]interface{}{"type": "ssh"})
	assert.Error(t, err)
}

func TestLoadSSHWithUsername(t *testing.T) {
	m, err := Load(map[string]interface{}{
		"type":     "ssh",
		"hostname": "db-n01",
		"username": "deploy",
	})
	require.NoError(t, err)
	assert.Equal(t, "deploy@db-n01", m.Describe())
}

func TestLoadDockerRequiresContainer(t *testing.T) {
	_, err := Load(map[string]interface{}{"type": "docker"})
	assert.Error(t, err)
}

func TestLoadDockerType(t *testing.T) {
	m, err := Load(map[string]interface{}{"type": "docker", "container": "web-n01"})
	require.NoError(t, err)
	assert.Equal(t, "docker", m.Type())
	assert.Equal(t, "docker:web-n01", m.Describe())
}

func TestLoadPodmanOverridesBinaryOnly(t *testing.T) {
	m, err := Load(map[string]interface{}{"type": "podman", "container": "web-n01"})
	require.NoError(t, err)
	assert.Equal(t, "podman", m.Type())
	assert.Equal(t, "podman:web-n01", m.Describe())

	podman, ok := m.(*PodmanMethod)
	require.True(t, ok)
	assert.Equal(t, "web-n01", podman.Container, "podman embeds DockerMethod's fields directly")
}

func TestLoadUnknownTypeErrors(t *testing.T) {
	_, err := Load(map[string]interface{}{"type": "telnet"})
	assert.Error(t, err)
}
