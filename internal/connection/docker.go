package connection

import (
	"context"

	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/transport"
)

// DockerMethod reaches a host by exec'ing into a running Docker
// container, mirroring DockerConnectionMethod's container/username/image
// fields.
type DockerMethod struct {
	opts options

	Container string
	Username  string
	Image     string

	// binaryResolver resolves which CLI binary ("docker" or "podman")
	// performs the exec. Docker resolves "docker" directly; Podman
	// overrides this to resolve "podman" instead, the Go analog of
	// PodmanConnectionMethod overriding docker_path.
	binaryResolver func() (string, error)
	binaryName     string
}

func loadDocker(data map[string]interface{}) (*DockerMethod, error) {
	m := &DockerMethod{
		opts:       defaultOptions(),
		Container:  stringField(data, "container", ""),
		Username:   stringField(data, "username", ""),
		Image:      stringField(data, "image", ""),
		binaryName: "docker",
	}
	m.binaryResolver = func() (string, error) { return resolveBinary("docker") }
	if m.Container == "" {
		return nil, ferrors.New(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "docker connection requires container")
	}
	return m, nil
}

// Type implements Method.
func (m *DockerMethod) Type() string { return "docker" }

// Describe implements Method.
func (m *DockerMethod) Describe() string {
	return m.binaryName + ":" + m.Container
}

// Connect implements Method.
func (m *DockerMethod) Connect(ctx context.Context) (Context, error) {
	binary, err := m.binaryResolver()
	if err != nil {
		return nil, ferrors.Connection(m.Describe(), err)
	}

	cfg := transport.ExecConfig{
		Binary:    binary,
		Container: m.Container,
		Username:  m.Username,
		Timeout:   m.opts.connectTimeoutOrDefault(),
	}
	tctx, err := transport.DialExec(ctx, cfg)
	if err != nil {
		return nil, ferrors.Connection(m.Describe(), err)
	}
	return tctx, nil
}
