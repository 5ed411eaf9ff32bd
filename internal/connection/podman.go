package connection

import "github.com/griffithind/frog/internal/ferrors"

// PodmanMethod reaches a host by exec'ing into a running Podman
// container. It embeds DockerMethod and overrides only the binary
// resolver, the Go analog of the original's
// PodmanConnectionMethod(DockerConnectionMethod) subclass that swapped
// docker_path resolution for podman_path.
type PodmanMethod struct {
	*DockerMethod
}

func loadPodman(data map[string]interface{}) (*PodmanMethod, error) {
	docker, err := loadDocker(data)
	if err != nil {
		return nil, err
	}
	docker.binaryName = "podman"
	docker.binaryResolver = func() (string, error) { return resolveBinary("podman") }

	if docker.Container == "" {
		return nil, ferrors.New(ferrors.CategoryConnection, ferrors.CodeConnectionFailed, "podman connection requires container")
	}
	return &PodmanMethod{DockerMethod: docker}, nil
}

// Type implements Method.
func (m *PodmanMethod) Type() string { return "podman" }
