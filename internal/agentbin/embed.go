// Package agentbin embeds the compiled frog-agent binaries so the
// controller can push a working agent to a remote host without requiring
// the host to have frog-agent, or any build toolchain, preinstalled.
//
// This mirrors the teacher's own agent-embed.go: a gzip-compressed
// per-architecture binary built by a separate `go build` step (see the
// Makefile's build-agent target) and embedded via go:embed. Like that
// reference copy, this repository ships the embed directives and loader
// without the actual compiled artifacts checked in; `make build-agent`
// populates bin/ before a real release build.
package agentbin

import (
	"bytes"
	"compress/gzip"
	"embed"
	"io"

	"github.com/griffithind/frog/internal/ferrors"
)

//go:embed bin/frog-agent-linux-amd64.gz
//go:embed bin/frog-agent-linux-arm64.gz
var binaries embed.FS

// archFiles maps a Go GOARCH value to the embedded file holding that
// architecture's compiled agent.
var archFiles = map[string]string{
	"amd64": "bin/frog-agent-linux-amd64.gz",
	"arm64": "bin/frog-agent-linux-arm64.gz",
}

// HasBinaries reports whether a real (non-empty) agent binary was
// compiled in for arch, as opposed to the placeholder file this
// repository ships.
func HasBinaries(arch string) bool {
	data, err := GetBinary(arch)
	return err == nil && len(data) > 0
}

// GetBinary returns the decompressed frog-agent executable for arch.
func GetBinary(arch string) ([]byte, error) {
	file, ok := archFiles[arch]
	if !ok {
		return nil, ferrors.Newf(ferrors.CategoryBootstrap, ferrors.CodeBootstrapInvalid, "no embedded frog-agent binary for architecture %q", arch)
	}

	compressed, err := binaries.Open(file)
	if err != nil {
		return nil, ferrors.Wrapf(err, ferrors.CategoryBootstrap, ferrors.CodeBootstrapInvalid, "failed to open embedded agent for %s", arch)
	}
	defer compressed.Close()

	return decompress(compressed)
}

func decompress(r io.Reader) ([]byte, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryBootstrap, ferrors.CodeBootstrapInvalid, "failed to open gzip stream for embedded agent")
	}
	defer gz.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, gz); err != nil {
		return nil, ferrors.Wrap(err, ferrors.CategoryBootstrap, ferrors.CodeBootstrapInvalid, "failed to decompress embedded agent")
	}
	return buf.Bytes(), nil
}
