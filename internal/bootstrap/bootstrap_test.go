package bootstrap

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	pushed     map[string][]byte
	execScript func(command []string) (stdout, stderr []byte, code int, err error)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{pushed: map[string][]byte{}}
}

func (f *fakeRemote) Exec(ctx context.Context, command []string, env map[string]string, stdin io.Reader) ([]byte, []byte, int, error) {
	if f.execScript != nil {
		return f.execScript(command)
	}
	return []byte{}, []byte{}, 0, nil
}

func (f *fakeRemote) PushFile(ctx context.Context, localPath, remotePath string, mode uint32) error {
	f.pushed[remotePath] = []byte("pushed")
	return nil
}

func TestDefaultDirectory(t *testing.T) {
	s := Settings{}
	assert.Equal(t, DefaultDirectory, s.directoryOrDefault())
}

func TestRemoteChecksumMatchesWhenDigestEqual(t *testing.T) {
	remote := newFakeRemote()
	remote.execScript = func(command []string) ([]byte, []byte, int, error) {
		if command[0] == "sha256sum" {
			return []byte("0000000000000000000000000000000000000000000000000000000000000000  /opt/frog-env/frog-agent"), nil, 0, nil
		}
		return []byte{}, []byte{}, 0, nil
	}

	// Force a matching checksum path by stubbing remoteChecksumMatches
	// indirectly: an empty embedded binary always fails the "has
	// compiled binary" check first, so this test instead exercises
	// remoteChecksumMatches directly.
	sum := sha256.Sum256([]byte("binary-contents"))
	want := hex.EncodeToString(sum[:])

	remote.execScript = func(command []string) ([]byte, []byte, int, error) {
		return []byte(want + "  /opt/frog-env/frog-agent\n"), nil, 0, nil
	}

	matches, err := remoteChecksumMatches(context.Background(), remote, "/opt/frog-env/frog-agent", []byte("binary-contents"))
	require.NoError(t, err)
	assert.True(t, matches)
}

func TestRemoteChecksumMismatch(t *testing.T) {
	remote := newFakeRemote()
	remote.execScript = func(command []string) ([]byte, []byte, int, error) {
		return []byte("deadbeef  /opt/frog-env/frog-agent\n"), nil, 0, nil
	}

	matches, err := remoteChecksumMatches(context.Background(), remote, "/opt/frog-env/frog-agent", []byte("binary-contents"))
	require.NoError(t, err)
	assert.False(t, matches)
}

func TestBootstrapFailsWithoutCompiledBinary(t *testing.T) {
	remote := newFakeRemote()
	_, err := Bootstrap(context.Background(), remote, "amd64", Settings{})
	require.Error(t, err)
}

func TestCleanRunsRmRf(t *testing.T) {
	remote := newFakeRemote()
	var gotCommand []string
	remote.execScript = func(command []string) ([]byte, []byte, int, error) {
		gotCommand = command
		return []byte{}, []byte{}, 0, nil
	}

	err := Clean(context.Background(), remote, Settings{Directory: "/opt/frog-env"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rm", "-rf", "/opt/frog-env"}, gotCommand)
}
