package invfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrompter struct {
	responses map[string]string
}

func (f *fakePrompter) Prompt(label string, masked bool) (string, error) {
	return f.responses[label], nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadSingleFileUsesBaseNameAsGroup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "web.yml"), "hosts:\n  - host: web-n01\n  - host: web-n02\n    port: 2222\n")

	inv, err := Load([]string{dir}, &fakePrompter{})
	require.NoError(t, err)

	require.Len(t, inv.Hosts["web"], 2)
	assert.Equal(t, "web-n01", inv.Hosts["web"][0].Host)
	assert.Equal(t, 22, inv.Hosts["web"][0].Port)
	assert.Equal(t, 2222, inv.Hosts["web"][1].Port)
}

func TestLoadWalksNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "groups", "db.yaml"), "hosts:\n  - host: db-n01\n")

	inv, err := Load([]string{dir}, &fakePrompter{})
	require.NoError(t, err)
	require.Len(t, inv.Hosts["db"], 1)
	assert.Equal(t, "db-n01", inv.Hosts["db"][0].Host)
}

func TestLoadAttemptsNonYAMLFilesRatherThanSkippingThem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), "not yaml at all: [\n")

	_, err := Load([]string{dir}, &fakePrompter{})
	assert.Error(t, err)
}

func TestLoadAppliesGroupOptionsJumpViaToHostsWithoutTheirOwn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "web.yml"), ""+
		"options:\n"+
		"  jump_via:\n"+
		"    host: bastion-n01\n"+
		"hosts:\n"+
		"  - host: web-n01\n"+
		"  - host: web-n02\n"+
		"    jump_via:\n"+
		"      host: other-bastion\n")

	inv, err := Load([]string{dir}, &fakePrompter{})
	require.NoError(t, err)

	require.NotNil(t, inv.Hosts["web"][0].JumpVia)
	assert.Equal(t, "bastion-n01", inv.Hosts["web"][0].JumpVia.Host)

	require.NotNil(t, inv.Hosts["web"][1].JumpVia)
	assert.Equal(t, "other-bastion", inv.Hosts["web"][1].JumpVia.Host)
}

func TestLoadResolvesEnvAndPromptTags(t *testing.T) {
	t.Setenv("FROG_TEST_USER", "deploy")
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "web.yml"), ""+
		"hosts:\n"+
		"  - host: web-n01\n"+
		"    connection:\n"+
		"      username: !env FROG_TEST_USER\n"+
		"      password: !prompt ssh_password\n")

	inv, err := Load([]string{dir}, &fakePrompter{responses: map[string]string{"ssh_password": "hunter2"}})
	require.NoError(t, err)

	conn := inv.Hosts["web"][0].Connection
	assert.Equal(t, "deploy", conn["username"])
	assert.Equal(t, "hunter2", conn["password"])
}

func TestLoadEmptyFileYieldsGroupWithNoHosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "empty.yml"), "")

	inv, err := Load([]string{dir}, &fakePrompter{})
	require.NoError(t, err)
	assert.Len(t, inv.Hosts["empty"], 0)
}

func TestLoadDefaultsSudoEnabledAndPort(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "db.yml"), "hosts:\n  - host: db-n01\n")

	inv, err := Load([]string{dir}, &fakePrompter{})
	require.NoError(t, err)

	host := inv.Hosts["db"][0]
	assert.Equal(t, 22, host.Port)
	assert.True(t, host.SudoEnabled())
	assert.Equal(t, "root", host.SudoUsername())
}
