package tags

import (
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func decodeNode(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var root yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &root))
	require.Equal(t, yaml.DocumentNode, root.Kind)
	return root.Content[0]
}

type fakePrompter struct {
	response string
	gotLabel string
	gotMask  bool
}

func (f *fakePrompter) Prompt(label string, masked bool) (string, error) {
	f.gotLabel = label
	f.gotMask = masked
	return f.response, nil
}

func TestResolveEnvTag(t *testing.T) {
	t.Setenv("FROG_TEST_VAR", "hello")
	node := decodeNode(t, "!env FROG_TEST_VAR\n")

	value, err := ResolveNode(node, &fakePrompter{})
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
}

func TestResolvePromptTag(t *testing.T) {
	node := decodeNode(t, "!prompt database password\n")
	p := &fakePrompter{response: "typed-value"}

	value, err := ResolveNode(node, p)
	require.NoError(t, err)
	assert.Equal(t, "typed-value", value)
	assert.Equal(t, "database password", p.gotLabel)
}

func TestResolveEnvOrPromptPrefersEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")
	node := decodeNode(t, "!env_or_prompt DB_PASSWORD\n")

	value, err := ResolveNode(node, &fakePrompter{response: "should-not-be-used"})
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestResolveEnvOrPromptFallsBackAndInfersMasking(t *testing.T) {
	p := &fakePrompter{response: "typed-secret"}
	node := decodeNode(t, "!env_or_prompt DB_SECRET_KEY\n")

	value, err := ResolveNode(node, p)
	require.NoError(t, err)
	assert.Equal(t, "typed-secret", value)
	assert.True(t, p.gotMask, "names containing 'secret' or 'key' should infer masked input")
}

func TestResolveNodeRecursesIntoMappingsAndSequences(t *testing.T) {
	t.Setenv("FROG_NESTED_VAR", "nested-value")
	node := decodeNode(t, "outer:\n  list:\n    - !env FROG_NESTED_VAR\n    - plain\n")

	value, err := ResolveNode(node, &fakePrompter{})
	require.NoError(t, err)

	m := value.(map[string]interface{})
	outer := m["outer"].(map[string]interface{})
	list := outer["list"].([]interface{})
	assert.Equal(t, "nested-value", list[0])
	assert.Equal(t, "plain", list[1])
}

func TestTerminalPrompterReadsMaskedInputOverPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	require.NoError(t, err)
	defer ptmx.Close()
	defer tty.Close()

	prompter := &TerminalPrompter{In: tty, Out: ptmx}

	done := make(chan struct {
		value string
		err   error
	}, 1)
	go func() {
		value, err := prompter.Prompt("token", true)
		done <- struct {
			value string
			err   error
		}{value, err}
	}()

	_, err = ptmx.WriteString("s3cr3t\n")
	require.NoError(t, err)

	result := <-done
	require.NoError(t, result.err)
	assert.Equal(t, "s3cr3t", result.value)
}
