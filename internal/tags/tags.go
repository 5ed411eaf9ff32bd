// Package tags resolves the custom YAML tags frog's inventory files
// use to defer a value to the environment or to an interactive
// prompt: !env, !prompt, and !env_or_prompt.
//
// yaml.v3 has no equivalent of PyYAML's global SafeLoader.add_constructor
// registry: there is no hook that fires for every node carrying a given
// tag regardless of where in the document it appears. Instead, each tag
// is resolved by inspecting yaml.Node.Tag while walking a decoded node
// tree, and ResolveNode recurses into mappings and sequences itself. This
// is the Open Question decision recorded for the custom tag system: walk
// explicitly rather than register hooks.
package tags

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/griffithind/frog/internal/ferrors"
)

const (
	TagEnv         = "!env"
	TagPrompt      = "!prompt"
	TagEnvOrPrompt = "!env_or_prompt"
)

// Prompter reads a value interactively, masking input when masked is
// true. Production code uses a terminal-backed Prompter; tests supply a
// fake.
type Prompter interface {
	Prompt(label string, masked bool) (string, error)
}

// maskedHints lists substrings whose presence in an environment variable
// name implies its value should be masked when prompted for, mirroring
// the original's lowercase substring check.
var maskedHints = []string{"secret", "password", "pass", "key", "masked"}

func looksSecret(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range maskedHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// ResolveNode walks a decoded YAML node tree, replacing any node tagged
// !env, !prompt, or !env_or_prompt with its resolved scalar value, and
// recursing into mappings and sequences. Nodes without one of these tags
// are decoded into plain Go values unchanged.
func ResolveNode(node *yaml.Node, prompter Prompter) (interface{}, error) {
	switch node.Tag {
	case TagEnv:
		return resolveEnv(node)
	case TagPrompt:
		return resolvePrompt(node, prompter)
	case TagEnvOrPrompt:
		return resolveEnvOrPrompt(node, prompter)
	}

	switch node.Kind {
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			value, err := ResolveNode(node.Content[i+1], prompter)
			if err != nil {
				return nil, err
			}
			out[key] = value
		}
		return out, nil

	case yaml.SequenceNode:
		out := make([]interface{}, len(node.Content))
		for i, child := range node.Content {
			value, err := ResolveNode(child, prompter)
			if err != nil {
				return nil, err
			}
			out[i] = value
		}
		return out, nil

	default:
		var plain interface{}
		if err := node.Decode(&plain); err != nil {
			return nil, ferrors.Wrapf(err, ferrors.CategoryInventory, ferrors.CodeInventoryParse, "failed to decode node at line %d", node.Line)
		}
		return plain, nil
	}
}

func scalarArg(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", ferrors.Newf(ferrors.CategoryInventory, ferrors.CodeInventoryParse,
			"tag %s expects a scalar argument at line %d", node.Tag, node.Line)
	}
	return node.Value, nil
}

func resolveEnv(node *yaml.Node) (interface{}, error) {
	name, err := scalarArg(node)
	if err != nil {
		return nil, err
	}
	return os.Getenv(name), nil
}

func resolvePrompt(node *yaml.Node, prompter Prompter) (interface{}, error) {
	name, masked, err := promptArgs(node, false)
	if err != nil {
		return nil, err
	}
	return prompter.Prompt(name, masked)
}

func resolveEnvOrPrompt(node *yaml.Node, prompter Prompter) (interface{}, error) {
	name, masked, err := promptArgs(node, looksSecretFromNode(node))
	if err != nil {
		return nil, err
	}
	if value, ok := os.LookupEnv(name); ok {
		return value, nil
	}
	return prompter.Prompt(name, masked)
}

func looksSecretFromNode(node *yaml.Node) bool {
	if node.Kind == yaml.ScalarNode {
		return looksSecret(node.Value)
	}
	if node.Kind == yaml.SequenceNode && len(node.Content) > 0 && node.Content[0].Kind == yaml.ScalarNode {
		return looksSecret(node.Content[0].Value)
	}
	return false
}

// promptArgs supports the two argument shapes the original tag
// constructors accepted: a bare scalar (the env var / prompt label), or a
// sequence whose first element is that label and whose second, if
// present, is a "masked: true/false" style flag encoded as a boolean
// scalar.
func promptArgs(node *yaml.Node, defaultMasked bool) (string, bool, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, defaultMasked, nil

	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return "", false, ferrors.Newf(ferrors.CategoryInventory, ferrors.CodeInventoryParse,
				"tag %s requires at least one argument at line %d", node.Tag, node.Line)
		}
		name := node.Content[0].Value
		masked := defaultMasked
		if len(node.Content) > 1 {
			var b bool
			if err := node.Content[1].Decode(&b); err == nil {
				masked = b
			}
		}
		return name, masked, nil

	default:
		return "", false, ferrors.Newf(ferrors.CategoryInventory, ferrors.CodeInventoryParse,
			"tag %s has an unsupported argument shape at line %d", node.Tag, node.Line)
	}
}

// Describe renders a tag node's identity for diagnostic messages.
func Describe(node *yaml.Node) string {
	return fmt.Sprintf("%s at line %d", node.Tag, node.Line)
}
