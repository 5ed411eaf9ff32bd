package tags

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/griffithind/frog/internal/ferrors"
)

// TerminalPrompter reads prompt responses from a terminal, masking input
// when requested via the same raw-mode switch the original's
// prompt_toolkit call relied on.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalPrompter builds a prompter reading from stdin and writing
// prompts to stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

// Prompt implements Prompter.
func (t *TerminalPrompter) Prompt(label string, masked bool) (string, error) {
	prefix := ""
	if masked {
		prefix = "\U0001F512 " // lock emoji, matching the original's masked-prompt prefix
	}
	fmt.Fprintf(t.Out, "%s%s: ", prefix, label)

	if masked && term.IsTerminal(int(t.In.Fd())) {
		value, err := term.ReadPassword(int(t.In.Fd()))
		fmt.Fprintln(t.Out)
		if err != nil {
			return "", ferrors.Wrapf(err, ferrors.CategoryInventory, ferrors.CodeInventoryParse, "failed to read masked input for %s", label)
		}
		return string(value), nil
	}

	reader := bufio.NewReader(t.In)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", ferrors.Wrapf(err, ferrors.CategoryInventory, ferrors.CodeInventoryParse, "failed to read input for %s", label)
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
