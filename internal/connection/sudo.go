package connection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/griffithind/frog/internal/ferrors"
)

// SudoContext wraps a base Context, prefixing every executed command with
// a sudo invocation targeting Username — the privilege-escalation half of
// open_connection(router) (spec.md §4.4 step 2: "if should_sudo, wrap the
// base context in a sudo context with the host's sudo options").
type SudoContext struct {
	base     Context
	Username string
	Password string
}

// NewSudoContext wraps base so every Exec/PushFile call runs as username.
func NewSudoContext(base Context, username, password string) *SudoContext {
	if username == "" {
		username = "root"
	}
	return &SudoContext{base: base, Username: username, Password: password}
}

// Exec implements Context, prefixing command with sudo. When Password is
// set, sudo is invoked with -S and the password is written as the first
// line of stdin ahead of the caller's own stdin — sudo -S consumes
// exactly one line for the password prompt and leaves the rest of the
// stream untouched for the wrapped command.
func (s *SudoContext) Exec(ctx context.Context, command []string, env map[string]string, stdin io.Reader) ([]byte, []byte, int, error) {
	wrapped := make([]string, 0, len(command)+4)
	wrapped = append(wrapped, "sudo")
	wrapped = append(wrapped, s.sudoFlags()...)
	wrapped = append(wrapped, command...)

	if s.Password != "" {
		if stdin == nil {
			stdin = bytes.NewReader(nil)
		}
		stdin = io.MultiReader(strings.NewReader(s.Password+"\n"), stdin)
	}

	return s.base.Exec(ctx, wrapped, env, stdin)
}

func (s *SudoContext) sudoFlags() []string {
	if s.Password != "" {
		return []string{"-S", "-u", s.Username, "--"}
	}
	return []string{"-n", "-u", s.Username, "--"}
}

// PushFile stages the file unprivileged at a scratch path via the base
// context, then moves and chmods it into place under sudo, since the
// base context's push mechanism (sftp, docker cp) runs as whichever user
// the connection authenticated as, not the sudo target.
func (s *SudoContext) PushFile(ctx context.Context, localPath, remotePath string, mode uint32) error {
	scratch := "/tmp/frog-push-" + uuid.New().String()
	if err := s.base.PushFile(ctx, localPath, scratch, 0o600); err != nil {
		return err
	}

	modeStr := strconv.FormatUint(uint64(mode), 8)
	script := fmt.Sprintf("mkdir -p %s && mv %s %s && chmod %s %s",
		sudoShellQuote(parentDirOf(remotePath)), sudoShellQuote(scratch), sudoShellQuote(remotePath), modeStr, sudoShellQuote(remotePath))

	_, stderr, code, err := s.Exec(ctx, []string{"sh", "-c", script}, nil, nil)
	if err != nil {
		return err
	}
	if code != 0 {
		return ferrors.Newf(ferrors.CategoryConnection, ferrors.CodeConnectionFailed,
			"sudo push to %s failed: exit %d: %s", remotePath, code, strings.TrimSpace(string(stderr)))
	}
	return nil
}

// Close implements Context by closing the base context; sudo has nothing
// of its own to tear down.
func (s *SudoContext) Close() error {
	return s.base.Close()
}

func parentDirOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}

var sudoShellUnsafe = "\t\n !\"#$&'()*,;<=>?[\\]^`{|}~"

func sudoShellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, sudoShellUnsafe) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
