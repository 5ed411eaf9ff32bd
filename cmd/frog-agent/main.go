// Command frog-agent is the minimal binary frog bootstraps onto a remote
// host. It has exactly two jobs: report its own version so the
// controller can verify a push succeeded, and dispatch one resource call
// read from stdin, writing the resulting envelope to stdout.
//
// The original had no separate remote binary at all: it pushed a Python
// venv and ran frog.context.call_with_context inside the controller's own
// interpreter dialect over a pickled mitogen message. frog-agent is the
// static, architecture-specific replacement for that venv, and its "call"
// subcommand is the direct analog of call_with_context, minus the
// process-wide globals it used to mutate.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/griffithind/frog/internal/agentproto"
	"github.com/griffithind/frog/internal/envelope"
	"github.com/griffithind/frog/internal/remotectx"
	"github.com/griffithind/frog/internal/resources"
	"github.com/griffithind/frog/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println(version.Version)
	case "call":
		if err := runCall(os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "-h", "--help", "help":
		printUsage()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `frog-agent - remote execution agent for frog

Usage:
  frog-agent <command>

Commands:
  version  Print the agent version
  call     Read a call request as JSON from stdin, write the resulting
           envelope as JSON to stdout
`)
}

// runCall decodes one agentproto.Request from in, dispatches it through
// internal/resources, and writes the envelope to out. A malformed request
// is a transport-level failure (the non-zero exit the controller checks
// for); any error after that point becomes a failed envelope, since it is
// a legitimate outcome of the call rather than a protocol violation.
func runCall(in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading call request: %w", err)
	}

	var req agentproto.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("decoding call request: %w", err)
	}

	result := dispatch(req)

	encoded, err := result.Serialize()
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	_, err = out.Write(encoded)
	return err
}

func dispatch(req agentproto.Request) envelope.Envelope {
	fn, err := resources.Lookup(req.Target)
	if err != nil {
		return envelope.Fail(req.Host.Host, err)
	}

	parentAddr, _ := uuid.Parse(req.ParentAddress)
	handle := remotectx.New(req.Host, nil, parentAddr)

	return fn(handle, req.Args)
}
