// Package agentproto defines the wire request frog sends to frog-agent's
// "call" subcommand over stdin, and frog-agent deserializes before
// dispatching through internal/resources.
//
// The original shipped a request as a pickled tuple of globals
// (context, host, inventory, parent) that call_with_context unpacked into
// module-level state before invoking the target. frog has no pickle and
// no process-wide globals to populate: the whole call is one JSON object
// carrying the host, target, arguments and parent address. The inventory
// is not sent, so the remotectx.Handle frog-agent builds from a Request
// has a nil Inventory.
package agentproto

import "github.com/griffithind/frog/internal/inventory"

// Request is read as a single JSON document from stdin by "frog-agent call".
type Request struct {
	Host          inventory.HostDescriptor `json:"host"`
	Target        string                   `json:"target"`
	Args          map[string]interface{}   `json:"args"`
	ParentAddress string                   `json:"parent_address"`
}
