// Package remotectx carries the per-call state a resource function needs
// about which host it is running against and how to address its parent,
// replacing the original's module-level globals (context, host,
// inventory, parent) that call_with_context mutated before every
// invocation.
//
// Global mutable state meant every resource call on a given agent process
// serialized through the same four variables, and made the globals
// impossible to reason about under concurrent dispatch. frog instead
// builds one Handle per call and threads it explicitly into the resource
// function, so concurrent calls on the same agent process (or tests
// constructing calls directly) never observe each other's state.
package remotectx

import (
	"github.com/google/uuid"

	"github.com/griffithind/frog/internal/inventory"
)

// Handle is the context a resource function receives for a single call.
type Handle struct {
	host       inventory.HostDescriptor
	inv        *inventory.Inventory
	parentAddr uuid.UUID
	selfAddr   uuid.UUID
}

// New builds a Handle for one resource invocation.
func New(host inventory.HostDescriptor, inv *inventory.Inventory, parentAddr uuid.UUID) *Handle {
	return &Handle{host: host, inv: inv, parentAddr: parentAddr, selfAddr: uuid.New()}
}

// Host returns the descriptor of the host this call is running against.
func (h *Handle) Host() inventory.HostDescriptor {
	return h.host
}

// Inventory returns the inventory this Handle was built with; it is nil
// for calls dispatched by frog-agent, whose request carries no inventory.
func (h *Handle) Inventory() *inventory.Inventory {
	return h.inv
}

// ParentAddress returns the controller-assigned address of the
// connection that dispatched this call, the Go analog of the original's
// module-level parent holding router.myself() from the controller side.
func (h *Handle) ParentAddress() uuid.UUID {
	return h.parentAddr
}

// SelfAddress returns this call's own address, assigned fresh per Handle.
func (h *Handle) SelfAddress() uuid.UUID {
	return h.selfAddr
}
