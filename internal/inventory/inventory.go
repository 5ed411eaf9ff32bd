// Package inventory models the tree of hosts a run targets: named groups
// of host descriptors, loaded from YAML files and narrowed down before
// dispatch.
package inventory

import "sort"

// HostDescriptor is one entry in an inventory group: the connection
// target plus any facts already known about it without gathering them.
type HostDescriptor struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port,omitempty" json:"port,omitempty"`

	// Connection carries the raw connection-method configuration for
	// this host, resolved lazily by internal/connection.Load.
	Connection map[string]interface{} `yaml:"connection,omitempty" json:"connection,omitempty"`

	// JumpVia is the recursive bastion host this host is reached
	// through. A linear chain, not a DAG: JumpVia's own JumpVia is
	// dialed first, and so on inward.
	JumpVia *HostDescriptor `yaml:"jump_via,omitempty" json:"jump_via,omitempty"`

	// ShouldSudo mirrors the original's should_sudo flag (default
	// true). A pointer distinguishes "absent from YAML" from
	// "explicitly false", since the zero value of bool can't.
	ShouldSudo *bool `yaml:"should_sudo,omitempty" json:"should_sudo,omitempty"`

	// SudoOptions carries the sudo target's username/password, mirroring
	// the original's sudo_options map (default {username: "root"}).
	SudoOptions map[string]interface{} `yaml:"sudo_options,omitempty" json:"sudo_options,omitempty"`

	Facts map[string]interface{} `yaml:"facts,omitempty" json:"facts,omitempty"`
}

// String renders the host name, used for addressing the host in logs and
// results. The runner's connection cache keys on more than this: the
// connection method, the jump-via chain and the sudo user.
func (h HostDescriptor) String() string {
	return h.Host
}

// defaultPort mirrors the original InventoryItem's port default of 22.
const defaultPort = 22

// SudoEnabled reports whether open_connection should wrap the base
// context in a sudo context for this host. Only an explicitly-set
// ShouldSudo is honored here; the "default true" the original's YAML
// schema documents is applied once, at load time, by WithDefaults — a
// bare HostDescriptor built in code (e.g. in tests) that never went
// through WithDefaults is treated as sudo-disabled.
func (h HostDescriptor) SudoEnabled() bool {
	return h.ShouldSudo != nil && *h.ShouldSudo
}

// SudoUsername returns the sudo target user, defaulting to root.
func (h HostDescriptor) SudoUsername() string {
	if v, ok := h.SudoOptions["username"].(string); ok && v != "" {
		return v
	}
	return "root"
}

// SudoPassword returns the sudo password, if configured.
func (h HostDescriptor) SudoPassword() string {
	v, _ := h.SudoOptions["password"].(string)
	return v
}

// WithDefaults fills in the zero-value defaults the original dataclass
// declared: port 22, should_sudo true, sudo_options {username: root}.
// Recurses into JumpVia so every hop in the chain gets the same
// defaulting.
func (h HostDescriptor) WithDefaults() HostDescriptor {
	if h.Port == 0 {
		h.Port = defaultPort
	}
	if h.ShouldSudo == nil {
		enabled := true
		h.ShouldSudo = &enabled
	}
	if len(h.SudoOptions) == 0 {
		h.SudoOptions = map[string]interface{}{"username": "root"}
	}
	if h.JumpVia != nil {
		via := h.JumpVia.WithDefaults()
		h.JumpVia = &via
	}
	return h
}

// GroupOptions is the shared, group-level option bag a file's "options:"
// block declares, inherited by every host in that group that doesn't set
// its own value.
type GroupOptions struct {
	JumpVia *HostDescriptor `yaml:"jump_via,omitempty" json:"jump_via,omitempty"`
}

// InheritOptions applies group-level shared options to a host descriptor
// that doesn't already define them — shallow inheritance, no merging,
// matching the original's inherits_options: a per-host jump_via always
// wins over the group default.
func (h HostDescriptor) InheritOptions(shared GroupOptions) HostDescriptor {
	if h.JumpVia == nil {
		h.JumpVia = shared.JumpVia
	}
	return h
}

// UpdateFacts merges newly-gathered facts into the descriptor. Facts
// already set on the descriptor win over the incoming ones, matching the
// original's update_facts, where hand-configured facts are never
// overwritten by gathered ones.
func (h HostDescriptor) UpdateFacts(newFacts map[string]interface{}) HostDescriptor {
	merged := make(map[string]interface{}, len(newFacts)+len(h.Facts))
	for k, v := range newFacts {
		merged[k] = v
	}
	for k, v := range h.Facts {
		merged[k] = v
	}
	h.Facts = merged
	return h
}

// Inventory is a named tree of host groups, optionally narrowed from a
// parent inventory via Select.
type Inventory struct {
	Hosts map[string][]HostDescriptor

	// Groups records group names in the order they were first inserted,
	// since Go maps don't preserve iteration order and All()'s
	// group-insertion-then-in-group ordering invariant depends on it.
	Groups []string

	Parent *Inventory
}

// New builds an inventory from a group map. Because a bare map has no
// inherent order, New derives a deterministic (alphabetical) group order;
// callers that need true insertion order — namely internal/invfile's
// directory walk — use AddGroup to build the inventory incrementally
// instead.
func New(hosts map[string][]HostDescriptor) *Inventory {
	keys := make([]string, 0, len(hosts))
	for group := range hosts {
		keys = append(keys, group)
	}
	sort.Strings(keys)

	inv := &Inventory{Hosts: make(map[string][]HostDescriptor, len(hosts))}
	for _, group := range keys {
		inv.AddGroup(group, hosts[group])
	}
	return inv
}

// AddGroup appends items to the named group, recording the group's
// position in Groups the first time it is seen. Repeated calls with the
// same name append to the existing group rather than duplicating the
// entry in Groups.
func (inv *Inventory) AddGroup(name string, items []HostDescriptor) {
	if inv.Hosts == nil {
		inv.Hosts = make(map[string][]HostDescriptor)
	}
	if _, exists := inv.Hosts[name]; !exists {
		inv.Groups = append(inv.Groups, name)
	}
	inv.Hosts[name] = append(inv.Hosts[name], items...)
}

// Combine merges several inventories' groups into one, applying each
// item's InheritOptions against a shared group-options value before
// storing it, and preserving the group-insertion order each source
// inventory observed.
func Combine(inventories []*Inventory, shared GroupOptions) *Inventory {
	merged := &Inventory{Hosts: make(map[string][]HostDescriptor)}
	for _, inv := range inventories {
		for _, group := range inv.groupOrder() {
			items := inv.Hosts[group]
			resolved := make([]HostDescriptor, len(items))
			for i, item := range items {
				resolved[i] = item.WithDefaults().InheritOptions(shared)
			}
			merged.AddGroup(group, resolved)
		}
	}
	return merged
}

// groupOrder returns inv.Groups when set, falling back to a sorted key
// scan for inventories built by older call sites that never populated it.
func (inv *Inventory) groupOrder() []string {
	if len(inv.Groups) > 0 {
		return inv.Groups
	}
	keys := make([]string, 0, len(inv.Hosts))
	for group := range inv.Hosts {
		keys = append(keys, group)
	}
	sort.Strings(keys)
	return keys
}

// All iterates every host descriptor across every group, in
// group-insertion order then in-group order, matching the original's
// deterministic iteration invariant.
func (inv *Inventory) All() []HostDescriptor {
	var all []HostDescriptor
	for _, group := range inv.groupOrder() {
		all = append(all, inv.Hosts[group]...)
	}
	return all
}

// Select narrows the inventory to hosts whose Host field exactly matches
// criteria, preserving group membership and order, mirroring the
// original's exact string-match select().
func (inv *Inventory) Select(criteria string) *Inventory {
	selected := &Inventory{Hosts: make(map[string][]HostDescriptor), Parent: inv}
	for _, group := range inv.groupOrder() {
		var kept []HostDescriptor
		for _, item := range inv.Hosts[group] {
			if item.Host == criteria {
				kept = append(kept, item)
			}
		}
		if len(kept) > 0 {
			selected.AddGroup(group, kept)
		}
	}
	return selected
}
