// Package invfile loads inventory.Inventory values from a directory tree
// of YAML files, one group per file, named after the file's base name.
package invfile

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/inventory"
	"github.com/griffithind/frog/internal/tags"
)

// groupFile is the documented per-group schema (spec.md §6): a shared
// "options" block (currently only jump_via) inherited by every host that
// doesn't set its own, plus the "hosts" list itself.
type groupFile struct {
	Options inventory.GroupOptions    `yaml:"options"`
	Hosts   []inventory.HostDescriptor `yaml:"hosts"`
}

// Load walks each path in roots (a file is loaded directly; a directory
// is walked recursively) and combines every group it finds into a single
// inventory, mirroring the original's worklist-based recursive walk.
// Every regular file encountered is parsed as a group file — the loader
// does not filter by extension; a directory containing something that
// isn't valid YAML is a configuration error the operator must avoid by
// keeping non-inventory files out of the inventory roots.
//
// prompter backs any !prompt/!env_or_prompt tags encountered while
// parsing; pass tags.NewTerminalPrompter() for interactive use.
func Load(roots []string, prompter tags.Prompter) (*inventory.Inventory, error) {
	merged := &inventory.Inventory{Hosts: make(map[string][]inventory.HostDescriptor)}

	work := append([]string{}, roots...)
	for len(work) > 0 {
		path := work[0]
		work = work[1:]

		info, err := os.Stat(path)
		if err != nil {
			return nil, ferrors.InventoryParse(path, err)
		}

		if info.IsDir() {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, ferrors.InventoryParse(path, err)
			}
			for _, entry := range entries {
				work = append(work, filepath.Join(path, entry.Name()))
			}
			continue
		}

		group, items, err := loadFile(path, prompter)
		if err != nil {
			return nil, err
		}
		merged.AddGroup(group, items)
	}

	return merged, nil
}

func loadFile(path string, prompter tags.Prompter) (string, []inventory.HostDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, ferrors.InventoryParse(path, err)
	}

	group := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", nil, ferrors.InventoryParse(path, err)
	}
	if len(root.Content) == 0 {
		// An empty file is a group with no hosts, not an error.
		return group, nil, nil
	}

	// Resolve !env/!prompt/!env_or_prompt tags against the raw node tree
	// before decoding into typed host descriptors. Every tag in the file
	// is resolved here, during Load, including placeholders that no
	// selected host ends up using, so a !prompt fires even when unused.
	resolved, err := tags.ResolveNode(root.Content[0], prompter)
	if err != nil {
		return "", nil, ferrors.InventoryParse(path, err)
	}

	remarshaled, err := yaml.Marshal(resolved)
	if err != nil {
		return "", nil, ferrors.Wrapf(err, ferrors.CategoryInventory, ferrors.CodeInventoryParse, "failed to re-marshal resolved inventory file %s", path)
	}

	var gf groupFile
	if err := yaml.Unmarshal(remarshaled, &gf); err != nil {
		return "", nil, ferrors.InventoryParse(path, err)
	}

	resolvedHosts := make([]inventory.HostDescriptor, len(gf.Hosts))
	for i, item := range gf.Hosts {
		resolvedHosts[i] = item.WithDefaults().InheritOptions(gf.Options)
	}

	return group, resolvedHosts, nil
}
