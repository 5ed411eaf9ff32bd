package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/griffithind/frog/internal/inventory"
	"github.com/griffithind/frog/internal/invfile"
	"github.com/griffithind/frog/internal/tags"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every host in the inventory",
	Long: `List lists every host descriptor found under the configured
inventory roots, grouped by the YAML file each group was loaded from.`,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show HOST",
	Short: "Show the resolved descriptor for a single host",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func loadInventory() (*inventory.Inventory, error) {
	return invfile.Load(cfg.InventoryRoots, tags.NewTerminalPrompter())
}

func runList(cmd *cobra.Command, args []string) error {
	inv, err := loadInventory()
	if err != nil {
		return err
	}

	groups := make([]string, 0, len(inv.Hosts))
	for group := range inv.Hosts {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	if jsonOutput || prettyOutput {
		enc := json.NewEncoder(os.Stdout)
		if prettyOutput {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(inv.Hosts)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tHOST\tPORT\tJUMP VIA\tSUDO")
	for _, group := range groups {
		for _, h := range inv.Hosts[group] {
			jumpVia := "-"
			if h.JumpVia != nil {
				jumpVia = h.JumpVia.Host
			}
			sudo := "-"
			if h.SudoEnabled() {
				sudo = h.SudoUsername()
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", group, h.Host, h.Port, jumpVia, sudo)
		}
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	target := args[0]
	inv, err := loadInventory()
	if err != nil {
		return err
	}

	selected := inv.Select(target)
	hosts := selected.All()
	if len(hosts) == 0 {
		return fmt.Errorf("no host named %q in the inventory", target)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(hosts[0])
}
