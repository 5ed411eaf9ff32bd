package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/griffithind/frog/internal/bootstrap"
	"github.com/griffithind/frog/internal/config"
	"github.com/griffithind/frog/internal/factcache"
	"github.com/griffithind/frog/internal/inventory"
	"github.com/griffithind/frog/internal/kvparse"
	"github.com/griffithind/frog/internal/output"
	"github.com/griffithind/frog/internal/runner"
	"github.com/griffithind/frog/internal/util"
)

var (
	runHosts  []string
	runGroups []string
)

var runCmd = &cobra.Command{
	Use:   "run TARGET [key=value ...]",
	Short: "Dispatch a resource call against the selected hosts",
	Long: `Run connects to every selected host, bootstrapping frog-agent
onto it if needed, and dispatches TARGET (a "namespace.function" name
such as file.mkdirs) with the given key=value arguments, concurrently
across hosts.

Examples:
  frog run --group db facts.gather
  frog run --host db-n01 file.mkdirs path=/opt/app create_mode=0755`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runHosts, "host", nil, "select a single host by name (repeatable)")
	runCmd.Flags().StringArrayVar(&runGroups, "group", nil, "select every host in a group (repeatable)")
	runCmd.Flags().SetInterspersed(false)
}

func selectHosts(inv *inventory.Inventory) ([]inventory.HostDescriptor, error) {
	if len(runHosts) == 0 && len(runGroups) == 0 {
		return inv.All(), nil
	}

	var selected []inventory.HostDescriptor
	for _, name := range runHosts {
		match := inv.Select(name).All()
		if len(match) == 0 {
			return nil, fmt.Errorf("no host named %q in the inventory", name)
		}
		selected = append(selected, match...)
	}
	for _, group := range runGroups {
		items, ok := inv.Hosts[group]
		if !ok {
			return nil, fmt.Errorf("no group named %q in the inventory", group)
		}
		selected = append(selected, items...)
	}
	return selected, nil
}

func newFactCache() (factcache.Cache, error) {
	if cfg.FactCacheType == config.FactCacheTypeMemory {
		return factcache.NewMemoryCache(), nil
	}

	dir := cfg.FactCacheDirectory
	if dir == "" {
		cacheDir, err := util.CacheDir()
		if err != nil {
			return nil, err
		}
		dir = cacheDir
	}
	return factcache.NewFilesystemCache(dir, cfg.FactCacheValidity())
}

func runRun(cmd *cobra.Command, args []string) error {
	target := args[0]
	kvArgs, err := kvparse.ParseMany(args[1:])
	if err != nil {
		return err
	}

	inv, err := loadInventory()
	if err != nil {
		return err
	}

	hosts, err := selectHosts(inv)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		return fmt.Errorf("no hosts selected")
	}

	cache, err := newFactCache()
	if err != nil {
		return err
	}

	r := runner.New(cache, bootstrap.Settings{
		Directory: cfg.BootstrapDirectory,
		Clean:     cfg.BootstrapClean,
	})
	defer func() {
		if err := r.Close(); err != nil {
			output.Error("error closing connections: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	spinner := output.StartSpinner(fmt.Sprintf("dispatching %s to %d host(s)", target, len(hosts)))
	start := time.Now()
	results := r.Execute(ctx, hosts, target, kvArgs)
	elapsed := time.Since(start)

	failed := 0
	for _, res := range results {
		if !res.Success() {
			failed++
		}
	}

	if failed == 0 {
		spinner.Success(fmt.Sprintf("%d host(s) completed in %s", len(results), elapsed.Round(time.Millisecond)))
	} else {
		spinner.Fail(fmt.Sprintf("%d of %d host(s) failed", failed, len(results)))
	}

	// Exit code is 0 on a successful dispatch even when individual hosts
	// failed — a host failure is a result to render, not a process
	// error. Non-zero exits are reserved for configuration errors and an
	// empty filtered inventory, both returned as errors above and
	// surfaced through cobra's own exit-code handling in cmd/frog.
	return output.RenderResults(results)
}
