// Package cli implements the command-line interface for frog.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/griffithind/frog/internal/config"
	"github.com/griffithind/frog/internal/output"
	"github.com/griffithind/frog/internal/util"
	"github.com/griffithind/frog/internal/version"
)

// Global flags
var (
	workspacePath string
	configPath    string
	jsonOutput    bool
	prettyOutput  bool
	tableOutput   bool
	pprintOutput  bool
	noColor       bool
	quiet         bool
	verbose       bool

	// cfg is the resolved configuration, populated in PersistentPreRunE
	// once workspacePath is known.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "frog",
	Short: "Dispatch typed operations across a host inventory",
	Long: `frog connects to a tree of hosts over SSH, Docker, or Podman,
bootstraps a small agent binary onto each one, and dispatches typed
operations against them concurrently, collecting a result envelope per
host.`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format := output.FormatText
		switch {
		case jsonOutput:
			format = output.FormatJSON
		case prettyOutput:
			format = output.FormatPrettyJSON
		case tableOutput:
			format = output.FormatTable
		case pprintOutput:
			format = output.FormatPrettyPrint
		}

		verbosity := output.VerbosityNormal
		switch {
		case quiet:
			verbosity = output.VerbosityQuiet
		case verbose:
			verbosity = output.VerbosityVerbose
		}

		output.Configure(output.Config{
			Format:    format,
			Verbosity: verbosity,
			NoColor:   noColor,
			Writer:    os.Stdout,
			ErrWriter: os.Stderr,
		})

		// util's slog-backed logger is the diagnostic trace (connection
		// dials, cache hits, bootstrap steps) underneath the pterm-backed
		// output package's user-facing success/error/table rendering;
		// --verbose turns both up together.
		util.SetVerbose(verbose)

		if workspacePath == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			workspacePath = wd
		}

		loaded, err := config.Load(workspacePath, configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "w", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to .frogrc.jsonc (default: auto-detect)")

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&prettyOutput, "pretty-json", false, "output as indented JSON")
	rootCmd.PersistentFlags().BoolVar(&tableOutput, "table", false, "output as a table")
	rootCmd.PersistentFlags().BoolVar(&pprintOutput, "pprint", false, "output as a pretty-printed tree")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(runCmd)
}
