// Package config loads frog's run configuration: bootstrap settings, the
// fact cache location and validity window, and the inventory search
// roots, from a .frogrc.jsonc file with FROG_-prefixed environment
// variables layered over it. No CLI flag overrides a file value.
//
// The original read a single devcontainer.json-style file with jsonc
// comment stripping and no environment layering at all. frog keeps the
// teacher's jsonc parsing (tidwall/jsonc) for the file itself, but adds a
// spf13/viper layer on top so FROG_BOOTSTRAP_DIRECTORY-style environment
// variables and future CLI flags can override individual file values
// without frog having to hand-roll that precedence logic.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"github.com/tidwall/jsonc"

	"github.com/griffithind/frog/internal/bootstrap"
	"github.com/griffithind/frog/internal/ferrors"
	"github.com/griffithind/frog/internal/util"
)

// fileNames are tried in order against the workspace directory, mirroring
// the teacher's configLocations search list.
var fileNames = []string{".frogrc.jsonc", ".frogrc.json"}

// Config is frog's resolved run configuration.
type Config struct {
	// InventoryRoots lists the directories to search for inventory YAML
	// files.
	InventoryRoots []string `json:"inventory_roots" mapstructure:"inventory_roots"`

	// BootstrapDirectory is the remote path frog-agent is staged into.
	BootstrapDirectory string `json:"bootstrap_directory" mapstructure:"bootstrap_directory"`

	// BootstrapClean forces a fresh agent push on every connect.
	BootstrapClean bool `json:"bootstrap_clean" mapstructure:"bootstrap_clean"`

	// FactCacheType selects the fact cache backend: "filesystem" (the
	// default, persists between runs) or "memory" (cleared when the
	// run ends).
	FactCacheType string `json:"fact_cache_type" mapstructure:"fact_cache_type"`

	// FactCacheDirectory is where the filesystem fact cache is stored.
	// Empty means the OS cache directory (internal/util.CacheDir).
	FactCacheDirectory string `json:"fact_cache_directory" mapstructure:"fact_cache_directory"`

	// FactCacheValiditySeconds is how long cached facts remain fresh.
	FactCacheValiditySeconds int `json:"fact_cache_validity_seconds" mapstructure:"fact_cache_validity_seconds"`
}

// FactCacheTypeFilesystem and FactCacheTypeMemory are the recognized
// values for FactCacheType.
const (
	FactCacheTypeFilesystem = "filesystem"
	FactCacheTypeMemory     = "memory"
)

// defaultFactCacheValiditySeconds mirrors a one-day cache window, a
// reasonable default for facts that rarely change between runs.
const defaultFactCacheValiditySeconds = 24 * 60 * 60

func defaults() Config {
	return Config{
		InventoryRoots:           []string{"inventory"},
		BootstrapDirectory:       bootstrap.DefaultDirectory,
		FactCacheType:            FactCacheTypeFilesystem,
		FactCacheValiditySeconds: defaultFactCacheValiditySeconds,
	}
}

// FactCacheValidity returns the configured validity window as a
// time.Duration.
func (c Config) FactCacheValidity() time.Duration {
	return time.Duration(c.FactCacheValiditySeconds) * time.Second
}

// Resolve finds the first existing config file under workspacePath,
// mirroring the teacher's config.Resolve standard-location search. It
// returns "" with no error when none of the candidate file names exist;
// running with defaults only is valid.
func Resolve(workspacePath string) (string, error) {
	if !util.IsDir(workspacePath) {
		return "", ferrors.Newf(ferrors.CategoryConfig, ferrors.CodeConfigNotFound, "workspace directory does not exist: %s", workspacePath)
	}

	for _, name := range fileNames {
		candidate := filepath.Join(workspacePath, name)
		if util.IsFile(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// Load resolves and parses frog's configuration, applying defaults for
// any field left unset by the file and by FROG_-prefixed environment
// variables. configPath overrides the search when non-empty.
func Load(workspacePath, configPath string) (*Config, error) {
	if configPath == "" {
		resolved, err := Resolve(workspacePath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	v := viper.New()
	v.SetEnvPrefix("FROG")
	v.AutomaticEnv()

	cfg := defaults()
	bindDefaults(v, cfg)

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, ferrors.ConfigParse(configPath, err)
		}

		var raw map[string]interface{}
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, ferrors.ConfigParse(configPath, err)
		}
		if err := v.MergeConfigMap(raw); err != nil {
			return nil, ferrors.ConfigParse(configPath, err)
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return nil, ferrors.ConfigParse(configPath, err)
	}
	return &out, nil
}

// bindDefaults seeds viper with cfg's zero-override defaults so that an
// absent file or absent environment variable still resolves to a sane
// value rather than the type's zero value.
func bindDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("inventory_roots", cfg.InventoryRoots)
	v.SetDefault("bootstrap_directory", cfg.BootstrapDirectory)
	v.SetDefault("bootstrap_clean", cfg.BootstrapClean)
	v.SetDefault("fact_cache_type", cfg.FactCacheType)
	v.SetDefault("fact_cache_directory", cfg.FactCacheDirectory)
	v.SetDefault("fact_cache_validity_seconds", cfg.FactCacheValiditySeconds)
}
