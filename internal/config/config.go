// Package config provides configuration management for ratchetgate.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (RGATE_*)
// 3. Project config (.ratchet/config.yaml in cwd)
// 4. Home config (~/.ratchet/config.yaml)
// 5. Defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/EffortlessMetrics/ratchetgate/internal/metric"
)

// Config holds all ratchetgate configuration.
type Config struct {
	// Output controls the default output format (table, json).
	Output string `yaml:"output"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose"`

	// Jobs is the scan worker-pool size (0 = NumCPU).
	Jobs int `yaml:"jobs"`

	// Store settings
	Store StoreConfig `yaml:"store"`

	// Scan settings
	Scan ScanConfig `yaml:"scan"`

	// Metrics declares extra metrics or overrides built-in ones.
	Metrics []metric.Metric `yaml:"metrics"`
}

// StoreConfig holds baseline persistence settings.
type StoreConfig struct {
	// Dir is the baseline directory (default: ci).
	Dir string `yaml:"dir"`
}

// ScanConfig holds scanner settings.
type ScanConfig struct {
	// Engine selects the pre-filter: auto, rg, internal.
	Engine string `yaml:"engine"`

	// OffenderLimit caps the offender listing per metric.
	OffenderLimit int `yaml:"offender_limit"`

	// ExcludeDirs is the global directory denylist applied to every metric.
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput        = "table"
	defaultStoreDir      = "ci"
	defaultEngine        = "auto"
	defaultOffenderLimit = 20
)

// defaultExcludeDirs are pruned from every scan regardless of metric.
var defaultExcludeDirs = []string{".git", "node_modules", "vendor"}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output: defaultOutput,
		Store:  StoreConfig{Dir: defaultStoreDir},
		Scan: ScanConfig{
			Engine:        defaultEngine,
			OffenderLimit: defaultOffenderLimit,
			ExcludeDirs:   append([]string{}, defaultExcludeDirs...),
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, err := loadFromPath(homeConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(projectConfigPath())
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ratchet", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("RGATE_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".ratchet", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("RGATE_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("RGATE_STORE_DIR"); v != "" {
		cfg.Store.Dir = v
	}
	if v := os.Getenv("RGATE_ENGINE"); v != "" {
		cfg.Scan.Engine = v
	}
	if v := os.Getenv("RGATE_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	if src.Verbose {
		dst.Verbose = true
	}
	mergeInt(&dst.Jobs, src.Jobs)

	mergeStr(&dst.Store.Dir, src.Store.Dir)

	mergeStr(&dst.Scan.Engine, src.Scan.Engine)
	mergeInt(&dst.Scan.OffenderLimit, src.Scan.OffenderLimit)
	if len(src.Scan.ExcludeDirs) > 0 {
		dst.Scan.ExcludeDirs = src.Scan.ExcludeDirs
	}

	// Metric declarations accumulate; ID collisions resolve via the
	// registry's override semantics.
	dst.Metrics = append(dst.Metrics, src.Metrics...)

	return dst
}
