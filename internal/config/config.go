package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all snipmerge configuration.
type Config struct {
	// Merge engine tuning
	Merge MergeConfig `yaml:"merge"`

	// Detection of code the snippet omits without a placeholder
	MissingPlaceholders MissingPlaceholdersConfig `yaml:"missing_placeholders"`

	// Directive and import header handling
	Imports ImportsConfig `yaml:"imports"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// MergeConfig configures the reconciliation engine.
type MergeConfig struct {
	AnchorThreshold float64 `yaml:"anchor_threshold"`
	Similarity      string  `yaml:"similarity"` // dice, levenshtein
	SyntaxAware     bool    `yaml:"syntax_aware"`
	// RestOfFile appends the existing tail after a trailing placeholder.
	RestOfFile bool `yaml:"rest_of_file_on_trailing_placeholder"`
}

// MissingPlaceholdersConfig configures the diff oracle.
type MissingPlaceholdersConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Oracle          string `yaml:"oracle"` // local, http, off
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MinOmittedLines int    `yaml:"min_omitted_lines"`
}

// ImportsConfig configures import reconciliation.
type ImportsConfig struct {
	Preserve     bool   `yaml:"preserve"`
	CorrectPaths bool   `yaml:"correct_paths"`
	ProjectRoot  string `yaml:"project_root"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Merge: MergeConfig{
			AnchorThreshold: 0.66,
			Similarity:      "dice",
			SyntaxAware:     true,
			RestOfFile:      true,
		},

		MissingPlaceholders: MissingPlaceholdersConfig{
			Enabled:         true,
			Oracle:          "local",
			BaseURL:         "http://localhost:54787",
			Timeout:         "10s",
			MinOmittedLines: 8,
		},

		Imports: ImportsConfig{
			ProjectRoot: ".",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SNIPMERGE_ANCHOR_THRESHOLD"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SNIPMERGE_ANCHOR_THRESHOLD: %w", err)
		}
		c.Merge.AnchorThreshold = t
	}
	if v := os.Getenv("SNIPMERGE_PRESERVE_IMPORTS"); v != "" {
		c.Imports.Preserve = isTrue(v)
	}
	if v := os.Getenv("SNIPMERGE_CORRECT_IMPORTS"); v != "" {
		c.Imports.CorrectPaths = isTrue(v)
	}
	if v := os.Getenv("SNIPMERGE_PROJECT_PATH"); v != "" {
		c.Imports.ProjectRoot = v
	}
	if v := os.Getenv("SNIPMERGE_DIFF_URL"); v != "" {
		c.MissingPlaceholders.BaseURL = v
		c.MissingPlaceholders.Oracle = "http"
	}
	if v := os.Getenv("SNIPMERGE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

func isTrue(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// GetOracleTimeout returns the diff service timeout as a duration.
func (c *Config) GetOracleTimeout() time.Duration {
	d, err := time.ParseDuration(c.MissingPlaceholders.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// ValidSimilarities lists the supported line scorers.
var ValidSimilarities = []string{"dice", "levenshtein"}

// ValidOracles lists the supported diff oracles.
var ValidOracles = []string{"local", "http", "off"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Merge.AnchorThreshold <= 0 || c.Merge.AnchorThreshold > 1 {
		return fmt.Errorf("anchor_threshold must be in (0, 1], got %v", c.Merge.AnchorThreshold)
	}
	if !contains(ValidSimilarities, c.Merge.Similarity) {
		return fmt.Errorf("invalid similarity: %s (valid: %v)", c.Merge.Similarity, ValidSimilarities)
	}
	if c.MissingPlaceholders.Enabled {
		if !contains(ValidOracles, c.MissingPlaceholders.Oracle) {
			return fmt.Errorf("invalid diff oracle: %s (valid: %v)", c.MissingPlaceholders.Oracle, ValidOracles)
		}
		if c.MissingPlaceholders.Oracle == "http" && c.MissingPlaceholders.BaseURL == "" {
			return fmt.Errorf("missing_placeholders.base_url is required for the http oracle")
		}
		if c.MissingPlaceholders.MinOmittedLines < 1 {
			return fmt.Errorf("min_omitted_lines must be positive, got %d", c.MissingPlaceholders.MinOmittedLines)
		}
	}
	if c.Imports.CorrectPaths && c.Imports.ProjectRoot == "" {
		return fmt.Errorf("imports.project_root is required when correct_paths is set")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
