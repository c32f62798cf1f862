// Package config loads and persists the project-level taskroute
// configuration stored under .taskroute/config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// Dir is the per-project directory holding all taskroute state.
	Dir = ".taskroute"
	// ConfigFile is the configuration file name inside Dir.
	ConfigFile = "config.json"
	// CurrentVersion is the config schema version this build reads.
	CurrentVersion = 1
)

// DirPath returns the taskroute state directory for a project root.
func DirPath(root string) string {
	return filepath.Join(root, Dir)
}

// FindRoot walks up from the working directory looking for an existing
// .taskroute/config.json. When none is found it returns the working
// directory itself, so commands run before init still have a root.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if _, err := os.Stat(ConfigPath(current)); err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

// ConfigPath returns the configuration file path for a project root.
func ConfigPath(root string) string {
	return filepath.Join(DirPath(root), ConfigFile)
}

// Config is the complete taskroute configuration.
type Config struct {
	Version        int    `json:"version" mapstructure:"version"`
	DefaultBackend string `json:"defaultBackend" mapstructure:"defaultBackend"`

	Backends BackendsConfig `json:"backends" mapstructure:"backends"`
	Graph    GraphConfig    `json:"graph" mapstructure:"graph"`
	Route    RouteConfig    `json:"route" mapstructure:"route"`
	Assist   AssistConfig   `json:"assist" mapstructure:"assist"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// BackendsConfig enables and parameterizes the storage adapters. Each
// adapter owns one namespace prefix.
type BackendsConfig struct {
	Markdown MarkdownConfig `json:"markdown" mapstructure:"markdown"`
	JSONFile JSONFileConfig `json:"jsonfile" mapstructure:"jsonfile"`
	GitHub   GitHubConfig   `json:"github" mapstructure:"github"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
}

// MarkdownConfig configures the md adapter: one markdown file per task.
type MarkdownConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Dir     string `json:"dir" mapstructure:"dir"`
}

// JSONFileConfig configures the json adapter: all tasks in one document.
type JSONFileConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// GitHubConfig configures the gh adapter backed by repository issues.
// TokenEnv names the environment variable holding the API token; the
// token itself never lives in the config file.
type GitHubConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Repo     string `json:"repo" mapstructure:"repo"`
	BaseURL  string `json:"baseUrl" mapstructure:"baseUrl"`
	TokenEnv string `json:"tokenEnv" mapstructure:"tokenEnv"`
}

// DatabaseConfig configures the db adapter backed by a local SQLite file.
type DatabaseConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// GraphConfig configures the dependency graph store.
type GraphConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// RouteConfig configures the route planner.
type RouteConfig struct {
	Strategy      string `json:"strategy" mapstructure:"strategy"`
	CallTimeoutMs int    `json:"callTimeoutMs" mapstructure:"callTimeoutMs"`
}

// AssistConfig configures the model-assisted drafting feature.
type AssistConfig struct {
	Model     string `json:"model" mapstructure:"model"`
	MaxTokens int    `json:"maxTokens" mapstructure:"maxTokens"`
	APIKeyEnv string `json:"apiKeyEnv" mapstructure:"apiKeyEnv"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// Default returns the configuration used when no config file exists: the
// three local adapters enabled under .taskroute/, GitHub off until a
// repository is configured.
func Default() *Config {
	return &Config{
		Version:        CurrentVersion,
		DefaultBackend: "md",
		Backends: BackendsConfig{
			Markdown: MarkdownConfig{
				Enabled: true,
				Dir:     filepath.Join(Dir, "tasks"),
			},
			JSONFile: JSONFileConfig{
				Enabled: true,
				Path:    filepath.Join(Dir, "tasks.json"),
			},
			GitHub: GitHubConfig{
				Enabled:  false,
				BaseURL:  "https://api.github.com",
				TokenEnv: "GITHUB_TOKEN",
			},
			Database: DatabaseConfig{
				Enabled: true,
				Path:    filepath.Join(Dir, "tasks.db"),
			},
		},
		Graph: GraphConfig{
			Path: filepath.Join(Dir, "graph.db"),
		},
		Route: RouteConfig{
			Strategy:      "ready-first",
			CallTimeoutMs: 10000,
		},
		Assist: AssistConfig{
			Model:     "claude-sonnet-4-6",
			MaxTokens: 4096,
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads the configuration from root/.taskroute/config.json. A
// missing file yields the defaults; a malformed file is an error.
func Load(root string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", CurrentVersion)
	v.SetDefault("defaultBackend", "md")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(DirPath(root))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to root/.taskroute/config.json, creating
// the directory if needed.
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(DirPath(root), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(ConfigPath(root), data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// EnabledPrefixes returns the namespace prefixes of the enabled adapters,
// in registration order.
func (c *Config) EnabledPrefixes() []string {
	var out []string
	if c.Backends.Markdown.Enabled {
		out = append(out, "md")
	}
	if c.Backends.JSONFile.Enabled {
		out = append(out, "json")
	}
	if c.Backends.GitHub.Enabled {
		out = append(out, "gh")
	}
	if c.Backends.Database.Enabled {
		out = append(out, "db")
	}
	return out
}

// Validate checks cross-field constraints before the config is used.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("config: unsupported version %d, want %d", c.Version, CurrentVersion)
	}

	if c.Backends.GitHub.Enabled && c.Backends.GitHub.Repo == "" {
		return fmt.Errorf("config: backends.github.repo is required when the gh backend is enabled")
	}

	if c.DefaultBackend != "" {
		found := false
		for _, p := range c.EnabledPrefixes() {
			if p == c.DefaultBackend {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("config: defaultBackend %q is not an enabled backend", c.DefaultBackend)
		}
	}
	return nil
}
