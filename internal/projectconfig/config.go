// Package projectconfig provides the ProjectConfig struct and loader for
// .evaldash.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spboyer/evaldash/internal/metricsapi"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file searched for by Load.
const FileName = ".evaldash.yaml"

// EnvBaseURL overrides api.base_url when set.
const EnvBaseURL = "EVALDASH_API_BASE_URL"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultBaseURL = metricsapi.DefaultBaseURL
	DefaultTimeout = time.Duration(0)

	DefaultPollInterval  = 5 * time.Second
	DefaultIncludeCurves = true

	DefaultListLimit = 10

	DefaultServerPort = 3000

	DefaultCacheDir = ".evaldash-cache"
)

// maxSearchDepth bounds the upward search for FileName.
const maxSearchDepth = 10

// APIConfig holds metrics backend settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// PollConfig holds settings of the latest-run poller.
type PollConfig struct {
	Interval      time.Duration `yaml:"interval,omitempty"`
	IncludeCurves *bool         `yaml:"include_curves,omitempty"`
}

// ListConfig holds defaults of the list command.
type ListConfig struct {
	Limit int `yaml:"limit,omitempty"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Port           int      `yaml:"port,omitempty"`
	NoBrowser      *bool    `yaml:"no_browser,omitempty"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// PredictConfig holds predict proxy settings.
type PredictConfig struct {
	// Schema is a JSON or YAML JSON-Schema file validating payloads.
	Schema string `yaml:"schema,omitempty"`
}

// CacheConfig holds the last-run snapshot cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .evaldash.yaml.
type ProjectConfig struct {
	API     APIConfig     `yaml:"api,omitempty"`
	Poll    PollConfig    `yaml:"poll,omitempty"`
	List    ListConfig    `yaml:"list,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Predict PredictConfig `yaml:"predict,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Poll: PollConfig{
			Interval:      DefaultPollInterval,
			IncludeCurves: boolPtr(DefaultIncludeCurves),
		},
		List: ListConfig{
			Limit: DefaultListLimit,
		},
		Server: ServerConfig{
			Port:      DefaultServerPort,
			NoBrowser: boolPtr(false),
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// IncludeCurves reports the effective poll.include_curves value.
func (c *ProjectConfig) IncludeCurves() bool {
	return c.Poll.IncludeCurves == nil || *c.Poll.IncludeCurves
}

// NoBrowser reports the effective server.no_browser value.
func (c *ProjectConfig) NoBrowser() bool {
	return c.Server.NoBrowser != nil && *c.Server.NoBrowser
}

// CacheDir returns the snapshot cache directory, or "" when caching is off.
func (c *ProjectConfig) CacheDir() string {
	if c.Cache.Enabled == nil || !*c.Cache.Enabled {
		return ""
	}
	return c.Cache.Dir
}

// Load finds .evaldash.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	path, data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := fileCfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	mergeConfig(cfg, &fileCfg)
	cfg.Path = path
	return cfg, nil
}

func (c *ProjectConfig) validate() error {
	switch {
	case c.API.Timeout < 0:
		return fmt.Errorf("api.timeout must not be negative")
	case c.Poll.Interval < 0:
		return fmt.Errorf("poll.interval must not be negative")
	case c.List.Limit < 0:
		return fmt.Errorf("list.limit must not be negative")
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}

// findConfigFile walks up from dir looking for FileName. It returns
// fs.ErrNotExist if none is found and propagates real I/O errors.
func findConfigFile(dir string) (string, []byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range maxSearchDepth {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return p, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", nil, fs.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	if src.API.BaseURL != "" {
		dst.API.BaseURL = src.API.BaseURL
	}
	if src.API.Timeout != 0 {
		dst.API.Timeout = src.API.Timeout
	}

	if src.Poll.Interval != 0 {
		dst.Poll.Interval = src.Poll.Interval
	}
	if src.Poll.IncludeCurves != nil {
		dst.Poll.IncludeCurves = src.Poll.IncludeCurves
	}

	if src.List.Limit != 0 {
		dst.List.Limit = src.List.Limit
	}

	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.NoBrowser != nil {
		dst.Server.NoBrowser = src.Server.NoBrowser
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	if src.Predict.Schema != "" {
		dst.Predict.Schema = src.Predict.Schema
	}

	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
}

// LoadEnv reads .env files into the process environment. Missing files are
// ignored; variables already set are not overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment overrides onto cfg.
func ApplyEnv(cfg *ProjectConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBaseURL)); v != "" {
		cfg.API.BaseURL = v
	}
}

// Save writes cfg to dir/.evaldash.yaml and returns the file path.
func Save(dir string, cfg *ProjectConfig) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", FileName, err)
	}
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", p, err)
	}
	return p, nil
}

func boolPtr(b bool) *bool {
	return &b
}
