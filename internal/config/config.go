package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "config.yaml"

// Config is the top-level sitebuilder configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Build   BuildConfig   `yaml:"build"`
	Search  SearchConfig  `yaml:"search"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`

	// Assets maps an entry name to its emitted files (e.g. "main" -> {"js": "main.3f2a.js"}).
	// Populated from manifest.json, never from config.yaml.
	Assets Assets `yaml:"-"`

	// Dir is the directory the configuration was loaded from.
	Dir string `yaml:"-"`
}

// SiteConfig describes the published site.
type SiteConfig struct {
	Title             string `yaml:"title"`
	URL               string `yaml:"url"`
	Author            string `yaml:"author"`
	Description       string `yaml:"description"`
	CDNURL            string `yaml:"cdn_url"`
	APIURL            string `yaml:"api_url"`
	GoogleAnalyticsID string `yaml:"google_analytics_id"`
}

// BuildConfig controls input/output locations and the rendering pipeline.
type BuildConfig struct {
	ContentDir         string `yaml:"content_dir"`
	PagesDir           string `yaml:"pages_dir"`
	OutputDir          string `yaml:"output_dir"`
	TemplatesDir       string `yaml:"templates_dir"`
	StaticDir          string `yaml:"static_dir"`
	CacheDir           string `yaml:"cache_dir"`
	PostsPerPage       int    `yaml:"posts_per_page"`
	PaginationWindow   int    `yaml:"pagination_window"`
	HomepagePostsLimit int    `yaml:"homepage_posts_limit"`
	EncodeFilenames    bool   `yaml:"encode_filenames"`
	GeneratePartials   bool   `yaml:"generate_partials"`
	PartialDir         string `yaml:"partial_dir"`
	Threads            int    `yaml:"threads"`
	GitDates           bool   `yaml:"git_dates"`
	// Navigation is the scope of prev/next links: NavigationCategory or NavigationGlobal.
	Navigation string `yaml:"navigation"`
}

// Prev/next navigation scopes.
const (
	NavigationCategory = "category"
	NavigationGlobal   = "global"
)

// SearchConfig controls the search index outputs.
type SearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SQLite     bool   `yaml:"sqlite"`
	SQLitePath string `yaml:"sqlite_path"`
}

// EventsConfig configures build notifications over NATS. An empty URL disables them.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus textfile dump written after each build.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// HistoryConfig configures the sqlite build history.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns a configuration populated with every default value.
func Default() *Config {
	cfg := &Config{
		Search:  SearchConfig{Enabled: true},
		History: HistoryConfig{Enabled: true},
		Assets:  Assets{},
	}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// Load reads configPath. A missing file yields Default(); invalid YAML or
// failed validation is a config error.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}
	dir := filepath.Dir(configPath)
	loadEnvFile(dir)

	cfg := Default()
	cfg.Dir = dir

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig,
				fmt.Sprintf("failed to parse config file %s as yaml", configPath)).
				Fatal().
				WithContext("path", configPath).
				Build()
		}
	}

	if err := NewDefaultApplier().ApplyDefaults(cfg); err != nil {
		return nil, err
	}

	assets, err := LoadAssets(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	cfg.Assets = assets

	if err := cfg.Validate(); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// CachePath returns the location of the persisted build cache.
func (c *Config) CachePath() string { return filepath.Join(c.Build.CacheDir, "cache.json") }

// MetadataPath returns the location of the persisted metadata index.
func (c *Config) MetadataPath() string { return filepath.Join(c.Build.CacheDir, "metadata.json") }

// HistoryPath returns the location of the build history database.
func (c *Config) HistoryPath() string { return filepath.Join(c.Build.CacheDir, "history.db") }

// SearchDBPath returns the location of the sqlite search database inside the output tree.
func (c *Config) SearchDBPath() string { return filepath.Join(c.Build.OutputDir, c.Search.SQLitePath) }
