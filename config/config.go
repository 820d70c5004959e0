// Package config holds the settings shared by the wiki server, the static
// exporter and the maintenance commands. Every path a component touches
// comes from here; nothing is resolved relative to package globals.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for a wiki.
type Config struct {
	Name string // Site name (default "Wiki")
	URL  string // Canonical URL; enables sitemap.xml in exports when set
	Addr string // Listen address (default ":8000")

	EntriesDir      string // Markdown sources (default "entries")
	MetadataBackend string // "json" (default) or "sqlite"
	MetadataPath    string // JSON metadata document (default "datas/wikis.json")
	MetadataDBPath  string // SQLite metadata database (default "datas/wikis.db")
	ImagesDir       string // Entry images (default "static/images")
	ImagesURL       string // URL prefix images are served under (default "/static/images")
	OutputDir       string // Static export target (default "public")
	AssetSources    []string

	SessionSecret string // Required by the server: flash-message cookie key
	CookieSecure  bool   // Set true for HTTPS

	EntryCacheTTL time.Duration // Title list cache TTL (default 1min)
	WriteLimit    int           // Writes allowed per IP per WriteWindow (default 20)
	WriteWindow   time.Duration // default 1min
}

// Default returns a Config with every default applied.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Wiki"
	}
	if c.Addr == "" {
		c.Addr = ":8000"
	}
	if c.EntriesDir == "" {
		c.EntriesDir = "entries"
	}
	if c.MetadataBackend == "" {
		c.MetadataBackend = "json"
	}
	if c.MetadataPath == "" {
		c.MetadataPath = "datas/wikis.json"
	}
	if c.MetadataDBPath == "" {
		c.MetadataDBPath = "datas/wikis.db"
	}
	if c.ImagesDir == "" {
		c.ImagesDir = "static/images"
	}
	if c.ImagesURL == "" {
		c.ImagesURL = "/static/images"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
	if c.AssetSources == nil {
		c.AssetSources = []string{"static"}
	}
	if c.EntryCacheTTL == 0 {
		c.EntryCacheTTL = time.Minute
	}
	if c.WriteLimit == 0 {
		c.WriteLimit = 20
	}
	if c.WriteWindow == 0 {
		c.WriteWindow = time.Minute
	}
}

// Load reads the optional YAML file at path and then WIKI_* environment
// variables, which take precedence. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WIKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("name", defaults.Name)
	v.SetDefault("url", "")
	v.SetDefault("addr", defaults.Addr)
	v.SetDefault("entries_dir", defaults.EntriesDir)
	v.SetDefault("metadata_backend", defaults.MetadataBackend)
	v.SetDefault("metadata_path", defaults.MetadataPath)
	v.SetDefault("metadata_db_path", defaults.MetadataDBPath)
	v.SetDefault("images_dir", defaults.ImagesDir)
	v.SetDefault("images_url", defaults.ImagesURL)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("asset_sources", defaults.AssetSources)
	v.SetDefault("session_secret", "")
	v.SetDefault("cookie_secure", false)
	v.SetDefault("entry_cache_ttl", defaults.EntryCacheTTL)
	v.SetDefault("write_limit", defaults.WriteLimit)
	v.SetDefault("write_window", defaults.WriteWindow)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	c := &Config{
		Name:            v.GetString("name"),
		URL:             v.GetString("url"),
		Addr:            v.GetString("addr"),
		EntriesDir:      v.GetString("entries_dir"),
		MetadataBackend: strings.ToLower(v.GetString("metadata_backend")),
		MetadataPath:    v.GetString("metadata_path"),
		MetadataDBPath:  v.GetString("metadata_db_path"),
		ImagesDir:       v.GetString("images_dir"),
		ImagesURL:       v.GetString("images_url"),
		OutputDir:       v.GetString("output_dir"),
		AssetSources:    v.GetStringSlice("asset_sources"),
		SessionSecret:   v.GetString("session_secret"),
		CookieSecure:    v.GetBool("cookie_secure"),
		EntryCacheTTL:   v.GetDuration("entry_cache_ttl"),
		WriteLimit:      v.GetInt("write_limit"),
		WriteWindow:     v.GetDuration("write_window"),
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.MetadataBackend != "json" && c.MetadataBackend != "sqlite" {
		return nil, fmt.Errorf("config: metadata_backend must be json or sqlite, got %q", c.MetadataBackend)
	}
	return c, nil
}

// validate rejects limits that would misbehave at runtime. Zero values were
// already replaced by defaults, so anything not positive was set explicitly.
func (c *Config) validate() error {
	switch {
	case c.WriteWindow <= 0:
		return fmt.Errorf("config: write_window must be positive, got %s", c.WriteWindow)
	case c.WriteLimit <= 0:
		return fmt.Errorf("config: write_limit must be positive, got %d", c.WriteLimit)
	case c.EntryCacheTTL <= 0:
		return fmt.Errorf("config: entry_cache_ttl must be positive, got %s", c.EntryCacheTTL)
	}
	return nil
}
