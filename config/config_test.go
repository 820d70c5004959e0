package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "entries", c.EntriesDir)
	assert.Equal(t, "datas/wikis.json", c.MetadataPath)
	assert.Equal(t, "static/images", c.ImagesDir)
	assert.Equal(t, "/static/images", c.ImagesURL)
	assert.Equal(t, "public", c.OutputDir)
	assert.Equal(t, []string{"static"}, c.AssetSources)
	assert.Equal(t, "json", c.MetadataBackend)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().EntriesDir, c.EntriesDir)
	assert.Equal(t, time.Minute, c.EntryCacheTTL)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wiki.yaml")
	yaml := `name: Enciclopedia
entries_dir: content/entries
output_dir: dist
asset_sources:
  - static
  - theme/static
entry_cache_ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("WIKI_OUTPUT_DIR", "build")
	t.Setenv("WIKI_METADATA_BACKEND", "SQLite")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Enciclopedia", c.Name)
	assert.Equal(t, "content/entries", c.EntriesDir)
	assert.Equal(t, "build", c.OutputDir)
	assert.Equal(t, []string{"static", "theme/static"}, c.AssetSources)
	assert.Equal(t, 30*time.Second, c.EntryCacheTTL)
	assert.Equal(t, "sqlite", c.MetadataBackend)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("WIKI_METADATA_BACKEND", "redis")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveLimits(t *testing.T) {
	for key, value := range map[string]string{
		"WIKI_WRITE_WINDOW":    "-1s",
		"WIKI_WRITE_LIMIT":     "-3",
		"WIKI_ENTRY_CACHE_TTL": "-5m",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.ErrorContains(t, err, "must be positive")
		})
	}
}
