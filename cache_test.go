package wikiengine

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/wikiengine/entries"
)

func TestTitleCacheServesUntilInvalidated(t *testing.T) {
	store := entries.NewStore(afero.NewMemMapFs(), "entries")
	require.NoError(t, store.Save("Go", "go"))
	cache := NewTitleCache(store, time.Hour)

	assert.Equal(t, []string{"Go"}, cache.List())

	require.NoError(t, store.Save("Python", "py"))
	assert.Equal(t, []string{"Go"}, cache.List(), "still cached")

	cache.Invalidate()
	assert.Equal(t, []string{"Go", "Python"}, cache.List())
}

func TestTitleCacheExpires(t *testing.T) {
	store := entries.NewStore(afero.NewMemMapFs(), "entries")
	cache := NewTitleCache(store, 20*time.Millisecond)
	assert.Empty(t, cache.List())

	require.NoError(t, store.Save("Go", "go"))
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, []string{"Go"}, cache.List())
}
