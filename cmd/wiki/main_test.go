package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/wikiengine/config"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("wiki"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseCommands(t *testing.T) {
	cli, ctx := parse(t, "--env-file", "", "export", "--watch", "-o", "site")
	assert.Equal(t, "export", ctx.Command())
	assert.True(t, cli.Export.Watch)
	assert.Equal(t, "site", cli.Export.Output)
	assert.Equal(t, "wiki.yaml", cli.Config)

	cli, _ = parse(t, "--env-file", "", "convert-images", "Python", "Go")
	assert.Equal(t, []string{"Python", "Go"}, cli.ConvertImages.Titles)

	cli, _ = parse(t, "-v", "--env-file", "", "new", "my-wiki", "--name", "Notes")
	assert.True(t, cli.Verbose)
	assert.Equal(t, "my-wiki", cli.New.Dir)
	assert.Equal(t, "Notes", cli.New.Name)
}

func TestExportCommandBuildsSite(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll("entries", 0o755))
	require.NoError(t, os.WriteFile("entries/Python.md", []byte("# Python"), 0o644))

	cli, ctx := parse(t, "--env-file", "", "export")
	require.NoError(t, ctx.Run(cli))

	_, err := os.Stat(filepath.Join(dir, "public", "wiki", "python", "index.html"))
	assert.NoError(t, err)
}

func TestNewCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	cli, ctx := parse(t, "--env-file", "", "new", "my-wiki")
	require.NoError(t, ctx.Run(cli))

	cfg, err := config.Load("my-wiki/wiki.yaml")
	require.NoError(t, err)
	assert.Equal(t, "My Wiki", cfg.Name)

	assert.Error(t, ctx.Run(cli), "second run must refuse the existing directory")
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	ch, trigger := newDebouncer(20 * time.Millisecond)
	for range 5 {
		trigger()
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no rebuild after burst")
	}
	select {
	case <-ch:
		t.Fatal("burst produced more than one rebuild")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestShouldIgnoreEvent(t *testing.T) {
	out, err := filepath.Abs("public")
	require.NoError(t, err)

	assert.True(t, shouldIgnoreEvent("entries/.Python.md.swp", out))
	assert.True(t, shouldIgnoreEvent("entries/Python.md~", out))
	assert.True(t, shouldIgnoreEvent("public/index.html", out))
	assert.False(t, shouldIgnoreEvent("entries/Python.md", out))
	assert.False(t, shouldIgnoreEvent("publication/x.md", out))
}

func TestWatchRootsDedup(t *testing.T) {
	cfg := config.Default()
	cfg.ImagesDir = "static"
	assert.Equal(t, []string{"entries", "datas", "static"}, watchRoots(cfg))
}
