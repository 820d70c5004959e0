// Command wiki serves, exports and maintains a Markdown wiki.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set at build time via ldflags.
var version = "dev"

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"wiki.yaml"`
	EnvFile string `name:"env-file" help:"dotenv file loaded before the configuration" default:".env"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve         ServeCmd         `cmd:"" help:"Run the wiki web server"`
	Export        ExportCmd        `cmd:"" help:"Build the static site"`
	ConvertImages ConvertImagesCmd `cmd:"" name:"convert-images" help:"Convert entry images to WebP"`
	New           NewCmd           `cmd:"" help:"Create a new wiki directory"`
	Version       VersionCmd       `cmd:"" help:"Print the wiki version"`
}

// AfterApply runs after flag parsing; setup logging and the environment once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if c.EnvFile != "" {
		if err := godotenv.Load(c.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("wiki"),
		kong.Description("A Markdown wiki with a static-site exporter."),
		kong.UsageOnError(),
	)
	if err := ctx.Run(&cli); err != nil {
		slog.Error("command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
