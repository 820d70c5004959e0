// Package scaffold creates the directory layout of a new wiki from embedded
// templates.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/afero"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

const root = "templates"

// Data holds the template variables passed to every scaffold template.
type Data struct {
	SiteName string
}

// Create renders the templates into dir, which must not exist yet. It
// returns the created files in walk order.
func Create(fsys afero.Fs, dir string, data Data) ([]string, error) {
	if ok, err := afero.Exists(fsys, dir); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("directory %q already exists", dir)
	}

	var created []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}
		if d.IsDir() {
			return fsys.MkdirAll(outPath, 0o755)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		if err := afero.WriteFile(fsys, outPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		created = append(created, outPath)
		return nil
	})
	return created, err
}

// SiteName converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-wiki" -> "My Wiki", "mywiki" -> "Mywiki"
func SiteName(s string) string {
	parts := strings.Split(filepath.Base(s), "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
