package wikiengine

import (
	"io/fs"
	"net/http"
	"os"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/spf13/afero"

	"github.com/eringen/wikiengine/views"
)

// layeredFS serves the first layer that has a regular file at the path.
type layeredFS []http.FileSystem

func (l layeredFS) Open(name string) (http.File, error) {
	for _, layer := range l {
		f, err := layer.Open(name)
		if err != nil {
			continue
		}
		info, err := f.Stat()
		if err != nil || info.IsDir() {
			f.Close()
			continue
		}
		return f, nil
	}
	return nil, os.ErrNotExist
}

// mountStatic serves /static from the asset sources, the last source
// winning as in the export, with the embedded stylesheet underneath. Entry
// images are served from ImagesDir at ImagesURL.
func (a *App) mountStatic() {
	httpFs := afero.NewHttpFs(a.fs)

	var layers layeredFS
	for i := len(a.Config.AssetSources) - 1; i >= 0; i-- {
		layers = append(layers, httpFs.Dir(a.Config.AssetSources[i]))
	}
	embedded, _ := fs.Sub(views.Assets, "static")
	layers = append(layers, http.FS(embedded))

	imagesURL := path.Clean("/" + a.Config.ImagesURL)
	images := http.FileServer(layeredFS{httpFs.Dir(a.Config.ImagesDir)})
	a.Echo.GET(imagesURL+"/*", echo.WrapHandler(http.StripPrefix(imagesURL+"/", images)))
	a.Echo.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(layers))))
}
