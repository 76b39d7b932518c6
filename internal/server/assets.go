package server

import (
	"embed"
	"io/fs"
)

//go:embed assets
var embeddedAssets embed.FS

var assetFiles = func() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}()
