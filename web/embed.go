package web

import (
	"embed"
	"io/fs"
)

// The release build replaces dist/ with the compiled front-end.
//
//go:embed all:dist
var distFS embed.FS

// DistFS returns the embedded front-end filesystem.
func DistFS() (fs.FS, error) {
	return fs.Sub(distFS, "dist")
}
