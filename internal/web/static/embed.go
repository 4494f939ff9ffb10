// Package static embeds the browser shell: index.html plus its script and stylesheet.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"sync"
)

//go:embed all:dist/*
var distFS embed.FS

var dist = sync.OnceValue(func() fs.FS {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic(err)
	}
	return sub
})

// GetFileSystem returns an http.FileSystem for the embedded shell.
func GetFileSystem() http.FileSystem {
	return http.FS(dist())
}

// HasDist reports whether the shell's index.html is embedded.
func HasDist() bool {
	_, err := fs.Stat(dist(), "index.html")
	return err == nil
}
