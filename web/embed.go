// Package web embeds the dashboard page served by the API server.
//
// The out/ directory holds a single static page that reads the JSON API.
//
// Usage in the API server:
//
//	import "github.com/seenimoa/lsewatch/web"
//	fs := web.DistFS()  // returns io/fs.FS rooted at out/
package web

import (
	"embed"
	"io/fs"

	"github.com/rs/zerolog/log"
)

//go:embed all:out
var dist embed.FS

// DistFS returns a filesystem rooted at the embedded out/ directory.
// This is ready to use with http.FileServerFS or http.FS.
func DistFS() fs.FS {
	sub, err := fs.Sub(dist, "out")
	if err != nil {
		log.Fatal().Err(err).Msg("web.DistFS")
	}
	return sub
}
