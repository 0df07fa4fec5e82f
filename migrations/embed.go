// Package migrations embeds the schema files so the binary can migrate a
// fresh database without shipping SQL alongside it.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// GetFS returns the embedded migration filesystem.
func GetFS() fs.FS {
	return files
}
