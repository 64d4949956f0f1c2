// Package migrations embeds the portal schema so the binaries carry their
// own SQL.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sql seeds
var files embed.FS

// SQL returns the migration files.
func SQL() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Seeds returns the seed files.
func Seeds() fs.FS {
	sub, err := fs.Sub(files, "seeds")
	if err != nil {
		panic(err)
	}
	return sub
}
