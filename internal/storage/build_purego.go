//go:build !sqlite_cgo

package storage

// Default build. modernc.org/sqlite is a pure Go translation of SQLite with
// FTS5 compiled in, so no C toolchain is required.

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
