package extract

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// SafeName reports whether an archive-supplied entry name can be written
// under the output directory.
//
// Accepted names are slash-separated relative paths with no empty, "." or
// ".." elements. Backslashes, NUL bytes, absolute paths and volume names
// are rejected on every platform so a bundle extracts identically
// everywhere.
func SafeName(name string) error {
	switch {
	case name == "" || name == ".":
	case strings.ContainsAny(name, "\\\x00"):
	case strings.HasPrefix(name, "/") || filepath.IsAbs(name):
	case filepath.VolumeName(name) != "" || hasDriveLetter(name):
	case !fs.ValidPath(name):
	default:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsafePath, name)
}

func hasDriveLetter(name string) bool {
	if len(name) < 2 || name[1] != ':' {
		return false
	}
	c := name[0] | 0x20
	return c >= 'a' && c <= 'z'
}
