// Package pack serializes a directory tree into a single container file and
// rebuilds the tree from it.
//
// Container layout (integers big-endian, strings length-prefixed with a
// uvarint):
//
//	magic "FENCPACK" | version | root name
//	entry*            kind (1 dir, 2 file) | path | file only: uint64 size | content
//	terminator        kind 0
//
// Entries are written in pre-order, so a directory always precedes its
// children. Paths are relative to the root and slash separated.
package pack

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/fencrypt/internal/common"
)

const (
	magic   = "FENCPACK"
	version = 1

	// maxPathLen bounds path and root name lengths read from a container.
	maxPathLen = 4096
)

// Kind is the type of a pack entry.
type Kind byte

const (
	kindEnd  Kind = 0
	KindDir  Kind = 1
	KindFile Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", byte(k))
	}
}

// Entry is one node of a packed tree. For files, the content is read from
// the Reader that returned the entry.
type Entry struct {
	Kind Kind
	Path string
	Size int64
}

// Stats summarizes a Create or Unpack run.
type Stats struct {
	Dirs    int
	Files   int
	Bytes   int64
	Skipped []string
}

// validPath reports whether p is a clean, relative, slash-separated path
// that stays inside the root.
func validPath(p string) bool {
	if p == "" || len(p) > maxPathLen {
		return false
	}
	if strings.ContainsRune(p, '\\') || strings.ContainsRune(p, 0) {
		return false
	}
	if path.Clean(p) != p || p == "." {
		return false
	}
	return filepath.IsLocal(filepath.FromSlash(p))
}

func malformed(format string, args ...any) error {
	return common.NewError(common.ErrMalformedContainer, fmt.Sprintf(format, args...))
}
