package filex

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Workspace is a temporary directory owned by a single operation. Paths
// handed out by UniquePath live inside it and disappear with Close.
//
// Typical usage:
//
//	ws, err := filex.NewWorkspace("", "fencrypt")
//	if err != nil {
//	    return err
//	}
//	defer ws.Close()
//	tmpPack := ws.UniquePath()
type Workspace struct {
	dir  string
	once sync.Once
	err  error
}

// NewWorkspace creates a fresh directory under root (os.TempDir() when root
// is empty) named prefix-<random>.
func NewWorkspace(root, prefix string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir, err := os.MkdirTemp(root, prefix+"-*")
	if err != nil {
		return nil, err
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// UniquePath returns a path inside the workspace that nothing has used yet.
// The file itself is not created.
func (w *Workspace) UniquePath() string {
	return filepath.Join(w.dir, uuid.NewString())
}

// Close removes the workspace recursively. It is safe to call more than
// once; later calls return the first result.
func (w *Workspace) Close() error {
	w.once.Do(func() {
		w.err = os.RemoveAll(w.dir)
	})
	return w.err
}
