// Package filex holds filesystem helpers shared by the pack codec and the
// batch layer.
package filex

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Kind classifies a filesystem entry as seen by Lstat.
type Kind int

const (
	KindOther Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	default:
		return "other"
	}
}

// KindOf returns the kind of path without following symlinks, so a symlink
// is always KindOther.
func KindOf(path string) (Kind, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return KindOther, err
	}
	switch {
	case fi.Mode().IsRegular():
		return KindFile, nil
	case fi.IsDir():
		return KindDir, nil
	default:
		return KindOther, nil
	}
}

// Exists reports whether path exists. Dangling symlinks count as existing.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// IsEmptyDir reports whether dir contains no entries.
func IsEmptyDir(dir string) (bool, error) {
	f, err := os.Open(dir)
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

// EnsureDir creates dir (and parents) if it is missing and reports whether
// it had to create it.
func EnsureDir(dir string) (bool, error) {
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return false, fmt.Errorf("%s: %w", dir, fs.ErrExist)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return true, nil
}

// AtomicWrite streams content produced by write into a hidden temp file in
// the destination directory and renames it to path once write succeeded.
// On failure path is left untouched. Without overwrite an existing path is
// reported as fs.ErrExist before anything is written.
func AtomicWrite(path string, overwrite bool, write func(w io.Writer) error) (err error) {
	if !overwrite {
		exists, err := Exists(path)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", path, fs.ErrExist)
		}
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.partial")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// MoveFile moves src to dst, falling back to copy + remove when a rename is
// impossible (e.g. across devices). The copy goes through AtomicWrite.
func MoveFile(src, dst string, overwrite bool) error {
	if !overwrite {
		exists, err := Exists(dst)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%s: %w", dst, fs.ErrExist)
		}
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := AtomicWrite(dst, overwrite, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	}); err != nil {
		return err
	}

	return os.Remove(src)
}
