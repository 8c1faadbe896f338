package pack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
	"github.com/dmitrijs2005/fencrypt/internal/logging"
)

type options struct {
	exclude []string
	logger  logging.Logger
}

// Option configures Create.
type Option func(*options)

// WithExclude drops entries whose slash-separated path relative to the
// source directory matches one of the doublestar patterns, e.g. "**/.git"
// or "*.tmp". An excluded directory is skipped with all its content.
func WithExclude(patterns ...string) Option {
	return func(o *options) {
		o.exclude = append(o.exclude, patterns...)
	}
}

// WithLogger sets the logger used to report skipped entries.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) (*options, error) {
	o := &options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	for _, p := range o.exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, common.NewError(common.ErrInvalidInput, fmt.Sprintf("invalid exclude pattern %q", p))
		}
	}
	return o, nil
}

func (o *options) excluded(rel string) bool {
	for _, p := range o.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Create walks sourceDir and writes a new container at containerPath, which
// must not exist yet. On any failure the partial container is removed.
//
// Entries are written in pre-order with slash-separated paths relative to
// sourceDir, so every directory precedes its children. Only directories and
// regular files are packed; symlinks and special files below the root are
// skipped and listed in Stats.Skipped. The root itself must be a real
// directory, not a symlink to one.
//
// Parameters:
//   - containerPath: the container file to create.
//   - sourceDir: the directory tree to pack; its base name is recorded as
//     the root name.
//   - opts: WithExclude patterns and WithLogger.
//
// Returns:
//   - *Stats: counts of packed files, directories and bytes, plus the
//     skipped entries.
//   - error: common.ErrNotADirectory when sourceDir is not a directory,
//     common.ErrOutputExists when containerPath exists, common.ErrIO for
//     filesystem failures.
//
// Example:
//
//	st, err := pack.Create("/tmp/docs.container", "docs", pack.WithExclude("**/.git"))
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("packed %d files\n", st.Files)
func Create(containerPath, sourceDir string, opts ...Option) (st *Stats, err error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}

	fi, err := os.Lstat(sourceDir)
	if err != nil {
		return nil, common.IOError("stat source directory", err)
	}
	if !fi.IsDir() {
		return nil, common.NewError(common.ErrNotADirectory, fmt.Sprintf("%s is not a directory", sourceDir))
	}

	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, common.IOError("resolve source directory", err)
	}
	absContainer, err := filepath.Abs(containerPath)
	if err != nil {
		return nil, common.IOError("resolve container path", err)
	}

	out, err := os.OpenFile(containerPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, common.ClassifyIO("create container", err)
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(containerPath)
		}
	}()

	pw, err := NewWriter(out, filepath.Base(absSource))
	if err != nil {
		return nil, err
	}

	st = &Stats{}
	ctx := context.Background()

	err = filepath.WalkDir(absSource, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return common.IOError("walk "+p, werr)
		}
		if p == absSource || p == absContainer {
			return nil
		}

		rel, err := filepath.Rel(absSource, p)
		if err != nil {
			return common.IOError("resolve "+p, err)
		}
		rel = filepath.ToSlash(rel)

		if o.excluded(rel) {
			o.logger.Debug(ctx, "excluded entry", "path", rel)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.IsDir():
			st.Dirs++
			return pw.WriteDir(rel)
		case d.Type().IsRegular():
			n, err := packFile(pw, p, rel)
			if err != nil {
				return err
			}
			st.Files++
			st.Bytes += n
			return nil
		default:
			st.Skipped = append(st.Skipped, rel)
			o.logger.Warn(ctx, "skipped entry of unsupported type", "path", rel, "type", d.Type().String())
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	if err = pw.Close(); err != nil {
		return nil, err
	}
	if err = out.Sync(); err != nil {
		return nil, common.IOError("sync container", err)
	}
	if err = out.Close(); err != nil {
		return nil, common.IOError("close container", err)
	}
	return st, nil
}

func packFile(pw *Writer, p, rel string) (int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return 0, common.IOError("open "+rel, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return 0, common.IOError("stat "+rel, err)
	}
	if err := pw.WriteFile(rel, fi.Size(), f); err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// Unpack rebuilds the tree stored in containerPath under targetDir. The
// root name recorded in the container is ignored; targetDir takes its
// place. targetDir is created when missing and must be empty otherwise.
// On failure everything Unpack created is removed again.
func Unpack(containerPath, targetDir string) (st *Stats, err error) {
	f, err := os.Open(containerPath)
	if err != nil {
		return nil, common.IOError("open container", err)
	}
	defer f.Close()

	pr, err := NewReader(f)
	if err != nil {
		return nil, err
	}

	if fi, statErr := os.Stat(targetDir); statErr == nil {
		if !fi.IsDir() {
			return nil, common.NewError(common.ErrAlreadyExists, fmt.Sprintf("%s exists and is not a directory", targetDir))
		}
		empty, err := filex.IsEmptyDir(targetDir)
		if err != nil {
			return nil, common.IOError("read target directory", err)
		}
		if !empty {
			return nil, common.NewError(common.ErrAlreadyExists, fmt.Sprintf("%s already exists and is not empty", targetDir))
		}
	}

	created, err := filex.EnsureDir(targetDir)
	if err != nil {
		return nil, common.IOError("create target directory", err)
	}
	defer func() {
		if err != nil {
			cleanupTarget(targetDir, created)
		}
	}()

	st = &Stats{}
	dirs := map[string]struct{}{".": {}}

	for {
		e, err := pr.Next()
		if errors.Is(err, io.EOF) {
			return st, nil
		}
		if err != nil {
			return nil, err
		}

		if _, ok := dirs[path.Dir(e.Path)]; !ok {
			return nil, malformed("entry %q precedes its parent directory", e.Path)
		}
		dst := filepath.Join(targetDir, filepath.FromSlash(e.Path))

		switch e.Kind {
		case KindDir:
			if err := os.Mkdir(dst, 0o700); err != nil {
				if errors.Is(err, fs.ErrExist) {
					return nil, malformed("duplicate entry %q", e.Path)
				}
				return nil, common.IOError("create directory "+e.Path, err)
			}
			dirs[e.Path] = struct{}{}
			st.Dirs++
		case KindFile:
			if err := unpackFile(pr, dst, e); err != nil {
				return nil, err
			}
			st.Files++
			st.Bytes += e.Size
		}
	}
}

func unpackFile(pr *Reader, dst string, e *Entry) error {
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return malformed("duplicate entry %q", e.Path)
		}
		return common.IOError("create file "+e.Path, err)
	}

	if _, err := io.Copy(out, pr); err != nil {
		_ = out.Close()
		return common.ClassifyIO("write file "+e.Path, err)
	}
	if err := out.Close(); err != nil {
		return common.IOError("close file "+e.Path, err)
	}
	return nil
}

// cleanupTarget restores targetDir to its state before Unpack: removed if
// Unpack created it, emptied otherwise.
func cleanupTarget(targetDir string, created bool) {
	if created {
		_ = os.RemoveAll(targetDir)
		return
	}
	entries, err := os.ReadDir(targetDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(targetDir, e.Name()))
	}
}

// RootName returns the root directory name recorded in a container.
func RootName(containerPath string) (string, error) {
	f, err := os.Open(containerPath)
	if err != nil {
		return "", common.IOError("open container", err)
	}
	defer f.Close()

	pr, err := NewReader(f)
	if err != nil {
		return "", err
	}
	return pr.RootName(), nil
}
