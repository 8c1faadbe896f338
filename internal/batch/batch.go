// Package batch applies encryption or decryption to a list of files and
// directories with per-item success/skip/failure accounting.
//
// Preconditions are checked before anything touches the filesystem; once
// they pass, every input is processed in order and one failing item never
// aborts the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/cryptox"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
	"github.com/dmitrijs2005/fencrypt/internal/logging"
)

// Status is the outcome of one batch item.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ReasonUnknownType is the skip reason for inputs that are neither regular
// files nor directories.
const ReasonUnknownType = "unknown entry type"

// Item is the classified outcome for one input path.
type Item struct {
	Path   string
	Status Status
	Output string
	Reason string
	Err    error
}

// Result holds the items in input order and the wall time of the run.
type Result struct {
	Elapsed time.Duration
	Items   []Item
}

// Counts returns the number of succeeded, skipped and failed items.
func (r *Result) Counts() (success, skipped, failed int) {
	for _, it := range r.Items {
		switch it.Status {
		case StatusSuccess:
			success++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return success, skipped, failed
}

// Filter returns the items with the given status, in input order.
func (r *Result) Filter(s Status) []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Status == s {
			out = append(out, it)
		}
	}
	return out
}

// Options are the per-call switches of Encrypt and Decrypt.
type Options struct {
	// OutputPath replaces the derived output location. Only allowed with a
	// single input path.
	OutputPath string
	// Overwrite allows replacing existing outputs.
	Overwrite bool
	// DeleteOriginal removes a source directory once its encrypted pack is
	// in place. Ignored by Decrypt.
	DeleteOriginal bool
	// Exclude holds doublestar patterns dropped from packed directories.
	Exclude []string
}

// Runner executes batches. The zero value is not usable; use NewRunner.
type Runner struct {
	logger    logging.Logger
	tempRoot  string
	chunkSize int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithTempRoot sets the parent directory of per-run temp workspaces.
func WithTempRoot(dir string) RunnerOption {
	return func(r *Runner) { r.tempRoot = dir }
}

// WithChunkSize sets the stream chunk size used for encryption.
func WithChunkSize(n int) RunnerOption {
	return func(r *Runner) { r.chunkSize = n }
}

// NewRunner returns a Runner with a no-op logger, the system temp directory
// and the default chunk size, adjusted by opts.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: logging.NewNopLogger(), chunkSize: cryptox.DefaultChunkSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// job is the state shared by the items of one run.
type job struct {
	cipher *cryptox.Cipher
	ws     *filex.Workspace
	opts   Options
	logger logging.Logger
}

type processFunc func(ctx context.Context, j *job, path string, kind filex.Kind) (string, error)

func (r *Runner) run(ctx context.Context, op string, paths []string, passphrase []byte, o Options, process processFunc) (*Result, error) {
	start := time.Now()

	if err := validate(paths, passphrase, o); err != nil {
		return nil, err
	}

	c, err := cryptox.New(passphrase, cryptox.WithChunkSize(r.chunkSize))
	if err != nil {
		return nil, err
	}
	defer c.Close()

	ws, err := filex.NewWorkspace(r.tempRoot, common.AppName)
	if err != nil {
		return nil, common.IOError("failed to create temporary directory", err)
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			r.logger.Warn(ctx, "failed to remove temporary directory", "dir", ws.Dir(), "error", cerr)
		}
	}()

	logger := r.logger.With("op", op)
	j := &job{cipher: c, ws: ws, opts: o, logger: logger}

	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		it := processItem(ctx, j, p, process)
		logger.Info(ctx, "item processed", "path", it.Path, "status", string(it.Status), "output", it.Output)
		if it.Err != nil {
			logger.Debug(ctx, "item error detail", "path", it.Path, "error", common.Detail(it.Err))
		}
		items = append(items, it)
	}

	return &Result{Elapsed: time.Since(start), Items: items}, nil
}

func processItem(ctx context.Context, j *job, p string, process processFunc) Item {
	kind, err := filex.KindOf(p)
	if err != nil {
		return Item{Path: p, Status: StatusFailed, Err: common.IOError("failed to inspect path", err)}
	}
	if kind == filex.KindOther {
		return Item{Path: p, Status: StatusSkipped, Reason: ReasonUnknownType}
	}

	out, err := process(ctx, j, p, kind)
	if err != nil {
		return Item{Path: p, Status: StatusFailed, Output: out, Err: err}
	}
	return Item{Path: p, Status: StatusSuccess, Output: out}
}

// validate checks every precondition without side effects.
func validate(paths []string, passphrase []byte, o Options) error {
	if len(passphrase) == 0 {
		return common.NewError(common.ErrInvalidInput, "the passphrase cannot be empty")
	}
	return Precheck(paths, o)
}

// Precheck validates the paths and options of a run without touching the
// filesystem, so callers can reject a batch before asking for a passphrase.
func Precheck(paths []string, o Options) error {
	if len(paths) == 0 {
		return common.NewError(common.ErrInvalidInput, "you must provide at least one path")
	}

	var missing []string
	for _, p := range paths {
		ok, err := filex.Exists(p)
		if err != nil {
			return common.IOError("failed to inspect "+p, err)
		}
		if !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		return common.NewError(common.ErrInvalidInput,
			fmt.Sprintf("one or more provided paths don't exist: %s", strings.Join(missing, ", ")))
	}

	if o.OutputPath != "" {
		if len(paths) != 1 {
			return common.NewError(common.ErrInvalidInput, "only one input path can be provided when setting an output path")
		}
		if err := checkOutput(o.OutputPath, o.Overwrite); err != nil {
			return err
		}
		if o.DeleteOriginal {
			if err := checkOutputOutside(paths[0], o.OutputPath); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkOutputOutside rejects an output that would be removed together with
// the source directory it was made from.
func checkOutputOutside(src, out string) error {
	kind, err := filex.KindOf(src)
	if err != nil {
		return common.IOError("failed to inspect "+src, err)
	}
	if kind != filex.KindDir {
		return nil
	}
	inside, err := isWithin(src, out)
	if err != nil {
		return common.IOError("failed to resolve "+out, err)
	}
	if inside {
		return common.NewError(common.ErrInvalidInput,
			fmt.Sprintf("the output path %s is inside %s, which is deleted after encryption", out, src))
	}
	return nil
}

// isWithin reports whether p is dir itself or lies below it. Both paths are
// made absolute and symlinks are resolved as far as the paths exist.
func isWithin(dir, p string) (bool, error) {
	d, err := resolvePath(dir)
	if err != nil {
		return false, err
	}
	q, err := resolvePath(p)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(d, q)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// resolvePath evaluates symlinks in the longest existing prefix of p and
// appends the missing remainder unchanged.
func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	cur, rest := abs, ""
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}

// checkOutput fails with ErrOutputExists when out exists and overwriting is
// not allowed.
func checkOutput(out string, overwrite bool) error {
	if overwrite {
		return nil
	}
	exists, err := filex.Exists(out)
	if err != nil {
		return common.IOError("failed to inspect "+out, err)
	}
	if exists {
		return common.NewError(common.ErrOutputExists, fmt.Sprintf("the output path %s already exists", out))
	}
	return nil
}

// siblingPath returns the path next to p whose name is p's name with suffix
// appended, resolving "." and ".." to real directory names first.
func siblingPath(p, suffix string) string {
	clean := filepath.Clean(p)
	switch filepath.Base(clean) {
	case ".", "..", string(filepath.Separator):
		if abs, err := filepath.Abs(clean); err == nil {
			clean = abs
		}
	}
	return clean + suffix
}

// removeQuietly removes a workspace file that is no longer needed; the
// workspace removes leftovers anyway.
func removeQuietly(ctx context.Context, l logging.Logger, p string) {
	if err := os.RemoveAll(p); err != nil {
		l.Debug(ctx, "failed to remove temporary file", "path", p, "error", err)
	}
}
