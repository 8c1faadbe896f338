package batch

import (
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/cryptox"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
	"github.com/dmitrijs2005/fencrypt/internal/pack"
)

// Encrypt encrypts every path of a batch.
//
// Regular files are encrypted into "<file>.enc" and directories are packed
// and encrypted into "<dir>.pack", or into o.OutputPath when exactly one
// path is given. The stream header records whether a file or a pack was
// sealed, so Decrypt restores the same kind of entry. Outputs are written
// atomically. With o.DeleteOriginal a source directory is removed only
// after its pack is in place.
//
// Parameters:
//   - ctx: carries the logger context of the run.
//   - paths: inputs, processed sequentially in this order.
//   - passphrase: must not be empty.
//   - o: output path, overwrite, delete-original and exclude switches.
//
// Returns:
//   - *Result: one Item per path with its status and output.
//   - error: non-nil only when a precondition fails, in which case
//     nothing on disk was touched.
//
// Example:
//
//	r := batch.NewRunner(batch.WithLogger(logger))
//	res, err := r.Encrypt(ctx, []string{"docs", "notes.txt"}, pw, batch.Options{DeleteOriginal: true})
//	if err != nil {
//	    return err
//	}
//	for _, it := range res.Filter(batch.StatusFailed) {
//	    fmt.Println(it.Path, it.Err)
//	}
func (r *Runner) Encrypt(ctx context.Context, paths []string, passphrase []byte, o Options) (*Result, error) {
	return r.run(ctx, "encrypt", paths, passphrase, o, encryptItem)
}

func encryptItem(ctx context.Context, j *job, p string, kind filex.Kind) (string, error) {
	if kind == filex.KindDir {
		return encryptDir(ctx, j, p)
	}

	out := j.opts.OutputPath
	if out == "" {
		out = siblingPath(p, common.EncryptedFileSuffix)
	}
	if err := j.cipher.EncryptFile(p, out, cryptox.PayloadFile, j.opts.Overwrite); err != nil {
		return "", err
	}
	return out, nil
}

func encryptDir(ctx context.Context, j *job, dir string) (string, error) {
	out := j.opts.OutputPath
	if out == "" {
		out = siblingPath(dir, common.PackSuffix)
	}
	if err := checkOutput(out, j.opts.Overwrite); err != nil {
		return "", err
	}

	tmp := j.ws.UniquePath()
	st, err := pack.Create(tmp, dir, pack.WithExclude(j.opts.Exclude...), pack.WithLogger(j.logger))
	if err != nil {
		return "", err
	}
	defer removeQuietly(ctx, j.logger, tmp)

	j.logger.Debug(ctx, "pack created", "dir", dir, "files", st.Files, "dirs", st.Dirs, "bytes", st.Bytes, "skipped", len(st.Skipped))

	in, err := os.Open(tmp)
	if err != nil {
		return "", common.IOError("failed to read pack file", err)
	}
	defer in.Close()

	err = filex.AtomicWrite(out, j.opts.Overwrite, func(w io.Writer) error {
		return j.cipher.EncryptStream(in, w, cryptox.PayloadPack)
	})
	if err != nil {
		return "", common.ClassifyIO("failed to encrypt pack", err)
	}

	if j.opts.DeleteOriginal {
		if err := os.RemoveAll(dir); err != nil {
			return out, common.IOError("failed to remove original directory", err)
		}
	}
	return out, nil
}
