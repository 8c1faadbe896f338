package batch

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/cryptox"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
	"github.com/dmitrijs2005/fencrypt/internal/pack"
)

// Decrypt decrypts every encrypted file. A stream sealed from a directory
// is unpacked into a directory; any other stream becomes a file. The
// output drops a trailing ".enc" or ".pack" from the input name, or appends
// ".dec" when neither is present.
func (r *Runner) Decrypt(ctx context.Context, paths []string, passphrase []byte, o Options) (*Result, error) {
	return r.run(ctx, "decrypt", paths, passphrase, o, decryptItem)
}

// DecryptedPath derives the decrypt output for an encrypted input.
func DecryptedPath(p string) string {
	clean := siblingPath(p, "")
	for _, suffix := range []string{common.EncryptedFileSuffix, common.PackSuffix} {
		if trimmed, ok := strings.CutSuffix(clean, suffix); ok && trimmed != "" && !strings.HasSuffix(trimmed, string(os.PathSeparator)) {
			return trimmed
		}
	}
	return clean + common.DecryptedFileSuffix
}

func decryptItem(ctx context.Context, j *job, p string, kind filex.Kind) (string, error) {
	if kind == filex.KindDir {
		return "", common.NewError(common.ErrInvalidInput, fmt.Sprintf("%s is a directory, pass the encrypted pack file instead", p))
	}

	out := j.opts.OutputPath
	if out == "" {
		out = DecryptedPath(p)
	}
	if err := checkOutput(out, j.opts.Overwrite); err != nil {
		return "", err
	}

	tmp := j.ws.UniquePath()
	payload, err := j.cipher.DecryptFile(p, tmp, false)
	if err != nil {
		return "", err
	}
	defer removeQuietly(ctx, j.logger, tmp)

	if payload != cryptox.PayloadPack {
		if err := filex.MoveFile(tmp, out, j.opts.Overwrite); err != nil {
			return "", common.ClassifyIO("failed to write decrypted file", err)
		}
		return out, nil
	}

	if j.opts.Overwrite {
		if err := os.RemoveAll(out); err != nil {
			return "", common.IOError("failed to replace existing output", err)
		}
	}
	st, err := pack.Unpack(tmp, out)
	if err != nil {
		return "", err
	}
	j.logger.Debug(ctx, "pack unpacked", "dir", out, "files", st.Files, "dirs", st.Dirs, "bytes", st.Bytes)
	return out, nil
}
