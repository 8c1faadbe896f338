package reseal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/cryptox"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
	"github.com/dmitrijs2005/fencrypt/internal/logging"
	"github.com/dmitrijs2005/fencrypt/internal/pack"
)

// Options configures Open.
type Options struct {
	// WorkDir overrides the working directory, WorkDirFor(packPath) by
	// default.
	WorkDir string
	// Overwrite allows replacing a non-empty working directory.
	Overwrite bool
	// TempDir is the parent of the temp workspace, os.TempDir() when empty.
	TempDir string
	// ChunkSize is the stream chunk size used when resealing.
	ChunkSize int
	Logger    logging.Logger
}

// WorkDirFor returns the default working directory for a pack: the pack's
// file stem next to it ("docs.pack" opens into "docs"). Names without an
// extension get a ".d" suffix so the directory never collides with the pack.
func WorkDirFor(packPath string) string {
	dir, base := filepath.Split(filepath.Clean(packPath))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == base {
		stem = base + ".d"
	}
	return filepath.Join(dir, stem)
}

// Session is an opened pack. It is created by Open and finished by exactly
// one of Reseal or Discard.
type Session struct {
	packPath string
	workDir  string
	cipher   *cryptox.Cipher
	ws       *filex.Workspace
	logger   logging.Logger
	state    State
}

// Open decrypts packPath and unpacks it into the working directory. On
// failure nothing is left behind: neither the decrypted temp file nor a
// partial working directory.
func Open(ctx context.Context, packPath string, passphrase []byte, o Options) (s *Session, err error) {
	defer func() { err = phaseError(StateOpening, err) }()

	if len(passphrase) == 0 {
		return nil, common.NewError(common.ErrInvalidInput, "the passphrase cannot be empty")
	}
	kind, err := filex.KindOf(packPath)
	if err != nil {
		return nil, common.IOError("failed to inspect "+packPath, err)
	}
	if kind != filex.KindFile {
		return nil, common.NewError(common.ErrInvalidInput, fmt.Sprintf("%s is not a regular file", packPath))
	}

	logger := o.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	workDir := o.WorkDir
	if workDir == "" {
		workDir = WorkDirFor(packPath)
	}
	clearDir, err := checkWorkDir(workDir, o.Overwrite)
	if err != nil {
		return nil, err
	}

	var opts []cryptox.Option
	if o.ChunkSize > 0 {
		opts = append(opts, cryptox.WithChunkSize(o.ChunkSize))
	}
	c, err := cryptox.New(passphrase, opts...)
	if err != nil {
		return nil, err
	}

	ws, err := filex.NewWorkspace(o.TempDir, common.AppName)
	if err != nil {
		c.Close()
		return nil, common.IOError("failed to create temporary directory", err)
	}

	s = &Session{
		packPath: packPath,
		workDir:  workDir,
		cipher:   c,
		ws:       ws,
		logger:   logger.With("pack", packPath),
		state:    StateOpening,
	}
	if err := s.unpack(ctx, clearDir); err != nil {
		s.release(ctx)
		return nil, err
	}

	s.state = StateOpen
	s.logger.Info(ctx, "pack opened", "dir", workDir)
	return s, nil
}

// checkWorkDir reports whether an existing working directory has to be
// cleared before unpacking. Nothing is removed here.
func checkWorkDir(workDir string, overwrite bool) (clearDir bool, err error) {
	fi, err := os.Lstat(workDir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, common.IOError("failed to inspect working directory", err)
	}
	if !fi.IsDir() {
		return false, common.NewError(common.ErrAlreadyExists, fmt.Sprintf("%s exists and is not a directory", workDir))
	}
	empty, err := filex.IsEmptyDir(workDir)
	if err != nil {
		return false, common.IOError("failed to read working directory", err)
	}
	if empty {
		return false, nil
	}
	if !overwrite {
		return false, common.NewError(common.ErrAlreadyExists, fmt.Sprintf("the working directory %s already exists and is not empty", workDir))
	}
	return true, nil
}

// unpack authenticates the pack into the workspace before the working
// directory is cleared, so a wrong passphrase leaves it untouched.
func (s *Session) unpack(ctx context.Context, clearDir bool) error {
	tmp := s.ws.UniquePath()
	payload, err := s.cipher.DecryptFile(s.packPath, tmp, false)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	if payload != cryptox.PayloadPack {
		return common.NewError(common.ErrMalformedContainer, fmt.Sprintf("%s does not hold a packed directory", s.packPath))
	}

	if clearDir {
		if err := os.RemoveAll(s.workDir); err != nil {
			return common.IOError("failed to clear working directory", err)
		}
		s.logger.Debug(ctx, "working directory cleared", "dir", s.workDir)
	}

	st, err := pack.Unpack(tmp, s.workDir)
	if err != nil {
		return err
	}
	s.logger.Debug(ctx, "pack unpacked", "files", st.Files, "dirs", st.Dirs, "bytes", st.Bytes)
	return nil
}

// Dir returns the working directory.
func (s *Session) Dir() string {
	return s.workDir
}

// PackPath returns the pack the session was opened from.
func (s *Session) PackPath() string {
	return s.packPath
}

// State returns the current workflow state.
func (s *Session) State() State {
	return s.state
}

func (s *Session) checkOpen() error {
	if s.state != StateOpen {
		return common.NewError(common.ErrInvalidInput, fmt.Sprintf("session is %s, not open", s.state))
	}
	return nil
}

// Reseal packs the working directory, encrypts it over the original pack
// and then removes the working directory. Until the new pack has replaced
// the old one, both the original pack and the working directory are left
// as they are; a failure at that point keeps the user's edits on disk.
func (s *Session) Reseal(ctx context.Context) (err error) {
	if err := s.checkOpen(); err != nil {
		return phaseError(StateResealing, err)
	}
	s.state = StateResealing
	defer func() {
		s.release(ctx)
		err = phaseError(StateResealing, err)
	}()

	tmp := s.ws.UniquePath()
	st, err := pack.Create(tmp, s.workDir, pack.WithLogger(s.logger))
	if err != nil {
		return err
	}
	if len(st.Skipped) > 0 {
		s.logger.Warn(ctx, "entries of unsupported type were not packed", "count", len(st.Skipped))
	}

	in, err := os.Open(tmp)
	if err != nil {
		return common.IOError("failed to read pack file", err)
	}
	defer in.Close()

	err = filex.AtomicWrite(s.packPath, true, func(w io.Writer) error {
		return s.cipher.EncryptStream(in, w, cryptox.PayloadPack)
	})
	if err != nil {
		s.logger.Error(ctx, "reseal failed, working directory kept", "dir", s.workDir, "error", err)
		return common.ClassifyIO("failed to write pack", err)
	}

	if err := os.RemoveAll(s.workDir); err != nil {
		return common.IOError("pack updated but failed to remove working directory", err)
	}
	s.logger.Info(ctx, "pack resealed", "files", st.Files, "dirs", st.Dirs)
	return nil
}

// Discard removes the working directory. The original pack is not touched.
func (s *Session) Discard(ctx context.Context) (err error) {
	if err := s.checkOpen(); err != nil {
		return phaseError(StateDiscarding, err)
	}
	s.state = StateDiscarding
	defer func() {
		s.release(ctx)
		err = phaseError(StateDiscarding, err)
	}()

	if err := os.RemoveAll(s.workDir); err != nil {
		return common.IOError("failed to remove working directory", err)
	}
	s.logger.Info(ctx, "working directory discarded", "dir", s.workDir)
	return nil
}

// release wipes the key and removes the temp workspace.
func (s *Session) release(ctx context.Context) {
	s.cipher.Close()
	if err := s.ws.Close(); err != nil {
		s.logger.Warn(ctx, "failed to remove temporary directory", "dir", s.ws.Dir(), "error", err)
	}
	s.state = StateClosed
}
