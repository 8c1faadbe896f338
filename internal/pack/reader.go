package pack

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/dmitrijs2005/fencrypt/internal/common"
)

// Reader iterates over the entries of a container. Like archive/tar, the
// Reader itself yields the content of the current file entry.
type Reader struct {
	r    *bufio.Reader
	root string
	cur  *io.LimitedReader
	done bool
}

// NewReader reads and checks the container header.
func NewReader(r io.Reader) (*Reader, error) {
	pr := &Reader{r: bufio.NewReader(r)}

	head := make([]byte, len(magic)+1)
	if _, err := io.ReadFull(pr.r, head); err != nil {
		return nil, pr.readErr("container header", err)
	}
	if string(head[:len(magic)]) != magic {
		return nil, malformed("not a pack container")
	}
	if head[len(magic)] != version {
		return nil, malformed("unsupported pack version %d", head[len(magic)])
	}

	root, err := pr.readString("root name")
	if err != nil {
		return nil, err
	}
	pr.root = root
	return pr, nil
}

// RootName returns the name of the directory that was packed.
func (pr *Reader) RootName() string {
	return pr.root
}

func (pr *Reader) readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return malformed("truncated %s", what)
	}
	return common.IOError("read "+what, err)
}

// byteReader remembers the last error of the underlying reader, so a
// failed varint can be told apart from an overflowing one.
type byteReader struct {
	r   *bufio.Reader
	err error
}

func (b *byteReader) ReadByte() (byte, error) {
	c, err := b.r.ReadByte()
	if err != nil {
		b.err = err
	}
	return c, err
}

func (pr *Reader) readString(what string) (string, error) {
	br := &byteReader{r: pr.r}
	n, err := binary.ReadUvarint(br)
	if err != nil {
		if br.err != nil {
			return "", pr.readErr(what, br.err)
		}
		return "", malformed("bad %s length", what)
	}
	if n > maxPathLen {
		return "", malformed("%s is too long", what)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(pr.r, b); err != nil {
		return "", pr.readErr(what, err)
	}
	return string(b), nil
}

// Next advances to the next entry, discarding any unread content of the
// previous file. It returns io.EOF after the terminator.
func (pr *Reader) Next() (*Entry, error) {
	if pr.done {
		return nil, io.EOF
	}

	if pr.cur != nil {
		if _, err := io.Copy(io.Discard, pr.cur); err != nil {
			return nil, pr.readErr("file content", err)
		}
		if pr.cur.N > 0 {
			return nil, malformed("truncated file content")
		}
		pr.cur = nil
	}

	kb, err := pr.r.ReadByte()
	if err != nil {
		return nil, pr.readErr("entry kind", err)
	}

	kind := Kind(kb)
	switch kind {
	case kindEnd:
		pr.done = true
		return nil, io.EOF
	case KindDir, KindFile:
	default:
		return nil, malformed("unknown entry kind %d", kb)
	}

	p, err := pr.readString("entry path")
	if err != nil {
		return nil, err
	}
	if !validPath(p) {
		return nil, malformed("invalid entry path %q", p)
	}

	e := &Entry{Kind: kind, Path: p}
	if kind == KindFile {
		var sb [8]byte
		if _, err := io.ReadFull(pr.r, sb[:]); err != nil {
			return nil, pr.readErr("file size", err)
		}
		size := binary.BigEndian.Uint64(sb[:])
		if size > math.MaxInt64 {
			return nil, malformed("invalid size for %q", p)
		}
		e.Size = int64(size)
		pr.cur = &io.LimitedReader{R: pr.r, N: e.Size}
	}
	return e, nil
}

// Read reads content of the current file entry.
func (pr *Reader) Read(b []byte) (int, error) {
	if pr.cur == nil || pr.cur.N <= 0 {
		return 0, io.EOF
	}
	n, err := pr.cur.Read(b)
	if errors.Is(err, io.EOF) && pr.cur.N > 0 {
		return n, malformed("truncated file content")
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, common.IOError("read file content", err)
	}
	return n, err
}
