package pack

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dmitrijs2005/fencrypt/internal/common"
)

// Writer streams entries into a container. Call Close to write the
// terminator; a container without it is rejected on read.
type Writer struct {
	w      *bufio.Writer
	err    error
	closed bool
}

// NewWriter writes the container header for a tree whose root directory is
// called rootName.
func NewWriter(w io.Writer, rootName string) (*Writer, error) {
	if len(rootName) > maxPathLen {
		return nil, common.NewError(common.ErrInvalidInput, "root name is too long")
	}

	pw := &Writer{w: bufio.NewWriter(w)}
	pw.write([]byte(magic))
	pw.write([]byte{version})
	pw.writeString(rootName)
	if pw.err != nil {
		return nil, common.IOError("write container header", pw.err)
	}
	return pw, nil
}

func (pw *Writer) write(b []byte) {
	if pw.err != nil {
		return
	}
	_, pw.err = pw.w.Write(b)
}

func (pw *Writer) writeString(s string) {
	pw.write(binary.AppendUvarint(nil, uint64(len(s))))
	pw.write([]byte(s))
}

func (pw *Writer) header(kind Kind, rel string) error {
	if pw.closed {
		return common.NewError(common.ErrInvalidInput, "pack writer is closed")
	}
	if !validPath(rel) {
		return common.NewError(common.ErrInvalidInput, fmt.Sprintf("invalid entry path %q", rel))
	}
	pw.write([]byte{byte(kind)})
	pw.writeString(rel)
	return nil
}

// WriteDir records a directory entry. rel is slash separated and relative
// to the root.
func (pw *Writer) WriteDir(rel string) error {
	if err := pw.header(KindDir, rel); err != nil {
		return err
	}
	if pw.err != nil {
		return common.IOError("write directory entry", pw.err)
	}
	return nil
}

// WriteFile records a file entry of exactly size bytes read from r.
func (pw *Writer) WriteFile(rel string, size int64, r io.Reader) error {
	if size < 0 {
		return common.NewError(common.ErrInvalidInput, "negative file size")
	}
	if err := pw.header(KindFile, rel); err != nil {
		return err
	}
	pw.write(binary.BigEndian.AppendUint64(nil, uint64(size)))
	if pw.err != nil {
		return common.IOError("write file entry", pw.err)
	}

	n, err := io.CopyN(pw.w, r, size)
	if err != nil {
		pw.err = err
		if n < size {
			return common.IOError(fmt.Sprintf("copy %s (file changed while packing)", rel), err)
		}
		return common.IOError("copy "+rel, err)
	}
	return nil
}

// Close writes the terminator and flushes buffered data. It does not close
// the underlying writer.
func (pw *Writer) Close() error {
	if pw.closed {
		return nil
	}
	pw.closed = true
	pw.write([]byte{byte(kindEnd)})
	if pw.err == nil {
		pw.err = pw.w.Flush()
	}
	if pw.err != nil {
		return common.IOError("finish container", pw.err)
	}
	return nil
}
