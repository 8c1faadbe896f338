package cryptox

import (
	"io"
	"os"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
)

// EncryptFile encrypts src into dst, tagging the stream with payload. dst
// only appears once the whole ciphertext has been written.
func (c *Cipher) EncryptFile(src, dst string, payload Payload, overwrite bool) error {
	in, err := os.Open(src)
	if err != nil {
		return common.IOError("open source file", err)
	}
	defer in.Close()

	err = filex.AtomicWrite(dst, overwrite, func(w io.Writer) error {
		return c.EncryptStream(in, w, payload)
	})
	return common.ClassifyIO("write encrypted file", err)
}

// DecryptFile decrypts src into dst and returns the payload type of the
// stream. On authentication failure dst is not created (or keeps its
// previous content when overwriting).
func (c *Cipher) DecryptFile(src, dst string, overwrite bool) (Payload, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, common.IOError("open encrypted file", err)
	}
	defer in.Close()

	var payload Payload
	err = filex.AtomicWrite(dst, overwrite, func(w io.Writer) error {
		var err error
		payload, err = c.DecryptStream(in, w)
		return err
	})
	if err != nil {
		return 0, common.ClassifyIO("write decrypted file", err)
	}
	return payload, nil
}
