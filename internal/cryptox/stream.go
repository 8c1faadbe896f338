package cryptox

import (
	"bufio"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"io"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	DefaultChunkSize = 64 * 1024
	MinChunkSize     = 1024
	MaxChunkSize     = 16 << 20

	streamMagic    = "FENCSTRM"
	streamVersion  = 1
	streamSaltSize = 32

	// magic | version | payload | chunk size | salt
	streamHeaderSize = len(streamMagic) + 1 + 1 + 4 + streamSaltSize
)

// Payload tells what the plaintext of a stream holds. It is part of the
// authenticated header, so a decrypted stream is never classified by
// looking at its content.
type Payload byte

const (
	// PayloadFile is the content of a single regular file.
	PayloadFile Payload = iota + 1
	// PayloadPack is a pack container holding a directory tree.
	PayloadPack
)

func (p Payload) String() string {
	switch p {
	case PayloadFile:
		return "file"
	case PayloadPack:
		return "pack"
	default:
		return "unknown"
	}
}

var streamInfo = []byte("fencrypt stream v1")

// streamHeader is written in clear at the start of every stream and is
// authenticated as additional data of each chunk.
type streamHeader struct {
	payload   Payload
	chunkSize uint32
	salt      [streamSaltSize]byte
}

func (h *streamHeader) marshal() []byte {
	b := make([]byte, 0, streamHeaderSize)
	b = append(b, streamMagic...)
	b = append(b, streamVersion)
	b = append(b, byte(h.payload))
	b = binary.BigEndian.AppendUint32(b, h.chunkSize)
	b = append(b, h.salt[:]...)
	return b
}

func parseStreamHeader(b []byte) (*streamHeader, error) {
	if string(b[:len(streamMagic)]) != streamMagic {
		return nil, common.NewError(common.ErrAuthentication, "input is not an encrypted stream")
	}
	off := len(streamMagic)
	if b[off] != streamVersion {
		return nil, common.NewError(common.ErrAuthentication, "unsupported stream version")
	}
	off++

	h := &streamHeader{payload: Payload(b[off])}
	if h.payload != PayloadFile && h.payload != PayloadPack {
		return nil, common.NewError(common.ErrAuthentication, "unknown payload type in stream header")
	}
	off++

	h.chunkSize = binary.BigEndian.Uint32(b[off:])
	off += 4
	if h.chunkSize < MinChunkSize || h.chunkSize > MaxChunkSize {
		return nil, common.NewError(common.ErrAuthentication, "invalid chunk size in stream header")
	}
	copy(h.salt[:], b[off:])
	return h, nil
}

// chunkNonce lays out 3 zero bytes, the big-endian chunk counter and the
// last-chunk flag. The subkey is unique per stream, so the counter alone
// keeps nonces unique.
func chunkNonce(counter uint64, last bool) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[3:11], counter)
	if last {
		nonce[11] = 1
	}
	return nonce
}

// streamAEAD derives the per-stream subkey from the cipher key and salt.
func (c *Cipher) streamAEAD(salt []byte) (cipher.AEAD, error) {
	subkey := make([]byte, chacha20poly1305.KeySize)
	defer common.WipeByteArray(subkey)

	r := hkdf.New(sha256.New, c.key.Bytes(), salt, streamInfo)
	if _, err := io.ReadFull(r, subkey); err != nil {
		return nil, common.WrapError(common.ErrCrypto, "failed to derive stream key", err)
	}

	aead, err := chacha20poly1305.New(subkey)
	if err != nil {
		return nil, common.WrapError(common.ErrCrypto, "failed to create stream cipher", err)
	}
	return aead, nil
}

// EncryptStream reads src to the end and writes the authenticated, chunked
// ciphertext to dst.
//
// The stream starts with a clear header (magic, version, payload type,
// chunk size and a random salt). A fresh subkey is derived from the cipher
// key and that salt with HKDF-SHA256, and the plaintext is sealed with
// ChaCha20-Poly1305 in chunks of the configured size. Every chunk carries
// the header as additional data, and its nonce holds the chunk counter and
// a last-chunk flag, so reordering, truncation or a changed header are all
// detected on decryption. Memory use is bounded by one chunk.
//
// Parameters:
//   - src: the plaintext, read until io.EOF.
//   - dst: receives the header followed by the sealed chunks.
//   - payload: what src holds; DecryptStream hands it back.
//
// Returns:
//   - error: common.ErrInvalidKey after Close, common.ErrInvalidInput for
//     an unknown payload, common.ErrIO when src or dst fail.
//
// Example:
//
//	c, err := cryptox.New([]byte("passphrase"))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	var sealed bytes.Buffer
//	if err := c.EncryptStream(strings.NewReader("hello"), &sealed, cryptox.PayloadFile); err != nil {
//	    return err
//	}
func (c *Cipher) EncryptStream(src io.Reader, dst io.Writer, payload Payload) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if payload != PayloadFile && payload != PayloadPack {
		return common.NewError(common.ErrInvalidInput, "unknown stream payload")
	}

	h := &streamHeader{payload: payload, chunkSize: uint32(c.chunkSize)}
	if _, err := rand.Read(h.salt[:]); err != nil {
		return common.WrapError(common.ErrCrypto, "failed to generate salt", err)
	}
	aad := h.marshal()

	aead, err := c.streamAEAD(h.salt[:])
	if err != nil {
		return err
	}

	if _, err := dst.Write(aad); err != nil {
		return common.IOError("write stream header", err)
	}

	br := bufio.NewReader(src)
	plain := make([]byte, c.chunkSize)
	sealed := make([]byte, 0, c.chunkSize+aead.Overhead())
	defer common.WipeByteArray(plain)

	for counter := uint64(0); ; counter++ {
		n, err := io.ReadFull(br, plain)
		last := false
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			last = true
		case err != nil:
			return common.IOError("read plaintext", err)
		default:
			if _, err := br.Peek(1); errors.Is(err, io.EOF) {
				last = true
			} else if err != nil {
				return common.IOError("read plaintext", err)
			}
		}

		sealed = aead.Seal(sealed[:0], chunkNonce(counter, last), plain[:n], aad)
		if _, err := dst.Write(sealed); err != nil {
			return common.IOError("write ciphertext", err)
		}

		if last {
			return nil
		}
	}
}

// DecryptStream verifies and decrypts a stream produced by EncryptStream
// and returns the payload type recorded in its header. Each chunk is
// authenticated before any of its plaintext reaches dst; a wrong key fails
// on the first chunk, before anything is written. The payload is only
// meaningful when the returned error is nil.
func (c *Cipher) DecryptStream(src io.Reader, dst io.Writer) (Payload, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	h, err := c.decryptStream(src, dst)
	if err != nil {
		return 0, err
	}
	return h.payload, nil
}

func (c *Cipher) decryptStream(src io.Reader, dst io.Writer) (*streamHeader, error) {
	aad := make([]byte, streamHeaderSize)
	if _, err := io.ReadFull(src, aad); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, common.NewError(common.ErrAuthentication, "stream header is truncated")
		}
		return nil, common.IOError("read stream header", err)
	}

	h, err := parseStreamHeader(aad)
	if err != nil {
		return nil, err
	}

	aead, err := c.streamAEAD(h.salt[:])
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(src)
	sealed := make([]byte, int(h.chunkSize)+aead.Overhead())
	plain := make([]byte, 0, h.chunkSize)
	defer func() { common.WipeByteArray(plain[:cap(plain)]) }()

	for counter := uint64(0); ; counter++ {
		n, err := io.ReadFull(br, sealed)
		last := false
		switch {
		case errors.Is(err, io.EOF):
			return nil, common.NewError(common.ErrAuthentication, "stream is truncated")
		case errors.Is(err, io.ErrUnexpectedEOF):
			last = true
		case err != nil:
			return nil, common.IOError("read ciphertext", err)
		default:
			if _, err := br.Peek(1); errors.Is(err, io.EOF) {
				last = true
			} else if err != nil {
				return nil, common.IOError("read ciphertext", err)
			}
		}

		if n < aead.Overhead() {
			return nil, common.NewError(common.ErrAuthentication, "stream is truncated")
		}

		plain, err = aead.Open(plain[:0], chunkNonce(counter, last), sealed[:n], aad)
		if err != nil {
			return nil, common.NewError(common.ErrAuthentication, "wrong key or corrupted data")
		}

		if _, err := dst.Write(plain); err != nil {
			return nil, common.IOError("write plaintext", err)
		}

		if last {
			return h, nil
		}
	}
}
