// Package cryptox implements the passphrase-derived cipher used by fencrypt.
//
// A passphrase is reduced to a fixed 32-byte Key with Argon2id. A Cipher owns
// that key and offers two flavours of authenticated encryption:
//
//   - EncryptStream / DecryptStream for arbitrarily large files and packs,
//     processed in fixed-size ChaCha20-Poly1305 chunks (see stream.go);
//   - Encrypt / Decrypt for short in-memory values, sealed with AES-256-GCM.
//
// Decryption with a wrong passphrase, or of corrupted or truncated data,
// always fails with common.ErrAuthentication.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the size of a derived key in bytes.
	KeySize = 32

	// Argon2id parameters. Changing any of them changes every derived key.
	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 4

	gcmNonceSize = 12
	gcmTagSize   = 16
)

// kdfSalt is fixed so that the same passphrase always yields the same key.
// Per-stream randomness comes from the stream header salt instead.
var kdfSalt = []byte("fencrypt/v1/key-derivation")

// Key is a derived secret. Call Wipe once it is no longer needed.
type Key struct {
	b [KeySize]byte
}

// Bytes exposes the key material. The slice aliases the Key.
func (k *Key) Bytes() []byte {
	return k.b[:]
}

// Equal compares two keys in constant time.
func (k *Key) Equal(other *Key) bool {
	return subtle.ConstantTimeCompare(k.b[:], other.b[:]) == 1
}

// Wipe zeroes the key material.
func (k *Key) Wipe() {
	common.WipeByteArray(k.b[:])
}

// DeriveKey reduces passphrase to a fixed-size Key with Argon2id. The result
// is deterministic: the same passphrase always produces the same key.
func DeriveKey(passphrase []byte) (*Key, error) {
	if len(passphrase) == 0 {
		return nil, common.NewError(common.ErrInvalidInput, "the passphrase cannot be empty")
	}

	raw := argon2.IDKey(passphrase, kdfSalt, kdfTime, kdfMemory, kdfThreads, KeySize)
	defer common.WipeByteArray(raw)

	k := &Key{}
	copy(k.b[:], raw)
	return k, nil
}

// Cipher encrypts and decrypts with a single derived key. It is not safe for
// concurrent use.
type Cipher struct {
	key       *Key
	gcm       cipher.AEAD
	chunkSize int
}

// Option configures a Cipher.
type Option func(*Cipher)

// WithChunkSize sets the plaintext chunk size used by EncryptStream.
// Decryption always uses the size recorded in the stream header.
func WithChunkSize(n int) Option {
	return func(c *Cipher) {
		c.chunkSize = n
	}
}

// New derives a key from passphrase and prepares the cipher primitives.
func New(passphrase []byte, opts ...Option) (*Cipher, error) {
	key, err := DeriveKey(passphrase)
	if err != nil {
		return nil, err
	}

	c, err := NewWithKey(key, opts...)
	if err != nil {
		key.Wipe()
		return nil, err
	}
	return c, nil
}

// NewWithKey builds a Cipher around an already derived key. The Cipher takes
// ownership of key and wipes it on Close.
func NewWithKey(key *Key, opts ...Option) (*Cipher, error) {
	c := &Cipher{key: key, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(c)
	}

	if c.chunkSize < MinChunkSize || c.chunkSize > MaxChunkSize {
		return nil, common.NewError(common.ErrInvalidInput, "chunk size must be between 1 KiB and 16 MiB")
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, common.WrapError(common.ErrInvalidKey, "failed to create cipher", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.WrapError(common.ErrInvalidKey, "failed to create cipher", err)
	}
	c.gcm = gcm

	return c, nil
}

// ChunkSize returns the plaintext chunk size used for encryption.
func (c *Cipher) ChunkSize() int {
	return c.chunkSize
}

// Close wipes the key. The Cipher cannot be used afterwards.
func (c *Cipher) Close() {
	if c.key != nil {
		c.key.Wipe()
	}
	c.key = nil
	c.gcm = nil
}

func (c *Cipher) checkOpen() error {
	if c.key == nil {
		return common.NewError(common.ErrInvalidKey, "cipher is closed")
	}
	return nil
}

// Encrypt seals a short in-memory value. The result is
// nonce (12 bytes) || ciphertext || tag (16 bytes).
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize, gcmNonceSize+len(plaintext)+gcmTagSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, common.WrapError(common.ErrCrypto, "failed to generate nonce", err)
	}

	return c.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	if len(data) < gcmNonceSize+gcmTagSize {
		return nil, common.NewError(common.ErrAuthentication, "ciphertext is too short")
	}

	plaintext, err := c.gcm.Open(nil, data[:gcmNonceSize], data[gcmNonceSize:], nil)
	if err != nil {
		return nil, common.NewError(common.ErrAuthentication, "wrong key or corrupted data")
	}
	return plaintext, nil
}
