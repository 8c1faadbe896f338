package cryptox

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func encryptToBuffer(t *testing.T, c *Cipher, plain []byte) []byte {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, c.EncryptStream(bytes.NewReader(plain), &out, PayloadFile))
	return out.Bytes()
}

func TestStream_RoundTrip(t *testing.T) {
	c := newTestCipher(t, "correct horse", WithChunkSize(MinChunkSize))

	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"one byte", 1},
		{"exactly one chunk", MinChunkSize},
		{"one chunk plus one", MinChunkSize + 1},
		{"several chunks", 5*MinChunkSize + 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plain := randomBytes(t, tt.size)
			sealed := encryptToBuffer(t, c, plain)

			chunks := tt.size/MinChunkSize + 1
			if tt.size > 0 && tt.size%MinChunkSize == 0 {
				chunks = tt.size / MinChunkSize
			}
			assert.Equal(t, streamHeaderSize+tt.size+chunks*16, len(sealed))

			var out bytes.Buffer
			payload, err := c.DecryptStream(bytes.NewReader(sealed), &out)
			require.NoError(t, err)
			assert.Equal(t, PayloadFile, payload)
			assert.True(t, bytes.Equal(plain, out.Bytes()))
		})
	}
}

func TestStream_RoundTrip_MultiMegabyte(t *testing.T) {
	c := newTestCipher(t, "correct horse")
	plain := randomBytes(t, 3<<20+123)

	sealed := encryptToBuffer(t, c, plain)

	var out bytes.Buffer
	_, err := c.DecryptStream(bytes.NewReader(sealed), &out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plain, out.Bytes()))
}

func TestStream_DecryptUsesHeaderChunkSize(t *testing.T) {
	small := newTestCipher(t, "correct horse", WithChunkSize(MinChunkSize))
	plain := randomBytes(t, 10*MinChunkSize+5)
	sealed := encryptToBuffer(t, small, plain)

	// same passphrase, different configured chunk size
	big := newTestCipher(t, "correct horse", WithChunkSize(8*MinChunkSize))
	var out bytes.Buffer
	_, err := big.DecryptStream(bytes.NewReader(sealed), &out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(plain, out.Bytes()))
}

func TestStream_SamePlaintextDifferentCiphertext(t *testing.T) {
	c := newTestCipher(t, "correct horse")
	plain := []byte("same input")

	a := encryptToBuffer(t, c, plain)
	b := encryptToBuffer(t, c, plain)
	assert.NotEqual(t, a, b)
}

func TestStream_WrongKeyWritesNothing(t *testing.T) {
	c := newTestCipher(t, "correct horse", WithChunkSize(MinChunkSize))
	other := newTestCipher(t, "Correct horse")

	sealed := encryptToBuffer(t, c, randomBytes(t, 3*MinChunkSize))

	var out bytes.Buffer
	_, err := other.DecryptStream(bytes.NewReader(sealed), &out)
	require.ErrorIs(t, err, common.ErrAuthentication)
	assert.Zero(t, out.Len(), "no unverified plaintext may be written")
}

func TestStream_CorruptionDetected(t *testing.T) {
	c := newTestCipher(t, "correct horse", WithChunkSize(MinChunkSize))
	plain := randomBytes(t, 3*MinChunkSize+100)
	sealed := encryptToBuffer(t, c, plain)
	chunk := MinChunkSize + 16

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"empty input", func(b []byte) []byte { return nil }},
		{"truncated header", func(b []byte) []byte { return b[:streamHeaderSize-1] }},
		{"header only", func(b []byte) []byte { return b[:streamHeaderSize] }},
		{"bad magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"bad version", func(b []byte) []byte { b[len(streamMagic)] = 9; return b }},
		{"unknown payload", func(b []byte) []byte { b[len(streamMagic)+1] = 0; return b }},
		{"payload relabelled", func(b []byte) []byte { b[len(streamMagic)+1] = byte(PayloadPack); return b }},
		{"tampered salt", func(b []byte) []byte { b[streamHeaderSize-1] ^= 1; return b }},
		{"flipped ciphertext bit", func(b []byte) []byte { b[streamHeaderSize+chunk+3] ^= 0x80; return b }},
		{"dropped last chunk", func(b []byte) []byte { return b[:streamHeaderSize+3*chunk] }},
		{"cut inside last chunk", func(b []byte) []byte { return b[:len(b)-5] }},
		{"trailing garbage", func(b []byte) []byte { return append(b, 0x00) }},
		{"swapped chunks", func(b []byte) []byte {
			first := append([]byte(nil), b[streamHeaderSize:streamHeaderSize+chunk]...)
			copy(b[streamHeaderSize:], b[streamHeaderSize+chunk:streamHeaderSize+2*chunk])
			copy(b[streamHeaderSize+chunk:], first)
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), sealed...))
			_, err := c.DecryptStream(bytes.NewReader(data), io.Discard)
			require.ErrorIs(t, err, common.ErrAuthentication)
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestStream_IOErrors(t *testing.T) {
	c := newTestCipher(t, "correct horse")

	err := c.EncryptStream(bytes.NewReader([]byte("data")), failingWriter{}, PayloadFile)
	require.ErrorIs(t, err, common.ErrIO)

	err = c.EncryptStream(failingReader{}, io.Discard, PayloadFile)
	require.ErrorIs(t, err, common.ErrIO)

	sealed := encryptToBuffer(t, c, []byte("data"))
	_, err = c.DecryptStream(bytes.NewReader(sealed), failingWriter{})
	require.ErrorIs(t, err, common.ErrIO)

	_, err = c.DecryptStream(failingReader{}, io.Discard)
	require.ErrorIs(t, err, common.ErrIO)
}

func TestStream_PayloadTravelsInHeader(t *testing.T) {
	c := newTestCipher(t, "correct horse", WithChunkSize(MinChunkSize))
	// a file that happens to look like a pack container
	plain := []byte("FENCPACK is my favourite word")

	for _, want := range []Payload{PayloadFile, PayloadPack} {
		t.Run(want.String(), func(t *testing.T) {
			var sealed, out bytes.Buffer
			require.NoError(t, c.EncryptStream(bytes.NewReader(plain), &sealed, want))

			got, err := c.DecryptStream(&sealed, &out)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, plain, out.Bytes())
		})
	}

	err := c.EncryptStream(bytes.NewReader(plain), io.Discard, Payload(0))
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestCipher_EncryptFileDecryptFile(t *testing.T) {
	c := newTestCipher(t, "correct horse")
	dir := t.TempDir()

	src := filepath.Join(dir, "a.txt")
	enc := filepath.Join(dir, "a.txt.enc")
	dec := filepath.Join(dir, "a.out")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))

	require.NoError(t, c.EncryptFile(src, enc, PayloadFile, false))
	require.ErrorIs(t, c.EncryptFile(src, enc, PayloadFile, false), common.ErrOutputExists)
	payload, err := c.DecryptFile(enc, dec, false)
	require.NoError(t, err)
	assert.Equal(t, PayloadFile, payload)

	got, err := os.ReadFile(dec)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestCipher_DecryptFile_WrongKeyLeavesNoOutput(t *testing.T) {
	c := newTestCipher(t, "correct horse")
	other := newTestCipher(t, "wrong")
	dir := t.TempDir()

	src := filepath.Join(dir, "a.txt")
	enc := filepath.Join(dir, "a.txt.enc")
	dec := filepath.Join(dir, "a.out")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o600))
	require.NoError(t, c.EncryptFile(src, enc, PayloadFile, false))

	_, err := other.DecryptFile(enc, dec, false)
	require.ErrorIs(t, err, common.ErrAuthentication)

	_, statErr := os.Stat(dec)
	assert.True(t, os.IsNotExist(statErr))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no partial files left behind")
}
