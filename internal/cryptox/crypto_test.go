package cryptox

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T, passphrase string, opts ...Option) *Cipher {
	t.Helper()
	c, err := New([]byte(passphrase), opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestDeriveKey_Deterministic(t *testing.T) {
	for i := 0; i < 8; i++ {
		pass := make([]byte, 1+i*7)
		_, err := rand.Read(pass)
		require.NoError(t, err)

		k1, err := DeriveKey(pass)
		require.NoError(t, err)
		k2, err := DeriveKey(pass)
		require.NoError(t, err)

		assert.True(t, k1.Equal(k2), "same passphrase must give the same key (len %d)", len(pass))
		assert.Len(t, k1.Bytes(), KeySize)
	}
}

func TestDeriveKey_DistinctPassphrases(t *testing.T) {
	seen := make(map[string]string)
	for i := 0; i < 8; i++ {
		pass := fmt.Sprintf("passphrase-%d", i)
		k, err := DeriveKey([]byte(pass))
		require.NoError(t, err)

		fp := string(k.Bytes())
		if prev, ok := seen[fp]; ok {
			t.Fatalf("passphrases %q and %q derived the same key", prev, pass)
		}
		seen[fp] = pass
	}
}

func TestDeriveKey_FixedLengthForLongInput(t *testing.T) {
	k, err := DeriveKey(bytes.Repeat([]byte("x"), 10_000))
	require.NoError(t, err)
	assert.Len(t, k.Bytes(), KeySize)
}

func TestDeriveKey_EmptyPassphrase(t *testing.T) {
	_, err := DeriveKey(nil)
	require.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = New([]byte{})
	require.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestKey_Wipe(t *testing.T) {
	k, err := DeriveKey([]byte("secret"))
	require.NoError(t, err)

	k.Wipe()
	assert.Equal(t, make([]byte, KeySize), k.Bytes())
}

func TestNew_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, MinChunkSize - 1, MaxChunkSize + 1} {
		_, err := New([]byte("secret"), WithChunkSize(size))
		require.ErrorIs(t, err, common.ErrInvalidInput, "size %d", size)
	}
}

func TestCipher_EncryptDecrypt_RoundTrip(t *testing.T) {
	c := newTestCipher(t, "correct horse")

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello world")},
		{"binary", []byte{0x00, 0xff, 0x7f, 0x80}},
		{"large", bytes.Repeat([]byte{0xab}, 10_000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := c.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.Len(t, sealed, gcmNonceSize+len(tt.plaintext)+gcmTagSize)

			opened, err := c.Decrypt(sealed)
			require.NoError(t, err)
			assert.Equal(t, len(tt.plaintext), len(opened))
			assert.True(t, bytes.Equal(tt.plaintext, opened))
		})
	}
}

func TestCipher_Encrypt_RandomNonce(t *testing.T) {
	c := newTestCipher(t, "correct horse")

	a, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestCipher_Decrypt_Failures(t *testing.T) {
	c := newTestCipher(t, "correct horse")
	other := newTestCipher(t, "battery staple")

	sealed, err := c.Encrypt([]byte("top secret"))
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	require.ErrorIs(t, err, common.ErrAuthentication)

	tampered := append([]byte(nil), sealed...)
	tampered[len(tampered)-1] ^= 0x01
	_, err = c.Decrypt(tampered)
	require.ErrorIs(t, err, common.ErrAuthentication)

	_, err = c.Decrypt(sealed[:10])
	require.ErrorIs(t, err, common.ErrAuthentication)
}

func TestCipher_ClosedRejectsUse(t *testing.T) {
	c, err := New([]byte("secret"))
	require.NoError(t, err)
	c.Close()

	_, err = c.Encrypt([]byte("x"))
	require.ErrorIs(t, err, common.ErrInvalidKey)

	err = c.EncryptStream(bytes.NewReader(nil), &bytes.Buffer{}, PayloadFile)
	require.ErrorIs(t, err, common.ErrInvalidKey)

	c.Close()
}
