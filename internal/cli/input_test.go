package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(stdin string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	return NewApp(strings.NewReader(stdin), &out, &bytes.Buffer{}), &out
}

func stubTerminal(t *testing.T, passwords ...string) {
	t.Helper()
	origRead, origIsTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origIsTerm })

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) {
		if len(passwords) == 0 {
			return nil, errors.New("boom")
		}
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}
}

func TestGetPassword_Piped(t *testing.T) {
	app, out := newTestApp("secret\r\nnext\n")

	pw, err := app.GetPassword("Enter passphrase: ")
	require.NoError(t, err)
	assert.Equal(t, "secret", string(pw))
	assert.Equal(t, "  Enter passphrase: \n", out.String())

	pw, err = app.GetPassword("Again: ")
	require.NoError(t, err)
	assert.Equal(t, "next", string(pw))

	_, err = app.GetPassword("More: ")
	require.Error(t, err)
}

func TestGetPassword_PipedWithoutTrailingNewline(t *testing.T) {
	app, _ := newTestApp("last")
	pw, err := app.GetPassword("p")
	require.NoError(t, err)
	assert.Equal(t, "last", string(pw))
}

func TestGetPassword_Terminal(t *testing.T) {
	stubTerminal(t, "from-term")
	app, _ := newTestApp("")

	pw, err := app.GetPassword("p")
	require.NoError(t, err)
	assert.Equal(t, "from-term", string(pw))

	_, err = app.GetPassword("p")
	require.Error(t, err)
}

func TestGetPassphrase(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		stubTerminal(t, "pw", "pw")
		app, _ := newTestApp("")
		pw, err := app.getPassphrase(true)
		require.NoError(t, err)
		assert.Equal(t, "pw", string(pw))
	})

	t.Run("mismatch", func(t *testing.T) {
		stubTerminal(t, "pw", "other")
		app, _ := newTestApp("")
		_, err := app.getPassphrase(true)
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("empty", func(t *testing.T) {
		stubTerminal(t, "")
		app, _ := newTestApp("")
		_, err := app.getPassphrase(false)
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("read error", func(t *testing.T) {
		stubTerminal(t)
		app, _ := newTestApp("")
		_, err := app.getPassphrase(false)
		require.ErrorIs(t, err, common.ErrIO)
	})

	t.Run("confirmation read error", func(t *testing.T) {
		stubTerminal(t, "pw")
		app, _ := newTestApp("")
		_, err := app.getPassphrase(true)
		require.ErrorIs(t, err, common.ErrIO)
	})
}
