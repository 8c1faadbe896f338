package cli

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"golang.org/x/term"
)

// readPassword and isTerminal are test seams for the x/term calls.
// In tests you can replace them with stubs to avoid touching the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// GetPassword prints prompt and reads a password without echo when stdin is
// a terminal. Piped input is read line by line instead, so scripts can feed
// the passphrase. A newline is printed after the read to keep the UI tidy.
//
// The returned byte slice should be wiped by the caller when no longer needed.
func (a *App) GetPassword(prompt string) ([]byte, error) {
	a.reporter.Prompt(prompt)
	defer fmt.Fprintln(a.out)

	if !isTerminal(a.stdinFd) {
		line, err := a.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return nil, err
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}
	return readPassword(a.stdinFd)
}

// getPassphrase asks for the passphrase, twice when confirm is set, and
// rejects empty or mismatching input.
func (a *App) getPassphrase(confirm bool) ([]byte, error) {
	pw, err := a.GetPassword("Enter passphrase: ")
	if err != nil {
		return nil, common.IOError("failed to read passphrase", err)
	}
	if len(pw) == 0 {
		return nil, common.NewError(common.ErrInvalidInput, "the passphrase cannot be empty")
	}
	if !confirm {
		return pw, nil
	}

	again, err := a.GetPassword("Confirm passphrase: ")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, common.IOError("failed to read passphrase confirmation", err)
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, common.NewError(common.ErrInvalidInput, "the two passphrases don't match")
	}
	return pw, nil
}

// newLineReader wraps r unless it already is a *bufio.Reader.
func newLineReader(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}
