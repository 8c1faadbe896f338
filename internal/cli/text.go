package cli

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/cryptox"
	"github.com/spf13/cobra"
)

func (a *App) textCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Encrypt and decrypt short values as base64 text",
	}
	cmd.AddCommand(a.textEncryptCmd(), a.textDecryptCmd())
	return cmd
}

func (a *App) textEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <value>",
		Short: "Encrypt a value and print it base64 encoded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.newCipher(true)
			if err != nil {
				return err
			}
			defer c.Close()

			enc, err := c.Encrypt([]byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, base64.StdEncoding.EncodeToString(enc))
			return nil
		},
	}
}

func (a *App) textDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <base64>",
		Short: "Decrypt a base64 encoded value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := base64.StdEncoding.DecodeString(args[0])
			if err != nil {
				return common.WrapError(common.ErrInvalidInput, "the value is not valid base64", err)
			}

			c, err := a.newCipher(false)
			if err != nil {
				return err
			}
			defer c.Close()

			dec, err := c.Decrypt(data)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(dec)

			if utf8.Valid(dec) {
				fmt.Fprintln(a.out, string(dec))
				return nil
			}
			a.reporter.Info("The value is not valid UTF-8, printing hex")
			fmt.Fprintln(a.out, hex.EncodeToString(dec))
			return nil
		},
	}
}

// newCipher asks for the passphrase and derives a cipher from it.
func (a *App) newCipher(confirm bool) (*cryptox.Cipher, error) {
	pw, err := a.getPassphrase(confirm)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(pw)

	return cryptox.New(pw, cryptox.WithChunkSize(a.config.ChunkSize))
}
