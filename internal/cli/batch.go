package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/fencrypt/internal/batch"
	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/filex"
	"github.com/spf13/cobra"
)

type batchFunc func(r *batch.Runner, ctx context.Context, paths []string, passphrase []byte, o batch.Options) (*batch.Result, error)

// direction holds the wording and entry point of one batch direction.
type direction struct {
	op      string
	verb    string
	working string
	confirm bool
	run     batchFunc
}

var (
	encryptDirection = direction{op: "encrypt", verb: "Encrypted", working: "Encrypting...", confirm: true, run: (*batch.Runner).Encrypt}
	decryptDirection = direction{op: "decrypt", verb: "Decrypted", working: "Decrypting...", run: (*batch.Runner).Decrypt}
)

func (a *App) encryptCmd() *cobra.Command {
	var o batch.Options
	cmd := &cobra.Command{
		Use:   "encrypt <paths...>",
		Short: "Encrypt files into <file>.enc and directories into <dir>.pack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			return a.runBatch(cmd.Context(), encryptDirection, paths, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.OutputPath, "output-path", "o", "", "set the output path (only with a single input path)")
	f.BoolVarP(&o.Overwrite, "overwrite", "O", false, "overwrite existing outputs")
	f.BoolVarP(&o.DeleteOriginal, "delete-original", "d", false, "delete original directories after encrypting")
	f.StringArrayVar(&o.Exclude, "exclude", nil, "skip directory entries matching this glob (repeatable, e.g. '**/.git')")
	return cmd
}

func (a *App) decryptCmd() *cobra.Command {
	var o batch.Options
	cmd := &cobra.Command{
		Use:   "decrypt <paths...>",
		Short: "Decrypt .enc files and .pack directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			return a.runBatch(cmd.Context(), decryptDirection, paths, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.OutputPath, "output-path", "o", "", "set the output path (only with a single input path)")
	f.BoolVarP(&o.Overwrite, "overwrite", "O", false, "overwrite existing outputs")
	return cmd
}

func (a *App) packCmd() *cobra.Command {
	var o batch.Options
	cmd := &cobra.Command{
		Use:   "pack <dir>",
		Short: "Encrypt one directory into <dir>.pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			kind, err := filex.KindOf(paths[0])
			if err != nil {
				return common.WrapError(common.ErrInvalidInput, fmt.Sprintf("cannot access %s", paths[0]), err)
			}
			if kind != filex.KindDir {
				return common.NewError(common.ErrNotADirectory, fmt.Sprintf("%s is not a directory", paths[0]))
			}
			return a.runBatch(cmd.Context(), encryptDirection, paths, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.OutputPath, "output-path", "o", "", "set the pack path")
	f.BoolVarP(&o.Overwrite, "overwrite", "O", false, "overwrite an existing pack")
	f.BoolVarP(&o.DeleteOriginal, "delete-original", "d", false, "delete the directory after encrypting")
	f.StringArrayVar(&o.Exclude, "exclude", nil, "skip entries matching this glob (repeatable)")
	return cmd
}

// runBatch checks the inputs, asks for the passphrase and reports the
// outcome. Failed items make the command fail after the summary.
func (a *App) runBatch(ctx context.Context, d direction, paths []string, o batch.Options) error {
	if err := batch.Precheck(paths, o); err != nil {
		return err
	}

	pw, err := a.getPassphrase(d.confirm)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	a.reporter.Info("%s", d.working)
	res, err := d.run(a.runner(), ctx, paths, pw, o)
	if err != nil {
		return err
	}

	a.reporter.Batch(d.verb, d.op, res)
	if _, _, failed := res.Counts(); failed > 0 {
		return errReported
	}
	return nil
}
