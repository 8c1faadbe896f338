package cli

import (
	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/reseal"
	"github.com/spf13/cobra"
)

func (a *App) unpackCmd() *cobra.Command {
	var (
		workDir   string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "unpack <pack>",
		Short: "Open a pack for editing and optionally seal the changes back",
		Long: `unpack decrypts a pack into a working directory next to it and waits
for a single keypress: "u" encrypts the edited directory back over the pack,
any other key discards the working directory and leaves the pack unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			packPath := args[0]

			pw, err := a.getPassphrase(false)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			opts := reseal.Options{
				WorkDir:   workDir,
				Overwrite: overwrite,
				TempDir:   a.config.TempDir,
				ChunkSize: a.config.ChunkSize,
				Logger:    a.logger,
			}
			dir := workDir
			if dir == "" {
				dir = reseal.WorkDirFor(packPath)
			}

			a.reporter.Info("Decrypting...")
			outcome, err := reseal.Run(ctx, packPath, pw, keyDecider{reporter: a.reporter, workDir: dir}, opts)
			if err != nil {
				return err
			}

			switch outcome {
			case reseal.OutcomeResealed:
				a.reporter.Success("Updated pack %s", packPath)
			default:
				a.reporter.Info("Discarded changes, %s is unchanged", packPath)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&workDir, "output-path", "o", "", "working directory (default: the pack name without extension)")
	f.BoolVarP(&overwrite, "overwrite", "O", false, "replace a non-empty working directory")
	return cmd
}
