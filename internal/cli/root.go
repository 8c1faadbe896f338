package cli

import (
	"github.com/dmitrijs2005/fencrypt/internal/buildinfo"
	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/config"
	"github.com/spf13/cobra"
)

// rootCmd builds the command tree. args are the raw arguments, used by the
// configuration layer to locate its JSON file.
func (a *App) rootCmd(args []string) *cobra.Command {
	root := &cobra.Command{
		Use:   common.AppName,
		Short: "Encrypt files and directories with a passphrase",
		Long: `fencrypt encrypts files and whole directory trees with a passphrase.

Directories are packed into a single container before encryption, so an
encrypted directory is one opaque <dir>.pack file. Packs can be opened for
editing and sealed again with the changes.

Quick usage:
  fencrypt encrypt notes.txt docs/   # creates notes.txt.enc and docs.pack
  fencrypt decrypt docs.pack         # restores docs/
  fencrypt unpack docs.pack          # edit docs/, press "u" to update the pack`,
		Version:       buildinfo.Version(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(args, cmd.Flags())
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.out)
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(
		a.encryptCmd(),
		a.decryptCmd(),
		a.packCmd(),
		a.unpackCmd(),
		a.textCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			buildinfo.PrintBuildData(a.out)
			return nil
		},
	}
}
