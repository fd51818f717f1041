package cmd

import (
	"context"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	var (
		auto bool
		yes  bool
	)

	restoreCmd := &cobra.Command{
		Use:   "restore [--auto] [--yes]",
		Short: "Replace all local notes and folders with the remote snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				res, err := a.BackupService.RestoreFromRemote(ctx, a.UID(), service.RestoreOptions{AutoBackup: auto}, confirmer(yes))
				if err != nil {
					return err
				}
				if !res.Restored {
					color.Yellow("restore cancelled")
					return nil
				}
				color.Green("restored %d notes and %d folders from %s", res.Notes, res.Folders, res.File)
				return nil
			})
		},
	}
	restoreCmd.Flags().BoolVar(&auto, "auto", false, "restore the automatic backup file instead of the sync file")
	restoreCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(restoreCmd)
}
