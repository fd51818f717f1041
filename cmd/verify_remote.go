package cmd

import (
	"context"
	"fmt"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// backupFilePrefix matches the sync, automatic and export files.
const backupFilePrefix = "bento_note_"

var verifyRemoteCmd = &cobra.Command{
	Use:   "verify-remote",
	Short: "Check the configured WebDAV server and list the backup files on it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *internalApp.App) error {
			s, err := a.SettingService.Get(ctx)
			if err != nil {
				return err
			}
			if !s.Remote.Configured() {
				return fmt.Errorf("WebDAV is not configured, run: settings set --url ... --username ... --password ...")
			}

			if err := a.BackupService.TestConnection(ctx, s.Remote); err != nil {
				color.Red("connection failed: %v", err)
				return err
			}
			color.Green("connection ok: %s", s.Remote.URL)

			cfg := a.Config()
			files, err := webdav.NewLister(s.Remote, cfg.App.InsecureSkipVerify, cfg.GetRequestTimeout()).List(backupFilePrefix)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				color.Yellow("no backup files found")
				return nil
			}
			for _, f := range files {
				fmt.Printf("%-60s %10d  %s\n", f.Name, f.Size, f.Modified.Format("2006-01-02 15:04:05"))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(verifyRemoteCmd)
}
