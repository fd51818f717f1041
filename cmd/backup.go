package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	var (
		exportDir string
		yes       bool
	)

	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Export, upload or run a backup now",
	}

	exportCmd := &cobra.Command{
		Use:   "export [--dir dir]",
		Short: "Write a dated snapshot file into dir (default: current directory)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				if exportDir != "" && a.FileSystem != nil {
					path, err := a.BackupService.ExportToDir(ctx, a.UID(), exportDir)
					if err != nil {
						return err
					}
					color.Green("exported %s", path)
					return nil
				}
				name, data, err := a.BackupService.Export(ctx, a.UID())
				if err != nil {
					return err
				}
				path := filepath.Join(exportDir, name)
				if err := os.WriteFile(path, data, 0o600); err != nil {
					return err
				}
				color.Green("exported %s", path)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "target directory")

	uploadCmd := &cobra.Command{
		Use:   "upload [--yes]",
		Short: "Upload the local snapshot to the sync file on the WebDAV server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				res, err := a.BackupService.UploadToRemote(ctx, a.UID(), confirmer(yes))
				if err != nil {
					return err
				}
				if !res.Uploaded {
					color.Yellow("upload cancelled, remote %s was left untouched", res.File)
					return nil
				}
				color.Green("uploaded %s", res.File)
				return nil
			})
		},
	}
	uploadCmd.Flags().BoolVarP(&yes, "yes", "y", false, "overwrite a newer remote file without asking")

	nowCmd := &cobra.Command{
		Use:   "now",
		Short: "Run one scheduled backup to the configured location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				recorded, err := a.BackupService.RunScheduledBackup(ctx, a.UID())
				if err != nil {
					return err
				}
				if !recorded {
					return fmt.Errorf("backup was not recorded, check the backup settings")
				}
				color.Green("backup completed")
				return nil
			})
		},
	}

	backupCmd.AddCommand(exportCmd, uploadCmd, nowCmd)
	rootCmd.AddCommand(backupCmd)
}
