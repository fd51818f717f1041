package cmd

import (
	"context"
	"os"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge an exported snapshot file into the local data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *internalApp.App) error {
			res, err := a.BackupService.Import(ctx, a.UID(), data)
			if err != nil {
				return err
			}
			color.Green("imported %d notes and %d folders", res.Notes, res.Folders)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
