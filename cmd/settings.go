package cmd

import (
	"context"
	"fmt"
	"time"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type settingsFlags struct {
	interval  string
	location  string
	url       string
	username  string
	password  string
	localPath string
}

func init() {
	sf := new(settingsFlags)

	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the backup settings",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the backup settings, password redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				s, err := a.SettingService.Get(ctx)
				if err != nil {
					return err
				}
				printSettings(s.Redacted())
				return nil
			})
		},
	}

	setCmd := &cobra.Command{
		Use:   "set [--interval 1h] [--location webdav] [--url ...] [--username ...] [--password ...] [--local-path ...]",
		Short: "Change the backup settings; unset flags keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				s, err := a.SettingService.Get(ctx)
				if err != nil {
					return err
				}
				f := cmd.Flags()
				if f.Changed("interval") {
					s.Interval = domain.BackupInterval(sf.interval)
				}
				if f.Changed("location") {
					s.Location = domain.BackupLocation(sf.location)
				}
				if f.Changed("url") {
					s.Remote.URL = sf.url
				}
				if f.Changed("username") {
					s.Remote.Username = sf.username
				}
				if f.Changed("password") {
					s.Remote.Password = sf.password
				}
				if f.Changed("local-path") {
					s.LocalPath = sf.localPath
					if a.FileSystem != nil && s.LocalPath != "" {
						if s.LocalPath, err = a.FileSystem.SelectDirectory(s.LocalPath); err != nil {
							return err
						}
					}
				}
				saved, err := a.SettingService.Update(ctx, s)
				if err != nil {
					return err
				}
				color.Green("settings saved")
				printSettings(saved.Redacted())
				return nil
			})
		},
	}
	fs := setCmd.Flags()
	fs.StringVar(&sf.interval, "interval", "", "off | 15m | 1h | 6h | 12h | 24h")
	fs.StringVar(&sf.location, "location", "", "local | webdav")
	fs.StringVar(&sf.url, "url", "", "WebDAV base URL")
	fs.StringVar(&sf.username, "username", "", "WebDAV username")
	fs.StringVar(&sf.password, "password", "", "WebDAV password")
	fs.StringVar(&sf.localPath, "local-path", "", "directory for local automatic backups")

	settingsCmd.AddCommand(showCmd, setCmd)
	rootCmd.AddCommand(settingsCmd)
}

func printSettings(s domain.BackupSettings) {
	last := "never"
	if s.LastBackupTime > 0 {
		last = time.UnixMilli(s.LastBackupTime).Format(time.RFC3339)
	}
	fmt.Printf("interval:    %s\n", s.Interval)
	fmt.Printf("location:    %s\n", s.Location)
	fmt.Printf("url:         %s\n", s.Remote.URL)
	fmt.Printf("username:    %s\n", s.Remote.Username)
	fmt.Printf("password:    %s\n", s.Remote.Password)
	fmt.Printf("local path:  %s\n", s.LocalPath)
	fmt.Printf("last backup: %s\n", last)
}
