package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configDefault string

// globalFlags shared by every sub command
type globalFlags struct {
	dir    string // working directory // 工作目录
	config string // config file path // 配置文件路径
}

var flags = new(globalFlags)

var rootCmd = &cobra.Command{
	Use:   "bento-note-sync",
	Short: "Bento Note Sync: note backup and restore over WebDAV",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if len(flags.dir) > 0 {
			if err := os.Chdir(flags.dir); err != nil {
				return fmt.Errorf("change working directory: %w", err)
			}
			bootstrapLogger.Info("working directory changed", zap.String("dir", flags.dir))
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.dir, "dir", "d", "", "working dir")
	pf.StringVarP(&flags.config, "config", "c", "", "config file")
}

// Execute runs the root command; c is the default config written on first start.
func Execute(c string) {
	configDefault = c
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
