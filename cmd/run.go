package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	port    string // Startup port // 启动端口
	runMode string // Startup mode // 启动模式
	config  string // resolved config file // 实际使用的配置文件
}

func init() {
	runEnv := new(runFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-p addr]",
		Short: "Run the local API and the automatic backup scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfig(flags.config)
			if err != nil {
				return err
			}
			runEnv.config = path

			s, err := NewServer(runEnv)
			if err != nil {
				bootstrapLogger.Error("service start err", zap.Error(err))
				return err
			}

			var mu sync.Mutex
			current := func() *Server {
				mu.Lock()
				defer mu.Unlock()
				return s
			}

			w := watcher.New()

			// 每个监听周期至多接收 1 个事件
			w.SetMaxEvents(1)

			// 只通知写入事件
			w.FilterOps(watcher.Write)

			go func() {
				for {
					select {
					case event := <-w.Event:
						old := current()
						old.logger.Info("config watcher change", zap.String("event", event.Op.String()), zap.String("file", event.Path))
						old.sc.SendCloseSignal(nil)
						if err := old.sc.WaitClosed(); err != nil {
							old.logger.Warn("previous instance closed with error", zap.Error(err))
						}

						// 重新初始化 server
						next, err := NewServer(runEnv)
						if err != nil {
							bootstrapLogger.Error("service restart err", zap.Error(err))
							continue
						}
						mu.Lock()
						s = next
						mu.Unlock()
					case err := <-w.Error:
						current().logger.Error("config watcher error", zap.Error(err))
					case <-w.Closed:
						bootstrapLogger.Info("config watcher closed")
						return
					}
				}
			}()

			if err := w.Add(runEnv.config); err != nil {
				s.logger.Error("config watcher file error", zap.Error(err))
			} else {
				go func() {
					if err := w.Start(time.Second * 5); err != nil {
						current().logger.Error("config watcher start error", zap.Error(err))
					}
				}()
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit
			w.Close()

			last := current()
			last.logger.Info("Received shutdown signal, initiating graceful shutdown...")
			last.sc.SendCloseSignal(nil)

			// 等待所有关闭处理器完成（包括 App Container 的优雅关闭）
			if err := last.sc.WaitClosed(); err != nil {
				last.logger.Error("Shutdown completed with error", zap.Error(err))
			} else {
				last.logger.Info("Service has been shut down gracefully.")
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCommand)
	fs := runCommand.Flags()
	fs.StringVarP(&runEnv.port, "port", "p", "", "local API listen address")
	fs.StringVarP(&runEnv.runMode, "mode", "m", "", "run mode")
}
