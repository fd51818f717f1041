package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/routers"
	"github.com/haierkeys/bento-note-sync/pkg/webdav"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newRelayServer serves the relay endpoint; upstream requests go out through a
// direct transport configured by the proxy section.
func newRelayServer(a *internalApp.App) *http.Server {
	cfg := a.Config()
	upstream := webdav.NewDirectTransport(webdav.DirectOptions{
		InsecureSkipVerify: cfg.Proxy.InsecureSkipVerify,
		Timeout:            cfg.GetRequestTimeout() + 5*time.Second,
	})
	return &http.Server{
		Addr:           cfg.Proxy.Listen,
		Handler:        routers.NewRelayRouter(a, upstream),
		ReadTimeout:    cfg.GetReadTimeout(),
		WriteTimeout:   cfg.GetWriteTimeout(),
		MaxHeaderBytes: 1 << 20,
	}
}

func init() {
	proxyCmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run only the privileged relay that forwards WebDAV requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				gin.SetMode(a.Config().Server.RunMode)
				if a.Config().Proxy.TokenSecret == defaultTokenSecret {
					a.Logger().Warn("proxy.token-secret is the default value, change it before exposing the relay")
				}

				srv := newRelayServer(a)
				errChan := make(chan error, 1)
				go func() {
					a.Logger().Warn("relay_router", zap.String("config.proxy.listen", srv.Addr))
					errChan <- srv.ListenAndServe()
				}()

				quit := make(chan os.Signal, 1)
				signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
				select {
				case err := <-errChan:
					return err
				case <-quit:
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print a relay token for this installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *internalApp.App) error {
				token, err := a.RelayToken()
				if err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}

	proxyCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(proxyCmd)
}
