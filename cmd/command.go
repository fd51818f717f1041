package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	internalApp "github.com/haierkeys/bento-note-sync/internal/app"
	"github.com/haierkeys/bento-note-sync/internal/ui"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// withApp runs fn against a fully wired App Container and shuts it down afterwards.
// One-shot commands report through the console notifier.
// withApp 为一次性命令创建 App Container，执行完毕后关闭
func withApp(fn func(ctx context.Context, a *internalApp.App) error) error {
	path, err := resolveConfig(flags.config)
	if err != nil {
		return err
	}
	cfg, _, err := internalApp.LoadConfig(path)
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	a, lg, err := openApp(cfg, internalApp.WithNotifier(ui.NewConsoleNotifier(nil)))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Shutdown(context.Background()); err != nil {
			lg.Warn("app shutdown", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, a)
}

// confirmer asks on the terminal unless yes is set.
func confirmer(yes bool) ui.Confirmer {
	if yes {
		return ui.Static(true)
	}
	return ui.NewConsoleConfirmer(os.Stdin, os.Stdout)
}
