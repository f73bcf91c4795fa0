package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fabricio-araujo94/solid/host"
	"github.com/urfave/cli"
)

// Render a model file and render it again whenever it changes.
func WatchModel(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	view, err := newOffscreenView(ctx, cfg)
	if err != nil {
		return err
	}
	defer view.close()

	watcher, err := host.NewWatcher(ctx.Args().First(), host.DefaultDebounce)
	if err != nil {
		return err
	}

	if err = view.mount(); err != nil {
		logger.Warningf("initial load failed: %s", err)
	} else if err = view.renderTo(); err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Noticef("watching %s for changes", watcher.Path())
	return watcher.Run(sigCtx, func() {
		load, err := view.binding.Reload()
		if err == nil {
			err = view.wait(load)
		}
		if err != nil {
			logger.Warningf("reload failed: %s", err)
			return
		}
		if err = view.renderTo(); err != nil {
			logger.Errorf("render failed: %s", err)
		}
	})
}
