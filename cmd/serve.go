package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fabricio-araujo94/solid/config"
	"github.com/fabricio-araujo94/solid/host"
	"github.com/urfave/cli"
)

// Serve websocket viewer sessions.
func Serve(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if ctx.IsSet("addr") {
		addr = ctx.String("addr")
	}

	props := viewProps(cfg)
	server := host.NewServer(host.ServerOptions{
		Width:        cfg.Viewer.Width,
		Height:       cfg.Viewer.Height,
		Viewer:       cfg.ViewerOptions(),
		Props:        &props,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.ListenAndServe(sigCtx, addr)
}

// The initial view props for the configured color, rotation and zoom.
func viewProps(cfg *config.Config) host.Props {
	props := host.DefaultProps()
	props.Color = cfg.MeshColor()
	props.RotationX = float64(cfg.Viewer.RotationX)
	props.RotationY = float64(cfg.Viewer.RotationY)
	if z := cfg.Viewer.Zoom; z != nil {
		props.Zoom = float64(*z)
	}
	return props
}
