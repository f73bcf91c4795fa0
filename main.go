package main

import (
	"fmt"
	"os"

	"github.com/fabricio-araujo94/solid/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "solid"
	app.Usage = "load, frame and render 3D part models"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load settings from a TOML or YAML file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a model to an image",
			Description: `
Load a model from a local path or an http(s) URL, frame the camera around it
and write a single frame to a PNG file.`,
			ArgsUsage: "model_url",
			Flags:     cmd.ViewFlags,
			Action:    cmd.RenderModel,
		},
		{
			Name:  "watch",
			Usage: "render a model file whenever it changes",
			Description: `
Render a local model file like the render command and keep watching it; every
change reloads the model and rewrites the output image.`,
			ArgsUsage: "model_file",
			Flags:     cmd.ViewFlags,
			Action:    cmd.WatchModel,
		},
		{
			Name:  "serve",
			Usage: "serve interactive viewer sessions over websockets",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "addr",
					Usage: "listen address (defaults to the configured address)",
				},
			},
			Action: cmd.Serve,
		},
		{
			Name:      "info",
			Usage:     "display model information",
			ArgsUsage: "model_url",
			Action:    cmd.ShowModelInfo,
		},
		{
			Name:   "formats",
			Usage:  "list supported model formats",
			Action: cmd.ListFormats,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
