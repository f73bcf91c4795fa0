package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/fabricio-araujo94/solid/config"
	"github.com/fabricio-araujo94/solid/host"
	"github.com/fabricio-araujo94/solid/renderer"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/fabricio-araujo94/solid/viewer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Max time to wait for a model to load.
const loadTimeout = 2 * time.Minute

// Flags shared by the render and watch commands.
var ViewFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Usage: "frame width (defaults to the configured width)",
	},
	cli.IntFlag{
		Name:  "height",
		Usage: "frame height (defaults to the configured height)",
	},
	cli.StringFlag{
		Name:  "color",
		Usage: "model color as #rrggbb (defaults to the configured color)",
	},
	cli.Float64Flag{
		Name:  "rot-x",
		Usage: "model rotation about the X axis in degrees",
	},
	cli.Float64Flag{
		Name:  "rot-y",
		Usage: "model rotation about the Y axis in degrees",
	},
	cli.Float64Flag{
		Name:  "zoom",
		Usage: "camera zoom in [0, 100]; the camera is framed to the model when omitted",
	},
	cli.StringFlag{
		Name:  "out, o",
		Value: "frame.png",
		Usage: "image filename for the rendered frame",
	},
	cli.IntFlag{
		Name:  "thumb",
		Usage: "downscale the frame so that its largest side is at most this many pixels",
	},
}

// A mounted viewer rendering into an offscreen surface.
type offscreenView struct {
	binding *host.Binding
	surface *renderer.ImageSurface

	rotX, rotY float64
	zoom       *float64
	out        string
	thumb      int
}

func newOffscreenView(ctx *cli.Context, cfg *config.Config) (*offscreenView, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing model file argument")
	}

	width, height := cfg.Viewer.Width, cfg.Viewer.Height
	if ctx.IsSet("width") {
		width = ctx.Int("width")
	}
	if ctx.IsSet("height") {
		height = ctx.Int("height")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	color := cfg.MeshColor()
	if ctx.IsSet("color") {
		var err error
		if color, err = scene.ParseColor(ctx.String("color")); err != nil {
			return nil, err
		}
	}

	view := &offscreenView{
		surface: renderer.NewImageSurface(width, height),
		rotX:    float64(cfg.Viewer.RotationX),
		rotY:    float64(cfg.Viewer.RotationY),
		out:     ctx.String("out"),
		thumb:   ctx.Int("thumb"),
	}
	if ctx.IsSet("rot-x") {
		view.rotX = ctx.Float64("rot-x")
	}
	if ctx.IsSet("rot-y") {
		view.rotY = ctx.Float64("rot-y")
	}
	if z := cfg.Viewer.Zoom; z != nil {
		zoom := float64(*z)
		view.zoom = &zoom
	}
	if ctx.IsSet("zoom") {
		zoom := ctx.Float64("zoom")
		view.zoom = &zoom
	}

	props := viewProps(cfg)
	props.ModelURL = ctx.Args().First()
	props.Color = color
	view.binding = host.NewBinding(viewer.New(cfg.ViewerOptions()), props)
	return view, nil
}

// Mount the viewer and wait for the initial model.
func (v *offscreenView) mount() error {
	load, err := v.binding.Mount(v.surface)
	if err != nil {
		return err
	}
	return v.wait(load)
}

func (v *offscreenView) wait(load *viewer.Load) error {
	if load == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	return load.Wait(ctx)
}

// Apply the view transforms, render a frame and write it out. Transforms are
// applied on every call since each load resets them.
func (v *offscreenView) renderTo() error {
	vw := v.binding.Viewer()
	if v.rotX != 0 || v.rotY != 0 {
		if err := vw.UpdateRotation(v.rotX, v.rotY); err != nil {
			return err
		}
	}
	if v.zoom != nil {
		if err := vw.UpdateZoom(*v.zoom); err != nil {
			return err
		}
	}

	if err := vw.Render(); err != nil {
		return err
	}

	var frame image.Image = v.surface.Frame()
	if v.thumb > 0 {
		frame = renderer.Thumbnail(frame, v.thumb)
	}
	if err := writePNG(v.out, frame); err != nil {
		return err
	}

	logger.Noticef("wrote %s", v.out)
	displayFrameStats(vw.Stats(), vw.Status())
	return nil
}

func (v *offscreenView) close() {
	v.binding.Unmount()
}

// Render a model to an image file.
func RenderModel(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	view, err := newOffscreenView(ctx, cfg)
	if err != nil {
		return err
	}
	defer view.close()

	if err = view.mount(); err != nil {
		return err
	}
	return view.renderTo()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func displayFrameStats(stats renderer.FrameStats, status viewer.Status) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Model", "Triangles", "Geometries", "Materials", "Textures", "Render time"})
	table.Append([]string{
		status.ModelURL,
		fmt.Sprintf("%d", stats.Triangles),
		fmt.Sprintf("%d", stats.Buffers.Geometries),
		fmt.Sprintf("%d", stats.Buffers.Materials),
		fmt.Sprintf("%d", stats.Buffers.Textures),
		stats.RenderTime.String(),
	})
	table.SetFooter([]string{"", "", "", "", "FRAMES", fmt.Sprintf("%d", stats.Frames)})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
