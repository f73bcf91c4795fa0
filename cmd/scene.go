package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/fabricio-araujo94/solid/asset/loader"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/fabricio-araujo94/solid/viewer"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display model information.
func ShowModelInfo(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return errors.New("missing model file argument")
	}
	modelURL := ctx.Args().First()

	registry := loader.DefaultRegistry()
	l, err := registry.Resolve(modelURL)
	if err != nil {
		return err
	}

	loadCtx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	geom, err := l.Load(loadCtx, modelURL)
	if err != nil {
		return err
	}

	box := geom.ComputeBoundingBox()
	aspect := float32(cfg.Viewer.Width) / float32(cfg.Viewer.Height)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})
	table.AppendBulk([][]string{
		{"Format", l.Name()},
		{"Triangles", fmt.Sprintf("%d", geom.TriangleCount())},
		{"Vertex normals", fmt.Sprintf("%t", geom.HasNormals())},
		{"Bounds min", formatVec(box.Min)},
		{"Bounds max", formatVec(box.Max)},
		{"Size", formatVec(box.Size())},
		{"Framing distance", fmt.Sprintf("%.3f", scene.FitDistance(box.MaxDim(), viewer.CameraFOV, aspect))},
	})
	table.Render()

	logger.Noticef("model information for %s\n%s", modelURL, buf.String())
	return nil
}

func formatVec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
