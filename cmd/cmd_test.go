package cmd

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/asset/loader"
	"github.com/fabricio-araujo94/solid/config"
	"github.com/fabricio-araujo94/solid/host"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
)

func runApp(args ...string) error {
	app := cli.NewApp()
	app.Name = "solid"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "v"},
		cli.BoolFlag{Name: "vv"},
		cli.StringFlag{Name: "config, c"},
	}
	app.Commands = []cli.Command{
		{Name: "render", Flags: ViewFlags, Action: RenderModel},
		{Name: "info", Action: ShowModelInfo},
		{Name: "formats", Action: ListFormats},
	}
	return app.Run(append([]string{"solid"}, args...))
}

func writeCube(t *testing.T) string {
	t.Helper()
	v := [8][3]float32{
		{-5, -5, -5}, {5, -5, -5}, {5, 5, -5}, {-5, 5, -5},
		{-5, -5, 5}, {5, -5, 5}, {5, 5, 5}, {-5, 5, 5},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, {4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4}, {3, 6, 2}, {3, 7, 6},
		{0, 4, 7}, {0, 7, 3}, {1, 2, 6}, {1, 6, 5},
	}
	var positions []float32
	for _, f := range faces {
		for _, idx := range f {
			positions = append(positions, v[idx][0], v[idx][1], v[idx][2])
		}
	}
	geom, err := geometry.New(positions)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, loader.WriteBinarySTL(&buf, geom))
	path := filepath.Join(t.TempDir(), "cube.stl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func decodePNG(t *testing.T, path string) (width, height int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRenderModel(t *testing.T) {
	model := writeCube(t)
	out := filepath.Join(t.TempDir(), "frame.png")

	require.NoError(t, runApp("render", "--width", "64", "--height", "48", "--rot-y", "30", "--out", out, model))
	w, h := decodePNG(t, out)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)

	thumb := filepath.Join(t.TempDir(), "thumb.png")
	require.NoError(t, runApp("render", "--width", "64", "--height", "48", "--thumb", "32", "--zoom", "80", "--out", thumb, model))
	w, h = decodePNG(t, thumb)
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
}

func TestRenderModelErrors(t *testing.T) {
	assert.Error(t, runApp("render"))
	assert.Error(t, runApp("render", "--color", "teal", writeCube(t)))
	assert.Error(t, runApp("render", "--width", "0", writeCube(t)))

	out := filepath.Join(t.TempDir(), "frame.png")
	err := runApp("render", "--out", out, filepath.Join(t.TempDir(), "part.ply"))
	assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInfoAndFormats(t *testing.T) {
	require.NoError(t, runApp("info", writeCube(t)))
	assert.Error(t, runApp("info"))
	assert.ErrorIs(t, runApp("info", "model.3mf"), loader.ErrUnsupportedFormat)

	require.NoError(t, runApp("formats"))
}

func TestConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "solid.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[viewer]\nwidth = 40\nheight = 30\n\n[log]\nlevel = \"warning\"\n"), 0o644))

	out := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, runApp("--config", cfgPath, "render", "--out", out, writeCube(t)))
	w, h := decodePNG(t, out)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)

	assert.Error(t, runApp("--config", filepath.Join(t.TempDir(), "missing.toml"), "formats"))
}

func TestViewProps(t *testing.T) {
	cfg := config.Defaults()
	assert.Equal(t, host.DefaultProps(), viewProps(cfg))

	zoom := float32(80)
	cfg.Viewer.Zoom = &zoom
	cfg.Viewer.Color = "#ff0000"
	cfg.Viewer.RotationX = 30
	props := viewProps(cfg)
	assert.Equal(t, 80.0, props.Zoom)
	assert.Equal(t, scene.Color(0xff0000), props.Color)
	assert.Equal(t, 30.0, props.RotationX)
	assert.Empty(t, props.ModelURL)
}
