package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fabricio-araujo94/solid/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, scene.DefaultMeshColor, cfg.MeshColor())
	assert.Equal(t, 60, cfg.ViewerOptions().FrameRate)
	assert.Nil(t, cfg.Viewer.Zoom)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "viewer.toml", `
[viewer]
width = 640
height = 480
color = "#ff0000"
zoom = 75.0

[log]
level = "debug"

[log.modules]
viewer = "warning"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Viewer.Width)
	assert.Equal(t, 480, cfg.Viewer.Height)
	require.NotNil(t, cfg.Viewer.Zoom)
	assert.Equal(t, float32(75), *cfg.Viewer.Zoom)
	assert.Equal(t, scene.Color(0xff0000), cfg.MeshColor())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, map[string]string{"viewer": "warning"}, cfg.Log.Modules)

	// Untouched sections keep their defaults
	assert.Equal(t, Defaults().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, Defaults().Viewer.FrameRate, cfg.Viewer.FrameRate)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "viewer.yaml", `
viewer:
  frame_rate: 30
  rotation_x: 45
server:
  addr: ":9000"
  write_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Viewer.FrameRate)
	assert.Equal(t, float32(45), cfg.Viewer.RotationX)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.WriteTimeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "viewer.ini", "width=1"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(writeFile(t, "bad.toml", "[viewer]\nwidth = 0\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "unknown.yaml", "viewer:\n  depth: 3\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "level.yaml", "log:\n  modules:\n    viewer: loud\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "zoom.yaml", "viewer:\n  zoom: 120\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "color.toml", "[viewer]\ncolor = \"green\"\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
