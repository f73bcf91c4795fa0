package host

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/asset/loader"
	"github.com/fabricio-araujo94/solid/renderer"
	"github.com/fabricio-araujo94/solid/viewer"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Write a binary STL tetrahedron to dir/name and return its path.
func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	geom, err := geometry.New([]float32{
		0, 0, 0, 10, 0, 0, 0, 10, 0,
		0, 0, 0, 0, 10, 0, 0, 0, 10,
		0, 0, 0, 0, 0, 10, 10, 0, 0,
		10, 0, 0, 0, 10, 0, 0, 0, 10,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, loader.WriteBinarySTL(&buf, geom))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func waitLoad(t *testing.T, load *viewer.Load) error {
	t.Helper()
	require.NotNil(t, load)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return load.Wait(ctx)
}

func TestBindingForwardsChanges(t *testing.T) {
	model := writeModel(t, t.TempDir(), "part.stl")

	props := DefaultProps()
	props.ModelURL = model
	b := NewBinding(viewer.New(viewer.Options{FrameRate: 30}), props)
	defer b.Unmount()

	load, err := b.Mount(renderer.NewImageSurface(32, 32))
	require.NoError(t, err)
	require.NoError(t, waitLoad(t, load))
	assert.False(t, b.Loading())

	v := b.Viewer()
	framed := v.Status().CameraPosition

	// Unchanged values do not reach the viewer.
	load, err = b.SetModelURL(model)
	require.NoError(t, err)
	assert.Nil(t, load)
	require.NoError(t, b.SetZoom(50))
	assert.Equal(t, framed, v.Status().CameraPosition)

	require.NoError(t, b.SetZoom(100))
	assert.InDelta(t, 50, v.Status().CameraPosition[2], 1e-5)

	require.NoError(t, b.SetRotation(90, 0))
	assert.InDelta(t, math.Pi/2, v.Status().MeshRotation[0], 1e-6)

	// A color change reloads the model.
	load, err = b.SetColor(0xff0000)
	require.NoError(t, err)
	require.NoError(t, waitLoad(t, load))
	assert.Equal(t, model, v.Status().ModelURL)

	load, err = b.SetModelURL("")
	require.NoError(t, err)
	assert.Nil(t, load)
	assert.Empty(t, v.Status().ModelURL)

	load, err = b.SetColor(0x00ff00)
	require.NoError(t, err)
	assert.Nil(t, load)
	assert.Equal(t, "", b.Props().ModelURL)

	b.Unmount()
	assert.Equal(t, viewer.Disposed, v.State())
}

func TestMountWithoutModel(t *testing.T) {
	b := NewBinding(viewer.New(viewer.Options{}), DefaultProps())
	defer b.Unmount()

	load, err := b.Mount(renderer.NewImageSurface(16, 16))
	require.NoError(t, err)
	assert.Nil(t, load)

	load, err = b.Reload()
	require.NoError(t, err)
	assert.Nil(t, load)
}

func TestBindingAppliesConfiguredView(t *testing.T) {
	model := writeModel(t, t.TempDir(), "part.stl")

	props := DefaultProps()
	props.Zoom = 100
	props.RotationX = 90
	b := NewBinding(viewer.New(viewer.Options{FrameRate: 30}), props)
	defer b.Unmount()

	load, err := b.Mount(renderer.NewImageSurface(32, 32))
	require.NoError(t, err)
	assert.Nil(t, load)
	v := b.Viewer()
	assert.InDelta(t, 50, v.Status().CameraPosition[2], 1e-5)

	load, err = b.SetModelURL(model)
	require.NoError(t, err)
	require.NoError(t, waitLoad(t, load))
	assert.InDelta(t, -math.Pi/2, v.Status().MeshRotation[0], 1e-6)

	require.NoError(t, b.ApplyRotation())
	assert.InDelta(t, math.Pi/2, v.Status().MeshRotation[0], 1e-6)
}

type wsClient struct {
	t      *testing.T
	conn   *websocket.Conn
	frames int
}

func dial(t *testing.T, srv *httptest.Server) *wsClient {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + ViewPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return &wsClient{t: t, conn: conn}
}

func (c *wsClient) send(req Request) {
	require.NoError(c.t, c.conn.WriteJSON(req))
}

// Read messages until a status message matches. Frames are counted and
// checked along the way.
func (c *wsClient) waitStatus(match func(StatusMessage) bool) StatusMessage {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		kind, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err)

		if kind == websocket.BinaryMessage {
			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(c.t, err)
			assert.Equal(c.t, 32, img.Bounds().Dx())
			assert.Equal(c.t, 24, img.Bounds().Dy())
			c.frames++
			continue
		}

		var msg StatusMessage
		require.NoError(c.t, json.Unmarshal(data, &msg))
		require.Equal(c.t, "status", msg.Type)
		if match(msg) {
			return msg
		}
	}
}

// Read messages until at least n frames were received in total.
func (c *wsClient) waitFrames(n int) {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for c.frames < n {
		require.NoError(c.t, c.conn.SetReadDeadline(deadline))
		kind, data, err := c.conn.ReadMessage()
		require.NoError(c.t, err)
		if kind == websocket.BinaryMessage {
			_, err = png.Decode(bytes.NewReader(data))
			require.NoError(c.t, err)
			c.frames++
		}
	}
}

func TestServerSession(t *testing.T) {
	model := writeModel(t, t.TempDir(), "part.stl")

	server := NewServer(ServerOptions{
		Width:  32,
		Height: 24,
		Viewer: viewer.Options{FrameRate: 30},
	})
	srv := httptest.NewServer(server)
	defer srv.Close()
	defer server.Close()

	client := dial(t, srv)
	defer client.conn.Close()

	client.send(Request{Op: OpLoad, URL: model, Color: "#ff0000"})
	msg := client.waitStatus(func(m StatusMessage) bool {
		return !m.Loading && m.Model == model
	})
	assert.Empty(t, msg.Error)

	client.send(Request{Op: OpZoom, Zoom: 80})
	client.send(Request{Op: OpRotate, X: 45, Y: 10})
	client.send(Request{Op: OpOrbit, DX: 0.1})

	client.send(Request{Op: OpLoad, URL: "part.ply"})
	msg = client.waitStatus(func(m StatusMessage) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, "no loader for format")
	assert.False(t, msg.Loading)
	assert.Equal(t, model, msg.Model)

	client.send(Request{Op: OpLoad, URL: model, Color: "purple"})
	msg = client.waitStatus(func(m StatusMessage) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, "invalid color")

	require.NoError(t, client.conn.WriteMessage(websocket.TextMessage, []byte("{")))
	msg = client.waitStatus(func(m StatusMessage) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, "malformed request")

	client.send(Request{Op: "explode"})
	msg = client.waitStatus(func(m StatusMessage) bool { return m.Error != "" })
	assert.Contains(t, msg.Error, `unknown op "explode"`)

	client.send(Request{Op: OpClear})
	client.waitStatus(func(m StatusMessage) bool {
		return m.Model == "" && m.Error == ""
	})

	// Frames keep flowing while the session is open.
	seen := client.frames
	client.waitFrames(seen + 2)

	require.NoError(t, client.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestServerRefusesSessionsAfterClose(t *testing.T) {
	server := NewServer(ServerOptions{Width: 16, Height: 16})
	srv := httptest.NewServer(server)
	defer srv.Close()
	server.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + ViewPath
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t, dir, "part.stl")

	w, err := NewWatcher(model, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, model, w.Path())

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changed <- struct{}{} })
	}()

	// Unrelated files are ignored.
	writeModel(t, dir, "other.stl")
	writeModel(t, dir, "part.stl")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	select {
	case err = <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
