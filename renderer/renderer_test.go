package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A quad facing +Z covering [-size, size] on X and Y.
func quadMesh(t *testing.T, size float32, c scene.Color) *scene.Mesh {
	geom, err := geometry.New([]float32{
		-size, -size, 0, size, -size, 0, size, size, 0,
		-size, -size, 0, size, size, 0, -size, size, 0,
	})
	require.NoError(t, err)
	return scene.NewMesh(geom, scene.NewModelMaterial(c))
}

func testScene(t *testing.T, meshes ...*scene.Mesh) (*scene.Scene, *scene.Camera) {
	sc := scene.NewScene(scene.DefaultBackground)
	require.NoError(t, sc.Add(scene.NewAmbientLight(0x404040, 2)))
	require.NoError(t, sc.Add(scene.NewDirectionalLight("key light", 0xffffff, 2, mgl32.Vec3{50, 50, 50})))
	for _, m := range meshes {
		require.NoError(t, sc.Add(m))
	}

	cam := scene.NewCamera(45, 1, 0.1, 1000)
	cam.Position = mgl32.Vec3{0, 0, 50}
	cam.LookAt(mgl32.Vec3{})
	return sc, cam
}

func TestNewRasterContextValidatesSize(t *testing.T) {
	_, err := NewRasterContext(Options{FrameW: 0, FrameH: 10})
	assert.ErrorIs(t, err, ErrInvalidFrameSize)
}

func TestRenderBackgroundAndMesh(t *testing.T) {
	ctx, err := NewRasterContext(Options{FrameW: 64, FrameH: 64})
	require.NoError(t, err)
	defer ctx.ForceRelease()

	mesh := quadMesh(t, 5, 0xff0000)
	sc, cam := testScene(t, mesh)
	require.NoError(t, ctx.Render(sc, cam))

	frame, seq := ctx.Canvas().Snapshot()
	require.NotNil(t, frame)
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, image.Rect(0, 0, 64, 64), frame.Bounds())

	// Corners show the background, the center shows the red quad.
	corner := frame.RGBAAt(0, 0)
	assert.Equal(t, color.RGBA{0xf0, 0xf0, 0xf0, 0xff}, corner)

	center := frame.RGBAAt(32, 32)
	assert.Greater(t, center.R, center.G)
	assert.Greater(t, center.R, center.B)

	stats := ctx.Stats()
	assert.Equal(t, uint64(1), stats.Frames)
	assert.Equal(t, 2, stats.Triangles)
	assert.Equal(t, LiveBuffers{Geometries: 1, Materials: 1}, stats.Buffers)
}

func TestBackFacesCulledUnlessDoubleSided(t *testing.T) {
	ctx, err := NewRasterContext(Options{FrameW: 32, FrameH: 32})
	require.NoError(t, err)
	defer ctx.ForceRelease()

	mesh := quadMesh(t, 5, 0xff0000)
	mesh.Material.DoubleSided = false
	mesh.Rotation[1] = 3.14159
	sc, cam := testScene(t, mesh)

	require.NoError(t, ctx.Render(sc, cam))
	assert.Equal(t, 0, ctx.Stats().Triangles)

	ctx.Release(mesh)
	mesh.Material.DoubleSided = true
	require.NoError(t, ctx.Render(sc, cam))
	assert.Equal(t, 2, ctx.Stats().Triangles)
}

func TestUploadAndRelease(t *testing.T) {
	ctx, err := NewRasterContext(Options{FrameW: 8, FrameH: 8})
	require.NoError(t, err)

	mesh := quadMesh(t, 1, scene.DefaultMeshColor)
	mesh.Material.Map = &scene.Texture{Name: "albedo", Width: 1, Height: 1, Data: []byte{1, 2, 3, 4}}

	require.NoError(t, ctx.Upload(mesh))
	require.NoError(t, ctx.Upload(mesh))
	assert.Equal(t, LiveBuffers{Geometries: 1, Materials: 1, Textures: 1}, ctx.Stats().Buffers)

	ctx.Release(mesh)
	ctx.Release(mesh)
	assert.Equal(t, 0, ctx.Stats().Buffers.Total())

	mesh.Dispose()
	assert.ErrorIs(t, ctx.Upload(mesh), ErrMeshDisposed)
}

func TestForceRelease(t *testing.T) {
	ctx, err := NewRasterContext(Options{FrameW: 8, FrameH: 8})
	require.NoError(t, err)

	mesh := quadMesh(t, 1, scene.DefaultMeshColor)
	require.NoError(t, ctx.Upload(mesh))

	ctx.ForceRelease()
	ctx.ForceRelease()
	assert.Equal(t, 0, ctx.Stats().Buffers.Total())

	sc, cam := testScene(t)
	assert.ErrorIs(t, ctx.Render(sc, cam), ErrContextReleased)
	assert.ErrorIs(t, ctx.Upload(mesh), ErrContextReleased)
}

func TestRenderRequiresSceneAndCamera(t *testing.T) {
	ctx, err := NewRasterContext(Options{FrameW: 8, FrameH: 8})
	require.NoError(t, err)
	defer ctx.ForceRelease()

	sc, cam := testScene(t)
	assert.ErrorIs(t, ctx.Render(nil, cam), ErrSceneNotDefined)
	assert.ErrorIs(t, ctx.Render(sc, nil), ErrCameraNotDefined)
}

func TestGridIsDrawn(t *testing.T) {
	ctx, err := NewRasterContext(Options{FrameW: 64, FrameH: 64})
	require.NoError(t, err)
	defer ctx.ForceRelease()

	sc, cam := testScene(t)
	require.NoError(t, sc.Add(scene.NewGrid(200, 20)))
	cam.Position = mgl32.Vec3{0, 50, 100}
	cam.LookAt(mgl32.Vec3{})
	require.NoError(t, ctx.Render(sc, cam))

	frame, _ := ctx.Canvas().Snapshot()
	background := color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
	differs := 0
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if frame.RGBAAt(x, y) != background {
				differs++
			}
		}
	}
	assert.NotZero(t, differs, "expected grid lines to be visible")
}

func TestCanvasListeners(t *testing.T) {
	canvas := NewCanvas(2, 2)
	var received []*image.RGBA
	cancel := canvas.OnPresent(func(img *image.RGBA) {
		received = append(received, img)
	})

	first := image.NewRGBA(image.Rect(0, 0, 2, 2))
	canvas.present(first)
	cancel()
	canvas.present(image.NewGray(image.Rect(0, 0, 2, 2)))

	require.Len(t, received, 1)
	assert.Same(t, first, received[0])

	frame, seq := canvas.Snapshot()
	assert.Equal(t, uint64(2), seq)
	assert.NotSame(t, first, frame)
	assert.Equal(t, image.Rect(0, 0, 2, 2), frame.Bounds())
}

func TestImageSurface(t *testing.T) {
	surface := NewImageSurface(10, 20)
	w, h := surface.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 20, h)

	canvas := NewCanvas(10, 20)
	require.NoError(t, surface.Attach(canvas))
	assert.ErrorIs(t, surface.Attach(NewCanvas(1, 1)), ErrAlreadyAttached)
	assert.Nil(t, surface.Frame())

	surface.Detach(NewCanvas(1, 1))
	surface.Detach(canvas)
	surface.Detach(canvas)

	attached, detached := surface.Attachments()
	assert.Equal(t, 1, attached)
	assert.Equal(t, 1, detached)
	assert.Nil(t, surface.Canvas())
}

func TestThumbnail(t *testing.T) {
	specs := []struct {
		w, h, maxDim   int
		expW, expH int
	}{
		{400, 300, 100, 100, 75},
		{300, 400, 100, 75, 100},
		{50, 40, 100, 50, 40},
		{400, 300, 0, 400, 300},
	}

	for index, spec := range specs {
		src := image.NewRGBA(image.Rect(0, 0, spec.w, spec.h))
		thumb := Thumbnail(src, spec.maxDim)
		assert.Equalf(t, image.Rect(0, 0, spec.expW, spec.expH), thumb.Bounds(), "[spec %d]", index)
	}
}
