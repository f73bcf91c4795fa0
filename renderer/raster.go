package renderer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fabricio-araujo94/solid/log"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"
)

// Points closer than this to the camera plane are not projected.
const minClipW = 1e-4

// The render-side copy of a mesh.
type meshBuffers struct {
	positions []float32
	normals   []float32

	material scene.PhongMaterial
	texture  []byte
}

// A projected, shaded triangle waiting to be rasterized.
type rasterTriangle struct {
	screen [3]mgl32.Vec2
	depth  float32
	r, g, b float64
}

// The light rig collected from a scene before shading.
type lightRig struct {
	ambient     mgl32.Vec3
	directional []*scene.DirectionalLight
}

// RasterContext is a software render context drawing through a gg canvas.
// Triangles are depth sorted and painted back to front.
//
// RasterContext is not safe for concurrent use.
type RasterContext struct {
	logger log.Logger
	opts   Options

	dc      *gg.Context
	canvas  *Canvas
	buffers map[*scene.Mesh]*meshBuffers

	stats    FrameStats
	released bool
}

// Create a raster context with an opts.FrameW x opts.FrameH canvas.
func NewRasterContext(opts Options) (*RasterContext, error) {
	if opts.FrameW <= 0 || opts.FrameH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, opts.FrameW, opts.FrameH)
	}
	opts = opts.withDefaults()

	return &RasterContext{
		logger:  log.New("raster context"),
		opts:    opts,
		dc:      gg.NewContext(opts.FrameW, opts.FrameH),
		canvas:  NewCanvas(opts.FrameW, opts.FrameH),
		buffers: make(map[*scene.Mesh]*meshBuffers),
	}, nil
}

func (r *RasterContext) Canvas() *Canvas {
	return r.canvas
}

func (r *RasterContext) Upload(mesh *scene.Mesh) error {
	if r.released {
		return ErrContextReleased
	}
	if mesh == nil || mesh.IsDisposed() {
		return ErrMeshDisposed
	}
	if _, exists := r.buffers[mesh]; exists {
		return nil
	}

	buf := &meshBuffers{
		positions: append([]float32(nil), mesh.Geometry.Positions...),
		normals:   append([]float32(nil), mesh.Geometry.Normals...),
	}
	if mesh.Material != nil {
		buf.material = *mesh.Material
		if tex := mesh.Material.Map; tex != nil {
			buf.texture = append([]byte(nil), tex.Data...)
		}
	}
	r.buffers[mesh] = buf
	r.logger.Debugf("uploaded %q (%d triangles)", mesh.Name, mesh.Geometry.TriangleCount())
	return nil
}

func (r *RasterContext) Release(mesh *scene.Mesh) {
	if _, exists := r.buffers[mesh]; !exists {
		return
	}
	delete(r.buffers, mesh)
	r.logger.Debugf("released buffers for %q", mesh.Name)
}

func (r *RasterContext) ForceRelease() {
	if r.released {
		return
	}
	r.released = true
	for mesh := range r.buffers {
		delete(r.buffers, mesh)
	}
	if err := r.dc.Close(); err != nil {
		r.logger.Warningf("closing drawing context: %s", err)
	}
	r.logger.Debug("context released")
}

func (r *RasterContext) Stats() FrameStats {
	stats := r.stats
	for _, buf := range r.buffers {
		stats.Buffers.Geometries++
		stats.Buffers.Materials++
		if buf.texture != nil {
			stats.Buffers.Textures++
		}
	}
	return stats
}

func (r *RasterContext) Render(sc *scene.Scene, camera *scene.Camera) error {
	if r.released {
		return ErrContextReleased
	}
	if sc == nil {
		return ErrSceneNotDefined
	}
	if camera == nil {
		return ErrCameraNotDefined
	}

	start := time.Now()
	r.dc.ClearWithColor(toRGBA(sc.Background))

	viewProj := camera.ViewProjMat()
	lights := collectLights(sc)
	var triangles []rasterTriangle
	for _, node := range sc.Nodes() {
		switch n := node.(type) {
		case *scene.Grid:
			if err := r.drawGrid(n, viewProj); err != nil {
				return err
			}
		case *scene.Mesh:
			if n.IsDisposed() {
				continue
			}
			if err := r.Upload(n); err != nil {
				return err
			}
			triangles = r.appendMeshTriangles(triangles, n, camera, viewProj, lights)
		}
	}

	// Paint back to front.
	sort.SliceStable(triangles, func(i, j int) bool {
		return triangles[i].depth > triangles[j].depth
	})
	for _, tri := range triangles {
		r.dc.SetRGB(tri.r, tri.g, tri.b)
		r.dc.MoveTo(float64(tri.screen[0][0]), float64(tri.screen[0][1]))
		r.dc.LineTo(float64(tri.screen[1][0]), float64(tri.screen[1][1]))
		r.dc.LineTo(float64(tri.screen[2][0]), float64(tri.screen[2][1]))
		r.dc.ClosePath()
		if err := r.dc.Fill(); err != nil {
			return fmt.Errorf("renderer: fill failed: %w", err)
		}
	}

	r.canvas.present(r.dc.Image())
	r.stats.Frames++
	r.stats.RenderTime = time.Since(start)
	r.stats.Triangles = len(triangles)
	return nil
}

func (r *RasterContext) drawGrid(grid *scene.Grid, viewProj mgl32.Mat4) error {
	mvp := viewProj.Mul4(grid.ModelMatrix())
	r.dc.SetLineWidth(r.opts.LineWidth)
	for index, line := range grid.Lines() {
		p0, ok0 := r.project(mvp, line[0])
		p1, ok1 := r.project(mvp, line[1])
		if !ok0 || !ok1 {
			continue
		}

		color := grid.LineColor
		if index < 2 {
			color = grid.CenterLine
		}
		cr, cg, cb := color.RGB()
		r.dc.SetRGB(cr, cg, cb)
		r.dc.DrawLine(float64(p0[0]), float64(p0[1]), float64(p1[0]), float64(p1[1]))
		if err := r.dc.Stroke(); err != nil {
			return fmt.Errorf("renderer: stroke failed: %w", err)
		}
	}
	return nil
}

func (r *RasterContext) appendMeshTriangles(out []rasterTriangle, mesh *scene.Mesh, camera *scene.Camera, viewProj mgl32.Mat4, lights lightRig) []rasterTriangle {
	buf := r.buffers[mesh]
	model := mesh.ModelMatrix()
	mvp := viewProj.Mul4(model)
	normalMat := model.Mat3().Inv().Transpose()
	hasNormals := len(buf.normals) == len(buf.positions)

	for i := 0; i+9 <= len(buf.positions); i += 9 {
		var (
			world  [3]mgl32.Vec3
			tri    rasterTriangle
			depth  float32
			inView = true
		)
		for v := 0; v < 3; v++ {
			local := mgl32.Vec3{buf.positions[i+v*3], buf.positions[i+v*3+1], buf.positions[i+v*3+2]}
			world[v] = mgl32.TransformCoordinate(local, model)

			clip := mvp.Mul4x1(local.Vec4(1))
			if clip[3] <= minClipW {
				inView = false
				break
			}
			tri.screen[v] = r.toScreen(clip)
			depth += clip[3]
		}
		if !inView {
			continue
		}
		tri.depth = depth / 3

		var normal mgl32.Vec3
		if hasNormals {
			for v := 0; v < 3; v++ {
				normal = normal.Add(mgl32.Vec3{buf.normals[i+v*3], buf.normals[i+v*3+1], buf.normals[i+v*3+2]})
			}
			normal = normalMat.Mul3x1(normal)
		} else {
			normal = world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
		}

		centroid := world[0].Add(world[1]).Add(world[2]).Mul(1.0 / 3)
		toEye := camera.Position.Sub(centroid)
		if normal.Len() > 0 {
			normal = normal.Normalize()
		}
		if toEye.Len() > 0 {
			toEye = toEye.Normalize()
			if normal.Dot(toEye) < 0 {
				if !buf.material.DoubleSided {
					continue
				}
				normal = normal.Mul(-1)
			}
		}

		tri.r, tri.g, tri.b = r.shade(buf.material, normal, toEye, lights)
		out = append(out, tri)
	}
	return out
}

// Blinn-Phong shading with a single ambient term.
func (r *RasterContext) shade(mat scene.PhongMaterial, normal, toEye mgl32.Vec3, lights lightRig) (float64, float64, float64) {
	br, bg, bb := mat.Color.RGB()
	base := mgl32.Vec3{float32(br), float32(bg), float32(bb)}
	sr, sg, sb := mat.Specular.RGB()
	specColor := mgl32.Vec3{float32(sr), float32(sg), float32(sb)}

	diffuse := lights.ambient
	var specular mgl32.Vec3
	if normal.Len() > 0 {
		for _, light := range lights.directional {
			lr, lg, lb := light.Color.RGB()
			radiance := mgl32.Vec3{float32(lr), float32(lg), float32(lb)}.Mul(light.Intensity)

			dir := light.Direction()
			nDotL := normal.Dot(dir)
			if nDotL <= 0 {
				continue
			}
			diffuse = diffuse.Add(radiance.Mul(nDotL))

			if toEye.Len() > 0 {
				half := dir.Add(toEye)
				if half.Len() > 0 {
					nDotH := float64(normal.Dot(half.Normalize()))
					if nDotH > 0 {
						spec := float32(math.Pow(nDotH, float64(mat.Shininess)))
						specular = specular.Add(radiance.Mul(spec))
					}
				}
			}
		}
	}

	exposure := r.opts.Exposure
	out := mgl32.Vec3{
		base[0]*diffuse[0] + specColor[0]*specular[0],
		base[1]*diffuse[1] + specColor[1]*specular[1],
		base[2]*diffuse[2] + specColor[2]*specular[2],
	}.Mul(exposure)
	return saturate(out[0]), saturate(out[1]), saturate(out[2])
}

// Project a local point to screen space. Returns false for points behind the
// camera.
func (r *RasterContext) project(mvp mgl32.Mat4, p mgl32.Vec3) (mgl32.Vec2, bool) {
	clip := mvp.Mul4x1(p.Vec4(1))
	if clip[3] <= minClipW {
		return mgl32.Vec2{}, false
	}
	return r.toScreen(clip), true
}

func (r *RasterContext) toScreen(clip mgl32.Vec4) mgl32.Vec2 {
	invW := 1 / clip[3]
	return mgl32.Vec2{
		(clip[0]*invW + 1) * 0.5 * float32(r.opts.FrameW),
		(1 - clip[1]*invW) * 0.5 * float32(r.opts.FrameH),
	}
}

func collectLights(sc *scene.Scene) lightRig {
	var rig lightRig
	for _, node := range sc.Nodes() {
		switch light := node.(type) {
		case *scene.AmbientLight:
			lr, lg, lb := light.Color.RGB()
			rig.ambient = rig.ambient.Add(mgl32.Vec3{float32(lr), float32(lg), float32(lb)}.Mul(light.Intensity))
		case *scene.DirectionalLight:
			rig.directional = append(rig.directional, light)
		}
	}
	return rig
}

func toRGBA(c scene.Color) gg.RGBA {
	r, g, b := c.RGB()
	return gg.RGB(r, g, b)
}

func saturate(v float32) float64 {
	return math.Max(0, math.Min(1, float64(v)))
}
