// Package viewer manages the lifecycle of a single model view: it owns the
// render context, scene, camera and render loop, loads models through a
// loader registry and keeps the camera framed on the loaded model.
package viewer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/fabricio-araujo94/solid/asset/geometry"
	"github.com/fabricio-araujo94/solid/asset/loader"
	"github.com/fabricio-araujo94/solid/log"
	"github.com/fabricio-araujo94/solid/renderer"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/go-gl/mathgl/mgl32"
)

const DefaultFrameRate = 60

// Vertical field of view of the viewer camera in degrees.
const CameraFOV = 45

// Camera settings applied on Init.
const (
	cameraNear = 0.1
	cameraFar  = 1000

	// UpdateZoom places the camera at z = zoomOrigin - zoom.
	zoomOrigin = 150
)

type State int

const (
	Uninitialized State = iota
	Idle
	Loading
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Disposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Options struct {
	// Render loop frequency in frames per second.
	FrameRate int

	// The registry used to resolve model URLs. Defaults to
	// loader.DefaultRegistry().
	Registry *loader.Registry

	// Render context factory. Defaults to the software raster context.
	NewContext func(renderer.Options) (renderer.Context, error)
}

func newRasterContext(opts renderer.Options) (renderer.Context, error) {
	return renderer.NewRasterContext(opts)
}

// Status is a point in time view of a viewer.
type Status struct {
	State State

	// The URL of the model currently shown; empty when the scene has no model.
	ModelURL  string
	Triangles int

	MeshRotation   mgl32.Vec3
	CameraPosition mgl32.Vec3
	CameraTarget   mgl32.Vec3
}

// Viewer renders one model at a time onto a surface. All methods are safe
// for concurrent use.
type Viewer struct {
	mu     sync.Mutex
	logger log.Logger
	opts   Options

	state State

	// Incremented by every load request, clear and dispose. A load result
	// is applied only if its token is still current.
	token uint64

	surface renderer.Surface
	ctx     renderer.Context
	scene   *scene.Scene
	camera  *scene.Camera
	orbit   *scene.OrbitControls

	mesh     *scene.Mesh
	modelURL string

	// Cancelled on dispose; stops the render loop and in-flight fetches.
	lifetime context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// Create a viewer. It must be initialized with Init before use.
func New(opts Options) *Viewer {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.Registry == nil {
		opts.Registry = loader.DefaultRegistry()
	}
	if opts.NewContext == nil {
		opts.NewContext = newRasterContext
	}

	lifetime, cancel := context.WithCancel(context.Background())
	return &Viewer{
		logger:   log.New("viewer"),
		opts:     opts,
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// Init creates the render context, scene and camera, attaches the canvas to
// surface and starts the render loop.
func (v *Viewer) Init(surface renderer.Surface) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case Uninitialized:
	case Disposed:
		return ErrDisposed
	default:
		return ErrAlreadyInitialized
	}
	if surface == nil {
		return ErrNoSurface
	}

	width, height := surface.Size()
	if width <= 0 || height <= 0 {
		width, height = renderer.DefaultFrameW, renderer.DefaultFrameH
	}

	ctx, err := v.opts.NewContext(renderer.Options{FrameW: width, FrameH: height})
	if err != nil {
		return fmt.Errorf("viewer: could not create render context: %w", err)
	}
	if err = surface.Attach(ctx.Canvas()); err != nil {
		ctx.ForceRelease()
		return fmt.Errorf("viewer: could not attach canvas: %w", err)
	}

	sc := scene.NewScene(scene.DefaultBackground)
	for _, node := range []scene.Node{
		scene.NewGrid(200, 20),
		scene.NewAmbientLight(0x404040, 2),
		scene.NewDirectionalLight("key light", 0xffffff, 2, mgl32.Vec3{50, 50, 50}),
		scene.NewDirectionalLight("fill light", 0xffffff, 1, mgl32.Vec3{-50, 20, -50}),
	} {
		if err = sc.Add(node); err != nil {
			ctx.ForceRelease()
			surface.Detach(ctx.Canvas())
			return err
		}
	}

	v.surface = surface
	v.ctx = ctx
	v.scene = sc
	v.camera = scene.NewCamera(CameraFOV, float32(width)/float32(height), cameraNear, cameraFar)
	v.orbit = scene.NewOrbitControls(v.camera, v.opts.FrameRate)
	v.state = Idle

	v.loopDone = make(chan struct{})
	go v.renderLoop(time.Second/time.Duration(v.opts.FrameRate), v.loopDone)

	v.logger.Infof("initialized %dx%d viewer rendering at %d fps", width, height, v.opts.FrameRate)
	return nil
}

// LoadModel starts loading the model at url. Any model shown so far is
// removed immediately and any load still in flight is superseded. The
// returned Load completes asynchronously.
//
// URLs that no registered loader supports do not touch the scene; the
// returned Load fails with an error matching loader.ErrUnsupportedFormat. A
// load still in flight is superseded by such a request all the same.
func (v *Viewer) LoadModel(url string, color scene.Color) (*Load, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkInitialized(); err != nil {
		return nil, err
	}
	if url == "" {
		return nil, ErrEmptyURL
	}

	if _, err := v.opts.Registry.Resolve(url); err != nil {
		if v.state == Loading {
			v.token++
			v.state = Idle
		}
		load := newLoad(url, color, v.token)
		v.logger.Warningf("rejected %q: %s", url, err)
		go load.finish(&LoadError{URL: url, Err: err})
		return load, nil
	}

	v.token++
	load := newLoad(url, color, v.token)
	v.removeMesh()
	v.state = Loading

	future := v.opts.Registry.LoadAsync(v.lifetime, url)
	go func() {
		<-future.Done()
		geom, _, err := future.Result()
		v.completeLoad(load, geom, err)
	}()

	v.logger.Infof("loading %q", url)
	return load, nil
}

// Apply the outcome of a load request if it is still current.
func (v *Viewer) completeLoad(load *Load, geom *geometry.Geometry, loadErr error) {
	v.mu.Lock()
	result := v.applyLoad(load, geom, loadErr)
	v.mu.Unlock()

	load.finish(result)
}

func (v *Viewer) applyLoad(load *Load, geom *geometry.Geometry, loadErr error) error {
	if v.state == Disposed {
		v.logger.Debugf("discarding result for %q: viewer disposed", load.URL)
		return ErrDisposed
	}
	if load.token != v.token {
		v.logger.Debugf("discarding stale result for %q", load.URL)
		return ErrSuperseded
	}

	v.state = Idle
	if loadErr != nil {
		v.logger.Warningf("could not load %q: %s", load.URL, loadErr)
		return &LoadError{URL: load.URL, Err: loadErr}
	}

	if !geom.HasNormals() {
		geom.ComputeVertexNormals()
	}
	geom.Center()

	mesh := scene.NewMesh(geom, scene.NewModelMaterial(load.Color))
	mesh.Name = load.URL
	mesh.Rotation[0] = -math.Pi / 2

	if err := v.ctx.Upload(mesh); err != nil {
		return &LoadError{URL: load.URL, Err: err}
	}
	if err := v.scene.Add(mesh); err != nil {
		v.ctx.Release(mesh)
		return &LoadError{URL: load.URL, Err: err}
	}
	v.mesh = mesh
	v.modelURL = load.URL

	if center, ok := scene.FitCameraToObjects(v.camera, mesh); ok {
		v.orbit.Stop()
		v.orbit.Target = center
	}

	v.logger.Noticef("loaded %q (%d triangles)", load.URL, geom.TriangleCount())
	return nil
}

// ClearScene removes the current model. A load still in flight is
// superseded and its result discarded.
func (v *Viewer) ClearScene() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkInitialized(); err != nil {
		return err
	}
	v.token++
	v.removeMesh()
	v.state = Idle
	return nil
}

// UpdateRotation sets the model rotation about its local X and Y axes. The
// angles are given in degrees. Without a model this is a no-op.
func (v *Viewer) UpdateRotation(xDeg, yDeg float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkInitialized(); err != nil {
		return err
	}
	if v.mesh == nil {
		return nil
	}
	v.mesh.Rotation[0] = mgl32.DegToRad(float32(xDeg))
	v.mesh.Rotation[1] = mgl32.DegToRad(float32(yDeg))
	return nil
}

// UpdateZoom moves the camera to z = 150 - zoom and points it back at the
// origin. Zooming works with or without a model.
func (v *Viewer) UpdateZoom(zoom float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkInitialized(); err != nil {
		return err
	}
	v.camera.Position[2] = float32(zoomOrigin - zoom)
	v.camera.LookAt(mgl32.Vec3{})
	v.orbit.Target = v.camera.Target
	return nil
}

// Orbit nudges the camera around the model. The deltas are angular
// velocities in radians per frame which decay over the following frames.
func (v *Viewer) Orbit(dYaw, dPitch float64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkInitialized(); err != nil {
		return err
	}
	v.orbit.Rotate(dYaw, dPitch)
	return nil
}

// Render draws a frame immediately instead of waiting for the next tick.
func (v *Viewer) Render() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkInitialized(); err != nil {
		return err
	}
	return v.renderFrame()
}

// Dispose stops the render loop, releases every render resource and detaches
// the canvas from the surface. Dispose may be called at any time, including
// before Init; calls after the first one are no-ops.
func (v *Viewer) Dispose() {
	v.mu.Lock()
	if v.state == Disposed {
		v.mu.Unlock()
		return
	}
	v.state = Disposed
	v.token++
	v.cancel()
	loopDone := v.loopDone
	v.mu.Unlock()

	// The render loop needs the lock to observe cancellation.
	if loopDone != nil {
		<-loopDone
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.removeMesh()
	if v.ctx != nil {
		for _, mesh := range v.scene.Meshes() {
			v.ctx.Release(mesh)
			mesh.Dispose()
		}
		v.scene.Clear()
		v.ctx.ForceRelease()
		v.surface.Detach(v.ctx.Canvas())
		v.logger.Info("disposed")
	}
}

// IsLoading returns true while a model load is in flight.
func (v *Viewer) IsLoading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state == Loading
}

func (v *Viewer) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

func (v *Viewer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := Status{State: v.state, ModelURL: v.modelURL}
	if v.mesh != nil {
		st.Triangles = v.mesh.Geometry.TriangleCount()
		st.MeshRotation = v.mesh.Rotation
	}
	if v.camera != nil {
		st.CameraPosition = v.camera.Position
		st.CameraTarget = v.camera.Target
	}
	return st
}

// Stats returns the render statistics of the viewer's context.
func (v *Viewer) Stats() renderer.FrameStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx == nil {
		return renderer.FrameStats{}
	}
	return v.ctx.Stats()
}

// Canvas returns the canvas frames are presented on, or nil before Init.
func (v *Viewer) Canvas() *renderer.Canvas {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ctx == nil {
		return nil
	}
	return v.ctx.Canvas()
}

func (v *Viewer) checkInitialized() error {
	switch v.state {
	case Uninitialized:
		return ErrNotInitialized
	case Disposed:
		return ErrDisposed
	}
	return nil
}

// Remove the model from the scene and release its render buffers.
func (v *Viewer) removeMesh() {
	if v.mesh == nil {
		return
	}
	v.scene.Remove(v.mesh)
	v.ctx.Release(v.mesh)
	v.mesh.Dispose()
	v.mesh = nil
	v.modelURL = ""
}

func (v *Viewer) renderLoop(interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-v.lifetime.Done():
			return
		case <-ticker.C:
			v.mu.Lock()
			if v.state != Disposed {
				if err := v.renderFrame(); err != nil {
					v.logger.Warningf("render failed: %s", err)
				}
			}
			v.mu.Unlock()
		}
	}
}

// Advance the orbit controls and draw a frame. Must be called with the lock
// held.
func (v *Viewer) renderFrame() error {
	if v.ctx == nil || v.scene == nil || v.camera == nil {
		return nil
	}
	v.orbit.Update()
	return v.ctx.Render(v.scene, v.camera)
}
