// Package host drives viewers on behalf of their hosts: a property binding
// mirroring a UI component, websocket sessions and file-watch reloading.
package host

import (
	"sync"

	"github.com/fabricio-araujo94/solid/renderer"
	"github.com/fabricio-araujo94/solid/scene"
	"github.com/fabricio-araujo94/solid/viewer"
)

// Props are the externally controlled viewer parameters.
type Props struct {
	ModelURL  string
	Color     scene.Color
	RotationX float64
	RotationY float64
	Zoom      float64
}

// DefaultProps returns the props a freshly mounted view starts with.
func DefaultProps() Props {
	return Props{
		Color: scene.DefaultMeshColor,
		Zoom:  50,
	}
}

// Binding translates property changes into viewer lifecycle calls. Only
// changed values reach the viewer.
type Binding struct {
	mu     sync.Mutex
	viewer *viewer.Viewer
	props  Props
}

func NewBinding(v *viewer.Viewer, props Props) *Binding {
	return &Binding{viewer: v, props: props}
}

// Mount initializes the viewer on surface and loads the initial model, if
// any. A zoom other than the default one is applied before the load starts.
// The returned load is nil when no model URL is set.
func (b *Binding) Mount(surface renderer.Surface) (*viewer.Load, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.viewer.Init(surface); err != nil {
		return nil, err
	}
	if b.props.Zoom != DefaultProps().Zoom {
		if err := b.viewer.UpdateZoom(b.props.Zoom); err != nil {
			return nil, err
		}
	}
	if b.props.ModelURL == "" {
		return nil, nil
	}
	return b.viewer.LoadModel(b.props.ModelURL, b.props.Color)
}

// SetModelURL loads url, or clears the scene when url is empty.
func (b *Binding) SetModelURL(url string) (*viewer.Load, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if url == b.props.ModelURL {
		return nil, nil
	}
	b.props.ModelURL = url
	if url == "" {
		return nil, b.viewer.ClearScene()
	}
	return b.viewer.LoadModel(url, b.props.Color)
}

// SetColor changes the model color. The current model is reloaded so the new
// material takes effect.
func (b *Binding) SetColor(color scene.Color) (*viewer.Load, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if color == b.props.Color {
		return nil, nil
	}
	b.props.Color = color
	if b.props.ModelURL == "" {
		return nil, nil
	}
	return b.viewer.LoadModel(b.props.ModelURL, color)
}

// Load sets both the model URL and color and loads the model even when
// neither changed. An empty url clears the scene.
func (b *Binding) Load(url string, color scene.Color) (*viewer.Load, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.props.ModelURL, b.props.Color = url, color
	if url == "" {
		return nil, b.viewer.ClearScene()
	}
	return b.viewer.LoadModel(url, color)
}

// Reload loads the current model again.
func (b *Binding) Reload() (*viewer.Load, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.props.ModelURL == "" {
		return nil, nil
	}
	return b.viewer.LoadModel(b.props.ModelURL, b.props.Color)
}

func (b *Binding) SetRotation(xDeg, yDeg float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if xDeg == b.props.RotationX && yDeg == b.props.RotationY {
		return nil
	}
	b.props.RotationX, b.props.RotationY = xDeg, yDeg
	return b.viewer.UpdateRotation(xDeg, yDeg)
}

// ApplyRotation forwards the current rotation to the viewer even if it did
// not change. Every load resets the model rotation, so hosts call this once a
// load completes. A zero rotation is not forwarded.
func (b *Binding) ApplyRotation() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.props.RotationX == 0 && b.props.RotationY == 0 {
		return nil
	}
	return b.viewer.UpdateRotation(b.props.RotationX, b.props.RotationY)
}

func (b *Binding) SetZoom(zoom float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if zoom == b.props.Zoom {
		return nil
	}
	b.props.Zoom = zoom
	return b.viewer.UpdateZoom(zoom)
}

// Props returns the current property values.
func (b *Binding) Props() Props {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.props
}

func (b *Binding) Loading() bool {
	return b.viewer.IsLoading()
}

func (b *Binding) Viewer() *viewer.Viewer {
	return b.viewer
}

// Unmount disposes the viewer.
func (b *Binding) Unmount() {
	b.viewer.Dispose()
}
