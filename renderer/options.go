package renderer

// The fallback frame size used when a surface reports no dimensions.
const (
	DefaultFrameW = 400
	DefaultFrameH = 300
)

type Options struct {
	// Frame dims.
	FrameW int
	FrameH int

	// Scale factor applied to the accumulated light contribution.
	Exposure float32

	// Line width for helper geometry such as grids.
	LineWidth float64
}

// Fill in zero values with defaults.
func (o Options) withDefaults() Options {
	if o.Exposure == 0 {
		o.Exposure = 1
	}
	if o.LineWidth == 0 {
		o.LineWidth = 1
	}
	return o
}
