package renderer

import "errors"

var (
	ErrSceneNotDefined  = errors.New("renderer: no scene defined")
	ErrCameraNotDefined = errors.New("renderer: no camera defined")
	ErrContextReleased  = errors.New("renderer: context has been released")
	ErrInvalidFrameSize = errors.New("renderer: invalid frame size")
	ErrMeshDisposed     = errors.New("renderer: mesh has been disposed")
	ErrAlreadyAttached  = errors.New("renderer: surface already has an attached canvas")
)
