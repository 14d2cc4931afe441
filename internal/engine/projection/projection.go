// Package projection computes the perspective projection and explicit
// frustum bounds and pushes them to the bound shader program.
package projection

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/splatview/pkg/math"
)

// Lens holds the viewport-independent projection settings.
type Lens struct {
	FovYDegrees float32
	Near        float32
	Far         float32
}

// DefaultLens matches the viewer's stock projection.
func DefaultLens() Lens {
	return Lens{FovYDegrees: 53.13, Near: 0.1, Far: 100}
}

// State is a complete projection for one viewport. It is only ever produced
// whole by Recompute.
type State struct {
	Width, Height int
	FovYDegrees   float32
	Aspect        float32

	Top, Bottom float32
	Left, Right float32
	Near, Far   float32

	Matrix math.Mat4
}

// Recompute builds the projection for a viewport. A zero (or negative)
// width or height, as reported for a minimized window, is treated as 1.
func Recompute(width, height int, fovYDegrees, near, far float32) State {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	aspect := float32(width) / float32(height)
	fovY := fovYDegrees * math32.Pi / 180
	top := math32.Tan(fovY/2) * near

	return State{
		Width:       width,
		Height:      height,
		FovYDegrees: fovYDegrees,
		Aspect:      aspect,
		Top:         top,
		Bottom:      -top,
		Left:        -top * aspect,
		Right:       top * aspect,
		Near:        near,
		Far:         far,
		Matrix:      math.Perspective(fovY, aspect, near, far),
	}
}

// Finite reports whether the matrix is usable. A lens with near == far or a
// 180 degree field of view is not.
func (s State) Finite() bool {
	return !s.Matrix.HasNaN()
}
