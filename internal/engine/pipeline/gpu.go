package pipeline

import (
	"github.com/Faultbox/splatview/internal/engine/projection"
	"github.com/Faultbox/splatview/internal/engine/shader"
	"github.com/Faultbox/splatview/internal/pointcloud"
	"github.com/Faultbox/splatview/pkg/math"
)

// DepthFunc is a depth comparison.
type DepthFunc int

const (
	DepthLess DepthFunc = iota
	DepthLessEqual
)

// GPU is the slice of fixed-function state the pipeline drives.
type GPU interface {
	Clear()
	EnableDepthTest()
	DepthFunc(f DepthFunc)
	DepthMask(write bool)
	SetBlend(enabled bool)
	ColorMask(r, g, b, a bool)
	Draw(d Drawable)
}

// Drawable is an uploaded asset.
type Drawable interface {
	Mode() pointcloud.Mode
	Count() int
}

// UniformSet writes uniforms of a bound program.
type UniformSet interface {
	projection.Sink
	SetView(m math.Mat4)
	SetNormal(m math.Mat3)
	SetSplatRadius(r float32)
}

// Binder compiles (or fetches from cache) and binds a program.
type Binder interface {
	Bind(p shader.Program) (UniformSet, error)
}
