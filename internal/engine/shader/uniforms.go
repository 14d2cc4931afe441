package shader

import (
	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/splatview/internal/engine/projection"
	"github.com/Faultbox/splatview/pkg/math"
)

// Uniform names every program may declare. Programs are free to leave any
// of them out; the missing slots resolve to -1 and are skipped.
const (
	UniformViewMatrix    = "viewMatrix"
	UniformNormalMatrix  = "normalMatrix"
	UniformProjMatrix    = "projMatrix"
	UniformWViewport     = "wViewport"
	UniformHViewport     = "hViewport"
	UniformNearFrustum   = "nearFrustum"
	UniformFarFrustum    = "farFrustum"
	UniformTopFrustum    = "topFrustum"
	UniformBottomFrustum = "bottomFrustum"
	UniformLeftFrustum   = "leftFrustum"
	UniformRightFrustum  = "rightFrustum"
	UniformRadiusSplat   = "radiusSplat"
)

// Uniforms holds the resolved uniform locations of one linked program.
type Uniforms struct {
	Program uint32

	locView   int32
	locNormal int32
	locProj   int32

	locWViewport int32
	locHViewport int32

	locNear   int32
	locFar    int32
	locTop    int32
	locBottom int32
	locLeft   int32
	locRight  int32

	locRadius int32
}

// LocateUniforms resolves every known uniform slot of program.
func LocateUniforms(program uint32) *Uniforms {
	return &Uniforms{
		Program:      program,
		locView:      GetUniform(program, UniformViewMatrix),
		locNormal:    GetUniform(program, UniformNormalMatrix),
		locProj:      GetUniform(program, UniformProjMatrix),
		locWViewport: GetUniform(program, UniformWViewport),
		locHViewport: GetUniform(program, UniformHViewport),
		locNear:      GetUniform(program, UniformNearFrustum),
		locFar:       GetUniform(program, UniformFarFrustum),
		locTop:       GetUniform(program, UniformTopFrustum),
		locBottom:    GetUniform(program, UniformBottomFrustum),
		locLeft:      GetUniform(program, UniformLeftFrustum),
		locRight:     GetUniform(program, UniformRightFrustum),
		locRadius:    GetUniform(program, UniformRadiusSplat),
	}
}

// SetView uploads the view matrix. The program must be bound.
func (u *Uniforms) SetView(m math.Mat4) {
	if u.locView >= 0 {
		gl.UniformMatrix4fv(u.locView, 1, false, m.Ptr())
	}
}

// SetNormal uploads the normal matrix.
func (u *Uniforms) SetNormal(m math.Mat3) {
	if u.locNormal >= 0 {
		gl.UniformMatrix3fv(u.locNormal, 1, false, m.Ptr())
	}
}

// SetProjection uploads the projection matrix, viewport size and frustum
// bounds together.
func (u *Uniforms) SetProjection(s projection.State) {
	if u.locProj >= 0 {
		gl.UniformMatrix4fv(u.locProj, 1, false, s.Matrix.Ptr())
	}
	setInt(u.locWViewport, int32(s.Width))
	setInt(u.locHViewport, int32(s.Height))
	setFloat(u.locNear, s.Near)
	setFloat(u.locFar, s.Far)
	setFloat(u.locTop, s.Top)
	setFloat(u.locBottom, s.Bottom)
	setFloat(u.locLeft, s.Left)
	setFloat(u.locRight, s.Right)
}

// SetSplatRadius uploads the world-space splat radius.
func (u *Uniforms) SetSplatRadius(r float32) {
	setFloat(u.locRadius, r)
}

func setInt(loc, v int32) {
	if loc >= 0 {
		gl.Uniform1i(loc, v)
	}
}

func setFloat(loc int32, v float32) {
	if loc >= 0 {
		gl.Uniform1f(loc, v)
	}
}
