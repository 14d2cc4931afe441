// Package renderer is the OpenGL backend: it implements the pipeline's GPU
// and Binder interfaces and uploads point clouds into vertex arrays.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/engine/pipeline"
	"github.com/Faultbox/splatview/internal/engine/shader"
	"github.com/Faultbox/splatview/internal/logger"
)

// ClearColor is the background color.
var ClearColor = [4]float32{86.0 / 255.0, 136.0 / 255.0, 199.0 / 255.0, 1.0}

// Renderer handles all OpenGL state and program binding.
type Renderer struct {
	// Compiled programs by name.
	programs map[string]*shader.Uniforms
	bound    uint32
}

// New initializes OpenGL and the fixed state the viewer relies on.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New() (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	// Point sprites sized by the vertex shader, origin at the lower left.
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	gl.PointParameteri(gl.POINT_SPRITE_COORD_ORIGIN, gl.LOWER_LEFT)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE, gl.ONE, gl.ONE)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(ClearColor[0], ClearColor[1], ClearColor[2], ClearColor[3])

	return &Renderer{programs: make(map[string]*shader.Uniforms)}, nil
}

// Close deletes every compiled program.
func (r *Renderer) Close() {
	logger.Info("closing renderer", zap.Int("programs", len(r.programs)))
	r.Invalidate()
}

// Invalidate drops all compiled programs so the next Bind recompiles from
// source.
func (r *Renderer) Invalidate() {
	for _, u := range r.programs {
		gl.DeleteProgram(u.Program)
	}
	r.programs = make(map[string]*shader.Uniforms)
	r.bound = 0
}

// Bind compiles p on first use and makes it the current program.
func (r *Renderer) Bind(p shader.Program) (pipeline.UniformSet, error) {
	u, ok := r.programs[p.Name]
	if !ok {
		id, err := shader.Compile(p)
		if err != nil {
			return nil, err
		}
		u = shader.LocateUniforms(id)
		r.programs[p.Name] = u
		logger.Debug("shader program compiled",
			zap.String("name", p.Name),
			zap.Uint32("program", id),
		)
	}
	if r.bound != u.Program {
		gl.UseProgram(u.Program)
		r.bound = u.Program
	}
	return u, nil
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("viewport resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Clear clears color and depth.
func (r *Renderer) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// EnableDepthTest turns on depth testing.
func (r *Renderer) EnableDepthTest() {
	gl.Enable(gl.DEPTH_TEST)
}

// DepthFunc sets the depth comparison.
func (r *Renderer) DepthFunc(f pipeline.DepthFunc) {
	switch f {
	case pipeline.DepthLessEqual:
		gl.DepthFunc(gl.LEQUAL)
	default:
		gl.DepthFunc(gl.LESS)
	}
}

// DepthMask enables or disables depth writes.
func (r *Renderer) DepthMask(write bool) {
	gl.DepthMask(write)
}

// SetBlend enables or disables blending.
func (r *Renderer) SetBlend(enabled bool) {
	if enabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

// ColorMask sets the color write mask.
func (r *Renderer) ColorMask(red, green, blue, alpha bool) {
	gl.ColorMask(red, green, blue, alpha)
}

// Draw issues one draw call over the full vertex range of d. d must come
// from Upload.
func (r *Renderer) Draw(d pipeline.Drawable) {
	m, ok := d.(*Mesh)
	if !ok || m.vao == 0 {
		return
	}
	gl.BindVertexArray(m.vao)
	gl.DrawArrays(m.glMode(), 0, int32(m.count))
	gl.BindVertexArray(0)
}
