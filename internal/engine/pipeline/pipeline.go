// Package pipeline drives per-frame rendering: it selects single-pass or
// multi-pass execution, binds programs, refreshes projection uniforms and
// applies the GPU state each pass kind requires.
package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/engine/projection"
	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/pkg/math"
)

// Mode is the pipeline state.
type Mode int

const (
	SinglePass Mode = iota
	MultiPass
)

// String returns the mode as shown in the window title.
func (m Mode) String() string {
	if m == MultiPass {
		return "MultiPass"
	}
	return "SinglePass"
}

// ErrNoProgram is returned by Frame when the selected program is missing or
// failed to compile. The frame is left cleared.
var ErrNoProgram = errors.New("pipeline: no usable program for the current selection")

// Pipeline is the render state machine. It is owned by the render thread.
type Pipeline struct {
	gpu    GPU
	binder Binder
	proj   *projection.Broadcaster
	log    *zap.Logger

	techniques []Technique
	active     int
	mode       Mode

	// Uniforms of the bound single-pass program; nil if binding failed.
	bound  UniformSet
	radius float32
}

// New creates a pipeline in SinglePass mode with techniques[start] bound.
// A bind failure is returned but leaves a usable pipeline that renders
// cleared frames until another technique binds.
func New(gpu GPU, binder Binder, proj *projection.Broadcaster, techniques []Technique, start int, radius float32) (*Pipeline, error) {
	p := &Pipeline{
		gpu:        gpu,
		binder:     binder,
		proj:       proj,
		log:        logger.Named("pipeline"),
		techniques: techniques,
		radius:     radius,
	}
	if len(techniques) > 0 {
		p.active = ((start % len(techniques)) + len(techniques)) % len(techniques)
	}
	return p, p.bindSingle()
}

// Mode returns the current pipeline state.
func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Active returns the selected technique and false if there is none.
func (p *Pipeline) Active() (Technique, bool) {
	if len(p.techniques) == 0 {
		return Technique{}, false
	}
	return p.techniques[p.active], true
}

// ActiveIndex returns the index of the selected technique.
func (p *Pipeline) ActiveIndex() int {
	return p.active
}

// Description returns the selected technique's description.
func (p *Pipeline) Description() string {
	t, ok := p.Active()
	if !ok {
		return "no program"
	}
	return t.Description
}

// Toggle switches between single-pass and multi-pass. Entering SinglePass
// rebinds the selected program and re-broadcasts the projection.
func (p *Pipeline) Toggle() error {
	if p.mode == SinglePass {
		p.mode = MultiPass
		p.log.Info("pass mode changed", zap.Stringer("mode", p.mode))
		return nil
	}
	p.mode = SinglePass
	p.log.Info("pass mode changed", zap.Stringer("mode", p.mode))
	return p.bindSingle()
}

// NextTechnique selects the next technique, wrapping around, and binds its
// single-pass program.
func (p *Pipeline) NextTechnique() error {
	if len(p.techniques) == 0 {
		return ErrNoProgram
	}
	p.active = (p.active + 1) % len(p.techniques)
	p.log.Info("technique selected",
		zap.Int("index", p.active),
		zap.String("description", p.techniques[p.active].Description),
	)
	return p.bindSingle()
}

// SetTechniques replaces the technique list (after a shader reload) and
// rebinds the selection, keeping the index when it is still valid.
func (p *Pipeline) SetTechniques(techniques []Technique) error {
	p.techniques = techniques
	if p.active >= len(techniques) {
		p.active = 0
	}
	return p.bindSingle()
}

// Resize records the new viewport and refreshes the bound program's
// projection uniforms.
func (p *Pipeline) Resize(width, height int) {
	p.proj.Resize(width, height)
	if p.bound != nil && p.mode == SinglePass {
		p.proj.Broadcast(p.bound)
	}
}

// SplatRadius returns the splat radius.
func (p *Pipeline) SplatRadius() float32 {
	return p.radius
}

// SetSplatRadius changes the splat radius and uploads it to the bound
// program. Multi-pass programs pick it up when they are bound.
func (p *Pipeline) SetSplatRadius(r float32) {
	p.radius = r
	if p.bound != nil && p.mode == SinglePass {
		p.bound.SetSplatRadius(r)
	}
}

// Frame clears the target and renders d with the current view. A nil d
// renders only the clear.
func (p *Pipeline) Frame(view math.Mat4, normal math.Mat3, d Drawable) error {
	p.gpu.Clear()
	if d == nil {
		return nil
	}
	if p.mode == MultiPass {
		return p.multiPass(view, normal, d)
	}
	return p.singlePass(view, normal, d)
}

func (p *Pipeline) singlePass(view math.Mat4, normal math.Mat3, d Drawable) error {
	if p.bound == nil {
		return ErrNoProgram
	}
	p.bound.SetView(view)
	p.bound.SetNormal(normal)

	p.gpu.EnableDepthTest()
	p.gpu.DepthFunc(DepthLess)
	p.gpu.Draw(d)
	return nil
}

func (p *Pipeline) multiPass(view math.Mat4, normal math.Mat3, d Drawable) error {
	t, ok := p.Active()
	if !ok {
		return ErrNoProgram
	}

	p.gpu.EnableDepthTest()
	p.gpu.DepthFunc(DepthLess)

	for i, pass := range t.Passes {
		u, err := p.binder.Bind(pass.Program)
		if err != nil {
			return fmt.Errorf("%w: pass %d (%s): %v", ErrNoProgram, i, pass.Kind, err)
		}
		p.proj.Broadcast(u)
		u.SetView(view)
		u.SetNormal(normal)
		u.SetSplatRadius(p.radius)

		if pass.Kind.enter(p.gpu) {
			p.gpu.Draw(d)
		}
		p.resetPassState()
	}
	return nil
}

// resetPassState restores the defaults every pass starts from.
func (p *Pipeline) resetPassState() {
	p.gpu.ColorMask(true, true, true, true)
	p.gpu.SetBlend(false)
	p.gpu.DepthMask(true)
	p.gpu.DepthFunc(DepthLess)
}

func (p *Pipeline) bindSingle() error {
	p.bound = nil
	t, ok := p.Active()
	if !ok {
		return ErrNoProgram
	}
	u, err := p.binder.Bind(t.Program)
	if err != nil {
		p.log.Error("binding program failed", zap.String("program", t.Name), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNoProgram, err)
	}
	p.bound = u
	p.proj.Broadcast(u)
	u.SetSplatRadius(p.radius)
	return nil
}
