package projection

import (
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/logger"
)

// Sink receives the projection uniforms of the currently bound program.
type Sink interface {
	SetProjection(s State)
}

// Broadcaster remembers the viewport and lens and re-sends a freshly
// computed State whenever the viewport changes or a program is bound.
type Broadcaster struct {
	lens          Lens
	width, height int
	current       State
}

// NewBroadcaster creates a broadcaster for the initial viewport.
func NewBroadcaster(lens Lens, width, height int) *Broadcaster {
	b := &Broadcaster{lens: lens, width: width, height: height}
	b.current = Recompute(width, height, lens.FovYDegrees, lens.Near, lens.Far)
	if !b.current.Finite() {
		logger.Warn("projection matrix is not finite",
			zap.Float32("fovY", lens.FovYDegrees),
			zap.Float32("near", lens.Near),
			zap.Float32("far", lens.Far),
		)
	}
	return b
}

// Resize records a new viewport size and recomputes the projection.
func (b *Broadcaster) Resize(width, height int) State {
	b.width, b.height = width, height
	b.current = Recompute(width, height, b.lens.FovYDegrees, b.lens.Near, b.lens.Far)
	logger.Debug("projection recomputed",
		zap.Int("width", b.current.Width),
		zap.Int("height", b.current.Height),
		zap.Float32("aspect", b.current.Aspect),
	)
	return b.current
}

// Broadcast recomputes the projection and sends it to sink.
func (b *Broadcaster) Broadcast(sink Sink) State {
	b.current = Recompute(b.width, b.height, b.lens.FovYDegrees, b.lens.Near, b.lens.Far)
	if sink != nil {
		sink.SetProjection(b.current)
	}
	return b.current
}

// Current returns the last computed projection.
func (b *Broadcaster) Current() State {
	return b.current
}

// Viewport returns the last viewport size as given (before zero
// substitution).
func (b *Broadcaster) Viewport() (int, int) {
	return b.width, b.height
}
