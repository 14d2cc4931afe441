// Package camera provides the orbit camera used by the viewer.
package camera

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/splatview/pkg/math"
)

const (
	// MinDistance is the closest the camera may get to the orbit center.
	MinDistance float32 = 0.001

	// MaxElevation bounds the elevation angle in both directions.
	MaxElevation float32 = math32.Pi / 2

	// DefaultSensitivity maps 1000 pixels of drag to a full turn.
	DefaultSensitivity float32 = 2 * math32.Pi / 1000
)

// WorldUp is the fixed reference used to re-derive the camera's up vector.
var WorldUp = math.Vec3{X: 0, Y: 1, Z: 0}

// Orbit orbits the world origin. The eye position is derived from the two
// angles and the distance and is refreshed by every mutating method.
type Orbit struct {
	azimuth   float32 // horizontal angle, radians
	elevation float32 // vertical angle, radians, within [-MaxElevation, MaxElevation]
	distance  float32

	eye math.Vec3
}

// NewOrbit creates an orbit camera at the given distance looking at the origin.
func NewOrbit(distance float32) *Orbit {
	c := &Orbit{}
	c.distance = clampDistance(distance)
	c.update()
	return c
}

// Azimuth returns the horizontal orbit angle in radians.
func (c *Orbit) Azimuth() float32 { return c.azimuth }

// Elevation returns the vertical orbit angle in radians.
func (c *Orbit) Elevation() float32 { return c.elevation }

// Distance returns the distance from the origin.
func (c *Orbit) Distance() float32 { return c.distance }

// Eye returns the camera position in world space.
func (c *Orbit) Eye() math.Vec3 { return c.eye }

// ApplyDrag rotates the camera by a pointer delta. Elevation is pinned to
// [-π/2, π/2], never wrapped.
func (c *Orbit) ApplyDrag(deltaX, deltaY, sensitivity float32) {
	c.azimuth += deltaX * sensitivity
	c.elevation += deltaY * sensitivity

	if c.elevation > MaxElevation {
		c.elevation = MaxElevation
	}
	if c.elevation < -MaxElevation {
		c.elevation = -MaxElevation
	}
	c.update()
}

// ApplyZoom moves the camera toward the origin by delta.
func (c *Orbit) ApplyZoom(delta float32) {
	c.distance = clampDistance(c.distance - delta)
	c.update()
}

// Reset zeroes both angles. The distance is kept.
func (c *Orbit) Reset() {
	c.azimuth = 0
	c.elevation = 0
	c.update()
}

// Up returns an up vector orthogonal to the view direction, derived as
// (eye × worldUp) × eye.
func (c *Orbit) Up() math.Vec3 {
	return c.eye.Cross(WorldUp).Cross(c.eye)
}

// ViewMatrix returns the view matrix looking from the eye at the origin.
func (c *Orbit) ViewMatrix() math.Mat4 {
	return math.LookAt(c.eye, math.Vec3{}, c.Up())
}

// NormalMatrix returns the matrix that carries normals into eye space.
func (c *Orbit) NormalMatrix() math.Mat3 {
	return math.NormalMatrix(c.ViewMatrix())
}

func (c *Orbit) update() {
	c.eye = EyeAt(c.azimuth, c.elevation, c.distance)
}

// EyeAt returns the eye position for the given orbit parameters.
func EyeAt(azimuth, elevation, distance float32) math.Vec3 {
	cosEl := math32.Cos(elevation)
	return math.Vec3{
		X: distance * -math32.Sin(azimuth) * cosEl,
		Y: distance * -math32.Sin(elevation),
		Z: distance * -math32.Cos(azimuth) * cosEl,
	}
}

func clampDistance(d float32) float32 {
	if d < MinDistance || math32.IsNaN(d) {
		return MinDistance
	}
	return d
}
