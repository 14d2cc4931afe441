// Package pointcloud defines the renderable point cloud asset.
package pointcloud

import (
	"errors"
	"fmt"

	"github.com/Faultbox/splatview/pkg/math"
)

// Mode is the primitive type a cloud is drawn with.
type Mode int

const (
	// Points draws every vertex as a point sprite (splat).
	Points Mode = iota
	// Triangles draws consecutive vertex triples as triangles.
	Triangles
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Points:
		return "points"
	case Triangles:
		return "triangles"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ErrMisaligned is returned when attribute arrays differ in length.
var ErrMisaligned = errors.New("pointcloud: attribute arrays are not index-aligned")

// Cloud is an ordered sequence of vertex records. Positions, Normals and
// Colors are index-aligned. A Cloud is not modified after construction.
type Cloud struct {
	Name      string
	Mode      Mode
	Positions []math.Vec3
	Normals   []math.Vec3
	Colors    []math.Vec3
}

// New creates an empty cloud with room for n vertices.
func New(name string, n int) *Cloud {
	return &Cloud{
		Name:      name,
		Mode:      Points,
		Positions: make([]math.Vec3, 0, n),
		Normals:   make([]math.Vec3, 0, n),
		Colors:    make([]math.Vec3, 0, n),
	}
}

// Append adds one vertex record.
func (c *Cloud) Append(pos, normal, color math.Vec3) {
	c.Positions = append(c.Positions, pos)
	c.Normals = append(c.Normals, normal)
	c.Colors = append(c.Colors, color)
}

// Len returns the number of vertices.
func (c *Cloud) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Positions)
}

// Empty reports whether the cloud has no vertices.
func (c *Cloud) Empty() bool {
	return c.Len() == 0
}

// Validate checks the index-alignment invariant.
func (c *Cloud) Validate() error {
	if len(c.Normals) != len(c.Positions) || len(c.Colors) != len(c.Positions) {
		return fmt.Errorf("%w: positions=%d normals=%d colors=%d",
			ErrMisaligned, len(c.Positions), len(c.Normals), len(c.Colors))
	}
	if c.Mode == Triangles && len(c.Positions)%3 != 0 {
		return fmt.Errorf("pointcloud: triangle cloud has %d vertices, not a multiple of 3", len(c.Positions))
	}
	return nil
}

// Bounds returns the axis-aligned bounding box. Both corners are zero for an
// empty cloud.
func (c *Cloud) Bounds() (lo, hi math.Vec3) {
	if c.Empty() {
		return math.Vec3{}, math.Vec3{}
	}
	lo, hi = c.Positions[0], c.Positions[0]
	for _, p := range c.Positions[1:] {
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi
}

// Interleave packs the cloud as position, normal, color triples
// (9 floats per vertex) for upload into a single vertex buffer.
func (c *Cloud) Interleave() []float32 {
	out := make([]float32, 0, c.Len()*Stride)
	for i := range c.Positions {
		p, n, col := c.Positions[i], c.Normals[i], c.Colors[i]
		out = append(out,
			p.X, p.Y, p.Z,
			n.X, n.Y, n.Z,
			col.X, col.Y, col.Z,
		)
	}
	return out
}

// Stride is the number of float32 components per interleaved vertex.
const Stride = 9
