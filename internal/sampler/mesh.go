package sampler

import (
	"fmt"

	"github.com/Faultbox/splatview/pkg/math"
)

// Triangle is one flat-shaded source triangle.
type Triangle struct {
	V      [3]math.Vec3
	Colors [3]math.Vec3
	Normal math.Vec3
}

// FaceNormal returns the normalized counter-clockwise face normal of v.
func FaceNormal(v [3]math.Vec3) math.Vec3 {
	return v[1].Sub(v[0]).Cross(v[2].Sub(v[0])).Normalize()
}

// Mesh is a read-only triangle soup.
type Mesh struct {
	Triangles []Triangle
}

// MeshFromArrays builds a mesh from flat per-vertex positions and colors and
// one normal per triangle. A nil normals slice derives face normals from
// winding order.
func MeshFromArrays(positions, colors, normals []math.Vec3) (*Mesh, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("sampler: vertex count %d is not a multiple of 3", len(positions))
	}
	if len(colors) != len(positions) {
		return nil, fmt.Errorf("sampler: %d colors for %d vertices", len(colors), len(positions))
	}
	n := len(positions) / 3
	if normals != nil && len(normals) != n {
		return nil, fmt.Errorf("sampler: %d normals for %d triangles", len(normals), n)
	}

	m := &Mesh{Triangles: make([]Triangle, n)}
	for i := range m.Triangles {
		t := &m.Triangles[i]
		copy(t.V[:], positions[i*3:i*3+3])
		copy(t.Colors[:], colors[i*3:i*3+3])
		if normals != nil {
			t.Normal = normals[i]
		} else {
			t.Normal = FaceNormal(t.V)
		}
	}
	return m, nil
}

// Len returns the triangle count.
func (m *Mesh) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Triangles)
}

// Cube returns a unit cube centered at the origin, one color per face pair.
func Cube() *Mesh {
	corners := [8]math.Vec3{
		{X: -0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: -0.5, Z: 0.5},
		{X: 0.5, Y: 0.5, Z: 0.5},
		{X: -0.5, Y: 0.5, Z: 0.5},
		{X: -0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: -0.5, Z: -0.5},
		{X: 0.5, Y: 0.5, Z: -0.5},
		{X: -0.5, Y: 0.5, Z: -0.5},
	}
	// Quads wound counter-clockwise seen from outside.
	faces := []struct {
		idx   [4]int
		color math.Vec3
	}{
		{[4]int{0, 1, 2, 3}, math.Vec3{X: 1, Y: 0, Z: 0}}, // +Z
		{[4]int{5, 4, 7, 6}, math.Vec3{X: 0, Y: 1, Z: 0}}, // -Z
		{[4]int{1, 5, 6, 2}, math.Vec3{X: 0, Y: 0, Z: 1}}, // +X
		{[4]int{4, 0, 3, 7}, math.Vec3{X: 1, Y: 1, Z: 0}}, // -X
		{[4]int{3, 2, 6, 7}, math.Vec3{X: 1, Y: 0, Z: 1}}, // +Y
		{[4]int{4, 5, 1, 0}, math.Vec3{X: 0, Y: 1, Z: 1}}, // -Y
	}

	m := &Mesh{Triangles: make([]Triangle, 0, len(faces)*2)}
	for _, f := range faces {
		q := [4]math.Vec3{corners[f.idx[0]], corners[f.idx[1]], corners[f.idx[2]], corners[f.idx[3]]}
		for _, tri := range [2][3]int{{0, 1, 2}, {0, 2, 3}} {
			v := [3]math.Vec3{q[tri[0]], q[tri[1]], q[tri[2]]}
			m.Triangles = append(m.Triangles, Triangle{
				V:      v,
				Colors: [3]math.Vec3{f.color, f.color, f.color},
				Normal: FaceNormal(v),
			})
		}
	}
	return m
}
