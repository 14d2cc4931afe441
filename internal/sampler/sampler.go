// Package sampler converts triangle meshes and analytic surfaces into point
// clouds with position, normal and color per sample.
//
// All functions are pure: randomness comes from the Source passed in, so the
// same seed produces the same cloud and samplers may run on any goroutine.
package sampler

import (
	"math"
	"math/rand"

	"github.com/Faultbox/splatview/internal/pointcloud"
	vmath "github.com/Faultbox/splatview/pkg/math"
)

// Source yields uniform random values in [0, 1).
// *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic Source for seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

var (
	// SphereOuterColor colors the +z hemisphere.
	SphereOuterColor = vmath.Vec3{X: 0, Y: 0, Z: 1}
	// SphereInnerColor colors the -z hemisphere.
	SphereInnerColor = vmath.Vec3{X: 1, Y: 0, Z: 0}
)

// Barycentric folds the unit-square sample (a, b) into the triangle and
// returns the three weights. When a+b > 1 both values are reflected, which
// keeps the distribution uniform over the triangle's area.
func Barycentric(a, b float64) (wa, wb, wc float64) {
	if a+b > 1 {
		a = 1 - a
		b = 1 - b
	}
	return a, b, 1 - a - b
}

// FromMesh samples perTriangle points on every triangle of mesh.
//
// Output is ordered by triangle, then sample. Each sample takes the color of
// the triangle's first vertex and the triangle's face normal; neither is
// interpolated. A nil mesh or perTriangle <= 0 yields an empty cloud.
func FromMesh(name string, mesh *Mesh, perTriangle int, rng Source) *pointcloud.Cloud {
	if perTriangle < 0 {
		perTriangle = 0
	}
	cloud := pointcloud.New(name, mesh.Len()*perTriangle)
	if perTriangle == 0 {
		return cloud
	}

	for i := 0; i < mesh.Len(); i++ {
		tri := &mesh.Triangles[i]
		for j := 0; j < perTriangle; j++ {
			a, b, c := Barycentric(rng.Float64(), rng.Float64())
			pos := vmath.Lerp3(tri.V[0], tri.V[1], tri.V[2], float32(a), float32(b), float32(c))
			cloud.Append(pos, tri.Normal, tri.Colors[0])
		}
	}
	return cloud
}

// Sphere samples the unit sphere by lifting points of the unit disk.
//
// Each disk sample (x, y) produces two points, (x, y, z) in SphereOuterColor
// followed by (x, y, -z) in SphereInnerColor, where z = sqrt(1-x²-y²). When a
// draw falls outside the disk only y is redrawn. A count <= 0 yields an
// empty cloud.
func Sphere(name string, count int, rng Source) *pointcloud.Cloud {
	if count < 0 {
		count = 0
	}
	cloud := pointcloud.New(name, 2*count)

	for i := 0; i < count; i++ {
		x := rng.Float64()*2 - 1
		y := rng.Float64()*2 - 1
		for x*x+y*y > 1 {
			y = rng.Float64()*2 - 1
		}
		z := math.Sqrt(math.Max(0, 1-x*x-y*y))

		top := vmath.Vec3{X: float32(x), Y: float32(y), Z: float32(z)}
		bottom := vmath.Vec3{X: float32(x), Y: float32(y), Z: float32(-z)}
		cloud.Append(top, top.Normalize(), SphereOuterColor)
		cloud.Append(bottom, bottom.Normalize(), SphereInnerColor)
	}
	return cloud
}
