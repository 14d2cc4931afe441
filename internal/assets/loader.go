package assets

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/internal/pointcloud"
	"github.com/Faultbox/splatview/internal/sampler"
	"github.com/Faultbox/splatview/pkg/formats"
	"github.com/Faultbox/splatview/pkg/math"
)

var (
	// DefaultPointColor is given to point set vertices without a color.
	DefaultPointColor = math.Vec3{X: 1, Y: 1, Z: 1}
	// DefaultMeshColor is given to mesh vertices without a color.
	DefaultMeshColor = math.Vec3{X: 0.7, Y: 0.7, Z: 0.7}
)

// Loader turns files into clouds. Meshes are sampled; point sets are used
// as-is with default normals and colors filled in.
type Loader struct {
	perTriangle int
	cache       *Cache

	mu  sync.Mutex
	rng sampler.Source
}

// NewLoader creates a loader that samples perTriangle points per mesh
// triangle using rng.
func NewLoader(perTriangle int, rng sampler.Source) *Loader {
	return &Loader{
		perTriangle: perTriangle,
		cache:       NewCache(),
		rng:         rng,
	}
}

// Load reads path and returns its cloud. Repeated loads of the same path are
// served from the cache.
func (l *Loader) Load(path string) (*pointcloud.Cloud, error) {
	if cloud, ok := l.cache.Get(path); ok {
		logger.Debug("asset cache hit", zap.String("path", path))
		return cloud, nil
	}

	geom, err := formats.Load(path)
	if err != nil {
		return nil, err
	}
	cloud, err := l.FromGeometry(displayName(path), geom)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	l.cache.Set(path, cloud)
	logger.Info("asset loaded",
		zap.String("path", path),
		zap.Bool("mesh", geom.HasFaces()),
		zap.Int("points", cloud.Len()),
	)
	return cloud, nil
}

// FromGeometry converts parsed geometry into a cloud.
func (l *Loader) FromGeometry(name string, geom *formats.Geometry) (*pointcloud.Cloud, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	var cloud *pointcloud.Cloud
	if geom.HasFaces() {
		mesh := meshFromGeometry(geom)
		l.mu.Lock()
		cloud = sampler.FromMesh(name, mesh, l.perTriangle, l.rng)
		l.mu.Unlock()
	} else {
		cloud = pointsFromGeometry(name, geom)
	}

	if cloud.Empty() {
		return nil, fmt.Errorf("%q produced no points", name)
	}
	return cloud, nil
}

// Cube samples the built-in unit cube.
func (l *Loader) Cube() *pointcloud.Cloud {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sampler.FromMesh("cube", sampler.Cube(), l.perTriangle, l.rng)
}

// Sphere samples the built-in unit sphere.
func (l *Loader) Sphere(count int) *pointcloud.Cloud {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sampler.Sphere("sphere", count, l.rng)
}

// Cache returns the loader's cloud cache.
func (l *Loader) Cache() *Cache {
	return l.cache
}

func meshFromGeometry(geom *formats.Geometry) *sampler.Mesh {
	mesh := &sampler.Mesh{Triangles: make([]sampler.Triangle, 0, len(geom.Faces))}
	for _, f := range geom.Faces {
		var tri sampler.Triangle
		for k, idx := range f {
			tri.V[k] = geom.Positions[idx]
			tri.Colors[k] = DefaultMeshColor
			if geom.Colors != nil {
				tri.Colors[k] = geom.Colors[idx]
			}
		}
		tri.Normal = sampler.FaceNormal(tri.V)
		mesh.Triangles = append(mesh.Triangles, tri)
	}
	return mesh
}

func pointsFromGeometry(name string, geom *formats.Geometry) *pointcloud.Cloud {
	cloud := pointcloud.New(name, len(geom.Positions))
	for i, p := range geom.Positions {
		normal := p.Normalize()
		if geom.Normals != nil {
			normal = geom.Normals[i]
		}
		color := DefaultPointColor
		if geom.Colors != nil {
			color = geom.Colors[i]
		}
		cloud.Append(p, normal, color)
	}
	return cloud
}

func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
