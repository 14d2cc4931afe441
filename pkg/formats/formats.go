// Package formats provides parsers for point cloud and mesh file formats.
//
// Supported formats:
//   - XYZ/PTS: whitespace separated text, one vertex per line
//   - OBJ: Wavefront geometry (v/f records, optional vertex colors)
//   - PLY: Stanford polygon files, ASCII and binary little/big-endian
package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/splatview/pkg/math"
)

// Common format errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyGeometry     = errors.New("file contains no vertices")
)

// Geometry is the format-neutral result of a parse. Normals and Colors are
// either nil or index-aligned with Positions. Faces, when present, index
// into Positions and describe triangles.
type Geometry struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Colors    []math.Vec3
	Faces     [][3]int
}

// HasFaces reports whether the geometry is a triangle mesh.
func (g *Geometry) HasFaces() bool {
	return len(g.Faces) > 0
}

// Validate checks attribute alignment and face indices.
func (g *Geometry) Validate() error {
	n := len(g.Positions)
	if n == 0 {
		return ErrEmptyGeometry
	}
	if g.Normals != nil && len(g.Normals) != n {
		return fmt.Errorf("%d normals for %d vertices", len(g.Normals), n)
	}
	if g.Colors != nil && len(g.Colors) != n {
		return fmt.Errorf("%d colors for %d vertices", len(g.Colors), n)
	}
	for i, f := range g.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, idx, n)
			}
		}
	}
	return nil
}

// Parse dispatches on the file extension of name.
func Parse(name string, data []byte) (*Geometry, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xyz", ".pts", ".txt":
		return ParseXYZ(data)
	case ".obj":
		return ParseOBJ(data)
	case ".ply":
		return ParsePLY(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
}

// Load reads and parses a geometry file.
func Load(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Extensions lists the file extensions Parse understands.
func Extensions() []string {
	return []string{"xyz", "pts", "txt", "obj", "ply"}
}

// normalizeColor maps 0-255 colors to 0-1. Colors already in range are kept.
func normalizeColor(c math.Vec3) math.Vec3 {
	if c.X > 1 || c.Y > 1 || c.Z > 1 {
		return c.Scale(1.0 / 255.0)
	}
	return c
}
