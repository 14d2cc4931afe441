package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/splatview/pkg/math"
)

// OBJ format errors.
var (
	ErrInvalidOBJVertex = errors.New("invalid OBJ vertex")
	ErrInvalidOBJFace   = errors.New("invalid OBJ face")
)

// ParseOBJ parses the geometry records of a Wavefront OBJ file. Only "v" and
// "f" records are used; polygons are split into triangle fans. The
// "v x y z r g b" vertex color extension is honored when every vertex
// carries a color.
func ParseOBJ(data []byte) (*Geometry, error) {
	g := &Geometry{}
	var colors []math.Vec3
	allColored := true

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		parts := strings.Fields(sc.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "v":
			vals, err := parseFloats(parts[1:])
			if err != nil || (len(vals) != 3 && len(vals) != 4 && len(vals) != 6) {
				return nil, fmt.Errorf("line %d: %w", line, ErrInvalidOBJVertex)
			}
			g.Positions = append(g.Positions, math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]})
			if len(vals) == 6 {
				colors = append(colors, normalizeColor(math.Vec3{X: vals[3], Y: vals[4], Z: vals[5]}))
			} else {
				allColored = false
			}

		case "f":
			if len(parts) < 4 {
				return nil, fmt.Errorf("line %d: %w: %d vertices", line, ErrInvalidOBJFace, len(parts)-1)
			}
			idx := make([]int, len(parts)-1)
			for i, p := range parts[1:] {
				n, err := objIndex(p, len(g.Positions))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w: %v", line, ErrInvalidOBJFace, err)
				}
				idx[i] = n
			}
			for i := 1; i+1 < len(idx); i++ {
				g.Faces = append(g.Faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(g.Positions) == 0 {
		return nil, ErrEmptyGeometry
	}
	if allColored {
		g.Colors = colors
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// objIndex resolves a face token ("7", "7/1", "7//3", "-1") to a zero-based
// vertex index.
func objIndex(token string, count int) (int, error) {
	if slash := strings.IndexByte(token, '/'); slash >= 0 {
		token = token[:slash]
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0:
		return n - 1, nil
	case n < 0:
		return count + n, nil
	}
	return 0, errors.New("vertex index 0")
}

func parseFloats(parts []string) ([]float32, error) {
	out := make([]float32, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(v)
	}
	return out, nil
}
