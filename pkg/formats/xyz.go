package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Faultbox/splatview/pkg/math"
)

// ErrInvalidXYZRecord is returned for a line with an unexpected field count.
var ErrInvalidXYZRecord = errors.New("invalid XYZ record")

// ParseXYZ parses a text point list. Each non-empty, non-comment line holds
// "x y z", "x y z nx ny nz" or "x y z nx ny nz r g b". Every record must use
// the same layout as the first one. Lines starting with '#' or '//' are
// comments.
func ParseXYZ(data []byte) (*Geometry, error) {
	g := &Geometry{}
	fields := -1

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, "//") {
			continue
		}
		parts := strings.FieldsFunc(text, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})

		if fields < 0 {
			fields = len(parts)
			switch fields {
			case 3:
			case 6:
				g.Normals = []math.Vec3{}
			case 9:
				g.Normals = []math.Vec3{}
				g.Colors = []math.Vec3{}
			default:
				return nil, fmt.Errorf("line %d: %w: %d fields", line, ErrInvalidXYZRecord, len(parts))
			}
		}
		if len(parts) != fields {
			return nil, fmt.Errorf("line %d: %w: %d fields, expected %d", line, ErrInvalidXYZRecord, len(parts), fields)
		}

		vals := make([]float32, len(parts))
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = float32(v)
		}

		g.Positions = append(g.Positions, math.Vec3{X: vals[0], Y: vals[1], Z: vals[2]})
		if fields >= 6 {
			g.Normals = append(g.Normals, math.Vec3{X: vals[3], Y: vals[4], Z: vals[5]})
		}
		if fields == 9 {
			g.Colors = append(g.Colors, normalizeColor(math.Vec3{X: vals[6], Y: vals[7], Z: vals[8]}))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(g.Positions) == 0 {
		return nil, ErrEmptyGeometry
	}
	return g, nil
}

// WriteXYZ writes g in the layout ParseXYZ reads back: 3, 6 or 9 fields per
// line depending on which attributes are present. Colors are written in the
// 0-1 range. Faces are not written.
func WriteXYZ(w io.Writer, g *Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Colors != nil && g.Normals == nil {
		return errors.New("XYZ colors require normals")
	}

	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 128)
	for i, p := range g.Positions {
		buf = appendVec(buf[:0], p)
		if g.Normals != nil {
			buf = append(buf, ' ')
			buf = appendVec(buf, g.Normals[i])
		}
		if g.Colors != nil {
			buf = append(buf, ' ')
			buf = appendVec(buf, g.Colors[i])
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendVec(buf []byte, v math.Vec3) []byte {
	buf = strconv.AppendFloat(buf, float64(v.X), 'g', -1, 32)
	buf = append(buf, ' ')
	buf = strconv.AppendFloat(buf, float64(v.Y), 'g', -1, 32)
	buf = append(buf, ' ')
	return strconv.AppendFloat(buf, float64(v.Z), 'g', -1, 32)
}
