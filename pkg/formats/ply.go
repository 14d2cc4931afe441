package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	gomath "math"
	"strconv"
	"strings"

	"github.com/Faultbox/splatview/pkg/math"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic      = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
	ErrInvalidPLYHeader     = errors.New("invalid PLY header")
)

type plyProperty struct {
	name     string
	typ      string
	list     bool
	countTyp string
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

// plyReader yields successive scalar values from the body.
type plyReader interface {
	scalar(typ string) (float64, error)
}

// ParsePLY parses an ASCII or binary little/big-endian PLY file. Vertex
// positions, normals (nx, ny, nz) and colors (red, green, blue) are read;
// faces are split into triangle fans. Other elements are skipped.
func ParsePLY(data []byte) (*Geometry, error) {
	format, elements, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	var r plyReader
	switch format {
	case "ascii":
		r = newPLYText(body)
	case "binary_little_endian":
		r = &plyBinary{r: bytes.NewReader(body), order: binary.LittleEndian}
	case "binary_big_endian":
		r = &plyBinary{r: bytes.NewReader(body), order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, format)
	}

	ascii := format == "ascii"
	g := &Geometry{}
	for _, el := range elements {
		if el.count > plyMaxRecords(el, len(body), ascii) {
			return nil, fmt.Errorf("%w: %d %s records exceed %d byte body", ErrTruncatedPLYData, el.count, el.name, len(body))
		}
		switch el.name {
		case "vertex":
			if err := readPLYVertices(r, el, len(body), g); err != nil {
				return nil, err
			}
		case "face":
			if err := readPLYFaces(r, el, len(body), g); err != nil {
				return nil, err
			}
		default:
			if err := skipPLYElement(r, el, len(body)); err != nil {
				return nil, err
			}
		}
	}

	if len(g.Positions) == 0 {
		return nil, ErrEmptyGeometry
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func parsePLYHeader(data []byte) (format string, elements []plyElement, body []byte, err error) {
	if !bytes.HasPrefix(data, []byte("ply")) {
		return "", nil, nil, ErrInvalidPLYMagic
	}

	offset := 0
	for {
		nl := bytes.IndexByte(data[offset:], '\n')
		if nl < 0 {
			return "", nil, nil, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
		}
		line := strings.TrimSpace(string(data[offset : offset+nl]))
		offset += nl + 1

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "ply", "comment", "obj_info":
		case "format":
			if len(parts) < 2 {
				return "", nil, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			format = parts[1]
		case "element":
			if len(parts) != 3 {
				return "", nil, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			n, err := strconv.Atoi(parts[2])
			if err != nil || n < 0 {
				return "", nil, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			elements = append(elements, plyElement{name: parts[1], count: n})
		case "property":
			if len(elements) == 0 {
				return "", nil, nil, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			el := &elements[len(elements)-1]
			switch {
			case len(parts) == 5 && parts[1] == "list":
				el.props = append(el.props, plyProperty{name: parts[4], typ: parts[3], list: true, countTyp: parts[2]})
			case len(parts) == 3:
				el.props = append(el.props, plyProperty{name: parts[2], typ: parts[1]})
			default:
				return "", nil, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
		case "end_header":
			if format == "" {
				return "", nil, nil, fmt.Errorf("%w: missing format", ErrInvalidPLYHeader)
			}
			return format, elements, data[offset:], nil
		default:
			return "", nil, nil, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
		}
	}
}

// plyMaxRecords bounds how many records of el a body of n bytes can hold.
// ASCII scalars take at least one digit and one separator; list properties
// count as their length prefix alone.
func plyMaxRecords(el plyElement, n int, ascii bool) int {
	size := 0
	for _, p := range el.props {
		typ := p.typ
		if p.list {
			typ = p.countTyp
		}
		if ascii {
			size += 2
		} else {
			size += max(plyTypeSize(typ), 1)
		}
	}
	if size == 0 {
		return n
	}
	if ascii {
		n++
	}
	return n / size
}

// plyListLen validates a list length read from the body. Every entry takes
// at least one byte, so lengths beyond the body size are truncated data.
func plyListLen(v float64, limit int) (int, error) {
	if gomath.IsNaN(v) || v < 0 || v != gomath.Trunc(v) {
		return 0, fmt.Errorf("%w: list length %v", ErrInvalidPLYHeader, v)
	}
	if v > float64(limit) {
		return 0, fmt.Errorf("%w: list length %v", ErrTruncatedPLYData, v)
	}
	return int(v), nil
}

func readPLYVertices(r plyReader, el plyElement, limit int, g *Geometry) error {
	has := map[string]bool{}
	for _, p := range el.props {
		has[p.name] = true
	}
	withNormals := has["nx"] && has["ny"] && has["nz"]
	withColors := has["red"] && has["green"] && has["blue"]

	g.Positions = make([]math.Vec3, 0, el.count)
	if withNormals {
		g.Normals = make([]math.Vec3, 0, el.count)
	}
	if withColors {
		g.Colors = make([]math.Vec3, 0, el.count)
	}

	for i := 0; i < el.count; i++ {
		var pos, n, c math.Vec3
		for _, p := range el.props {
			if p.list {
				if err := skipPLYList(r, p, limit); err != nil {
					return err
				}
				continue
			}
			v, err := r.scalar(p.typ)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			f := float32(v)
			if isPLYByte(p.typ) && (p.name == "red" || p.name == "green" || p.name == "blue") {
				f /= 255
			}
			switch p.name {
			case "x":
				pos.X = f
			case "y":
				pos.Y = f
			case "z":
				pos.Z = f
			case "nx":
				n.X = f
			case "ny":
				n.Y = f
			case "nz":
				n.Z = f
			case "red":
				c.X = f
			case "green":
				c.Y = f
			case "blue":
				c.Z = f
			}
		}
		g.Positions = append(g.Positions, pos)
		if withNormals {
			g.Normals = append(g.Normals, n)
		}
		if withColors {
			g.Colors = append(g.Colors, c)
		}
	}
	return nil
}

func readPLYFaces(r plyReader, el plyElement, limit int, g *Geometry) error {
	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			if !p.list {
				if _, err := r.scalar(p.typ); err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}
			if p.name != "vertex_indices" && p.name != "vertex_index" {
				if err := skipPLYList(r, p, limit); err != nil {
					return err
				}
				continue
			}
			v, err := r.scalar(p.countTyp)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			cnt, err := plyListLen(v, limit)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			idx := make([]int, 0, min(cnt, 16))
			for k := 0; k < cnt; k++ {
				v, err := r.scalar(p.typ)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				if v != gomath.Trunc(v) {
					return fmt.Errorf("face %d: %w: vertex index %v", i, ErrInvalidPLYHeader, v)
				}
				idx = append(idx, int(v))
			}
			for k := 1; k+1 < len(idx); k++ {
				g.Faces = append(g.Faces, [3]int{idx[0], idx[k], idx[k+1]})
			}
		}
	}
	return nil
}

func skipPLYElement(r plyReader, el plyElement, limit int) error {
	for i := 0; i < el.count; i++ {
		for _, p := range el.props {
			if p.list {
				if err := skipPLYList(r, p, limit); err != nil {
					return err
				}
				continue
			}
			if _, err := r.scalar(p.typ); err != nil {
				return fmt.Errorf("%s %d: %w", el.name, i, err)
			}
		}
	}
	return nil
}

func skipPLYList(r plyReader, p plyProperty, limit int) error {
	v, err := r.scalar(p.countTyp)
	if err != nil {
		return err
	}
	cnt, err := plyListLen(v, limit)
	if err != nil {
		return err
	}
	for k := 0; k < cnt; k++ {
		if _, err := r.scalar(p.typ); err != nil {
			return err
		}
	}
	return nil
}

func isPLYByte(typ string) bool {
	return typ == "uchar" || typ == "uint8" || typ == "char" || typ == "int8"
}

// plyText reads whitespace separated ASCII values.
type plyText struct {
	sc *bufio.Scanner
}

func newPLYText(body []byte) *plyText {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Split(bufio.ScanWords)
	return &plyText{sc: sc}
}

func (t *plyText) scalar(string) (float64, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return 0, err
		}
		return 0, ErrTruncatedPLYData
	}
	return strconv.ParseFloat(t.sc.Text(), 64)
}

// plyBinary reads fixed-size binary values.
type plyBinary struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinary) scalar(typ string) (float64, error) {
	size := plyTypeSize(typ)
	if size == 0 {
		return 0, fmt.Errorf("%w: property type %q", ErrUnsupportedPLYFormat, typ)
	}
	if _, err := io.ReadFull(b.r, b.buf[:size]); err != nil {
		return 0, ErrTruncatedPLYData
	}
	p := b.buf[:size]
	switch typ {
	case "char", "int8":
		return float64(int8(p[0])), nil
	case "uchar", "uint8":
		return float64(p[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(p))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(p)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(p))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(p)), nil
	case "float", "float32":
		return float64(gomath.Float32frombits(b.order.Uint32(p))), nil
	default: // double, float64
		return gomath.Float64frombits(b.order.Uint64(p)), nil
	}
}

func plyTypeSize(typ string) int {
	switch typ {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	}
	return 0
}
