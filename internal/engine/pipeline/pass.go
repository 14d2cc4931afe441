package pipeline

import (
	"fmt"

	"github.com/Faultbox/splatview/internal/engine/shader"
)

// PassKind selects the GPU state a pass runs under. The set of kinds is
// closed: DepthMask, Blending and Normalization are the only
// implementations.
type PassKind interface {
	// enter applies the pass state and reports whether the pass draws.
	enter(g GPU) bool
	String() string
}

// DepthMask passes draw with depth writes enabled.
type DepthMask struct{}

// Blending passes accumulate into the color buffer: blending on, depth
// writes off and a LEQUAL depth test so coplanar splats are not rejected.
type Blending struct{}

// Normalization passes are reserved. They neither draw nor touch GPU state.
type Normalization struct{}

func (DepthMask) enter(g GPU) bool {
	g.DepthMask(true)
	return true
}

func (Blending) enter(g GPU) bool {
	g.SetBlend(true)
	g.DepthMask(false)
	g.DepthFunc(DepthLessEqual)
	return true
}

func (Normalization) enter(GPU) bool {
	return false
}

func (DepthMask) String() string     { return "depth-mask" }
func (Blending) String() string      { return "blending" }
func (Normalization) String() string { return "normalization" }

// ParsePassKind maps an authored kind name to its PassKind.
func ParsePassKind(name string) (PassKind, error) {
	switch name {
	case "depth-mask":
		return DepthMask{}, nil
	case "blending":
		return Blending{}, nil
	case "normalization":
		return Normalization{}, nil
	}
	return nil, fmt.Errorf("pipeline: unknown pass kind %q", name)
}

// Pass is one step of a multi-pass technique.
type Pass struct {
	Program shader.Program
	Kind    PassKind
}

// Technique is a single-pass program plus the ordered passes used when
// multi-pass rendering is on. Pass order is fixed when the technique is
// built.
type Technique struct {
	shader.Program
	Passes []Pass
}

// LoadTechniques builds every technique listed in the catalog manifest.
func LoadTechniques(cat *shader.Catalog) ([]Technique, error) {
	specs := cat.Techniques()
	out := make([]Technique, 0, len(specs))
	for _, spec := range specs {
		prog, err := cat.Program(spec.Program, spec.Description)
		if err != nil {
			return nil, err
		}
		t := Technique{Program: prog, Passes: make([]Pass, 0, len(spec.Passes))}
		for i, ps := range spec.Passes {
			kind, err := ParsePassKind(ps.Kind)
			if err != nil {
				return nil, fmt.Errorf("technique %q pass %d: %w", spec.Description, i, err)
			}
			pp, err := cat.Program(ps.Program, fmt.Sprintf("%s [%s]", spec.Description, kind))
			if err != nil {
				return nil, err
			}
			t.Passes = append(t.Passes, Pass{Program: pp, Kind: kind})
		}
		out = append(out, t)
	}
	return out, nil
}
