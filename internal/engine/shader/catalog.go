package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed programs
var embedded embed.FS

// ManifestFile is the catalog index, looked up like any other source.
const ManifestFile = "programs.yaml"

// ErrUnknownProgram is returned for a program name the manifest does not list.
var ErrUnknownProgram = errors.New("shader: unknown program")

// SourceFiles names the GLSL files of one program.
type SourceFiles struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

// PassSpec is one authored pass: a program name and a pass kind name.
type PassSpec struct {
	Program string `yaml:"program"`
	Kind    string `yaml:"kind"`
}

// TechniqueSpec is one authored rendering technique.
type TechniqueSpec struct {
	Description string     `yaml:"description"`
	Program     string     `yaml:"program"`
	Passes      []PassSpec `yaml:"passes"`
}

// Manifest is the parsed programs.yaml.
type Manifest struct {
	Programs   map[string]SourceFiles `yaml:"programs"`
	Techniques []TechniqueSpec        `yaml:"techniques"`
}

// Catalog serves program sources. Files in the override directory, when one
// is set, take precedence over the embedded copies.
type Catalog struct {
	dir      string
	base     fs.FS
	manifest Manifest
}

// NewCatalog loads the manifest, preferring dir over the embedded sources.
// An empty dir uses only the embedded sources.
func NewCatalog(dir string) (*Catalog, error) {
	base, err := fs.Sub(embedded, "programs")
	if err != nil {
		return nil, err
	}
	c := &Catalog{dir: dir, base: base}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the manifest.
func (c *Catalog) Reload() error {
	data, err := c.ReadFile(ManifestFile)
	if err != nil {
		return err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}
	for i, t := range m.Techniques {
		if _, ok := m.Programs[t.Program]; !ok {
			return fmt.Errorf("technique %d (%s): %w %q", i, t.Description, ErrUnknownProgram, t.Program)
		}
		for _, p := range t.Passes {
			if _, ok := m.Programs[p.Program]; !ok {
				return fmt.Errorf("technique %d (%s) pass: %w %q", i, t.Description, ErrUnknownProgram, p.Program)
			}
		}
	}
	c.manifest = m
	return nil
}

// Dir returns the override directory, or "" if none.
func (c *Catalog) Dir() string {
	return c.dir
}

// Techniques returns the authored techniques in manifest order.
func (c *Catalog) Techniques() []TechniqueSpec {
	return c.manifest.Techniques
}

// Names returns the sorted program names.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.manifest.Programs))
	for name := range c.manifest.Programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile returns a source file, from the override directory if present
// there, otherwise from the embedded set.
func (c *Catalog) ReadFile(name string) ([]byte, error) {
	if c.dir != "" {
		data, err := os.ReadFile(filepath.Join(c.dir, name))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return fs.ReadFile(c.base, name)
}

// Program loads the named program with the given description.
func (c *Catalog) Program(name, description string) (Program, error) {
	files, ok := c.manifest.Programs[name]
	if !ok {
		return Program{}, fmt.Errorf("%w %q", ErrUnknownProgram, name)
	}
	vert, err := c.ReadFile(files.Vertex)
	if err != nil {
		return Program{}, fmt.Errorf("program %q: %w", name, err)
	}
	frag, err := c.ReadFile(files.Fragment)
	if err != nil {
		return Program{}, fmt.Errorf("program %q: %w", name, err)
	}
	return Program{
		Name:        name,
		Description: description,
		Vertex:      string(vert),
		Fragment:    string(frag),
	}, nil
}
