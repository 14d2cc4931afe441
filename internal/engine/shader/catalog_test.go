package shader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := NewCatalog("")
	require.NoError(t, err)

	require.NotEmpty(t, c.Techniques())
	assert.Equal(t, "Points", c.Techniques()[0].Description)
	assert.Contains(t, c.Names(), "splats")

	for _, name := range c.Names() {
		p, err := c.Program(name, "test")
		require.NoError(t, err, name)
		assert.Contains(t, p.Vertex, "#version 410 core")
		assert.Contains(t, p.Fragment, "FragColor")
	}
}

func TestPassOrderPreserved(t *testing.T) {
	c, err := NewCatalog("")
	require.NoError(t, err)

	var kinds []string
	for _, tech := range c.Techniques() {
		if tech.Program == "ellipses" {
			for _, p := range tech.Passes {
				kinds = append(kinds, p.Kind)
			}
		}
	}
	assert.Equal(t, []string{"depth-mask", "blending", "normalization"}, kinds)
}

func TestUnknownProgram(t *testing.T) {
	c, err := NewCatalog("")
	require.NoError(t, err)

	_, err = c.Program("missing", "")
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func TestOverrideDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "points.frag"), []byte("// override\n"), 0644))

	c, err := NewCatalog(dir)
	require.NoError(t, err)

	p, err := c.Program("points", "Points")
	require.NoError(t, err)
	assert.Equal(t, "// override\n", p.Fragment)
	assert.Contains(t, p.Vertex, "#version 410 core", "files not in the override dir come from the embedded set")
}

func TestOverrideManifestValidated(t *testing.T) {
	dir := t.TempDir()
	manifest := `
programs:
  points: {vertex: points.vert, fragment: points.frag}
techniques:
  - description: Broken
    program: points
    passes:
      - program: nowhere
        kind: blending
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0644))

	_, err := NewCatalog(dir)
	assert.ErrorIs(t, err, ErrUnknownProgram)
}

func TestWatcherSignalsEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "splat.frag"), []byte("x"), 0644))

	select {
	case <-w.Changed():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal for edited shader source")
	}
}

func TestIsSource(t *testing.T) {
	assert.True(t, isSource("/a/b/splat.vert"))
	assert.True(t, isSource("programs.yaml"))
	assert.False(t, isSource("notes.txt"))
}
