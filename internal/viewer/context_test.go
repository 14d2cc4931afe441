package viewer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/splatview/internal/assets"
	"github.com/Faultbox/splatview/internal/engine/camera"
	"github.com/Faultbox/splatview/internal/engine/input"
	"github.com/Faultbox/splatview/internal/engine/pipeline"
	"github.com/Faultbox/splatview/internal/engine/projection"
	"github.com/Faultbox/splatview/internal/engine/shader"
	"github.com/Faultbox/splatview/internal/pointcloud"
	"github.com/Faultbox/splatview/pkg/math"
)

type nopGPU struct{ draws []pipeline.Drawable }

func (g *nopGPU) Clear()                       {}
func (g *nopGPU) EnableDepthTest()             {}
func (g *nopGPU) DepthFunc(pipeline.DepthFunc) {}
func (g *nopGPU) DepthMask(bool)               {}
func (g *nopGPU) SetBlend(bool)                {}
func (g *nopGPU) ColorMask(_, _, _, _ bool)    {}
func (g *nopGPU) Draw(d pipeline.Drawable)     { g.draws = append(g.draws, d) }

type radiusUniforms struct{ radius *float32 }

func (u radiusUniforms) SetProjection(projection.State) {}
func (u radiusUniforms) SetView(math.Mat4)              {}
func (u radiusUniforms) SetNormal(math.Mat3)            {}
func (u radiusUniforms) SetSplatRadius(r float32)       { *u.radius = r }

type stubBinder struct {
	broken map[string]bool
	radius float32
}

func (b *stubBinder) Bind(p shader.Program) (pipeline.UniformSet, error) {
	if b.broken[p.Name] {
		return nil, errors.New("link failed")
	}
	return radiusUniforms{radius: &b.radius}, nil
}

type titleRecorder struct{ titles []string }

func (w *titleRecorder) SetTitle(t string) { w.titles = append(w.titles, t) }

func (w *titleRecorder) last() string { return w.titles[len(w.titles)-1] }

type countingCache struct{ n int }

func (c *countingCache) Invalidate() { c.n++ }

type stubChooser struct {
	path string
	err  error
}

func (c stubChooser) Choose() (string, error) { return c.path, c.err }

type stubDrawable struct{ n int }

func (d stubDrawable) Mode() pointcloud.Mode { return pointcloud.Points }
func (d stubDrawable) Count() int            { return d.n }

func uploadStub(c *pointcloud.Cloud) (pipeline.Drawable, error) {
	return stubDrawable{n: c.Len()}, nil
}

func cloudOf(name string, n int) *pointcloud.Cloud {
	c := pointcloud.New(name, n)
	for i := 0; i < n; i++ {
		c.Append(math.Vec3{X: float32(i)}, math.Vec3{Z: 1}, math.Vec3{X: 1})
	}
	return c
}

type harness struct {
	rc       *RenderContext
	gpu      *nopGPU
	binder   *stubBinder
	window   *titleRecorder
	cache    *countingCache
	camera   *camera.Orbit
	registry *assets.Registry
	loads    *LoadQueue
}

func newHarness(t *testing.T, chooser FileChooser, open func(string) (*pointcloud.Cloud, error)) *harness {
	t.Helper()
	h := &harness{
		gpu:      &nopGPU{},
		binder:   &stubBinder{broken: map[string]bool{}},
		window:   &titleRecorder{},
		cache:    &countingCache{},
		camera:   camera.NewOrbit(3),
		registry: assets.NewRegistry(uploadStub),
		loads:    NewLoadQueue(4),
	}
	t.Cleanup(h.loads.Close)

	techniques := []pipeline.Technique{
		{Program: shader.Program{Name: "points", Description: "Points"}},
		{
			Program: shader.Program{Name: "splat", Description: "Disk splats"},
			Passes:  []pipeline.Pass{{Program: shader.Program{Name: "splat_depth"}, Kind: pipeline.DepthMask{}}},
		},
	}
	proj := projection.NewBroadcaster(projection.DefaultLens(), 640, 480)
	pipe, err := pipeline.New(h.gpu, h.binder, proj, techniques, 0, 0.01)
	require.NoError(t, err)

	h.rc = NewRenderContext(Settings{
		Title:           "splatview",
		DragSensitivity: camera.DefaultSensitivity,
		ZoomStep:        1,
		RadiusStep:      0.001,
	}, ContextDeps{
		Camera:   h.camera,
		Pipeline: pipe,
		Registry: h.registry,
		Window:   h.window,
		Programs: h.cache,
		Chooser:  chooser,
		Loads:    h.loads,
		Open:     open,
	})
	return h
}

func keyDown(code sdl.Scancode) input.Event {
	return input.Event{Type: input.EventKeyDown, Key: code}
}

func waitResults(t *testing.T, rc *RenderContext, want int) {
	t.Helper()
	got := 0
	deadline := time.Now().Add(2 * time.Second)
	for got < want && time.Now().Before(deadline) {
		got += rc.DrainLoads()
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, want, got)
}

func TestInitialTitle(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NotEmpty(t, h.window.titles)
	assert.Equal(t, "splatview | Points | SinglePass", h.window.last())
}

func TestNextProgramRecompilesAndRetitles(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_S)))
	assert.Equal(t, 1, h.cache.n)
	assert.Equal(t, "splatview | Disk splats | SinglePass", h.window.last())

	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_S)))
	assert.Equal(t, "splatview | Points | SinglePass", h.window.last())
}

func TestTogglePassesRetitles(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_P)))
	assert.Equal(t, "splatview | Points | MultiPass", h.window.last())
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_P)))
	assert.Equal(t, "splatview | Points | SinglePass", h.window.last())
}

func TestRepeatOnlyChangesRadius(t *testing.T) {
	h := newHarness(t, nil, nil)

	ev := keyDown(sdl.SCANCODE_UP)
	ev.Repeat = true
	require.NoError(t, h.rc.HandleEvent(ev))
	require.NoError(t, h.rc.HandleEvent(ev))
	assert.InDelta(t, 0.012, h.binder.radius, 1e-6)

	titles := len(h.window.titles)
	ev = keyDown(sdl.SCANCODE_P)
	ev.Repeat = true
	require.NoError(t, h.rc.HandleEvent(ev))
	assert.Len(t, h.window.titles, titles)
}

func TestRadiusDownStopsAtZero(t *testing.T) {
	h := newHarness(t, nil, nil)
	for i := 0; i < 20; i++ {
		require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_DOWN)))
	}
	assert.Equal(t, float32(0), h.binder.radius)
}

func TestDragRotatesByLastMinusCurrent(t *testing.T) {
	h := newHarness(t, nil, nil)

	// Motion without the button only tracks the pointer.
	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseMove, MouseX: 100, MouseY: 100}))
	assert.Zero(t, h.camera.Azimuth())

	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseDown, Button: sdl.BUTTON_LEFT, MouseX: 100, MouseY: 100}))
	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseMove, MouseX: 90, MouseY: 105}))
	assert.InDelta(t, 10*camera.DefaultSensitivity, h.camera.Azimuth(), 1e-6)
	assert.InDelta(t, -5*camera.DefaultSensitivity, h.camera.Elevation(), 1e-6)

	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseUp, Button: sdl.BUTTON_LEFT}))
	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseMove, MouseX: 0, MouseY: 0}))
	assert.InDelta(t, 10*camera.DefaultSensitivity, h.camera.Azimuth(), 1e-6)
}

func TestWheelZoomsAndResetKeepsDistance(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseWheel, WheelY: 2}))
	assert.InDelta(t, 1, h.camera.Distance(), 1e-6)

	require.NoError(t, h.rc.HandleEvent(input.Event{Type: input.EventMouseWheel, WheelY: 5}))
	assert.Equal(t, camera.MinDistance, h.camera.Distance())

	h.camera.ApplyDrag(50, 50, camera.DefaultSensitivity)
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_R)))
	assert.Zero(t, h.camera.Azimuth())
	assert.Zero(t, h.camera.Elevation())
	assert.Equal(t, camera.MinDistance, h.camera.Distance())
}

func TestDrainLoadsDoesNotBlock(t *testing.T) {
	h := newHarness(t, nil, nil)
	assert.Equal(t, 0, h.rc.DrainLoads())
}

func TestQuit(t *testing.T) {
	h := newHarness(t, nil, nil)
	assert.False(t, h.rc.Quit())
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_ESCAPE)))
	assert.True(t, h.rc.Quit())
}

func TestDrawFrameWithoutAssetsOnlyClears(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.rc.DrawFrame())
	assert.Empty(t, h.gpu.draws)
}

func TestDrawFrameMissingProgramKeepsRunning(t *testing.T) {
	h := newHarness(t, nil, nil)
	_, err := h.registry.Add(cloudOf("a", 3))
	require.NoError(t, err)

	h.binder.broken["splat"] = true
	assert.Error(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_S)))
	assert.NoError(t, h.rc.DrawFrame())
	assert.NoError(t, h.rc.DrawFrame())
	assert.Empty(t, h.gpu.draws)

	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_S)))
	require.NoError(t, h.rc.DrawFrame())
	assert.Len(t, h.gpu.draws, 1)
}

func TestNextAssetCycles(t *testing.T) {
	h := newHarness(t, nil, nil)
	// No assets yet: M is a no-op.
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_M)))

	_, _ = h.registry.Add(cloudOf("a", 1))
	_, _ = h.registry.Add(cloudOf("b", 2))
	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_M)))
	require.NoError(t, h.rc.DrawFrame())
	require.Len(t, h.gpu.draws, 1)
	assert.Equal(t, 2, h.gpu.draws[0].Count())
}

func TestOpenFileLoadsAndSelects(t *testing.T) {
	var opened string
	open := func(path string) (*pointcloud.Cloud, error) {
		opened = path
		return cloudOf("scan", 5), nil
	}
	h := newHarness(t, stubChooser{path: "/data/scan.xyz"}, open)
	_, _ = h.registry.Add(cloudOf("cube", 1))

	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_O)))
	waitResults(t, h.rc, 1)

	assert.Equal(t, "/data/scan.xyz", opened)
	e, ok := h.registry.Active()
	require.True(t, ok)
	assert.Equal(t, "scan", e.Cloud.Name)
}

func TestOpenFileFailureKeepsSelection(t *testing.T) {
	open := func(string) (*pointcloud.Cloud, error) { return nil, errors.New("bad file") }
	h := newHarness(t, stubChooser{path: "/bad.ply"}, open)
	_, _ = h.registry.Add(cloudOf("cube", 1))

	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_O)))
	assert.False(t, h.rc.register(recv(t, h.loads)))
	assert.Equal(t, 1, h.registry.Len())
	assert.Equal(t, 0, h.registry.ActiveIndex())
}

func TestOpenFileEmptyCloudDiscarded(t *testing.T) {
	open := func(string) (*pointcloud.Cloud, error) { return pointcloud.New("empty", 0), nil }
	h := newHarness(t, stubChooser{path: "/empty.xyz"}, open)

	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_O)))
	assert.False(t, h.rc.register(recv(t, h.loads)))
	assert.Equal(t, 0, h.registry.Len())
}

func TestOpenFileCancelled(t *testing.T) {
	called := false
	open := func(string) (*pointcloud.Cloud, error) {
		called = true
		return nil, nil
	}
	h := newHarness(t, stubChooser{err: ErrCancelled}, open)

	require.NoError(t, h.rc.HandleEvent(keyDown(sdl.SCANCODE_O)))
	res := recv(t, h.loads)
	assert.ErrorIs(t, res.Err, ErrCancelled)
	assert.False(t, h.rc.register(res))
	assert.False(t, called)
}

func TestReloadTechniques(t *testing.T) {
	h := newHarness(t, nil, nil)
	err := h.rc.ReloadTechniques([]pipeline.Technique{
		{Program: shader.Program{Name: "points", Description: "Edited points"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, h.cache.n)
	assert.Equal(t, "splatview | Edited points | SinglePass", h.window.last())
}
