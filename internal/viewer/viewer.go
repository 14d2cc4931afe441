package viewer

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/assets"
	"github.com/Faultbox/splatview/internal/config"
	"github.com/Faultbox/splatview/internal/engine/camera"
	"github.com/Faultbox/splatview/internal/engine/input"
	"github.com/Faultbox/splatview/internal/engine/pipeline"
	"github.com/Faultbox/splatview/internal/engine/projection"
	"github.com/Faultbox/splatview/internal/engine/renderer"
	"github.com/Faultbox/splatview/internal/engine/shader"
	"github.com/Faultbox/splatview/internal/engine/window"
	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/internal/pointcloud"
	"github.com/Faultbox/splatview/internal/sampler"
)

// Title is the fixed prefix of the window title.
const Title = "splatview"

// loadQueueSize bounds pending and undrained loads.
const loadQueueSize = 16

// Viewer is the application: window, GL state, input and the frame loop.
type Viewer struct {
	cfg *config.Config

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	catalog  *shader.Catalog
	watcher  *shader.Watcher
	loader   *assets.Loader
	loads    *LoadQueue
	registry *assets.Registry
	ctx      *RenderContext
}

// New creates the window and GL context, compiles the start program and
// queues the startup assets.
func New(cfg *config.Config) (*Viewer, error) {
	logger.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	v := &Viewer{cfg: cfg}
	var err error

	// The catalog is read before any window exists so a broken manifest
	// fails fast.
	v.catalog, err = shader.NewCatalog(cfg.Shaders.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading shader catalog: %w", err)
	}
	techniques, err := pipeline.LoadTechniques(v.catalog)
	if err != nil {
		return nil, fmt.Errorf("loading techniques: %w", err)
	}

	v.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer comes AFTER the window, since the GL context must exist.
	v.renderer, err = renderer.New()
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	width, height := v.window.DrawableSize()
	v.renderer.Resize(width, height)
	proj := projection.NewBroadcaster(projection.Lens{
		FovYDegrees: cfg.Camera.FovY,
		Near:        cfg.Camera.Near,
		Far:         cfg.Camera.Far,
	}, width, height)

	pipe, err := pipeline.New(v.renderer, v.renderer, proj, techniques, cfg.Shaders.Start, cfg.Splat.Radius)
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, fmt.Errorf("binding start program: %w", err)
	}

	seed := cfg.Sampling.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Debug("sampler seeded", zap.Int64("seed", seed))

	v.loader = assets.NewLoader(cfg.Sampling.SamplesPerTriangle, sampler.NewSource(seed))
	v.loads, err = StartQueue(loadQueueSize, StartupJobs(v.loader, cfg.Sampling.SphereSamples, cfg.Assets.Paths))
	if err != nil {
		v.renderer.Close()
		v.window.Close()
		return nil, err
	}
	v.registry = assets.NewRegistry(upload)
	v.input = input.New()

	v.ctx = NewRenderContext(Settings{
		Title:           Title,
		DragSensitivity: cfg.Camera.DragSensitivity,
		ZoomStep:        cfg.Camera.ZoomStep,
		RadiusStep:      cfg.Splat.RadiusStep,
	}, ContextDeps{
		Camera:   camera.NewOrbit(cfg.Camera.Distance),
		Pipeline: pipe,
		Registry: v.registry,
		Window:   v.window,
		Programs: v.renderer,
		Chooser:  DialogChooser{},
		Loads:    v.loads,
		Open:     v.loader.Load,
	})

	if cfg.Shaders.Dir != "" {
		v.watcher, err = shader.Watch(cfg.Shaders.Dir)
		if err != nil {
			// Hot reload is optional; the embedded fallbacks still work.
			logger.Warn("shader hot reload disabled", zap.Error(err))
		}
	}

	logger.Info("viewer initialized successfully")
	return v, nil
}

// StartupJobs returns the jobs that build the initial asset list: the
// sampled cube, the sampled sphere, then each configured path.
func StartupJobs(loader *assets.Loader, sphereSamples int, paths []string) []Job {
	jobs := []Job{
		{Name: "cube", Build: func() (*pointcloud.Cloud, error) { return loader.Cube(), nil }},
		{Name: "sphere", Build: func() (*pointcloud.Cloud, error) { return loader.Sphere(sphereSamples), nil }},
	}
	for _, p := range paths {
		jobs = append(jobs, Job{Name: p, Build: func() (*pointcloud.Cloud, error) { return loader.Load(p) }})
	}
	return jobs
}

// Run starts the frame loop and returns when the user quits.
func (v *Viewer) Run() error {
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting frame loop")

	for !v.ctx.Quit() {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Input
		if v.input.Update() {
			break
		}
		for _, ev := range v.input.Events() {
			if ev.Type == input.EventWindowResize {
				v.resize()
				continue
			}
			if err := v.ctx.HandleEvent(ev); err != nil {
				logger.Warn("command failed", zap.Error(err))
			}
		}

		// 2. Hand-offs from background goroutines
		v.ctx.DrainLoads()
		v.pollShaderChanges()

		// 3. Render
		if err := v.ctx.DrawFrame(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 4. Present
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
				zap.Int("assets", v.registry.Len()),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (v *Viewer) resize() {
	width, height := v.window.DrawableSize()
	v.renderer.Resize(width, height)
	v.ctx.Resize(width, height)
}

func (v *Viewer) pollShaderChanges() {
	if v.watcher == nil {
		return
	}
	select {
	case <-v.watcher.Changed():
	default:
		return
	}

	if err := v.catalog.Reload(); err != nil {
		logger.Warn("shader reload failed, keeping current programs", zap.Error(err))
		return
	}
	techniques, err := pipeline.LoadTechniques(v.catalog)
	if err != nil {
		logger.Warn("shader reload failed, keeping current programs", zap.Error(err))
		return
	}
	if err := v.ctx.ReloadTechniques(techniques); err != nil {
		logger.Warn("reloaded program does not bind", zap.Error(err))
		return
	}
	logger.Info("shaders reloaded", zap.Int("techniques", len(techniques)))
}

// Close releases GPU resources, stops background goroutines and destroys
// the window.
func (v *Viewer) Close() error {
	logger.Info("closing viewer")

	var err error
	if v.loads != nil {
		v.loads.Close()
	}
	if v.watcher != nil {
		err = multierr.Append(err, v.watcher.Close())
	}
	if v.registry != nil {
		err = multierr.Append(err, v.registry.Close())
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
	return err
}

func upload(c *pointcloud.Cloud) (pipeline.Drawable, error) {
	m, err := renderer.Upload(c)
	if err != nil {
		return nil, err
	}
	return m, nil
}

