// Package viewer ties the camera, the render pipeline and the asset registry
// to window input and runs the frame loop.
package viewer

import (
	"errors"
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/splatview/internal/assets"
	"github.com/Faultbox/splatview/internal/engine/camera"
	"github.com/Faultbox/splatview/internal/engine/input"
	"github.com/Faultbox/splatview/internal/engine/pipeline"
	"github.com/Faultbox/splatview/internal/logger"
	"github.com/Faultbox/splatview/internal/pointcloud"
)

// Command is a user action bound to a key.
type Command int

const (
	CmdNone Command = iota
	CmdQuit
	CmdRadiusUp
	CmdRadiusDown
	CmdResetCamera
	CmdNextProgram
	CmdNextAsset
	CmdOpenFile
	CmdTogglePasses
)

var keyBindings = map[sdl.Scancode]Command{
	sdl.SCANCODE_ESCAPE: CmdQuit,
	sdl.SCANCODE_UP:     CmdRadiusUp,
	sdl.SCANCODE_DOWN:   CmdRadiusDown,
	sdl.SCANCODE_R:      CmdResetCamera,
	sdl.SCANCODE_S:      CmdNextProgram,
	sdl.SCANCODE_M:      CmdNextAsset,
	sdl.SCANCODE_O:      CmdOpenFile,
	sdl.SCANCODE_P:      CmdTogglePasses,
}

// repeats reports whether holding the key keeps firing the command.
func (c Command) repeats() bool {
	return c == CmdRadiusUp || c == CmdRadiusDown
}

// TitleSetter receives the window title.
type TitleSetter interface {
	SetTitle(title string)
}

// ProgramCache drops compiled programs so they are rebuilt on next use.
type ProgramCache interface {
	Invalidate()
}

// Settings are the tunables the context reads on input.
type Settings struct {
	Title           string
	DragSensitivity float32
	ZoomStep        float32
	RadiusStep      float32
}

// RenderContext owns all per-frame state. It is used only by the render
// thread; workers reach it through the load queue.
type RenderContext struct {
	settings Settings
	log      *zap.Logger

	camera   *camera.Orbit
	pipe     *pipeline.Pipeline
	registry *assets.Registry
	window   TitleSetter
	programs ProgramCache
	chooser  FileChooser
	loads    *LoadQueue
	open     func(path string) (*pointcloud.Cloud, error)

	dragging     bool
	lastX, lastY int
	quit         bool
	warnedNoProg bool
}

// ContextDeps are the collaborators a RenderContext drives.
type ContextDeps struct {
	Camera   *camera.Orbit
	Pipeline *pipeline.Pipeline
	Registry *assets.Registry
	Window   TitleSetter
	Programs ProgramCache
	Chooser  FileChooser
	Loads    *LoadQueue
	// Open loads a path picked with the file chooser. It runs on the load
	// worker.
	Open func(path string) (*pointcloud.Cloud, error)
}

// NewRenderContext creates a context and sets the initial window title.
func NewRenderContext(s Settings, deps ContextDeps) *RenderContext {
	rc := &RenderContext{
		settings: s,
		log:      logger.Named("viewer"),
		camera:   deps.Camera,
		pipe:     deps.Pipeline,
		registry: deps.Registry,
		window:   deps.Window,
		programs: deps.Programs,
		chooser:  deps.Chooser,
		loads:    deps.Loads,
		open:     deps.Open,
	}
	rc.updateTitle()
	return rc
}

// Title returns "<title> | <program description> | <pass mode>".
func (rc *RenderContext) Title() string {
	return fmt.Sprintf("%s | %s | %s", rc.settings.Title, rc.pipe.Description(), rc.pipe.Mode())
}

// Quit reports whether the user asked to leave.
func (rc *RenderContext) Quit() bool {
	return rc.quit
}

// HandleEvent applies one input event.
func (rc *RenderContext) HandleEvent(ev input.Event) error {
	switch ev.Type {
	case input.EventQuit:
		rc.quit = true

	case input.EventKeyDown:
		cmd, ok := keyBindings[ev.Key]
		if !ok || (ev.Repeat && !cmd.repeats()) {
			return nil
		}
		return rc.Execute(cmd)

	case input.EventMouseDown:
		if ev.Button == sdl.BUTTON_LEFT {
			rc.dragging = true
		}
		rc.lastX, rc.lastY = ev.MouseX, ev.MouseY

	case input.EventMouseUp:
		if ev.Button == sdl.BUTTON_LEFT {
			rc.dragging = false
		}

	case input.EventMouseMove:
		if rc.dragging {
			dx := float32(rc.lastX - ev.MouseX)
			dy := float32(rc.lastY - ev.MouseY)
			rc.camera.ApplyDrag(dx, dy, rc.settings.DragSensitivity)
		}
		rc.lastX, rc.lastY = ev.MouseX, ev.MouseY

	case input.EventMouseWheel:
		rc.camera.ApplyZoom(float32(ev.WheelY) * rc.settings.ZoomStep)
	}
	return nil
}

// Execute runs a command.
func (rc *RenderContext) Execute(cmd Command) error {
	switch cmd {
	case CmdQuit:
		rc.quit = true

	case CmdRadiusUp:
		rc.pipe.SetSplatRadius(rc.pipe.SplatRadius() + rc.settings.RadiusStep)
		rc.log.Debug("splat radius", zap.Float32("radius", rc.pipe.SplatRadius()))

	case CmdRadiusDown:
		r := rc.pipe.SplatRadius() - rc.settings.RadiusStep
		if r < 0 {
			r = 0
		}
		rc.pipe.SetSplatRadius(r)
		rc.log.Debug("splat radius", zap.Float32("radius", r))

	case CmdResetCamera:
		rc.camera.Reset()

	case CmdNextProgram:
		rc.invalidatePrograms()
		rc.warnedNoProg = false
		err := rc.pipe.NextTechnique()
		rc.updateTitle()
		return err

	case CmdNextAsset:
		e, err := rc.registry.Next()
		if err != nil {
			rc.log.Warn("no assets to cycle")
			return nil
		}
		rc.log.Info("asset selected", zap.String("name", e.Cloud.Name), zap.Int("index", rc.registry.ActiveIndex()))

	case CmdOpenFile:
		return rc.openFile()

	case CmdTogglePasses:
		rc.warnedNoProg = false
		err := rc.pipe.Toggle()
		rc.updateTitle()
		return err
	}
	return nil
}

// Resize records a new drawable size.
func (rc *RenderContext) Resize(width, height int) {
	rc.pipe.Resize(width, height)
}

// ReloadTechniques swaps in freshly loaded techniques and forces every
// program to recompile.
func (rc *RenderContext) ReloadTechniques(techniques []pipeline.Technique) error {
	rc.invalidatePrograms()
	rc.warnedNoProg = false
	err := rc.pipe.SetTechniques(techniques)
	rc.updateTitle()
	return err
}

// DrainLoads registers every finished load without blocking. It returns the
// number of assets added.
func (rc *RenderContext) DrainLoads() int {
	added := 0
	for {
		select {
		case res := <-rc.loads.Results():
			if rc.register(res) {
				added++
			}
		default:
			return added
		}
	}
}

// DrawFrame renders the active asset. A missing program leaves the frame
// cleared and is logged once until the selection changes.
func (rc *RenderContext) DrawFrame() error {
	var d pipeline.Drawable
	if e, ok := rc.registry.Active(); ok {
		d = e.Drawable
	}

	err := rc.pipe.Frame(rc.camera.ViewMatrix(), rc.camera.NormalMatrix(), d)
	if errors.Is(err, pipeline.ErrNoProgram) {
		if !rc.warnedNoProg {
			rc.log.Warn("program missing", zap.String("technique", rc.pipe.Description()), zap.Error(err))
			rc.warnedNoProg = true
		}
		return nil
	}
	return err
}

func (rc *RenderContext) register(res LoadResult) bool {
	if errors.Is(res.Err, ErrCancelled) {
		rc.log.Debug("file selection cancelled")
		return false
	}
	if res.Err != nil {
		rc.log.Warn("asset discarded", zap.String("source", res.Name), zap.Error(res.Err))
		return false
	}
	idx, err := rc.registry.Add(res.Cloud)
	if err != nil {
		rc.log.Warn("asset discarded", zap.String("source", res.Name), zap.Error(err))
		return false
	}
	if res.Activate {
		if err := rc.registry.Select(idx); err != nil {
			rc.log.Warn("selecting asset failed", zap.Error(err))
		}
	}
	return true
}

// openFile hands the dialog and the load to the worker so the frame loop
// keeps running while the dialog is open.
func (rc *RenderContext) openFile() error {
	if rc.chooser == nil || rc.open == nil {
		return nil
	}
	chooser, open := rc.chooser, rc.open
	rc.loads.Enqueue(Job{
		Name: "open file",
		Build: func() (*pointcloud.Cloud, error) {
			path, err := chooser.Choose()
			if err != nil {
				return nil, err
			}
			return open(path)
		},
		Activate: true,
	})
	return nil
}

func (rc *RenderContext) updateTitle() {
	if rc.window != nil {
		rc.window.SetTitle(rc.Title())
	}
}

func (rc *RenderContext) invalidatePrograms() {
	if rc.programs != nil {
		rc.programs.Invalidate()
	}
}
