package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/platform"
	"github.com/spaghettifunk/vista/engine/renderer"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
	"github.com/spaghettifunk/vista/engine/renderer/opengl"
	"github.com/spaghettifunk/vista/engine/resources"
)

type Stage uint8

const (
	EngineStageUninitialized Stage = iota
	EngineStageInitializing
	EngineStageInitialized
	EngineStageRunning
	EngineStageShuttingDown
	EngineStageShutdown
)

// Pending asset notifications buffered between two frames.
const watcherBuffer = 64

type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool
	isSuspended  bool
	width        uint32
	height       uint32
	clock        *core.Clock
	metrics      *core.FrameMetrics
	lastTime     float64

	// Set by Shutdown, possibly before Run started.
	stopRequested atomic.Bool

	events    *core.EventSystem
	platform  platform.Platform
	video     *renderer.VideoOutput
	painter   metadata.Painter
	locator   *resources.FileLocator
	resources *resources.ResourceSystem
	watcher   *resources.Watcher
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("game and application config are required")
	}
	if err := g.ApplicationConfig.Validate(); err != nil {
		return nil, err
	}
	events := core.NewEventSystem()
	return NewWithPlatform(g, events, platform.NewGLFWPlatform(events), opengl.New()), nil
}

// NewWithPlatform builds the engine on an explicit platform and backend.
func NewWithPlatform(g *Game, events *core.EventSystem, p platform.Platform, backend renderer.RendererBackend) *Engine {
	config := g.ApplicationConfig
	options := renderer.DefaultVideoOptions()
	options.Title = config.Name
	options.VSync = config.VSync

	size := config.Windowed()
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
		width:        uint32(size.X),
		height:       uint32(size.Y),
		events:       events,
		platform:     p,
		video:        renderer.NewVideoOutput(p, backend, events, options),
	}
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig
	core.SetLogLevel(config.Level())

	if err := e.video.SetVideo(config.Type(), config.Fullscreen(), config.Windowed(), config.Virtual(), config.Screen); err != nil {
		core.LogError("failed to set the video mode: %s", err)
		return err
	}
	// Registered after the video output so games observe the updated geometry.
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	size := e.video.WindowSize()
	e.width, e.height = uint32(size.X), uint32(size.Y)

	assetDir := config.AssetDir
	if !filepath.IsAbs(assetDir) {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		assetDir = filepath.Join(wd, assetDir)
	}
	locator, err := resources.NewFileLocator(assetDir)
	if err != nil {
		core.LogError("failed to open the asset directory: %s", err)
		return err
	}
	e.locator = locator

	e.resources = resources.NewResourceSystem(locator, e.video, e.video)
	if err := e.resources.Initialize(); err != nil {
		return err
	}

	watcher, err := resources.NewWatcher(locator, watcherBuffer)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		core.LogWarn("asset watcher disabled: %s", err)
		_ = watcher.Close()
	} else {
		e.watcher = watcher
	}

	e.painter = e.video.CreatePainter()

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e.frameContext()); err != nil {
			core.LogError("game failed to initialize: %s", err)
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", config.Name)
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var err error
	for e.isRunning.Load() && !e.stopRequested.Load() {
		e.platform.PumpMessages()
		if e.isSuspended {
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		e.reloadChangedAssets()

		if err = e.frame(delta); err != nil {
			break
		}

		e.clock.Update()
		e.metrics.Update(e.clock.Elapsed() - currentTime)
		e.lastTime = currentTime
	}

	e.teardown()
	return err
}

func (e *Engine) frame(delta float64) error {
	e.video.StartRender()
	e.resources.Update()

	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			return err
		}
	}

	e.painter.StartRender()
	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(e.frameContext(), delta); err != nil {
			e.painter.EndRender()
			core.LogError("game render failed, shutting down: %s", err)
			return err
		}
	}
	e.painter.EndRender()

	return e.video.FinishRender()
}

// reloadChangedAssets drains the watcher without blocking. Removed assets stay
// resident until their last reference is released.
func (e *Engine) reloadChangedAssets() {
	if e.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-e.watcher.Changes():
			if !ok {
				e.watcher = nil
				return
			}
			if change.Removed {
				continue
			}
			if err := e.resources.Reload(change.AssetID); err != nil {
				core.LogWarn("failed to reload '%s': %s", change.AssetID, err)
			}
		default:
			return
		}
	}
}

// Shutdown asks the run loop to stop. It is safe to call from any goroutine and
// only ever flags the request; Run tears everything down on the render thread
// once the current frame ends.
func (e *Engine) Shutdown() error {
	e.stopRequested.Store(true)
	e.isRunning.Store(false)
	return nil
}

func (e *Engine) teardown() {
	if e.currentStage == EngineStageShutdown || e.currentStage == EngineStageShuttingDown {
		return
	}
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()

	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("failed to close the asset watcher: %s", err)
		}
		e.watcher = nil
	}
	if e.resources != nil {
		e.resources.Shutdown()
	}
	if e.painter != nil {
		e.painter.Release()
		e.painter = nil
	}
	e.video.DeInit()
	_ = e.events.Shutdown()

	e.currentStage = EngineStageShutdown
	core.LogInfo("average frame time %.2fms, %.0f fps", e.metrics.FrameTime(), e.metrics.FPS())
}

func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Video() *renderer.VideoOutput {
	return e.video
}

func (e *Engine) frameContext() *FrameContext {
	return &FrameContext{
		Video:     e.video,
		Painter:   e.painter,
		Resources: e.resources,
	}
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	se, ok := context.Data.(*core.SystemEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}

	width := se.WindowWidth
	height := se.WindowHeight
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}
