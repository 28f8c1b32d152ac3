package renderer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/platform"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

type videoState int

const (
	videoUninitialized videoState = iota
	videoInitialized
	videoDeinitialized
)

type VideoOptions struct {
	Title string
	VSync bool
	/** @brief Colour of the letterbox bars. */
	BorderColour [4]float32
	/** @brief Capacity of the background texture job channel. */
	LoaderQueueSize int
}

func DefaultVideoOptions() VideoOptions {
	return VideoOptions{
		Title:           "Vista",
		VSync:           true,
		BorderColour:    [4]float32{0, 0, 0, 1},
		LoaderQueueSize: 64,
	}
}

/**
 * @brief Owns the game window and its rendering context, maps the virtual
 * resolution onto the window and drives the frame cycle. Render thread only.
 */
type VideoOutput struct {
	platform platform.Platform
	backend  RendererBackend
	events   *core.EventSystem
	options  VideoOptions

	state   videoState
	window  platform.Window
	context platform.Context
	info    BackendInfo

	windowType       platform.WindowType
	lastWindowedType platform.WindowType
	fullscreenSize   math.Vector2i
	windowedSize     math.Vector2i
	screen           int
	requestedVirtual math.Vector2f
	windowSize       math.Vector2i
	dimensions       Dimensions

	targets *TargetStack
	loader  *TextureLoadQueue
}

// NewVideoOutput wires the output to a platform and a backend. Events may be nil,
// in which case resize notifications must be fed through ProcessEvent.
func NewVideoOutput(p platform.Platform, backend RendererBackend, events *core.EventSystem, options VideoOptions) *VideoOutput {
	if options.LoaderQueueSize <= 0 {
		options.LoaderQueueSize = DefaultVideoOptions().LoaderQueueSize
	}
	return &VideoOutput{
		platform:         p,
		backend:          backend,
		events:           events,
		options:          options,
		lastWindowedType: platform.WindowTypeWindow,
		targets:          NewTargetStack(backend),
		loader:           NewTextureLoadQueue(backend, options.LoaderQueueSize),
	}
}

// SetVideo establishes the display mode. The first call creates the window and
// the context; later calls only switch fullscreen, resize and recenter.
func (v *VideoOutput) SetVideo(windowType platform.WindowType, fullscreenSize, windowedSize math.Vector2i, virtualSize math.Vector2f, screen int) error {
	if v.state == videoDeinitialized {
		return core.ErrDeinitialized
	}
	if windowType == platform.WindowTypeNone {
		return fmt.Errorf("window type %s cannot be displayed: %w", windowType, core.ErrInitialization)
	}

	v.fullscreenSize = fullscreenSize
	v.windowedSize = windowedSize
	v.screen = screen
	v.requestedVirtual = virtualSize

	if v.state == videoUninitialized {
		return v.initialize(windowType)
	}
	v.reconfigure(windowType)
	return nil
}

func (v *VideoOutput) initialize(windowType platform.WindowType) error {
	if err := v.platform.Initialize(); err != nil {
		return initializationError("video subsystem", err)
	}
	core.LogInfo("video drivers: %s", strings.Join(v.platform.VideoDrivers(), ", "))

	size := v.modeSize(windowType)
	rect := platform.CenteredRect(v.platform, v.screen, size)
	window, err := v.platform.CreateWindow(platform.WindowDefinition{
		Title:     v.options.Title,
		Type:      windowType,
		Size:      size,
		Position:  math.NewVector2i(rect.X, rect.Y),
		Display:   v.screen,
		Resizable: windowType == platform.WindowTypeWindow,
	}, platform.DefaultPixelFormat())
	if err != nil {
		v.platform.Terminate()
		return initializationError("window", err)
	}

	ctx, err := v.platform.CreateContext(window)
	if err != nil {
		window.Destroy()
		v.platform.Terminate()
		return initializationError("rendering context", err)
	}

	if err := v.backend.Initialize(); err != nil {
		v.release(ctx, window)
		return initializationError("backend", err)
	}
	v.info = v.backend.Info()
	core.LogInfo("OpenGL version: %s", v.info.Version)
	core.LogInfo("vendor: %s", v.info.Vendor)
	core.LogInfo("renderer: %s", v.info.Renderer)
	core.LogInfo("GLSL version: %s", v.info.ShadingLanguageVersion)
	if !v.info.SupportsShaders() {
		v.backend.Shutdown()
		v.release(ctx, window)
		core.LogError("the video driver does not support shaders")
		return fmt.Errorf("shading language: %w", core.ErrUnsupportedFeature)
	}

	v.window = window
	v.context = ctx
	v.windowType = windowType
	if windowType != platform.WindowTypeFullscreen {
		v.lastWindowedType = windowType
	}
	if v.options.VSync {
		v.platform.SetSwapInterval(1)
	} else {
		v.platform.SetSwapInterval(0)
	}

	v.windowSize = window.Size()
	v.updateWindowDimensions()
	core.LogInfo("window size: %dx%d (%s)", v.windowSize.X, v.windowSize.Y, windowType)

	v.backend.Clear(0, 0, 0, 1)
	v.Flip()
	window.Show()

	v.loader.Start(context.Background())
	if v.events != nil {
		v.events.Register(core.EVENT_CODE_RESIZED, v, v.ProcessEvent)
	}
	v.state = videoInitialized
	return nil
}

func (v *VideoOutput) reconfigure(windowType platform.WindowType) {
	wasFullscreen := v.windowType == platform.WindowTypeFullscreen
	size := v.modeSize(windowType)
	if windowType == platform.WindowTypeFullscreen {
		v.window.SetFullscreen(v.screen, size)
	} else {
		rect := platform.CenteredRect(v.platform, v.screen, size)
		v.window.SetWindowed(rect, windowType == platform.WindowTypeBorderlessWindow)
		v.lastWindowedType = windowType
	}
	v.windowType = windowType

	v.windowSize = v.window.Size()
	v.updateWindowDimensions()

	if fullscreen := windowType == platform.WindowTypeFullscreen; fullscreen != wasFullscreen && v.events != nil {
		v.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_FULLSCREEN_TOGGLED,
			Data: &core.SystemEvent{
				WindowWidth:  uint32(v.windowSize.X),
				WindowHeight: uint32(v.windowSize.Y),
				Fullscreen:   fullscreen,
			},
		})
	}
}

// modeSize picks the requested window size for the mode. A zero fullscreen size
// means the native size of the target display.
func (v *VideoOutput) modeSize(windowType platform.WindowType) math.Vector2i {
	if windowType != platform.WindowTypeFullscreen {
		return v.windowedSize
	}
	if v.fullscreenSize.IsZero() {
		if size := v.GetScreenSize(v.screen); !size.IsZero() {
			return size
		}
		return v.GetScreenSize(0)
	}
	return v.fullscreenSize
}

func (v *VideoOutput) SetWindowSize(size math.Vector2i) {
	v.windowSize = size
	v.updateWindowDimensions()
}

// SetVirtualSize changes the virtual resolution. The window is left untouched.
func (v *VideoOutput) SetVirtualSize(size math.Vector2f) {
	v.requestedVirtual = size
	v.updateWindowDimensions()
}

func (v *VideoOutput) updateWindowDimensions() {
	v.dimensions = ComputeDimensions(v.windowSize, v.requestedVirtual)
	if v.context != nil {
		v.targets.SetRoot(NewScreenRenderTarget(v.targets, v.dimensions.VirtualSize, v.dimensions.ViewPort()))
	}
}

func (v *VideoOutput) SetFullscreen(fullscreen bool) error {
	if v.state != videoInitialized {
		return fmt.Errorf("fullscreen switch before SetVideo: %w", core.ErrInitialization)
	}
	windowType := v.lastWindowedType
	if fullscreen {
		windowType = platform.WindowTypeFullscreen
	}
	if windowType == v.windowType {
		return nil
	}
	return v.SetVideo(windowType, v.fullscreenSize, v.windowedSize, v.requestedVirtual, v.screen)
}

func (v *VideoOutput) ToggleFullscreen() error {
	return v.SetFullscreen(!v.IsFullscreen())
}

func (v *VideoOutput) IsFullscreen() bool {
	return v.windowType == platform.WindowTypeFullscreen
}

// ProcessEvent turns resize notifications into geometry updates. It never
// consumes the event.
func (v *VideoOutput) ProcessEvent(event core.EventContext) bool {
	if event.Type != core.EVENT_CODE_RESIZED {
		return false
	}
	data, ok := event.Data.(*core.SystemEvent)
	if !ok {
		return false
	}
	v.SetWindowSize(math.NewVector2i(int(data.WindowWidth), int(data.WindowHeight)))
	return false
}

// GetUniformBinding snapshots uniform values for a later upload.
func (v *VideoOutput) GetUniformBinding(address int32, kind metadata.UniformType, count int, data any) (metadata.UniformBinding, error) {
	return metadata.NewUniformBinding(address, kind, count, data)
}

// ApplyUniform uploads a binding into the currently bound program.
func (v *VideoOutput) ApplyUniform(binding metadata.UniformBinding) {
	binding.Apply(v.backend)
}

func (v *VideoOutput) CreateTexture(descriptor *metadata.TextureDescriptor) (metadata.Texture, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrResourceLoad)
	}
	return v.backend.CreateTexture(descriptor)
}

func (v *VideoOutput) CreateShader(name string) metadata.Shader {
	return v.backend.CreateShader(name)
}

func (v *VideoOutput) CreatePainter() metadata.Painter {
	return v.backend.CreatePainter()
}

func (v *VideoOutput) CreateTextureRenderTarget(size math.Vector2i) (*TextureRenderTarget, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("render target size %dx%d is invalid", size.X, size.Y)
	}
	return newTextureRenderTarget(v.targets, v.backend, size)
}

// LoadTextureAsync decodes on the loader goroutine and uploads during a later StartRender.
func (v *VideoOutput) LoadTextureAsync(ctx context.Context, name string, decode TextureDecodeFunc) (*PendingTexture, error) {
	return v.loader.Submit(ctx, name, decode)
}

// StartRender uploads pending textures and binds the screen target.
func (v *VideoOutput) StartRender() {
	if v.state != videoInitialized {
		return
	}
	v.loader.Upload(0)
	v.targets.Reset()
}

// FinishRender paints the letterbox bars, presents the frame and checks the
// backend for errors. Only a lost context is returned.
func (v *VideoOutput) FinishRender() error {
	if v.state != videoInitialized {
		return core.ErrDeinitialized
	}
	if v.targets.Depth() > 0 {
		core.LogWarn("%d render target(s) left bound at the end of the frame", v.targets.Depth())
	}

	rects := v.dimensions.LetterboxRects()
	if len(rects) > 0 {
		c := v.options.BorderColour
		v.backend.BindFramebuffer(nil)
		v.backend.SetViewport(math.NewRect4i(0, 0, v.windowSize.X, v.windowSize.Y))
		for _, r := range rects {
			v.backend.ClearRect(r, c[0], c[1], c[2], c[3])
		}
	}

	v.Flip()

	if err := v.backend.CheckError(); err != nil {
		if errors.Is(err, core.ErrContextLost) {
			core.LogError("rendering context lost: %s", err)
			return err
		}
		core.LogWarn("backend reported: %s", err)
	}
	return nil
}

// Flip presents the back buffer.
func (v *VideoOutput) Flip() {
	if v.window != nil {
		v.window.SwapBuffers()
	}
}

// GetScreenSize returns the size of a display, zero when it does not exist.
func (v *VideoOutput) GetScreenSize(display int) math.Vector2i {
	rect, ok := v.platform.DisplayRect(display)
	if !ok {
		return math.Vector2i{}
	}
	return rect.Size()
}

func (v *VideoOutput) GetWindowRect() math.Rect4i {
	if v.window == nil {
		return math.Rect4i{}
	}
	pos := v.window.Position()
	size := v.window.Size()
	return math.NewRect4i(pos.X, pos.Y, size.X, size.Y)
}

// GetDisplayRect returns the bounds of the display the window was placed on.
func (v *VideoOutput) GetDisplayRect() math.Rect4i {
	rect, ok := v.platform.DisplayRect(v.screen)
	if !ok {
		return math.Rect4i{}
	}
	return rect
}

// DeInit stops the texture loader, then releases the context, the window and the
// video subsystem. Terminal.
func (v *VideoOutput) DeInit() {
	if v.state != videoInitialized {
		return
	}
	if v.events != nil {
		v.events.Unregister(core.EVENT_CODE_RESIZED, v)
	}
	v.loader.Stop()
	v.backend.Shutdown()
	v.release(v.context, v.window)
	v.context = nil
	v.window = nil
	v.state = videoDeinitialized
	core.LogInfo("video output deinitialized")
}

func (v *VideoOutput) release(ctx platform.Context, window platform.Window) {
	if ctx != nil {
		ctx.Destroy()
	}
	if window != nil {
		window.Destroy()
	}
	v.platform.Terminate()
}

func (v *VideoOutput) IsInitialized() bool {
	return v.state == videoInitialized
}

func (v *VideoOutput) Info() BackendInfo {
	return v.info
}

func (v *VideoOutput) Window() platform.Window {
	return v.window
}

func (v *VideoOutput) WindowType() platform.WindowType {
	return v.windowType
}

func (v *VideoOutput) WindowSize() math.Vector2i {
	return v.windowSize
}

// VirtualSize is the effective virtual size, the window size when none was requested.
func (v *VideoOutput) VirtualSize() math.Vector2f {
	return v.dimensions.VirtualSize
}

func (v *VideoOutput) Scale() float32 {
	return v.dimensions.Scale
}

func (v *VideoOutput) Border() float32 {
	return v.dimensions.Border
}

// Origin is the top-left corner of the drawable rectangle.
func (v *VideoOutput) Origin() math.Vector2f {
	return v.dimensions.P1
}

func (v *VideoOutput) Dimensions() Dimensions {
	return v.dimensions
}

func (v *VideoOutput) LetterboxRects() []math.Rect4i {
	return v.dimensions.LetterboxRects()
}

// ScreenTarget is the current screen render target, nil before SetVideo.
func (v *VideoOutput) ScreenTarget() *ScreenRenderTarget {
	return v.targets.Root()
}

func (v *VideoOutput) Targets() *TargetStack {
	return v.targets
}

func initializationError(what string, err error) error {
	if errors.Is(err, core.ErrInitialization) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%s: %v: %w", what, err, core.ErrInitialization)
}
