package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

const (
	glContextMajor = 3
	glContextMinor = 3
)

/**
 * @brief Platform implementation over GLFW with an OpenGL 3.3 core context.
 */
type GLFWPlatform struct {
	events      *core.EventSystem
	initialized bool
}

func NewGLFWPlatform(events *core.EventSystem) *GLFWPlatform {
	return &GLFWPlatform{events: events}
}

func (p *GLFWPlatform) Initialize() error {
	if p.initialized {
		return nil
	}
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return fmt.Errorf("glfw: %v: %w", err, core.ErrInitialization)
	}
	p.initialized = true
	return nil
}

func (p *GLFWPlatform) VideoDrivers() []string {
	return []string{"glfw " + glfw.GetVersionString()}
}

func (p *GLFWPlatform) NumDisplays() int {
	return len(glfw.GetMonitors())
}

// DisplayRect uses the current video mode of the monitor. Index 0 is the primary display.
func (p *GLFWPlatform) DisplayRect(display int) (math.Rect4i, bool) {
	monitor := monitorAt(display)
	if monitor == nil {
		return math.Rect4i{}, false
	}
	x, y := monitor.GetPos()
	mode := monitor.GetVideoMode()
	if mode == nil {
		return math.Rect4i{}, false
	}
	return math.NewRect4i(x, y, mode.Width, mode.Height), true
}

func (p *GLFWPlatform) CreateWindow(definition WindowDefinition, format PixelFormat) (Window, error) {
	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, boolHint(definition.Resizable))
	glfw.WindowHint(glfw.Decorated, boolHint(definition.Type != WindowTypeBorderlessWindow))
	glfw.WindowHint(glfw.RedBits, format.RedBits)
	glfw.WindowHint(glfw.GreenBits, format.GreenBits)
	glfw.WindowHint(glfw.BlueBits, format.BlueBits)
	glfw.WindowHint(glfw.AlphaBits, format.AlphaBits)
	glfw.WindowHint(glfw.DepthBits, format.DepthBits)
	glfw.WindowHint(glfw.StencilBits, format.StencilBits)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, glContextMajor)
	glfw.WindowHint(glfw.ContextVersionMinor, glContextMinor)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	var monitor *glfw.Monitor
	if definition.Type == WindowTypeFullscreen {
		monitor = monitorAt(definition.Display)
		if monitor == nil {
			monitor = glfw.GetPrimaryMonitor()
		}
	}

	handle, err := glfw.CreateWindow(definition.Size.X, definition.Size.Y, definition.Title, monitor, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return nil, fmt.Errorf("window: %v: %w", err, core.ErrInitialization)
	}
	if monitor == nil {
		handle.SetPos(definition.Position.X, definition.Position.Y)
	}

	w := &glfwWindow{handle: handle, events: p.events}
	handle.SetFramebufferSizeCallback(w.framebufferSizeCallback)
	handle.SetCloseCallback(w.closeCallback)
	return w, nil
}

// CreateContext makes the context owned by the window current on this thread.
func (p *GLFWPlatform) CreateContext(window Window) (Context, error) {
	w, ok := window.(*glfwWindow)
	if !ok || w.handle == nil {
		return nil, fmt.Errorf("window was not created by glfw: %w", core.ErrInitialization)
	}
	c := &glfwContext{window: w}
	c.MakeCurrent()
	return c, nil
}

func (p *GLFWPlatform) SetSwapInterval(interval int) {
	glfw.SwapInterval(interval)
}

func (p *GLFWPlatform) PumpMessages() {
	glfw.PollEvents()
}

func (p *GLFWPlatform) Terminate() {
	if p.initialized {
		glfw.Terminate()
		p.initialized = false
	}
}

type glfwWindow struct {
	handle *glfw.Window
	events *core.EventSystem
}

func (w *glfwWindow) Size() math.Vector2i {
	width, height := w.handle.GetFramebufferSize()
	return math.NewVector2i(width, height)
}

func (w *glfwWindow) SetSize(size math.Vector2i) {
	w.handle.SetSize(size.X, size.Y)
}

func (w *glfwWindow) Position() math.Vector2i {
	x, y := w.handle.GetPos()
	return math.NewVector2i(x, y)
}

func (w *glfwWindow) SetPosition(pos math.Vector2i) {
	w.handle.SetPos(pos.X, pos.Y)
}

func (w *glfwWindow) SetFullscreen(display int, size math.Vector2i) {
	monitor := monitorAt(display)
	if monitor == nil {
		monitor = glfw.GetPrimaryMonitor()
	}
	refresh := glfw.DontCare
	if mode := monitor.GetVideoMode(); mode != nil {
		refresh = mode.RefreshRate
	}
	w.handle.SetMonitor(monitor, 0, 0, size.X, size.Y, refresh)
}

func (w *glfwWindow) SetWindowed(rect math.Rect4i, borderless bool) {
	w.handle.SetMonitor(nil, rect.X, rect.Y, rect.W, rect.H, glfw.DontCare)
	w.handle.SetAttrib(glfw.Decorated, boolHint(!borderless))
}

func (w *glfwWindow) Show() {
	w.handle.Show()
}

func (w *glfwWindow) SwapBuffers() {
	w.handle.SwapBuffers()
}

func (w *glfwWindow) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *glfwWindow) Destroy() {
	if w.handle != nil {
		w.handle.Destroy()
		w.handle = nil
	}
}

func (w *glfwWindow) framebufferSizeCallback(_ *glfw.Window, width, height int) {
	if w.events == nil {
		return
	}
	w.events.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.SystemEvent{
			WindowWidth:  uint32(width),
			WindowHeight: uint32(height),
		},
	})
}

func (w *glfwWindow) closeCallback(_ *glfw.Window) {
	if w.events == nil {
		return
	}
	w.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

type glfwContext struct {
	window *glfwWindow
}

func (c *glfwContext) MakeCurrent() {
	if c.window.handle != nil {
		c.window.handle.MakeContextCurrent()
	}
}

// Destroy detaches the context. GLFW frees it together with its window.
func (c *glfwContext) Destroy() {
	glfw.DetachCurrentContext()
}

func monitorAt(display int) *glfw.Monitor {
	monitors := glfw.GetMonitors()
	if display < 0 || display >= len(monitors) {
		return nil
	}
	return monitors[display]
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
