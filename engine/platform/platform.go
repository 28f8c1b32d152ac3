package platform

import (
	"fmt"

	"github.com/spaghettifunk/vista/engine/math"
)

/** @brief How the game window is presented. */
type WindowType int

const (
	WindowTypeNone WindowType = iota
	WindowTypeWindow
	WindowTypeFullscreen
	WindowTypeBorderlessWindow
)

func (t WindowType) String() string {
	switch t {
	case WindowTypeNone:
		return "none"
	case WindowTypeWindow:
		return "window"
	case WindowTypeFullscreen:
		return "fullscreen"
	case WindowTypeBorderlessWindow:
		return "borderless"
	}
	return fmt.Sprintf("WindowType(%d)", int(t))
}

func WindowTypeFromString(s string) (WindowType, error) {
	switch s {
	case "none":
		return WindowTypeNone, nil
	case "window", "windowed":
		return WindowTypeWindow, nil
	case "fullscreen":
		return WindowTypeFullscreen, nil
	case "borderless", "borderless_window":
		return WindowTypeBorderlessWindow, nil
	}
	return WindowTypeNone, fmt.Errorf("string %s is not a valid WindowType", s)
}

/**
 * @brief The framebuffer layout requested when creating a window.
 */
type PixelFormat struct {
	RedBits     int
	GreenBits   int
	BlueBits    int
	AlphaBits   int
	DepthBits   int
	StencilBits int
	Accelerated bool
}

// DefaultPixelFormat is 8 bit RGBA with a 24 bit depth buffer on hardware.
func DefaultPixelFormat() PixelFormat {
	return PixelFormat{
		RedBits:     8,
		GreenBits:   8,
		BlueBits:    8,
		AlphaBits:   8,
		DepthBits:   24,
		Accelerated: true,
	}
}

/**
 * @brief Everything needed to create or reconfigure the game window.
 */
type WindowDefinition struct {
	Title    string
	Type     WindowType
	Size     math.Vector2i
	Position math.Vector2i
	/** @brief Display the window goes fullscreen on. */
	Display   int
	Resizable bool
}

/**
 * @brief A native window owning a drawable surface.
 */
type Window interface {
	Size() math.Vector2i
	SetSize(size math.Vector2i)
	Position() math.Vector2i
	SetPosition(pos math.Vector2i)
	// SetFullscreen moves the window onto the display at the given size.
	SetFullscreen(display int, size math.Vector2i)
	// SetWindowed leaves fullscreen and applies the given rectangle.
	SetWindowed(rect math.Rect4i, borderless bool)
	Show()
	SwapBuffers()
	ShouldClose() bool
	Destroy()
}

/**
 * @brief A native rendering context bound to a window.
 */
type Context interface {
	MakeCurrent()
	Destroy()
}

/**
 * @brief The windowing toolkit: display enumeration, window and context creation,
 * event pumping. All methods must run on the main OS thread.
 */
type Platform interface {
	Initialize() error
	// VideoDrivers lists the native video drivers available, for diagnostics.
	VideoDrivers() []string
	NumDisplays() int
	// DisplayRect returns the bounds of a display, and false when the index is out of range.
	DisplayRect(display int) (math.Rect4i, bool)
	CreateWindow(definition WindowDefinition, format PixelFormat) (Window, error)
	CreateContext(window Window) (Context, error)
	SetSwapInterval(interval int)
	PumpMessages()
	Terminate()
}

// CenteredRect centers a rectangle of the given size into the display, falling
// back to the primary display when the index is out of range.
func CenteredRect(p Platform, display int, size math.Vector2i) math.Rect4i {
	bounds, ok := p.DisplayRect(display)
	if !ok {
		bounds, ok = p.DisplayRect(0)
		if !ok {
			return math.NewRect4i(0, 0, size.X, size.Y)
		}
	}
	x := bounds.X + (bounds.W-size.X)/2
	y := bounds.Y + (bounds.H-size.Y)/2
	return math.NewRect4i(x, y, size.X, size.Y)
}
