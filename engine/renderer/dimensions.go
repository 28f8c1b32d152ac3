package renderer

import (
	"github.com/spaghettifunk/vista/engine/math"
)

/**
 * @brief The mapping from the virtual resolution onto the window. Scale and
 * border are always computed together.
 */
type Dimensions struct {
	WindowSize math.Vector2i
	/** @brief The effective virtual size. Equals the window size when none was requested. */
	VirtualSize math.Vector2f
	Scale       float32
	/** @brief Width of each letterbox bar, in window pixels. */
	Border float32
	/** @brief True when the bars sit on the left and right edges. */
	SideBars bool
	/** @brief Corners of the drawable rectangle, in window pixels. */
	P1, P2 math.Vector2f
}

// ComputeDimensions fits the virtual size into the window with a uniform scale
// and centers it, leaving symmetric bars on the axis with spare room.
func ComputeDimensions(window math.Vector2i, virtual math.Vector2f) Dimensions {
	d := Dimensions{WindowSize: window}

	if virtual.X == 0 || virtual.Y == 0 {
		d.VirtualSize = window.ToFloat()
		d.Scale = 1
		d.P2 = window.ToFloat()
		return d
	}

	d.VirtualSize = virtual
	if window.X <= 0 || window.Y <= 0 {
		// Minimized. Nothing is drawable.
		return d
	}

	wAR := float32(window.X) / float32(window.Y)
	vAR := virtual.X / virtual.Y
	if wAR > vAR {
		d.Scale = float32(window.Y) / virtual.Y
		d.Border = math.Max((virtual.Y*wAR-virtual.X)*0.5*d.Scale, 0)
		d.SideBars = true
		d.P1 = math.NewVector2f(d.Border, 0)
	} else {
		d.Scale = float32(window.X) / virtual.X
		d.Border = math.Max((virtual.X/wAR-virtual.Y)*0.5*d.Scale, 0)
		d.P1 = math.NewVector2f(0, d.Border)
	}
	d.P2 = d.P1.Add(virtual.Scale(d.Scale))
	return d
}

// ViewPort is the drawable rectangle.
func (d Dimensions) ViewPort() math.Rect4f {
	return math.NewRect4f(d.P1, d.P2)
}

// Letterboxed reports whether any bar is at least one pixel wide.
func (d Dimensions) Letterboxed() bool {
	return math.RoundToInt(d.Border) > 0
}

// LetterboxRects returns the two window regions outside the drawable rectangle.
func (d Dimensions) LetterboxRects() []math.Rect4i {
	if !d.Letterboxed() {
		return nil
	}
	view := d.ViewPort().ToRect4i()
	w, h := d.WindowSize.X, d.WindowSize.Y
	if d.SideBars {
		return []math.Rect4i{
			math.NewRect4i(0, 0, view.X, h),
			math.NewRect4i(view.X+view.W, 0, w-(view.X+view.W), h),
		}
	}
	return []math.Rect4i{
		math.NewRect4i(0, 0, w, view.Y),
		math.NewRect4i(0, view.Y+view.H, w, h-(view.Y+view.H)),
	}
}
