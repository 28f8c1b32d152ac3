package metadata

import "github.com/spaghettifunk/vista/engine/math"

/**
 * @brief A surface drawing code renders into: the screen or an offscreen texture.
 * At most one target is bound per drawing context, and targets unbind in strict
 * reverse order of binding.
 */
type RenderTarget interface {
	Bind() error
	Unbind() error
	// Size is the logical size of the target, in virtual units.
	Size() math.Vector2f
	// ViewPort is the region of the native surface the target maps to, in pixels.
	ViewPort() math.Rect4f
}
