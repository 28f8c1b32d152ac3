package renderer

import (
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

/**
 * @brief Driver strings reported by the backend once its functions are loaded.
 */
type BackendInfo struct {
	Version                string
	Vendor                 string
	Renderer               string
	ShadingLanguageVersion string
}

// SupportsShaders reports whether the driver exposes a shading language at all.
func (i BackendInfo) SupportsShaders() bool {
	return i.ShadingLanguageVersion != ""
}

/**
 * @brief An offscreen framebuffer with a single colour attachment.
 */
type Framebuffer interface {
	NativeID() uint32
	Release()
}

/**
 * @brief The native graphics API behind the video output. Every method runs on
 * the thread owning the current context.
 */
type RendererBackend interface {
	// Initialize loads the API entry points for the current context.
	Initialize() error
	Shutdown()
	Info() BackendInfo
	SetViewport(viewport math.Rect4i)
	Clear(r, g, b, a float32)
	// ClearRect clears only the given window region.
	ClearRect(rect math.Rect4i, r, g, b, a float32)
	// BindFramebuffer makes the framebuffer the draw destination. Nil selects the window surface.
	BindFramebuffer(framebuffer Framebuffer)
	CreateFramebuffer(colour metadata.Texture) (Framebuffer, error)
	// CheckError drains pending API errors. A lost context is reported as core.ErrContextLost.
	CheckError() error

	metadata.TextureFactory
	metadata.ShaderFactory
	metadata.UniformSink
	CreatePainter() metadata.Painter
}
