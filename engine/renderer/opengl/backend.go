package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

// GL_CONTEXT_LOST only exists in the 4.5 headers.
const glContextLost = 0x0507

/**
 * @brief OpenGL 3.3 core backend. Requires a current context on the calling thread.
 */
type Backend struct {
	info        renderer.BackendInfo
	initialized bool
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Initialize() error {
	if b.initialized {
		return nil
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to load OpenGL functions: %w", err)
	}
	b.info = renderer.BackendInfo{
		Version:                gl.GoStr(gl.GetString(gl.VERSION)),
		Vendor:                 gl.GoStr(gl.GetString(gl.VENDOR)),
		Renderer:               gl.GoStr(gl.GetString(gl.RENDERER)),
		ShadingLanguageVersion: gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)),
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	b.initialized = true
	return nil
}

func (b *Backend) Shutdown() {
	if !b.initialized {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.UseProgram(0)
	b.initialized = false
}

func (b *Backend) Info() renderer.BackendInfo {
	return b.info
}

func (b *Backend) SetViewport(viewport math.Rect4i) {
	gl.Viewport(int32(viewport.X), int32(viewport.Y), int32(viewport.W), int32(viewport.H))
}

// Clear always covers the whole surface; ClearRect leaves the scissor test off.
func (b *Backend) Clear(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (b *Backend) ClearRect(rect math.Rect4i, r, g, bl, a float32) {
	if rect.Empty() {
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(int32(rect.X), int32(rect.Y), int32(rect.W), int32(rect.H))
	gl.ClearColor(r, g, bl, a)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Disable(gl.SCISSOR_TEST)
}

func (b *Backend) BindFramebuffer(framebuffer renderer.Framebuffer) {
	if framebuffer == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, framebuffer.NativeID())
}

func (b *Backend) CreateFramebuffer(colour metadata.Texture) (renderer.Framebuffer, error) {
	fb, err := newFramebuffer(colour)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

func (b *Backend) CreateTexture(descriptor *metadata.TextureDescriptor) (metadata.Texture, error) {
	t, err := newTexture(descriptor)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (b *Backend) CreateShader(name string) metadata.Shader {
	return newShader(name)
}

func (b *Backend) CreatePainter() metadata.Painter {
	return newPainter(b)
}

// CheckError drains the GL error queue.
func (b *Backend) CheckError() error {
	var codes []string
	for i := 0; i < 16; i++ {
		code := gl.GetError()
		if code == gl.NO_ERROR {
			break
		}
		if code == glContextLost {
			return fmt.Errorf("GL_CONTEXT_LOST: %w", core.ErrContextLost)
		}
		codes = append(codes, errorName(code))
	}
	if len(codes) == 0 {
		return nil
	}
	return fmt.Errorf("OpenGL errors: %s", strings.Join(codes, ", "))
}

func (b *Backend) Uniform1iv(address int32, count int, values []int32) {
	gl.Uniform1iv(address, int32(count), &values[0])
}

func (b *Backend) Uniform1fv(address int32, count int, values []float32) {
	gl.Uniform1fv(address, int32(count), &values[0])
}

func (b *Backend) UniformIntN(address int32, n int, v []int32) {
	switch n {
	case 1:
		gl.Uniform1i(address, v[0])
	case 2:
		gl.Uniform2i(address, v[0], v[1])
	case 3:
		gl.Uniform3i(address, v[0], v[1], v[2])
	case 4:
		gl.Uniform4i(address, v[0], v[1], v[2], v[3])
	}
}

func (b *Backend) UniformFloatN(address int32, n int, v []float32) {
	switch n {
	case 1:
		gl.Uniform1f(address, v[0])
	case 2:
		gl.Uniform2f(address, v[0], v[1])
	case 3:
		gl.Uniform3f(address, v[0], v[1], v[2])
	case 4:
		gl.Uniform4f(address, v[0], v[1], v[2], v[3])
	}
}

func errorName(code uint32) string {
	switch code {
	case gl.INVALID_ENUM:
		return "GL_INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "GL_INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "GL_INVALID_OPERATION"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case gl.OUT_OF_MEMORY:
		return "GL_OUT_OF_MEMORY"
	}
	return fmt.Sprintf("0x%04x", code)
}

var _ renderer.RendererBackend = (*Backend)(nil)
