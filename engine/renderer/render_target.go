package renderer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

type stackTarget interface {
	metadata.RenderTarget
	activate(backend RendererBackend)
}

/**
 * @brief The bind stack of one drawing context. The root is the current screen
 * target and is active whenever nothing else is bound.
 */
type TargetStack struct {
	backend RendererBackend
	root    *ScreenRenderTarget
	bound   []stackTarget
}

func NewTargetStack(backend RendererBackend) *TargetStack {
	return &TargetStack{backend: backend}
}

// SetRoot swaps the screen target. It is reactivated right away when nothing
// else is bound.
func (s *TargetStack) SetRoot(screen *ScreenRenderTarget) {
	s.root = screen
	if len(s.bound) == 0 && screen != nil {
		screen.activate(s.backend)
	}
}

func (s *TargetStack) Root() *ScreenRenderTarget {
	return s.root
}

// Current returns the active target, or nil before a root was set.
func (s *TargetStack) Current() metadata.RenderTarget {
	if n := len(s.bound); n > 0 {
		return s.bound[n-1]
	}
	if s.root == nil {
		return nil
	}
	return s.root
}

func (s *TargetStack) Depth() int {
	return len(s.bound)
}

// Reset drops every binding and reactivates the root.
func (s *TargetStack) Reset() {
	if len(s.bound) > 0 {
		core.LogWarn("%d render target(s) still bound at frame start", len(s.bound))
	}
	s.bound = s.bound[:0]
	if s.root != nil {
		s.root.activate(s.backend)
	}
}

func (s *TargetStack) push(t stackTarget) {
	s.bound = append(s.bound, t)
	t.activate(s.backend)
}

func (s *TargetStack) pop(t stackTarget) error {
	n := len(s.bound)
	if n == 0 || s.bound[n-1] != t {
		return fmt.Errorf("unbind out of order: %w", core.ErrRenderTargetNotBound)
	}
	s.bound[n-1] = nil
	s.bound = s.bound[:n-1]
	if n > 1 {
		s.bound[n-2].activate(s.backend)
	} else if s.root != nil {
		s.root.activate(s.backend)
	}
	return nil
}

func (s *TargetStack) isBound(t stackTarget) bool {
	for _, b := range s.bound {
		if b == t {
			return true
		}
	}
	return false
}

/**
 * @brief The window surface. Size and viewport are fixed at construction; the
 * video output builds a new one whenever the geometry changes.
 */
type ScreenRenderTarget struct {
	stack    *TargetStack
	size     math.Vector2f
	viewport math.Rect4f
}

func NewScreenRenderTarget(stack *TargetStack, size math.Vector2f, viewport math.Rect4f) *ScreenRenderTarget {
	return &ScreenRenderTarget{
		stack:    stack,
		size:     size,
		viewport: viewport,
	}
}

func (t *ScreenRenderTarget) Bind() error {
	t.stack.push(t)
	return nil
}

func (t *ScreenRenderTarget) Unbind() error {
	return t.stack.pop(t)
}

func (t *ScreenRenderTarget) Size() math.Vector2f {
	return t.size
}

func (t *ScreenRenderTarget) ViewPort() math.Rect4f {
	return t.viewport
}

func (t *ScreenRenderTarget) activate(backend RendererBackend) {
	backend.BindFramebuffer(nil)
	backend.SetViewport(t.viewport.ToRect4i())
}

/**
 * @brief An offscreen target rendering into a colour texture.
 */
type TextureRenderTarget struct {
	name        string
	stack       *TargetStack
	framebuffer Framebuffer
	texture     metadata.Texture
	size        math.Vector2i
}

func newTextureRenderTarget(stack *TargetStack, backend RendererBackend, size math.Vector2i) (*TextureRenderTarget, error) {
	name := uuid.NewString()
	texture, err := backend.CreateTexture(&metadata.TextureDescriptor{
		Name:         "render_target_" + name,
		Size:         size,
		Format:       metadata.TextureFormatRGBA,
		UseFiltering: true,
	})
	if err != nil {
		return nil, fmt.Errorf("render target colour buffer: %w", err)
	}
	framebuffer, err := backend.CreateFramebuffer(texture)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("render target framebuffer: %w", err)
	}
	return &TextureRenderTarget{
		name:        name,
		stack:       stack,
		framebuffer: framebuffer,
		texture:     texture,
		size:        size,
	}, nil
}

func (t *TextureRenderTarget) Name() string {
	return t.name
}

// Texture is the colour attachment, usable as a sampler once unbound.
func (t *TextureRenderTarget) Texture() metadata.Texture {
	return t.texture
}

func (t *TextureRenderTarget) Bind() error {
	t.stack.push(t)
	return nil
}

func (t *TextureRenderTarget) Unbind() error {
	return t.stack.pop(t)
}

func (t *TextureRenderTarget) Size() math.Vector2f {
	return t.size.ToFloat()
}

func (t *TextureRenderTarget) ViewPort() math.Rect4f {
	return math.NewRect4f(math.Vector2f{}, t.size.ToFloat())
}

// Release frees the framebuffer and its texture. The target must not be bound.
func (t *TextureRenderTarget) Release() {
	if t.stack.isBound(t) {
		core.LogWarn("render target '%s' released while bound", t.name)
	}
	if t.framebuffer != nil {
		t.framebuffer.Release()
		t.framebuffer = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func (t *TextureRenderTarget) activate(backend RendererBackend) {
	backend.BindFramebuffer(t.framebuffer)
	backend.SetViewport(t.ViewPort().ToRect4i())
}
