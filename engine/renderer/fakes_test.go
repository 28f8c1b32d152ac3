package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/platform"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

// callLog records the order of platform and backend calls across fakes.
type callLog struct {
	calls []string
}

func (l *callLog) add(format string, args ...interface{}) {
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) count(call string) int {
	n := 0
	for _, c := range l.calls {
		if c == call {
			n++
		}
	}
	return n
}

type fakePlatform struct {
	log      *callLog
	displays []math.Rect4i

	initErr    error
	windowErr  error
	contextErr error

	windows  []*fakeWindow
	contexts []*fakeContext
	interval int
}

func newFakePlatform(log *callLog) *fakePlatform {
	return &fakePlatform{
		log:      log,
		displays: []math.Rect4i{math.NewRect4i(0, 0, 1920, 1080)},
		interval: -1,
	}
}

func (p *fakePlatform) Initialize() error {
	p.log.add("platform.Initialize")
	return p.initErr
}

func (p *fakePlatform) VideoDrivers() []string {
	return []string{"fake"}
}

func (p *fakePlatform) NumDisplays() int {
	return len(p.displays)
}

func (p *fakePlatform) DisplayRect(display int) (math.Rect4i, bool) {
	if display < 0 || display >= len(p.displays) {
		return math.Rect4i{}, false
	}
	return p.displays[display], true
}

func (p *fakePlatform) CreateWindow(definition platform.WindowDefinition, format platform.PixelFormat) (platform.Window, error) {
	p.log.add("platform.CreateWindow")
	if p.windowErr != nil {
		return nil, p.windowErr
	}
	w := &fakeWindow{
		log:        p.log,
		definition: definition,
		format:     format,
		size:       definition.Size,
		position:   definition.Position,
		fullscreen: definition.Type == platform.WindowTypeFullscreen,
	}
	p.windows = append(p.windows, w)
	return w, nil
}

func (p *fakePlatform) CreateContext(window platform.Window) (platform.Context, error) {
	p.log.add("platform.CreateContext")
	if p.contextErr != nil {
		return nil, p.contextErr
	}
	c := &fakeContext{log: p.log}
	p.contexts = append(p.contexts, c)
	return c, nil
}

func (p *fakePlatform) SetSwapInterval(interval int) {
	p.interval = interval
}

func (p *fakePlatform) PumpMessages() {}

func (p *fakePlatform) Terminate() {
	p.log.add("platform.Terminate")
}

type fakeWindow struct {
	log        *callLog
	definition platform.WindowDefinition
	format     platform.PixelFormat

	size       math.Vector2i
	position   math.Vector2i
	fullscreen bool
	borderless bool
	shown      bool
	swaps      int
	destroyed  bool
}

func (w *fakeWindow) Size() math.Vector2i {
	return w.size
}

func (w *fakeWindow) SetSize(size math.Vector2i) {
	w.size = size
}

func (w *fakeWindow) Position() math.Vector2i {
	return w.position
}

func (w *fakeWindow) SetPosition(pos math.Vector2i) {
	w.position = pos
}

func (w *fakeWindow) SetFullscreen(display int, size math.Vector2i) {
	w.fullscreen = true
	w.size = size
	w.position = math.Vector2i{}
}

func (w *fakeWindow) SetWindowed(rect math.Rect4i, borderless bool) {
	w.fullscreen = false
	w.borderless = borderless
	w.size = rect.Size()
	w.position = math.NewVector2i(rect.X, rect.Y)
}

func (w *fakeWindow) Show() {
	w.shown = true
}

func (w *fakeWindow) SwapBuffers() {
	w.swaps++
}

func (w *fakeWindow) ShouldClose() bool {
	return false
}

func (w *fakeWindow) Destroy() {
	w.log.add("window.Destroy")
	w.destroyed = true
}

type fakeContext struct {
	log       *callLog
	destroyed bool
}

func (c *fakeContext) MakeCurrent() {}

func (c *fakeContext) Destroy() {
	c.log.add("context.Destroy")
	c.destroyed = true
}

type uniformCall struct {
	kind    string
	address int32
	n       int
	ints    []int32
	floats  []float32
}

type fakeBackend struct {
	log     *callLog
	info    BackendInfo
	initErr error
	errs    []error

	viewports    []math.Rect4i
	framebuffers []Framebuffer
	clearRects   []math.Rect4i
	clears       int
	textures     []*fakeTexture
	fbos         []*fakeFramebuffer
	uniforms     []uniformCall
}

func newFakeBackend(log *callLog) *fakeBackend {
	return &fakeBackend{
		log: log,
		info: BackendInfo{
			Version:                "3.3 fake",
			Vendor:                 "vista",
			Renderer:               "fake",
			ShadingLanguageVersion: "3.30",
		},
	}
}

func (b *fakeBackend) Initialize() error {
	b.log.add("backend.Initialize")
	return b.initErr
}

func (b *fakeBackend) Shutdown() {
	b.log.add("backend.Shutdown")
}

func (b *fakeBackend) Info() BackendInfo {
	return b.info
}

func (b *fakeBackend) SetViewport(viewport math.Rect4i) {
	b.viewports = append(b.viewports, viewport)
}

func (b *fakeBackend) Clear(r, g, bl, a float32) {
	b.clears++
}

func (b *fakeBackend) ClearRect(rect math.Rect4i, r, g, bl, a float32) {
	b.clearRects = append(b.clearRects, rect)
}

func (b *fakeBackend) BindFramebuffer(framebuffer Framebuffer) {
	b.framebuffers = append(b.framebuffers, framebuffer)
}

func (b *fakeBackend) CreateFramebuffer(colour metadata.Texture) (Framebuffer, error) {
	f := &fakeFramebuffer{id: uint32(len(b.fbos) + 1)}
	b.fbos = append(b.fbos, f)
	return f, nil
}

func (b *fakeBackend) CheckError() error {
	if len(b.errs) == 0 {
		return nil
	}
	err := b.errs[0]
	b.errs = b.errs[1:]
	return err
}

func (b *fakeBackend) CreateTexture(descriptor *metadata.TextureDescriptor) (metadata.Texture, error) {
	if descriptor == nil {
		return nil, errors.New("nil descriptor")
	}
	t := &fakeTexture{id: uint32(len(b.textures) + 1), name: descriptor.Name, size: descriptor.Size}
	b.textures = append(b.textures, t)
	return t, nil
}

func (b *fakeBackend) CreateShader(name string) metadata.Shader {
	return &fakeShader{name: name}
}

func (b *fakeBackend) CreatePainter() metadata.Painter {
	return &fakePainter{}
}

func (b *fakeBackend) Uniform1iv(address int32, count int, values []int32) {
	b.uniforms = append(b.uniforms, uniformCall{kind: "1iv", address: address, n: count, ints: values})
}

func (b *fakeBackend) Uniform1fv(address int32, count int, values []float32) {
	b.uniforms = append(b.uniforms, uniformCall{kind: "1fv", address: address, n: count, floats: values})
}

func (b *fakeBackend) UniformIntN(address int32, n int, v []int32) {
	b.uniforms = append(b.uniforms, uniformCall{kind: "iN", address: address, n: n, ints: v})
}

func (b *fakeBackend) UniformFloatN(address int32, n int, v []float32) {
	b.uniforms = append(b.uniforms, uniformCall{kind: "fN", address: address, n: n, floats: v})
}

func (b *fakeBackend) lastViewport() math.Rect4i {
	if len(b.viewports) == 0 {
		return math.Rect4i{}
	}
	return b.viewports[len(b.viewports)-1]
}

func (b *fakeBackend) lastFramebuffer() Framebuffer {
	if len(b.framebuffers) == 0 {
		return nil
	}
	return b.framebuffers[len(b.framebuffers)-1]
}

type fakeTexture struct {
	id       uint32
	name     string
	size     math.Vector2i
	released bool
}

func (t *fakeTexture) Bind(unit int) {}

func (t *fakeTexture) NativeID() uint32 {
	return t.id
}

func (t *fakeTexture) Size() math.Vector2i {
	return t.size
}

func (t *fakeTexture) Release() {
	t.released = true
}

type fakeFramebuffer struct {
	id       uint32
	released bool
}

func (f *fakeFramebuffer) NativeID() uint32 {
	return f.id
}

func (f *fakeFramebuffer) Release() {
	f.released = true
}

type fakeShader struct {
	name string
}

func (s *fakeShader) SetAttributes(attributes []metadata.MaterialAttribute) {}
func (s *fakeShader) AddStage(stage metadata.ShaderStage, source []byte)    {}
func (s *fakeShader) Compile() error                                        { return nil }
func (s *fakeShader) Bind()                                                 {}
func (s *fakeShader) UniformLocation(name string) int32                     { return -1 }
func (s *fakeShader) NativeID() uint32                                      { return 1 }
func (s *fakeShader) Release()                                              {}

type fakePainter struct{}

func (p *fakePainter) StartRender()             {}
func (p *fakePainter) EndRender()               {}
func (p *fakePainter) Clear(r, g, b, a float32) {}
func (p *fakePainter) Draw(material *metadata.MaterialDefinition, vertexData []byte, vertexCount int, uniforms *metadata.UniformCommandList) error {
	return nil
}
func (p *fakePainter) Release() {}

var (
	_ platform.Platform = (*fakePlatform)(nil)
	_ RendererBackend   = (*fakeBackend)(nil)
)
