package resources

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spriteMaterial = `
name = "sprite"

[[passes]]
blend = "alpha"
shader = "sprite"

[[uniforms]]
name = "u_tex"
type = "texture2d"
location = 0

[[attributes]]
name = "position"
type = "float2"
location = 0
`

type fakeTexture struct {
	name     string
	size     math.Vector2i
	released bool
}

func (t *fakeTexture) Bind(unit int)       {}
func (t *fakeTexture) NativeID() uint32    { return 1 }
func (t *fakeTexture) Size() math.Vector2i { return t.size }
func (t *fakeTexture) Release()            { t.released = true }

type fakeShader struct {
	stages   map[metadata.ShaderStage]string
	released bool
}

func (s *fakeShader) SetAttributes(attributes []metadata.MaterialAttribute) {}
func (s *fakeShader) AddStage(stage metadata.ShaderStage, source []byte) {
	s.stages[stage] = string(source)
}
func (s *fakeShader) Compile() error                    { return nil }
func (s *fakeShader) Bind()                             {}
func (s *fakeShader) UniformLocation(name string) int32 { return -1 }
func (s *fakeShader) NativeID() uint32                  { return 2 }
func (s *fakeShader) Release()                          { s.released = true }

type fakeGraphics struct {
	textures []*fakeTexture
	shaders  []*fakeShader
}

func (g *fakeGraphics) CreateTexture(d *metadata.TextureDescriptor) (metadata.Texture, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	t := &fakeTexture{name: d.Name, size: d.Size}
	g.textures = append(g.textures, t)
	return t, nil
}

func (g *fakeGraphics) CreateShader(name string) metadata.Shader {
	s := &fakeShader{stages: make(map[metadata.ShaderStage]string)}
	g.shaders = append(g.shaders, s)
	return s
}

type queueLoader struct {
	queue *renderer.TextureLoadQueue
}

func (l queueLoader) LoadTextureAsync(ctx context.Context, name string, decode renderer.TextureDecodeFunc) (*renderer.PendingTexture, error) {
	return l.queue.Submit(ctx, name, decode)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

type systemFixture struct {
	dir      string
	graphics *fakeGraphics
	system   *ResourceSystem
}

func newSystemFixture(t *testing.T, async AsyncTextureLoader) *systemFixture {
	t.Helper()
	dir := t.TempDir()
	writeAsset(t, dir, "textures/sprite.png", pngBytes(t, 8, 4))
	writeAsset(t, dir, "materials/sprite.toml", []byte(spriteMaterial))
	writeAsset(t, dir, "shaders/sprite.vertex.glsl", []byte("// vertex"))
	writeAsset(t, dir, "shaders/sprite.pixel.glsl", []byte("// pixel"))

	locator, err := NewFileLocator(dir)
	require.NoError(t, err)
	graphics := &fakeGraphics{}
	system := NewResourceSystem(locator, graphics, async)
	require.NoError(t, system.Initialize())
	return &systemFixture{dir: dir, graphics: graphics, system: system}
}

func TestResourceSystemDefaultTexture(t *testing.T) {
	f := newSystemFixture(t, nil)
	require.NotNil(t, f.system.DefaultTexture())
	assert.Equal(t, math.NewVector2i(16, 16), f.system.DefaultTexture().Size())

	texture, err := f.system.AcquireTexture(metadata.DEFAULT_TEXTURE_NAME, true)
	require.NoError(t, err)
	assert.Same(t, f.system.DefaultTexture(), texture)
	assert.Equal(t, 0, f.system.TextureCount())
}

func TestResourceSystemTextureReferences(t *testing.T) {
	f := newSystemFixture(t, nil)

	a, err := f.system.AcquireTexture("textures/sprite.png", true)
	require.NoError(t, err)
	b, err := f.system.AcquireTexture("textures/sprite.png", true)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, math.NewVector2i(8, 4), a.Size())
	assert.Len(t, f.graphics.textures, 2)

	f.system.ReleaseTexture("textures/sprite.png")
	assert.Equal(t, 1, f.system.TextureCount())
	f.system.ReleaseTexture("textures/sprite.png")
	assert.Equal(t, 0, f.system.TextureCount())
	assert.True(t, a.(*fakeTexture).released)

	// Unknown names only warn.
	f.system.ReleaseTexture("textures/sprite.png")

	_, err = f.system.AcquireTexture("textures/missing.png", true)
	assert.ErrorIs(t, err, core.ErrResourceLoad)
}

func TestResourceSystemKeepsTexturesWithoutAutoRelease(t *testing.T) {
	f := newSystemFixture(t, nil)
	texture, err := f.system.AcquireTexture("textures/sprite.png", false)
	require.NoError(t, err)

	f.system.ReleaseTexture("textures/sprite.png")
	assert.Equal(t, 1, f.system.TextureCount())
	assert.False(t, texture.(*fakeTexture).released)

	f.system.Shutdown()
	assert.Equal(t, 0, f.system.TextureCount())
	assert.True(t, texture.(*fakeTexture).released)
	assert.Nil(t, f.system.DefaultTexture())
}

func TestResourceSystemRejectsBrokenImages(t *testing.T) {
	f := newSystemFixture(t, nil)
	writeAsset(t, f.dir, "textures/broken.png", []byte("garbage"))

	_, err := f.system.AcquireTexture("textures/broken.png", true)
	assert.ErrorIs(t, err, core.ErrResourceLoad)
}

func TestResourceSystemAsyncTexture(t *testing.T) {
	_, err := newSystemFixture(t, nil).system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.Error(t, err)

	graphics := &fakeGraphics{}
	queue := renderer.NewTextureLoadQueue(graphics, 4)
	queue.Start(context.Background())
	defer queue.Stop()

	f := newSystemFixture(t, queueLoader{queue: queue})
	first, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.NoError(t, err)
	second, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Eventually(t, func() bool {
		queue.Upload(0)
		return first.Ready()
	}, 2*time.Second, 5*time.Millisecond)

	f.system.Update()
	require.Equal(t, 1, f.system.TextureCount())
	texture, err := first.Result()
	require.NoError(t, err)
	assert.Equal(t, math.NewVector2i(8, 4), texture.Size())

	// Resident textures resolve immediately and count a reference.
	third, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.NoError(t, err)
	assert.True(t, third.Ready())

	for i := 0; i < 3; i++ {
		f.system.ReleaseTexture("textures/sprite.png")
	}
	assert.Equal(t, 0, f.system.TextureCount())
}

func TestResourceSystemAsyncFailure(t *testing.T) {
	graphics := &fakeGraphics{}
	queue := renderer.NewTextureLoadQueue(graphics, 4)
	queue.Start(context.Background())
	defer queue.Stop()

	f := newSystemFixture(t, queueLoader{queue: queue})
	pending, err := f.system.AcquireTextureAsync(context.Background(), "textures/missing.png", true)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		queue.Upload(0)
		return pending.Ready()
	}, 2*time.Second, 5*time.Millisecond)

	f.system.Update()
	assert.Equal(t, 0, f.system.TextureCount())
	_, err = pending.Result()
	assert.ErrorIs(t, err, core.ErrResourceLoad)
}

func TestResourceSystemMaterials(t *testing.T) {
	f := newSystemFixture(t, nil)

	a, err := f.system.AcquireMaterial("materials/sprite.toml", true)
	require.NoError(t, err)
	b, err := f.system.AcquireMaterial("materials/sprite.toml", true)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "sprite", a.Name())
	require.Equal(t, 1, a.NumPasses())
	require.NotNil(t, a.Pass(0).Shader())
	assert.Equal(t, 1, f.system.Shaders().Count())
	require.Len(t, f.graphics.shaders, 1)
	assert.Equal(t, "// vertex", f.graphics.shaders[0].stages[metadata.ShaderStageVertex])

	f.system.ReleaseMaterial("materials/sprite.toml")
	assert.Equal(t, 1, f.system.MaterialCount())
	f.system.ReleaseMaterial("materials/sprite.toml")
	assert.Equal(t, 0, f.system.MaterialCount())
	assert.True(t, f.graphics.shaders[0].released)

	_, err = f.system.AcquireMaterial("materials/missing.toml", true)
	assert.ErrorIs(t, err, core.ErrResourceLoad)
}

func TestResourceSystemReload(t *testing.T) {
	f := newSystemFixture(t, nil)
	material, err := f.system.AcquireMaterial("materials/sprite.toml", false)
	require.NoError(t, err)

	outdated, err := f.system.Outdated("materials/sprite.toml")
	require.NoError(t, err)
	assert.False(t, outdated)

	path := writeAsset(t, f.dir, "materials/sprite.toml", []byte(spriteMaterial+`
[[attributes]]
name = "a_texCoord0"
type = "float2"
location = 1
`))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	outdated, err = f.system.Outdated("materials/sprite.toml")
	require.NoError(t, err)
	assert.True(t, outdated)

	require.NoError(t, f.system.Reload("materials/sprite.toml"))
	assert.Len(t, material.Attributes(), 2)
	assert.Equal(t, 16, material.VertexStride())

	outdated, err = f.system.Outdated("materials/sprite.toml")
	require.NoError(t, err)
	assert.False(t, outdated)

	// A shader stage change recompiles the program in place.
	shaderPath := filepath.Join(f.dir, "shaders", "sprite.pixel.glsl")
	require.NoError(t, os.WriteFile(shaderPath, []byte("// pixel v2"), 0o644))
	require.NoError(t, f.system.Reload("shaders/sprite.pixel.glsl"))
	current := material.Pass(0).Shader().(*fakeShader)
	assert.Equal(t, "// pixel v2", current.stages[metadata.ShaderStagePixel])

	assert.NoError(t, f.system.Reload("textures/sprite.png"))
	outdated, err = f.system.Outdated("materials/unknown.toml")
	require.NoError(t, err)
	assert.False(t, outdated)
}

func uploadUntilReady(t *testing.T, queue *renderer.TextureLoadQueue, pending *renderer.PendingTexture) {
	t.Helper()
	assert.Eventually(t, func() bool {
		queue.Upload(0)
		return pending.Ready()
	}, 2*time.Second, 5*time.Millisecond)
}

func TestResourceSystemSyncAcquireWhileLoading(t *testing.T) {
	graphics := &fakeGraphics{}
	queue := renderer.NewTextureLoadQueue(graphics, 4)
	queue.Start(context.Background())
	defer queue.Stop()

	f := newSystemFixture(t, queueLoader{queue: queue})
	pending, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.NoError(t, err)
	texture, err := f.system.AcquireTexture("textures/sprite.png", true)
	require.NoError(t, err)

	// The in-flight load resolves to the synchronous texture.
	require.True(t, pending.Ready())
	async, err := pending.Result()
	require.NoError(t, err)
	assert.Same(t, texture, async)

	assert.Eventually(t, func() bool {
		return queue.Upload(0) == 1
	}, 2*time.Second, 5*time.Millisecond)
	f.system.Update()
	assert.Empty(t, graphics.textures)
	assert.Len(t, f.graphics.textures, 2)
	require.Equal(t, 1, f.system.TextureCount())

	f.system.ReleaseTexture("textures/sprite.png")
	assert.False(t, texture.(*fakeTexture).released)
	f.system.ReleaseTexture("textures/sprite.png")
	assert.True(t, texture.(*fakeTexture).released)
	assert.Equal(t, 0, f.system.TextureCount())
}

func TestResourceSystemSyncAcquireAfterUpload(t *testing.T) {
	graphics := &fakeGraphics{}
	queue := renderer.NewTextureLoadQueue(graphics, 4)
	queue.Start(context.Background())
	defer queue.Stop()

	f := newSystemFixture(t, queueLoader{queue: queue})
	pending, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.NoError(t, err)
	uploadUntilReady(t, queue, pending)

	// Uploaded but not yet moved into the cache by Update.
	texture, err := f.system.AcquireTexture("textures/sprite.png", true)
	require.NoError(t, err)
	async, err := pending.Result()
	require.NoError(t, err)
	assert.Same(t, async, texture)
	assert.Len(t, f.graphics.textures, 1)

	f.system.Update()
	f.system.ReleaseTexture("textures/sprite.png")
	f.system.ReleaseTexture("textures/sprite.png")
	assert.True(t, texture.(*fakeTexture).released)
	assert.Equal(t, 0, f.system.TextureCount())
}

func TestResourceSystemReleasedWhileLoading(t *testing.T) {
	graphics := &fakeGraphics{}
	queue := renderer.NewTextureLoadQueue(graphics, 4)
	queue.Start(context.Background())
	defer queue.Stop()

	f := newSystemFixture(t, queueLoader{queue: queue})
	pending, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", true)
	require.NoError(t, err)
	f.system.ReleaseTexture("textures/sprite.png")

	uploadUntilReady(t, queue, pending)
	f.system.Update()

	assert.Equal(t, 0, f.system.TextureCount())
	require.Len(t, graphics.textures, 1)
	assert.True(t, graphics.textures[0].released)
}

func TestResourceSystemKeepsUnreferencedManualTextures(t *testing.T) {
	graphics := &fakeGraphics{}
	queue := renderer.NewTextureLoadQueue(graphics, 4)
	queue.Start(context.Background())
	defer queue.Stop()

	f := newSystemFixture(t, queueLoader{queue: queue})
	pending, err := f.system.AcquireTextureAsync(context.Background(), "textures/sprite.png", false)
	require.NoError(t, err)
	f.system.ReleaseTexture("textures/sprite.png")

	uploadUntilReady(t, queue, pending)
	f.system.Update()

	assert.Equal(t, 1, f.system.TextureCount())
	require.Len(t, graphics.textures, 1)
	assert.False(t, graphics.textures[0].released)
}
