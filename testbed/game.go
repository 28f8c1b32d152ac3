package testbed

import (
	"encoding/binary"
	gomath "math"

	"github.com/spaghettifunk/vista/engine"
	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

const (
	spriteMaterial = "materials/sprite.toml"
	spriteTexture  = "textures/sprite.png"
	// position(2) + uv(2)
	vertexFloats = 4
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	material *metadata.MaterialDefinition
	texture  metadata.Texture
	uniforms *metadata.UniformCommandList
	vertices []byte

	elapsed float64
	width   uint32
	height  uint32
}

func NewTestGame(config *engine.ApplicationConfig) *TestGame {
	if config == nil {
		config = engine.DefaultApplicationConfig()
		config.Name = "Vista Testbed"
		config.LogLevel = "debug"
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				uniforms: metadata.NewUniformCommandList(),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func (g *TestGame) Initialize(frame *engine.FrameContext) error {
	core.LogInfo("initializing testbed...")
	state := g.state()

	material, err := frame.Resources.AcquireMaterial(spriteMaterial, true)
	if err != nil {
		return err
	}
	state.material = material

	texture, err := frame.Resources.AcquireTexture(spriteTexture, true)
	if err != nil {
		core.LogWarn("using the default texture: %s", err)
		texture = frame.Resources.DefaultTexture()
	}
	state.texture = texture

	size := frame.Video.WindowSize()
	state.width, state.height = uint32(size.X), uint32(size.Y)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	g.state().elapsed += deltaTime
	return nil
}

func (g *TestGame) Render(frame *engine.FrameContext, deltaTime float64) error {
	state := g.state()
	frame.Painter.Clear(0.1, 0.1, 0.15, 1)

	virtual := frame.Video.VirtualSize()
	side := virtual.Y / 4
	x := (virtual.X - side) * float32(0.5+0.5*gomath.Sin(state.elapsed))
	y := (virtual.Y - side) * 0.5
	state.vertices = appendQuad(state.vertices[:0], math.NewRect4f(math.NewVector2f(x, y), math.NewVector2f(x+side, y+side)))

	pass := state.material.Pass(0)
	shader := pass.Shader()
	if shader == nil {
		return nil
	}
	state.texture.Bind(0)

	state.uniforms.Reset()
	state.uniforms.Add(shader.UniformLocation("u_size"), metadata.UniformTypeFloat, 2, []float32{virtual.X, virtual.Y})
	state.uniforms.Add(shader.UniformLocation("u_col"), metadata.UniformTypeFloat, 4, []float32{1, 1, 1, 1})
	state.uniforms.Add(shader.UniformLocation("u_tex"), metadata.UniformTypeInt, 1, []int32{0})

	return frame.Painter.Draw(state.material, state.vertices, len(state.vertices)/(vertexFloats*4), state.uniforms)
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.state()
	state.width, state.height = width, height
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("shutting down testbed...")
	return nil
}

// appendQuad writes two triangles as interleaved position and uv floats.
func appendQuad(dst []byte, r math.Rect4f) []byte {
	corners := [6][vertexFloats]float32{
		{r.P1.X, r.P1.Y, 0, 0},
		{r.P2.X, r.P1.Y, 1, 0},
		{r.P2.X, r.P2.Y, 1, 1},
		{r.P1.X, r.P1.Y, 0, 0},
		{r.P2.X, r.P2.Y, 1, 1},
		{r.P1.X, r.P2.Y, 0, 1},
	}
	for _, c := range corners {
		for _, f := range c {
			dst = binary.LittleEndian.AppendUint32(dst, gomath.Float32bits(f))
		}
	}
	return dst
}
