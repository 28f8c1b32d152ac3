package engine

import (
	"github.com/spaghettifunk/vista/engine/renderer"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
	"github.com/spaghettifunk/vista/engine/resources"
)

// FrameContext is what a game sees of the engine while a frame is running.
type FrameContext struct {
	Video     *renderer.VideoOutput
	Painter   metadata.Painter
	Resources *resources.ResourceSystem
}

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func(frame *FrameContext) error
type Update func(deltaTime float64) error
type Render func(frame *FrameContext, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
