package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

type framebuffer struct {
	id uint32
}

func newFramebuffer(colour metadata.Texture) (*framebuffer, error) {
	fb := &framebuffer{}
	gl.GenFramebuffers(1, &fb.id)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.id)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, colour.NativeID(), 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Release()
		return nil, fmt.Errorf("framebuffer incomplete: 0x%04x", status)
	}
	return fb, nil
}

func (f *framebuffer) NativeID() uint32 {
	return f.id
}

func (f *framebuffer) Release() {
	if f.id != 0 {
		gl.DeleteFramebuffers(1, &f.id)
		f.id = 0
	}
}
