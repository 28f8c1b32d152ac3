package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

type texture struct {
	name string
	id   uint32
	size math.Vector2i
}

func newTexture(descriptor *metadata.TextureDescriptor) (*texture, error) {
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}

	format := glFormat(descriptor.Format)
	t := &texture{name: descriptor.Name, size: descriptor.Size}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)

	filter := int32(gl.NEAREST)
	minFilter := int32(gl.NEAREST)
	if descriptor.UseFiltering {
		filter = gl.LINEAR
		minFilter = gl.LINEAR
		if descriptor.UseMipMap {
			minFilter = gl.LINEAR_MIPMAP_LINEAR
		}
	} else if descriptor.UseMipMap {
		minFilter = gl.NEAREST_MIPMAP_NEAREST
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, minFilter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)

	if len(descriptor.Pixels) > 0 {
		gl.TexImage2D(gl.TEXTURE_2D, 0, int32(format), int32(t.size.X), int32(t.size.Y), 0, format, gl.UNSIGNED_BYTE, gl.Ptr(descriptor.Pixels))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, int32(format), int32(t.size.X), int32(t.size.Y), 0, format, gl.UNSIGNED_BYTE, nil)
	}
	if descriptor.UseMipMap {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if t.id == 0 {
		return nil, fmt.Errorf("texture '%s': glGenTextures returned no name", t.name)
	}
	return t, nil
}

func (t *texture) Bind(unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, t.id)
}

func (t *texture) NativeID() uint32 {
	return t.id
}

func (t *texture) Size() math.Vector2i {
	return t.size
}

func (t *texture) Release() {
	if t.id != 0 {
		gl.DeleteTextures(1, &t.id)
		t.id = 0
	}
}

func glFormat(f metadata.TextureFormat) uint32 {
	switch f {
	case metadata.TextureFormatRGB:
		return gl.RGB
	case metadata.TextureFormatRed:
		return gl.RED
	}
	return gl.RGBA
}
