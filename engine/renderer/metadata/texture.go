package metadata

import (
	"fmt"

	"github.com/spaghettifunk/vista/engine/math"
)

const (
	/** @brief The default texture name. */
	DEFAULT_TEXTURE_NAME string = "default"
	/** @brief The default white texture name. */
	DEFAULT_WHITE_TEXTURE_NAME string = "default_WHITE"
)

/** @brief Pixel layouts a texture can be created from. */
type TextureFormat int

const (
	TextureFormatRGBA TextureFormat = iota
	TextureFormatRGB
	TextureFormatRed
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA:
		return "rgba"
	case TextureFormatRGB:
		return "rgb"
	case TextureFormatRed:
		return "red"
	}
	return fmt.Sprintf("TextureFormat(%d)", int(f))
}

func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA:
		return 4
	case TextureFormatRGB:
		return 3
	case TextureFormatRed:
		return 1
	}
	return 0
}

/**
 * @brief Everything a backend needs to create a texture: decoded pixels plus
 * sampling flags. Pixels may be nil for render target colour buffers.
 */
type TextureDescriptor struct {
	Name   string
	Size   math.Vector2i
	Format TextureFormat
	/** @brief Tightly packed rows, top row first. */
	Pixels       []byte
	UseMipMap    bool
	UseFiltering bool
}

// Validate checks the size against the pixel buffer.
func (d *TextureDescriptor) Validate() error {
	if d.Size.X <= 0 || d.Size.Y <= 0 {
		return fmt.Errorf("texture '%s' has invalid size %dx%d", d.Name, d.Size.X, d.Size.Y)
	}
	bpp := d.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("texture '%s' has unknown format %s", d.Name, d.Format)
	}
	if d.Pixels == nil {
		return nil
	}
	if want := d.Size.X * d.Size.Y * bpp; len(d.Pixels) != want {
		return fmt.Errorf("texture '%s' expects %d bytes of %s pixels, got %d", d.Name, want, d.Format, len(d.Pixels))
	}
	return nil
}

/**
 * @brief A backend texture. The native handle is valid from creation until
 * Release. Size never changes.
 */
type Texture interface {
	Bind(unit int)
	NativeID() uint32
	Size() math.Vector2i
	Release()
}

type TextureFactory interface {
	CreateTexture(descriptor *TextureDescriptor) (Texture, error)
}

// NewCheckerboardDescriptor builds the fallback texture: a blue/white checkerboard
// generated in code so it has no asset dependency.
func NewCheckerboardDescriptor(dimension int) *TextureDescriptor {
	channels := TextureFormatRGBA.BytesPerPixel()
	pixels := make([]byte, dimension*dimension*channels)
	for i := range pixels {
		pixels[i] = 255
	}

	for row := 0; row < dimension; row++ {
		for col := 0; col < dimension; col++ {
			index := ((row * dimension) + col) * channels
			if (row%2 != 0) == (col%2 != 0) {
				pixels[index+0] = 0
				pixels[index+1] = 0
			}
		}
	}

	return &TextureDescriptor{
		Name:   DEFAULT_TEXTURE_NAME,
		Size:   math.NewVector2i(dimension, dimension),
		Format: TextureFormatRGBA,
		Pixels: pixels,
	}
}

// NewSolidDescriptor builds a single colour RGBA texture.
func NewSolidDescriptor(name string, dimension int, r, g, b, a byte) *TextureDescriptor {
	pixels := make([]byte, dimension*dimension*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i+0] = r
		pixels[i+1] = g
		pixels[i+2] = b
		pixels[i+3] = a
	}
	return &TextureDescriptor{
		Name:   name,
		Size:   math.NewVector2i(dimension, dimension),
		Format: TextureFormatRGBA,
		Pixels: pixels,
	}
}
