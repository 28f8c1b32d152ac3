package loaders

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/vista/engine/math"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

type TextureParams struct {
	FlipY        bool
	UseMipMap    bool
	UseFiltering bool
}

func DefaultTextureParams() TextureParams {
	return TextureParams{UseFiltering: true}
}

// DecodeTexture turns encoded image bytes into tightly packed RGBA pixels.
func DecodeTexture(name string, data []byte, params TextureParams) (*metadata.TextureDescriptor, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture '%s': %w", name, err)
	}

	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	if params.FlipY {
		flipRows(rgba.Pix, rgba.Stride, bounds.Dy())
	}

	return &metadata.TextureDescriptor{
		Name:         name,
		Size:         math.NewVector2i(bounds.Dx(), bounds.Dy()),
		Format:       metadata.TextureFormatRGBA,
		Pixels:       rgba.Pix,
		UseMipMap:    params.UseMipMap,
		UseFiltering: params.UseFiltering,
	}, nil
}

func flipRows(pix []byte, stride, rows int) {
	tmp := make([]byte, stride)
	for top, bottom := 0, rows-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := pix[top*stride : (top+1)*stride]
		b := pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}
