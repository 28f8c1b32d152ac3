package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

/**
 * @brief Streams vertex records into one buffer and draws them once per
 * material pass.
 */
type painter struct {
	backend *Backend
	vao     uint32
	vbo     uint32
	drawing bool
}

func newPainter(backend *Backend) *painter {
	p := &painter{backend: backend}
	gl.GenVertexArrays(1, &p.vao)
	gl.GenBuffers(1, &p.vbo)
	return p
}

func (p *painter) StartRender() {
	p.drawing = true
	gl.BindVertexArray(p.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
}

func (p *painter) EndRender() {
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	gl.Disable(gl.BLEND)
	p.drawing = false
}

func (p *painter) Clear(r, g, b, a float32) {
	p.backend.Clear(r, g, b, a)
}

func (p *painter) Draw(material *metadata.MaterialDefinition, vertexData []byte, vertexCount int, uniforms *metadata.UniformCommandList) error {
	if !p.drawing {
		return fmt.Errorf("draw outside StartRender/EndRender")
	}
	stride := material.VertexStride()
	if vertexCount <= 0 || stride == 0 {
		return nil
	}
	if len(vertexData) < vertexCount*stride {
		return fmt.Errorf("material '%s' expects %d bytes of vertices, got %d", material.Name(), vertexCount*stride, len(vertexData))
	}

	gl.BufferData(gl.ARRAY_BUFFER, vertexCount*stride, gl.Ptr(vertexData), gl.STREAM_DRAW)
	setupAttributes(material.Attributes(), int32(stride))

	for i := 0; i < material.NumPasses(); i++ {
		pass := material.Pass(i)
		shader := pass.Shader()
		if shader == nil {
			return fmt.Errorf("material '%s' pass %d has no compiled shader", material.Name(), i)
		}
		shader.Bind()
		applyBlend(pass.Blend())
		if uniforms != nil {
			uniforms.Apply(p.backend)
		}
		gl.DrawArrays(gl.TRIANGLES, 0, int32(vertexCount))
	}
	return nil
}

func (p *painter) Release() {
	if p.vbo != 0 {
		gl.DeleteBuffers(1, &p.vbo)
		p.vbo = 0
	}
	if p.vao != 0 {
		gl.DeleteVertexArrays(1, &p.vao)
		p.vao = 0
	}
}

func setupAttributes(attributes []metadata.MaterialAttribute, stride int32) {
	for _, a := range attributes {
		components := int32(metadata.ComponentCount(a.Type))
		if components == 0 {
			continue
		}
		location := uint32(a.Location)
		if metadata.IsIntegral(a.Type) {
			gl.VertexAttribIPointer(location, components, gl.INT, stride, gl.PtrOffset(a.Offset))
			gl.EnableVertexAttribArray(location)
			continue
		}

		// Matrices take one location per column.
		columns := int32(1)
		switch a.Type {
		case metadata.ShaderParameterTypeMatrix2:
			columns = 2
		case metadata.ShaderParameterTypeMatrix3:
			columns = 3
		case metadata.ShaderParameterTypeMatrix4:
			columns = 4
		}
		rows := components / columns
		for c := int32(0); c < columns; c++ {
			offset := a.Offset + int(c*rows*4)
			gl.VertexAttribPointerWithOffset(location+uint32(c), rows, gl.FLOAT, false, stride, uintptr(offset))
			gl.EnableVertexAttribArray(location + uint32(c))
		}
	}
}

func applyBlend(blend metadata.BlendType) {
	switch blend {
	case metadata.BlendTypeOpaque:
		gl.Disable(gl.BLEND)
		return
	case metadata.BlendTypeAlpha:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case metadata.BlendTypeAlphaPremultiplied:
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	case metadata.BlendTypeAdd:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	case metadata.BlendTypeMultiply:
		gl.BlendFunc(gl.DST_COLOR, gl.ONE_MINUS_SRC_ALPHA)
	default:
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
}
