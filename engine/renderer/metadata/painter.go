package metadata

/**
 * @brief Issues draw calls against the currently bound render target. One painter
 * per drawing context, created by the video output.
 */
type Painter interface {
	StartRender()
	EndRender()
	Clear(r, g, b, a float32)
	// Draw renders the vertices once per material pass. vertexData holds
	// vertexCount records of material.VertexStride() bytes each.
	Draw(material *MaterialDefinition, vertexData []byte, vertexCount int, uniforms *UniformCommandList) error
	Release()
}
