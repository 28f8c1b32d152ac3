package metadata

import (
	"fmt"
	"strings"
	"time"

	"github.com/spaghettifunk/vista/engine/core"
)

/** @brief How a pass combines its output with the destination. */
type BlendType int

const (
	BlendTypeOpaque BlendType = iota
	BlendTypeAlpha
	BlendTypeAlphaPremultiplied
	BlendTypeAdd
	BlendTypeMultiply
	BlendTypeInvalid
)

func (b BlendType) String() string {
	switch b {
	case BlendTypeOpaque:
		return "opaque"
	case BlendTypeAlpha:
		return "alpha"
	case BlendTypeAlphaPremultiplied:
		return "alpha_premultiplied"
	case BlendTypeAdd:
		return "add"
	case BlendTypeMultiply:
		return "multiply"
	}
	return "invalid"
}

func BlendTypeFromString(s string) (BlendType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "opaque":
		return BlendTypeOpaque, nil
	case "alpha":
		return BlendTypeAlpha, nil
	case "alpha_premultiplied", "alphapremultiplied":
		return BlendTypeAlphaPremultiplied, nil
	case "add", "additive":
		return BlendTypeAdd, nil
	case "multiply":
		return BlendTypeMultiply, nil
	}
	return BlendTypeInvalid, fmt.Errorf("string %s is not a valid BlendType", s)
}

// Attribute names conventionally holding the vertex position.
var positionAttributeNames = []string{"position", "a_position", "a_vertpos"}

/**
 * @brief A named, typed slot inside a vertex record or a uniform block.
 */
type MaterialAttribute struct {
	Name     string
	Type     ShaderParameterType
	Location int
	/** @brief Byte offset from the start of the record. */
	Offset int
}

func NewMaterialAttribute(name string, t ShaderParameterType, location int) MaterialAttribute {
	return MaterialAttribute{Name: name, Type: t, Location: location}
}

func (a MaterialAttribute) Size() int {
	return AttributeSize(a.Type)
}

func (a MaterialAttribute) isPosition() bool {
	name := strings.ToLower(a.Name)
	for _, n := range positionAttributeNames {
		if name == n {
			return true
		}
	}
	return false
}

/**
 * @brief One shading sub-step of a material. The shader is resolved lazily and
 * shared with every other pass referencing the same shader asset.
 */
type MaterialPass struct {
	blend         BlendType
	shaderAssetID string
	shader        *SharedShader
}

func NewMaterialPass(blend BlendType, shaderAssetID string) MaterialPass {
	return MaterialPass{
		blend:         blend,
		shaderAssetID: shaderAssetID,
	}
}

func (p *MaterialPass) Blend() BlendType {
	return p.blend
}

func (p *MaterialPass) ShaderAssetID() string {
	return p.shaderAssetID
}

// Shader returns the resolved program, or nil when CreateShader has not run yet.
func (p *MaterialPass) Shader() Shader {
	if p.shader == nil {
		return nil
	}
	return p.shader.Shader()
}

// SharedShader exposes the shared handle, mostly so callers can compare identity.
func (p *MaterialPass) SharedShader() *SharedShader {
	return p.shader
}

// CreateShader resolves the pass program through the library. Calling it on an
// already resolved pass is a no-op.
func (p *MaterialPass) CreateShader(library *ShaderLibrary, name string, attributes []MaterialAttribute) error {
	if p.shader != nil {
		return nil
	}
	shader, err := library.Acquire(p.shaderAssetID, attributes)
	if err != nil {
		return fmt.Errorf("material '%s' pass shader '%s': %w", name, p.shaderAssetID, err)
	}
	p.shader = shader
	return nil
}

func (p *MaterialPass) releaseShader() {
	if p.shader != nil {
		p.shader.Release()
		p.shader = nil
	}
}

/**
 * @brief Describes how geometry is shaded: the ordered passes, the uniform
 * layout and the vertex layout. Immutable after load except through Reload.
 */
type MaterialDefinition struct {
	name            string
	passes          []MaterialPass
	uniforms        []MaterialAttribute
	attributes      []MaterialAttribute
	vertexStride    int
	vertexPosOffset int

	library      *ShaderLibrary
	lastModified time.Time
}

// NewMaterialDefinition builds a definition in code. Attribute offsets are
// recomputed from the attribute order.
func NewMaterialDefinition(name string, passes []MaterialPass, uniforms, attributes []MaterialAttribute) *MaterialDefinition {
	m := &MaterialDefinition{
		name:       name,
		passes:     append([]MaterialPass(nil), passes...),
		uniforms:   packAttributes(uniforms),
		attributes: packAttributes(attributes),
	}
	m.computeLayout()
	return m
}

// LoadMaterialDefinition decodes a material resource and, when a library is
// given, resolves every pass shader right away.
func LoadMaterialDefinition(resource *Resource, library *ShaderLibrary) (*MaterialDefinition, error) {
	m := &MaterialDefinition{library: library}
	if err := m.deserialize(resource); err != nil {
		return nil, err
	}
	if err := m.resolveShaders(); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func (m *MaterialDefinition) deserialize(resource *Resource) error {
	if resource == nil || len(resource.Data) == 0 {
		return fmt.Errorf("material resource is empty: %w", core.ErrResourceLoad)
	}
	decoded, err := decodeMaterial(resource.Data, MaterialFormatFromPath(resource.FullPath))
	if err != nil {
		return fmt.Errorf("material '%s': %v: %w", resource.Name, err, core.ErrResourceLoad)
	}
	m.name = decoded.name
	m.passes = decoded.passes
	m.uniforms = decoded.uniforms
	m.attributes = decoded.attributes
	m.lastModified = resource.LastModified
	m.computeLayout()
	return nil
}

func (m *MaterialDefinition) resolveShaders() error {
	if m.library == nil {
		return nil
	}
	for i := range m.passes {
		if err := m.passes[i].CreateShader(m.library, m.name, m.attributes); err != nil {
			return err
		}
	}
	return nil
}

// Reload re-deserializes the definition in place so existing holders observe the
// new contents. On failure the previous contents stay untouched.
func (m *MaterialDefinition) Reload(resource *Resource) error {
	fresh := &MaterialDefinition{library: m.library}
	if err := fresh.deserialize(resource); err != nil {
		return err
	}
	if err := fresh.resolveShaders(); err != nil {
		fresh.Release()
		return err
	}
	m.Release()
	*m = *fresh
	core.LogDebug("material '%s' reloaded with %d pass(es)", m.name, len(m.passes))
	return nil
}

// Release drops the shared shader references of every pass.
func (m *MaterialDefinition) Release() {
	for i := range m.passes {
		m.passes[i].releaseShader()
	}
}

func (m *MaterialDefinition) computeLayout() {
	m.vertexStride = 0
	m.vertexPosOffset = 0
	found := false
	for _, a := range m.attributes {
		if !found && a.isPosition() {
			m.vertexPosOffset = a.Offset
			found = true
		}
		m.vertexStride += a.Size()
	}
}

// packAttributes assigns offsets as the running sum of the preceding sizes.
func packAttributes(attributes []MaterialAttribute) []MaterialAttribute {
	out := make([]MaterialAttribute, len(attributes))
	offset := 0
	for i, a := range attributes {
		a.Offset = offset
		out[i] = a
		offset += a.Size()
	}
	return out
}

func (m *MaterialDefinition) Name() string {
	return m.name
}

func (m *MaterialDefinition) NumPasses() int {
	return len(m.passes)
}

// Pass returns the n-th pass in render order.
func (m *MaterialDefinition) Pass(n int) *MaterialPass {
	return &m.passes[n]
}

// Uniforms returns the uniform layout. Callers must not modify it.
func (m *MaterialDefinition) Uniforms() []MaterialAttribute {
	return m.uniforms
}

// Attributes returns the vertex layout in packing order. Callers must not modify it.
func (m *MaterialDefinition) Attributes() []MaterialAttribute {
	return m.attributes
}

func (m *MaterialDefinition) VertexStride() int {
	return m.vertexStride
}

func (m *MaterialDefinition) VertexPosOffset() int {
	return m.vertexPosOffset
}

func (m *MaterialDefinition) LastModified() time.Time {
	return m.lastModified
}

// Uniform looks a uniform up by name.
func (m *MaterialDefinition) Uniform(name string) (MaterialAttribute, bool) {
	for _, u := range m.uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return MaterialAttribute{}, false
}
