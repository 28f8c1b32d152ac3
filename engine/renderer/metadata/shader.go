package metadata

import (
	"fmt"
	"strings"
)

/** @brief The types a material uniform or vertex attribute can take. */
type ShaderParameterType int

const (
	ShaderParameterTypeFloat ShaderParameterType = iota
	ShaderParameterTypeFloat2
	ShaderParameterTypeFloat3
	ShaderParameterTypeFloat4
	ShaderParameterTypeInt
	ShaderParameterTypeInt2
	ShaderParameterTypeInt3
	ShaderParameterTypeInt4
	ShaderParameterTypeMatrix2
	ShaderParameterTypeMatrix3
	ShaderParameterTypeMatrix4
	ShaderParameterTypeTexture2D
	/** @brief Sentinel for unrecognized data. Never binds. */
	ShaderParameterTypeInvalid
)

var shaderParameterTypeNames = [...]string{
	ShaderParameterTypeFloat:     "float",
	ShaderParameterTypeFloat2:    "float2",
	ShaderParameterTypeFloat3:    "float3",
	ShaderParameterTypeFloat4:    "float4",
	ShaderParameterTypeInt:       "int",
	ShaderParameterTypeInt2:      "int2",
	ShaderParameterTypeInt3:      "int3",
	ShaderParameterTypeInt4:      "int4",
	ShaderParameterTypeMatrix2:   "mat2",
	ShaderParameterTypeMatrix3:   "mat3",
	ShaderParameterTypeMatrix4:   "mat4",
	ShaderParameterTypeTexture2D: "texture2d",
	ShaderParameterTypeInvalid:   "invalid",
}

func (t ShaderParameterType) String() string {
	if t < 0 || int(t) >= len(shaderParameterTypeNames) {
		return "invalid"
	}
	return shaderParameterTypeNames[t]
}

// ShaderParameterTypeFromString parses the names used in material files. The
// GLSL spellings (vec2, ivec3, sampler2D...) are accepted as aliases.
func ShaderParameterTypeFromString(s string) (ShaderParameterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float":
		return ShaderParameterTypeFloat, nil
	case "float2", "vec2":
		return ShaderParameterTypeFloat2, nil
	case "float3", "vec3":
		return ShaderParameterTypeFloat3, nil
	case "float4", "vec4":
		return ShaderParameterTypeFloat4, nil
	case "int":
		return ShaderParameterTypeInt, nil
	case "int2", "ivec2":
		return ShaderParameterTypeInt2, nil
	case "int3", "ivec3":
		return ShaderParameterTypeInt3, nil
	case "int4", "ivec4":
		return ShaderParameterTypeInt4, nil
	case "mat2", "matrix2":
		return ShaderParameterTypeMatrix2, nil
	case "mat3", "matrix3":
		return ShaderParameterTypeMatrix3, nil
	case "mat4", "matrix4":
		return ShaderParameterTypeMatrix4, nil
	case "texture2d", "sampler2d":
		return ShaderParameterTypeTexture2D, nil
	}
	return ShaderParameterTypeInvalid, fmt.Errorf("string %s is not a valid ShaderParameterType", s)
}

func (t ShaderParameterType) MarshalText() ([]byte, error) {
	if t == ShaderParameterTypeInvalid || t.String() == "invalid" {
		return nil, fmt.Errorf("cannot serialize invalid shader parameter type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *ShaderParameterType) UnmarshalText(text []byte) error {
	v, err := ShaderParameterTypeFromString(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// AttributeSize returns the size in bytes a parameter of the given type takes
// inside a vertex record or uniform block. Texture samplers take one int slot.
func AttributeSize(t ShaderParameterType) int {
	switch t {
	case ShaderParameterTypeFloat, ShaderParameterTypeInt, ShaderParameterTypeTexture2D:
		return 4
	case ShaderParameterTypeFloat2, ShaderParameterTypeInt2:
		return 8
	case ShaderParameterTypeFloat3, ShaderParameterTypeInt3:
		return 12
	case ShaderParameterTypeFloat4, ShaderParameterTypeInt4, ShaderParameterTypeMatrix2:
		return 16
	case ShaderParameterTypeMatrix3:
		return 36
	case ShaderParameterTypeMatrix4:
		return 64
	default:
		return 0
	}
}

// ComponentCount returns the number of scalar components of the type.
func ComponentCount(t ShaderParameterType) int {
	return AttributeSize(t) / 4
}

// IsIntegral reports whether the components are integers.
func IsIntegral(t ShaderParameterType) bool {
	switch t {
	case ShaderParameterTypeInt, ShaderParameterTypeInt2, ShaderParameterTypeInt3, ShaderParameterTypeInt4, ShaderParameterTypeTexture2D:
		return true
	}
	return false
}

/** @brief Shader stages available in the system. */
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStagePixel
)

func (s ShaderStage) String() string {
	if s == ShaderStageVertex {
		return "vertex"
	}
	return "pixel"
}

// ShaderStages lists every stage a material pass program is built from, in link order.
var ShaderStages = []ShaderStage{ShaderStageVertex, ShaderStagePixel}

/**
 * @brief A compiled backend program. Created empty by a factory, given its
 * stage sources and attribute bindings, then compiled once.
 */
type Shader interface {
	// SetAttributes fixes the attribute locations used at link time.
	SetAttributes(attributes []MaterialAttribute)
	AddStage(stage ShaderStage, source []byte)
	Compile() error
	Bind()
	// UniformLocation returns -1 when the program has no such uniform.
	UniformLocation(name string) int32
	NativeID() uint32
	Release()
}

type ShaderFactory interface {
	CreateShader(name string) Shader
}

/** @brief The kinds of deferred uniform bindings a backend can apply. */
type UniformType int

const (
	UniformTypeInt UniformType = iota
	UniformTypeIntArray
	UniformTypeFloat
	UniformTypeFloatArray
)

func (t UniformType) String() string {
	switch t {
	case UniformTypeInt:
		return "int"
	case UniformTypeIntArray:
		return "int[]"
	case UniformTypeFloat:
		return "float"
	case UniformTypeFloatArray:
		return "float[]"
	}
	return fmt.Sprintf("UniformType(%d)", int(t))
}
