package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

type shader struct {
	name       string
	program    uint32
	attributes []metadata.MaterialAttribute
	stages     map[metadata.ShaderStage][]byte
	uniforms   map[string]int32
}

func newShader(name string) *shader {
	return &shader{
		name:     name,
		stages:   make(map[metadata.ShaderStage][]byte),
		uniforms: make(map[string]int32),
	}
}

func (s *shader) SetAttributes(attributes []metadata.MaterialAttribute) {
	s.attributes = append([]metadata.MaterialAttribute(nil), attributes...)
}

func (s *shader) AddStage(stage metadata.ShaderStage, source []byte) {
	s.stages[stage] = source
}

// Compile builds and links every stage added so far, binding the attribute
// locations before linking.
func (s *shader) Compile() error {
	if s.program != 0 {
		return fmt.Errorf("shader '%s' is already compiled", s.name)
	}

	program := gl.CreateProgram()
	var compiled []uint32
	cleanup := func() {
		for _, id := range compiled {
			gl.DeleteShader(id)
		}
	}

	for _, stage := range metadata.ShaderStages {
		source, ok := s.stages[stage]
		if !ok {
			cleanup()
			gl.DeleteProgram(program)
			return fmt.Errorf("shader '%s' has no %s stage", s.name, stage)
		}
		id, err := compileStage(stage, string(source))
		if err != nil {
			cleanup()
			gl.DeleteProgram(program)
			return fmt.Errorf("shader '%s': %w", s.name, err)
		}
		gl.AttachShader(program, id)
		compiled = append(compiled, id)
	}

	for _, a := range s.attributes {
		gl.BindAttribLocation(program, uint32(a.Location), gl.Str(a.Name+"\x00"))
	}
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		cleanup()
		gl.DeleteProgram(program)
		return fmt.Errorf("shader '%s' program linking failed: %s", s.name, strings.TrimRight(string(log), "\x00"))
	}

	// Stages are linked into the program now
	for _, id := range compiled {
		gl.DetachShader(program, id)
	}
	cleanup()
	s.program = program
	return nil
}

func compileStage(stage metadata.ShaderStage, source string) (uint32, error) {
	kind := uint32(gl.VERTEX_SHADER)
	if stage == metadata.ShaderStagePixel {
		kind = gl.FRAGMENT_SHADER
	}
	id := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(id, 1, csource, nil)
	free()
	gl.CompileShader(id)

	var status int32
	gl.GetShaderiv(id, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(id, logLength, nil, &log[0])
		gl.DeleteShader(id)
		return 0, fmt.Errorf("%s stage compilation failed: %s", stage, strings.TrimRight(string(log), "\x00"))
	}
	return id, nil
}

func (s *shader) Bind() {
	gl.UseProgram(s.program)
}

func (s *shader) UniformLocation(name string) int32 {
	if loc, ok := s.uniforms[name]; ok {
		return loc
	}
	if s.program == 0 {
		return -1
	}
	loc := gl.GetUniformLocation(s.program, gl.Str(name+"\x00"))
	s.uniforms[name] = loc
	return loc
}

func (s *shader) NativeID() uint32 {
	return s.program
}

func (s *shader) Release() {
	if s.program != 0 {
		gl.DeleteProgram(s.program)
		s.program = 0
	}
	s.uniforms = make(map[string]int32)
}
