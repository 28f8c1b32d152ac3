package metadata

import (
	"errors"
	"fmt"
	"os"
	"time"
)

type memLoader struct {
	files    map[string][]byte
	modified time.Time
	loads    []string
}

func newMemLoader(files map[string]string) *memLoader {
	l := &memLoader{files: make(map[string][]byte), modified: time.Unix(1700000000, 0)}
	for k, v := range files {
		l.files[k] = []byte(v)
	}
	return l
}

func (l *memLoader) Load(assetID string) (*Resource, error) {
	l.loads = append(l.loads, assetID)
	data, ok := l.files[assetID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", assetID, os.ErrNotExist)
	}
	return &Resource{
		Name:         assetID,
		FullPath:     "/assets/" + assetID,
		DataSize:     uint64(len(data)),
		Data:         data,
		LastModified: l.modified,
	}, nil
}

func (l *memLoader) Timestamp(assetID string) (time.Time, error) {
	if _, ok := l.files[assetID]; !ok {
		return time.Time{}, os.ErrNotExist
	}
	return l.modified, nil
}

type recordingShader struct {
	id         uint32
	name       string
	attributes []MaterialAttribute
	stages     map[ShaderStage]string
	compileErr error
	compiled   bool
	released   bool
}

func (s *recordingShader) SetAttributes(attributes []MaterialAttribute) {
	s.attributes = attributes
}

func (s *recordingShader) AddStage(stage ShaderStage, source []byte) {
	s.stages[stage] = string(source)
}

func (s *recordingShader) Compile() error {
	if s.compileErr != nil {
		return s.compileErr
	}
	s.compiled = true
	return nil
}

func (s *recordingShader) Bind() {}

func (s *recordingShader) UniformLocation(name string) int32 {
	return -1
}

func (s *recordingShader) NativeID() uint32 {
	return s.id
}

func (s *recordingShader) Release() {
	s.released = true
}

type recordingFactory struct {
	shaders []*recordingShader
	failing bool
}

func (f *recordingFactory) CreateShader(name string) Shader {
	s := &recordingShader{id: uint32(len(f.shaders) + 1), name: name, stages: make(map[ShaderStage]string)}
	if f.failing {
		s.compileErr = errors.New("0:1: syntax error")
	}
	f.shaders = append(f.shaders, s)
	return s
}

func shaderSources(ids ...string) map[string]string {
	files := make(map[string]string)
	for _, id := range ids {
		files[StageAssetID(id, ShaderStageVertex)] = "// vertex " + id
		files[StageAssetID(id, ShaderStagePixel)] = "// pixel " + id
	}
	return files
}
