package metadata

import (
	"fmt"

	"github.com/spaghettifunk/vista/engine/core"
)

// StageAssetID returns the asset holding the source of one stage of a shader asset.
func StageAssetID(shaderAssetID string, stage ShaderStage) string {
	return fmt.Sprintf("shaders/%s.%s.glsl", shaderAssetID, stage)
}

/**
 * @brief A compiled shader shared by every pass naming the same asset.
 * Lifetime is that of the longest holder. Render thread only.
 */
type SharedShader struct {
	assetID    string
	shader     Shader
	attributes []MaterialAttribute
	references uint64
	library    *ShaderLibrary
}

func (s *SharedShader) AssetID() string {
	return s.assetID
}

func (s *SharedShader) Shader() Shader {
	return s.shader
}

func (s *SharedShader) References() uint64 {
	return s.references
}

// Release drops one reference. The backend program is destroyed with the last one.
func (s *SharedShader) Release() {
	if s.references == 0 {
		core.LogWarn("shader '%s' released more times than it was acquired", s.assetID)
		return
	}
	s.references--
	if s.references == 0 {
		s.library.evict(s)
	}
}

/**
 * @brief Resolves shader assets into compiled programs, at most once per asset id.
 */
type ShaderLibrary struct {
	loader  ResourceLoader
	factory ShaderFactory
	shaders map[string]*SharedShader
}

func NewShaderLibrary(loader ResourceLoader, factory ShaderFactory) *ShaderLibrary {
	return &ShaderLibrary{
		loader:  loader,
		factory: factory,
		shaders: make(map[string]*SharedShader),
	}
}

// Acquire returns the shared shader for the asset, compiling it with the given
// attribute bindings on first use. Every call must be paired with Release.
func (l *ShaderLibrary) Acquire(assetID string, attributes []MaterialAttribute) (*SharedShader, error) {
	if s, ok := l.shaders[assetID]; ok {
		if !sameBindings(s.attributes, attributes) {
			core.LogWarn("shader '%s' already bound with a different attribute layout, keeping the first one", assetID)
		}
		s.references++
		return s, nil
	}

	shader, err := l.compile(assetID, attributes)
	if err != nil {
		return nil, err
	}
	s := &SharedShader{
		assetID:    assetID,
		shader:     shader,
		attributes: append([]MaterialAttribute(nil), attributes...),
		references: 1,
		library:    l,
	}
	l.shaders[assetID] = s
	core.LogDebug("shader '%s' compiled (program %d)", assetID, shader.NativeID())
	return s, nil
}

// Reload recompiles a live shader from its current sources. Holders keep their
// SharedShader and observe the new program. The old program survives a failed build.
func (l *ShaderLibrary) Reload(assetID string) error {
	s, ok := l.shaders[assetID]
	if !ok {
		return nil
	}
	shader, err := l.compile(assetID, s.attributes)
	if err != nil {
		return err
	}
	s.shader.Release()
	s.shader = shader
	core.LogInfo("shader '%s' reloaded", assetID)
	return nil
}

func (l *ShaderLibrary) compile(assetID string, attributes []MaterialAttribute) (Shader, error) {
	shader := l.factory.CreateShader(assetID)
	shader.SetAttributes(attributes)
	for _, stage := range ShaderStages {
		res, err := l.loader.Load(StageAssetID(assetID, stage))
		if err != nil {
			shader.Release()
			return nil, fmt.Errorf("shader '%s' %s stage: %v: %w", assetID, stage, err, core.ErrResourceLoad)
		}
		shader.AddStage(stage, res.Data)
	}
	if err := shader.Compile(); err != nil {
		shader.Release()
		return nil, fmt.Errorf("shader '%s': %w", assetID, err)
	}
	return shader, nil
}

func (l *ShaderLibrary) evict(s *SharedShader) {
	if current, ok := l.shaders[s.assetID]; ok && current == s {
		delete(l.shaders, s.assetID)
	}
	s.shader.Release()
	core.LogDebug("shader '%s' released", s.assetID)
}

// Has reports whether a compiled shader for the asset is alive.
func (l *ShaderLibrary) Has(assetID string) bool {
	_, ok := l.shaders[assetID]
	return ok
}

func (l *ShaderLibrary) Count() int {
	return len(l.shaders)
}

// Shutdown destroys every shader regardless of outstanding references.
func (l *ShaderLibrary) Shutdown() {
	for id, s := range l.shaders {
		s.shader.Release()
		s.references = 0
		delete(l.shaders, id)
	}
}

func sameBindings(a, b []MaterialAttribute) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Location != b[i].Location {
			return false
		}
	}
	return true
}
