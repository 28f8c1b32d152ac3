package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/renderer"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
	"github.com/spaghettifunk/vista/engine/resources/loaders"
)

// Graphics is what the resource system needs from the video output.
type Graphics interface {
	metadata.TextureFactory
	metadata.ShaderFactory
}

// AsyncTextureLoader hands decode work to the background texture loader.
type AsyncTextureLoader interface {
	LoadTextureAsync(ctx context.Context, name string, decode renderer.TextureDecodeFunc) (*renderer.PendingTexture, error)
}

type TextureReference struct {
	ReferenceCount uint64
	Texture        metadata.Texture
	AutoRelease    bool
}

type MaterialReference struct {
	ReferenceCount uint64
	Material       *metadata.MaterialDefinition
	AutoRelease    bool
}

type pendingReference struct {
	pending     *renderer.PendingTexture
	autoRelease bool
	references  uint64
}

/**
 * @brief Owns textures and materials by asset id. Callers hold shared references
 * handed out by Acquire and give them back through Release. Render thread only.
 */
type ResourceSystem struct {
	loader   metadata.ResourceLoader
	graphics Graphics
	async    AsyncTextureLoader
	shaders  *metadata.ShaderLibrary

	defaultTexture metadata.Texture
	textures       map[string]*TextureReference
	materials      map[string]*MaterialReference
	pending        map[string]*pendingReference
	textureParams  loaders.TextureParams
}

// NewResourceSystem creates the caches. async may be nil, in which case every
// texture loads synchronously.
func NewResourceSystem(loader metadata.ResourceLoader, graphics Graphics, async AsyncTextureLoader) *ResourceSystem {
	return &ResourceSystem{
		loader:        loader,
		graphics:      graphics,
		async:         async,
		shaders:       metadata.NewShaderLibrary(loader, graphics),
		textures:      make(map[string]*TextureReference),
		materials:     make(map[string]*MaterialReference),
		pending:       make(map[string]*pendingReference),
		textureParams: loaders.DefaultTextureParams(),
	}
}

// Initialize creates the fallback texture.
func (rs *ResourceSystem) Initialize() error {
	texture, err := rs.graphics.CreateTexture(metadata.NewCheckerboardDescriptor(16))
	if err != nil {
		core.LogError("failed to create the default texture: %s", err)
		return err
	}
	rs.defaultTexture = texture
	return nil
}

func (rs *ResourceSystem) SetTextureParams(params loaders.TextureParams) {
	rs.textureParams = params
}

func (rs *ResourceSystem) Shaders() *metadata.ShaderLibrary {
	return rs.shaders
}

func (rs *ResourceSystem) DefaultTexture() metadata.Texture {
	return rs.defaultTexture
}

// AcquireTexture returns the cached texture or loads it synchronously. Every
// call must be paired with ReleaseTexture.
func (rs *ResourceSystem) AcquireTexture(assetID string, autoRelease bool) (metadata.Texture, error) {
	if assetID == metadata.DEFAULT_TEXTURE_NAME {
		core.LogWarn("AcquireTexture called for the default texture. Use DefaultTexture instead")
		return rs.defaultTexture, nil
	}
	if p, ok := rs.pending[assetID]; ok && p.pending.Ready() {
		delete(rs.pending, assetID)
		rs.adopt(assetID, p)
	}
	if ref, ok := rs.textures[assetID]; ok {
		ref.ReferenceCount++
		return ref.Texture, nil
	}

	descriptor, err := decodeTexture(rs.loader, assetID, rs.textureParams)
	if err != nil {
		return nil, err
	}
	texture, err := rs.graphics.CreateTexture(descriptor)
	if err != nil {
		return nil, fmt.Errorf("texture '%s': %w", assetID, err)
	}
	ref := &TextureReference{
		ReferenceCount: 1,
		Texture:        texture,
		AutoRelease:    autoRelease,
	}

	// A background load still in flight resolves to this texture and its
	// references move over.
	if p, ok := rs.pending[assetID]; ok {
		delete(rs.pending, assetID)
		if !p.pending.Resolve(texture, nil) {
			if other, err := p.pending.Result(); err == nil && other != nil && other != texture {
				other.Release()
			}
		}
		ref.ReferenceCount += p.references
		ref.AutoRelease = p.autoRelease
	}
	rs.textures[assetID] = ref
	return texture, nil
}

// AcquireTextureAsync queues the texture on the background loader. The pending
// handle resolves during a later frame; Update moves it into the cache. The
// reference is counted right away.
func (rs *ResourceSystem) AcquireTextureAsync(ctx context.Context, assetID string, autoRelease bool) (*renderer.PendingTexture, error) {
	if rs.async == nil {
		return nil, errors.New("no background texture loader configured")
	}
	if p, ok := rs.pending[assetID]; ok {
		p.references++
		return p.pending, nil
	}
	if ref, ok := rs.textures[assetID]; ok {
		ref.ReferenceCount++
		return renderer.NewResolvedTexture(assetID, ref.Texture), nil
	}

	loader, params := rs.loader, rs.textureParams
	pending, err := rs.async.LoadTextureAsync(ctx, assetID, func(context.Context) (*metadata.TextureDescriptor, error) {
		return decodeTexture(loader, assetID, params)
	})
	if err != nil {
		return nil, err
	}
	rs.pending[assetID] = &pendingReference{pending: pending, autoRelease: autoRelease, references: 1}
	return pending, nil
}

// Update registers finished background loads. Call once per frame after the
// video output uploaded them.
func (rs *ResourceSystem) Update() {
	for id, p := range rs.pending {
		if !p.pending.Ready() {
			continue
		}
		delete(rs.pending, id)
		rs.adopt(id, p)
	}
}

// adopt moves a resolved background load into the cache. Loads whose references
// were all released in the meantime are destroyed right away when auto released.
func (rs *ResourceSystem) adopt(assetID string, p *pendingReference) {
	texture, err := p.pending.Result()
	if err != nil {
		core.LogWarn("texture '%s' failed to load: %s", assetID, err)
		return
	}
	if ref, ok := rs.textures[assetID]; ok {
		if ref.Texture != texture {
			texture.Release()
		}
		ref.ReferenceCount += p.references
		return
	}
	if p.references == 0 && p.autoRelease {
		texture.Release()
		return
	}
	rs.textures[assetID] = &TextureReference{
		ReferenceCount: p.references,
		Texture:        texture,
		AutoRelease:    p.autoRelease,
	}
}

// ReleaseTexture drops one reference. Auto release textures are destroyed with
// the last one.
func (rs *ResourceSystem) ReleaseTexture(assetID string) {
	ref, ok := rs.textures[assetID]
	if !ok {
		if p, pending := rs.pending[assetID]; pending && p.references > 0 {
			p.references--
			return
		}
		core.LogWarn("ReleaseTexture called for unknown texture '%s'", assetID)
		return
	}
	if ref.ReferenceCount > 0 {
		ref.ReferenceCount--
	}
	if ref.ReferenceCount == 0 && ref.AutoRelease {
		ref.Texture.Release()
		delete(rs.textures, assetID)
	}
}

func decodeTexture(loader metadata.ResourceLoader, assetID string, params loaders.TextureParams) (*metadata.TextureDescriptor, error) {
	res, err := loader.Load(assetID)
	if err != nil {
		return nil, err
	}
	descriptor, err := loaders.DecodeTexture(assetID, res.Data, params)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrResourceLoad)
	}
	return descriptor, nil
}

// AcquireMaterial returns the cached definition or loads it and resolves its
// shaders. Every call must be paired with ReleaseMaterial.
func (rs *ResourceSystem) AcquireMaterial(assetID string, autoRelease bool) (*metadata.MaterialDefinition, error) {
	if ref, ok := rs.materials[assetID]; ok {
		ref.ReferenceCount++
		return ref.Material, nil
	}
	res, err := rs.loader.Load(assetID)
	if err != nil {
		return nil, err
	}
	material, err := metadata.LoadMaterialDefinition(res, rs.shaders)
	if err != nil {
		return nil, err
	}
	rs.materials[assetID] = &MaterialReference{
		ReferenceCount: 1,
		Material:       material,
		AutoRelease:    autoRelease,
	}
	return material, nil
}

func (rs *ResourceSystem) ReleaseMaterial(assetID string) {
	ref, ok := rs.materials[assetID]
	if !ok {
		core.LogWarn("ReleaseMaterial called for unknown material '%s'", assetID)
		return
	}
	if ref.ReferenceCount > 0 {
		ref.ReferenceCount--
	}
	if ref.ReferenceCount == 0 && ref.AutoRelease {
		ref.Material.Release()
		delete(rs.materials, assetID)
	}
}

// Outdated reports whether the asset changed on disk since the cached material
// was loaded.
func (rs *ResourceSystem) Outdated(assetID string) (bool, error) {
	ref, ok := rs.materials[assetID]
	if !ok {
		return false, nil
	}
	ts, err := rs.loader.Timestamp(assetID)
	if err != nil {
		return false, err
	}
	return ts.After(ref.Material.LastModified()), nil
}

// Reload refreshes a resident asset in place. Materials are re-read and shader
// stages recompile the shader they belong to. Other assets are ignored.
func (rs *ResourceSystem) Reload(assetID string) error {
	if ref, ok := rs.materials[assetID]; ok {
		res, err := rs.loader.Load(assetID)
		if err != nil {
			return err
		}
		return ref.Material.Reload(res)
	}
	if shaderID, ok := ShaderAssetFromStage(assetID); ok {
		return rs.shaders.Reload(shaderID)
	}
	if _, ok := rs.textures[assetID]; ok {
		core.LogDebug("texture '%s' changed; textures are not reloaded in place", assetID)
	}
	return nil
}

// ShaderAssetFromStage maps "shaders/<id>.<stage>.glsl" back to <id>.
func ShaderAssetFromStage(assetID string) (string, bool) {
	rest, ok := strings.CutPrefix(assetID, "shaders/")
	if !ok {
		return "", false
	}
	rest, ok = strings.CutSuffix(rest, ".glsl")
	if !ok {
		return "", false
	}
	for _, stage := range metadata.ShaderStages {
		if id, found := strings.CutSuffix(rest, "."+stage.String()); found && id != "" {
			return id, true
		}
	}
	return "", false
}

func (rs *ResourceSystem) TextureCount() int {
	return len(rs.textures)
}

func (rs *ResourceSystem) MaterialCount() int {
	return len(rs.materials)
}

// Shutdown releases everything regardless of outstanding references.
func (rs *ResourceSystem) Shutdown() {
	for id, ref := range rs.materials {
		ref.Material.Release()
		delete(rs.materials, id)
	}
	rs.shaders.Shutdown()
	for id, ref := range rs.textures {
		ref.Texture.Release()
		delete(rs.textures, id)
	}
	if rs.defaultTexture != nil {
		rs.defaultTexture.Release()
		rs.defaultTexture = nil
	}
}
