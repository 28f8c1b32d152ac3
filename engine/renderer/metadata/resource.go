package metadata

import "time"

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Text resource type. */
	ResourceTypeText ResourceType = iota
	/** @brief Binary resource type. */
	ResourceTypeBinary
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Material definition resource type. */
	ResourceTypeMaterial
	/** @brief Shader stage source resource type. */
	ResourceTypeShader
	/** @brief Custom resource type. Used by loaders outside the core engine. */
	ResourceTypeCustom
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeText:
		return "text"
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMaterial:
		return "material"
	case ResourceTypeShader:
		return "shader"
	default:
		return "custom"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The asset identifier the resource was requested with. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The raw resource bytes. */
	Data []byte
	/** @brief The last write time of the backing asset. */
	LastModified time.Time
}

// ResourceLoader yields the raw bytes of an asset. The core calls it once per
// asset at load or reload time and never caches the bytes itself.
type ResourceLoader interface {
	Load(assetID string) (*Resource, error)
	Timestamp(assetID string) (time.Time, error)
}
