package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/spaghettifunk/vista/engine/renderer/metadata"
)

/**
 * @brief Resolves asset ids, slash separated and relative, against a base directory.
 */
type FileLocator struct {
	basePath string
}

func NewFileLocator(basePath string) (*FileLocator, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("asset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset directory %s is not a directory", abs)
	}
	return &FileLocator{basePath: abs}, nil
}

func (l *FileLocator) BasePath() string {
	return l.basePath
}

// Path maps an asset id onto the file system. Ids escaping the base directory are rejected.
func (l *FileLocator) Path(assetID string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(assetID))
	if assetID == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("asset id '%s' is outside the asset directory", assetID)
	}
	return filepath.Join(l.basePath, clean), nil
}

// AssetID is the inverse of Path.
func (l *FileLocator) AssetID(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(l.basePath, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (l *FileLocator) Load(assetID string) (*metadata.Resource, error) {
	path, err := l.Path(assetID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, core.ErrResourceLoad)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("asset '%s': %v: %w", assetID, err, core.ErrResourceLoad)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("asset '%s': %v: %w", assetID, err, core.ErrResourceLoad)
	}
	return &metadata.Resource{
		Name:         assetID,
		FullPath:     path,
		DataSize:     uint64(len(data)),
		Data:         data,
		LastModified: info.ModTime(),
	}, nil
}

// Timestamp returns the last write time of the asset.
func (l *FileLocator) Timestamp(assetID string) (time.Time, error) {
	path, err := l.Path(assetID)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func DetermineResourceType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".tif", ".tiff":
		return metadata.ResourceTypeImage
	case ".toml", ".yaml", ".yml":
		return metadata.ResourceTypeMaterial
	case ".glsl":
		return metadata.ResourceTypeShader
	case ".txt":
		return metadata.ResourceTypeText
	default:
		return metadata.ResourceTypeBinary
	}
}
