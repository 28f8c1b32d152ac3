package metadata

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// MaterialFormat selects the textual encoding of a material definition.
type MaterialFormat int

const (
	// TOML is the canonical format written by Serialize.
	MaterialFormatTOML MaterialFormat = iota
	// YAML is accepted as an import format.
	MaterialFormatYAML
)

func MaterialFormatFromPath(path string) MaterialFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return MaterialFormatYAML
	default:
		return MaterialFormatTOML
	}
}

type materialFile struct {
	Name       string          `toml:"name" yaml:"name"`
	Passes     []passFile      `toml:"passes" yaml:"passes"`
	Uniforms   []attributeFile `toml:"uniforms,omitempty" yaml:"uniforms,omitempty"`
	Attributes []attributeFile `toml:"attributes,omitempty" yaml:"attributes,omitempty"`
}

type passFile struct {
	Blend  string `toml:"blend" yaml:"blend"`
	Shader string `toml:"shader" yaml:"shader"`
}

type attributeFile struct {
	Name     string `toml:"name" yaml:"name"`
	Type     string `toml:"type" yaml:"type"`
	Location int    `toml:"location" yaml:"location"`
	// Omitted offsets are packed after the previous entry.
	Offset *int `toml:"offset,omitempty" yaml:"offset,omitempty"`
}

type decodedMaterial struct {
	name       string
	passes     []MaterialPass
	uniforms   []MaterialAttribute
	attributes []MaterialAttribute
}

// decodeMaterial parses and validates a serialized material definition.
func decodeMaterial(data []byte, format MaterialFormat) (*decodedMaterial, error) {
	var f materialFile
	switch format {
	case MaterialFormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode yaml material: %w", err)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode toml material: %w", err)
		}
	}
	return f.validate()
}

func (f *materialFile) validate() (*decodedMaterial, error) {
	if f.Name == "" {
		return nil, fmt.Errorf("material name is required")
	}
	if len(f.Passes) == 0 {
		return nil, fmt.Errorf("material '%s' has no passes", f.Name)
	}

	out := &decodedMaterial{
		name:   f.Name,
		passes: make([]MaterialPass, 0, len(f.Passes)),
	}
	for i, p := range f.Passes {
		blend, err := BlendTypeFromString(p.Blend)
		if err != nil {
			return nil, fmt.Errorf("pass %d: %w", i, err)
		}
		if p.Shader == "" {
			return nil, fmt.Errorf("pass %d: shader asset is required", i)
		}
		out.passes = append(out.passes, NewMaterialPass(blend, p.Shader))
	}

	var err error
	if out.uniforms, err = decodeAttributes(f.Uniforms, false); err != nil {
		return nil, fmt.Errorf("uniforms: %w", err)
	}
	if out.attributes, err = decodeAttributes(f.Attributes, true); err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}
	return out, nil
}

// decodeAttributes resolves types and offsets. Vertex layouts are tightly
// packed, so an explicit vertex offset must match the running size sum.
func decodeAttributes(in []attributeFile, packed bool) ([]MaterialAttribute, error) {
	out := make([]MaterialAttribute, 0, len(in))
	offset := 0
	for _, a := range in {
		if a.Name == "" {
			return nil, fmt.Errorf("entry at offset %d has no name", offset)
		}
		t, err := ShaderParameterTypeFromString(a.Type)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", a.Name, err)
		}
		attr := MaterialAttribute{Name: a.Name, Type: t, Location: a.Location, Offset: offset}
		if a.Offset != nil {
			if packed && *a.Offset != offset {
				return nil, fmt.Errorf("'%s': offset %d does not match packed offset %d", a.Name, *a.Offset, offset)
			}
			attr.Offset = *a.Offset
		}
		out = append(out, attr)
		offset = attr.Offset + attr.Size()
	}
	return out, nil
}

func encodeAttributes(in []MaterialAttribute) []attributeFile {
	out := make([]attributeFile, 0, len(in))
	for _, a := range in {
		offset := a.Offset
		out = append(out, attributeFile{
			Name:     a.Name,
			Type:     a.Type.String(),
			Location: a.Location,
			Offset:   &offset,
		})
	}
	return out
}

// Serialize writes the definition in the canonical TOML format. Every ordering
// survives a Serialize/Load round trip.
func (m *MaterialDefinition) Serialize() ([]byte, error) {
	f := materialFile{
		Name:       m.name,
		Passes:     make([]passFile, 0, len(m.passes)),
		Uniforms:   encodeAttributes(m.uniforms),
		Attributes: encodeAttributes(m.attributes),
	}
	for _, p := range m.passes {
		f.Passes = append(f.Passes, passFile{Blend: p.blend.String(), Shader: p.shaderAssetID})
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
