package metadata

import (
	"fmt"

	"github.com/spaghettifunk/vista/engine/core"
)

/**
 * @brief Receives uniform values. Implemented by the backend for the currently
 * bound program.
 */
type UniformSink interface {
	Uniform1iv(address int32, count int, values []int32)
	Uniform1fv(address int32, count int, values []float32)
	UniformIntN(address int32, n int, values []int32)
	UniformFloatN(address int32, n int, values []float32)
}

/**
 * @brief A deferred uniform upload: a shader address, a kind and a copy of the
 * data taken at construction time.
 */
type UniformBinding struct {
	Address int32
	Kind    UniformType
	/** @brief Component count for scalar kinds, element count for arrays. */
	Count int

	ints   []int32
	floats []float32
}

// NewUniformBinding validates and copies the data. Scalar kinds take 1 to 4
// components, array kinds any positive element count.
func NewUniformBinding(address int32, kind UniformType, count int, data any) (UniformBinding, error) {
	switch kind {
	case UniformTypeInt, UniformTypeFloat:
		if count < 1 || count > 4 {
			return UniformBinding{}, fmt.Errorf("%s uniform with %d components: %w", kind, count, core.ErrUnsupportedUniformType)
		}
	case UniformTypeIntArray, UniformTypeFloatArray:
		if count < 1 {
			return UniformBinding{}, fmt.Errorf("%s uniform with %d elements: %w", kind, count, core.ErrUnsupportedUniformType)
		}
	default:
		return UniformBinding{}, fmt.Errorf("%s: %w", kind, core.ErrUnsupportedUniformType)
	}

	b := UniformBinding{Address: address, Kind: kind, Count: count}
	switch kind {
	case UniformTypeInt, UniformTypeIntArray:
		values, ok := data.([]int32)
		if !ok || len(values) < count {
			return UniformBinding{}, fmt.Errorf("%s uniform needs %d int32 values, got %T: %w", kind, count, data, core.ErrUnsupportedUniformType)
		}
		b.ints = append([]int32(nil), values[:count]...)
	default:
		values, ok := data.([]float32)
		if !ok || len(values) < count {
			return UniformBinding{}, fmt.Errorf("%s uniform needs %d float32 values, got %T: %w", kind, count, data, core.ErrUnsupportedUniformType)
		}
		b.floats = append([]float32(nil), values[:count]...)
	}
	return b, nil
}

func (b UniformBinding) Ints() []int32 {
	return b.ints
}

func (b UniformBinding) Floats() []float32 {
	return b.floats
}

// Apply uploads the captured values into the sink. The zero binding, returned
// alongside construction errors, uploads nothing.
func (b UniformBinding) Apply(sink UniformSink) {
	if b.Count == 0 {
		return
	}
	switch b.Kind {
	case UniformTypeInt:
		sink.UniformIntN(b.Address, b.Count, b.ints)
	case UniformTypeIntArray:
		sink.Uniform1iv(b.Address, b.Count, b.ints)
	case UniformTypeFloat:
		sink.UniformFloatN(b.Address, b.Count, b.floats)
	case UniformTypeFloatArray:
		sink.Uniform1fv(b.Address, b.Count, b.floats)
	}
}

/**
 * @brief Bindings collected in submission order and replayed together.
 */
type UniformCommandList struct {
	bindings []UniformBinding
}

func NewUniformCommandList() *UniformCommandList {
	return &UniformCommandList{}
}

// Add records a binding. Invalid bindings are logged and skipped.
func (l *UniformCommandList) Add(address int32, kind UniformType, count int, data any) bool {
	b, err := NewUniformBinding(address, kind, count, data)
	if err != nil {
		core.LogWarn("skipping uniform at address %d: %s", address, err)
		return false
	}
	l.bindings = append(l.bindings, b)
	return true
}

func (l *UniformCommandList) Append(b UniformBinding) {
	l.bindings = append(l.bindings, b)
}

func (l *UniformCommandList) Bindings() []UniformBinding {
	return l.bindings
}

func (l *UniformCommandList) Len() int {
	return len(l.bindings)
}

// Apply replays every binding in order.
func (l *UniformCommandList) Apply(sink UniformSink) {
	for _, b := range l.bindings {
		b.Apply(sink)
	}
}

func (l *UniformCommandList) Reset() {
	l.bindings = l.bindings[:0]
}
