package metadata

import (
	"testing"

	"github.com/spaghettifunk/vista/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkCall struct {
	method  string
	address int32
	n       int
	ints    []int32
	floats  []float32
}

type recordingSink struct {
	calls []sinkCall
}

func (s *recordingSink) Uniform1iv(address int32, count int, values []int32) {
	s.calls = append(s.calls, sinkCall{method: "Uniform1iv", address: address, n: count, ints: values})
}

func (s *recordingSink) Uniform1fv(address int32, count int, values []float32) {
	s.calls = append(s.calls, sinkCall{method: "Uniform1fv", address: address, n: count, floats: values})
}

func (s *recordingSink) UniformIntN(address int32, n int, values []int32) {
	s.calls = append(s.calls, sinkCall{method: "UniformIntN", address: address, n: n, ints: values})
}

func (s *recordingSink) UniformFloatN(address int32, n int, values []float32) {
	s.calls = append(s.calls, sinkCall{method: "UniformFloatN", address: address, n: n, floats: values})
}

func TestNewUniformBindingRejects(t *testing.T) {
	cases := []struct {
		name  string
		kind  UniformType
		count int
		data  any
	}{
		{"int with five components", UniformTypeInt, 5, []int32{1, 2, 3, 4, 5}},
		{"float with no components", UniformTypeFloat, 0, []float32{}},
		{"empty array", UniformTypeFloatArray, 0, []float32{}},
		{"unknown kind", UniformType(42), 1, []int32{1}},
		{"wrong element type", UniformTypeFloat, 2, []int32{1, 2}},
		{"short data", UniformTypeIntArray, 3, []int32{1}},
		{"no data", UniformTypeInt, 1, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b, err := NewUniformBinding(7, c.kind, c.count, c.data)
			require.ErrorIs(t, err, core.ErrUnsupportedUniformType)
			assert.Equal(t, UniformBinding{}, b)

			sink := &recordingSink{}
			b.Apply(sink)
			assert.Empty(t, sink.calls)
		})
	}
}

func TestZeroUniformBindingUploadsNothing(t *testing.T) {
	sink := &recordingSink{}
	UniformBinding{}.Apply(sink)
	UniformBinding{Address: 2, Kind: UniformTypeFloatArray}.Apply(sink)
	assert.Empty(t, sink.calls)
}

func TestUniformBindingApply(t *testing.T) {
	sink := &recordingSink{}

	mustBind := func(kind UniformType, count int, data any) UniformBinding {
		b, err := NewUniformBinding(3, kind, count, data)
		require.NoError(t, err)
		return b
	}
	mustBind(UniformTypeInt, 2, []int32{4, 5, 6}).Apply(sink)
	mustBind(UniformTypeIntArray, 3, []int32{1, 2, 3}).Apply(sink)
	mustBind(UniformTypeFloat, 4, []float32{1, 0, 0, 1}).Apply(sink)
	mustBind(UniformTypeFloatArray, 1, []float32{0.5}).Apply(sink)

	assert.Equal(t, []sinkCall{
		{method: "UniformIntN", address: 3, n: 2, ints: []int32{4, 5}},
		{method: "Uniform1iv", address: 3, n: 3, ints: []int32{1, 2, 3}},
		{method: "UniformFloatN", address: 3, n: 4, floats: []float32{1, 0, 0, 1}},
		{method: "Uniform1fv", address: 3, n: 1, floats: []float32{0.5}},
	}, sink.calls)
}

func TestUniformBindingCopiesData(t *testing.T) {
	values := []float32{1, 2}
	b, err := NewUniformBinding(0, UniformTypeFloat, 2, values)
	require.NoError(t, err)

	values[0] = 99
	assert.Equal(t, []float32{1, 2}, b.Floats())
	assert.Nil(t, b.Ints())
}

func TestUniformCommandList(t *testing.T) {
	list := NewUniformCommandList()

	assert.True(t, list.Add(1, UniformTypeFloat, 1, []float32{0.25}))
	assert.False(t, list.Add(2, UniformTypeFloat, 9, []float32{0.25}))
	assert.True(t, list.Add(3, UniformTypeInt, 1, []int32{0}))
	b, err := NewUniformBinding(4, UniformTypeIntArray, 2, []int32{7, 8})
	require.NoError(t, err)
	list.Append(b)
	require.Equal(t, 3, list.Len())

	sink := &recordingSink{}
	list.Apply(sink)
	require.Len(t, sink.calls, 3)
	assert.Equal(t, []int32{1, 3, 4}, []int32{sink.calls[0].address, sink.calls[1].address, sink.calls[2].address})
	assert.Equal(t, int32(4), list.Bindings()[2].Address)

	list.Reset()
	assert.Equal(t, 0, list.Len())
}
