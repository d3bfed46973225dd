package types

import "testing"

import "github.com/stretchr/testify/assert"

func TestInternReturnsIdenticalPointerForSameShape(t *testing.T) {
	m := NewManager()
	a := m.ArrayOf(m.Integer(), 5)
	b := m.ArrayOf(m.Integer(), 5)
	assert.True(t, EqualTypes(a, b))
	assert.Same(t, a, b)
}

func TestInternDistinguishesShapes(t *testing.T) {
	m := NewManager()
	a := m.ArrayOf(m.Integer(), 5)
	b := m.ArrayOf(m.Integer(), 6)
	c := m.ArrayOf(m.Float(), 5)
	assert.False(t, EqualTypes(a, b))
	assert.False(t, EqualTypes(a, c))
}

func TestFunctionOfInternsByParamsAndResult(t *testing.T) {
	m := NewManager()
	f1 := m.FunctionOf([]*Type{m.Integer(), m.Float()}, m.Boolean())
	f2 := m.FunctionOf([]*Type{m.Integer(), m.Float()}, m.Boolean())
	f3 := m.FunctionOf([]*Type{m.Float(), m.Integer()}, m.Boolean())
	assert.Same(t, f1, f2)
	assert.False(t, EqualTypes(f1, f3))
}

func TestCopyableTypes(t *testing.T) {
	m := NewManager()
	assert.True(t, CopyableTypes(m.Integer(), m.Integer()))
	assert.True(t, CopyableTypes(m.Float(), m.Integer()))
	assert.False(t, CopyableTypes(m.Integer(), m.Float()))
	assert.False(t, CopyableTypes(m.Boolean(), m.Integer()))

	arr1 := m.ArrayOf(m.Integer(), 3)
	arr2 := m.ArrayOf(m.Integer(), 3)
	arr3 := m.ArrayOf(m.Integer(), 4)
	assert.True(t, CopyableTypes(arr1, arr2))
	assert.False(t, CopyableTypes(arr1, arr3))
}

func TestComparableTypesEquality(t *testing.T) {
	m := NewManager()
	assert.True(t, ComparableTypes(m.Integer(), m.Float(), RelEquality))
	assert.True(t, ComparableTypes(m.Boolean(), m.Boolean(), RelEquality))
	assert.True(t, ComparableTypes(m.Character(), m.Character(), RelEquality))
	assert.False(t, ComparableTypes(m.Boolean(), m.Integer(), RelEquality))
	arr := m.ArrayOf(m.Integer(), 2)
	assert.False(t, ComparableTypes(arr, arr, RelEquality))
}

func TestComparableTypesOrdering(t *testing.T) {
	m := NewManager()
	assert.True(t, ComparableTypes(m.Integer(), m.Float(), RelOrdering))
	assert.False(t, ComparableTypes(m.Boolean(), m.Boolean(), RelOrdering))
}

func TestSizeOf(t *testing.T) {
	m := NewManager()
	assert.Equal(t, 1, m.Integer().SizeOf())
	assert.Equal(t, 0, m.Void().SizeOf())
	assert.Equal(t, 0, m.Error().SizeOf())
	assert.Equal(t, 7, m.ArrayOf(m.Character(), 7).SizeOf())
	assert.Equal(t, 1, m.FunctionOf(nil, m.Void()).SizeOf())
}

func TestPredicates(t *testing.T) {
	m := NewManager()
	assert.True(t, m.Integer().IsNumeric())
	assert.True(t, m.Float().IsNumeric())
	assert.False(t, m.Boolean().IsNumeric())
	assert.True(t, m.Boolean().IsPrimitive())
	assert.False(t, m.ArrayOf(m.Integer(), 1).IsPrimitive())
}
