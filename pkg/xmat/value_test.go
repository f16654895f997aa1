package xmat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeBool, TypeOf[bool]())
	assert.Equal(t, TypeInt32, TypeOf[int32]())
	assert.Equal(t, TypeUint8, TypeOf[uint8]())
	assert.Equal(t, TypeComplex64, TypeOf[complex64]())
	assert.Equal(t, TypeComplex128, TypeOf[complex128]())

	assert.Equal(t, 16, TypeComplex128.Size())
	assert.Equal(t, 0, TypeID(0x7f).Size())
	assert.True(t, TypeBytes.OrderAgnostic())
	assert.False(t, TypeInt16.OrderAgnostic())
	assert.Len(t, Types(), 14)
}

func TestParseType(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]TypeID{
		"float64": TypeFloat64,
		"double":  TypeFloat64,
		"str":     TypeBytes,
		"int":     TypeInt64,
		"UINT16":  TypeUint16,
		"complex": TypeComplex128,
	} {
		got, err := ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseType("float16")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestParseEndian(t *testing.T) {
	t.Parallel()

	e, err := ParseEndian(">")
	require.NoError(t, err)
	assert.Equal(t, BigEndian, e)
	e, err = ParseEndian("native")
	require.NoError(t, err)
	assert.True(t, e.IsNative())
	e, err = ParseEndian("non-native")
	require.NoError(t, err)
	assert.False(t, e.IsNative())
	_, err = ParseEndian("middle")
	require.Error(t, err)
}

func TestArrayShapeMustMatch(t *testing.T) {
	t.Parallel()

	_, err := Array([]int32{1, 2, 3}, 2, 2)
	require.ErrorIs(t, err, ErrShape)

	_, err = ArrayOrder(MemOrder('X'), []int32{1})
	require.ErrorIs(t, err, ErrBadOrder)

	v, err := Array([]int32{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, v.Shape())
	assert.Equal(t, 0, v.Len())
}

func TestValueAccessors(t *testing.T) {
	t.Parallel()

	s := Scalar(float32(2.5))
	assert.Equal(t, KindScalar, s.Kind())
	assert.Zero(t, s.NDim())
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, float32(2.5), s.Interface())
	x, err := ScalarOf[float32](s)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), x)

	a, err := Array([]uint16{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, "uint16[3x2]C", a.String())
	_, err = ScalarOf[uint16](a)
	require.ErrorIs(t, err, ErrShape)
	_, err = As[int16](a)
	require.ErrorIs(t, err, ErrTypeMismatch)

	b := Bytes([]byte{1, 2})
	_, ok := b.Raw()
	assert.True(t, ok)
	_, err = As[uint8](b)
	require.ErrorIs(t, err, ErrTypeMismatch)

	str := String("hi")
	text, ok := str.Text()
	assert.True(t, ok)
	assert.Equal(t, "hi", text)
	assert.Equal(t, TypeBytes, str.Type())
}

func TestUnsupportedValue(t *testing.T) {
	t.Parallel()

	w, err := NewMemWriter(LittleEndian)
	require.NoError(t, err)
	require.ErrorIs(t, w.SetItem("zero", Value{}), ErrUnsupportedType)
}
