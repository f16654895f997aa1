package xmat

import (
	"fmt"
	"math/bits"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindScalar
	KindArray
	KindBytes
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// MemOrder is the memory order of a shaped array.
type MemOrder byte

const (
	RowMajor    MemOrder = 'C'
	ColumnMajor MemOrder = 'F'
)

func (o MemOrder) Valid() bool { return o == RowMajor || o == ColumnMajor }

func (o MemOrder) String() string { return string(rune(o)) }

// Value is the payload of one block: a scalar, a shaped array or a byte
// string. Values are built with Scalar, Array, ArrayOrder, Bytes or String and
// are never mutated by this package.
type Value struct {
	kind  Kind
	typ   TypeID
	order MemOrder
	shape []uint64
	data  any // []T for numeric kinds, []byte for KindBytes and KindString
}

// Scalar wraps a single element. It is stored with ndim = 0.
func Scalar[T Element](v T) Value {
	return Value{kind: KindScalar, typ: TypeOf[T](), order: RowMajor, data: []T{v}}
}

// Array wraps a row-major array. With no shape, data is one-dimensional.
func Array[T Element](data []T, shape ...uint64) (Value, error) {
	return ArrayOrder(RowMajor, data, shape...)
}

// ArrayOrder wraps an array stored in the given memory order. The product of
// shape must equal len(data).
func ArrayOrder[T Element](order MemOrder, data []T, shape ...uint64) (Value, error) {
	if !order.Valid() {
		return Value{}, fmt.Errorf("%w: %q", ErrBadOrder, byte(order))
	}
	if len(shape) == 0 {
		shape = []uint64{uint64(len(data))}
	}
	if len(shape) > 0xff {
		return Value{}, fmt.Errorf("%w: %d dimensions", ErrLimit, len(shape))
	}
	n, ok := product(shape)
	if !ok || n != uint64(len(data)) {
		return Value{}, fmt.Errorf("%w: shape %v holds %d elements, got %d", ErrShape, shape, n, len(data))
	}
	return Value{
		kind:  KindArray,
		typ:   TypeOf[T](),
		order: order,
		shape: append([]uint64(nil), shape...),
		data:  data,
	}, nil
}

// Bytes wraps raw bytes. They are stored as a one-dimensional TypeBytes block.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, typ: TypeBytes, order: RowMajor, shape: []uint64{uint64(len(b))}, data: b}
}

// String wraps text. It is stored exactly like Bytes.
func String(s string) Value {
	return Value{kind: KindString, typ: TypeBytes, order: RowMajor, shape: []uint64{uint64(len(s))}, data: []byte(s)}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) Type() TypeID    { return v.typ }
func (v Value) Order() MemOrder { return v.order }
func (v Value) NDim() int       { return len(v.shape) }
func (v Value) IsValid() bool   { return v.kind != KindInvalid }

// Shape returns a copy of the extents. Scalars have an empty shape.
func (v Value) Shape() []uint64 { return append([]uint64(nil), v.shape...) }

// Len returns the number of elements, or the number of bytes for byte kinds.
func (v Value) Len() int {
	n, _ := product(v.shape)
	return int(n)
}

// Interface returns the element for scalars, the backing slice for arrays,
// []byte for KindBytes and string for KindString.
func (v Value) Interface() any {
	switch v.kind {
	case KindScalar:
		return scalarAt(v.data)
	case KindString:
		return string(v.data.([]byte))
	default:
		return v.data
	}
}

// Raw returns the bytes of a KindBytes or KindString value.
func (v Value) Raw() ([]byte, bool) {
	if v.kind != KindBytes && v.kind != KindString {
		return nil, false
	}
	return v.data.([]byte), true
}

// Text returns the bytes of a KindBytes or KindString value as a string.
func (v Value) Text() (string, bool) {
	b, ok := v.Raw()
	return string(b), ok
}

func (v Value) String() string {
	switch v.kind {
	case KindInvalid:
		return "invalid"
	case KindScalar:
		return fmt.Sprintf("%s(%v)", v.typ, scalarAt(v.data))
	case KindBytes, KindString:
		return fmt.Sprintf("%s[%d]", v.kind, v.Len())
	}
	dims := make([]string, len(v.shape))
	for i, d := range v.shape {
		dims[i] = fmt.Sprint(d)
	}
	return fmt.Sprintf("%s[%s]%s", v.typ, strings.Join(dims, "x"), v.order)
}

// As returns the elements of a scalar or array value as []T.
func As[T Element](v Value) ([]T, error) {
	if v.kind != KindScalar && v.kind != KindArray {
		return nil, fmt.Errorf("%w: %s value is not numeric", ErrTypeMismatch, v.kind)
	}
	data, ok := v.data.([]T)
	if !ok {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.typ, TypeOf[T]())
	}
	return data, nil
}

// ScalarOf returns the element of a scalar value.
func ScalarOf[T Element](v Value) (T, error) {
	var zero T
	if v.kind != KindScalar {
		return zero, fmt.Errorf("%w: %s value is not a scalar", ErrShape, v.kind)
	}
	data, err := As[T](v)
	if err != nil {
		return zero, err
	}
	return data[0], nil
}

func scalarAt(data any) any {
	switch d := data.(type) {
	case []bool:
		return d[0]
	case []int8:
		return d[0]
	case []int16:
		return d[0]
	case []int32:
		return d[0]
	case []int64:
		return d[0]
	case []uint8:
		return d[0]
	case []uint16:
		return d[0]
	case []uint32:
		return d[0]
	case []uint64:
		return d[0]
	case []float32:
		return d[0]
	case []float64:
		return d[0]
	case []complex64:
		return d[0]
	case []complex128:
		return d[0]
	default:
		return nil
	}
}

// product multiplies extents; an empty shape yields 1. ok is false on overflow.
func product(shape []uint64) (n uint64, ok bool) {
	n = 1
	for _, d := range shape {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}
