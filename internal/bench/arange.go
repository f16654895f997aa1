package bench

import (
	"fmt"

	"github.com/signalarray/xmat/pkg/xmat"
)

// slicer returns the value holding elements [off, off+size) of a sequence.
type slicer func(off, size int) (xmat.Value, error)

// arange builds the sequence 0, 1, ..., n-1 as elements of type t.
func arange(t xmat.TypeID, n int) (slicer, error) {
	switch t {
	case xmat.TypeBytes:
		data := seq(n, func(i int) byte { return byte(i) })
		return func(off, size int) (xmat.Value, error) { return xmat.Bytes(data[off : off+size]), nil }, nil
	case xmat.TypeBool:
		return window(seq(n, func(i int) bool { return i%2 == 1 })), nil
	case xmat.TypeInt8:
		return window(seq(n, func(i int) int8 { return int8(i) })), nil
	case xmat.TypeInt16:
		return window(seq(n, func(i int) int16 { return int16(i) })), nil
	case xmat.TypeInt32:
		return window(seq(n, func(i int) int32 { return int32(i) })), nil
	case xmat.TypeInt64:
		return window(seq(n, func(i int) int64 { return int64(i) })), nil
	case xmat.TypeUint8:
		return window(seq(n, func(i int) uint8 { return uint8(i) })), nil
	case xmat.TypeUint16:
		return window(seq(n, func(i int) uint16 { return uint16(i) })), nil
	case xmat.TypeUint32:
		return window(seq(n, func(i int) uint32 { return uint32(i) })), nil
	case xmat.TypeUint64:
		return window(seq(n, func(i int) uint64 { return uint64(i) })), nil
	case xmat.TypeFloat32:
		return window(seq(n, func(i int) float32 { return float32(i) })), nil
	case xmat.TypeFloat64:
		return window(seq(n, func(i int) float64 { return float64(i) })), nil
	case xmat.TypeComplex64:
		return window(seq(n, func(i int) complex64 { return complex(float32(i), 0) })), nil
	case xmat.TypeComplex128:
		return window(seq(n, func(i int) complex128 { return complex(float64(i), 0) })), nil
	}
	return nil, fmt.Errorf("bench: %w: %s", xmat.ErrUnsupportedType, t)
}

func seq[T any](n int, f func(int) T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func window[T xmat.Element](data []T) slicer {
	return func(off, size int) (xmat.Value, error) {
		return xmat.Array(data[off : off+size])
	}
}

// firstElement returns the leading element of an array or byte value, or nil
// when it is empty.
func firstElement(v xmat.Value) any {
	if v.Len() == 0 {
		return nil
	}
	switch data := v.Interface().(type) {
	case []byte:
		return data[0]
	case []bool:
		return data[0]
	case []int8:
		return data[0]
	case []int16:
		return data[0]
	case []int32:
		return data[0]
	case []int64:
		return data[0]
	case []uint16:
		return data[0]
	case []uint32:
		return data[0]
	case []uint64:
		return data[0]
	case []float32:
		return data[0]
	case []float64:
		return data[0]
	case []complex64:
		return data[0]
	case []complex128:
		return data[0]
	}
	return nil
}
