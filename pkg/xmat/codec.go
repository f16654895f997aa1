package xmat

import (
	"encoding/binary"
	"fmt"
	"math"
)

// appendElements appends the elements of data (a []T for some Element T) to
// dst in the byte order bo.
func appendElements(dst []byte, data any, bo ByteOrder) ([]byte, error) {
	switch d := data.(type) {
	case []bool:
		for _, x := range d {
			if x {
				dst = append(dst, 1)
			} else {
				dst = append(dst, 0)
			}
		}
	case []int8:
		for _, x := range d {
			dst = append(dst, byte(x))
		}
	case []uint8:
		dst = append(dst, d...)
	case []int16:
		for _, x := range d {
			dst = bo.AppendUint16(dst, uint16(x))
		}
	case []uint16:
		for _, x := range d {
			dst = bo.AppendUint16(dst, x)
		}
	case []int32:
		for _, x := range d {
			dst = bo.AppendUint32(dst, uint32(x))
		}
	case []uint32:
		for _, x := range d {
			dst = bo.AppendUint32(dst, x)
		}
	case []int64:
		for _, x := range d {
			dst = bo.AppendUint64(dst, uint64(x))
		}
	case []uint64:
		for _, x := range d {
			dst = bo.AppendUint64(dst, x)
		}
	case []float32:
		for _, x := range d {
			dst = bo.AppendUint32(dst, math.Float32bits(x))
		}
	case []float64:
		for _, x := range d {
			dst = bo.AppendUint64(dst, math.Float64bits(x))
		}
	case []complex64:
		// Real and imaginary parts are swapped independently.
		for _, x := range d {
			dst = bo.AppendUint32(dst, math.Float32bits(real(x)))
			dst = bo.AppendUint32(dst, math.Float32bits(imag(x)))
		}
	case []complex128:
		for _, x := range d {
			dst = bo.AppendUint64(dst, math.Float64bits(real(x)))
			dst = bo.AppendUint64(dst, math.Float64bits(imag(x)))
		}
	default:
		return dst, fmt.Errorf("%w: %T", ErrUnsupportedType, data)
	}
	return dst, nil
}

// decodeElements decodes n elements of type t from raw. raw must hold exactly
// n*t.Size() bytes. Byte payloads are copied out of raw.
func decodeElements(t TypeID, raw []byte, n int, bo binary.ByteOrder) (any, error) {
	size := t.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: 0x%02x", ErrBadType, uint8(t))
	}
	if len(raw) != n*size {
		return nil, fmt.Errorf("%w: %s payload has %d bytes, want %d", ErrCorrupt, t, len(raw), n*size)
	}
	switch t {
	case TypeBytes, TypeUint8:
		return append([]byte(nil), raw...), nil
	case TypeBool:
		out := make([]bool, n)
		for i := range out {
			out[i] = raw[i] != 0
		}
		return out, nil
	case TypeInt8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out, nil
	case TypeInt16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(bo.Uint16(raw[i*2:]))
		}
		return out, nil
	case TypeUint16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = bo.Uint16(raw[i*2:])
		}
		return out, nil
	case TypeInt32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(bo.Uint32(raw[i*4:]))
		}
		return out, nil
	case TypeUint32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = bo.Uint32(raw[i*4:])
		}
		return out, nil
	case TypeInt64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(bo.Uint64(raw[i*8:]))
		}
		return out, nil
	case TypeUint64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = bo.Uint64(raw[i*8:])
		}
		return out, nil
	case TypeFloat32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(bo.Uint32(raw[i*4:]))
		}
		return out, nil
	case TypeFloat64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(bo.Uint64(raw[i*8:]))
		}
		return out, nil
	case TypeComplex64:
		out := make([]complex64, n)
		for i := range out {
			re := math.Float32frombits(bo.Uint32(raw[i*8:]))
			im := math.Float32frombits(bo.Uint32(raw[i*8+4:]))
			out[i] = complex(re, im)
		}
		return out, nil
	case TypeComplex128:
		out := make([]complex128, n)
		for i := range out {
			re := math.Float64frombits(bo.Uint64(raw[i*16:]))
			im := math.Float64frombits(bo.Uint64(raw[i*16+8:]))
			out[i] = complex(re, im)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: 0x%02x", ErrBadType, uint8(t))
}
