package xmat

import (
	"fmt"
	"io"
)

// Mode is the direction a Stream was opened in. It never changes.
type Mode uint8

const (
	ModeRead  Mode = 'r'
	ModeWrite Mode = 'w'
)

func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Stream is a read-only or write-only byte cursor with a byte order.
//
// Seek uses the io.Seeker whence values; targets outside [0, Size] fail with
// ErrOutOfRange and leave the cursor where it was. Close releases the
// underlying resource once; later calls return nil.
type Stream interface {
	Mode() Mode
	Endian() Endian
	SetEndian(e Endian)

	WriteBytes(p []byte) error
	ReadBytes(n int) ([]byte, error)

	Tell() (int64, error)
	Seek(offset int64, whence int) (int64, error)
	Size() (int64, error)
	Close() error
}

// Write encodes v at the cursor of s using the stream's byte order. Byte and
// string values are written verbatim.
func Write(s Stream, v Value) error {
	if s.Mode() != ModeWrite {
		return ErrWrongMode
	}
	buf, err := encodeValue(nil, v, s.Endian())
	if err != nil {
		return err
	}
	return s.WriteBytes(buf)
}

// WriteScalar writes one element in the stream's byte order.
func WriteScalar[T Element](s Stream, x T) error {
	return Write(s, Scalar(x))
}

// Read reads count elements of type T in the stream's byte order.
func Read[T Element](s Stream, count int) ([]T, error) {
	if s.Mode() != ModeRead {
		return nil, ErrWrongMode
	}
	if count < 0 {
		return nil, fmt.Errorf("xmat: negative element count %d", count)
	}
	t := TypeOf[T]()
	raw, err := s.ReadBytes(count * t.Size())
	if err != nil {
		return nil, err
	}
	data, err := decodeElements(t, raw, count, s.Endian().ByteOrder())
	if err != nil {
		return nil, err
	}
	return data.([]T), nil
}

// ReadScalar reads a single element of type T.
func ReadScalar[T Element](s Stream) (T, error) {
	var zero T
	data, err := Read[T](s, 1)
	if err != nil {
		return zero, err
	}
	return data[0], nil
}

func encodeValue(dst []byte, v Value, e Endian) ([]byte, error) {
	switch v.kind {
	case KindBytes, KindString:
		return append(dst, v.data.([]byte)...), nil
	case KindScalar, KindArray:
		return appendElements(dst, v.data, e.ByteOrder())
	default:
		return dst, fmt.Errorf("%w: %s value", ErrUnsupportedType, v.kind)
	}
}

// seekTarget resolves a seek request against the current cursor and size.
func seekTarget(cur, size, offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = cur + offset
	case io.SeekEnd:
		target = size + offset
	default:
		return cur, fmt.Errorf("%w: bad whence %d", ErrOutOfRange, whence)
	}
	if target < 0 || target > size {
		return cur, fmt.Errorf("%w: offset %d not in [0, %d]", ErrOutOfRange, target, size)
	}
	return target, nil
}
