package xmat

import "fmt"

// ByteStream is a Stream over a growable in-memory buffer.
//
// In write mode a write past the end of the buffer zero-fills the gap, and a
// write inside the buffer overwrites it in place. In read mode the buffer can
// be extended with Push, which lets a reader be fed incrementally.
type ByteStream struct {
	buf     []byte
	cursor  int
	mode    Mode
	endian  Endian
	closed  bool
	release func() error
}

// NewByteWriter returns an empty write-mode stream.
func NewByteWriter(e Endian) *ByteStream {
	return &ByteStream{mode: ModeWrite, endian: e}
}

// NewByteReader returns a read-mode stream over buf. The stream does not copy
// buf; the caller must not modify it while the stream is in use.
func NewByteReader(buf []byte, e Endian) *ByteStream {
	return &ByteStream{buf: buf, mode: ModeRead, endian: e}
}

func (s *ByteStream) Mode() Mode         { return s.mode }
func (s *ByteStream) Endian() Endian     { return s.endian }
func (s *ByteStream) SetEndian(e Endian) { s.endian = e }
func (s *ByteStream) Closed() bool       { return s.closed }

// Bytes returns the whole buffer. It remains valid after Close for streams
// that are not memory mapped.
func (s *ByteStream) Bytes() []byte { return s.buf }

// Len returns the buffer length.
func (s *ByteStream) Len() int { return len(s.buf) }

// Push appends p to the end of a read-mode buffer without moving the cursor.
func (s *ByteStream) Push(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != ModeRead {
		return ErrWrongMode
	}
	if s.release != nil {
		return fmt.Errorf("%w: mapped stream is fixed size", ErrUsage)
	}
	s.buf = append(s.buf, p...)
	return nil
}

func (s *ByteStream) WriteBytes(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != ModeWrite {
		return ErrWrongMode
	}
	end := s.cursor + len(p)
	if end > len(s.buf) {
		old := len(s.buf)
		if end > cap(s.buf) {
			grown := make([]byte, end, max(end, 2*cap(s.buf)))
			copy(grown, s.buf)
			s.buf = grown
		} else {
			s.buf = s.buf[:end]
			clear(s.buf[old:end])
		}
	}
	copy(s.buf[s.cursor:end], p)
	s.cursor = end
	return nil
}

// ReadBytes returns the next n bytes. The slice aliases the buffer and must
// not be modified.
func (s *ByteStream) ReadBytes(n int) ([]byte, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if s.mode != ModeRead {
		return nil, ErrWrongMode
	}
	if n < 0 {
		return nil, fmt.Errorf("xmat: negative read length %d", n)
	}
	if n > len(s.buf)-s.cursor {
		return nil, fmt.Errorf("%w: wanted %d bytes at %d, have %d", ErrOutOfBounds, n, s.cursor, len(s.buf))
	}
	out := s.buf[s.cursor : s.cursor+n : s.cursor+n]
	s.cursor += n
	return out, nil
}

func (s *ByteStream) Tell() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return int64(s.cursor), nil
}

func (s *ByteStream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	target, err := seekTarget(int64(s.cursor), int64(len(s.buf)), offset, whence)
	if err != nil {
		return int64(s.cursor), err
	}
	s.cursor = int(target)
	return target, nil
}

func (s *ByteStream) Size() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	return int64(len(s.buf)), nil
}

func (s *ByteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.release != nil {
		err := s.release()
		s.release = nil
		s.buf = nil
		return err
	}
	return nil
}

// reset empties a write-mode stream so it can be reused, keeping capacity.
func (s *ByteStream) reset() error {
	if s.mode != ModeWrite {
		return ErrWrongMode
	}
	s.buf = s.buf[:0]
	s.cursor = 0
	s.closed = false
	return nil
}
