package xmat

import (
	"fmt"
	"io"
)

// Writer appends named blocks to a container.
//
// The writer reserves the header up-front and patches the total length in
// Close. It exclusively owns its stream; closing the writer closes the stream.
// Like Reader, a Writer has a single owner and is not safe for concurrent use.
type Writer struct {
	s      Stream
	head   Header
	names  map[string]struct{}
	blocks []Block
	limits bool
	closed bool
}

type WriterOption func(*Writer)

// WithLimits controls whether blocks that exceed the header's max_ndim and
// max_name declarations are rejected. It is on by default.
func WithLimits(enforce bool) WriterOption {
	return func(w *Writer) { w.limits = enforce }
}

// NewWriter starts a container on s, which must be a write-mode stream
// positioned at offset 0. A placeholder header is written immediately.
func NewWriter(s Stream, opts ...WriterOption) (*Writer, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil stream", ErrUsage)
	}
	if s.Mode() != ModeWrite {
		return nil, ErrWrongMode
	}
	pos, err := s.Tell()
	if err != nil {
		return nil, err
	}
	if pos != 0 {
		return nil, fmt.Errorf("%w: writer must start at offset 0, stream is at %d", ErrUsage, pos)
	}

	w := &Writer{
		s:      s,
		head:   NewHeader(),
		names:  make(map[string]struct{}),
		limits: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := w.head.Dump(s); err != nil {
		return nil, err
	}
	return w, nil
}

// NewMemWriter starts a container in a fresh in-memory buffer.
func NewMemWriter(e Endian, opts ...WriterOption) (*Writer, error) {
	return NewWriter(NewByteWriter(e), opts...)
}

// CreateFile starts a container in a new file at path.
func CreateFile(path string, e Endian, opts ...WriterOption) (*Writer, error) {
	s, err := CreateFileStream(path, e)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(s, opts...)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return w, nil
}

// SetItem appends v under name. Names are unique within a container; a
// second SetItem with the same name fails and leaves the first block intact.
func (w *Writer) SetItem(name string, v Value) error {
	if w.closed {
		return ErrClosed
	}
	if _, ok := w.names[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	b, err := describe(name, v)
	if err != nil {
		return err
	}
	if err := b.validate(w.limits); err != nil {
		return err
	}

	// Encode fully before writing so a failure leaves the stream untouched.
	e := w.s.Endian()
	buf := b.Encode(e)
	buf, err = encodeValue(buf, v, e)
	if err != nil {
		return err
	}

	off, err := w.s.Tell()
	if err != nil {
		return err
	}
	if err := w.s.WriteBytes(buf); err != nil {
		return err
	}
	b.Offset = off
	w.blocks = append(w.blocks, b)
	w.names[name] = struct{}{}
	return nil
}

// Close patches the header's total with the final stream size and closes the
// stream. Calling Close again is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	size, err := w.s.Size()
	if err != nil {
		_ = w.s.Close()
		return err
	}
	total := uint64(size)
	if _, err := w.s.Seek(totalOffset, io.SeekStart); err != nil {
		_ = w.s.Close()
		return err
	}
	var patch [8]byte
	w.s.Endian().ByteOrder().PutUint64(patch[:], total)
	if err := w.s.WriteBytes(patch[:]); err != nil {
		_ = w.s.Close()
		return err
	}
	if _, err := w.s.Seek(0, io.SeekEnd); err != nil {
		_ = w.s.Close()
		return err
	}
	w.head.Total = total
	return w.s.Close()
}

// Bytes returns the finished container of a memory-backed writer.
func (w *Writer) Bytes() ([]byte, error) {
	bs, ok := w.s.(*ByteStream)
	if !ok {
		return nil, ErrNotMemory
	}
	if !w.closed {
		return nil, ErrNotFinalized
	}
	return bs.Bytes(), nil
}

// Reset discards all blocks of a memory-backed writer and starts a new
// container in the same buffer. Slices returned by Bytes become invalid.
func (w *Writer) Reset() error {
	bs, ok := w.s.(*ByteStream)
	if !ok {
		return ErrNotMemory
	}
	if err := bs.reset(); err != nil {
		return err
	}
	w.head = NewHeader()
	w.blocks = w.blocks[:0]
	clear(w.names)
	w.closed = false
	return w.head.Dump(bs)
}

// Header returns the header; Total is only set after Close.
func (w *Writer) Header() Header {
	return w.head
}

// Blocks returns the descriptors written so far, in write order.
func (w *Writer) Blocks() []Block {
	return append([]Block(nil), w.blocks...)
}

func (w *Writer) Len() int {
	return len(w.blocks)
}

func (w *Writer) Closed() bool {
	return w.closed
}

// Stream returns the underlying stream.
func (w *Writer) Stream() Stream { return w.s }
