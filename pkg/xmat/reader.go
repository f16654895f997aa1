package xmat

import (
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Logger receives the reader's diagnostics. internal/logger.Logger and
// *slog.Logger both satisfy it.
type Logger interface {
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

// TextMode selects how byte blocks are returned by Get.
type TextMode uint8

const (
	// TextNone returns byte blocks as KindBytes values.
	TextNone TextMode = iota
	// TextASCII returns KindString values and rejects bytes above 0x7f.
	TextASCII
	// TextUTF8 returns KindString values and rejects invalid UTF-8.
	TextUTF8
)

// ParseTextMode accepts "", "none", "ascii" and "utf-8"/"utf8".
func ParseTextMode(s string) (TextMode, error) {
	switch s {
	case "", "none", "bytes":
		return TextNone, nil
	case "ascii":
		return TextASCII, nil
	case "utf8", "utf-8":
		return TextUTF8, nil
	default:
		return TextNone, fmt.Errorf("xmat: unknown text mode %q", s)
	}
}

type ReaderOption func(*Reader)

// WithLogger sets the destination for the byte order correction warning.
func WithLogger(l Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// WithEndian sets the byte order assumed before the header is decoded.
func WithEndian(e Endian) ReaderOption {
	return func(r *Reader) { r.s.SetEndian(e) }
}

// WithTextDecoding sets how byte blocks are decoded.
func WithTextDecoding(m TextMode) ReaderOption {
	return func(r *Reader) { r.text = m }
}

// Reader indexes the blocks of a container and decodes them by name.
//
// Scanning is a single forward pass over descriptors that skips payloads.
// Lookups seek to the payload afterwards. A Reader is not safe for concurrent
// use because lookups move the stream cursor.
type Reader struct {
	s      Stream
	head   Header
	blocks []Block
	index  map[string]int
	log    Logger
	text   TextMode

	headerDone bool
	dataDone   bool
	closed     bool
}

// NewDeferredReader wraps s without reading from it. Call ScanHeader and
// ScanData once enough bytes are available.
func NewDeferredReader(s Stream, opts ...ReaderOption) (*Reader, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil stream", ErrUsage)
	}
	if s.Mode() != ModeRead {
		return nil, ErrWrongMode
	}
	r := &Reader{s: s, log: nopLogger{}}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// NewReader wraps s and scans it immediately. On error the stream is closed.
func NewReader(s Stream, opts ...ReaderOption) (*Reader, error) {
	r, err := NewDeferredReader(s, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.Scan(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// NewBytesReader scans a container held in buf.
func NewBytesReader(buf []byte, opts ...ReaderOption) (*Reader, error) {
	return NewReader(NewByteReader(buf, NativeEndian()), opts...)
}

// OpenFile opens and scans the container at path.
func OpenFile(path string, opts ...ReaderOption) (*Reader, error) {
	s, err := OpenFileStream(path, NativeEndian())
	if err != nil {
		return nil, err
	}
	return NewReader(s, opts...)
}

// OpenMappedFile maps the container at path and scans it.
func OpenMappedFile(path string, opts ...ReaderOption) (*Reader, error) {
	s, err := OpenMapped(path, NativeEndian())
	if err != nil {
		return nil, err
	}
	return NewReader(s, opts...)
}

// Push appends received bytes to a memory-backed deferred reader.
func (r *Reader) Push(p []byte) error {
	if r.closed {
		return ErrClosed
	}
	bs, ok := r.s.(*ByteStream)
	if !ok {
		return ErrNotMemory
	}
	return bs.Push(p)
}

// ScanHeader decodes the header at offset 0. If the header was written in the
// other byte order, the stream is switched to it and one warning is logged.
func (r *Reader) ScanHeader() error {
	if r.closed {
		return ErrClosed
	}
	if r.headerDone {
		return ErrScanned
	}
	if _, err := r.s.Seek(0, io.SeekStart); err != nil {
		return err
	}
	assumed := r.s.Endian()
	h, detected, err := LoadHeader(r.s)
	if err != nil {
		return err
	}
	if detected != assumed {
		r.log.Warn("byte order auto-corrected", "assumed", assumed.String(), "detected", detected.String())
		r.s.SetEndian(detected)
	}
	r.head = h
	r.headerDone = true
	return nil
}

// ScanData indexes every block between the header and total. Any failure,
// including a cursor that does not land exactly on total, is reported as
// ErrCorrupt and leaves the index empty.
func (r *Reader) ScanData() error {
	if r.closed {
		return ErrClosed
	}
	if !r.headerDone {
		return ErrNotScanned
	}
	if r.dataDone {
		return ErrScanned
	}
	if err := r.scanData(); err != nil {
		r.blocks = nil
		r.index = nil
		if errors.Is(err, ErrCorrupt) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	r.dataDone = true
	return nil
}

func (r *Reader) scanData() error {
	if r.head.Total > math.MaxInt64 {
		return fmt.Errorf("total %d overflows", r.head.Total)
	}
	total := int64(r.head.Total)
	pos, err := r.s.Seek(HeaderSize, io.SeekStart)
	if err != nil {
		return err
	}

	var blocks []Block
	index := make(map[string]int)
	for pos < total {
		b, err := LoadBlock(r.s)
		if err != nil {
			return err
		}
		if _, ok := index[b.Name]; ok {
			return fmt.Errorf("%w: %q at offset %d", ErrDuplicateName, b.Name, b.Offset)
		}
		end, ok := b.End()
		if !ok || end > total {
			return fmt.Errorf("block %q at offset %d runs past total %d", b.Name, b.Offset, total)
		}
		if pos, err = r.s.Seek(end, io.SeekStart); err != nil {
			return err
		}
		index[b.Name] = len(blocks)
		blocks = append(blocks, b)
	}
	if pos != total {
		return fmt.Errorf("cursor at %d, total is %d", pos, total)
	}
	r.blocks = blocks
	r.index = index
	return nil
}

// Scan runs ScanHeader followed by ScanData.
func (r *Reader) Scan() error {
	if err := r.ScanHeader(); err != nil {
		return err
	}
	return r.ScanData()
}

// Header returns the decoded header. It is only meaningful after ScanHeader.
func (r *Reader) Header() Header { return r.head }

// Endian returns the stream's current byte order.
func (r *Reader) Endian() Endian { return r.s.Endian() }

// Scanned reports whether the block index is available.
func (r *Reader) Scanned() bool { return r.dataDone }

// Keys returns block names in container order.
func (r *Reader) Keys() []string {
	keys := make([]string, len(r.blocks))
	for i, b := range r.blocks {
		keys[i] = b.Name
	}
	return keys
}

func (r *Reader) Contains(name string) bool {
	_, ok := r.index[name]
	return ok
}

func (r *Reader) Len() int { return len(r.blocks) }

// Blocks returns the indexed descriptors in container order.
func (r *Reader) Blocks() []Block { return append([]Block(nil), r.blocks...) }

// Block returns the descriptor for name.
func (r *Reader) Block(name string) (Block, error) {
	if !r.dataDone {
		return Block{}, ErrNotScanned
	}
	i, ok := r.index[name]
	if !ok {
		return Block{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return r.blocks[i], nil
}

// Payload returns the raw payload bytes of name.
func (r *Reader) Payload(name string) ([]byte, error) {
	if r.closed {
		return nil, ErrClosed
	}
	b, err := r.Block(name)
	if err != nil {
		return nil, err
	}
	return r.payload(b)
}

func (r *Reader) payload(b Block) ([]byte, error) {
	if _, err := r.s.Seek(b.PayloadOffset(), io.SeekStart); err != nil {
		return nil, err
	}
	// Bounded by total during the scan.
	return r.s.ReadBytes(int(b.PayloadSize()))
}

// Get decodes the block stored under name. Blocks with ndim 0 become scalars,
// byte blocks become KindBytes or, with text decoding, KindString values, and
// everything else becomes an array with the stored shape and memory order.
func (r *Reader) Get(name string) (Value, error) {
	if r.closed {
		return Value{}, ErrClosed
	}
	b, err := r.Block(name)
	if err != nil {
		return Value{}, err
	}
	raw, err := r.payload(b)
	if err != nil {
		return Value{}, err
	}

	if b.Type == TypeBytes {
		return r.decodeText(b, raw)
	}
	n := int(b.NumElements())
	data, err := decodeElements(b.Type, raw, n, r.s.Endian().ByteOrder())
	if err != nil {
		return Value{}, err
	}
	if b.NDim() == 0 {
		return Value{kind: KindScalar, typ: b.Type, order: RowMajor, data: data}, nil
	}
	return Value{
		kind:  KindArray,
		typ:   b.Type,
		order: b.Order,
		shape: append([]uint64(nil), b.Shape...),
		data:  data,
	}, nil
}

func (r *Reader) decodeText(b Block, raw []byte) (Value, error) {
	buf := append([]byte(nil), raw...)
	v := Value{kind: KindBytes, typ: TypeBytes, order: RowMajor, shape: []uint64{uint64(len(buf))}, data: buf}
	switch r.text {
	case TextASCII:
		for i, c := range buf {
			if c > 0x7f {
				return Value{}, fmt.Errorf("%w: %q byte %d is 0x%02x, not ascii", ErrText, b.Name, i, c)
			}
		}
		v.kind = KindString
	case TextUTF8:
		if !utf8.Valid(buf) {
			return Value{}, fmt.Errorf("%w: %q is not valid utf-8", ErrText, b.Name)
		}
		v.kind = KindString
	}
	return v, nil
}

// Digest returns the xxhash64 of the payload of name.
func (r *Reader) Digest(name string) (uint64, error) {
	raw, err := r.Payload(name)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(raw), nil
}

// Close closes the underlying stream. Calling Close again is a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.s.Close()
}
