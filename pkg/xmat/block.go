package xmat

import (
	"fmt"
	"math"
	"math/bits"
)

// blockPrefixSize is the fixed part of a descriptor: morder, tid, ndim,
// namelen and four zero bytes.
const blockPrefixSize = 8

// Block describes one named block. Offset is the stream position of the
// descriptor's first byte.
type Block struct {
	Order  MemOrder
	Type   TypeID
	Shape  []uint64
	Name   string
	Offset int64
}

func (b Block) NDim() int        { return len(b.Shape) }
func (b Block) ElementSize() int { return b.Type.Size() }

// NumElements is the product of the shape, 1 for scalars.
func (b Block) NumElements() uint64 {
	n, ok := product(b.Shape)
	if !ok {
		return math.MaxUint64
	}
	return n
}

// DescriptorSize is the encoded size of the descriptor without payload.
func (b Block) DescriptorSize() int64 {
	return int64(blockPrefixSize + 8*len(b.Shape) + len(b.Name))
}

func (b Block) PayloadOffset() int64 { return b.Offset + b.DescriptorSize() }

// PayloadSize is the payload length in bytes. It saturates at MaxUint64 for
// shapes whose size does not fit in 64 bits.
func (b Block) PayloadSize() uint64 {
	n, ok := product(b.Shape)
	if !ok {
		return math.MaxUint64
	}
	hi, lo := bits.Mul64(n, uint64(b.ElementSize()))
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// End is the offset just past the payload, or false if it overflows int64.
func (b Block) End() (int64, bool) {
	size := b.PayloadSize()
	start := b.PayloadOffset()
	if size > uint64(math.MaxInt64-start) {
		return 0, false
	}
	return start + int64(size), true
}

func (b Block) String() string {
	return fmt.Sprintf("%s %s%v%s @%d", b.Name, b.Type, b.Shape, b.Order, b.Offset)
}

// describe derives the descriptor for v stored under name.
func describe(name string, v Value) (Block, error) {
	switch v.kind {
	case KindScalar:
		return Block{Order: RowMajor, Type: v.typ, Name: name}, nil
	case KindArray:
		return Block{Order: v.order, Type: v.typ, Shape: v.Shape(), Name: name}, nil
	case KindBytes, KindString:
		return Block{Order: RowMajor, Type: TypeBytes, Shape: []uint64{uint64(len(v.data.([]byte)))}, Name: name}, nil
	default:
		return Block{}, fmt.Errorf("%w: %s value", ErrUnsupportedType, v.kind)
	}
}

// validate checks that b can be encoded. With limits, the header's declared
// capability ceilings apply as well.
func (b Block) validate(limits bool) error {
	if !b.Order.Valid() {
		return fmt.Errorf("%w: %q", ErrBadOrder, byte(b.Order))
	}
	if !b.Type.Valid() {
		return fmt.Errorf("%w: 0x%02x", ErrBadType, uint8(b.Type))
	}
	maxDim, maxName := 0xff, 0xff
	if limits {
		maxDim, maxName = int(MaxNDim), int(MaxName)
	}
	if len(b.Shape) > maxDim {
		return fmt.Errorf("%w: %q has %d dimensions, max %d", ErrLimit, b.Name, len(b.Shape), maxDim)
	}
	if len(b.Name) > maxName {
		return fmt.Errorf("%w: name %q is %d bytes, max %d", ErrLimit, b.Name, len(b.Name), maxName)
	}
	return nil
}

// Encode returns the descriptor bytes in byte order e.
func (b Block) Encode(e Endian) []byte {
	bo := e.ByteOrder()
	out := make([]byte, blockPrefixSize, b.DescriptorSize())
	out[0] = byte(b.Order)
	out[1] = byte(b.Type)
	out[2] = uint8(len(b.Shape))
	out[3] = uint8(len(b.Name))
	for _, d := range b.Shape {
		out = bo.AppendUint64(out, d)
	}
	return append(out, b.Name...)
}

// Dump writes the descriptor at the cursor of s.
func (b Block) Dump(s Stream) error {
	return s.WriteBytes(b.Encode(s.Endian()))
}

// LoadBlock reads a descriptor at the cursor of s and leaves the cursor at
// the start of its payload.
func LoadBlock(s Stream) (Block, error) {
	off, err := s.Tell()
	if err != nil {
		return Block{}, err
	}
	prefix, err := s.ReadBytes(blockPrefixSize)
	if err != nil {
		return Block{}, err
	}
	b := Block{Order: MemOrder(prefix[0]), Type: TypeID(prefix[1]), Offset: off}
	ndim, namelen := int(prefix[2]), int(prefix[3])
	for _, p := range prefix[4:8] {
		if p != 0 {
			return Block{}, fmt.Errorf("%w: at offset %d", ErrPadding, off)
		}
	}
	if !b.Order.Valid() {
		return Block{}, fmt.Errorf("%w: %q at offset %d", ErrBadOrder, prefix[0], off)
	}
	if !b.Type.Valid() {
		return Block{}, fmt.Errorf("%w: 0x%02x at offset %d", ErrBadType, prefix[1], off)
	}
	if ndim > 0 {
		raw, err := s.ReadBytes(8 * ndim)
		if err != nil {
			return Block{}, err
		}
		bo := s.Endian().ByteOrder()
		b.Shape = make([]uint64, ndim)
		for i := range b.Shape {
			b.Shape[i] = bo.Uint64(raw[8*i:])
		}
	}
	if namelen > 0 {
		raw, err := s.ReadBytes(namelen)
		if err != nil {
			return Block{}, err
		}
		b.Name = string(raw)
	}
	return b, nil
}
