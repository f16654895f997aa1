package xmat

import (
	"bytes"
	"fmt"
)

// Header is the fixed 17-byte preamble of a container.
type Header struct {
	Signature [4]byte
	BOM       uint16
	Total     uint64
	IntWidth  uint8
	MaxNDim   uint8
	MaxName   uint8
}

// NewHeader returns a header with the current format constants and Total 0.
func NewHeader() Header {
	var h Header
	copy(h.Signature[:], Signature)
	h.BOM = BOM
	h.IntWidth = IntWidth
	h.MaxNDim = MaxNDim
	h.MaxName = MaxName
	return h
}

// Encode lays the header out in byte order e. The signature is emitted raw.
func (h Header) Encode(e Endian) [HeaderSize]byte {
	var out [HeaderSize]byte
	bo := e.ByteOrder()
	copy(out[:signatureSize], h.Signature[:])
	bo.PutUint16(out[4:6], h.BOM)
	bo.PutUint64(out[totalOffset:totalOffset+8], h.Total)
	out[14] = h.IntWidth
	out[15] = h.MaxNDim
	out[16] = h.MaxName
	return out
}

// Dump writes the header at the cursor of s in the stream's byte order.
func (h Header) Dump(s Stream) error {
	b := h.Encode(s.Endian())
	return s.WriteBytes(b[:])
}

// DecodeHeader decodes b, which must hold at least HeaderSize bytes, assuming
// byte order assumed. It returns the byte order the header was actually
// written in; when that differs from assumed the bom was found byte-swapped.
func DecodeHeader(b []byte, assumed Endian) (Header, Endian, error) {
	var h Header
	if len(b) < HeaderSize {
		return h, assumed, fmt.Errorf("%w: header needs %d bytes, have %d", ErrOutOfBounds, HeaderSize, len(b))
	}
	if !bytes.Equal(b[:signatureSize], []byte(Signature)) {
		return h, assumed, fmt.Errorf("%w: %q", ErrSignature, b[:signatureSize])
	}
	copy(h.Signature[:], b[:signatureSize])

	e := assumed
	bom := e.ByteOrder().Uint16(b[4:6])
	if bom != BOM {
		e = e.Other()
		bom = e.ByteOrder().Uint16(b[4:6])
		if bom != BOM {
			return h, assumed, fmt.Errorf("%w: 0x%04x", ErrByteOrder, assumed.ByteOrder().Uint16(b[4:6]))
		}
	}
	h.BOM = bom

	h.Total = e.ByteOrder().Uint64(b[totalOffset : totalOffset+8])
	h.IntWidth = b[14]
	h.MaxNDim = b[15]
	h.MaxName = b[16]
	if err := h.Validate(); err != nil {
		return h, e, err
	}
	return h, e, nil
}

// Validate checks the fields a reader depends on. max_ndim and max_name are
// producer declarations and are not checked.
func (h Header) Validate() error {
	if string(h.Signature[:]) != Signature {
		return ErrSignature
	}
	if h.BOM != BOM {
		return ErrByteOrder
	}
	if h.Total < HeaderSize {
		return fmt.Errorf("%w: %d < %d", ErrHeaderTotal, h.Total, HeaderSize)
	}
	if h.IntWidth != IntWidth {
		return fmt.Errorf("%w: %d, want %d", ErrIntWidth, h.IntWidth, IntWidth)
	}
	return nil
}

// LoadHeader reads a header at the cursor of s. The signature is checked
// before the remaining fields are read. The returned Endian is the detected
// byte order; LoadHeader does not change the stream's byte order itself.
func LoadHeader(s Stream) (Header, Endian, error) {
	sig, err := s.ReadBytes(signatureSize)
	if err != nil {
		return Header{}, s.Endian(), err
	}
	if string(sig) != Signature {
		return Header{}, s.Endian(), fmt.Errorf("%w: %q", ErrSignature, sig)
	}
	rest, err := s.ReadBytes(HeaderSize - signatureSize)
	if err != nil {
		return Header{}, s.Endian(), err
	}
	buf := make([]byte, 0, HeaderSize)
	buf = append(buf, sig...)
	buf = append(buf, rest...)
	return DecodeHeader(buf, s.Endian())
}
