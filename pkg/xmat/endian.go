package xmat

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"
)

// ByteOrder combines the read/write and append views of encoding/binary.
type ByteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Endian is the byte order of a stream.
type Endian uint8

const (
	LittleEndian Endian = iota
	BigEndian
)

var nativeEndian = checkEndianness()

// checkEndianness uses a fixed integer value to determine the host's byte order.
func checkEndianness() Endian {
	var i uint16 = 0x0100
	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return BigEndian
	}
	return LittleEndian
}

// NativeEndian returns the byte order of the running process.
func NativeEndian() Endian { return nativeEndian }

// NonNativeEndian returns the byte order opposite to the running process.
func NonNativeEndian() Endian { return nativeEndian.Other() }

// Other returns the opposite byte order.
func (e Endian) Other() Endian {
	if e == BigEndian {
		return LittleEndian
	}
	return BigEndian
}

func (e Endian) IsNative() bool { return e == nativeEndian }

// ByteOrder returns the encoding/binary implementation for e.
func (e Endian) ByteOrder() ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// ParseEndian accepts "little", "big", "native" and "non-native", as well as
// the single character forms "<", ">" and "=".
func ParseEndian(s string) (Endian, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "<", "le":
		return LittleEndian, nil
	case "big", ">", "be":
		return BigEndian, nil
	case "native", "=", "":
		return NativeEndian(), nil
	case "non-native", "nonnative":
		return NonNativeEndian(), nil
	default:
		return 0, fmt.Errorf("xmat: unknown byte order %q", s)
	}
}
