package xmat

import (
	"fmt"
	"strings"
)

// TypeID identifies the element encoding of a block.
// Keep these stable forever; add new values only.
type TypeID uint8

const (
	TypeBytes TypeID = 0x01
	TypeBool  TypeID = 0x02

	TypeInt8  TypeID = 0x10
	TypeInt16 TypeID = 0x11
	TypeInt32 TypeID = 0x12
	TypeInt64 TypeID = 0x13

	TypeUint8  TypeID = 0x20
	TypeUint16 TypeID = 0x21
	TypeUint32 TypeID = 0x22
	TypeUint64 TypeID = 0x23

	TypeFloat32 TypeID = 0x52
	TypeFloat64 TypeID = 0x53

	TypeComplex64  TypeID = 0x62
	TypeComplex128 TypeID = 0x63
)

type typeInfo struct {
	size int
	name string
}

var types = map[TypeID]typeInfo{
	TypeBytes:      {1, "bytes"},
	TypeBool:       {1, "bool"},
	TypeInt8:       {1, "int8"},
	TypeInt16:      {2, "int16"},
	TypeInt32:      {4, "int32"},
	TypeInt64:      {8, "int64"},
	TypeUint8:      {1, "uint8"},
	TypeUint16:     {2, "uint16"},
	TypeUint32:     {4, "uint32"},
	TypeUint64:     {8, "uint64"},
	TypeFloat32:    {4, "float32"},
	TypeFloat64:    {8, "float64"},
	TypeComplex64:  {8, "complex64"},
	TypeComplex128: {16, "complex128"},
}

// Types returns every registered type id in ascending order.
func Types() []TypeID {
	return []TypeID{
		TypeBytes, TypeBool,
		TypeInt8, TypeInt16, TypeInt32, TypeInt64,
		TypeUint8, TypeUint16, TypeUint32, TypeUint64,
		TypeFloat32, TypeFloat64,
		TypeComplex64, TypeComplex128,
	}
}

// Valid reports whether t is a registered type id.
func (t TypeID) Valid() bool {
	_, ok := types[t]
	return ok
}

// Size returns the element size in bytes, or 0 for unknown ids.
func (t TypeID) Size() int { return types[t].size }

// OrderAgnostic reports whether elements of t are unaffected by byte order.
func (t TypeID) OrderAgnostic() bool { return t.Size() == 1 }

func (t TypeID) String() string {
	if info, ok := types[t]; ok {
		return info.name
	}
	return fmt.Sprintf("type(0x%02x)", uint8(t))
}

// ParseType resolves a type name. Besides the canonical names it accepts
// "str"/"string" for bytes and the aliases "int", "uint", "float" and
// "complex" for their widest variants.
func ParseType(name string) (TypeID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "str", "string":
		return TypeBytes, nil
	case "int":
		return TypeInt64, nil
	case "uint":
		return TypeUint64, nil
	case "float", "double":
		return TypeFloat64, nil
	case "complex":
		return TypeComplex128, nil
	}
	for id, info := range types {
		if info.name == n {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// Element is the set of Go types that can be stored as block elements.
type Element interface {
	bool |
		int8 | int16 | int32 | int64 |
		uint8 | uint16 | uint32 | uint64 |
		float32 | float64 |
		complex64 | complex128
}

// TypeOf returns the type id used to store elements of type T.
func TypeOf[T Element]() TypeID {
	var zero T
	switch any(zero).(type) {
	case bool:
		return TypeBool
	case int8:
		return TypeInt8
	case int16:
		return TypeInt16
	case int32:
		return TypeInt32
	case int64:
		return TypeInt64
	case uint8:
		return TypeUint8
	case uint16:
		return TypeUint16
	case uint32:
		return TypeUint32
	case uint64:
		return TypeUint64
	case float32:
		return TypeFloat32
	case float64:
		return TypeFloat64
	case complex64:
		return TypeComplex64
	default:
		return TypeComplex128
	}
}
