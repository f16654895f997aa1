// Package xmat implements the xmat container format.
//
// An xmat container is a self-describing stream of named, typed,
// multi-dimensional blocks. It starts with a fixed 17-byte header followed by
// a sequence of block descriptors, each immediately followed by its payload:
//
//	header: sign[4]="xmat" | bom:u16=1 | total:u64 | int_width:u8=8 | max_ndim:u8=8 | max_name:u8=32
//	block:  morder:u8 | tid:u8 | ndim:u8 | namelen:u8 | pad[4]=0 | shape:u64[ndim] | name[namelen] | payload
//
// Multi-byte fields use the byte order of the stream they were written to.
// Readers detect a mismatched byte order from the bom field and switch to the
// writer's order.
//
// The same layout is used for files and in-memory buffers; the xnet package
// frames whole containers as single TCP messages using the header's total.
package xmat

// Format constants. These never change.
const (
	// Signature is the leading magic of every container.
	Signature = "xmat"

	// HeaderSize is the encoded size of Header in bytes.
	HeaderSize = 17

	// BOM is the byte-order marker value as written by the producer.
	BOM uint16 = 1

	// IntWidth is the width in bytes of total and shape fields.
	IntWidth uint8 = 8

	// MaxNDim is the largest number of dimensions a writer emits.
	MaxNDim uint8 = 8

	// MaxName is the longest block name a writer emits.
	MaxName uint8 = 32

	signatureSize = len(Signature)
	totalOffset   = 6 // signature + bom
)
