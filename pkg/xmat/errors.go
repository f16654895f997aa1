package xmat

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches at most one kind
// and, where applicable, a more specific sentinel below it.
var (
	ErrFormat = errors.New("xmat: format error")
	ErrUsage  = errors.New("xmat: usage error")
)

// Format errors are fatal and never retried.
var (
	ErrSignature   = fmt.Errorf("%w: bad signature", ErrFormat)
	ErrByteOrder   = fmt.Errorf("%w: unrecognised byte order marker", ErrFormat)
	ErrIntWidth    = fmt.Errorf("%w: incompatible int width", ErrFormat)
	ErrHeaderTotal = fmt.Errorf("%w: total smaller than header", ErrFormat)
	ErrPadding     = fmt.Errorf("%w: non-zero block padding", ErrFormat)
	ErrBadType     = fmt.Errorf("%w: unknown type id", ErrFormat)
	ErrBadOrder    = fmt.Errorf("%w: unknown memory order", ErrFormat)
	ErrCorrupt     = fmt.Errorf("%w: stream corrupted", ErrFormat)
)

// Semantic errors.
var (
	ErrUnsupportedType = errors.New("xmat: unsupported value type")
	ErrDuplicateName   = errors.New("xmat: duplicate block name")
	ErrNotFound        = errors.New("xmat: block not found")
	ErrTypeMismatch    = errors.New("xmat: block type mismatch")
	ErrShape           = errors.New("xmat: shape does not match data")
	ErrText            = errors.New("xmat: invalid text encoding")
)

// Usage errors.
var (
	ErrWrongMode    = fmt.Errorf("%w: wrong stream mode", ErrUsage)
	ErrClosed       = fmt.Errorf("%w: stream closed", ErrUsage)
	ErrNotScanned   = fmt.Errorf("%w: container not scanned", ErrUsage)
	ErrScanned      = fmt.Errorf("%w: container already scanned", ErrUsage)
	ErrNotMemory    = fmt.Errorf("%w: stream is not memory backed", ErrUsage)
	ErrNotFinalized = fmt.Errorf("%w: writer not closed", ErrUsage)
	ErrLimit        = fmt.Errorf("%w: block exceeds format limits", ErrUsage)
)

// Cursor errors.
var (
	ErrOutOfRange  = errors.New("xmat: seek out of range")
	ErrOutOfBounds = errors.New("xmat: read past end of stream")
)
