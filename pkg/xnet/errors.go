package xnet

import (
	"errors"
	"fmt"
)

var (
	ErrUsage = errors.New("xnet: usage error")

	ErrWrongRole     = fmt.Errorf("%w: socket used in the wrong role", ErrUsage)
	ErrNotRegistered = fmt.Errorf("%w: socket not registered with service", ErrUsage)
	ErrInvalidSocket = fmt.Errorf("%w: socket is invalid", ErrUsage)

	ErrConnClosed      = errors.New("xnet: connection closed by peer")
	ErrMessageTooLarge = errors.New("xnet: message exceeds maximum size")
)
