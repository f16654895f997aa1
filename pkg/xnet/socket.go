// Package xnet frames xmat containers as messages over TCP and multiplexes
// many sockets from a single goroutine.
//
// A message is one complete container. The receiver reads the fixed header,
// learns the container's total length from it and reads the remainder; there
// is no other length prefix on the wire.
//
// Readiness polling uses poll(2), so the package builds on unix systems only.
package xnet

import (
	"fmt"
	"syscall"
)

// State is the role a socket currently plays.
type State uint8

const (
	StateInvalid State = iota
	StateListener
	StateConnection
)

func (s State) String() string {
	switch s {
	case StateListener:
		return "listener"
	case StateConnection:
		return "connection"
	default:
		return "invalid"
	}
}

// Socket is implemented by *Listener and *Connection.
type Socket interface {
	ID() string
	State() State
	Close() error

	sysfd() (int, error)
}

// Logger receives transport diagnostics. internal/logger.Logger and
// *slog.Logger both satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// sysfd returns the descriptor behind c for readiness polling. The descriptor
// stays owned by c.
func sysfd(c any) (int, error) {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("%w: %T has no file descriptor", ErrInvalidSocket, c)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	if err := raw.Control(func(p uintptr) { fd = int(p) }); err != nil {
		return -1, err
	}
	return fd, nil
}
