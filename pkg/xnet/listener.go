package xnet

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/google/uuid"
)

// AcceptHandler is called with every connection a Service accepts, before the
// connection is registered. Closing the connection inside the handler
// rejects it.
type AcceptHandler func(c *Connection)

// Listener is a listening TCP socket.
type Listener struct {
	id      string
	ln      net.Listener
	handler AcceptHandler
	closed  atomic.Bool
}

// Listen binds address and starts listening with the given backlog. A
// backlog <= 0 uses the system default.
func Listen(address string, backlog int) (*Listener, error) {
	ln, err := listenTCP(address, backlog)
	if err != nil {
		return nil, fmt.Errorf("xnet: listen %s: %w", address, err)
	}
	return NewListener(ln), nil
}

// NewListener wraps an existing listener. Readiness polling requires ln to
// expose its descriptor, as *net.TCPListener does.
func NewListener(ln net.Listener) *Listener {
	return &Listener{id: uuid.NewString(), ln: ln}
}

func (l *Listener) ID() string { return l.id }

func (l *Listener) State() State {
	if l.closed.Load() {
		return StateInvalid
	}
	return StateListener
}

// Addr returns the bound address, which carries the chosen port when
// listening on port 0.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Handle sets the callback run for each accepted connection.
func (l *Listener) Handle(h AcceptHandler) { l.handler = h }

// Accept blocks until a peer connects.
func (l *Listener) Accept() (*Connection, error) {
	if l.closed.Load() {
		return nil, ErrInvalidSocket
	}
	c, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("xnet: accept on %s: %w", l.ln.Addr(), err)
	}
	return NewConnection(c), nil
}

// Close stops listening. Calling Close again is a no-op.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	return l.ln.Close()
}

func (l *Listener) sysfd() (int, error) {
	if l.closed.Load() {
		return -1, ErrInvalidSocket
	}
	return sysfd(l.ln)
}
