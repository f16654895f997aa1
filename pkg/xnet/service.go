package xnet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sys/unix"

	"github.com/signalarray/xmat/pkg/xmat"
)

// Scope restricts Wait and Process to a kind of socket.
type Scope uint8

const (
	ScopeAll Scope = iota
	ScopeListeners
	ScopeConnections
)

func (s Scope) listeners() bool   { return s == ScopeAll || s == ScopeListeners }
func (s Scope) connections() bool { return s == ScopeAll || s == ScopeConnections }

// Ready is the subset of registered sockets with pending input.
type Ready struct {
	Listeners   []*Listener
	Connections []*Connection
}

func (r Ready) Empty() bool { return len(r.Listeners) == 0 && len(r.Connections) == 0 }

// Option configures a Service.
type Option func(*Service)

// WithServiceLogger sets the logger for lifecycle events. Accepted and dialed
// connections inherit it.
func WithServiceLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxMessageSize bounds the container size connections accept.
func WithMaxMessageSize(n uint64) Option {
	return func(s *Service) { s.maxSize = n }
}

// WithRecvEndian sets the byte order received headers are assumed to use.
func WithRecvEndian(e xmat.Endian) Option {
	return func(s *Service) { s.endian = e }
}

// Service owns a set of listeners and connections and multiplexes them with
// a readiness poll. It is meant to be driven from a single goroutine and is
// not safe for concurrent use.
type Service struct {
	listeners []*Listener
	conns     []*Connection

	log     Logger
	maxSize uint64
	endian  xmat.Endian
}

func NewService(opts ...Option) *Service {
	s := &Service{
		log:     nopLogger{},
		maxSize: DefaultMaxMessageSize,
		endian:  xmat.NativeEndian(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen opens and registers a listener.
func (s *Service) Listen(address string, backlog int) (*Listener, error) {
	l, err := Listen(address, backlog)
	if err != nil {
		return nil, err
	}
	s.listeners = append(s.listeners, l)
	s.log.Debug("listening", "id", l.ID(), "addr", l.Addr().String(), "backlog", backlog)
	return l, nil
}

// Dial opens and registers a connection.
func (s *Service) Dial(ctx context.Context, address string) (*Connection, error) {
	c, err := Dial(ctx, address)
	if err != nil {
		return nil, err
	}
	s.configure(c)
	s.conns = append(s.conns, c)
	s.log.Debug("connected", "id", c.ID(), "remote", c.RemoteAddr().String())
	return c, nil
}

// Register adds an existing socket to the poll set.
func (s *Service) Register(sock Socket) error {
	if sock == nil || sock.State() == StateInvalid {
		return ErrInvalidSocket
	}
	if s.owns(sock) {
		return fmt.Errorf("%w: %s already registered", ErrUsage, sock.ID())
	}
	switch v := sock.(type) {
	case *Listener:
		s.listeners = append(s.listeners, v)
	case *Connection:
		s.configure(v)
		s.conns = append(s.conns, v)
	default:
		return fmt.Errorf("%w: %T", ErrWrongRole, sock)
	}
	s.log.Debug("registered", "id", sock.ID(), "state", sock.State().String())
	return nil
}

func (s *Service) configure(c *Connection) {
	c.SetMaxMessageSize(s.maxSize)
	c.SetRecvEndian(s.endian)
	c.SetLogger(s.log)
}

// Accept accepts one connection on a registered listener. If the listener
// has a handler it runs first; a connection the handler closed is discarded
// and Accept returns nil, nil.
func (s *Service) Accept(l *Listener) (*Connection, error) {
	if !slices.Contains(s.listeners, l) {
		return nil, ErrNotRegistered
	}
	c, err := l.Accept()
	if err != nil {
		return nil, err
	}
	s.configure(c)
	if l.handler != nil {
		l.handler(c)
		if c.State() == StateInvalid {
			s.log.Debug("connection rejected", "id", c.ID(), "listener", l.ID())
			return nil, nil
		}
	}
	s.conns = append(s.conns, c)
	s.log.Debug("accepted", "id", c.ID(), "listener", l.ID(), "remote", c.RemoteAddr().String())
	return c, nil
}

// Wait polls the registered sockets in scope until at least one has input,
// the timeout expires or an error occurs. A negative timeout blocks
// indefinitely. Sockets closed outside the service are deregistered first;
// with nothing to poll Wait returns immediately.
func (s *Service) Wait(scope Scope, timeout time.Duration) (Ready, error) {
	s.prune()

	var socks []Socket
	if scope.listeners() {
		for _, l := range s.listeners {
			socks = append(socks, l)
		}
	}
	if scope.connections() {
		for _, c := range s.conns {
			socks = append(socks, c)
		}
	}
	if len(socks) == 0 {
		return Ready{}, nil
	}

	fds := make([]unix.PollFd, len(socks))
	for i, sock := range socks {
		fd, err := sock.sysfd()
		if err != nil {
			return Ready{}, fmt.Errorf("xnet: poll %s: %w", sock.ID(), err)
		}
		fds[i] = unix.PollFd{Fd: int32(fd), Events: unix.POLLIN}
	}

	ms := pollTimeout(timeout)
	for {
		_, err := unix.Poll(fds, ms)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EINTR) {
			return Ready{}, fmt.Errorf("xnet: poll: %w", err)
		}
	}

	var ready Ready
	const mask = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
	for i, sock := range socks {
		if fds[i].Revents&mask == 0 {
			continue
		}
		switch v := sock.(type) {
		case *Listener:
			ready.Listeners = append(ready.Listeners, v)
		case *Connection:
			ready.Connections = append(ready.Connections, v)
		}
	}
	return ready, nil
}

// pollTimeout converts d to poll(2) milliseconds, rounding up so that short
// positive timeouts do not become a non-blocking poll.
func pollTimeout(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > time.Duration(int32(^uint32(0)>>1)) {
		return -1
	}
	return int(ms)
}

// Process waits for input, accepts every ready listener, then receives one
// message on every ready connection that has a handler and dispatches it.
// Connections that fail to receive, or that the handler closed, are removed.
// A peer disconnect is not an error. Other failures are joined and returned
// together with the connections accepted during the call.
func (s *Service) Process(scope Scope, timeout time.Duration) ([]*Connection, error) {
	ready, err := s.Wait(scope, timeout)
	if err != nil {
		return nil, err
	}

	var accepted []*Connection
	var errs []error
	for _, l := range ready.Listeners {
		c, err := s.Accept(l)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if c != nil {
			accepted = append(accepted, c)
		}
	}

	for _, c := range ready.Connections {
		if c.handler == nil || c.State() == StateInvalid {
			continue
		}
		msg, err := c.Recv()
		if err != nil {
			if errors.Is(err, ErrConnClosed) {
				s.log.Debug("peer disconnected", "id", c.ID())
			} else {
				s.log.Debug("recv failed", "id", c.ID(), "error", err)
				errs = append(errs, err)
			}
			s.drop(c)
			continue
		}
		herr := c.handler(c, msg)
		_ = msg.Close()
		if herr != nil {
			errs = append(errs, fmt.Errorf("xnet: handler on %s: %w", c.ID(), herr))
		}
		if c.State() == StateInvalid {
			s.drop(c)
		}
	}
	return accepted, errors.Join(errs...)
}

// Remove deregisters and closes sock.
func (s *Service) Remove(sock Socket) error {
	if sock == nil || !s.owns(sock) {
		return ErrNotRegistered
	}
	switch v := sock.(type) {
	case *Listener:
		s.listeners = slices.DeleteFunc(s.listeners, func(l *Listener) bool { return l == v })
	case *Connection:
		s.conns = slices.DeleteFunc(s.conns, func(c *Connection) bool { return c == v })
	}
	s.log.Debug("removed", "id", sock.ID())
	return sock.Close()
}

func (s *Service) drop(c *Connection) {
	if err := s.Remove(c); err != nil && !errors.Is(err, ErrNotRegistered) {
		s.log.Debug("close failed", "id", c.ID(), "error", err)
	}
}

// prune deregisters sockets that were closed without going through Remove.
func (s *Service) prune() {
	s.listeners = slices.DeleteFunc(s.listeners, func(l *Listener) bool {
		if l.State() != StateInvalid {
			return false
		}
		s.log.Debug("pruned closed socket", "id", l.ID())
		return true
	})
	s.conns = slices.DeleteFunc(s.conns, func(c *Connection) bool {
		if c.State() != StateInvalid {
			return false
		}
		s.log.Debug("pruned closed socket", "id", c.ID())
		return true
	})
}

func (s *Service) owns(sock Socket) bool {
	switch v := sock.(type) {
	case *Listener:
		return slices.Contains(s.listeners, v)
	case *Connection:
		return slices.Contains(s.conns, v)
	}
	return false
}

// Close deregisters and closes every socket.
func (s *Service) Close() error {
	var errs []error
	for _, c := range s.conns {
		errs = append(errs, c.Close())
	}
	for _, l := range s.listeners {
		errs = append(errs, l.Close())
	}
	s.conns = nil
	s.listeners = nil
	return errors.Join(errs...)
}

// Listeners returns the open registered listeners in registration order.
func (s *Service) Listeners() []*Listener {
	s.prune()
	return slices.Clone(s.listeners)
}

// Connections returns the open registered connections in registration order.
func (s *Service) Connections() []*Connection {
	s.prune()
	return slices.Clone(s.conns)
}
