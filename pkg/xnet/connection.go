package xnet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"

	"github.com/signalarray/xmat/pkg/xmat"
)

// DefaultMaxMessageSize bounds the total a peer may announce in a header.
const DefaultMaxMessageSize uint64 = 1 << 30

// MessageHandler is called by Service.Process with each received container.
// The reader is closed after the handler returns. Closing c inside the
// handler deregisters it.
type MessageHandler func(c *Connection, msg *xmat.Reader) error

// Connection is a connected TCP socket that exchanges whole containers.
// Send and Recv block until the full message has been transferred.
type Connection struct {
	id      string
	conn    net.Conn
	handler MessageHandler
	closed  atomic.Bool

	maxSize uint64
	endian  xmat.Endian
	log     Logger

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
	msgsIn   atomic.Uint64
	msgsOut  atomic.Uint64
}

// NewConnection wraps an established connection.
func NewConnection(c net.Conn) *Connection {
	return &Connection{
		id:      uuid.NewString(),
		conn:    c,
		maxSize: DefaultMaxMessageSize,
		endian:  xmat.NativeEndian(),
		log:     nopLogger{},
	}
}

// Dial connects to address.
func Dial(ctx context.Context, address string) (*Connection, error) {
	var d net.Dialer
	c, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("xnet: dial %s: %w", address, err)
	}
	return NewConnection(c), nil
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) State() State {
	if c.closed.Load() {
		return StateInvalid
	}
	return StateConnection
}

func (c *Connection) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Handle sets the callback Service.Process runs for each received message.
func (c *Connection) Handle(h MessageHandler) { c.handler = h }

// SetMaxMessageSize bounds the container size Recv accepts.
func (c *Connection) SetMaxMessageSize(n uint64) { c.maxSize = n }

// SetRecvEndian sets the byte order received headers are assumed to use.
func (c *Connection) SetRecvEndian(e xmat.Endian) { c.endian = e }

// SetLogger sets the destination for receive diagnostics.
func (c *Connection) SetLogger(l Logger) {
	if l != nil {
		c.log = l
	}
}

// Stats returns the bytes and messages transferred so far.
func (c *Connection) Stats() (bytesIn, bytesOut, msgsIn, msgsOut uint64) {
	return c.bytesIn.Load(), c.bytesOut.Load(), c.msgsIn.Load(), c.msgsOut.Load()
}

// Send transmits a finished memory-backed container.
func (c *Connection) Send(w *xmat.Writer) error {
	buf, err := w.Bytes()
	if err != nil {
		return err
	}
	if err := c.SendBytes(buf); err != nil {
		return err
	}
	c.msgsOut.Add(1)
	return nil
}

// Recv reads exactly one container. The header is read first to learn the
// total length, then the remainder is read and scanned.
func (c *Connection) Recv() (*xmat.Reader, error) {
	if c.closed.Load() {
		return nil, ErrInvalidSocket
	}
	r, err := xmat.NewDeferredReader(xmat.NewByteReader(nil, c.endian), xmat.WithLogger(c.log))
	if err != nil {
		return nil, err
	}

	head, err := c.RecvBytes(xmat.HeaderSize)
	if err != nil {
		return nil, err
	}
	if err := r.Push(head); err != nil {
		return nil, err
	}
	if err := r.ScanHeader(); err != nil {
		return nil, err
	}

	total := r.Header().Total
	if total > c.maxSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, total, c.maxSize)
	}
	body, err := c.RecvBytes(int(total - xmat.HeaderSize))
	if err != nil {
		return nil, err
	}
	if err := r.Push(body); err != nil {
		return nil, err
	}
	if err := r.ScanData(); err != nil {
		return nil, err
	}
	c.msgsIn.Add(1)
	return r, nil
}

// SendBytes writes all of p, retrying partial writes.
func (c *Connection) SendBytes(p []byte) error {
	if c.closed.Load() {
		return ErrInvalidSocket
	}
	for len(p) > 0 {
		n, err := c.conn.Write(p)
		c.bytesOut.Add(uint64(n))
		p = p[n:]
		if err != nil {
			return c.transferError("send", err)
		}
		if n == 0 {
			return fmt.Errorf("xnet: send: %w", io.ErrShortWrite)
		}
	}
	return nil
}

// RecvBytes reads exactly n bytes, retrying partial reads.
func (c *Connection) RecvBytes(n int) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrInvalidSocket
	}
	if n < 0 {
		return nil, fmt.Errorf("xnet: negative receive length %d", n)
	}
	buf := make([]byte, n)
	if err := c.recvFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *Connection) recvFull(buf []byte) error {
	got := 0
	for got < len(buf) {
		n, err := c.conn.Read(buf[got:])
		got += n
		c.bytesIn.Add(uint64(n))
		if err != nil {
			if got == len(buf) {
				return nil
			}
			return c.transferError("recv", err)
		}
	}
	return nil
}

func (c *Connection) transferError(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("xnet: %s on %s: %w", op, c.id, ErrConnClosed)
	}
	return fmt.Errorf("xnet: %s on %s: %w", op, c.id, err)
}

// Close closes the socket and marks it invalid. Calling Close again is a
// no-op.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Connection) sysfd() (int, error) {
	if c.closed.Load() {
		return -1, ErrInvalidSocket
	}
	return sysfd(c.conn)
}
